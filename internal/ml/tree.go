package ml

import "sort"

// TreeNode 회귀 트리 노드
// gob 직렬화를 위해 필드를 전부 노출
type TreeNode struct {
	Feature   int
	Threshold float64
	Value     float64
	Left      *TreeNode
	Right     *TreeNode
}

// IsLeaf reports whether the node is a terminal node
func (n *TreeNode) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Predict walks the tree for a single feature vector
func (n *TreeNode) Predict(x []float64) float64 {
	node := n
	for !node.IsLeaf() {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// minLeafSize 분기 최소 표본 수
const minLeafSize = 2

// buildTree fits a regression tree to the targets by recursive
// variance-reduction splitting over the allowed feature subset.
func buildTree(X [][]float64, y []float64, indices []int, features []int, depth, maxDepth int) *TreeNode {
	if depth >= maxDepth || len(indices) < minLeafSize {
		return &TreeNode{Value: mean(y, indices)}
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	baseSSE := sse(y, indices)

	for _, f := range features {
		threshold, gain := bestSplitForFeature(X, y, indices, f, baseSSE)
		if gain > bestGain {
			bestFeature, bestThreshold, bestGain = f, threshold, gain
		}
	}

	if bestFeature < 0 {
		return &TreeNode{Value: mean(y, indices)}
	}

	var left, right []int
	for _, i := range indices {
		if X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Value: mean(y, indices)}
	}

	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      buildTree(X, y, left, features, depth+1, maxDepth),
		Right:     buildTree(X, y, right, features, depth+1, maxDepth),
	}
}

// bestSplitForFeature finds the threshold that maximizes SSE reduction
// for a single feature. 임계값은 인접 관측값의 중간점
func bestSplitForFeature(X [][]float64, y []float64, indices []int, feature int, baseSSE float64) (float64, float64) {
	type pair struct {
		v float64
		y float64
	}

	pairs := make([]pair, 0, len(indices))
	for _, i := range indices {
		pairs = append(pairs, pair{v: X[i][feature], y: y[i]})
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].v < pairs[b].v })

	n := len(pairs)

	// Prefix sums for O(1) per-candidate SSE
	prefixSum := make([]float64, n+1)
	prefixSq := make([]float64, n+1)
	for i, p := range pairs {
		prefixSum[i+1] = prefixSum[i] + p.y
		prefixSq[i+1] = prefixSq[i] + p.y*p.y
	}

	bestThreshold, bestGain := 0.0, 0.0
	for i := 1; i < n; i++ {
		if pairs[i].v == pairs[i-1].v {
			continue
		}

		leftSSE := prefixSq[i] - prefixSum[i]*prefixSum[i]/float64(i)
		rightSum := prefixSum[n] - prefixSum[i]
		rightSSE := (prefixSq[n] - prefixSq[i]) - rightSum*rightSum/float64(n-i)

		gain := baseSSE - leftSSE - rightSSE
		if gain > bestGain {
			bestGain = gain
			bestThreshold = (pairs[i].v + pairs[i-1].v) / 2
		}
	}

	return bestThreshold, bestGain
}

func mean(y []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	var sum float64
	for _, i := range indices {
		sum += y[i]
	}
	return sum / float64(len(indices))
}

func sse(y []float64, indices []int) float64 {
	m := mean(y, indices)
	var total float64
	for _, i := range indices {
		d := y[i] - m
		total += d * d
	}
	return total
}
