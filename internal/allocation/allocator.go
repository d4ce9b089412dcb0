package allocation

import (
	"container/heap"
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhkim-dev/ordersight/internal/contracts"
	"github.com/dhkim-dev/ordersight/internal/salesdata"
)

// unpopularThreshold 누적 판매가 이 값 미만이면 데이터가 부족한 상품으로 본다
const unpopularThreshold = 10

// stockoutWindowDays 품절률을 보는 직전 기간
const stockoutWindowDays = 7

// explorationEpsilon 소수부가 이보다 크면 탐색 픽 1개를 추가
const explorationEpsilon = 0.01

// Allocator converts a scalar category forecast into an integer per-SKU
// order recommendation list.
//
// 배분 규칙:
//  1. 누적 판매 양수인 상품만 후보
//  2. 판매 비중에 (1 + 품절률) 가중 후 재정규화
//  3. floor(예측치)를 반올림 배분, 0 수량은 제거
//  4. 반올림 오차는 비중 힙으로 보정
//  5. 소수부가 남으면 탐색 픽 1개
type Allocator struct {
	repo *salesdata.Repository
	log  zerolog.Logger

	// now is overridable for tests
	now func() time.Time
}

// NewAllocator 새 할당기 생성
func NewAllocator(repo *salesdata.Repository, log zerolog.Logger) *Allocator {
	return &Allocator{
		repo: repo,
		log:  log.With().Str("component", "allocation.allocator").Logger(),
		now:  time.Now,
	}
}

// candidate 배분 작업용 내부 상태
type candidate struct {
	product  contracts.ProductSales
	share    float64
	quantity int
}

// Allocate distributes predictedSales across the category's products.
// 후보가 없으면 빈 목록
func (a *Allocator) Allocate(ctx context.Context, midCode string, predictedSales float64) ([]contracts.RecommendedItem, error) {
	products, err := a.repo.GetProductSales(ctx, midCode)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		a.log.Warn().Str("mid_code", midCode).Msg("no candidate products, empty recommendation")
		return []contracts.RecommendedItem{}, nil
	}

	rates, err := a.repo.GetStockoutRates(ctx, midCode, a.now(), stockoutWindowDays)
	if err != nil {
		return nil, err
	}
	for i := range products {
		products[i].StockoutRate = rates[products[i].ProductCode]
	}

	candidates := buildShares(products)

	n := int(math.Floor(predictedSales))
	allocated := roundedAllocation(candidates, n)
	allocated = correctRounding(allocated, n)

	if predictedSales-float64(n) > explorationEpsilon {
		allocated = a.addExplorationPick(allocated, candidates)
	}

	items := make([]contracts.RecommendedItem, 0, len(allocated))
	for _, c := range allocated {
		if c.quantity < 1 {
			continue
		}
		items = append(items, contracts.RecommendedItem{
			ProductCode:  c.product.ProductCode,
			ProductName:  c.product.ProductName,
			Quantity:     c.quantity,
			StockoutRate: c.product.StockoutRate,
			Reason:       reasonFor(c.product),
		})
	}

	a.log.Info().
		Str("mid_code", midCode).
		Float64("predicted_sales", predictedSales).
		Int("items", len(items)).
		Msg("allocation completed")

	return items, nil
}

// buildShares computes stockout-reweighted normalized shares.
// 전체 판매가 0이면 균등 분배
func buildShares(products []contracts.ProductSales) []candidate {
	var totalSales int
	for _, p := range products {
		totalSales += p.TotalSales
	}

	candidates := make([]candidate, len(products))
	var weightSum float64
	for i, p := range products {
		var base float64
		if totalSales > 0 {
			base = float64(p.TotalSales) / float64(totalSales)
		} else {
			base = 1.0 / float64(len(products))
		}

		weighted := base * (1.0 + p.StockoutRate)
		candidates[i] = candidate{product: p, share: weighted}
		weightSum += weighted
	}

	if weightSum > 0 {
		for i := range candidates {
			candidates[i].share /= weightSum
		}
	}

	return candidates
}

// roundedAllocation assigns round(n * share) per product and drops zeros
func roundedAllocation(candidates []candidate, n int) []candidate {
	var allocated []candidate
	for _, c := range candidates {
		c.quantity = int(math.Round(float64(n) * c.share))
		if c.quantity > 0 {
			allocated = append(allocated, c)
		}
	}
	return allocated
}

// correctRounding fixes the drift between n and the allocated sum.
// 부족분은 비중이 큰 쪽부터 +1, 초과분은 수량 2 이상 중 비중 작은 쪽부터 -1
func correctRounding(allocated []candidate, n int) []candidate {
	if len(allocated) == 0 {
		return allocated
	}

	var sum int
	for _, c := range allocated {
		sum += c.quantity
	}
	deficit := n - sum

	switch {
	case deficit > 0:
		h := newShareHeap(true)
		h.items = allocated
		for i := range allocated {
			h.idx = append(h.idx, i)
		}
		heap.Init(h)
		for ; deficit > 0; deficit-- {
			top := heap.Pop(h).(int)
			allocated[top].quantity++
			heap.Push(h, top)
		}

	case deficit < 0:
		h := newShareHeap(false)
		h.items = allocated
		for i := range allocated {
			if allocated[i].quantity > 1 {
				h.idx = append(h.idx, i)
			}
		}
		heap.Init(h)
		for surplus := -deficit; surplus > 0 && h.Len() > 0; surplus-- {
			low := heap.Pop(h).(int)
			allocated[low].quantity--
			if allocated[low].quantity > 1 {
				heap.Push(h, low)
			}
		}
	}

	return allocated
}

// addExplorationPick adds one unit of an under-observed product.
// 선호 순서: 비인기 + 미배분 → 비인기 → 미배분 → 아무 상품
// 탐색은 의도된 노이즈라서 시드를 고정하지 않는다
func (a *Allocator) addExplorationPick(allocated []candidate, candidates []candidate) []candidate {
	inList := make(map[string]int, len(allocated))
	for i, c := range allocated {
		inList[c.product.ProductCode] = i
	}

	pick := func(filter func(candidate) bool) (candidate, bool) {
		var eligible []candidate
		for _, c := range candidates {
			if filter(c) {
				eligible = append(eligible, c)
			}
		}
		if len(eligible) == 0 {
			return candidate{}, false
		}
		return eligible[rand.Intn(len(eligible))], true
	}

	chosen, ok := pick(func(c candidate) bool {
		_, present := inList[c.product.ProductCode]
		return c.product.TotalSales < unpopularThreshold && !present
	})
	if !ok {
		chosen, ok = pick(func(c candidate) bool {
			return c.product.TotalSales < unpopularThreshold
		})
	}
	if !ok {
		chosen, ok = pick(func(c candidate) bool {
			_, present := inList[c.product.ProductCode]
			return !present
		})
	}
	if !ok {
		chosen, ok = pick(func(c candidate) bool { return true })
	}
	if !ok {
		return allocated
	}

	if i, present := inList[chosen.product.ProductCode]; present {
		allocated[i].quantity++
	} else {
		chosen.quantity = 1
		allocated = append(allocated, chosen)
	}

	a.log.Debug().
		Str("product_code", chosen.product.ProductCode).
		Int("lifetime_sales", chosen.product.TotalSales).
		Msg("exploration pick added")

	return allocated
}

// reasonFor tags why the product made the list
func reasonFor(p contracts.ProductSales) string {
	if p.StockoutRate > 0 {
		return contracts.ReasonStockoutAdjusted
	}
	if p.TotalSales >= unpopularThreshold {
		return contracts.ReasonPercentage
	}
	return contracts.ReasonDataGathering
}

// shareHeap is an index heap over candidates ordered by share
type shareHeap struct {
	items []candidate
	idx   []int
	max   bool
}

func newShareHeap(max bool) *shareHeap {
	return &shareHeap{max: max}
}

func (h *shareHeap) Len() int { return len(h.idx) }

func (h *shareHeap) Less(i, j int) bool {
	if h.max {
		return h.items[h.idx[i]].share > h.items[h.idx[j]].share
	}
	return h.items[h.idx[i]].share < h.items[h.idx[j]].share
}

func (h *shareHeap) Swap(i, j int) { h.idx[i], h.idx[j] = h.idx[j], h.idx[i] }

func (h *shareHeap) Push(x interface{}) { h.idx = append(h.idx, x.(int)) }

func (h *shareHeap) Pop() interface{} {
	old := h.idx
	n := len(old)
	x := old[n-1]
	h.idx = old[:n-1]
	return x
}
