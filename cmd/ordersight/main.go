package main

import (
	"os"

	"github.com/dhkim-dev/ordersight/cmd/ordersight/commands"
)

// main is the entry point for the OrderSight CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ordersight [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
