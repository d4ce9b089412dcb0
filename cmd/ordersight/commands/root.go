package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ordersight",
	Short: "OrderSight - 점포 발주 수요예측 시스템",
	Long: `OrderSight CLI

점포별 판매 SQLite DB를 읽어 중분류 단위 내일 수요를 예측하고
상품별 발주 추천 수량을 산출합니다.

Usage:
  go run ./cmd/ordersight [command]

Examples:
  go run ./cmd/ordersight predict ./data/store_0001.db
  go run ./cmd/ordersight predict ./data/store_0001.db ./data/store_0002.db --tune
  go run ./cmd/ordersight evaluate ./data/store_0001.db
  go run ./cmd/ordersight serve ./data/store_0001.db --port 8080`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
