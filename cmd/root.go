package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fedreturn/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "fedreturn",
	Short: "Federal return per tax dollar by congressional district",
	Long:  "Fetches county-level federal award totals from USAspending, joins them with county income tax figures, and reports how many dollars of federal funding return per dollar of tax paid.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
