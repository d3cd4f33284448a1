package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/config"
)

var (
	cfg          *config.Config
	outputFormat string
	entryTags    []string
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Multi-provider scraping and website analysis",
	Long:  "Scrapes pages through Jina, ScrapingAnt, Firecrawl, Exa or a direct fetch with automatic fallback, and analyzes the HTML for tech stack, SEO and e-procurement features.",
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

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().StringSliceVar(&entryTags, "tag", nil, "tag added to recorded history entries (repeatable)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
