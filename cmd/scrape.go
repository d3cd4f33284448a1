package main

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout/internal/scrape"
)

var (
	scrapeProvider   string
	scrapeNoFallback bool
	scrapeJS         bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Fetch a page as markdown through the provider fallback chain",
	Long: `Fetch a page as markdown. Without --provider the configured fallback
chain is walked until one provider succeeds. --provider firecrawl uses the
Firecrawl scrape API directly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := scrape.Request{
			URL:             args[0],
			DisableFallback: scrapeNoFallback,
			JSRendering:     scrapeJS,
		}
		if scrapeProvider != "" {
			p, ok := scrape.ParseProvider(scrapeProvider)
			if !ok {
				return eris.Errorf("unknown provider %q", scrapeProvider)
			}
			req.Provider = p
		}

		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.scrape(cmd.Context(), req)
		if err := render(cmd.OutOrStdout(), outputFormat, res, formatScrape(res)); err != nil {
			return err
		}
		return failure(res.Error)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeProvider, "provider", "", "provider to use (jina, scrapingant, firecrawl, exa, native)")
	scrapeCmd.Flags().BoolVar(&scrapeNoFallback, "no-fallback", false, "stop after the first provider")
	scrapeCmd.Flags().BoolVar(&scrapeJS, "js", false, "request JavaScript rendering (ScrapingAnt)")
	rootCmd.AddCommand(scrapeCmd)
}

func formatScrape(res scrape.Result) string {
	if !res.Success {
		return fmt.Sprintf("Fehler (%s): %s", res.Provider, res.Error)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Provider: %s", res.Provider)
	if res.FallbackUsed {
		b.WriteString(" (Fallback)")
	}
	if res.CreditsUsed > 0 {
		fmt.Fprintf(&b, ", Credits: %d", res.CreditsUsed)
	}
	b.WriteString("\n")
	if res.Data.Title != "" {
		fmt.Fprintf(&b, "Titel: %s\n", res.Data.Title)
	}
	b.WriteString("\n")
	b.WriteString(res.Data.Markdown)
	return b.String()
}
