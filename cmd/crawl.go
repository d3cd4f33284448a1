package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/pkg/firecrawl"
)

var (
	crawlLimit int
	mapLimit   int
	mapSearch  string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <url>",
	Short: "Crawl a site through Firecrawl and print every page as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		progress := firecrawl.WithProgress(func(done, total int) {
			fmt.Fprintf(cmd.ErrOrStderr(), "crawl: %d/%d pages\n", done, total)
		})
		resp, err := env.crawl(cmd.Context(), args[0], crawlLimit, progress)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, resp, formatCrawl(resp))
	},
}

var mapCmd = &cobra.Command{
	Use:   "map <url>",
	Short: "List the URLs of a site through Firecrawl",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.mapSite(cmd.Context(), args[0], mapSearch, mapLimit)
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, resp, formatMap(resp))
	},
}

func init() {
	crawlCmd.Flags().IntVar(&crawlLimit, "limit", scrape.DefaultCrawlLimit, "maximum pages to crawl")
	mapCmd.Flags().IntVar(&mapLimit, "limit", scrape.DefaultMapLimit, "maximum URLs to return")
	mapCmd.Flags().StringVar(&mapSearch, "search", "", "only return URLs matching this search")
	rootCmd.AddCommand(crawlCmd, mapCmd)
}

func formatCrawl(resp *firecrawl.CrawlStatusResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s, Seiten: %d/%d", resp.Status, resp.Completed, resp.Total)
	if resp.CreditsUsed > 0 {
		fmt.Fprintf(&b, ", Credits: %d", resp.CreditsUsed)
	}
	for _, p := range resp.Data {
		fmt.Fprintf(&b, "\n\n## %s\n\n%s", pageLabel(p), p.Markdown)
	}
	return b.String()
}

func pageLabel(p firecrawl.PageData) string {
	if p.Metadata.Title != "" {
		return p.Metadata.Title
	}
	return p.Metadata.SourceURL
}

func formatMap(resp *firecrawl.MapResponse) string {
	if len(resp.Links) == 0 {
		return "keine URLs gefunden"
	}
	lines := make([]string, 0, len(resp.Links))
	for _, l := range resp.Links {
		if l.Title != "" {
			lines = append(lines, l.URL+"  "+l.Title)
			continue
		}
		lines = append(lines, l.URL)
	}
	return strings.Join(lines, "\n")
}
