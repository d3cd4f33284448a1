package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/scout/internal/scrape"
)

var (
	searchNum     int
	searchInclude []string
	searchExclude []string
	searchSimilar bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the web through Exa",
	Long: `Search the web through Exa. With --similar the argument is a URL and
pages similar to it are returned instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		var res scrape.SearchResult
		if searchSimilar {
			res = env.findSimilar(cmd.Context(), args[0], scrape.SearchOptions{
				NumResults:     searchNum,
				IncludeDomains: searchInclude,
				ExcludeDomains: searchExclude,
			})
		} else {
			res = env.search(cmd.Context(), scrape.SearchRequest{
				Query:          strings.Join(args, " "),
				NumResults:     searchNum,
				IncludeDomains: searchInclude,
				ExcludeDomains: searchExclude,
			})
		}

		if err := render(cmd.OutOrStdout(), outputFormat, res, formatSearch(res)); err != nil {
			return err
		}
		return failure(res.Error)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchNum, "num", "n", scrape.DefaultNumResults, "number of results")
	searchCmd.Flags().StringSliceVar(&searchInclude, "include-domain", nil, "only return results from these domains")
	searchCmd.Flags().StringSliceVar(&searchExclude, "exclude-domain", nil, "never return results from these domains")
	searchCmd.Flags().BoolVar(&searchSimilar, "similar", false, "find pages similar to the given URL")
	rootCmd.AddCommand(searchCmd)
}

func formatSearch(res scrape.SearchResult) string {
	if !res.Success {
		return fmt.Sprintf("Fehler (%s): %s", res.Provider, res.Error)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d Ergebnisse für %q\n", res.Data.TotalResults, res.Data.Query)
	for i, h := range res.Data.Results {
		fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, h.Title, h.URL)
		if h.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", h.Snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
