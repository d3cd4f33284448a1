package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout/internal/scrape"
)

var providersTool string

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List scrape providers and whether they are configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := newAppEnv(cfg, providerClients(cfg))
		statuses := env.Scraper.Providers()
		if providersTool != "" {
			tool, ok := scrape.ParseTool(providersTool)
			if !ok {
				return eris.Errorf("unknown tool %q", providersTool)
			}
			statuses = env.Scraper.ProvidersWith(tool)
		}
		return render(cmd.OutOrStdout(), outputFormat, statuses, formatProviders(statuses, env.Scraper.Chain()))
	},
}

func init() {
	providersCmd.Flags().StringVar(&providersTool, "tool", "", "only providers serving this tool (scrape, search, crawl, map, extract, agent)")
	rootCmd.AddCommand(providersCmd)
}

func formatProviders(statuses []scrape.Status, chain []scrape.Provider) string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tKONFIGURIERT\tAPI-KEY\tTOOLS")
	for _, s := range statuses {
		configured := "nein"
		if s.Configured {
			configured = "ja"
		}
		tools := make([]string, 0, len(s.Tools))
		for _, t := range s.Tools {
			tools = append(tools, string(t))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, configured, s.APIKeyEnv, strings.Join(tools, ", "))
	}
	_ = tw.Flush()

	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, string(p))
	}
	fmt.Fprintf(&b, "\nFallback-Kette: %s", strings.Join(names, " → "))
	return b.String()
}
