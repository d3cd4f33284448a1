package main

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/export"
	"github.com/sells-group/scout/internal/store"
)

var nowFunc = time.Now

var (
	historyArgs  historyParams
	historyLimit int
	historyOut   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage the request history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List history entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, st store.Store) error {
			entries, err := listHistory(ctx, st)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), outputFormat, entries, formatEntries(entries))
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one history entry including its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, st store.Store) error {
			e, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			text := formatEntries([]store.Entry{*e}) + "\n\n" + e.Preview
			return render(cmd.OutOrStdout(), outputFormat, e, text)
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one history entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, st store.Store) error {
			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all history entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, st store.Store) error {
			if err := st.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the history by type and domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, st store.Store) error {
			entries, err := st.List(ctx, store.Filter{})
			if err != nil {
				return eris.Wrap(err, "history stats")
			}
			stats := store.ComputeStats(entries, nowFunc())
			return render(cmd.OutOrStdout(), outputFormat, stats, formatStats(stats))
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export history entries to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withHistory(cmd.Context(), func(ctx context.Context, st store.Store) error {
			entries, err := listHistory(ctx, st)
			if err != nil {
				return err
			}
			if err := writeXLSX(historyOut, func(f *os.File) error { return export.WriteHistory(f, entries) }); err != nil {
				return err
			}
			zap.L().Info("history exported", zap.String("path", historyOut), zap.Int("entries", len(entries)))
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(entries), historyOut)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().StringVar(&historyArgs.Type, "type", "", "entry type (scrape, search, crawl, map, extract, agent, tech, seo, procurement)")
		c.Flags().StringVar(&historyArgs.URL, "url", "", "URL substring filter")
		c.Flags().StringVar(&historyArgs.Domain, "domain", "", "only entries for this host (case-insensitive)")
		c.Flags().StringVar(&historyArgs.Tag, "tagged", "", "only entries carrying this tag")
		c.Flags().StringVar(&historyArgs.Since, "since", "", "only entries at or after this date (YYYY-MM-DD or RFC3339)")
		c.Flags().StringVar(&historyArgs.Until, "until", "", "only entries at or before this date (YYYY-MM-DD or RFC3339)")
		c.Flags().IntVar(&historyLimit, "limit", store.MaxEntries, "maximum number of entries")
	}
	historyExportCmd.Flags().StringVar(&historyOut, "out", "history.xlsx", "output .xlsx path")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd, historyStatsCmd, historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}

// withHistory opens the configured store and runs fn against it.
func withHistory(ctx context.Context, fn func(ctx context.Context, st store.Store) error) error {
	env, err := initApp(ctx, "cli")
	if err != nil {
		return err
	}
	defer env.Close()

	st := env.History.Store()
	if st == nil {
		return eris.New("history is disabled (store.driver is none)")
	}
	return fn(ctx, st)
}

func listHistory(ctx context.Context, st store.Store) ([]store.Entry, error) {
	p := historyArgs
	p.Limit = strconv.Itoa(historyLimit)
	f, err := p.filter()
	if err != nil {
		return nil, err
	}
	entries, err := st.List(ctx, f)
	if err != nil {
		return nil, eris.Wrap(err, "history list")
	}
	return entries, nil
}

// historyParams holds raw filter values as given on the command line or
// in a query string. Empty values match everything.
type historyParams struct {
	Type   string
	URL    string
	Domain string
	Tag    string
	Since  string
	Until  string
	Limit  string
}

func queryHistoryParams(q url.Values) historyParams {
	return historyParams{
		Type:   q.Get("type"),
		URL:    q.Get("url"),
		Domain: q.Get("domain"),
		Tag:    q.Get("tag"),
		Since:  q.Get("since"),
		Until:  q.Get("until"),
		Limit:  q.Get("limit"),
	}
}

func (p historyParams) filter() (store.Filter, error) {
	f := store.Filter{
		URL:    strings.TrimSpace(p.URL),
		Domain: strings.TrimSpace(p.Domain),
		Tag:    strings.TrimSpace(p.Tag),
	}

	if p.Type != "" {
		t, ok := store.ParseEntryType(p.Type)
		if !ok {
			return f, eris.Errorf("unknown entry type %q", p.Type)
		}
		f.Type = t
	}

	var err error
	if p.Since != "" {
		if f.Since, err = parseDate(p.Since, false); err != nil {
			return f, err
		}
	}
	if p.Until != "" {
		if f.Until, err = parseDate(p.Until, true); err != nil {
			return f, err
		}
	}

	if p.Limit != "" {
		n, err := strconv.Atoi(p.Limit)
		if err != nil || n < 0 {
			return f, eris.Errorf("invalid limit %q", p.Limit)
		}
		f.Limit = n
	}
	return f, nil
}

// parseDate accepts RFC3339 or a plain date. A plain date used as an upper
// bound covers the whole day.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, eris.Errorf("invalid date %q (want YYYY-MM-DD or RFC3339)", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// writeXLSX creates path and hands it to write.
func writeXLSX(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "write %s", path)
	}
	return eris.Wrapf(f.Close(), "close %s", path)
}

func formatEntries(entries []store.Entry) string {
	if len(entries) == 0 {
		return "no history entries"
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tZEITPUNKT\tTYP\tPROVIDER\tURL\tTITEL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Timestamp.Local().Format("2006-01-02 15:04"), e.Type.Label(), e.Provider, e.URL, e.Title)
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

func formatStats(st store.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Einträge: %d (letzte 7 Tage: %d)\n", st.Total, st.LastWeek)
	b.WriteString("Nach Typ:\n")
	for _, k := range sortedKeys(st.ByType) {
		fmt.Fprintf(&b, "  %-14s %d\n", store.EntryType(k).Label(), st.ByType[k])
	}
	b.WriteString("Nach Domain:\n")
	for _, k := range sortedKeys(st.ByDomain) {
		fmt.Fprintf(&b, "  %-30s %d\n", k, st.ByDomain[k])
	}
	return strings.TrimRight(b.String(), "\n")
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
