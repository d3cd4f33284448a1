package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/scout/internal/analyze"
	"github.com/sells-group/scout/internal/export"
)

var (
	compareFrom   string
	compareSheet  string
	compareColumn string
	compareXLSX   string
)

var analyzeCmd = &cobra.Command{
	Use:       "analyze {tech|seo|procurement} <url>",
	Short:     "Analyze a page for tech stack, SEO or e-procurement features",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{"tech", "seo", "procurement"},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, ok := analyze.ParseKind(args[0])
		if !ok {
			return eris.Errorf("unknown analyzer %q (want tech, seo or procurement)", args[0])
		}

		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		rep := env.analyze(cmd.Context(), kind, args[1])
		text := rep.Formatted
		if !rep.Success {
			text = "Fehler: " + rep.Error
		}
		if err := render(cmd.OutOrStdout(), outputFormat, rep, text); err != nil {
			return err
		}
		return failure(rep.Error)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [urls...]",
	Short: "Run every analyzer over several pages and compare the results",
	Long: `Run the tech-stack, SEO and procurement analyzers over several pages.
URLs come from the arguments and, with --from, from a column of an Excel
workbook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if compareFrom != "" {
			imported, err := importURLs(compareFrom, compareSheet, compareColumn)
			if err != nil {
				return err
			}
			urls = append(urls, imported...)
		}
		urls = compactURLs(urls)
		if len(urls) == 0 {
			return eris.New("no URLs given")
		}

		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("comparing pages", zap.Int("urls", len(urls)), zap.Int("concurrency", env.Compare))
		rows := env.compare(cmd.Context(), urls)

		if compareXLSX != "" {
			if err := writeXLSX(compareXLSX, func(f *os.File) error { return export.WriteComparison(f, rows) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d rows to %s\n", len(rows), compareXLSX)
		}
		return render(cmd.OutOrStdout(), outputFormat, rows, analyze.FormatComparison(rows))
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareFrom, "from", "", "read URLs from this .xlsx, .csv or .txt file")
	compareCmd.Flags().StringVar(&compareSheet, "sheet", "", "sheet name in --from (default first sheet)")
	compareCmd.Flags().StringVar(&compareColumn, "column", "", "column in --from holding the URLs, e.g. A (default any)")
	compareCmd.Flags().StringVar(&compareXLSX, "xlsx", "", "also write the comparison to this .xlsx file")

	analyzeCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func importURLs(path, sheet, column string) ([]string, error) {
	opts := export.URLOptions{SheetName: sheet, Column: -1}
	if column != "" {
		col, err := export.ParseColumn(column)
		if err != nil {
			return nil, err
		}
		opts.Column = col
	}
	var (
		urls []string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		urls, err = readURLsCSV(path, opts.Column)
	default:
		urls, err = export.ReadURLs(path, opts)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "import urls from %s", path)
	}
	return urls, nil
}

func readURLsCSV(path string, column int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return export.ReadURLsCSV(f, column)
}
