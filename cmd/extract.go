package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout/internal/scrape"
	"github.com/sells-group/scout/pkg/firecrawl"
)

var (
	extractPrompt string
	extractSchema string
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>...",
	Short: "Extract structured data from pages through Firecrawl",
	Long: `Ask Firecrawl to pull structured data out of one or more pages. A URL
ending in /* covers the whole section below it. Describe the data with
--prompt, --schema or both; --schema takes inline JSON or @path to a file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := readSchema(extractSchema)
		if err != nil {
			return err
		}

		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.extract(cmd.Context(), scrape.ExtractRequest{
			URLs:   args,
			Prompt: extractPrompt,
			Schema: schema,
		})
		if err != nil {
			return err
		}
		return render(cmd.OutOrStdout(), outputFormat, resp, formatExtract(resp))
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractPrompt, "prompt", "", "what to extract, in plain language")
	extractCmd.Flags().StringVar(&extractSchema, "schema", "", "JSON schema of the result, inline or @path")
	rootCmd.AddCommand(extractCmd)
}

// readSchema returns the --schema value, loading it from a file when it
// starts with @.
func readSchema(v string) (json.RawMessage, error) {
	v = strings.TrimSpace(v)
	if path, ok := strings.CutPrefix(v, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "read schema %s", path)
		}
		return json.RawMessage(data), nil
	}
	if v == "" {
		return nil, nil
	}
	return json.RawMessage(v), nil
}

func formatExtract(resp *firecrawl.ExtractResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s", resp.Status)
	if resp.ID != "" {
		fmt.Fprintf(&b, " (Job %s)", resp.ID)
	}
	if resp.CreditsUsed > 0 {
		fmt.Fprintf(&b, ", Credits: %d", resp.CreditsUsed)
	}
	var pretty bytes.Buffer
	if len(resp.Data) > 0 && json.Indent(&pretty, resp.Data, "", "  ") == nil {
		b.WriteString("\n\n")
		b.WriteString(pretty.String())
	}
	return b.String()
}
