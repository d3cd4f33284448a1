package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/scout/internal/agent"
)

var (
	agentURLs     []string
	agentTemplate string
	agentCategory string
)

var agentCmd = &cobra.Command{
	Use:   "agent [prompt]",
	Short: "Run a Firecrawl agent job and wait for its result",
	Long: `Submit a natural-language research task to the Firecrawl agent and poll
until it completes, fails or times out. --url restricts the agent to the
given pages. --template runs a preset from "scout agent templates"; a
prompt given alongside it is appended as additional notes.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && agentTemplate == "" {
			return eris.New("a prompt or --template is required")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initApp(cmd.Context(), "cli")
		if err != nil {
			return err
		}
		defer env.Close()

		res := env.runAgent(cmd.Context(), agent.Request{
			Prompt:   strings.Join(args, " "),
			URLs:     agentURLs,
			Template: agentTemplate,
		})
		if err := render(cmd.OutOrStdout(), outputFormat, res, formatAgent(res)); err != nil {
			return err
		}
		return failure(res.Error)
	},
}

var agentTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the agent prompt templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ts := agent.Templates(agentCategory)
		return render(cmd.OutOrStdout(), outputFormat, ts, formatTemplates(ts))
	},
}

func init() {
	agentCmd.Flags().StringSliceVar(&agentURLs, "url", nil, "page the agent should start from (repeatable)")
	agentCmd.Flags().StringVar(&agentTemplate, "template", "", "prompt template id")
	agentTemplatesCmd.Flags().StringVar(&agentCategory, "category", "", "only templates of this category (competitor, technical, seo, procurement)")
	agentCmd.AddCommand(agentTemplatesCmd)
	rootCmd.AddCommand(agentCmd)
}

// formatTemplates groups templates under their category label.
func formatTemplates(ts []agent.Template) string {
	if len(ts) == 0 {
		return "no templates"
	}
	var b strings.Builder
	category := ""
	for _, t := range ts {
		if t.Category != category {
			if category != "" {
				b.WriteString("\n")
			}
			category = t.Category
			fmt.Fprintf(&b, "%s:\n", agent.CategoryLabels[category])
		}
		fmt.Fprintf(&b, "  %-24s %s\n", t.ID, t.Name)
		fmt.Fprintf(&b, "  %-24s %s\n", "", t.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAgent(res agent.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s", res.State)
	if res.JobID != "" {
		fmt.Fprintf(&b, " (Job %s)", res.JobID)
	}
	fmt.Fprintf(&b, ", Dauer: %s", res.DurationLabel())
	if res.CreditsUsed > 0 {
		fmt.Fprintf(&b, ", Credits: %d", res.CreditsUsed)
	}
	if res.Error != "" {
		fmt.Fprintf(&b, "\nFehler: %s", res.Error)
	}
	if len(res.Output) > 0 {
		var pretty bytes.Buffer
		if json.Indent(&pretty, res.Output, "", "  ") == nil {
			b.WriteString("\n\n")
			b.WriteString(pretty.String())
		}
	}
	return b.String()
}
