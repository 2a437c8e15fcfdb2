package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/queryloom/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect providers and the model context catalog",
	Example: `  queryloom models show
  queryloom --models-file ./models.json models show`,
}

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show providers, their default models and known context windows",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		table := newTable(out, "Provider", "Default model")
		for _, p := range ai.Providers() {
			table.Append([]string{p, ai.DefaultModel(p)})
		}
		table.Render()

		cat := ai.Models()
		keys := make([]string, 0, len(cat))
		for k := range cat {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintln(out)
		table = newTable(out, "Model", "Context tokens")
		for _, k := range keys {
			table.Append([]string{k, fmt.Sprint(cat[k].ContextTokens)})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd)
}
