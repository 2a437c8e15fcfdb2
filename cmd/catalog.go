package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/queryloom/internal/intent"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the intent phrase catalog",
	Example: `  queryloom catalog stats
  queryloom catalog match "which region sold the most"`,
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many phrasings each intent category has",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		cat, err := buildCatalog(c)
		if err != nil {
			return err
		}
		st := cat.Stats()
		table := newTable(cmd.OutOrStdout(), "Category", "Templates")
		for _, cc := range st.Categories {
			table.Append([]string{string(cc.Category), fmt.Sprint(cc.Count)})
		}
		table.SetFooter([]string{"Total", fmt.Sprint(st.Total)})
		table.Render()
		return nil
	},
}

var catalogMatchCmd = &cobra.Command{
	Use:   "match <utterance...>",
	Short: "Show the best catalog match for an utterance",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		cat, err := buildCatalog(c)
		if err != nil {
			return err
		}
		u := strings.Join(args, " ")
		out := cmd.OutOrStdout()
		in := intent.NewClassifier(cat, c.MatchThreshold).Classify(u, nil)
		fmt.Fprintf(out, "Normalized: %s\n", intent.Normalize(u))
		if m, ok := cat.BestMatch(u, nil); ok {
			fmt.Fprintf(out, "Closest:    %q (%s, score %.1f)\n", m.Template.Phrase, m.Template.Category, m.Score)
		}
		if !in.Matched() {
			fmt.Fprintf(out, "⚠ Warning: below the acceptance threshold of %.0f, the intent is %s\n", c.MatchThreshold, intent.Unknown)
			return nil
		}
		fmt.Fprintf(out, "✓ Intent:   %s (confidence %.2f)\n", in.Category, in.Confidence)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogStatsCmd)
	catalogCmd.AddCommand(catalogMatchCmd)
}
