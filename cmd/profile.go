package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/queryloom/internal/profile"
	"github.com/KaramelBytes/queryloom/internal/resolver"
)

var (
	profileSummary bool
	profileJSON    bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <file>",
	Short: "Show the inferred column types of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		s := profile.Profile(ds)
		out := cmd.OutOrStdout()
		if profileJSON {
			return printJSON(out, s)
		}
		if profileSummary {
			c, err := currentConfig()
			if err != nil {
				return err
			}
			fmt.Fprint(out, profile.Summary(ds, s, c.SampleRows))
			return nil
		}
		fmt.Fprintf(out, "%s: %d rows, %d columns\n", ds.Name(), s.Rows, len(s.Columns))
		table := newTable(out, "Column", "Type", "Non-null", "Nulls", "Unique")
		for _, c := range s.Columns {
			table.Append([]string{c.Name, string(c.Type), fmt.Sprint(c.NonNull), fmt.Sprint(c.Nulls), fmt.Sprint(c.Cardinality)})
		}
		table.Render()
		fmt.Fprintln(out, "\nTry asking:")
		for _, q := range resolver.Suggestions(s) {
			fmt.Fprintf(out, "  • %s\n", q)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().BoolVar(&profileSummary, "summary", false, "print the summary sent to the external reasoning service")
	profileCmd.Flags().BoolVar(&profileJSON, "json", false, "print the schema as JSON")
	addLoadFlags(profileCmd)
}
