package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask <file> <question...>",
	Short: "Answer one question about a CSV/TSV/XLSX file",
	Example: `  queryloom ask sales.csv "what is the total revenue?"
  queryloom ask sales.xlsx --sheet-name Q1 show me the top 5 products
  queryloom ask sales.csv --json "are there any anomalies?"`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args[1:], " "))
		if question == "" {
			return errNoQuestion
		}
		c, err := currentConfig()
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		eng, err := newEngine(c)
		if err != nil {
			return err
		}
		defer eng.Close()

		id := eng.store.Put(ds)
		resp := eng.resolver.Resolve(cmd.Context(), question, id)
		if askJSON {
			return printJSON(cmd.OutOrStdout(), resp)
		}
		printResponse(cmd.OutOrStdout(), resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the response as JSON")
	addLoadFlags(askCmd)
}
