package cmd

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var chatMetricsAddr string

var chatCmd = &cobra.Command{
	Use:   "chat <file>",
	Short: "Ask questions about a file interactively",
	Long: `Start an interactive session over one dataset. Earlier questions in the session
steer ambiguous phrasings and are passed to the external reasoning service as context.

Commands:
  :load <file>   replace the dataset, keeping the conversation
  :history       show the questions asked so far
  :quit          leave the session`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		addr := c.MetricsAddr
		if cmd.Flags().Changed("metrics-addr") {
			addr = chatMetricsAddr
		}
		if addr != "" {
			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}
			defer listener.Close()
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			go func() {
				if err := http.Serve(listener, mux); err != nil {
					log.Debug("metrics server stopped", "error", err)
				}
			}()
			log.Info("prometheus metrics server listening", "address", listener.Addr().String())
		}

		out := cmd.OutOrStdout()
		id := eng.store.Put(ds)
		mode := "local engine only"
		if eng.external {
			mode = "external provider " + c.Provider + " with local fallback"
		}
		fmt.Fprintf(out, "✓ Loaded %s: %d rows, %d columns (%s)\n", ds.Name(), ds.NumRows(), ds.NumCols(), mode)
		fmt.Fprintln(out, "Ask a question, or :quit to leave.")

		sc := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !sc.Scan() {
				break
			}
			line := strings.TrimSpace(sc.Text())
			switch {
			case line == "":
				continue
			case line == ":quit" || line == ":exit":
				return nil
			case line == ":history":
				snap, ok := eng.store.Snapshot(id)
				if !ok || len(snap.Turns) == 0 {
					fmt.Fprintln(out, "No questions yet.")
					continue
				}
				for i, t := range snap.Turns {
					fmt.Fprintf(out, "%2d. [%s] %s\n", i+1, t.Source, t.Utterance)
				}
				continue
			case strings.HasPrefix(line, ":load "):
				next, err := loadDataset(strings.TrimSpace(strings.TrimPrefix(line, ":load ")))
				if err != nil {
					fmt.Fprintln(out, "✗ Error:", err)
					continue
				}
				if err := eng.store.Replace(id, next); err != nil {
					fmt.Fprintln(out, "✗ Error:", err)
					continue
				}
				fmt.Fprintf(out, "✓ Loaded %s: %d rows, %d columns\n", next.Name(), next.NumRows(), next.NumCols())
				continue
			}
			resp := eng.resolver.Resolve(cmd.Context(), line, id)
			printResponse(out, resp)
			fmt.Fprintln(out)
		}
		return sc.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	addLoadFlags(chatCmd)
}
