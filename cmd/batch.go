package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alitto/pond/v2"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/queryloom/internal/profile"
	"github.com/KaramelBytes/queryloom/internal/resolver"
)

var (
	batchQuestions string
	batchWorkers   int
	batchJSON      bool
)

type batchResult struct {
	Question string            `json:"question"`
	Response resolver.Response `json:"response"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <file> --questions <questions.txt>",
	Short: "Answer a list of questions about one file concurrently",
	Long: `Answer every line of the questions file against the dataset. Blank lines and
lines starting with # are skipped. Each question is answered in its own session so
results do not depend on scheduling; output keeps the input order.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if batchQuestions == "" {
			return fmt.Errorf("--questions is required")
		}
		questions, err := readQuestions(batchQuestions)
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			return fmt.Errorf("no questions in %s", batchQuestions)
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

		workers := c.BatchWorkers
		if cmd.Flags().Changed("workers") {
			workers = batchWorkers
		}
		if workers <= 0 {
			workers = 1
		}
		pool := pond.NewResultPool[batchResult](workers)
		defer pool.StopAndWait()

		schema := profile.Profile(ds)
		ctx := cmd.Context()
		group := pool.NewGroupContext(ctx)
		for _, q := range questions {
			q := q
			group.Submit(func() batchResult {
				id := eng.store.PutProfiled(ds, schema)
				defer eng.store.Delete(id)
				return batchResult{Question: q, Response: eng.resolver.Resolve(ctx, q, id)}
			})
		}
		results, err := group.Wait()
		if err != nil {
			return fmt.Errorf("batch: %w", err)
		}
		log.Debug("batch finished", "questions", len(results), "workers", workers)

		out := cmd.OutOrStdout()
		if batchJSON {
			enc := json.NewEncoder(out)
			for _, r := range results {
				if err := enc.Encode(r); err != nil {
					return err
				}
			}
			return nil
		}
		table := newTable(out, "#", "Question", "Answer", "Confidence", "Source")
		for i, r := range results {
			table.Append([]string{
				fmt.Sprint(i + 1),
				r.Question,
				firstLine(r.Response.AnswerText, 80),
				fmt.Sprintf("%.0f%%", r.Response.Confidence*100),
				string(r.Response.Source),
			})
		}
		table.Render()
		return nil
	},
}

func readQuestions(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open questions: %w", err)
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	return out, nil
}

func firstLine(s string, max int) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().StringVarP(&batchQuestions, "questions", "q", "", "file with one question per line")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 0, "concurrent questions (default from config batch_workers)")
	batchCmd.Flags().BoolVar(&batchJSON, "json", false, "print one JSON object per line")
	addLoadFlags(batchCmd)
}
