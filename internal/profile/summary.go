package profile

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/dataset"
)

// Summary renders a compact text overview of the dataset: schema with
// counts and example values, then the first sampleRows rows as a table.
// It is what the external reasoning service sees instead of the full data.
func Summary(ds *dataset.Dataset, s Schema, sampleRows int) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if ds.Name() != "" {
		b.WriteString(fmt.Sprintf("Name: %s\n", ds.Name()))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", ds.NumRows()))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", ds.NumCols()))

	b.WriteString("[SCHEMA]\n")
	for _, c := range s.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, null %d, unique %d)", safeName(c.Name), c.Type, c.NonNull, c.Nulls, c.Cardinality))
		if c.Type == Numeric {
			lo, hi, sum, n := math.Inf(1), math.Inf(-1), 0.0, 0
			vals, _ := ds.Floats(c.Index)
			for _, v := range vals {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
				sum += v
				n++
			}
			if n > 0 {
				b.WriteString(fmt.Sprintf(" min %.4g, max %.4g, mean %.4g", lo, hi, sum/float64(n)))
			}
		} else if ex := examples(ds, c.Index, 3); len(ex) > 0 {
			b.WriteString(" e.g., ")
			b.WriteString(strings.Join(ex, " | "))
		}
		b.WriteString("\n")
	}

	head := ds.Head(sampleRows)
	if len(head) > 0 {
		b.WriteString("\n[SAMPLE ROWS]\n| ")
		for i, c := range ds.Columns() {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c))
		}
		b.WriteString(" |\n|")
		for range ds.Columns() {
			b.WriteString(" --- |")
		}
		b.WriteString("\n")
		for _, row := range head {
			b.WriteString("| ")
			for i, v := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(v) > 80 {
					v = v[:77] + "..."
				}
				b.WriteString(safeVal(v))
			}
			b.WriteString(" |\n")
		}
	}
	return b.String()
}

func examples(ds *dataset.Dataset, col, n int) []string {
	seen := map[string]struct{}{}
	var out []string
	for i := 0; i < ds.NumRows() && len(out) < n; i++ {
		v := ds.Cell(i, col)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, safeVal(v))
	}
	return out
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
