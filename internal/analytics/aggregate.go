package analytics

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/params"
)

var aggWords = map[params.AggFunc]string{
	params.Sum:   "total",
	params.Mean:  "average",
	params.Count: "count of",
	params.Min:   "minimum",
	params.Max:   "maximum",
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func apply(fn params.AggFunc, vals []float64) float64 {
	m := summarize(vals)
	switch fn {
	case params.Mean:
		return m.mean
	case params.Count:
		return float64(m.n)
	case params.Min:
		return m.min
	case params.Max:
		return m.max
	}
	return m.sum
}

func (j *job) aggregate() Result {
	fn := j.p.Aggregation
	if fn == "" {
		fn = params.Sum
	}
	if fn == params.Count && (j.targetIdx < 0 || j.p.DefaultTarget) {
		n := float64(j.ds.NumRows())
		return Result{
			Headline:    ptr(n),
			Explanation: fmt.Sprintf("The dataset has %s rows.", fmtNum(n)),
			Hint:        HintNone,
			Title:       "Row count",
			Payload:     AggregationPayload{Fn: string(fn), Value: n, Rows: j.ds.NumRows()},
		}
	}
	if r, ok := j.needTarget(); !ok {
		return r
	}
	col := j.targetName()
	vals, _ := j.ds.Floats(j.targetIdx)
	if len(vals) == 0 {
		return j.insufficient(fmt.Sprintf("the %s of %s", aggWords[fn], col), 1, 0)
	}
	v := apply(fn, vals)
	pl := AggregationPayload{Fn: string(fn), Column: col, Value: v, Rows: len(vals)}
	title := fmt.Sprintf("%s %s", capitalize(strings.TrimSuffix(aggWords[fn], " of")), col)
	expl := fmt.Sprintf("The %s %s is %s across %d %s.", aggWords[fn], col, fmtNum(v), len(vals), plural(len(vals), "row", "rows"))
	if fn == params.Count {
		expl = fmt.Sprintf("There are %s %s values across %d rows.", fmtNum(v), col, j.ds.NumRows())
	}
	hint := HintNone
	if j.segIdx >= 0 {
		seg := j.ds.Column(j.segIdx)
		for _, g := range groupBy(j.ds, j.segIdx, j.targetIdx) {
			pl.Labels = append(pl.Labels, g.label)
			pl.Values = append(pl.Values, apply(fn, g.vals))
		}
		if len(pl.Labels) > 0 {
			hint = HintBar
			title += " by " + seg
			parts := make([]string, 0, len(pl.Labels))
			for i := range pl.Labels {
				if i == 5 {
					parts = append(parts, fmt.Sprintf("and %d more", len(pl.Labels)-5))
					break
				}
				parts = append(parts, fmt.Sprintf("%s %s", pl.Labels[i], fmtNum(pl.Values[i])))
			}
			expl += fmt.Sprintf(" By %s: %s.", seg, strings.Join(parts, ", "))
		}
	}
	return Result{Headline: ptr(v), Explanation: expl, Hint: hint, Title: title, Payload: pl}
}

func (j *job) statistics() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	col := j.targetName()
	vals, _ := j.ds.Floats(j.targetIdx)
	if len(vals) == 0 {
		return j.insufficient("summary statistics of "+col, 1, 0)
	}
	m := summarize(vals)
	s := sortedCopy(vals)
	pl := StatisticsPayload{
		Column: col, Count: m.n, Mean: m.mean, Std: m.std(), Min: m.min, Max: m.max,
		Median: quantile(s, 0.5), Q1: quantile(s, 0.25), Q3: quantile(s, 0.75),
	}
	expl := fmt.Sprintf("%s: %d values, mean %s, median %s, standard deviation %s, range %s to %s, middle half between %s and %s.",
		col, pl.Count, fmtNum(pl.Mean), fmtNum(pl.Median), fmtNum(pl.Std), fmtNum(pl.Min), fmtNum(pl.Max), fmtNum(pl.Q1), fmtNum(pl.Q3))
	return Result{Headline: ptr(pl.Mean), Explanation: expl, Hint: HintNone, Title: "Statistics of " + col, Payload: pl}
}

// sturges returns the histogram bin count for n values, capped at 20.
func sturges(n int) int {
	if n <= 1 {
		return 1
	}
	k := int(math.Ceil(math.Log2(float64(n)))) + 1
	if k > 20 {
		k = 20
	}
	return k
}

func (j *job) distribution() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	col := j.targetName()
	vals, _ := j.ds.Floats(j.targetIdx)
	if len(vals) < 2 {
		return j.insufficient("a distribution of "+col, 2, len(vals))
	}
	m := summarize(vals)
	k := sturges(len(vals))
	if m.min == m.max {
		k = 1
	}
	width := (m.max - m.min) / float64(k)
	bins := make([]Bin, k)
	for i := range bins {
		bins[i].Lower = m.min + float64(i)*width
		bins[i].Upper = m.min + float64(i+1)*width
	}
	bins[k-1].Upper = m.max
	for _, v := range vals {
		i := k - 1
		if width > 0 {
			i = int((v - m.min) / width)
			if i >= k {
				i = k - 1
			}
		}
		bins[i].Count++
	}
	peak := 0
	for i := range bins {
		if bins[i].Count > bins[peak].Count {
			peak = i
		}
	}
	expl := fmt.Sprintf("%s ranges from %s to %s. The most common range is %s to %s with %d of %d values (%d bins).",
		col, fmtNum(m.min), fmtNum(m.max), fmtNum(bins[peak].Lower), fmtNum(bins[peak].Upper), bins[peak].Count, len(vals), k)
	return Result{
		Headline:    ptr(float64(len(vals))),
		Explanation: expl,
		Hint:        HintBar,
		Title:       "Distribution of " + col,
		Payload:     DistributionPayload{Column: col, Bins: bins},
	}
}
