package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/queryloom/internal/dataset"
	"github.com/KaramelBytes/queryloom/internal/params"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

type group struct {
	label string
	vals  []float64
}

func (g group) stat() GroupStat {
	m := summarize(g.vals)
	return GroupStat{Label: g.label, Sum: m.sum, Mean: m.mean, Count: m.n}
}

// groupBy collects target values per segment label in first-seen order.
// Rows with a blank label or a non-numeric value are skipped.
func groupBy(ds *dataset.Dataset, segIdx, valIdx int) []group {
	var out []group
	pos := map[string]int{}
	for i := 0; i < ds.NumRows(); i++ {
		label := ds.Cell(i, segIdx)
		if label == "" {
			continue
		}
		v, ok := ds.Float(i, valIdx)
		if !ok {
			continue
		}
		k, seen := pos[label]
		if !seen {
			k = len(out)
			pos[label] = k
			out = append(out, group{label: label})
		}
		out[k].vals = append(out[k].vals, v)
	}
	return out
}

// rowLabel names a row by the first identifier column, else "row N".
func rowLabel(ds *dataset.Dataset, s profile.Schema, row int) string {
	if ids := s.Identifiers(); len(ids) > 0 {
		if v := ds.Cell(row, ids[0].Index); v != "" {
			return v
		}
	}
	return fmt.Sprintf("row %d", row+1)
}

type series struct {
	gran   params.Granularity
	starts []time.Time
	labels []string
	means  []float64
}

func bucketStart(t time.Time, g params.Granularity) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case params.Week:
		return day.AddDate(0, 0, -((int(day.Weekday()) + 6) % 7))
	case params.Month:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

func advance(t time.Time, g params.Granularity, k int) time.Time {
	switch g {
	case params.Week:
		return t.AddDate(0, 0, 7*k)
	case params.Month:
		return t.AddDate(0, k, 0)
	}
	return t.AddDate(0, 0, k)
}

func bucketLabel(t time.Time, g params.Granularity) string {
	if g == params.Month {
		return t.Format("2006-01")
	}
	return t.Format("2006-01-02")
}

// inferGranularity picks day up to a month of span, week up to ~six months,
// month beyond.
func inferGranularity(span time.Duration) params.Granularity {
	days := span.Hours() / 24
	switch {
	case days <= 31:
		return params.Day
	case days <= 180:
		return params.Week
	}
	return params.Month
}

// bucketSeries averages the target per time bucket, restricted to the
// window when one is given. Buckets without data are omitted.
func bucketSeries(ds *dataset.Dataset, timeIdx, valIdx int, gran params.Granularity, w *params.Window) series {
	type point struct {
		t time.Time
		v float64
	}
	var pts []point
	var lo, hi time.Time
	for i := 0; i < ds.NumRows(); i++ {
		t, ok := ds.Time(i, timeIdx)
		if !ok {
			continue
		}
		v, ok := ds.Float(i, valIdx)
		if !ok {
			continue
		}
		if len(pts) == 0 || t.Before(lo) {
			lo = t
		}
		if len(pts) == 0 || t.After(hi) {
			hi = t
		}
		pts = append(pts, point{t, v})
	}
	if w != nil && len(pts) > 0 {
		start := w.Start(hi)
		kept := pts[:0:0]
		for _, p := range pts {
			if !p.t.Before(start) {
				kept = append(kept, p)
			}
		}
		pts, lo = kept, start
	}
	if gran == params.Auto {
		gran = inferGranularity(hi.Sub(lo))
	}

	acc := map[time.Time]*moments{}
	for _, p := range pts {
		k := bucketStart(p.t, gran)
		m := acc[k]
		if m == nil {
			m = &moments{}
			acc[k] = m
		}
		m.add(p.v)
	}
	out := series{gran: gran}
	for k := range acc {
		out.starts = append(out.starts, k)
	}
	sort.Slice(out.starts, func(i, j int) bool { return out.starts[i].Before(out.starts[j]) })
	for _, k := range out.starts {
		out.labels = append(out.labels, bucketLabel(k, gran))
		out.means = append(out.means, acc[k].mean)
	}
	return out
}
