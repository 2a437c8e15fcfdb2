package chart

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/queryloom/internal/analytics"
)

// Kind is the chart type a renderer should draw.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
	Pie  Kind = "pie"
	None Kind = "none"
)

// ParseKind maps a free-form kind to a Kind; anything unrecognized is None.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case Bar, Line, Pie:
		return Kind(s)
	}
	return None
}

// Band is an uncertainty interval aligned to the descriptor's categories.
type Band struct {
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// Descriptor is the renderer-facing chart. Categories and Series always
// have the same length; so do Band.Lower and Band.Upper when Band is set.
type Descriptor struct {
	Kind       Kind      `json:"kind"`
	Title      string    `json:"title"`
	Categories []string  `json:"categories"`
	Series     []float64 `json:"series"`
	Band       *Band     `json:"band,omitempty"`
}

// Empty returns a kind none descriptor.
func Empty(title string) Descriptor {
	return Descriptor{Kind: None, Title: title, Categories: []string{}, Series: []float64{}}
}

// Points returns the number of plotted points.
func (d Descriptor) Points() int { return len(d.Series) }

// Build assembles a descriptor from raw categories and values. The longer
// slice is truncated, non-finite values are dropped with their labels, and
// fewer than two points degrade to kind none.
func Build(kind Kind, title string, categories []string, series []float64) Descriptor {
	return build(kind, title, categories, series, nil, nil)
}

func build(kind Kind, title string, categories []string, series, lower, upper []float64) Descriptor {
	if kind == None {
		return Empty(title)
	}
	n := min(len(categories), len(series))
	withBand := lower != nil && upper != nil
	if withBand {
		n = min(n, len(lower), len(upper))
	}
	d := Descriptor{Kind: kind, Title: title, Categories: make([]string, 0, n), Series: make([]float64, 0, n)}
	var band Band
	for i := 0; i < n; i++ {
		if !finite(series[i]) {
			continue
		}
		if withBand && (!finite(lower[i]) || !finite(upper[i])) {
			continue
		}
		d.Categories = append(d.Categories, categories[i])
		d.Series = append(d.Series, series[i])
		if withBand {
			band.Lower = append(band.Lower, lower[i])
			band.Upper = append(band.Upper, upper[i])
		}
	}
	if len(d.Series) < 2 {
		return Empty(title)
	}
	if withBand {
		d.Band = &band
	}
	return d
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Normalize converts an engine result into a descriptor. Results that
// failed, asked for no chart or carry no plottable payload become kind none.
func Normalize(r analytics.Result) Descriptor {
	if r.Failed() || r.Hint == analytics.HintNone || r.Hint == "" {
		return Empty(r.Title)
	}
	kind := ParseKind(string(r.Hint))
	switch p := r.Payload.(type) {
	case analytics.AggregationPayload:
		return Build(kind, r.Title, p.Labels, p.Values)
	case analytics.RankingPayload:
		return Build(kind, r.Title, p.Labels, p.Values)
	case analytics.TrendPayload:
		return Build(kind, r.Title, p.Labels, p.Values)
	case analytics.ComparisonPayload:
		cats := make([]string, len(p.Groups))
		vals := make([]float64, len(p.Groups))
		for i, g := range p.Groups {
			cats[i], vals[i] = g.Label, g.Sum
		}
		return Build(kind, r.Title, cats, vals)
	case analytics.SegmentPayload:
		cats := make([]string, len(p.Groups))
		vals := make([]float64, len(p.Groups))
		for i, g := range p.Groups {
			cats[i], vals[i] = g.Label, g.Mean
		}
		return Build(kind, r.Title, cats, vals)
	case analytics.DistributionPayload:
		cats := make([]string, len(p.Bins))
		vals := make([]float64, len(p.Bins))
		for i, b := range p.Bins {
			cats[i] = fmt.Sprintf("%.4g-%.4g", b.Lower, b.Upper)
			vals[i] = float64(b.Count)
		}
		return Build(kind, r.Title, cats, vals)
	case analytics.ForecastPayload:
		return forecast(kind, r.Title, p)
	}
	return Empty(r.Title)
}

// forecast joins history and projection on one axis. The band collapses to
// the observed value over the history.
func forecast(kind Kind, title string, p analytics.ForecastPayload) Descriptor {
	nh := min(len(p.HistoryLabels), len(p.History))
	nf := min(len(p.ForecastLabels), len(p.Forecast), len(p.Lower), len(p.Upper))
	cats := make([]string, 0, nh+nf)
	vals := make([]float64, 0, nh+nf)
	lower := make([]float64, 0, nh+nf)
	upper := make([]float64, 0, nh+nf)
	for i := 0; i < nh; i++ {
		cats = append(cats, p.HistoryLabels[i])
		vals = append(vals, p.History[i])
		lower = append(lower, p.History[i])
		upper = append(upper, p.History[i])
	}
	for i := 0; i < nf; i++ {
		cats = append(cats, p.ForecastLabels[i])
		vals = append(vals, p.Forecast[i])
		lower = append(lower, p.Lower[i])
		upper = append(upper, p.Upper[i])
	}
	return build(kind, title, cats, vals, lower, upper)
}
