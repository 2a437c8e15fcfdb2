package chart

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/KaramelBytes/queryloom/internal/analytics"
)

func f(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   analytics.Result
		want Descriptor
	}{
		{
			name: "ranking bar",
			in: analytics.Result{
				Headline: f(300), Hint: analytics.HintBar, Title: "Top 3 product by revenue",
				Payload: analytics.RankingPayload{Labels: []string{"Bananas", "Dates", "Figs"}, Values: []float64{300, 300, 210}},
			},
			want: Descriptor{Kind: Bar, Title: "Top 3 product by revenue", Categories: []string{"Bananas", "Dates", "Figs"}, Series: []float64{300, 300, 210}},
		},
		{
			name: "mismatched lengths truncate",
			in: analytics.Result{
				Headline: f(1), Hint: analytics.HintLine, Title: "t",
				Payload: analytics.TrendPayload{Labels: []string{"a", "b", "c"}, Values: []float64{1, 2}},
			},
			want: Descriptor{Kind: Line, Title: "t", Categories: []string{"a", "b"}, Series: []float64{1, 2}},
		},
		{
			name: "non-finite dropped with label",
			in: analytics.Result{
				Headline: f(1), Hint: analytics.HintBar, Title: "t",
				Payload: analytics.AggregationPayload{Labels: []string{"a", "b", "c"}, Values: []float64{1, math.NaN(), 3}},
			},
			want: Descriptor{Kind: Bar, Title: "t", Categories: []string{"a", "c"}, Series: []float64{1, 3}},
		},
		{
			name: "single point degrades",
			in: analytics.Result{
				Headline: f(1), Hint: analytics.HintBar, Title: "t",
				Payload: analytics.RankingPayload{Labels: []string{"a"}, Values: []float64{1}},
			},
			want: Empty("t"),
		},
		{
			name: "failed result",
			in:   analytics.Result{Hint: analytics.HintBar, Title: "t", Payload: analytics.RankingPayload{Labels: []string{"a", "b"}, Values: []float64{1, 2}}},
			want: Empty("t"),
		},
		{
			name: "hint none",
			in:   analytics.Result{Headline: f(1), Hint: analytics.HintNone, Payload: analytics.StatisticsPayload{}},
			want: Empty(""),
		},
		{
			name: "comparison pie uses sums",
			in: analytics.Result{
				Headline: f(30), Hint: analytics.HintPie, Title: "revenue by region",
				Payload: analytics.ComparisonPayload{Groups: []analytics.GroupStat{{Label: "South", Sum: 30, Mean: 30, Count: 1}, {Label: "North", Sum: 15, Mean: 7.5, Count: 2}}},
			},
			want: Descriptor{Kind: Pie, Title: "revenue by region", Categories: []string{"South", "North"}, Series: []float64{30, 15}},
		},
		{
			name: "forecast band aligned",
			in: analytics.Result{
				Headline: f(50), Hint: analytics.HintLine, Title: "revenue forecast",
				Payload: analytics.ForecastPayload{
					HistoryLabels: []string{"2024-01", "2024-02"}, History: []float64{10, 20},
					ForecastLabels: []string{"2024-03"}, Forecast: []float64{30}, Lower: []float64{25}, Upper: []float64{35},
				},
			},
			want: Descriptor{
				Kind: Line, Title: "revenue forecast",
				Categories: []string{"2024-01", "2024-02", "2024-03"}, Series: []float64{10, 20, 30},
				Band: &Band{Lower: []float64{10, 20, 25}, Upper: []float64{10, 20, 35}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"bar": Bar, "line": Line, "pie": Pie, "scatter": None, "": None} {
		if got := ParseKind(in); got != want {
			t.Errorf("ParseKind(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildKeepsLengthsEqual(t *testing.T) {
	properties := gopter.NewProperties(nil)
	properties.Property("categories and series lengths match", prop.ForAll(
		func(labels []string, vals []float64, nanAt int) bool {
			if nanAt < len(vals) {
				vals[nanAt] = math.Inf(1)
			}
			d := Build(Bar, "t", labels, vals)
			if len(d.Categories) != len(d.Series) {
				return false
			}
			if d.Kind == None {
				return len(d.Series) == 0
			}
			return len(d.Series) >= 2
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
		gen.IntRange(0, 20),
	))
	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
