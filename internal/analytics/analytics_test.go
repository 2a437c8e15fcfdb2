package analytics

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/queryloom/internal/dataset"
	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/params"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

func run(t *testing.T, cat intent.Category, q string, ds *dataset.Dataset) Result {
	t.Helper()
	s := profile.Profile(ds)
	in := intent.Intent{Category: cat, Confidence: 1}
	return Dispatch(in, params.Extract(q, in, s), ds, s, DefaultOptions())
}

func revenueOutlier() *dataset.Dataset {
	return dataset.New("r", []string{"revenue"}, [][]string{{"10"}, {"20"}, {"30"}, {"1000"}})
}

func sevenProducts() *dataset.Dataset {
	return dataset.New("p", []string{"product", "revenue"}, [][]string{
		{"Apples", "120"}, {"Bananas", "300"}, {"Cherries", "90"}, {"Dates", "300"},
		{"Elderberries", "45"}, {"Figs", "210"}, {"Grapes", "150"},
	})
}

func monthly(vals ...float64) *dataset.Dataset {
	rows := make([][]string, len(vals))
	for i, v := range vals {
		rows[i] = []string{fmt.Sprintf("2024-%02d-15", i+1), "North", strconv.FormatFloat(v, 'f', -1, 64)}
	}
	return dataset.New("m", []string{"date", "region", "revenue"}, rows)
}

func TestAggregationSum(t *testing.T) {
	r := run(t, intent.Aggregation, "what is the total revenue?", revenueOutlier())
	require.NotNil(t, r.Headline)
	assert.Equal(t, 1060.0, *r.Headline)
	assert.Contains(t, r.Explanation, "1060")
	assert.Equal(t, HintNone, r.Hint)
}

func TestCountWithoutColumnCountsRows(t *testing.T) {
	ds := dataset.New("o", []string{"order_id", "price"}, [][]string{
		{"A1", "5"}, {"A2", "7"}, {"A3", ""}, {"A4", "2"}, {"A5", "9"}, {"A6", "4"}, {"A7", "3"},
	})
	r := run(t, intent.Aggregation, "how many orders are there?", ds)
	require.NotNil(t, r.Headline)
	assert.Equal(t, 7.0, *r.Headline)
	assert.Equal(t, "The dataset has 7 rows.", r.Explanation)

	r = run(t, intent.Aggregation, "how many price values are there?", ds)
	require.NotNil(t, r.Headline)
	assert.Equal(t, 6.0, *r.Headline)
	assert.Contains(t, r.Explanation, "price")
}

func TestAggregationPerSegment(t *testing.T) {
	ds := dataset.New("s", []string{"region", "revenue"}, [][]string{
		{"North", "10"}, {"South", "20"}, {"North", "30"},
	})
	r := run(t, intent.Aggregation, "average revenue per region", ds)
	require.False(t, r.Failed())
	pl := r.Payload.(AggregationPayload)
	assert.Equal(t, []string{"North", "South"}, pl.Labels)
	assert.Equal(t, []float64{20, 20}, pl.Values)
	assert.Equal(t, HintBar, r.Hint)
}

func TestAnomalyFlagsOutlier(t *testing.T) {
	r := run(t, intent.Anomaly, "are there any anomalies?", revenueOutlier())
	require.NotNil(t, r.Headline)
	assert.Equal(t, 1.0, *r.Headline)
	pl := r.Payload.(AnomalyPayload)
	require.Len(t, pl.Outliers, 1)
	assert.Equal(t, 1000.0, pl.Outliers[0].Value)
	assert.Equal(t, "row 4", pl.Outliers[0].Label)
	assert.Equal(t, "IQR", pl.Method)
	assert.InDelta(t, 655.0, pl.Upper, 1e-9)
}

func TestAnomalyThreeSigmaOnLargeSymmetricSample(t *testing.T) {
	rows := [][]string{}
	for i := 0; i < 40; i++ {
		rows = append(rows, []string{strconv.Itoa(100 + (i%5)*2 - 4)})
	}
	r := run(t, intent.Anomaly, "anomalies", dataset.New("x", []string{"latency"}, rows))
	pl := r.Payload.(AnomalyPayload)
	assert.Equal(t, "3-sigma", pl.Method)
	assert.Empty(t, pl.Outliers)
	assert.Contains(t, r.Explanation, "No anomalies")
}

func TestRankingTopThreeDescending(t *testing.T) {
	r := run(t, intent.Ranking, "show me top 3 products", sevenProducts())
	require.False(t, r.Failed())
	assert.Equal(t, HintBar, r.Hint)
	pl := r.Payload.(RankingPayload)
	assert.Equal(t, []string{"Bananas", "Dates", "Figs"}, pl.Labels)
	assert.Equal(t, []float64{300, 300, 210}, pl.Values)

	again := run(t, intent.Ranking, "show me top 3 products", sevenProducts())
	assert.Equal(t, pl, again.Payload.(RankingPayload))
}

func TestRankingBottomIsAscending(t *testing.T) {
	r := run(t, intent.Ranking, "bottom 2 products", sevenProducts())
	pl := r.Payload.(RankingPayload)
	assert.True(t, pl.Ascending)
	assert.Equal(t, []string{"Elderberries", "Cherries"}, pl.Labels)
}

func TestTrendWithoutTimeColumn(t *testing.T) {
	r := run(t, intent.Trend, "show me the trend", sevenProducts())
	assert.True(t, r.Failed())
	assert.Contains(t, strings.ToLower(r.Explanation), "no time column")
	var ue *UnsatisfiableError
	assert.True(t, errors.As(r.Err, &ue))
}

func TestTrendDirection(t *testing.T) {
	r := run(t, intent.Trend, "revenue trend monthly", monthly(100, 110, 125, 140, 160))
	require.False(t, r.Failed())
	pl := r.Payload.(TrendPayload)
	assert.Equal(t, "increasing", pl.Direction)
	assert.Equal(t, "month", pl.Granularity)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05"}, pl.Labels)
	assert.InDelta(t, 60.0, pl.PercentChange, 1e-9)
	assert.Equal(t, HintLine, r.Hint)

	flat := run(t, intent.Trend, "revenue trend monthly", monthly(100, 102, 99, 101, 103))
	assert.Equal(t, "stable", flat.Payload.(TrendPayload).Direction)
}

func TestTrendSlopeAgainstEndpoints(t *testing.T) {
	// rises for four months, then ends below where it started
	r := run(t, intent.Trend, "revenue trend monthly", monthly(10, 20, 30, 40, 8))
	require.False(t, r.Failed())
	pl := r.Payload.(TrendPayload)
	assert.Greater(t, pl.Slope, 0.0)
	assert.InDelta(t, -20.0, pl.PercentChange, 1e-9)
	assert.Equal(t, "fluctuating", pl.Direction)
	assert.Contains(t, r.Explanation, "fluctuating with a slight upward slope")
	assert.NotContains(t, r.Explanation, "is increasing")
}

func TestTrendNeedsTwoBuckets(t *testing.T) {
	r := run(t, intent.Trend, "revenue trend monthly", monthly(100))
	assert.True(t, r.Failed())
	var ie *InsufficientDataError
	require.True(t, errors.As(r.Err, &ie))
	assert.Equal(t, 2, ie.Need)
}

func TestForecastHoltOnLinearSeries(t *testing.T) {
	ds := monthly(10, 20, 30, 40)
	s := profile.Profile(ds)
	in := intent.Intent{Category: intent.Predictive, Confidence: 1}
	p := params.Extract("forecast revenue monthly", in, s)
	p.Horizon = 3
	r := Dispatch(in, p, ds, s, DefaultOptions())
	require.False(t, r.Failed(), r.Explanation)
	pl := r.Payload.(ForecastPayload)
	assert.Equal(t, "Holt linear smoothing", pl.Method)
	assert.Equal(t, []string{"2024-05", "2024-06", "2024-07"}, pl.ForecastLabels)
	assert.InDeltaSlice(t, []float64{50, 60, 70}, pl.Forecast, 1e-9)
	assert.InDelta(t, 0, pl.MAE, 1e-9)
	assert.InDelta(t, 75.0, pl.Change, 1e-9)
	assert.Len(t, pl.Lower, 3)
}

func TestForecastFallsBackToMovingAverage(t *testing.T) {
	r := run(t, intent.Predictive, "forecast revenue monthly", monthly(10, 30))
	require.False(t, r.Failed())
	pl := r.Payload.(ForecastPayload)
	assert.Equal(t, "moving average", pl.Method)
	assert.Len(t, pl.Forecast, 30)
	assert.Equal(t, 20.0, pl.Forecast[29])
	// residuals are -10 and 10, so the band is 1.96 sample deviations wide
	assert.InDelta(t, 20-1.96*math.Sqrt(200), pl.Lower[29], 1e-9)
	assert.InDelta(t, 20+1.96*math.Sqrt(200), pl.Upper[29], 1e-9)
}

func TestForecastHorizonIsCapped(t *testing.T) {
	ds := monthly(10, 20, 30, 40)
	s := profile.Profile(ds)
	in := intent.Intent{Category: intent.Predictive, Confidence: 1}
	p := params.Extract("forecast revenue monthly", in, s)
	p.Horizon = 3_000_000
	r := Dispatch(in, p, ds, s, Options{Horizon: 3_000_000})
	require.False(t, r.Failed(), r.Explanation)
	pl := r.Payload.(ForecastPayload)
	assert.Len(t, pl.Forecast, params.MaxHorizon)
	assert.Len(t, pl.ForecastLabels, params.MaxHorizon)

	p.Horizon = 0
	r = Dispatch(in, p, ds, s, Options{Horizon: 3_000_000})
	assert.Len(t, r.Payload.(ForecastPayload).Forecast, params.MaxHorizon)
}

func TestCorrelationStrongest(t *testing.T) {
	ds := dataset.New("c", []string{"ads", "revenue", "noise"}, [][]string{
		{"1", "10", "5"}, {"2", "21", "3"}, {"3", "29", "9"}, {"4", "41", "1"}, {"5", "50", "4"},
	})
	r := run(t, intent.Correlation, "correlation", ds)
	require.False(t, r.Failed())
	pl := r.Payload.(CorrelationPayload)
	assert.Equal(t, "ads", pl.Strongest.A)
	assert.Equal(t, "revenue", pl.Strongest.B)
	assert.Equal(t, "strong", pl.Strength)
	assert.Len(t, pl.Pairs, 3)
}

func TestDiagnosticDrivers(t *testing.T) {
	ds := dataset.New("d", []string{"region", "revenue"}, [][]string{
		{"North", "200"}, {"North", "220"}, {"South", "100"}, {"South", "90"}, {"East", "150"}, {"East", "160"},
	})
	r := run(t, intent.Diagnostic, "why did revenue drop", ds)
	require.False(t, r.Failed())
	pl := r.Payload.(SegmentPayload)
	assert.Equal(t, "North", pl.Leader)
	assert.ElementsMatch(t, []string{"North", "South"}, pl.Drivers)
	assert.Contains(t, r.Explanation, "Main drivers")
}

func TestDistributionBinsCoverAllValues(t *testing.T) {
	rows := [][]string{}
	for i := 1; i <= 50; i++ {
		rows = append(rows, []string{strconv.Itoa(i * i)})
	}
	r := run(t, intent.Distribution, "distribution of value", dataset.New("d", []string{"value"}, rows))
	pl := r.Payload.(DistributionPayload)
	assert.Len(t, pl.Bins, 7)
	total := 0
	for _, b := range pl.Bins {
		total += b.Count
	}
	assert.Equal(t, 50, total)
}

func TestComparisonPieForFewPositiveGroups(t *testing.T) {
	ds := dataset.New("c", []string{"region", "revenue"}, [][]string{{"North", "10"}, {"South", "30"}, {"North", "5"}})
	r := run(t, intent.Comparison, "compare regions", ds)
	assert.Equal(t, HintPie, r.Hint)
	pl := r.Payload.(ComparisonPayload)
	assert.Equal(t, "South", pl.Groups[0].Label)
	assert.Equal(t, 2, pl.Groups[1].Count)
}

func TestRecommendationsPrioritized(t *testing.T) {
	ds := dataset.New("rec", []string{"date", "region", "revenue"}, [][]string{
		{"2024-01-10", "North", "300"}, {"2024-02-10", "South", "200"}, {"2024-03-10", "North", "250"},
		{"2024-04-10", "South", "120"}, {"2024-05-10", "North", "180"}, {"2024-06-10", "South", "90"},
	})
	r := run(t, intent.Prescriptive, "what should we do", ds)
	require.False(t, r.Failed())
	actions := r.Payload.(RecommendationPayload).Actions
	require.NotEmpty(t, actions)
	assert.Equal(t, High, actions[0].Priority)
	var texts []string
	for _, a := range actions {
		texts = append(texts, a.Text)
	}
	joined := strings.Join(texts, "\n")
	assert.Contains(t, joined, "Investigate underperforming region South")
	assert.Contains(t, joined, "Replicate best-performing region North")
	assert.Contains(t, joined, "declining revenue trend")
	seenMedium := false
	for _, a := range actions {
		if a.Priority == Medium {
			seenMedium = true
		}
		assert.False(t, seenMedium && a.Priority == High, "HIGH actions must come first")
	}
}

func TestEmptyDataset(t *testing.T) {
	ds := dataset.New("e", []string{"revenue"}, nil)
	r := Dispatch(intent.Intent{Category: intent.Aggregation}, params.Parameters{}, ds, profile.Profile(ds), DefaultOptions())
	assert.True(t, r.Failed())
	assert.ErrorIs(t, r.Err, ErrEmptyDataset)
}

func TestUnknownColumnIsRedefaulted(t *testing.T) {
	ds := revenueOutlier()
	s := profile.Profile(ds)
	r := Dispatch(intent.Intent{Category: intent.Aggregation}, params.Parameters{Target: "profit", Aggregation: params.Sum}, ds, s, DefaultOptions())
	require.False(t, r.Failed())
	assert.Equal(t, 1060.0, *r.Headline)
	assert.Contains(t, r.Explanation, `column "profit" not found`)
}

func TestProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	toDataset := func(vals []int) *dataset.Dataset {
		rows := make([][]string, len(vals))
		for i, v := range vals {
			rows[i] = []string{fmt.Sprintf("item%02d", i), strconv.Itoa(v)}
		}
		return dataset.New("g", []string{"item", "amount"}, rows)
	}

	properties.Property("sum equals the reference sum", prop.ForAll(
		func(vals []int) bool {
			ds := toDataset(vals)
			s := profile.Profile(ds)
			in := intent.Intent{Category: intent.Aggregation}
			r := Dispatch(in, params.Parameters{Target: "amount", Aggregation: params.Sum}, ds, s, DefaultOptions())
			want := 0
			for _, v := range vals {
				want += v
			}
			return r.Headline != nil && math.Abs(*r.Headline-float64(want)) < 1e-6
		},
		gen.SliceOfN(12, gen.IntRange(-10000, 10000)),
	))

	properties.Property("ranking is sorted and repeatable", prop.ForAll(
		func(vals []int) bool {
			ds := toDataset(vals)
			s := profile.Profile(ds)
			in := intent.Intent{Category: intent.Ranking}
			p := params.Parameters{Target: "amount", Segment: "item", RankN: 5, Aggregation: params.Sum}
			a := Dispatch(in, p, ds, s, DefaultOptions()).Payload.(RankingPayload)
			b := Dispatch(in, p, ds, s, DefaultOptions()).Payload.(RankingPayload)
			if len(a.Values) != 5 || strings.Join(a.Labels, ",") != strings.Join(b.Labels, ",") {
				return false
			}
			for i := 1; i < len(a.Values); i++ {
				if a.Values[i] > a.Values[i-1] {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(8, gen.IntRange(0, 500)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
