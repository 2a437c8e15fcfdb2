package analytics

import (
	"github.com/KaramelBytes/queryloom/internal/intent"
)

// ChartHint is the chart an engine suggests for its result.
type ChartHint string

const (
	HintNone ChartHint = "none"
	HintBar  ChartHint = "bar"
	HintLine ChartHint = "line"
	HintPie  ChartHint = "pie"
)

// Result is what one engine produced for one question. Headline is nil
// when the engine could not proceed; Err then says why.
type Result struct {
	Category    intent.Category
	Headline    *float64
	Explanation string
	Hint        ChartHint
	Title       string
	Payload     Payload
	Err         error
}

// Failed reports whether the engine produced no answer.
func (r Result) Failed() bool { return r.Headline == nil }

// Payload is the engine-specific body of a Result. The set of
// implementations is closed to this package.
type Payload interface{ isPayload() }

type AggregationPayload struct {
	Fn     string
	Column string
	Value  float64
	Rows   int
	// Labels and Values hold per-segment results when a segment was named.
	Labels []string
	Values []float64
}

type RankingPayload struct {
	Column    string
	Segment   string
	Ascending bool
	Labels    []string
	Values    []float64
}

type TrendPayload struct {
	Column        string
	TimeColumn    string
	Granularity   string
	Labels        []string
	Values        []float64
	Slope         float64
	Direction     string
	PercentChange float64
}

type GroupStat struct {
	Label string
	Sum   float64
	Mean  float64
	Count int
}

type ComparisonPayload struct {
	Column  string
	Segment string
	Groups  []GroupStat
}

type StatisticsPayload struct {
	Column            string
	Count             int
	Mean, Median, Std float64
	Min, Max, Q1, Q3  float64
}

type Bin struct {
	Lower, Upper float64
	Count        int
}

type DistributionPayload struct {
	Column string
	Bins   []Bin
}

type Pair struct {
	A, B string
	R    float64
	N    int
}

type CorrelationPayload struct {
	Pairs     []Pair
	Strongest Pair
	Strength  string
	Focus     *Pair
}

type SegmentGroup struct {
	GroupStat
	Deviation float64
	Percent   float64
}

type SegmentPayload struct {
	Column      string
	Segment     string
	OverallMean float64
	Groups      []SegmentGroup
	Leader      string
	Diagnostic  bool
	Drivers     []string
}

type Outlier struct {
	Row   int
	Label string
	Value float64
}

type AnomalyPayload struct {
	Column       string
	Method       string
	Lower, Upper float64
	Outliers     []Outlier
}

type ForecastPayload struct {
	Column         string
	Granularity    string
	Method         string
	HistoryLabels  []string
	History        []float64
	ForecastLabels []string
	Forecast       []float64
	Lower, Upper   []float64
	MAE, MAPE      float64
	Change         float64
}

// Priority orders recommended actions.
type Priority string

const (
	High   Priority = "HIGH"
	Medium Priority = "MEDIUM"
)

type Action struct {
	Priority Priority
	Text     string
}

type RecommendationPayload struct {
	Actions []Action
}

func (AggregationPayload) isPayload()    {}
func (RankingPayload) isPayload()        {}
func (TrendPayload) isPayload()          {}
func (ComparisonPayload) isPayload()     {}
func (StatisticsPayload) isPayload()     {}
func (DistributionPayload) isPayload()   {}
func (CorrelationPayload) isPayload()    {}
func (SegmentPayload) isPayload()        {}
func (AnomalyPayload) isPayload()        {}
func (ForecastPayload) isPayload()       {}
func (RecommendationPayload) isPayload() {}

func fail(cat intent.Category, explanation string, err error) Result {
	return Result{Category: cat, Explanation: explanation, Hint: HintNone, Err: err}
}

func ptr(v float64) *float64 { return &v }
