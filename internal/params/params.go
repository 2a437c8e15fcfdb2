package params

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

// AggFunc is the closed set of aggregation verbs.
type AggFunc string

const (
	Sum   AggFunc = "sum"
	Mean  AggFunc = "mean"
	Count AggFunc = "count"
	Min   AggFunc = "min"
	Max   AggFunc = "max"
)

// Granularity is the bucket width for time series.
type Granularity string

const (
	Auto  Granularity = ""
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// Window is a relative time range such as "last 3 months".
type Window struct {
	N    int    `json:"n"`
	Unit string `json:"unit"` // day, week, month, year
}

// Start returns the first instant of the window ending at end.
func (w Window) Start(end time.Time) time.Time {
	switch w.Unit {
	case "week":
		return end.AddDate(0, 0, -7*w.N)
	case "month":
		return end.AddDate(0, -w.N, 0)
	case "year":
		return end.AddDate(-w.N, 0, 0)
	default:
		return end.AddDate(0, 0, -w.N)
	}
}

func (w Window) String() string {
	if w.N == 1 {
		return "last " + w.Unit
	}
	return fmt.Sprintf("last %d %ss", w.N, w.Unit)
}

// Upper bounds on counts read from a question.
const (
	MaxRank    = 1000
	MaxHorizon = 365
	maxWindow  = 10000
)

// Parameters are the bound arguments of one analytical question. Empty
// column names mean "use the schema default".
type Parameters struct {
	Target      string      `json:"target,omitempty"`
	Against     string      `json:"against,omitempty"`
	Aggregation AggFunc     `json:"aggregation"`
	RankN       int         `json:"rank_n,omitempty"`
	Ascending   bool        `json:"ascending,omitempty"`
	Segment     string      `json:"segment,omitempty"`
	TimeColumn  string      `json:"time_column,omitempty"`
	Window      *Window     `json:"time_window,omitempty"`
	Granularity Granularity `json:"granularity,omitempty"`
	Horizon     int         `json:"horizon,omitempty"`

	// DefaultTarget is set when Target was not named in the question.
	DefaultTarget bool `json:"default_target,omitempty"`

	Unsatisfiable bool     `json:"unsatisfiable,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	Notes         []string `json:"notes,omitempty"`
}

// ColumnNotFoundError reports a parameter naming a column the schema lacks.
type ColumnNotFoundError struct {
	Column string
	Role   string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found (used as %s)", e.Column, e.Role)
}

// Validate checks every explicitly named column against the schema and
// returns a *ColumnNotFoundError for the first missing one.
func (p Parameters) Validate(s profile.Schema) error {
	for _, ref := range p.refs() {
		if *ref.name == "" {
			continue
		}
		if _, ok := s.Lookup(*ref.name); !ok {
			return &ColumnNotFoundError{Column: *ref.name, Role: ref.role}
		}
	}
	return nil
}

// Redefault drops column references the schema cannot satisfy, notes each
// one, and fills defaults for the category again.
func (p Parameters) Redefault(cat intent.Category, s profile.Schema) Parameters {
	out := p
	out.Notes = append([]string(nil), p.Notes...)
	for _, ref := range out.refs() {
		if *ref.name == "" {
			continue
		}
		if _, ok := s.Lookup(*ref.name); !ok {
			out.Notes = append(out.Notes, fmt.Sprintf("column %q not found, using the default %s", *ref.name, ref.role))
			*ref.name = ""
		}
	}
	out.Unsatisfiable, out.Reason = false, ""
	out.applyDefaults(cat, s)
	return out
}

type colRef struct {
	name *string
	role string
}

func (p *Parameters) refs() []colRef {
	return []colRef{
		{&p.Target, "target"},
		{&p.Against, "second measure"},
		{&p.Segment, "segment"},
		{&p.TimeColumn, "time column"},
	}
}

func needsTime(cat intent.Category) bool {
	return cat == intent.Trend || cat == intent.Predictive
}

func needsSegment(cat intent.Category) bool {
	switch cat {
	case intent.Ranking, intent.Comparison, intent.Segmentation, intent.Diagnostic, intent.Prescriptive:
		return true
	}
	return false
}

func (p *Parameters) applyDefaults(cat intent.Category, s profile.Schema) {
	if p.Aggregation == "" {
		p.Aggregation = Sum
	}
	if p.Target == "" {
		if c, ok := s.First(profile.Numeric); ok {
			p.Target = c.Name
			p.DefaultTarget = true
		}
	}
	if p.TimeColumn == "" && (needsTime(cat) || cat == intent.Prescriptive) {
		if c, ok := s.First(profile.Temporal); ok {
			p.TimeColumn = c.Name
		}
	}
	if p.Segment == "" && needsSegment(cat) {
		if c, ok := s.Labels(); ok {
			p.Segment = c.Name
		}
	}
	if cat == intent.Ranking && p.RankN <= 0 {
		p.RankN = 5
	}
	p.checkSatisfiable(cat, s)
}

func (p *Parameters) checkSatisfiable(cat intent.Category, s profile.Schema) {
	numeric := len(s.Numeric())
	switch {
	case needsTime(cat) && len(s.Temporal()) == 0:
		p.flag("No time column is available in this dataset, so changes over time cannot be tracked. Add a date column to analyze trends or forecasts.")
	case needsTime(cat) && numeric == 0:
		p.flag("There is no numeric column to track over time.")
	case cat == intent.Correlation && numeric < 2:
		p.flag(fmt.Sprintf("Correlation needs at least two numeric columns; this dataset has %d.", numeric))
	case cat == intent.Aggregation && p.Aggregation == Count:
	case cat == intent.Unknown:
	case numeric == 0:
		p.flag("This dataset has no numeric column to analyze.")
	case (cat == intent.Comparison || cat == intent.Segmentation || cat == intent.Diagnostic) && p.Segment == "":
		p.flag("There is no categorical column to group the data by.")
	}
}

func (p *Parameters) flag(reason string) {
	p.Unsatisfiable = true
	p.Reason = reason
}
