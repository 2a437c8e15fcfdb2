package analytics

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/dataset"
	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/params"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

// Options tune engines that have free parameters.
type Options struct {
	// Horizon is the default number of periods to forecast.
	Horizon int
}

// DefaultOptions returns the built-in engine settings.
func DefaultOptions() Options { return Options{Horizon: 30} }

// job is everything an engine reads. Column indices are resolved once.
type job struct {
	ds     *dataset.Dataset
	schema profile.Schema
	p      params.Parameters
	opt    Options
	cat    intent.Category

	targetIdx, segIdx, timeIdx int
}

// Dispatch routes a classified question to its engine. It always returns a
// Result; engines that cannot proceed return one with a nil Headline.
func Dispatch(in intent.Intent, p params.Parameters, ds *dataset.Dataset, s profile.Schema, opt Options) Result {
	cat := in.Category
	if ds == nil || ds.NumRows() == 0 {
		return fail(cat, "The dataset is empty, so there is nothing to analyze. Load a file with at least one data row.", ErrEmptyDataset)
	}
	if err := p.Validate(s); err != nil {
		p = p.Redefault(cat, s)
	}
	if p.Unsatisfiable {
		return fail(cat, p.Reason, &UnsatisfiableError{Reason: p.Reason})
	}
	if opt.Horizon <= 0 {
		opt.Horizon = DefaultOptions().Horizon
	}

	j := &job{ds: ds, schema: s, p: p, opt: opt, cat: cat, targetIdx: -1, segIdx: -1, timeIdx: -1}
	if c, ok := s.Lookup(p.Target); ok && p.Target != "" {
		j.targetIdx = c.Index
	}
	if c, ok := s.Lookup(p.Segment); ok && p.Segment != "" {
		j.segIdx = c.Index
	}
	if c, ok := s.Lookup(p.TimeColumn); ok && p.TimeColumn != "" {
		j.timeIdx = c.Index
	}

	var r Result
	switch cat {
	case intent.Aggregation:
		r = j.aggregate()
	case intent.Ranking:
		r = j.rank()
	case intent.Trend:
		r = j.trend()
	case intent.Comparison:
		r = j.compare()
	case intent.Statistics:
		r = j.statistics()
	case intent.Distribution:
		r = j.distribution()
	case intent.Correlation:
		r = j.correlate()
	case intent.Segmentation:
		r = j.segment(false)
	case intent.Diagnostic:
		r = j.segment(true)
	case intent.Anomaly:
		r = j.anomalies()
	case intent.Predictive:
		r = j.forecast()
	case intent.Prescriptive:
		r = j.recommend()
	case intent.Unknown:
		reason := "the question did not match any known kind of analysis"
		r = fail(cat, "I could not tell which analysis you want: "+reason+".", &UnsatisfiableError{Reason: reason})
	default:
		reason := fmt.Sprintf("no engine handles %q", cat)
		r = fail(cat, "I cannot answer that kind of question yet: "+reason+".", &UnsatisfiableError{Reason: reason})
	}
	r.Category = cat
	if len(p.Notes) > 0 {
		r.Explanation += "\nNote: " + strings.Join(p.Notes, "; ") + "."
	}
	return r
}

func (j *job) targetName() string { return j.ds.Column(j.targetIdx) }

func (j *job) needTarget() (Result, bool) {
	if j.targetIdx < 0 {
		reason := "no numeric column is available"
		return fail(j.cat, "This question needs a numeric column, but "+reason+".", &UnsatisfiableError{Reason: reason}), false
	}
	return Result{}, true
}

func (j *job) needSegment() (Result, bool) {
	if j.segIdx < 0 {
		reason := "no categorical column is available to group by"
		return fail(j.cat, "This question needs a column to group by, but "+reason+".", &UnsatisfiableError{Reason: reason}), false
	}
	return Result{}, true
}

func (j *job) insufficient(what string, need, have int) Result {
	err := &InsufficientDataError{What: what, Need: need, Have: have}
	return fail(j.cat, fmt.Sprintf("Not enough data: %s needs at least %d, but only %d %s available.", what, need, have, plural(have, "is", "are")), err)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
