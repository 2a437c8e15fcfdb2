package analytics

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/queryloom/internal/params"
)

const stableBand = 5.0 // percent

var granWords = map[params.Granularity]string{params.Day: "daily", params.Week: "weekly", params.Month: "monthly"}

func (j *job) needTime() (Result, bool) {
	if j.timeIdx < 0 {
		reason := "no time column is available"
		return fail(j.cat, "No time column is available in this dataset, so changes over time cannot be tracked.", &UnsatisfiableError{Reason: reason}), false
	}
	return Result{}, true
}

// trendOf computes the bucketed series and its direction without building
// a Result, so recommendations can reuse it.
func (j *job) trendOf() (TrendPayload, series, bool) {
	s := bucketSeries(j.ds, j.timeIdx, j.targetIdx, j.p.Granularity, j.p.Window)
	if len(s.means) < 2 {
		return TrendPayload{}, s, false
	}
	pl := TrendPayload{
		Column:      j.targetName(),
		TimeColumn:  j.ds.Column(j.timeIdx),
		Granularity: string(s.gran),
		Labels:      s.labels,
		Values:      s.means,
		Slope:       slope(s.means),
	}
	first, last := s.means[0], s.means[len(s.means)-1]
	pct, ok := percentChange(first, last)
	pl.PercentChange = pct
	switch {
	case pl.Slope == 0 || (ok && math.Abs(pct) < stableBand):
		pl.Direction = "stable"
	case pl.Slope > 0:
		pl.Direction = "increasing"
	default:
		pl.Direction = "decreasing"
	}
	// The fitted slope and the endpoint change can disagree on a noisy series.
	if ok && pl.Direction != "stable" && (pl.Slope > 0) != (pct > 0) {
		pl.Direction = "fluctuating"
	}
	return pl, s, true
}

func (j *job) trend() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	if r, ok := j.needTime(); !ok {
		return r
	}
	pl, s, ok := j.trendOf()
	if !ok {
		return j.insufficient("a trend of "+j.targetName(), 2, len(s.means))
	}
	first, last := pl.Values[0], pl.Values[len(pl.Values)-1]
	direction := pl.Direction
	if direction == "fluctuating" {
		lean := "upward"
		if pl.Slope < 0 {
			lean = "downward"
		}
		direction = fmt.Sprintf("fluctuating with a slight %s slope", lean)
	}
	expl := fmt.Sprintf("%s is %s: the %s average went from %s (%s) to %s (%s)",
		pl.Column, direction, granWords[s.gran], fmtNum(first), pl.Labels[0], fmtNum(last), pl.Labels[len(pl.Labels)-1])
	if first != 0 {
		expl += fmt.Sprintf(", a change of %s", fmtPct(pl.PercentChange))
	}
	expl += fmt.Sprintf(" over %d periods.", len(pl.Values))
	if j.p.Window != nil {
		expl += fmt.Sprintf(" Window: %s.", j.p.Window.String())
	}
	return Result{
		Headline:    ptr(pl.PercentChange),
		Explanation: expl,
		Hint:        HintLine,
		Title:       fmt.Sprintf("%s %s trend", capitalize(granWords[s.gran]), pl.Column),
		Payload:     pl,
	}
}
