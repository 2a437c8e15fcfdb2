package analytics

import (
	"fmt"
	"math"
	"strings"
)

const (
	zLimit   = 3.0
	iqrScale = 1.5
	skewCut  = 1.0
	// smallSample is the size at or below which a 3-sigma rule cannot flag
	// anything, so fences are used instead.
	smallSample = 10
)

// anomaliesOf flags target values outside 3 standard deviations, or outside
// the 1.5 x IQR fences for skewed or small samples.
func (j *job) anomaliesOf() (AnomalyPayload, int) {
	vals, rows := j.ds.Floats(j.targetIdx)
	pl := AnomalyPayload{Column: j.targetName()}
	if len(vals) < 3 {
		return pl, len(vals)
	}
	if len(vals) <= smallSample || math.Abs(skewness(vals)) > skewCut {
		s := sortedCopy(vals)
		q1, q3 := quantile(s, 0.25), quantile(s, 0.75)
		iqr := q3 - q1
		pl.Method = "IQR"
		pl.Lower, pl.Upper = q1-iqrScale*iqr, q3+iqrScale*iqr
	} else {
		m := summarize(vals)
		sd := m.std()
		pl.Method = "3-sigma"
		pl.Lower, pl.Upper = m.mean-zLimit*sd, m.mean+zLimit*sd
	}
	for i, v := range vals {
		if v < pl.Lower || v > pl.Upper {
			pl.Outliers = append(pl.Outliers, Outlier{Row: rows[i] + 1, Label: rowLabel(j.ds, j.schema, rows[i]), Value: v})
		}
	}
	return pl, len(vals)
}

func (j *job) anomalies() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	pl, n := j.anomaliesOf()
	if n < 3 {
		return j.insufficient("anomaly detection on "+j.targetName(), 3, n)
	}
	count := len(pl.Outliers)
	var expl string
	if count == 0 {
		expl = fmt.Sprintf("No anomalies found in %s: all %d values fall within %s to %s (%s method).",
			pl.Column, n, fmtNum(pl.Lower), fmtNum(pl.Upper), pl.Method)
	} else {
		var parts []string
		for i, o := range pl.Outliers {
			if i == 10 {
				parts = append(parts, fmt.Sprintf("and %d more", count-10))
				break
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", o.Label, fmtNum(o.Value)))
		}
		expl = fmt.Sprintf("Found %d %s in %s using the %s method (expected range %s to %s): %s.",
			count, plural(count, "anomaly", "anomalies"), pl.Column, pl.Method, fmtNum(pl.Lower), fmtNum(pl.Upper), strings.Join(parts, ", "))
	}
	return Result{
		Headline:    ptr(float64(count)),
		Explanation: expl,
		Hint:        HintNone,
		Title:       "Anomalies in " + pl.Column,
		Payload:     pl,
	}
}
