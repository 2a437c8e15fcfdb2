package analytics

import (
	"fmt"
	"sort"
	"strings"
)

// recommend combines segmentation, trend, forecast and anomaly findings into
// prioritized actions. Each analysis runs only when the schema allows it.
func (j *job) recommend() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	col := j.targetName()
	var actions []Action
	add := func(p Priority, format string, args ...any) {
		actions = append(actions, Action{Priority: p, Text: fmt.Sprintf(format, args...)})
	}

	if j.segIdx >= 0 {
		if seg, ok := j.segmentOf(); ok && len(seg.Groups) > 1 {
			worst := seg.Groups[len(seg.Groups)-1]
			if worst.Deviation < 0 {
				add(High, "Investigate underperforming %s %s: average %s is %s below the overall mean.",
					seg.Segment, worst.Label, col, strings.TrimPrefix(fmtPct(-worst.Percent), "+"))
			}
			if seg.Leader != "" {
				best := seg.Groups[0]
				add(Medium, "Replicate best-performing %s %s: average %s is %s above the overall mean.",
					seg.Segment, best.Label, col, strings.TrimPrefix(fmtPct(best.Percent), "+"))
			}
		}
	}
	if j.timeIdx >= 0 {
		if tr, _, ok := j.trendOf(); ok {
			switch tr.Direction {
			case "decreasing":
				add(High, "Address the declining %s trend (%s from %s to %s).", col, fmtPct(tr.PercentChange), tr.Labels[0], tr.Labels[len(tr.Labels)-1])
			case "increasing":
				add(Medium, "Sustain the growth in %s (%s from %s to %s).", col, fmtPct(tr.PercentChange), tr.Labels[0], tr.Labels[len(tr.Labels)-1])
			}
		}
		if fc, _, ok := j.forecastOf(); ok {
			switch {
			case fc.Change < -10:
				add(High, "Plan for a projected %s decline of %s over the next %d periods.", col, fmtPct(fc.Change), len(fc.Forecast))
			case fc.Change > 20:
				add(Medium, "Prepare capacity for projected %s growth of %s over the next %d periods.", col, fmtPct(fc.Change), len(fc.Forecast))
			}
		}
	}
	if an, n := j.anomaliesOf(); n >= 3 && len(an.Outliers) > 0 {
		add(Medium, "Review %d unusual %s %s flagged by the %s method.", len(an.Outliers), col, plural(len(an.Outliers), "value", "values"), an.Method)
	}

	sort.SliceStable(actions, func(a, b int) bool {
		return actions[a].Priority == High && actions[b].Priority != High
	})
	var b strings.Builder
	if len(actions) == 0 {
		fmt.Fprintf(&b, "No strong signal in %s calls for action right now.", col)
	} else {
		fmt.Fprintf(&b, "Recommended actions based on %s:", col)
		for i, a := range actions {
			fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, a.Priority, a.Text)
		}
	}
	return Result{
		Headline:    ptr(float64(len(actions))),
		Explanation: b.String(),
		Hint:        HintNone,
		Title:       "Recommendations",
		Payload:     RecommendationPayload{Actions: actions},
	}
}
