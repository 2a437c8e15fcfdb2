package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

const impactThreshold = 10.0 // percent deviation from the overall mean

// segmentOf groups the target by segment and measures each group's mean
// against the overall mean.
func (j *job) segmentOf() (SegmentPayload, bool) {
	groups := groupBy(j.ds, j.segIdx, j.targetIdx)
	if len(groups) == 0 {
		return SegmentPayload{}, false
	}
	var all moments
	for _, g := range groups {
		for _, v := range g.vals {
			all.add(v)
		}
	}
	pl := SegmentPayload{Column: j.targetName(), Segment: j.ds.Column(j.segIdx), OverallMean: all.mean}
	for _, g := range groups {
		st := g.stat()
		sg := SegmentGroup{GroupStat: st, Deviation: st.Mean - all.mean}
		if all.mean != 0 {
			sg.Percent = sg.Deviation / math.Abs(all.mean) * 100
		}
		pl.Groups = append(pl.Groups, sg)
	}
	sort.SliceStable(pl.Groups, func(a, b int) bool {
		if pl.Groups[a].Mean != pl.Groups[b].Mean {
			return pl.Groups[a].Mean > pl.Groups[b].Mean
		}
		return pl.Groups[a].Label < pl.Groups[b].Label
	})
	if pl.Groups[0].Deviation > 0 {
		pl.Leader = pl.Groups[0].Label
	}
	for _, g := range pl.Groups {
		if math.Abs(g.Percent) > impactThreshold {
			pl.Drivers = append(pl.Drivers, g.Label)
		}
	}
	return pl, true
}

func (j *job) segment(diagnostic bool) Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	if r, ok := j.needSegment(); !ok {
		return r
	}
	pl, ok := j.segmentOf()
	if !ok {
		return j.insufficient("a breakdown of "+j.targetName(), 1, 0)
	}
	pl.Diagnostic = diagnostic

	var b strings.Builder
	fmt.Fprintf(&b, "Across %d %s groups the average %s is %s.", len(pl.Groups), pl.Segment, pl.Column, fmtNum(pl.OverallMean))
	if pl.Leader != "" {
		lead := pl.Groups[0]
		fmt.Fprintf(&b, " %s stands out as the leading factor at %s per row (%s vs average, total %s).",
			lead.Label, fmtNum(lead.Mean), fmtPct(lead.Percent), fmtNum(lead.Sum))
	} else {
		b.WriteString(" No group is above the overall average.")
	}
	if diagnostic {
		if len(pl.Drivers) == 0 {
			fmt.Fprintf(&b, " No %s group deviates from the average by more than %.0f%%, so the change is broad-based.", pl.Segment, impactThreshold)
		} else {
			var parts []string
			for _, g := range pl.Groups {
				if math.Abs(g.Percent) > impactThreshold {
					side := "above"
					if g.Percent < 0 {
						side = "below"
					}
					parts = append(parts, fmt.Sprintf("%s (%s%% %s average)", g.Label, fmtNum(math.Round(math.Abs(g.Percent)*10)/10), side))
				}
			}
			fmt.Fprintf(&b, " Main drivers: %s.", strings.Join(parts, ", "))
		}
	} else if n := len(pl.Groups); n > 1 {
		low := pl.Groups[n-1]
		fmt.Fprintf(&b, " The weakest group is %s at %s (%s).", low.Label, fmtNum(low.Mean), fmtPct(low.Percent))
	}

	var headline float64
	if len(pl.Groups) > 0 {
		headline = pl.Groups[0].Mean
	}
	title := fmt.Sprintf("Average %s by %s", pl.Column, pl.Segment)
	return Result{Headline: ptr(headline), Explanation: b.String(), Hint: HintBar, Title: title, Payload: pl}
}
