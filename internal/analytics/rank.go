package analytics

import (
	"fmt"
	"sort"
	"strings"
)

type labelled struct {
	label string
	value float64
}

// order sorts descending (ascending when asc) with ties broken by label so
// repeated runs over the same data agree.
func order(items []labelled, asc bool) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].value != items[b].value {
			if asc {
				return items[a].value < items[b].value
			}
			return items[a].value > items[b].value
		}
		return items[a].label < items[b].label
	})
}

func (j *job) rank() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	col := j.targetName()
	var items []labelled
	unit := "rows"
	if j.segIdx >= 0 {
		unit = j.ds.Column(j.segIdx)
		for _, g := range groupBy(j.ds, j.segIdx, j.targetIdx) {
			items = append(items, labelled{g.label, g.stat().Sum})
		}
	} else {
		vals, rows := j.ds.Floats(j.targetIdx)
		for i, v := range vals {
			items = append(items, labelled{rowLabel(j.ds, j.schema, rows[i]), v})
		}
	}
	if len(items) == 0 {
		return j.insufficient("a ranking of "+col, 1, 0)
	}
	order(items, j.p.Ascending)
	n := j.p.RankN
	if n <= 0 {
		n = 5
	}
	if n > len(items) {
		n = len(items)
	}
	items = items[:n]

	pl := RankingPayload{Column: col, Ascending: j.p.Ascending}
	if j.segIdx >= 0 {
		pl.Segment = unit
	}
	parts := make([]string, 0, n)
	for i, it := range items {
		pl.Labels = append(pl.Labels, it.label)
		pl.Values = append(pl.Values, it.value)
		parts = append(parts, fmt.Sprintf("%d. %s (%s)", i+1, it.label, fmtNum(it.value)))
	}
	word := "Top"
	if j.p.Ascending {
		word = "Bottom"
	}
	title := fmt.Sprintf("%s %d %s by %s", word, n, unit, col)
	return Result{
		Headline:    ptr(items[0].value),
		Explanation: title + ": " + strings.Join(parts, ", ") + ".",
		Hint:        HintBar,
		Title:       title,
		Payload:     pl,
	}
}

func (j *job) compare() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	if r, ok := j.needSegment(); !ok {
		return r
	}
	col, seg := j.targetName(), j.ds.Column(j.segIdx)
	groups := groupBy(j.ds, j.segIdx, j.targetIdx)
	if len(groups) == 0 {
		return j.insufficient("a comparison of "+col+" by "+seg, 1, 0)
	}
	pl := ComparisonPayload{Column: col, Segment: seg}
	total := 0.0
	allPositive := true
	for _, g := range groups {
		st := g.stat()
		pl.Groups = append(pl.Groups, st)
		total += st.Sum
		if st.Sum <= 0 {
			allPositive = false
		}
	}
	sort.SliceStable(pl.Groups, func(a, b int) bool {
		if pl.Groups[a].Sum != pl.Groups[b].Sum {
			return pl.Groups[a].Sum > pl.Groups[b].Sum
		}
		return pl.Groups[a].Label < pl.Groups[b].Label
	})
	hint := HintBar
	if len(pl.Groups) <= 6 && allPositive {
		hint = HintPie
	}
	var b strings.Builder
	lead := pl.Groups[0]
	fmt.Fprintf(&b, "Comparing %s across %d %s values: %s leads with %s", col, len(pl.Groups), seg, lead.Label, fmtNum(lead.Sum))
	if total != 0 {
		fmt.Fprintf(&b, " (%s of the total)", strings.TrimPrefix(fmtPct(lead.Sum/total*100), "+"))
	}
	b.WriteString(".")
	for i, g := range pl.Groups {
		if i == 6 {
			fmt.Fprintf(&b, " ... and %d more.", len(pl.Groups)-6)
			break
		}
		fmt.Fprintf(&b, " %s: total %s, average %s over %d %s.", g.Label, fmtNum(g.Sum), fmtNum(g.Mean), g.Count, plural(g.Count, "row", "rows"))
	}
	return Result{
		Headline:    ptr(lead.Sum),
		Explanation: b.String(),
		Hint:        hint,
		Title:       fmt.Sprintf("%s by %s", col, seg),
		Payload:     pl,
	}
}
