package params

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/intent"
	"github.com/KaramelBytes/queryloom/internal/profile"
)

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12, "fifteen": 15, "twenty": 20,
}

var fillers = map[string]bool{"the": true, "each": true, "every": true, "a": true, "an": true, "all": true}

// Extract binds the parameters of a question against the schema. It never
// fails: anything it cannot bind falls back to a schema default, and
// questions the schema cannot answer are flagged Unsatisfiable.
func Extract(utterance string, in intent.Intent, s profile.Schema) Parameters {
	toks := intent.Tokens(utterance)
	p := Parameters{}

	p.RankN, p.Ascending = rankOf(toks)
	p.Aggregation = aggregationOf(toks)
	p.Window = windowOf(toks)
	p.Horizon, p.Granularity = horizonOf(toks)
	if p.Horizon > MaxHorizon {
		p.Notes = append(p.Notes, fmt.Sprintf("forecast horizon capped at %d periods", MaxHorizon))
		p.Horizon = MaxHorizon
	}
	if g := granularityOf(toks); g != Auto {
		p.Granularity = g
	}

	mentions := findMentions(toks, s)
	bound := map[int]bool{}
	for i, t := range toks {
		if t != "by" && t != "per" && t != "across" && !(t == "each" && i > 0 && toks[i-1] == "for") {
			continue
		}
		j := i + 1
		for j < len(toks) && fillers[toks[j]] {
			j++
		}
		if j >= len(toks) {
			continue
		}
		if m, ok := mentionAt(mentions, j); ok {
			p.bind(m.col)
			bound[m.pos] = true
			continue
		}
		switch toks[j] {
		case "day", "date":
			p.Granularity = Day
		case "week":
			p.Granularity = Week
		case "month":
			p.Granularity = Month
		default:
			p.Notes = append(p.Notes, (&ColumnNotFoundError{Column: toks[j], Role: "segment"}).Error()+", using the default segment")
		}
	}
	for _, m := range mentions {
		if !bound[m.pos] {
			p.bind(m.col)
		}
	}

	p.applyDefaults(in.Category, s)
	return p
}

// bind assigns a mentioned column to the role its type suggests. Columns
// named right after "by"/"per" are bound first and so win their role.
func (p *Parameters) bind(c profile.ColumnProfile) {
	switch c.Type {
	case profile.Numeric:
		switch {
		case c.Name == p.Target || c.Name == p.Against:
		case p.Target == "":
			p.Target = c.Name
		case p.Against == "":
			p.Against = c.Name
		}
	case profile.Temporal:
		if p.TimeColumn == "" {
			p.TimeColumn = c.Name
		}
	default:
		if p.Segment == "" {
			p.Segment = c.Name
		}
	}
}

type mention struct {
	col profile.ColumnProfile
	pos int
}

// findMentions locates column names in the token stream. Names match
// case-insensitively with "_", "-" and spaces treated alike and light
// plurals stemmed; longer names claim tokens first.
func findMentions(toks []string, s profile.Schema) []mention {
	type cand struct {
		col  profile.ColumnProfile
		toks []string
		flat string
	}
	var cands []cand
	for _, c := range s.Columns {
		ct := intent.Tokens(c.Name)
		if len(ct) == 0 {
			continue
		}
		cands = append(cands, cand{col: c, toks: ct, flat: strings.Join(ct, "")})
	}
	sort.SliceStable(cands, func(i, j int) bool { return len(cands[i].flat) > len(cands[j].flat) })

	used := make([]bool, len(toks))
	var out []mention
	for _, c := range cands {
		for i := range toks {
			n := matchAt(toks, i, c.toks, c.flat, used)
			if n == 0 {
				continue
			}
			for k := i; k < i+n; k++ {
				used[k] = true
			}
			out = append(out, mention{col: c.col, pos: i})
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

// matchAt returns how many utterance tokens starting at i spell the column,
// either token by token or with separators dropped ("unit price" vs
// "unitprice").
func matchAt(toks []string, i int, ct []string, flat string, used []bool) int {
	if i+len(ct) <= len(toks) {
		ok := true
		for k := range ct {
			if used[i+k] || toks[i+k] != ct[k] {
				ok = false
				break
			}
		}
		if ok {
			return len(ct)
		}
	}
	var b strings.Builder
	for k := i; k < len(toks) && k < i+3; k++ {
		if used[k] {
			return 0
		}
		b.WriteString(toks[k])
		if b.Len() > len(flat) {
			return 0
		}
		if b.String() == flat {
			return k - i + 1
		}
	}
	return 0
}

func mentionAt(ms []mention, pos int) (mention, bool) {
	for _, m := range ms {
		if m.pos == pos {
			return m, true
		}
	}
	return mention{}, false
}

func number(tok string) (int, bool) {
	if n, err := strconv.Atoi(tok); err == nil && n > 0 {
		return n, true
	}
	n, ok := numberWords[tok]
	return n, ok
}

func rankOf(toks []string) (n int, ascending bool) {
	for i, t := range toks {
		switch t {
		case "bottom":
			ascending = true
			fallthrough
		case "top", "first":
			if n == 0 && i+1 < len(toks) {
				if v, ok := number(toks[i+1]); ok && v <= MaxRank {
					n = v
				}
			}
			if n == 0 && i > 0 {
				// "5 best products" normalizes to "5 top product"
				if v, ok := number(toks[i-1]); ok && v <= MaxRank {
					n = v
				}
			}
		}
	}
	return n, ascending
}

func aggregationOf(toks []string) AggFunc {
	for i, t := range toks {
		next := ""
		if i+1 < len(toks) {
			next = toks[i+1]
		}
		switch {
		case t == "average":
			return Mean
		case t == "count":
			return Count
		case t == "maximum" || t == "max" || t == "peak" || (t == "top" && next == "value"):
			return Max
		case t == "minimum" || t == "min" || (t == "bottom" && next == "value"):
			return Min
		case t == "total":
			return Sum
		}
	}
	return Sum
}

func unitOf(tok string) (unit string, mult int, ok bool) {
	switch tok {
	case "day", "week", "month", "year":
		return tok, 1, true
	case "quarter":
		return "month", 3, true
	}
	return "", 0, false
}

func windowOf(toks []string) *Window {
	for i, t := range toks {
		if t != "last" && t != "past" && t != "previous" {
			continue
		}
		j, n := i+1, 1
		if j < len(toks) {
			if v, ok := number(toks[j]); ok {
				n = min(v, maxWindow)
				j++
			}
		}
		if j < len(toks) {
			if u, mult, ok := unitOf(toks[j]); ok {
				return &Window{N: n * mult, Unit: u}
			}
		}
	}
	return nil
}

// horizonOf reads "next N days" style projections.
func horizonOf(toks []string) (int, Granularity) {
	for i, t := range toks {
		if t != "next" {
			continue
		}
		j, n := i+1, 1
		if j < len(toks) {
			if v, ok := number(toks[j]); ok {
				n = min(v, MaxHorizon+1)
				j++
			}
		}
		if j >= len(toks) {
			continue
		}
		u, mult, ok := unitOf(toks[j])
		if !ok {
			continue
		}
		switch u {
		case "day":
			return n, Day
		case "week":
			return n, Week
		case "month":
			return n * mult, Month
		case "year":
			return n * 12, Month
		}
	}
	return 0, Auto
}

func granularityOf(toks []string) Granularity {
	for _, t := range toks {
		switch t {
		case "daily":
			return Day
		case "weekly":
			return Week
		case "monthly":
			return Month
		}
	}
	return Auto
}

// Describe renders the bound parameters for logs and the CLI.
func (p Parameters) Describe() string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("target", p.Target)
	add("against", p.Against)
	add("agg", string(p.Aggregation))
	if p.RankN > 0 {
		add("n", strconv.Itoa(p.RankN))
	}
	if p.Ascending {
		add("order", "asc")
	}
	add("segment", p.Segment)
	add("time", p.TimeColumn)
	if p.Window != nil {
		add("window", p.Window.String())
	}
	add("granularity", string(p.Granularity))
	if p.Horizon > 0 {
		add("horizon", fmt.Sprint(p.Horizon))
	}
	return strings.Join(parts, " ")
}
