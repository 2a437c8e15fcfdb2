package intent

import "strings"

// levenshtein returns the edit distance between a and b, or bound+1 once
// every cell of a row exceeds bound.
func levenshtein(a, b []rune, bound int) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(a)-len(b) > bound {
		return bound + 1
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		rowMin := cur[0]
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			v := prev[j-1] + cost
			if d := prev[j] + 1; d < v {
				v = d
			}
			if d := cur[j-1] + 1; d < v {
				v = d
			}
			cur[j] = v
			if v < rowMin {
				rowMin = v
			}
		}
		if rowMin > bound {
			return bound + 1
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// ratio is 100 * (1 - distance / longer length).
func ratio(a, b []rune, bound int) float64 {
	longer := len(a)
	if len(b) > longer {
		longer = len(b)
	}
	if longer == 0 {
		return 100
	}
	d := levenshtein(a, b, bound)
	if d > bound {
		return 0
	}
	return 100 * (1 - float64(d)/float64(longer))
}

// containsSeq reports whether needle occurs as a contiguous token run in hay.
func containsSeq(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		ok := true
		for k := range needle {
			if hay[i+k] != needle[k] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// overlap is |A ∩ B| / max(|A|, |B|) over distinct tokens.
func overlap(a, b normalized) float64 {
	if len(a.set) == 0 || len(b.set) == 0 {
		return 0
	}
	small, large := a.set, b.set
	if len(small) > len(large) {
		small, large = large, small
	}
	n := 0
	for t := range small {
		if _, ok := large[t]; ok {
			n++
		}
	}
	return float64(n) / float64(len(large))
}

// sharesToken reports whether a and b have any token in common.
func sharesToken(a, b normalized) bool {
	small, large := a.set, b.set
	if len(small) > len(large) {
		small, large = large, small
	}
	for t := range small {
		if _, ok := large[t]; ok {
			return true
		}
	}
	return false
}

// overlapBound is the largest overlap two token sets of these sizes allow.
func overlapBound(a, b normalized) float64 {
	na, nb := len(a.set), len(b.set)
	if na == 0 || nb == 0 {
		return 0
	}
	return float64(min(na, nb)) / float64(max(na, nb))
}

// stopwords carry no topic. They are left out of the token index so a
// question does not pull in every template that says "show me the".
// Entries are in stemmed form ("doe" is "does").
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "me": true, "my": true, "our": true,
	"us": true, "we": true, "i": true, "you": true, "your": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "do": true, "doe": true,
	"did": true, "can": true, "could": true, "would": true, "will": true,
	"please": true, "show": true, "tell": true, "give": true, "get": true,
	"what": true, "which": true, "how": true, "there": true, "any": true,
	"have": true, "has": true, "of": true, "in": true, "on": true, "for": true,
	"to": true, "and": true, "with": true, "it": true, "this": true,
	"that": true, "all": true, "by": true, "per": true,
}

const histBuckets = 37

// charHist counts letters, digits and everything else. Counts saturate at 255.
type charHist [histBuckets]uint8

func histOf(rs []rune) charHist {
	var h charHist
	for _, r := range rs {
		b := histBuckets - 1
		switch {
		case r >= 'a' && r <= 'z':
			b = int(r - 'a')
		case r >= '0' && r <= '9':
			b = 26 + int(r-'0')
		}
		if h[b] < 255 {
			h[b]++
		}
	}
	return h
}

// bagDistance is a lower bound on the edit distance of the strings behind
// a and b: each edit fixes at most one surplus and one deficit.
func bagDistance(a, b *charHist) int {
	pos, neg := 0, 0
	for i := range a {
		d := int(a[i]) - int(b[i])
		if d > 0 {
			pos += d
		} else {
			neg -= d
		}
	}
	return max(pos, neg)
}

// ratioBound is an upper bound on ratio computed from histograms alone.
func ratioBound(a, b *normalized) float64 {
	longer := max(len(a.runes), len(b.runes))
	if longer == 0 {
		return 100
	}
	return 100 * (1 - float64(bagDistance(&a.hist, &b.hist))/float64(longer))
}

type normalized struct {
	text   string
	runes  []rune
	tokens []string
	set    map[string]struct{}
	hist   charHist
	// content counts distinct tokens that are not stopwords.
	content int
}

func newNormalized(s string) normalized {
	toks := Tokens(s)
	text := strings.Join(toks, " ")
	set := make(map[string]struct{}, len(toks))
	content := 0
	for _, t := range toks {
		if _, dup := set[t]; dup {
			continue
		}
		set[t] = struct{}{}
		if !stopwords[t] {
			content++
		}
	}
	rs := []rune(text)
	return normalized{text: text, runes: rs, tokens: toks, set: set, hist: histOf(rs), content: content}
}

// score compares a normalized utterance with a normalized template on a
// 0-100 scale: exact 100, token containment 85-95, otherwise the better of
// the edit ratio and a blend of edit ratio and token overlap.
func score(u, t normalized, shareToken bool) float64 {
	return scoreAtLeast(u, t, shareToken, -1)
}

// scoreAtLeast is score with early exit: when the result cannot reach
// target it may return any value below target.
func scoreAtLeast(u, t normalized, shareToken bool, target float64) float64 {
	if u.text == t.text {
		return 100
	}
	short, long := len(u.runes), len(t.runes)
	if short > long {
		short, long = long, short
	}
	if shareToken && (containsSeq(u.tokens, t.tokens) || containsSeq(t.tokens, u.tokens)) {
		return 85 + 10*float64(short)/float64(long)
	}
	ov := 0.0
	if shareToken {
		ov = overlap(u, t)
	}
	if target > 0 {
		ub := ratioBound(&u, &t)
		if blend := 0.6*ub + 40*ov; blend > ub {
			ub = blend
		}
		if ub < target {
			return ub
		}
	}
	need := target
	if alt := (target - 40*ov) / 0.6; alt < need {
		need = alt
	}
	bound := long
	if need > 0 {
		bound = int(float64(long)*(1-need/100) + 1e-9)
		if bound < 0 {
			return -1
		}
	}
	lev := ratio(u.runes, t.runes, bound)
	if !shareToken {
		return lev
	}
	if blend := 0.6*lev + 40*ov; blend > lev {
		return blend
	}
	return lev
}
