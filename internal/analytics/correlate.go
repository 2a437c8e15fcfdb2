package analytics

import (
	"fmt"
	"math"
)

func strength(r float64) string {
	a := math.Abs(r)
	switch {
	case a >= 0.7:
		return "strong"
	case a >= 0.4:
		return "moderate"
	}
	return "weak"
}

func direction(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

func (j *job) correlate() Result {
	num := j.schema.Numeric()
	if len(num) < 2 {
		return j.insufficient("a correlation", 2, len(num))
	}
	var pairs []Pair
	for a := 0; a < len(num); a++ {
		for b := a + 1; b < len(num); b++ {
			var acc pairAcc
			for i := 0; i < j.ds.NumRows(); i++ {
				x, ok1 := j.ds.Float(i, num[a].Index)
				y, ok2 := j.ds.Float(i, num[b].Index)
				if ok1 && ok2 {
					acc.add(x, y)
				}
			}
			if r, ok := acc.r(); ok {
				pairs = append(pairs, Pair{A: num[a].Name, B: num[b].Name, R: r, N: int(acc.n)})
			}
		}
	}
	if len(pairs) == 0 {
		return j.insufficient("a correlation (pairs of varying numeric values)", 3, 0)
	}
	best := pairs[0]
	for _, p := range pairs[1:] {
		if math.Abs(p.R) > math.Abs(best.R) {
			best = p
		}
	}
	pl := CorrelationPayload{Pairs: pairs, Strongest: best, Strength: strength(best.R)}
	expl := fmt.Sprintf("The strongest relationship is between %s and %s: a %s %s correlation (r = %.2f, %d rows).",
		best.A, best.B, pl.Strength, direction(best.R), best.R, best.N)
	headline := best.R
	if j.p.Against != "" {
		for i := range pairs {
			p := pairs[i]
			if (p.A == j.p.Target && p.B == j.p.Against) || (p.A == j.p.Against && p.B == j.p.Target) {
				pl.Focus = &p
				headline = p.R
				expl = fmt.Sprintf("%s and %s show a %s %s correlation (r = %.2f). ", j.p.Target, j.p.Against, strength(p.R), direction(p.R), p.R) + expl
				break
			}
		}
	}
	return Result{
		Headline:    ptr(headline),
		Explanation: expl,
		Hint:        HintNone,
		Title:       "Correlation",
		Payload:     pl,
	}
}
