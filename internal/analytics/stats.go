package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// moments accumulates count, mean, variance and range in one pass (Welford).
type moments struct {
	n        int
	mean, m2 float64
	min, max float64
	sum      float64
}

func (m *moments) add(x float64) {
	if m.n == 0 {
		m.min, m.max = x, x
	}
	m.n++
	m.sum += x
	if x < m.min {
		m.min = x
	}
	if x > m.max {
		m.max = x
	}
	delta := x - m.mean
	m.mean += delta / float64(m.n)
	m.m2 += delta * (x - m.mean)
}

// std is the sample standard deviation.
func (m moments) std() float64 {
	if m.n < 2 {
		return 0
	}
	return math.Sqrt(m.m2 / float64(m.n-1))
}

func summarize(vals []float64) moments {
	var m moments
	for _, v := range vals {
		m.add(v)
	}
	return m
}

// pairAcc accumulates the sums Pearson's r needs.
type pairAcc struct {
	n                               float64
	sumX, sumY, sumXX, sumYY, sumXY float64
}

func (p *pairAcc) add(x, y float64) {
	p.n++
	p.sumX += x
	p.sumY += y
	p.sumXX += x * x
	p.sumYY += y * y
	p.sumXY += x * y
}

// r returns Pearson's correlation, false when either side has no variance.
func (p *pairAcc) r() (float64, bool) {
	if p.n < 3 {
		return 0, false
	}
	num := p.n*p.sumXY - p.sumX*p.sumY
	den := math.Sqrt(p.n*p.sumXX-p.sumX*p.sumX) * math.Sqrt(p.n*p.sumYY-p.sumY*p.sumY)
	if den == 0 || math.IsNaN(den) {
		return 0, false
	}
	r := num / den
	return math.Max(-1, math.Min(1, r)), true
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// skewness is the moment coefficient of skewness g1.
func skewness(vals []float64) float64 {
	n := float64(len(vals))
	if n < 3 {
		return 0
	}
	m := summarize(vals).mean
	var m2, m3 float64
	for _, v := range vals {
		d := v - m
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		return 0
	}
	return m3 / math.Pow(m2, 1.5)
}

// slope fits y = a + b*x over x = 0..n-1 by least squares and returns b.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sx, sy, sxx, sxy float64
	for i, y := range ys {
		x := float64(i)
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	den := n*sxx - sx*sx
	if den == 0 {
		return 0
	}
	return (n*sxy - sx*sy) / den
}

// percentChange is (b-a)/|a| in percent; ok is false when a is zero.
func percentChange(a, b float64) (float64, bool) {
	if a == 0 {
		return 0, false
	}
	return (b - a) / math.Abs(a) * 100, true
}

// fmtNum prints integers without decimals and everything else with at most
// two, trimming trailing zeros.
func fmtNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func fmtPct(v float64) string {
	s := strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
	if v >= 0 {
		s = "+" + s
	}
	return strings.Replace(s, ".0", "", 1) + "%"
}
