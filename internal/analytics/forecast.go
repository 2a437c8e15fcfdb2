package analytics

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/queryloom/internal/params"
)

const (
	holtAlpha = 0.5
	holtBeta  = 0.3
	bandZ     = 1.96
)

// holt fits additive-trend exponential smoothing and returns the one-step
// in-sample residuals with the final level and trend.
func holt(ys []float64) (level, trend float64, residuals []float64) {
	level, trend = ys[0], ys[1]-ys[0]
	for t := 1; t < len(ys); t++ {
		fitted := level + trend
		residuals = append(residuals, ys[t]-fitted)
		prev := level
		level = holtAlpha*ys[t] + (1-holtAlpha)*(level+trend)
		trend = holtBeta*(level-prev) + (1-holtBeta)*trend
	}
	return level, trend, residuals
}

func errorStats(ys, residuals []float64) (mae, mape, sd float64) {
	if len(residuals) == 0 {
		return 0, 0, 0
	}
	var sumAbs, sumPct float64
	pctN := 0
	off := len(ys) - len(residuals)
	for i, r := range residuals {
		sumAbs += math.Abs(r)
		if y := ys[i+off]; y != 0 {
			sumPct += math.Abs(r / y)
			pctN++
		}
	}
	mae = sumAbs / float64(len(residuals))
	if pctN > 0 {
		mape = sumPct / float64(pctN) * 100
	}
	if len(residuals) > 1 {
		sd = summarize(residuals).std()
	} else {
		sd = math.Abs(residuals[0])
	}
	return mae, mape, sd
}

// forecastOf projects the bucketed target. ok is false with fewer than two
// buckets.
func (j *job) forecastOf() (ForecastPayload, int, bool) {
	s := bucketSeries(j.ds, j.timeIdx, j.targetIdx, j.p.Granularity, j.p.Window)
	n := len(s.means)
	if n < 2 {
		return ForecastPayload{}, n, false
	}
	h := j.p.Horizon
	if h <= 0 {
		h = j.opt.Horizon
	}
	h = min(h, params.MaxHorizon)
	pl := ForecastPayload{
		Column:        j.targetName(),
		Granularity:   string(s.gran),
		HistoryLabels: s.labels,
		History:       s.means,
	}
	var point func(k int) float64
	var sd float64
	if n < 3 {
		pl.Method = "moving average"
		avg := summarize(s.means).mean
		res := make([]float64, n)
		for i, y := range s.means {
			res[i] = y - avg
		}
		pl.MAE, pl.MAPE, sd = errorStats(s.means, res)
		point = func(int) float64 { return avg }
	} else {
		pl.Method = "Holt linear smoothing"
		level, trend, res := holt(s.means)
		pl.MAE, pl.MAPE, sd = errorStats(s.means, res)
		point = func(k int) float64 { return level + float64(k)*trend }
	}
	lastStart := s.starts[n-1]
	for k := 1; k <= h; k++ {
		v := point(k)
		pl.ForecastLabels = append(pl.ForecastLabels, bucketLabel(advance(lastStart, s.gran, k), s.gran))
		pl.Forecast = append(pl.Forecast, v)
		pl.Lower = append(pl.Lower, v-bandZ*sd)
		pl.Upper = append(pl.Upper, v+bandZ*sd)
	}
	pl.Change, _ = percentChange(s.means[n-1], pl.Forecast[h-1])
	return pl, n, true
}

func (j *job) forecast() Result {
	if r, ok := j.needTarget(); !ok {
		return r
	}
	if r, ok := j.needTime(); !ok {
		return r
	}
	pl, n, ok := j.forecastOf()
	if !ok {
		return j.insufficient("a forecast of "+j.targetName(), 2, n)
	}
	h := len(pl.Forecast)
	end := pl.Forecast[h-1]
	unit := pl.Granularity
	expl := fmt.Sprintf("Projected %s for the next %d %s periods (%s): %s by %s, %s versus the last observed %s. The 95%% band at the horizon is %s to %s. In-sample MAE %s, MAPE %s%%.",
		pl.Column, h, unit, pl.Method, fmtNum(end), pl.ForecastLabels[h-1], fmtPct(pl.Change),
		fmtNum(pl.History[len(pl.History)-1]), fmtNum(pl.Lower[h-1]), fmtNum(pl.Upper[h-1]), fmtNum(pl.MAE), fmtNum(pl.MAPE))
	return Result{
		Headline:    ptr(end),
		Explanation: expl,
		Hint:        HintLine,
		Title:       fmt.Sprintf("%s forecast", pl.Column),
		Payload:     pl,
	}
}
