package resolver

import (
	"math"
	"strings"

	"github.com/KaramelBytes/queryloom/internal/ai"
	"github.com/KaramelBytes/queryloom/internal/analytics"
	"github.com/KaramelBytes/queryloom/internal/chart"
	"github.com/KaramelBytes/queryloom/internal/intent"
)

// Assemble merges an engine result, the intent that selected it and its
// chart into a local response. A result without a headline answers with
// confidence 0.
func Assemble(res analytics.Result, in intent.Intent, d chart.Descriptor) Response {
	conf := clamp(in.Confidence)
	if res.Failed() {
		conf = 0
	}
	resp := Response{
		AnswerText: strings.TrimSpace(res.Explanation),
		Confidence: conf,
		Chart:      &d,
		Source:     SourceLocal,
		Intent:     &in,
	}
	if res.Err != nil {
		resp.Cause = res.Err
	}
	return resp
}

// assembleExternal converts a reasoning service reply. The reported
// confidence is clamped and the chart goes through the same length rules
// as local charts.
func assembleExternal(reply ai.Reply) Response {
	d := chart.Empty("")
	if c := reply.Chart; c != nil {
		d = chart.Build(chart.ParseKind(strings.ToLower(strings.TrimSpace(c.Kind))), c.Title, c.Categories, c.Series)
	}
	return Response{
		AnswerText: strings.TrimSpace(reply.AnswerText),
		Confidence: clamp(reply.Confidence),
		Chart:      &d,
		Source:     SourceExternal,
	}
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
