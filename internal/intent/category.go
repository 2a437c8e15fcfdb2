package intent

import "strings"

// Category is the closed set of question kinds the engine can answer.
type Category string

const (
	Unknown      Category = "unknown"
	Aggregation  Category = "aggregation"
	Ranking      Category = "ranking"
	Trend        Category = "trend"
	Comparison   Category = "comparison"
	Statistics   Category = "statistics"
	Diagnostic   Category = "diagnostic"
	Predictive   Category = "predictive"
	Prescriptive Category = "prescriptive"
	Distribution Category = "distribution"
	Correlation  Category = "correlation"
	Segmentation Category = "segmentation"
	Anomaly      Category = "anomaly"
)

// Categories lists every known category in catalog declaration order.
var Categories = []Category{
	Aggregation, Ranking, Trend, Comparison, Statistics, Diagnostic,
	Predictive, Prescriptive, Distribution, Correlation, Segmentation, Anomaly,
}

// ParseCategory maps a name (including a few legacy aliases) to a Category.
func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "trend_analysis":
		return Trend, true
	case "anomaly_detection":
		return Anomaly, true
	case "forecast", "forecasting":
		return Predictive, true
	case "recommendation":
		return Prescriptive, true
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return Unknown, false
}

// Intent is the classified purpose of one utterance.
type Intent struct {
	Category Category `json:"category"`
	// Confidence is Score rescaled to [0,1].
	Confidence float64 `json:"confidence"`
	// Score is the raw similarity on a 0-100 scale.
	Score  float64 `json:"score"`
	Phrase string  `json:"phrase,omitempty"`
}

// Matched reports whether the intent names a real category.
func (i Intent) Matched() bool { return i.Category != Unknown && i.Category != "" }
