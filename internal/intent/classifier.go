package intent

import "strings"

// Classifier maps utterances to categories through a PatternCatalog.
type Classifier struct {
	catalog   PatternCatalog
	threshold float64
}

// NewClassifier returns a classifier that accepts matches scoring strictly
// above threshold (0-100). A non-positive threshold selects DefaultFloor.
func NewClassifier(catalog PatternCatalog, threshold float64) *Classifier {
	if threshold <= 0 || threshold >= 100 {
		threshold = DefaultFloor
	}
	return &Classifier{catalog: catalog, threshold: threshold}
}

// Threshold is the acceptance score.
func (c *Classifier) Threshold() float64 { return c.threshold }

// Classify returns the category of the closest template, or Unknown with
// zero confidence when the utterance is blank or nothing clears the
// threshold.
func (c *Classifier) Classify(utterance string, recent []Category) Intent {
	if strings.TrimSpace(utterance) == "" {
		return Intent{Category: Unknown}
	}
	m, ok := c.catalog.BestMatch(utterance, recent)
	if !ok || m.Score <= c.threshold {
		return Intent{Category: Unknown, Score: m.Score}
	}
	return Intent{
		Category:   m.Template.Category,
		Confidence: m.Score / 100,
		Score:      m.Score,
		Phrase:     m.Template.Phrase,
	}
}
