package analytics

import (
	"errors"
	"fmt"
)

// ErrEmptyDataset is returned when the dataset has no rows.
var ErrEmptyDataset = errors.New("dataset is empty")

// InsufficientDataError reports an engine that needs more data points than
// the dataset provides.
type InsufficientDataError struct {
	What string
	Need int
	Have int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %s needs at least %d, found %d", e.What, e.Need, e.Have)
}

// UnsatisfiableError reports a question the schema cannot answer, such as a
// trend over a dataset without a time column.
type UnsatisfiableError struct {
	Reason string
}

func (e *UnsatisfiableError) Error() string { return "unsatisfiable: " + e.Reason }
