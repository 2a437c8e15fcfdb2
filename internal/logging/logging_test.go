package logging

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 678_900_000, time.FixedZone("x", 3600))
	assert.Equal(t, "2025-01-02T02:04:05.678Z", formatRFC3339Millis(ts))
}

func TestNewLevels(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&buf, true).Debug("shown", "empty", "", "rows", 3)
	out := buf.String()
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "rows")
	assert.NotContains(t, out, "empty")
}
