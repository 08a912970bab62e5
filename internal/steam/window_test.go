package steam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowTrimKeepsAnchor(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	w := &window{}
	w.add(base, 1.80)
	w.add(base.Add(2*time.Minute), 1.78)
	w.add(base.Add(20*time.Minute), 1.70)

	w.trim(base.Add(10 * time.Minute))

	// The newest pre-cutoff sample stays as the baseline.
	require.Equal(t, 2, w.len())
	oldest, ok := w.oldest()
	require.True(t, ok)
	assert.Equal(t, 1.78, oldest.price)
	assert.Equal(t, base.Add(2*time.Minute), oldest.at)
}

func TestWindowTrimAllAgedOutKeepsNewest(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	w := &window{}
	w.add(base, 1.80)
	w.add(base.Add(time.Minute), 1.75)

	w.trim(base.Add(time.Hour))

	require.Equal(t, 1, w.len())
	newest, ok := w.newest()
	require.True(t, ok)
	assert.Equal(t, 1.75, newest.price)
}

func TestWindowTrimNoopWhenAllInRange(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	w := &window{}
	w.add(base, 1.80)
	w.add(base.Add(time.Minute), 1.75)

	w.trim(base.Add(-time.Minute))
	assert.Equal(t, 2, w.len())
}
