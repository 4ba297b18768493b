package batch

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgemma/subtrans/internal/document"
)

func makeUnits(n int) []document.Unit {
	units := make([]document.Unit, n)
	for i := range units {
		units[i] = document.Unit{Index: i + 1, Text: fmt.Sprintf("line %d", i+1)}
	}
	return units
}

func TestSplit_MaxUnits(t *testing.T) {
	t.Parallel()

	units := makeUnits(7)
	batches := Split(units, 3, 0)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0].Units, 3)
	assert.Len(t, batches[1].Units, 3)
	assert.Len(t, batches[2].Units, 1)
	assert.Equal(t, 0, batches[0].Start)
	assert.Equal(t, 3, batches[1].Start)
	assert.Equal(t, 6, batches[2].Start)
}

func TestSplit_FlattenIsLossless(t *testing.T) {
	t.Parallel()

	units := makeUnits(23)
	for _, maxUnits := range []int{1, 2, 5, 23, 100} {
		for _, maxChars := range []int{0, 10, 50} {
			batches := Split(units, maxUnits, maxChars)
			assert.Equal(t, units, Flatten(batches),
				"maxUnits=%d maxChars=%d", maxUnits, maxChars)
		}
	}
}

func TestSplit_CharBudget(t *testing.T) {
	t.Parallel()

	units := []document.Unit{
		{Index: 1, Text: "aaaa"},
		{Index: 2, Text: "bbbb"},
		{Index: 3, Text: "cc"},
	}
	batches := Split(units, 10, 6)
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Units, 1)
	assert.Len(t, batches[1].Units, 2)
}

func TestSplit_OversizedUnitGetsOwnBatch(t *testing.T) {
	t.Parallel()

	units := []document.Unit{
		{Index: 1, Text: "short"},
		{Index: 2, Text: "this single unit is far beyond the character budget"},
		{Index: 3, Text: "tail"},
	}
	batches := Split(units, 10, 8)
	require.Len(t, batches, 3)
	assert.Equal(t, "short", batches[0].Units[0].Text)
	require.Len(t, batches[1].Units, 1)
	assert.Equal(t, units[1].Text, batches[1].Units[0].Text)
	assert.Equal(t, "tail", batches[2].Units[0].Text)
}

func TestSplit_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Split(nil, 5, 0))
}
