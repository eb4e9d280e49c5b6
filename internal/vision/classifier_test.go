package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeverityJSON(t *testing.T) {
	got := parseSeverity(`{"severity": 7}`)
	require.NotNil(t, got)
	assert.Equal(t, 7, *got)
}

func TestParseSeverityFencedJSON(t *testing.T) {
	got := parseSeverity("```json\n{\"severity\": 4}\n```")
	require.NotNil(t, got)
	assert.Equal(t, 4, *got)
}

func TestParseSeverityDigitFallback(t *testing.T) {
	got := parseSeverity("The severity is 8 out of 10.")
	require.NotNil(t, got)
	// All digits in the text concatenate; callers validate range.
	assert.Equal(t, 810, *got)

	got = parseSeverity("severity: 6")
	require.NotNil(t, got)
	assert.Equal(t, 6, *got)
}

func TestParseSeverityNoDigits(t *testing.T) {
	assert.Nil(t, parseSeverity("unable to determine"))
	assert.Nil(t, parseSeverity(""))
}
