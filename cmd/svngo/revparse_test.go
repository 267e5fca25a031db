package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/svngo/internal/revision"
)

func TestParseRevision_Keywords(t *testing.T) {
	cases := map[string]revision.Selector{
		"":          revision.Unspecified,
		"HEAD":      revision.Head,
		"BASE":      revision.Base,
		"COMMITTED": revision.Committed,
		"PREV":      revision.Previous,
		"WORKING":   revision.Working,
	}

	for input, want := range cases {
		got, err := parseRevision(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseRevision_Number(t *testing.T) {
	got, err := parseRevision("42")
	require.NoError(t, err)
	assert.Equal(t, revision.OfNumber(42), got)
}

func TestParseRevision_Invalid(t *testing.T) {
	_, err := parseRevision("yesterday")
	assert.Error(t, err)
}
