package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/svngo/internal/conflict"
)

func TestParseOption_KnownValues(t *testing.T) {
	cases := map[string]conflict.Option{
		"postpone":                conflict.OptionPostpone,
		"base":                    conflict.OptionBase,
		"theirs-full":             conflict.OptionIncoming,
		"incoming":                conflict.OptionIncoming,
		"mine-full":               conflict.OptionWorking,
		"working":                 conflict.OptionWorking,
		"theirs-conflict":         conflict.OptionIncomingWhereConflicted,
		"mine-conflict":           conflict.OptionWorkingWhereConflicted,
		"merged":                  conflict.OptionMerged,
		"working-state":           conflict.OptionAcceptCurrentWCState,
		"accept-current-wc-state": conflict.OptionAcceptCurrentWCState,
	}

	for input, want := range cases {
		got, err := parseOption(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got, input)
	}
}

func TestParseOption_Unknown(t *testing.T) {
	_, err := parseOption("not-a-real-option")
	assert.Error(t, err)
}
