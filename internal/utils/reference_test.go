package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReferenceNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		ref, err := NewReferenceNumber()
		require.NoError(t, err)
		assert.Len(t, ref, ReferenceLength)
		for _, r := range ref {
			assert.Contains(t, referenceAlphabet, string(r))
		}
		// The alphabet excludes the characters that read ambiguously
		// when printed on a badge.
		assert.NotContains(t, ref, "0")
		assert.NotContains(t, ref, "O")
		assert.NotContains(t, ref, "1")
		assert.NotContains(t, ref, "I")
		seen[ref] = true
	}
	// With a 32-character alphabet over 12 positions, 200 draws never
	// collide in practice.
	assert.Len(t, seen, 200)
}

func TestNewNumericCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := NewNumericCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "unexpected rune %q in %q", r, code)
		}
	}
}

func TestReferenceNumbersAreUpperCase(t *testing.T) {
	ref, err := NewReferenceNumber()
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(ref), ref)
}
