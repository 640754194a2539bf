package util

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicID_StableAndWellFormed(t *testing.T) {
	a := DeterministicID("LoginPage::emailInput")
	b := DeterministicID("LoginPage::emailInput")
	assert.Equal(t, a, b)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}$`), a)
}

func TestDeterministicID_DifferentInputs(t *testing.T) {
	assert.NotEqual(t, DeterministicID("a"), DeterministicID("b"))
}

func TestDeterministicIDParts_SeparatorSafety(t *testing.T) {
	assert.NotEqual(t,
		DeterministicIDParts("ab", "c"),
		DeterministicIDParts("a", "bc"))
}

func TestHash64_Deterministic(t *testing.T) {
	assert.Equal(t, Hash64("payload"), Hash64("payload"))
}
