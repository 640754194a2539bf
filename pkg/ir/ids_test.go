package ir

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Target id determinism: the id is a function of the tuple alone.
func TestTargetID_Deterministic(t *testing.T) {
	a := TargetID("LoginPage", "emailInput", "css", "#email")
	b := TargetID("LoginPage", "emailInput", "css", "#email")
	assert.Equal(t, a, b)
}

func TestTargetID_Format(t *testing.T) {
	id := TargetID("LoginPage", "emailInput", "css", "#email")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{12}$`), id)
}

func TestTargetID_SensitiveToEveryTupleField(t *testing.T) {
	base := TargetID("LoginPage", "emailInput", "css", "#email")
	assert.NotEqual(t, base, TargetID("HomePage", "emailInput", "css", "#email"))
	assert.NotEqual(t, base, TargetID("LoginPage", "otherInput", "css", "#email"))
	assert.NotEqual(t, base, TargetID("LoginPage", "emailInput", "xpath", "#email"))
	assert.NotEqual(t, base, TargetID("LoginPage", "emailInput", "css", "#mail"))
}

func TestTargetID_NoConcatenationCollision(t *testing.T) {
	assert.NotEqual(t,
		TargetID("ab", "c", "css", "#x"),
		TargetID("a", "bc", "css", "#x"))
}

func TestStepID_Format(t *testing.T) {
	assert.Equal(t, "STEP_01", StepID(1))
	assert.Equal(t, "STEP_09", StepID(9))
	assert.Equal(t, "STEP_42", StepID(42))
	assert.Equal(t, "STEP_99", StepID(99))
	assert.Equal(t, "STEP_100", StepID(100))
}

func TestAssertID_Format(t *testing.T) {
	assert.Equal(t, "ASSERT_01", AssertID(1))
	assert.Equal(t, "ASSERT_100", AssertID(100))
}

func TestDocumentIDs_Stable(t *testing.T) {
	assert.Equal(t, TestID("LoginTest", "testLogin"), TestID("LoginTest", "testLogin"))
	assert.Equal(t, SuiteID("LoginTest"), SuiteID("LoginTest"))
	assert.NotEqual(t, SuiteID("LoginTest"), SuiteID("HomeTest"))
	assert.Regexp(t, `^suite_[0-9a-f]{12}$`, SuiteID("LoginTest"))
	assert.Regexp(t, `^test_[0-9a-f]{12}$`, TestID("LoginTest", "testLogin"))
	assert.Regexp(t, `^data_[0-9a-f]{12}$`, DataSetID("loginData"))
}
