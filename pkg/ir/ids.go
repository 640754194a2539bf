package ir

import (
	"fmt"

	"github.com/gnana997/testbridge/pkg/util"
)

// Deterministic id discipline: every id is a pure function of stable
// source-level facts, so re-running the pipeline — on any machine — yields
// byte-identical IR.

// TargetID derives a target's id from the tuple that identifies it:
// (page, name, strategy, locator value). 12 lowercase hex characters
// truncated from a 64-bit stable hash.
func TargetID(page, name, strategy, value string) string {
	return util.DeterministicIDParts(page, name, strategy, value)
}

// StepID formats the stable per-test step ordinal: STEP_01, STEP_02, ...
// (three digits once past 99).
func StepID(ordinal int) string {
	return fmt.Sprintf("STEP_%02d", ordinal)
}

// AssertID formats the stable per-test assertion ordinal.
func AssertID(ordinal int) string {
	return fmt.Sprintf("ASSERT_%02d", ordinal)
}

// TestID derives a test's id from its qualified name.
func TestID(suite, name string) string {
	return "test_" + util.DeterministicIDParts("test", suite, name)
}

// SuiteID derives a suite's id from its name.
func SuiteID(name string) string {
	return "suite_" + util.DeterministicIDParts("suite", name)
}

// DataSetID derives a data set's id from its name.
func DataSetID(name string) string {
	return "data_" + util.DeterministicIDParts("data", name)
}
