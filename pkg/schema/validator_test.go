package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/testbridge/pkg/ir"
)

func validProject() ir.Project {
	return ir.Project{
		IRVersion:           ir.IRVersion,
		ProjectName:         "demo",
		SourceFramework:     "selenium-java",
		TargetFramework:     "playwright",
		ArchitecturePattern: "page-object-model",
		SupportsParallel:    true,
		CreatedOn:           "2025-06-01T00:00:00Z",
	}
}

func TestValidate_Project(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(KindProject, validProject()))
}

func TestValidate_ProjectMissingName(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	p := validProject()
	p.ProjectName = ""
	err = v.Validate(KindProject, p)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestValidate_Targets(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	targets := []ir.Target{{
		TargetID: ir.TargetID("LoginPage", "emailInput", "css", "#email"),
		Type:     "element",
		Context:  ir.TargetContext{Page: "LoginPage"},
		Semantic: ir.TargetSemantic{Role: "textbox", BusinessName: "Email Input"},
		SelectorStrategies: []ir.SelectorStrategy{
			{Strategy: "css", Value: "#email", StabilityScore: 0.95},
		},
		PreferredStrategy: "css",
	}}
	assert.NoError(t, v.Validate(KindTargets, targets))
}

func TestValidate_TargetsRejectsOutOfRangeScore(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	targets := []ir.Target{{
		TargetID: "abcdefabcdef",
		Type:     "element",
		SelectorStrategies: []ir.SelectorStrategy{
			{Strategy: "css", Value: "#email", StabilityScore: 1.5},
		},
		PreferredStrategy: "css",
	}}
	err = v.Validate(KindTargets, targets)
	require.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestValidate_TargetsRejectsMalformedID(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	targets := []ir.Target{{
		TargetID: "not-a-hash",
		Type:     "element",
		SelectorStrategies: []ir.SelectorStrategy{
			{Strategy: "css", Value: "#email", StabilityScore: 0.95},
		},
		PreferredStrategy: "css",
	}}
	assert.Error(t, v.Validate(KindTargets, targets))
}

func TestValidate_Test(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	targetID := ir.TargetID("LoginPage", "emailInput", "css", "#email")
	test := ir.Test{
		TestID:   ir.TestID("LoginTest", "testLogin"),
		Name:     "testLogin",
		SuiteID:  ir.SuiteID("LoginTest"),
		Priority: "medium",
		Severity: "normal",
		Steps: []ir.Step{
			{StepID: "STEP_01", Action: "click", TargetID: &targetID},
			{StepID: "STEP_02", Action: "navigate", TargetID: nil,
				Target: &ir.StepTarget{URL: "https://example.com"}},
		},
		Assertions: []ir.Assertion{{
			AssertID: "ASSERT_01",
			Type:     "assertEquals",
			Actual:   ir.DataSource{Source: "ui", TargetID: &targetID},
			Expected: &ir.DataSource{Source: "constant", Value: "hello"},
		}},
	}
	assert.NoError(t, v.Validate(KindTest, test))
}

func TestValidate_TestRejectsBadStepID(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	test := ir.Test{
		TestID:     "test_abc",
		Name:       "t",
		SuiteID:    "suite_abc",
		Priority:   "medium",
		Severity:   "normal",
		Steps:      []ir.Step{{StepID: "step-1", Action: "click"}},
		Assertions: []ir.Assertion{},
	}
	assert.Error(t, v.Validate(KindTest, test))
}

func TestValidate_UnknownKind(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.Validate("mystery", map[string]any{})
	require.Error(t, err)
}
