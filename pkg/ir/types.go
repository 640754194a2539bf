// Package ir defines the typed, JSON-serializable Intermediate
// Representation documents produced by the pipeline.
//
// Documents are built once by pkg/ir/irbuild, validated, and then only
// read: the writer serializes them and the MCP server queries them.
// Builders deep-copy their inputs so no raw extraction state leaks into a
// bundle.
package ir

import "github.com/gnana997/testbridge/pkg/extract"

// IRVersion is the version tag stamped into every generated project.
const IRVersion = "1.0"

// Project is the top-level project document.
type Project struct {
	IRVersion           string `json:"irVersion"`
	ProjectName         string `json:"projectName"`
	SourceFramework     string `json:"sourceFramework"`
	TargetFramework     string `json:"targetFramework"`
	ArchitecturePattern string `json:"architecturePattern"`
	SupportsParallel    bool   `json:"supportsParallel"`
	CreatedOn           string `json:"createdOn"`
}

// Timeouts holds the environment timeouts in milliseconds.
type Timeouts struct {
	Implicit int `json:"implicit"`
	Explicit int `json:"explicit"`
	PageLoad int `json:"pageLoad"`
}

// RetryPolicy configures test retry behavior.
type RetryPolicy struct {
	Enabled    bool `json:"enabled"`
	MaxRetries int  `json:"maxRetries"`
}

// Environment is the execution-environment document.
type Environment struct {
	BaseURLs      map[string]string `json:"baseUrls"`
	ExecutionMode string            `json:"executionMode"`
	Browsers      []string          `json:"browsers"`
	Timeouts      Timeouts          `json:"timeouts"`
	RetryPolicy   RetryPolicy       `json:"retryPolicy"`
}

// SelectorStrategy is one way of locating a target, scored for stability.
type SelectorStrategy struct {
	Strategy       string  `json:"strategy"`
	Value          string  `json:"value"`
	StabilityScore float64 `json:"stabilityScore"`
}

// TargetContext places a target on a page, component or frame.
type TargetContext struct {
	Page      string `json:"page,omitempty"`
	Component string `json:"component,omitempty"`
	Frame     string `json:"frame,omitempty"`
}

// TargetSemantic carries the human meaning of a target.
type TargetSemantic struct {
	Role         string `json:"role,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
}

// Target is one entry in the central target repository.
type Target struct {
	TargetID           string             `json:"targetId"`
	Type               string             `json:"type"`
	Context            TargetContext      `json:"context"`
	Semantic           TargetSemantic     `json:"semantic"`
	SelectorStrategies []SelectorStrategy `json:"selectorStrategies"`
	PreferredStrategy  string             `json:"preferredStrategy"`
}

// TestData is one named data set.
type TestData struct {
	DataSetID string           `json:"dataSetId"`
	Type      string           `json:"type"`
	Records   []map[string]any `json:"records"`
}

// Suite groups tests.
type Suite struct {
	SuiteID     string   `json:"suiteId"`
	Description string   `json:"description"`
	Tests       []string `json:"tests"`
}

// StepTarget inlines a resolved url/selector for steps that carry one
// directly (e.g. navigate).
type StepTarget struct {
	URL      string `json:"url,omitempty"`
	Selector string `json:"selector,omitempty"`
}

// StepInput describes where a step's input value comes from.
type StepInput struct {
	Source string `json:"source"`
	Field  string `json:"field,omitempty"`
	Masked bool   `json:"masked,omitempty"`
}

// Step is one action inside a test. TargetID is nil when the source
// referenced no resolvable UI target.
type Step struct {
	StepID     string         `json:"stepId"`
	Action     string         `json:"action"`
	TargetID   *string        `json:"targetId"`
	Target     *StepTarget    `json:"target,omitempty"`
	Input      *StepInput     `json:"input,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// DataSource is one assertion operand.
type DataSource struct {
	Source   string  `json:"source"` // ui | data | constant | expression
	Field    string  `json:"field,omitempty"`
	TargetID *string `json:"targetId,omitempty"`
	Value    any     `json:"value,omitempty"`
	Masked   bool    `json:"masked,omitempty"`
}

// Assertion is one assertion inside a test. Expected is nil for unary
// assertions (assertTrue, assertNotNull, ...).
type Assertion struct {
	AssertID string      `json:"assertId"`
	Type     string      `json:"type"`
	Actual   DataSource  `json:"actual"`
	Expected *DataSource `json:"expected,omitempty"`
}

// DataBinding connects a test to a data set.
type DataBinding struct {
	DataSetID         string `json:"dataSetId"`
	IterationStrategy string `json:"iterationStrategy"`
}

// Test is one test document.
type Test struct {
	TestID      string       `json:"testId"`
	Name        string       `json:"name"`
	SuiteID     string       `json:"suiteId"`
	Priority    string       `json:"priority"`
	Severity    string       `json:"severity"`
	DataBinding *DataBinding `json:"dataBinding,omitempty"`
	Steps       []Step       `json:"steps"`
	Assertions  []Assertion  `json:"assertions"`
	Tags        []string     `json:"tags,omitempty"`
}

// Bundle is the complete IR for one project plus the diagnostics
// accumulated while producing it. A bundle is either fully built and
// validated, or it does not exist — the pipeline never emits partial IR.
type Bundle struct {
	Project     Project              `json:"project"`
	Environment Environment          `json:"environment"`
	Targets     []Target             `json:"targets"`
	Suites      []Suite              `json:"suites"`
	Tests       []Test               `json:"tests"`
	Data        []TestData           `json:"data"`
	Diagnostics []extract.Diagnostic `json:"diagnostics,omitempty"`
}

// TargetByID returns a target from the repository.
func (b *Bundle) TargetByID(id string) (Target, bool) {
	for _, t := range b.Targets {
		if t.TargetID == id {
			return t, true
		}
	}
	return Target{}, false
}

// TestByID returns a test document.
func (b *Bundle) TestByID(id string) (Test, bool) {
	for _, t := range b.Tests {
		if t.TestID == id {
			return t, true
		}
	}
	return Test{}, false
}

// SuiteByID returns a suite document.
func (b *Bundle) SuiteByID(id string) (Suite, bool) {
	for _, s := range b.Suites {
		if s.SuiteID == id {
			return s, true
		}
	}
	return Suite{}, false
}
