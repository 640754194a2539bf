// Package irbuild assembles typed IR documents from raw extraction records
// and resolves every symbolic target reference against the central target
// repository.
//
// Construction order is load-bearing: project → targets → name→id map →
// suites and data → tests. The name→id map must exist before any step is
// linked.
package irbuild

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gnana997/testbridge/pkg/extract"
	"github.com/gnana997/testbridge/pkg/ir"
)

// stabilityScores assigns a default stability score per selector strategy.
// Ids are the most stable handle a page offers; tag names barely identify
// anything. All values lie in [0,1].
var stabilityScores = map[string]float64{
	"id":              0.98,
	"css":             0.95,
	"name":            0.90,
	"className":       0.85,
	"xpath":           0.80,
	"linkText":        0.75,
	"partialLinkText": 0.70,
	"tagName":         0.60,
}

// roleBySuffix maps the conventional field-name suffix to an ARIA-ish role.
var roleBySuffix = []struct {
	suffix string
	role   string
}{
	{"Button", "button"},
	{"Input", "textbox"},
	{"Select", "combobox"},
	{"Checkbox", "checkbox"},
	{"Link", "link"},
	{"Label", "text"},
}

// Config is the typed configuration stage F builds from. The pipeline
// populates it from the project config file.
type Config struct {
	ProjectName         string
	SourceFramework     string
	TargetFramework     string
	ArchitecturePattern string
	SupportsParallel    bool
	CreatedOn           string
	Environment         ir.Environment
	DataSets            []ir.TestData
	// DataBindings maps a test name to the data set it iterates over.
	DataBindings map[string]string
}

// Builder builds and links IR bundles.
type Builder struct {
	logger *slog.Logger

	// targetID is a seam for tests exercising the collision guard; it is
	// ir.TargetID in production.
	targetID func(page, name, strategy, value string) string
}

// New creates a builder.
func New(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, targetID: ir.TargetID}
}

// Build assembles the full bundle for one project.
//
// files must already be in deterministic order (the pipeline sorts them by
// path). A raw step with an unresolvable target is not an error — the step
// is emitted with a null targetId and a warning. A test referencing an
// unknown suite or data set is fatal.
func (b *Builder) Build(cfg Config, files []extract.FileResult) (*ir.Bundle, error) {
	if cfg.ProjectName == "" {
		return nil, &ir.ConfigError{Project: cfg.ProjectName, Msg: "projectName is required"}
	}

	bundle := &ir.Bundle{
		Project: ir.Project{
			IRVersion:           ir.IRVersion,
			ProjectName:         cfg.ProjectName,
			SourceFramework:     cfg.SourceFramework,
			TargetFramework:     cfg.TargetFramework,
			ArchitecturePattern: cfg.ArchitecturePattern,
			SupportsParallel:    cfg.SupportsParallel,
			CreatedOn:           cfg.CreatedOn,
		},
		Environment: cfg.Environment,
	}

	for _, f := range files {
		bundle.Diagnostics = append(bundle.Diagnostics, f.Diagnostics...)
	}

	targets, nameToID, err := b.buildTargets(files)
	if err != nil {
		return nil, err
	}
	bundle.Targets = targets

	suites, suiteIDByName := b.buildSuites(files)
	bundle.Suites = suites

	data, dataIDByName, err := b.buildData(cfg)
	if err != nil {
		return nil, err
	}
	bundle.Data = data

	tests, linkDiags, err := b.buildTests(cfg, files, nameToID, suiteIDByName, dataIDByName)
	if err != nil {
		return nil, err
	}
	bundle.Tests = tests
	bundle.Diagnostics = append(bundle.Diagnostics, linkDiags...)

	b.logger.Info("IR build completed",
		"project", cfg.ProjectName,
		"targets", len(bundle.Targets),
		"suites", len(bundle.Suites),
		"tests", len(bundle.Tests),
		"diagnostics", len(bundle.Diagnostics))

	return bundle, nil
}

// ---------------------------------------------------------------------------
// Targets
// ---------------------------------------------------------------------------

// buildTargets normalizes raw targets across all files into the
// de-duplicated central repository, sorted by (page, name), and builds the
// name→id map used to resolve step targets.
func (b *Builder) buildTargets(files []extract.FileResult) ([]ir.Target, map[string]string, error) {
	type key struct{ page, name string }

	seen := make(map[key]extract.RawTarget)
	var order []key
	for _, f := range files {
		for _, rt := range f.Targets {
			k := key{rt.Page, rt.Name}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = rt
			order = append(order, k)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].page != order[j].page {
			return order[i].page < order[j].page
		}
		return order[i].name < order[j].name
	})

	targets := make([]ir.Target, 0, len(order))
	nameToID := make(map[string]string)
	tupleByID := make(map[string]string)

	for _, k := range order {
		rt := seen[k]
		id := b.targetID(rt.Page, rt.Name, rt.Strategy, rt.Value)
		tuple := strings.Join([]string{rt.Page, rt.Name, rt.Strategy, rt.Value}, "/")
		if prev, ok := tupleByID[id]; ok {
			return nil, nil, &ir.IDCollisionError{ID: id, First: prev, Second: tuple}
		}
		tupleByID[id] = tuple

		targets = append(targets, ir.Target{
			TargetID: id,
			Type:     "element",
			Context:  ir.TargetContext{Page: rt.Page},
			Semantic: ir.TargetSemantic{
				Role:         roleForName(rt.Name),
				BusinessName: businessName(rt.Name),
			},
			SelectorStrategies: []ir.SelectorStrategy{{
				Strategy:       rt.Strategy,
				Value:          rt.Value,
				StabilityScore: stabilityScore(rt.Strategy),
			}},
			PreferredStrategy: rt.Strategy,
		})

		// First declaration wins when the same symbolic name appears on
		// several pages; the ordering above makes the winner stable.
		if _, ok := nameToID[rt.Name]; !ok {
			nameToID[rt.Name] = id
		}
	}

	return targets, nameToID, nil
}

func stabilityScore(strategy string) float64 {
	if score, ok := stabilityScores[strategy]; ok {
		return score
	}
	return 0.50
}

func roleForName(name string) string {
	for _, r := range roleBySuffix {
		if strings.HasSuffix(name, r.suffix) {
			return r.role
		}
	}
	return ""
}

// businessName renders a camelCase field name as words:
// "loginButton" → "Login Button".
func businessName(name string) string {
	if name == "" {
		return ""
	}
	var words []string
	start := 0
	for i := 1; i < len(name); i++ {
		if name[i] >= 'A' && name[i] <= 'Z' {
			words = append(words, name[start:i])
			start = i
		}
	}
	words = append(words, name[start:])
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ---------------------------------------------------------------------------
// Suites and data
// ---------------------------------------------------------------------------

// buildSuites merges raw suites by name across files and assigns ids.
func (b *Builder) buildSuites(files []extract.FileResult) ([]ir.Suite, map[string]string) {
	type suiteAcc struct {
		description string
		tests       []string
	}

	accs := make(map[string]*suiteAcc)
	var names []string
	for _, f := range files {
		for _, rs := range f.Suites {
			acc, ok := accs[rs.Name]
			if !ok {
				acc = &suiteAcc{description: rs.Description}
				accs[rs.Name] = acc
				names = append(names, rs.Name)
			}
			for _, testName := range rs.Tests {
				acc.tests = append(acc.tests, ir.TestID(rs.Name, testName))
			}
		}
	}
	sort.Strings(names)

	suites := make([]ir.Suite, 0, len(names))
	idByName := make(map[string]string, len(names))
	for _, name := range names {
		id := ir.SuiteID(name)
		idByName[name] = id
		suites = append(suites, ir.Suite{
			SuiteID:     id,
			Description: accs[name].description,
			Tests:       accs[name].tests,
		})
	}
	return suites, idByName
}

// buildData validates the configured data sets and indexes them by id and
// by declared id (the config references them by dataSetId).
func (b *Builder) buildData(cfg Config) ([]ir.TestData, map[string]string, error) {
	idByName := make(map[string]string, len(cfg.DataSets))
	data := make([]ir.TestData, 0, len(cfg.DataSets))
	for i, ds := range cfg.DataSets {
		if ds.DataSetID == "" {
			return nil, nil, &ir.ConfigError{
				Project: cfg.ProjectName,
				Msg:     fmt.Sprintf("dataSets[%d]: dataSetId is required", i),
			}
		}
		idByName[ds.DataSetID] = ds.DataSetID
		data = append(data, deepCopyData(ds))
	}
	sort.Slice(data, func(i, j int) bool { return data[i].DataSetID < data[j].DataSetID })
	return data, idByName, nil
}

func deepCopyData(ds ir.TestData) ir.TestData {
	out := ir.TestData{DataSetID: ds.DataSetID, Type: ds.Type}
	for _, rec := range ds.Records {
		cp := make(map[string]any, len(rec))
		for k, v := range rec {
			cp[k] = v
		}
		out.Records = append(out.Records, cp)
	}
	return out
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func (b *Builder) buildTests(
	cfg Config,
	files []extract.FileResult,
	nameToID map[string]string,
	suiteIDByName map[string]string,
	dataIDByName map[string]string,
) ([]ir.Test, []extract.Diagnostic, error) {
	var tests []ir.Test
	var diags []extract.Diagnostic

	for _, f := range files {
		for _, rt := range f.Tests {
			suiteID, ok := suiteIDByName[rt.SuiteHint]
			if !ok {
				return nil, nil, &ir.ReferenceError{
					Project: cfg.ProjectName,
					Kind:    "suite",
					Ref:     rt.SuiteHint,
					Source:  rt.Name,
				}
			}

			test := ir.Test{
				TestID:   ir.TestID(rt.SuiteHint, rt.Name),
				Name:     rt.Name,
				SuiteID:  suiteID,
				Priority: "medium",
				Severity: "normal",
				Tags:     append([]string(nil), rt.Tags...),
			}

			if dataSet, bound := cfg.DataBindings[rt.Name]; bound {
				dataSetID, ok := dataIDByName[dataSet]
				if !ok {
					return nil, nil, &ir.ReferenceError{
						Project: cfg.ProjectName,
						Kind:    "dataSet",
						Ref:     dataSet,
						Source:  rt.Name,
					}
				}
				test.DataBinding = &ir.DataBinding{
					DataSetID:         dataSetID,
					IterationStrategy: "sequential",
				}
			}

			stepOrdinal, assertOrdinal := 0, 0
			for _, raw := range rt.Steps {
				switch raw.Kind {
				case extract.StepKindAction:
					stepOrdinal++
					step, diag := b.buildStep(raw, stepOrdinal, nameToID, f.FilePath)
					test.Steps = append(test.Steps, step)
					if diag != nil {
						diags = append(diags, *diag)
					}
				case extract.StepKindAssertion:
					assertOrdinal++
					assertion, opDiags := b.buildAssertion(raw, assertOrdinal, nameToID, f.FilePath)
					test.Assertions = append(test.Assertions, assertion)
					diags = append(diags, opDiags...)
				}
			}

			// Serialized shape stays stable whether or not a test has steps.
			if test.Steps == nil {
				test.Steps = []ir.Step{}
			}
			if test.Assertions == nil {
				test.Assertions = []ir.Assertion{}
			}
			tests = append(tests, test)
		}
	}

	return tests, diags, nil
}

// buildStep types one raw action step and resolves its target id. An
// unresolvable symbolic name leaves targetId null and produces a warning.
func (b *Builder) buildStep(raw extract.RawStep, ordinal int, nameToID map[string]string, filePath string) (ir.Step, *extract.Diagnostic) {
	step := ir.Step{
		StepID:     ir.StepID(ordinal),
		Action:     raw.Name,
		Parameters: copyParameters(raw.Parameters),
	}

	if raw.Name == "navigate" {
		if url, ok := step.Parameters["value"].(string); ok {
			step.Target = &ir.StepTarget{URL: url}
		}
	}

	var diag *extract.Diagnostic
	if raw.TargetNameID != "" {
		if id, ok := nameToID[raw.TargetNameID]; ok {
			step.TargetID = &id
		} else {
			diag = &extract.Diagnostic{
				Severity: "warning",
				Code:     extract.DiagUnresolvedTarget,
				Message:  fmt.Sprintf("step %s references unknown target %q", step.StepID, raw.TargetNameID),
				FilePath: filePath,
				NodeID:   raw.TargetNodeID,
			}
		}
	}
	return step, diag
}

// buildAssertion types one raw assertion and resolves the target ids of
// its ui operands.
func (b *Builder) buildAssertion(raw extract.RawStep, ordinal int, nameToID map[string]string, filePath string) (ir.Assertion, []extract.Diagnostic) {
	assertion := ir.Assertion{
		AssertID: ir.AssertID(ordinal),
		Type:     raw.Name,
	}

	var diags []extract.Diagnostic
	if raw.Actual != nil {
		actual, diag := b.buildDataSource(*raw.Actual, nameToID, filePath)
		assertion.Actual = actual
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	if raw.Expected != nil {
		expected, diag := b.buildDataSource(*raw.Expected, nameToID, filePath)
		assertion.Expected = &expected
		if diag != nil {
			diags = append(diags, *diag)
		}
	}
	return assertion, diags
}

func (b *Builder) buildDataSource(raw extract.DataSource, nameToID map[string]string, filePath string) (ir.DataSource, *extract.Diagnostic) {
	ds := ir.DataSource{
		Source: raw.Source,
		Field:  raw.Field,
		Value:  raw.Value,
	}
	if raw.Source != "ui" || raw.TargetNameID == "" {
		return ds, nil
	}
	if id, ok := nameToID[raw.TargetNameID]; ok {
		ds.TargetID = &id
		return ds, nil
	}
	return ds, &extract.Diagnostic{
		Severity: "warning",
		Code:     extract.DiagUnresolvedTarget,
		Message:  fmt.Sprintf("assertion operand references unknown target %q", raw.TargetNameID),
		FilePath: filePath,
		NodeID:   raw.TargetNodeID,
	}
}

func copyParameters(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	cp := make(map[string]any, len(params))
	for k, v := range params {
		cp[k] = v
	}
	return cp
}
