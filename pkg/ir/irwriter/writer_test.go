package irwriter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/testbridge/pkg/ir"
)

func sampleBundle() *ir.Bundle {
	targetID := ir.TargetID("LoginPage", "emailInput", "css", "#email")
	return &ir.Bundle{
		Project: ir.Project{
			IRVersion:           ir.IRVersion,
			ProjectName:         "demo",
			SourceFramework:     "selenium-java",
			TargetFramework:     "playwright",
			ArchitecturePattern: "page-object-model",
			SupportsParallel:    true,
			CreatedOn:           "2025-06-01T00:00:00Z",
		},
		Environment: ir.Environment{
			BaseURLs:      map[string]string{"dev": "https://dev.example.com"},
			ExecutionMode: "local",
			Browsers:      []string{"chromium"},
			Timeouts:      ir.Timeouts{Implicit: 5000, Explicit: 10000, PageLoad: 30000},
			RetryPolicy:   ir.RetryPolicy{Enabled: true, MaxRetries: 2},
		},
		Targets: []ir.Target{{
			TargetID: targetID,
			Type:     "element",
			Context:  ir.TargetContext{Page: "LoginPage"},
			Semantic: ir.TargetSemantic{Role: "textbox", BusinessName: "Email Input"},
			SelectorStrategies: []ir.SelectorStrategy{
				{Strategy: "css", Value: "#email", StabilityScore: 0.95},
			},
			PreferredStrategy: "css",
		}},
		Suites: []ir.Suite{{
			SuiteID:     ir.SuiteID("LoginTest"),
			Description: "Tests extracted from LoginTest",
			Tests:       []string{ir.TestID("LoginTest", "testLogin")},
		}},
		Tests: []ir.Test{{
			TestID:   ir.TestID("LoginTest", "testLogin"),
			Name:     "testLogin",
			SuiteID:  ir.SuiteID("LoginTest"),
			Priority: "medium",
			Severity: "normal",
			Steps: []ir.Step{{
				StepID:     "STEP_01",
				Action:     "enterEmail",
				TargetID:   &targetID,
				Parameters: map[string]any{"value": "john@test.com"},
			}},
			Assertions: []ir.Assertion{},
		}},
		Data: []ir.TestData{{
			DataSetID: "loginData",
			Type:      "inline",
			Records:   []map[string]any{{"email": "john@test.com"}},
		}},
	}
}

func TestWrite_Layout(t *testing.T) {
	dir := t.TempDir()
	bundle := sampleBundle()
	require.NoError(t, New(nil).Write(dir, bundle))

	for _, rel := range []string{
		"project.json",
		"environment.json",
		"targets.json",
		filepath.Join("suites", bundle.Suites[0].SuiteID+".json"),
		filepath.Join("tests", bundle.Tests[0].TestID+".json"),
		filepath.Join("data", "loginData.json"),
	} {
		_, err := os.Stat(filepath.Join(dir, rel))
		assert.NoError(t, err, rel)
	}
}

func TestWrite_TrailingNewline(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, New(nil).Write(dir, sampleBundle()))

	data, err := os.ReadFile(filepath.Join(dir, "project.json"))
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestMarshalSorted_KeysSorted(t *testing.T) {
	data, err := MarshalSorted(sampleBundle().Project)
	require.NoError(t, err)

	keys := topLevelKeys(t, data)
	require.NotEmpty(t, keys)
	for i := 1; i < len(keys); i++ {
		assert.LessOrEqual(t, keys[i-1], keys[i])
	}
}

// topLevelKeys reads the top-level object keys in document order.
func topLevelKeys(t *testing.T, data []byte) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		key, ok := tok.(string)
		require.True(t, ok)
		keys = append(keys, key)

		var raw json.RawMessage
		require.NoError(t, dec.Decode(&raw))
	}
	return keys
}

// Round-trip stability: write → read → write is byte-identical.
func TestRoundTripStability(t *testing.T) {
	dir1 := t.TempDir()
	w := New(nil)
	require.NoError(t, w.Write(dir1, sampleBundle()))

	loaded, err := Read(dir1)
	require.NoError(t, err)

	dir2 := t.TempDir()
	require.NoError(t, w.Write(dir2, loaded))

	compareFile := func(rel string) {
		a, err := os.ReadFile(filepath.Join(dir1, rel))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dir2, rel))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), rel)
	}
	compareFile("project.json")
	compareFile("environment.json")
	compareFile("targets.json")
	compareFile(filepath.Join("tests", sampleBundle().Tests[0].TestID+".json"))
}

func TestRead_RoundTripsBundle(t *testing.T) {
	dir := t.TempDir()
	bundle := sampleBundle()
	require.NoError(t, New(nil).Write(dir, bundle))

	loaded, err := Read(dir)
	require.NoError(t, err)

	assert.Equal(t, bundle.Project, loaded.Project)
	assert.Equal(t, bundle.Environment, loaded.Environment)
	require.Len(t, loaded.Targets, 1)
	assert.Equal(t, bundle.Targets[0].TargetID, loaded.Targets[0].TargetID)
	require.Len(t, loaded.Tests, 1)
	assert.Equal(t, bundle.Tests[0].TestID, loaded.Tests[0].TestID)
}
