package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
project_name: demo
source_framework: selenium-java
target_framework: playwright
supports_parallel: true
created_on: "2025-06-01T00:00:00Z"
source_files:
  - asts/**/*.ast.json
environment:
  base_urls:
    dev: https://dev.example.com
  execution_mode: grid
  browsers: [chromium, firefox]
  timeouts:
    implicit: 5000
    explicit: 10000
    page_load: 30000
  retry_policy:
    enabled: true
    max_retries: 2
data_sets:
  - data_set_id: loginData
    records:
      - email: john@test.com
data_bindings:
  testLogin: loginData
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "testbridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.ProjectName)
	assert.Equal(t, "selenium-java", cfg.SourceFramework)
	assert.Equal(t, "playwright", cfg.TargetFramework)
	assert.True(t, cfg.SupportsParallel)
	assert.Equal(t, "2025-06-01T00:00:00Z", cfg.CreatedOn)
	assert.Equal(t, []string{"asts/**/*.ast.json"}, cfg.SourceFiles)

	assert.Equal(t, "grid", cfg.Environment.ExecutionMode)
	assert.Equal(t, 30000, cfg.Environment.Timeouts.PageLoad)
	assert.Equal(t, 2, cfg.Environment.RetryPolicy.MaxRetries)

	require.Len(t, cfg.DataSets, 1)
	assert.Equal(t, "loginData", cfg.DataSets[0].DataSetID)
	assert.Equal(t, "inline", cfg.DataSets[0].Type)
	assert.Equal(t, "loginData", cfg.DataBindings["testLogin"])
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, "project_name: bare\n"))
	require.NoError(t, err)

	assert.Equal(t, "selenium-java", cfg.SourceFramework)
	assert.Equal(t, "page-object-model", cfg.ArchitecturePattern)
	assert.Equal(t, "java", cfg.SourceLanguage)
	assert.Equal(t, "local", cfg.Environment.ExecutionMode)
	assert.NotEmpty(t, cfg.CreatedOn)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
