package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/testbridge/pkg/ir"
	"github.com/gnana997/testbridge/pkg/pipeline"
)

// fileConfig mirrors the testbridge.yaml project config.
type fileConfig struct {
	ProjectName         string   `yaml:"project_name"`
	SourceFramework     string   `yaml:"source_framework"`
	TargetFramework     string   `yaml:"target_framework"`
	ArchitecturePattern string   `yaml:"architecture_pattern"`
	SupportsParallel    bool     `yaml:"supports_parallel"`
	CreatedOn           string   `yaml:"created_on"`
	SourceLanguage      string   `yaml:"source_language"`
	SourceFiles         []string `yaml:"source_files"`

	Environment struct {
		BaseURLs      map[string]string `yaml:"base_urls"`
		ExecutionMode string            `yaml:"execution_mode"`
		Browsers      []string          `yaml:"browsers"`
		Timeouts      struct {
			Implicit int `yaml:"implicit"`
			Explicit int `yaml:"explicit"`
			PageLoad int `yaml:"page_load"`
		} `yaml:"timeouts"`
		RetryPolicy struct {
			Enabled    bool `yaml:"enabled"`
			MaxRetries int  `yaml:"max_retries"`
		} `yaml:"retry_policy"`
	} `yaml:"environment"`

	DataSets []struct {
		DataSetID string           `yaml:"data_set_id"`
		Type      string           `yaml:"type"`
		Records   []map[string]any `yaml:"records"`
	} `yaml:"data_sets"`

	// DataBindings maps test name → data set id.
	DataBindings map[string]string `yaml:"data_bindings"`
}

// loadConfig reads a project config file and converts it into the typed
// pipeline configuration.
func loadConfig(path string) (pipeline.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return pipeline.Config{}, fmt.Errorf("parsing config %q: %w", path, err)
	}

	cfg := pipeline.Config{
		ProjectName:         fc.ProjectName,
		SourceFramework:     defaultString(fc.SourceFramework, "selenium-java"),
		TargetFramework:     fc.TargetFramework,
		ArchitecturePattern: defaultString(fc.ArchitecturePattern, "page-object-model"),
		SupportsParallel:    fc.SupportsParallel,
		CreatedOn:           fc.CreatedOn,
		SourceLanguage:      defaultString(fc.SourceLanguage, "java"),
		SourceFiles:         fc.SourceFiles,
		DataBindings:        fc.DataBindings,
		Environment: ir.Environment{
			BaseURLs:      fc.Environment.BaseURLs,
			ExecutionMode: defaultString(fc.Environment.ExecutionMode, "local"),
			Browsers:      fc.Environment.Browsers,
			Timeouts: ir.Timeouts{
				Implicit: fc.Environment.Timeouts.Implicit,
				Explicit: fc.Environment.Timeouts.Explicit,
				PageLoad: fc.Environment.Timeouts.PageLoad,
			},
			RetryPolicy: ir.RetryPolicy{
				Enabled:    fc.Environment.RetryPolicy.Enabled,
				MaxRetries: fc.Environment.RetryPolicy.MaxRetries,
			},
		},
	}

	for _, ds := range fc.DataSets {
		cfg.DataSets = append(cfg.DataSets, ir.TestData{
			DataSetID: ds.DataSetID,
			Type:      defaultString(ds.Type, "inline"),
			Records:   ds.Records,
		})
	}

	// A fixed created_on keeps repeated runs byte-identical; without one,
	// stamp the run time.
	if cfg.CreatedOn == "" {
		cfg.CreatedOn = time.Now().UTC().Format(time.RFC3339)
	}

	return cfg, nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
