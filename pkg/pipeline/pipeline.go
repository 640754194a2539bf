// Package pipeline runs the full analysis-to-IR pipeline for one project:
//
//	canonical ASTs → symbol tables → raw records → linked, validated IR
//
// Per-file stages are pure and may run in parallel on the worker pool; the
// final build-and-link stage is single-threaded and owns IR assembly. No
// partial IR is ever produced: the pipeline returns either a fully
// validated bundle or a typed error.
package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/gnana997/testbridge/pkg/extract"
	"github.com/gnana997/testbridge/pkg/ir"
	"github.com/gnana997/testbridge/pkg/ir/irbuild"
	"github.com/gnana997/testbridge/pkg/ir/irwriter"
	"github.com/gnana997/testbridge/pkg/parser"
	"github.com/gnana997/testbridge/pkg/schema"
)

// Config is the typed project configuration the pipeline runs on.
// The CLI populates it from the project config file; the core never reads
// configuration from disk itself.
type Config struct {
	ProjectName         string
	SourceFramework     string
	TargetFramework     string
	ArchitecturePattern string
	SupportsParallel    bool
	CreatedOn           string
	SourceLanguage      string
	Environment         ir.Environment
	DataSets            []ir.TestData
	DataBindings        map[string]string

	// SourceFiles are paths or doublestar glob patterns selecting the
	// canonical-AST files of the project.
	SourceFiles []string
}

// Pipeline wires the stages together.
type Pipeline struct {
	provider  parser.Provider
	extractor *extract.Extractor
	builder   *irbuild.Builder
	validator *schema.Validator
	writer    *irwriter.Writer
	logger    *slog.Logger
	workers   int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers overrides the worker-pool size for per-file extraction.
// 0 selects the optimal size for the machine; 1 forces sequential runs.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// New creates a pipeline around an upstream AST provider.
func New(provider parser.Provider, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}
	validator, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("initializing schema validator: %w", err)
	}
	p := &Pipeline{
		provider:  provider,
		extractor: extract.NewExtractor(logger),
		builder:   irbuild.New(logger),
		validator: validator,
		writer:    irwriter.New(logger),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes the pipeline and returns the validated bundle.
func (p *Pipeline) Run(cfg Config) (*ir.Bundle, error) {
	if cfg.ProjectName == "" {
		return nil, &ir.ConfigError{Msg: "projectName is required"}
	}

	files, err := expandSourceFiles(cfg.SourceFiles)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &ir.ConfigError{Project: cfg.ProjectName, Msg: "sourceFiles matched no files"}
	}

	p.logger.Info("pipeline started",
		"project", cfg.ProjectName,
		"files", len(files))

	results, err := p.extractAll(files, cfg.SourceLanguage)
	if err != nil {
		return nil, err
	}

	bundle, err := p.builder.Build(irbuild.Config{
		ProjectName:         cfg.ProjectName,
		SourceFramework:     cfg.SourceFramework,
		TargetFramework:     cfg.TargetFramework,
		ArchitecturePattern: cfg.ArchitecturePattern,
		SupportsParallel:    cfg.SupportsParallel,
		CreatedOn:           cfg.CreatedOn,
		Environment:         cfg.Environment,
		DataSets:            cfg.DataSets,
		DataBindings:        cfg.DataBindings,
	}, results)
	if err != nil {
		return nil, err
	}

	if err := p.validateBundle(bundle); err != nil {
		return nil, err
	}

	p.logger.Info("pipeline finished",
		"project", cfg.ProjectName,
		"tests", len(bundle.Tests),
		"warnings", len(bundle.Diagnostics))

	return bundle, nil
}

// RunAndWrite executes the pipeline and writes the bundle under outDir.
// The writer is invoked only once the whole bundle has validated.
func (p *Pipeline) RunAndWrite(cfg Config, outDir string) (*ir.Bundle, error) {
	bundle, err := p.Run(cfg)
	if err != nil {
		return nil, err
	}
	if err := p.writer.Write(outDir, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// extractAll runs stages A–E for every file and joins the results in
// sorted file order.
func (p *Pipeline) extractAll(files []string, language string) ([]extract.FileResult, error) {
	if len(files) == 1 || p.workers == 1 {
		results := make([]extract.FileResult, 0, len(files))
		for _, path := range files {
			result, err := p.processFile(path, language)
			if err != nil {
				return nil, err
			}
			results = append(results, *result)
		}
		return results, nil
	}

	pool := NewWorkerPool(p.workers, p.processFile, p.logger)
	pool.Start()

	// Submit from a separate goroutine so a full job queue never blocks
	// result draining.
	go func() {
		for i, path := range files {
			pool.Submit(FileJob{FilePath: path, Language: language, JobID: i})
		}
		pool.FinishSubmitting()
	}()

	results := make([]*extract.FileResult, len(files))
	var firstErr error
	for range files {
		select {
		case r := <-pool.Results():
			results[r.JobID] = r.Result
		case e := <-pool.Errors():
			if firstErr == nil {
				firstErr = e.Err
			}
		}
	}
	pool.Stop()

	if firstErr != nil {
		return nil, firstErr
	}

	joined := make([]extract.FileResult, 0, len(results))
	for _, r := range results {
		joined = append(joined, *r)
	}
	return joined, nil
}

// processFile runs the pure per-file stages: parse, then extract.
func (p *Pipeline) processFile(path, language string) (*extract.FileResult, error) {
	tree, err := p.provider.Parse(path, language)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", path, err)
	}
	return p.extractor.ExtractTree(tree), nil
}

// validateBundle checks every document against its schema.
func (p *Pipeline) validateBundle(bundle *ir.Bundle) error {
	if err := p.validator.Validate(schema.KindProject, bundle.Project); err != nil {
		return err
	}
	if err := p.validator.Validate(schema.KindEnvironment, bundle.Environment); err != nil {
		return err
	}
	if err := p.validator.Validate(schema.KindTargets, bundle.Targets); err != nil {
		return err
	}
	for _, suite := range bundle.Suites {
		if err := p.validator.Validate(schema.KindSuite, suite); err != nil {
			return err
		}
	}
	for _, test := range bundle.Tests {
		if err := p.validator.Validate(schema.KindTest, test); err != nil {
			return err
		}
	}
	for _, data := range bundle.Data {
		if err := p.validator.Validate(schema.KindData, data); err != nil {
			return err
		}
	}
	return nil
}

// expandSourceFiles resolves the configured paths and glob patterns into a
// sorted, de-duplicated file list.
func expandSourceFiles(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, &ir.ConfigError{Msg: fmt.Sprintf("invalid source pattern %q: %v", pattern, err)}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
