// Package irwriter serializes a validated IR bundle to its on-disk layout:
//
//	<out>/project.json
//	<out>/environment.json
//	<out>/targets.json
//	<out>/diagnostics.json        (only when warnings were recorded)
//	<out>/suites/<suiteId>.json
//	<out>/tests/<testId>.json
//	<out>/data/<dataSetId>.json
//
// Every file is JSON with sorted keys and a trailing newline, so repeated
// runs over the same input are byte-identical.
package irwriter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gnana997/testbridge/pkg/ir"
)

// Writer writes IR bundles. The pipeline invokes it only on a fully-built,
// fully-validated bundle.
type Writer struct {
	logger *slog.Logger
}

// New creates a writer.
func New(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// Write emits the bundle under outDir.
func (w *Writer) Write(outDir string, bundle *ir.Bundle) error {
	for _, dir := range []string{outDir, filepath.Join(outDir, "suites"), filepath.Join(outDir, "tests"), filepath.Join(outDir, "data")} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %q: %w", dir, err)
		}
	}

	if err := w.writeDoc(filepath.Join(outDir, "project.json"), bundle.Project); err != nil {
		return err
	}
	if err := w.writeDoc(filepath.Join(outDir, "environment.json"), bundle.Environment); err != nil {
		return err
	}
	if err := w.writeDoc(filepath.Join(outDir, "targets.json"), bundle.Targets); err != nil {
		return err
	}
	if len(bundle.Diagnostics) > 0 {
		if err := w.writeDoc(filepath.Join(outDir, "diagnostics.json"), bundle.Diagnostics); err != nil {
			return err
		}
	}
	for _, suite := range bundle.Suites {
		if err := w.writeDoc(filepath.Join(outDir, "suites", suite.SuiteID+".json"), suite); err != nil {
			return err
		}
	}
	for _, test := range bundle.Tests {
		if err := w.writeDoc(filepath.Join(outDir, "tests", test.TestID+".json"), test); err != nil {
			return err
		}
	}
	for _, data := range bundle.Data {
		if err := w.writeDoc(filepath.Join(outDir, "data", data.DataSetID+".json"), data); err != nil {
			return err
		}
	}

	w.logger.Info("IR bundle written",
		"out", outDir,
		"suites", len(bundle.Suites),
		"tests", len(bundle.Tests),
		"targets", len(bundle.Targets))

	return nil
}

func (w *Writer) writeDoc(path string, doc any) error {
	data, err := MarshalSorted(doc)
	if err != nil {
		return fmt.Errorf("serializing %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

// MarshalSorted serializes a document with sorted object keys, two-space
// indentation and a trailing newline.
//
// The document is round-tripped through a generic value first: Go struct
// fields marshal in declaration order, but map keys marshal sorted, so the
// round-trip is what makes key order deterministic.
func MarshalSorted(doc any) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
