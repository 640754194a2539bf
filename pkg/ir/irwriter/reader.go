package irwriter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gnana997/testbridge/pkg/ir"
)

// Read loads a previously written bundle back from disk. Used by the MCP
// server and the inspect command; the pipeline itself never reads IR.
func Read(dir string) (*ir.Bundle, error) {
	bundle := &ir.Bundle{}

	if err := readDoc(filepath.Join(dir, "project.json"), &bundle.Project); err != nil {
		return nil, err
	}
	if err := readDoc(filepath.Join(dir, "environment.json"), &bundle.Environment); err != nil {
		return nil, err
	}
	if err := readDoc(filepath.Join(dir, "targets.json"), &bundle.Targets); err != nil {
		return nil, err
	}

	var err error
	if bundle.Suites, err = readDocDir[ir.Suite](filepath.Join(dir, "suites")); err != nil {
		return nil, err
	}
	if bundle.Tests, err = readDocDir[ir.Test](filepath.Join(dir, "tests")); err != nil {
		return nil, err
	}
	if bundle.Data, err = readDocDir[ir.TestData](filepath.Join(dir, "data")); err != nil {
		return nil, err
	}

	return bundle, nil
}

func readDoc(path string, into any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w", path, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decoding %q: %w", path, err)
	}
	return nil
}

// readDocDir loads every *.json document in dir, in file-name order. A
// missing directory yields an empty slice.
func readDocDir[T any](dir string) ([]T, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading directory %q: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	docs := make([]T, 0, len(names))
	for _, name := range names {
		var doc T
		if err := readDoc(filepath.Join(dir, name), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
