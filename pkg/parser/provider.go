// Package parser defines the upstream AST provider boundary.
//
// Language-specific parsing happens outside this repository: an upstream
// parser (javalang for Selenium/Java today) turns source into a canonical
// AST and hands it over as JSON. This package loads and validates those
// trees; it performs no parsing of its own.
package parser

import (
	"github.com/gnana997/testbridge/pkg/ast"
)

// Provider supplies canonical trees to the pipeline.
//
// Implementations must return trees satisfying the structural invariants of
// pkg/ast (validated at construction). Node types outside the canonical set
// are preserved verbatim; the extractors treat them as opaque.
type Provider interface {
	Parse(filePath, language string) (*ast.Tree, error)
}
