package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnana997/testbridge/pkg/ast"
	"github.com/gnana997/testbridge/pkg/symtab"
)

// StatementMapper turns one statement into raw steps. The orchestrator
// holds an ordered list of (predicate, mapper) pairs and dispatches each
// statement to the first mapper whose predicate matches.
type StatementMapper interface {
	Match(stmt *ast.Node) bool
	Map(stmt *ast.Node, table *symtab.Table, filePath string) ([]RawStep, []Diagnostic)
}

// Extractor orchestrates per-tree extraction: it builds the symbol table,
// harvests targets and page objects, then maps every statement of every
// discovered test method through the mapper chain.
//
// Extraction is pure per tree; results for independent files may be
// computed in parallel and joined before IR construction.
//
// Usage:
//
//	ex := extract.NewExtractor(logger)
//	result := ex.ExtractTree(tree)
type Extractor struct {
	locators    *LocatorExtractor
	pageObjects *PageObjectExtractor
	mappers     []StatementMapper
	hasher      *ast.Hasher
	logger      *slog.Logger
}

// NewExtractor creates an extractor with the default mapper chain:
// assertions first (an assert statement must not also produce action
// steps), then actions.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		locators:    NewLocatorExtractor(logger),
		pageObjects: NewPageObjectExtractor(logger),
		mappers: []StatementMapper{
			NewAssertionMapper(logger),
			NewActionMapper(logger),
		},
		hasher: ast.NewHasher(),
		logger: logger,
	}
}

// ExtractTree produces the raw records for one tree.
func (e *Extractor) ExtractTree(tree *ast.Tree) *FileResult {
	table := symtab.Build(tree, e.logger)

	result := &FileResult{
		FilePath: tree.FilePath,
		TreeHash: e.hasher.HashTree(tree),
	}

	var diags []Diagnostic
	result.Targets, diags = e.locators.Extract(tree)
	result.Diagnostics = append(result.Diagnostics, diags...)

	result.PageObjects = e.pageObjects.Extract(table)

	e.extractTests(tree, table, result)

	e.logger.Info("extraction completed",
		"file", tree.FilePath,
		"targets", len(result.Targets),
		"pageObjects", len(result.PageObjects),
		"tests", len(result.Tests),
		"suites", len(result.Suites),
		"warnings", len(result.Diagnostics))

	return result
}

// extractTests discovers test methods class by class and maps their
// statements into steps, preserving pre-order source order.
func (e *Extractor) extractTests(tree *ast.Tree, table *symtab.Table, result *FileResult) {
	tree.Walk(func(node *ast.Node) bool {
		if node.Type != ast.TypeClassDeclaration {
			return true
		}
		className := declName(node)
		if className == "" {
			return true
		}

		var testNames []string
		node.Walk(func(member *ast.Node) bool {
			if member.Type != ast.TypeMethodDeclaration {
				return true
			}
			methodName := declName(member)
			if methodName == "" || !isTestMethod(className, methodName, member) {
				return true
			}

			test := RawTest{
				Name:      methodName,
				SuiteHint: className,
				FilePath:  tree.FilePath,
				Tags:      annotationTags(member),
			}
			for _, stmt := range statementNodes(member) {
				steps, diags := e.mapStatement(stmt, table, tree.FilePath)
				test.Steps = append(test.Steps, steps...)
				result.Diagnostics = append(result.Diagnostics, diags...)
			}

			result.Tests = append(result.Tests, test)
			testNames = append(testNames, methodName)
			return true
		})

		if len(testNames) > 0 {
			result.Suites = append(result.Suites, RawSuite{
				Name:        className,
				Description: fmt.Sprintf("Tests extracted from %s", className),
				Tests:       testNames,
			})
		}
		return true
	})
}

// mapStatement dispatches one statement to the first matching mapper.
func (e *Extractor) mapStatement(stmt *ast.Node, table *symtab.Table, filePath string) ([]RawStep, []Diagnostic) {
	for _, mapper := range e.mappers {
		if mapper.Match(stmt) {
			return mapper.Map(stmt, table, filePath)
		}
	}
	return nil, nil
}

// statementNodes returns the statements of a method body in pre-order.
func statementNodes(method *ast.Node) []*ast.Node {
	var stmts []*ast.Node
	var visit func(node *ast.Node)
	visit = func(node *ast.Node) {
		for _, child := range node.Children {
			switch child.Type {
			case ast.TypeStatementExpression, ast.TypeReturnStatement:
				stmts = append(stmts, child)
				// Statements are mapped as a whole; don't descend into one
				// looking for nested statements.
				continue
			}
			visit(child)
		}
	}
	visit(method)
	return stmts
}

// isTestMethod applies the test-discovery conventions: an @Test annotation,
// a test-prefixed method name, or any method of a *Test/*Tests class that
// has at least one statement.
func isTestMethod(className, methodName string, method *ast.Node) bool {
	if hasAnnotation(method, "Test") {
		return true
	}
	if strings.HasPrefix(methodName, "test") {
		return true
	}
	if strings.HasSuffix(className, "Test") || strings.HasSuffix(className, "Tests") {
		return len(statementNodes(method)) > 0
	}
	return false
}

// hasAnnotation reports whether a method carries the named annotation.
func hasAnnotation(method *ast.Node, name string) bool {
	for _, child := range method.Children {
		if child.Type == ast.TypeAnnotation && declName(child) == name {
			return true
		}
	}
	return false
}

// annotationTags returns the method's annotation names, except Test
// itself, as test tags.
func annotationTags(method *ast.Node) []string {
	var tags []string
	for _, child := range method.Children {
		if child.Type == ast.TypeAnnotation {
			if name := declName(child); name != "" && name != "Test" {
				tags = append(tags, name)
			}
		}
	}
	return tags
}
