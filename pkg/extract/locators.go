package extract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gnana997/testbridge/pkg/ast"
	"github.com/gnana997/testbridge/pkg/symtab"
)

// strategyByMember normalizes By.* constructor members to IR selector
// strategies. Members outside this table are unknown strategies and the
// field is skipped with a warning.
var strategyByMember = map[string]string{
	"cssSelector":     "css",
	"xpath":           "xpath",
	"id":              "id",
	"name":            "name",
	"className":       "className",
	"tagName":         "tagName",
	"linkText":        "linkText",
	"partialLinkText": "partialLinkText",
}

// LocatorExtractor harvests UI targets from a tree: every field or variable
// whose initializer is a By.* invocation becomes a raw target record.
type LocatorExtractor struct {
	logger *slog.Logger
}

// NewLocatorExtractor creates a locator extractor.
func NewLocatorExtractor(logger *slog.Logger) *LocatorExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocatorExtractor{logger: logger}
}

// Extract walks the tree and returns the raw targets plus any warnings.
func (e *LocatorExtractor) Extract(tree *ast.Tree) ([]RawTarget, []Diagnostic) {
	var targets []RawTarget
	var diags []Diagnostic

	e.walkWithClass(tree.Root, "", func(node *ast.Node, page string) {
		if node.Type != ast.TypeField && node.Type != ast.TypeVariable {
			return
		}
		name := declName(node)
		if name == "" {
			return
		}
		locator := firstLocatorChild(node)
		if locator == nil {
			return
		}

		member := locator.Member()
		strategy, ok := strategyByMember[member]
		if !ok {
			diags = append(diags, Diagnostic{
				Severity: "warning",
				Code:     DiagUnknownStrategy,
				Message:  fmt.Sprintf("locator %q uses unknown strategy By.%s", name, member),
				FilePath: tree.FilePath,
				NodeID:   locator.ID,
			})
			return
		}

		targets = append(targets, RawTarget{
			Name:     name,
			Strategy: strategy,
			Value:    locatorValue(locator),
			NodeID:   locator.ID,
			Page:     page,
		})
	})

	e.logger.Debug("locator extraction completed",
		"file", tree.FilePath, "targets", len(targets))

	return targets, diags
}

// walkWithClass walks pre-order, tracking the nearest enclosing class name.
func (e *LocatorExtractor) walkWithClass(node *ast.Node, page string, fn func(*ast.Node, string)) {
	if node.Type == ast.TypeClassDeclaration {
		if name := declName(node); name != "" {
			page = name
		}
	}
	fn(node, page)
	for _, child := range node.Children {
		e.walkWithClass(child, page, fn)
	}
}

// firstLocatorChild returns the By.* invocation initializing a declarator,
// or nil when the declarator has no locator initializer.
func firstLocatorChild(declarator *ast.Node) *ast.Node {
	var found *ast.Node
	declarator.Walk(func(node *ast.Node) bool {
		if node != declarator && symtab.IsLocatorNode(node) {
			found = node
			return false
		}
		return true
	})
	return found
}

// locatorValue returns the first literal argument of a By.* invocation with
// surrounding quotes stripped.
func locatorValue(locator *ast.Node) string {
	for _, child := range locator.Children {
		if child.Type == ast.TypeLiteral {
			return stripQuotes(child.StringAttr("value"))
		}
	}
	return ""
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func declName(node *ast.Node) string {
	if node.Name != "" {
		return node.Name
	}
	return node.StringAttr("name")
}

// joinNonEmpty is a small helper used in diagnostics.
func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}
