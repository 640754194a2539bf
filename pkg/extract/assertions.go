package extract

import (
	"log/slog"
	"strings"

	"github.com/gnana997/testbridge/pkg/ast"
	"github.com/gnana997/testbridge/pkg/symtab"
)

// AssertionMapper detects test-framework assertions (assertEquals,
// assertTrue, assertNotNull, ...) and emits assertion steps with typed
// actual/expected data sources.
type AssertionMapper struct {
	logger *slog.Logger
}

// NewAssertionMapper creates an assertion mapper.
func NewAssertionMapper(logger *slog.Logger) *AssertionMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssertionMapper{logger: logger}
}

// Match reports whether the statement contains an assert* invocation.
func (m *AssertionMapper) Match(stmt *ast.Node) bool {
	return findAssertInvocation(stmt) != nil
}

// Map emits the assertion step for one statement.
func (m *AssertionMapper) Map(stmt *ast.Node, table *symtab.Table, filePath string) ([]RawStep, []Diagnostic) {
	invocation := findAssertInvocation(stmt)
	if invocation == nil {
		return nil, nil
	}

	step := RawStep{
		Kind: StepKindAssertion,
		Name: invocation.Member(),
	}

	args := argumentNodes(invocation)
	if len(args) > 0 {
		actual := m.classifyOperand(args[0], table)
		step.Actual = &actual
		if actual.Source == "ui" {
			step.TargetNameID = actual.TargetNameID
			step.TargetNodeID = actual.TargetNodeID
		}
	}
	if len(args) > 1 {
		expected := m.classifyOperand(args[1], table)
		step.Expected = &expected
	}

	return []RawStep{step}, nil
}

// findAssertInvocation returns the first assert* invocation in the
// statement, pre-order.
func findAssertInvocation(stmt *ast.Node) *ast.Node {
	var found *ast.Node
	stmt.Walk(func(node *ast.Node) bool {
		if node.Type == ast.TypeMethodInvocation && strings.HasPrefix(node.Member(), "assert") {
			found = node
			return false
		}
		return true
	})
	return found
}

// argumentNodes returns the expression children of an invocation, in
// source order.
func argumentNodes(invocation *ast.Node) []*ast.Node {
	args := make([]*ast.Node, 0, len(invocation.Children))
	for _, child := range invocation.Children {
		switch child.Type {
		case ast.TypeLiteral, ast.TypeMemberReference, ast.TypeMethodInvocation, ast.TypeBinaryOperation:
			args = append(args, child)
		}
	}
	return args
}

// classifyOperand types one assertion operand:
//   - a literal is a constant
//   - an expression the symbol table binds to a UI target is a ui source
//   - a reference to a method parameter is a data-field source
//   - anything else is an opaque expression
func (m *AssertionMapper) classifyOperand(arg *ast.Node, table *symtab.Table) DataSource {
	if arg.Type == ast.TypeLiteral {
		return DataSource{Source: "constant", Value: literalValue(arg)}
	}

	if arg.Type == ast.TypeMemberReference {
		name := arg.Member()
		if name == "" {
			name = arg.StringAttr("name")
		}
		if decl, ok := table.Lookup(name); ok {
			if decl.Kind == ast.TypeParameter {
				return DataSource{Source: "data", Field: name}
			}
			if decl.Initializer != nil && symtab.IsLocatorNode(decl.Initializer) {
				return DataSource{
					Source:       "ui",
					TargetNameID: name,
					TargetNodeID: decl.Initializer.ID,
				}
			}
		}
		return DataSource{Source: "expression", Field: name}
	}

	// Method invocations and compound expressions: a page-object accessor
	// resolves to a UI target, everything else stays an expression.
	if res, ok := table.ResolveStepTarget(arg); ok {
		return DataSource{
			Source:       "ui",
			TargetNameID: res.TargetName,
			TargetNodeID: res.NodeID,
		}
	}
	return DataSource{Source: "expression", Field: describeExpression(arg)}
}

// describeExpression renders an unresolvable operand as readable text.
func describeExpression(arg *ast.Node) string {
	if member := arg.Member(); member != "" {
		return joinNonEmpty(arg.Qualifier(), member)
	}
	if arg.Name != "" {
		return arg.Name
	}
	return "<expr>"
}
