package extract

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/gnana997/testbridge/pkg/ast"
	"github.com/gnana997/testbridge/pkg/symtab"
)

// supportedActions are the Selenium primitive interactions emitted as
// action steps under their own name.
var supportedActions = map[string]bool{
	"click":          true,
	"sendKeys":       true,
	"submit":         true,
	"clear":          true,
	"doubleClick":    true,
	"contextClick":   true,
	"getText":        true,
	"waitForVisible": true,
	"navigate":       true,
}

// utilityMethods are framework plumbing, always skipped.
var utilityMethods = map[string]bool{
	"findElement":                 true,
	"findElements":                true,
	"manage":                      true,
	"timeouts":                    true,
	"implicitlyWait":              true,
	"until":                       true,
	"presenceOfElementLocated":    true,
	"visibilityOfElementLocated":  true,
	"elementToBeClickable":        true,
	"get":                         true,
}

// frameworkQualifiers are receivers that are never page objects.
var frameworkQualifiers = map[string]bool{
	"Duration":           true,
	"ExpectedConditions": true,
	"By":                 true,
	"driver":             true,
	"wait":               true,
	"System":             true,
	"":                   true,
}

// ActionMapper classifies the method invocations of one statement into
// action steps.
//
// Classification per invocation:
//  1. utility method            → skip
//  2. supported Selenium action → action step named after the member
//  3. non-framework qualifier   → action step (a page-object call)
//  4. anything else             → skip
type ActionMapper struct {
	logger *slog.Logger
}

// NewActionMapper creates an action mapper.
func NewActionMapper(logger *slog.Logger) *ActionMapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActionMapper{logger: logger}
}

// Match reports whether the statement contains anything this mapper could
// emit. Used by the orchestrator's (predicate, mapper) dispatch.
func (m *ActionMapper) Match(stmt *ast.Node) bool {
	found := false
	stmt.Walk(func(node *ast.Node) bool {
		if node.Type == ast.TypeMethodInvocation {
			found = true
			return false
		}
		return true
	})
	return found
}

// Map emits the action steps for one statement, in pre-order source order.
func (m *ActionMapper) Map(stmt *ast.Node, table *symtab.Table, filePath string) ([]RawStep, []Diagnostic) {
	var steps []RawStep
	var diags []Diagnostic

	stmt.Walk(func(node *ast.Node) bool {
		if node.Type != ast.TypeMethodInvocation {
			return true
		}
		member := node.Member()
		qualifier := node.Qualifier()

		switch {
		case utilityMethods[member]:
			return true

		case supportedActions[member]:
			steps = append(steps, m.buildStep(stmt, node, member, table))
			return true

		case !frameworkQualifiers[qualifier]:
			// A page-object call — or a call on something we never
			// discovered. Emit either way; warn on the latter.
			step := m.buildStep(stmt, node, member, table)
			if _, known := table.ClassOfInstance(qualifier); !known {
				diags = append(diags, Diagnostic{
					Severity: "warning",
					Code:     DiagUnknownQualifier,
					Message:  fmt.Sprintf("call %s is neither a framework call nor a known page object", joinNonEmpty(qualifier, member)),
					FilePath: filePath,
					NodeID:   node.ID,
				})
			} else if step.TargetNameID == "" {
				diags = append(diags, Diagnostic{
					Severity: "warning",
					Code:     DiagNoInferableTarget,
					Message:  fmt.Sprintf("page-object method %s has no inferable target", joinNonEmpty(qualifier, member)),
					FilePath: filePath,
					NodeID:   node.ID,
				})
			}
			steps = append(steps, step)
			return true

		default:
			return true
		}
	})

	return steps, diags
}

// buildStep assembles one action step, resolving the target against the
// enclosing statement and collecting the invocation's literal arguments.
func (m *ActionMapper) buildStep(stmt, invocation *ast.Node, name string, table *symtab.Table) RawStep {
	step := RawStep{
		Kind:       StepKindAction,
		Name:       name,
		Parameters: extractParameters(invocation),
	}
	if res, ok := table.ResolveStepTarget(stmt); ok {
		step.TargetNameID = res.TargetName
		step.TargetNodeID = res.NodeID
	}
	return step
}

// extractParameters collects positional argument values under the keys
// value, value2, value3, ... Literals keep their type; member references
// render as their name; other expressions render as "<expr>".
func extractParameters(invocation *ast.Node) map[string]any {
	params := map[string]any{}
	ordinal := 0
	for _, child := range invocation.Children {
		var value any
		switch child.Type {
		case ast.TypeLiteral:
			value = literalValue(child)
		case ast.TypeMemberReference:
			name := child.Member()
			if name == "" {
				name = child.StringAttr("name")
			}
			value = name
		default:
			value = "<expr>"
		}
		ordinal++
		params[parameterKey(ordinal)] = value
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func parameterKey(ordinal int) string {
	if ordinal == 1 {
		return "value"
	}
	return fmt.Sprintf("value%d", ordinal)
}

// literalValue converts a literal's raw text into a typed value: numbers
// and booleans are parsed, strings lose their surrounding quotes.
func literalValue(literal *ast.Node) any {
	raw := literal.StringAttr("value")
	if raw == "" {
		if v, ok := literal.Attributes["value"]; ok {
			return v
		}
		return raw
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return stripQuotes(raw)
}
