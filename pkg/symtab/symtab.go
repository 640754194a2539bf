// Package symtab answers the central question of the pipeline: what UI
// target does this AST node reference?
//
// A Table is built per tree in three passes — declarations, class
// structure, method-target inference — and then queried statement by
// statement during extraction. Missing information never raises: resolution
// silently returns nothing and the extractor emits the step with a null
// target.
package symtab

import (
	"log/slog"

	"github.com/gnana997/testbridge/pkg/ast"
)

// Declaration records one field/variable/parameter declaration.
type Declaration struct {
	Name        string
	Kind        string    // ast.TypeField, ast.TypeVariable or ast.TypeParameter
	Declarator  *ast.Node
	Initializer *ast.Node // MethodInvocation or Literal under the declarator, nil if none
}

// Class records the structure of one declared class.
type Class struct {
	Name          string
	Node          *ast.Node
	Fields        map[string]Declaration // field name → declaration
	LocatorFields map[string]bool        // fields initialized by a By.* call
	Methods       map[string]*ast.Node   // method name → MethodDeclaration
	MethodTargets map[string]string      // method name → inferred target field
	IsPageObject  bool
}

// Resolution is a resolved step target: the symbolic field/variable name
// and the id of the AST node holding the locator.
type Resolution struct {
	TargetName string
	NodeID     string
}

// Table is the per-tree symbol table.
type Table struct {
	decls       map[string]Declaration
	classes     map[string]*Class
	ownerByInit map[string]string // locator initializer node id → owning field name
	logger      *slog.Logger
}

// Build scans a tree and constructs its symbol table.
func Build(tree *ast.Tree, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Table{
		decls:       make(map[string]Declaration),
		classes:     make(map[string]*Class),
		ownerByInit: make(map[string]string),
		logger:      logger,
	}

	t.collectDeclarations(tree)
	t.collectClasses(tree)
	t.inferMethodTargets()

	logger.Debug("symbol table built",
		"file", tree.FilePath,
		"symbols", len(t.decls),
		"classes", len(t.classes))

	return t
}

// IsLocatorNode reports whether the node is a By.* locator invocation.
func IsLocatorNode(node *ast.Node) bool {
	return node.Type == ast.TypeMethodInvocation &&
		node.Qualifier() == "By" &&
		node.Member() != ""
}

// ---------------------------------------------------------------------------
// Pass 1: declarations
// ---------------------------------------------------------------------------

func (t *Table) collectDeclarations(tree *ast.Tree) {
	tree.Walk(func(node *ast.Node) bool {
		switch node.Type {
		case ast.TypeField, ast.TypeVariable, ast.TypeParameter:
			t.recordDeclaration(node)
		}
		return true
	})
}

func (t *Table) recordDeclaration(declarator *ast.Node) {
	name := declarator.Name
	if name == "" {
		name = declarator.StringAttr("name")
	}
	if name == "" {
		return
	}

	decl := Declaration{
		Name:        name,
		Kind:        declarator.Type,
		Declarator:  declarator,
		Initializer: findInitializer(declarator),
	}
	t.decls[name] = decl

	if decl.Initializer != nil && IsLocatorNode(decl.Initializer) {
		t.ownerByInit[decl.Initializer.ID] = name
		t.logger.Debug("recorded locator symbol", "name", name, "node", decl.Initializer.ID)
	}
}

// findInitializer returns the initializer expression of a declarator: the
// MethodInvocation or Literal immediately under it, falling back to the
// first By.* invocation anywhere in the subtree (some adapters nest the
// initializer under an intermediate expression node).
func findInitializer(declarator *ast.Node) *ast.Node {
	for _, child := range declarator.Children {
		if child.Type == ast.TypeMethodInvocation || child.Type == ast.TypeLiteral {
			return child
		}
	}
	var found *ast.Node
	declarator.Walk(func(node *ast.Node) bool {
		if node != declarator && IsLocatorNode(node) {
			found = node
			return false
		}
		return true
	})
	return found
}

// ---------------------------------------------------------------------------
// Pass 2: class structure
// ---------------------------------------------------------------------------

func (t *Table) collectClasses(tree *ast.Tree) {
	tree.Walk(func(node *ast.Node) bool {
		if node.Type != ast.TypeClassDeclaration {
			return true
		}
		name := node.Name
		if name == "" {
			name = node.StringAttr("name")
		}
		if name == "" {
			return true
		}

		cls := &Class{
			Name:          name,
			Node:          node,
			Fields:        make(map[string]Declaration),
			LocatorFields: make(map[string]bool),
			Methods:       make(map[string]*ast.Node),
			MethodTargets: make(map[string]string),
		}

		node.Walk(func(member *ast.Node) bool {
			switch member.Type {
			case ast.TypeField:
				fieldName := member.Name
				if fieldName == "" {
					fieldName = member.StringAttr("name")
				}
				if decl, ok := t.decls[fieldName]; ok {
					cls.Fields[fieldName] = decl
					if decl.Initializer != nil && IsLocatorNode(decl.Initializer) {
						cls.LocatorFields[fieldName] = true
					}
				}
			case ast.TypeMethodDeclaration:
				methodName := member.Name
				if methodName == "" {
					methodName = member.StringAttr("name")
				}
				if methodName != "" {
					cls.Methods[methodName] = member
				}
			}
			return true
		})

		cls.IsPageObject = len(cls.LocatorFields) > 0
		t.classes[name] = cls
		return true
	})
}

// ---------------------------------------------------------------------------
// Pass 3: method-target inference
// ---------------------------------------------------------------------------

func (t *Table) inferMethodTargets() {
	for _, cls := range t.classes {
		if !cls.IsPageObject {
			continue
		}
		for methodName, methodNode := range cls.Methods {
			if target, ok := t.inferMethodTarget(cls, methodName, methodNode); ok {
				cls.MethodTargets[methodName] = target
				t.logger.Debug("inferred method target",
					"class", cls.Name, "method", methodName, "target", target)
			}
		}
	}
}

func (t *Table) inferMethodTarget(cls *Class, methodName string, methodNode *ast.Node) (string, bool) {
	// (a) A body reference to one of the class's locator fields wins.
	var bound string
	methodNode.Walk(func(node *ast.Node) bool {
		if node.Type != ast.TypeMemberReference {
			return true
		}
		ref := node.Member()
		if ref == "" {
			ref = node.Name
		}
		if cls.LocatorFields[ref] {
			bound = ref
			return false
		}
		return true
	})
	if bound != "" {
		return bound, true
	}

	// (b) Name-pattern inference. Candidates must name a declared field;
	// misses are discarded.
	for _, candidate := range inferTargetCandidates(methodName) {
		if _, ok := cls.Fields[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Query API
// ---------------------------------------------------------------------------

// Lookup returns the declaration recorded for a name.
func (t *Table) Lookup(name string) (Declaration, bool) {
	decl, ok := t.decls[name]
	return decl, ok
}

// Class returns a class by its declared name.
func (t *Table) Class(name string) (*Class, bool) {
	cls, ok := t.classes[name]
	return cls, ok
}

// Classes returns all recorded classes keyed by name.
func (t *Table) Classes() map[string]*Class {
	return t.classes
}

// ClassOfInstance maps an instance name (an invocation qualifier like
// "loginPage") to its class. It prefers the declared type of the variable
// and falls back to the upper-cased naming convention.
func (t *Table) ClassOfInstance(instance string) (*Class, bool) {
	if decl, ok := t.decls[instance]; ok {
		if typeName := declaredTypeName(decl.Declarator); typeName != "" {
			if cls, ok := t.classes[typeName]; ok {
				return cls, true
			}
		}
	}
	if cls, ok := t.classes[upperFirst(instance)]; ok {
		return cls, true
	}
	return nil, false
}

// declaredTypeName extracts the declared type of a variable from its
// declarator: the "type" attribute when present, else the first
// ReferenceType child.
func declaredTypeName(declarator *ast.Node) string {
	if declarator == nil {
		return ""
	}
	if typeName := declarator.StringAttr("type"); typeName != "" {
		return typeName
	}
	var found string
	declarator.Walk(func(node *ast.Node) bool {
		if node != declarator && node.Type == ast.TypeReferenceType {
			found = node.Name
			if found == "" {
				found = node.StringAttr("name")
			}
			return false
		}
		return true
	})
	return found
}

// ResolveStepTarget resolves the UI target referenced by one statement.
//
// Priority:
//  1. a page-object method call with an inferred target binding
//  2. a member reference resolving to a By.*-initialized declaration
//  3. a direct By.* invocation (named by its owning field when one exists,
//     else by its strategy)
//
// Returns false when nothing resolves; never errors.
func (t *Table) ResolveStepTarget(stmt *ast.Node) (Resolution, bool) {
	// 1. Page-object method calls.
	var res Resolution
	found := false
	stmt.Walk(func(node *ast.Node) bool {
		if node.Type != ast.TypeMethodInvocation {
			return true
		}
		qualifier := node.Qualifier()
		if qualifier == "" {
			return true
		}
		cls, ok := t.ClassOfInstance(qualifier)
		if !ok {
			return true
		}
		target, ok := cls.MethodTargets[node.Member()]
		if !ok {
			// The method body may be elided from the visible source; fall
			// back to name-pattern inference against the class's declared
			// fields.
			for _, candidate := range inferTargetCandidates(node.Member()) {
				if _, declared := cls.Fields[candidate]; declared {
					target, ok = candidate, true
					break
				}
			}
		}
		if !ok {
			return true
		}
		res = Resolution{TargetName: target, NodeID: t.locatorNodeID(cls, target)}
		found = true
		return false
	})
	if found {
		return res, true
	}

	// 2. Member references to locator declarations.
	stmt.Walk(func(node *ast.Node) bool {
		name := node.StringAttr("name")
		if name == "" {
			name = node.Member()
		}
		if name == "" {
			return true
		}
		decl, ok := t.decls[name]
		if !ok || decl.Initializer == nil || !IsLocatorNode(decl.Initializer) {
			return true
		}
		res = Resolution{TargetName: name, NodeID: decl.Initializer.ID}
		found = true
		return false
	})
	if found {
		return res, true
	}

	// 3. Inline By.* invocations.
	stmt.Walk(func(node *ast.Node) bool {
		if !IsLocatorNode(node) {
			return true
		}
		name := t.ownerByInit[node.ID]
		if name == "" {
			name = node.Member()
		}
		res = Resolution{TargetName: name, NodeID: node.ID}
		found = true
		return false
	})
	if found {
		return res, true
	}

	return Resolution{}, false
}

// locatorNodeID returns the id of the node holding a field's locator: the
// initializer when present, the declarator otherwise.
func (t *Table) locatorNodeID(cls *Class, fieldName string) string {
	decl, ok := cls.Fields[fieldName]
	if !ok {
		return ""
	}
	if decl.Initializer != nil {
		return decl.Initializer.ID
	}
	if decl.Declarator != nil {
		return decl.Declarator.ID
	}
	return ""
}
