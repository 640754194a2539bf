// Package ast defines the canonical, language-agnostic AST consumed by the
// extraction pipeline.
//
// The model is structural only: nodes carry a type tag, a name, and a
// free-form attribute bag. No semantic logic lives here — symbol resolution
// and extraction are built on top of this contract.
package ast

import (
	"fmt"
)

// Canonical node types. An upstream parser may emit additional types; the
// extractors treat anything outside this set as opaque.
const (
	TypeCompilationUnit         = "CompilationUnit"
	TypePackageDeclaration      = "PackageDeclaration"
	TypeImport                  = "Import"
	TypeClassDeclaration        = "ClassDeclaration"
	TypeMethodDeclaration       = "MethodDeclaration"
	TypeConstructorDeclaration  = "ConstructorDeclaration"
	TypeFieldDeclaration        = "FieldDeclaration"
	TypeFormalParameter         = "FormalParameter"
	TypeVariableDeclarator      = "VariableDeclarator"
	TypeLocalVariableDeclaration = "LocalVariableDeclaration"
	TypeBlockStatement          = "BlockStatement"
	TypeIfStatement             = "IfStatement"
	TypeReturnStatement         = "ReturnStatement"
	TypeStatementExpression     = "StatementExpression"
	TypeAssignment              = "Assignment"
	TypeBinaryOperation         = "BinaryOperation"
	TypeMethodInvocation        = "MethodInvocation"
	TypeMemberReference         = "MemberReference"
	TypeReferenceType           = "ReferenceType"
	TypeBasicType               = "BasicType"
	TypeLiteral                 = "Literal"
	TypeThis                    = "This"
	TypeAnnotation              = "Annotation"

	// Derived declarator tags emitted by language adapters so that
	// symbol-table code can match declarations uniformly.
	TypeField     = "field"
	TypeVariable  = "variable"
	TypeParameter = "parameter"
)

// StructuralError reports a violated AST invariant: a self-cycle, a
// parent-id mismatch, a duplicate id, or an empty type tag. Structural
// errors are fatal for the project being processed.
type StructuralError struct {
	NodeID string
	Msg    string
}

func (e *StructuralError) Error() string {
	if e.NodeID == "" {
		return fmt.Sprintf("ast: structural violation: %s", e.Msg)
	}
	return fmt.Sprintf("ast: structural violation at node %s: %s", e.NodeID, e.Msg)
}

// Location is a source position. All fields optional; zero means unknown.
type Location struct {
	FilePath    string `json:"file_path,omitempty"`
	StartLine   int    `json:"start_line,omitempty"`
	StartColumn int    `json:"start_column,omitempty"`
	EndLine     int    `json:"end_line,omitempty"`
	EndColumn   int    `json:"end_column,omitempty"`
}

// Node is a node in the canonical tree.
//
// Children are owned; ParentID is a non-owning back reference kept
// consistent by AddChild. Attributes carry language-specific metadata such
// as "member", "qualifier", "operator" and "modifiers".
type Node struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	ParentID   string         `json:"parent_id,omitempty"`
	Children   []*Node        `json:"children,omitempty"`
	Location   *Location      `json:"location,omitempty"`
}

// NewNode constructs a node, validating the non-structural invariants
// (non-empty id and type).
func NewNode(id, nodeType string) (*Node, error) {
	if id == "" {
		return nil, &StructuralError{Msg: "node id cannot be empty"}
	}
	if nodeType == "" {
		return nil, &StructuralError{NodeID: id, Msg: "node type cannot be empty"}
	}
	return &Node{
		ID:         id,
		Type:       nodeType,
		Attributes: map[string]any{},
	}, nil
}

// AddChild attaches a child node, setting its ParentID.
// Fails on self-attachment or when the child already belongs to another
// parent.
func (n *Node) AddChild(child *Node) error {
	if child == nil {
		return &StructuralError{NodeID: n.ID, Msg: "cannot attach nil child"}
	}
	if child.ID == n.ID {
		return &StructuralError{NodeID: n.ID, Msg: "cannot attach node to itself"}
	}
	if child.ParentID != "" && child.ParentID != n.ID {
		return &StructuralError{
			NodeID: child.ID,
			Msg:    fmt.Sprintf("parent_id mismatch (already owned by %s, attaching to %s)", child.ParentID, n.ID),
		}
	}
	child.ParentID = n.ID
	n.Children = append(n.Children, child)
	return nil
}

// Walk visits the subtree rooted at n depth-first, pre-order. Returning
// false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) {
	n.walk(fn)
}

func (n *Node) walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, child := range n.Children {
		if !child.walk(fn) {
			return false
		}
	}
	return true
}

// Nodes returns the subtree in pre-order.
func (n *Node) Nodes() []*Node {
	var out []*Node
	n.Walk(func(node *Node) bool {
		out = append(out, node)
		return true
	})
	return out
}

// StringAttr returns the named attribute as a string, or "" when absent or
// not a string.
func (n *Node) StringAttr(key string) string {
	if n.Attributes == nil {
		return ""
	}
	if v, ok := n.Attributes[key].(string); ok {
		return v
	}
	return ""
}

// Member returns the "member" attribute (method or field name on an
// invocation or reference).
func (n *Node) Member() string { return n.StringAttr("member") }

// Qualifier returns the "qualifier" attribute (the receiver expression name
// on an invocation, e.g. "By", "driver", "loginPage").
func (n *Node) Qualifier() string { return n.StringAttr("qualifier") }

// Validate re-checks the structural invariants over the whole subtree:
// unique ids, parent-child consistency, no self-cycles, non-empty types.
func (n *Node) Validate() error {
	seen := make(map[string]bool)
	return n.validate(seen)
}

func (n *Node) validate(seen map[string]bool) error {
	if n.ID == "" {
		return &StructuralError{Msg: "node id cannot be empty"}
	}
	if n.Type == "" {
		return &StructuralError{NodeID: n.ID, Msg: "node type cannot be empty"}
	}
	if seen[n.ID] {
		return &StructuralError{NodeID: n.ID, Msg: "duplicate node id"}
	}
	seen[n.ID] = true

	for _, child := range n.Children {
		if child == nil {
			return &StructuralError{NodeID: n.ID, Msg: "nil child"}
		}
		if child.ID == n.ID {
			return &StructuralError{NodeID: n.ID, Msg: "node is its own child"}
		}
		if child.ParentID != n.ID {
			return &StructuralError{
				NodeID: child.ID,
				Msg:    fmt.Sprintf("parent_id mismatch (expected %s, got %s)", n.ID, child.ParentID),
			}
		}
		if err := child.validate(seen); err != nil {
			return err
		}
	}
	return nil
}

// Tree wraps a root node together with its source language and file path.
type Tree struct {
	Root     *Node  `json:"root"`
	Language string `json:"language"`
	FilePath string `json:"file_path"`
}

// NewTree constructs a tree and validates the whole structure.
func NewTree(root *Node, language, filePath string) (*Tree, error) {
	if root == nil {
		return nil, &StructuralError{Msg: "tree must have a root node"}
	}
	if filePath == "" {
		return nil, &StructuralError{NodeID: root.ID, Msg: "tree file_path cannot be empty"}
	}
	if err := root.Validate(); err != nil {
		return nil, err
	}
	return &Tree{Root: root, Language: language, FilePath: filePath}, nil
}

// Walk visits every node in the tree depth-first, pre-order.
func (t *Tree) Walk(fn func(*Node) bool) {
	t.Root.Walk(fn)
}

// Nodes returns all nodes in pre-order.
func (t *Tree) Nodes() []*Node {
	return t.Root.Nodes()
}

// NodeCount returns the total number of nodes.
func (t *Tree) NodeCount() int {
	return len(t.Nodes())
}
