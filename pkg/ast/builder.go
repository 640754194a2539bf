package ast

import (
	"fmt"
	"log/slog"
	"strings"
)

// Builder constructs canonical trees with deterministic per-run node ids.
//
// Id format: <lowercased type>_<sequence>. The sequence is scoped to one
// builder instance, so two builds of the same source produce identical ids.
//
// Usage:
//
//	b := ast.NewBuilder(logger)
//	root := b.MustNode(ast.TypeCompilationUnit, nil, nil)
//	class := b.MustNode(ast.TypeClassDeclaration, map[string]any{"name": "LoginPage"}, root)
//	tree, err := b.Build(root, "java", "LoginPage.java")
type Builder struct {
	counter int
	index   map[string]*Node
	logger  *slog.Logger
}

// NewBuilder creates a builder. A nil logger falls back to slog.Default().
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		index:  make(map[string]*Node),
		logger: logger,
	}
}

// Node creates a node and attaches it to parent when parent is non-nil.
// The "name" attribute, if present, is promoted to Node.Name.
func (b *Builder) Node(nodeType string, attributes map[string]any, parent *Node) (*Node, error) {
	id := b.nextID(nodeType)

	node, err := NewNode(id, nodeType)
	if err != nil {
		return nil, err
	}
	for k, v := range attributes {
		node.Attributes[k] = v
	}
	if name, ok := attributes["name"].(string); ok {
		node.Name = name
	}

	b.index[id] = node

	if parent != nil {
		if err := parent.AddChild(node); err != nil {
			return nil, err
		}
	}

	b.logger.Debug("created node", "id", id, "type", nodeType,
		"parent", parentID(parent))

	return node, nil
}

// MustNode is Node but panics on structural errors. Intended for adapters
// and tests that construct trees from known-good shapes.
func (b *Builder) MustNode(nodeType string, attributes map[string]any, parent *Node) *Node {
	node, err := b.Node(nodeType, attributes, parent)
	if err != nil {
		panic(err)
	}
	return node
}

// Lookup returns a previously created node by id.
func (b *Builder) Lookup(id string) (*Node, bool) {
	n, ok := b.index[id]
	return n, ok
}

// Build finalizes the tree, validating all structural invariants.
func (b *Builder) Build(root *Node, language, filePath string) (*Tree, error) {
	tree, err := NewTree(root, language, filePath)
	if err != nil {
		return nil, fmt.Errorf("finalizing tree for %s: %w", filePath, err)
	}
	b.logger.Debug("tree built", "file", filePath, "nodes", tree.NodeCount())
	return tree, nil
}

func (b *Builder) nextID(nodeType string) string {
	b.counter++
	return fmt.Sprintf("%s_%d", strings.ToLower(nodeType), b.counter)
}

func parentID(parent *Node) string {
	if parent == nil {
		return ""
	}
	return parent.ID
}
