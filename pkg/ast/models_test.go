package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode_EmptyID(t *testing.T) {
	_, err := NewNode("", TypeLiteral)
	require.Error(t, err)
	assert.IsType(t, &StructuralError{}, err)
}

func TestNewNode_EmptyType(t *testing.T) {
	_, err := NewNode("n1", "")
	require.Error(t, err)
	assert.IsType(t, &StructuralError{}, err)
}

func TestAddChild_SetsParentID(t *testing.T) {
	parent, err := NewNode("p", TypeClassDeclaration)
	require.NoError(t, err)
	child, err := NewNode("c", TypeMethodDeclaration)
	require.NoError(t, err)

	require.NoError(t, parent.AddChild(child))
	assert.Equal(t, "p", child.ParentID)
	require.Len(t, parent.Children, 1)
	assert.Same(t, child, parent.Children[0])
}

func TestAddChild_SelfCycle(t *testing.T) {
	node, err := NewNode("n", TypeClassDeclaration)
	require.NoError(t, err)

	err = node.AddChild(node)
	require.Error(t, err)
	assert.IsType(t, &StructuralError{}, err)
}

func TestAddChild_ParentMismatch(t *testing.T) {
	a, _ := NewNode("a", TypeClassDeclaration)
	b, _ := NewNode("b", TypeClassDeclaration)
	child, _ := NewNode("c", TypeMethodDeclaration)

	require.NoError(t, a.AddChild(child))
	err := b.AddChild(child)
	require.Error(t, err)
	assert.IsType(t, &StructuralError{}, err)
}

func TestValidate_DuplicateID(t *testing.T) {
	root, _ := NewNode("r", TypeCompilationUnit)
	a, _ := NewNode("dup", TypeClassDeclaration)
	b, _ := NewNode("dup", TypeClassDeclaration)
	require.NoError(t, root.AddChild(a))
	require.NoError(t, root.AddChild(b))

	err := root.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate node id")
}

func TestWalk_PreOrder(t *testing.T) {
	b := NewBuilder(nil)
	root := b.MustNode(TypeCompilationUnit, nil, nil)
	cls := b.MustNode(TypeClassDeclaration, map[string]any{"name": "A"}, root)
	b.MustNode(TypeFieldDeclaration, nil, cls)
	b.MustNode(TypeMethodDeclaration, map[string]any{"name": "m"}, cls)
	b.MustNode(TypeImport, nil, root)

	var order []string
	root.Walk(func(n *Node) bool {
		order = append(order, n.Type)
		return true
	})
	assert.Equal(t, []string{
		TypeCompilationUnit,
		TypeClassDeclaration,
		TypeFieldDeclaration,
		TypeMethodDeclaration,
		TypeImport,
	}, order)
}

// Structural closure: every node's parent_id equals the id of the unique
// node listing it as a child.
func TestStructuralClosure(t *testing.T) {
	b := NewBuilder(nil)
	root := b.MustNode(TypeCompilationUnit, nil, nil)
	cls := b.MustNode(TypeClassDeclaration, map[string]any{"name": "LoginPage"}, root)
	field := b.MustNode(TypeField, map[string]any{"name": "username"}, cls)
	b.MustNode(TypeMethodInvocation, map[string]any{"qualifier": "By", "member": "cssSelector"}, field)

	tree, err := b.Build(root, "java", "LoginPage.java")
	require.NoError(t, err)

	parentOf := make(map[string]string)
	tree.Walk(func(n *Node) bool {
		for _, c := range n.Children {
			parentOf[c.ID] = n.ID
		}
		return true
	})
	tree.Walk(func(n *Node) bool {
		if n.ParentID != "" {
			assert.Equal(t, parentOf[n.ID], n.ParentID, "node %s", n.ID)
		}
		return true
	})
}

func TestNewTree_RequiresFilePath(t *testing.T) {
	root, _ := NewNode("r", TypeCompilationUnit)
	_, err := NewTree(root, "java", "")
	require.Error(t, err)
	assert.IsType(t, &StructuralError{}, err)
}

func TestNewTree_RequiresRoot(t *testing.T) {
	_, err := NewTree(nil, "java", "A.java")
	require.Error(t, err)
}

func TestBuilder_DeterministicIDs(t *testing.T) {
	build := func() []string {
		b := NewBuilder(nil)
		root := b.MustNode(TypeCompilationUnit, nil, nil)
		cls := b.MustNode(TypeClassDeclaration, nil, root)
		b.MustNode(TypeField, nil, cls)
		var ids []string
		root.Walk(func(n *Node) bool {
			ids = append(ids, n.ID)
			return true
		})
		return ids
	}
	assert.Equal(t, build(), build())
	assert.Equal(t, []string{"compilationunit_1", "classdeclaration_2", "field_3"}, build())
}

func TestStringAttr(t *testing.T) {
	n, _ := NewNode("n", TypeMethodInvocation)
	n.Attributes["member"] = "click"
	n.Attributes["count"] = 3

	assert.Equal(t, "click", n.Member())
	assert.Equal(t, "", n.StringAttr("count"))
	assert.Equal(t, "", n.StringAttr("missing"))
}
