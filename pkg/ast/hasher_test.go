package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(t *testing.T) *Tree {
	t.Helper()
	b := NewBuilder(nil)
	root := b.MustNode(TypeCompilationUnit, nil, nil)
	cls := b.MustNode(TypeClassDeclaration, map[string]any{"name": "LoginPage"}, root)
	field := b.MustNode(TypeField, map[string]any{"name": "username"}, cls)
	b.MustNode(TypeMethodInvocation, map[string]any{"qualifier": "By", "member": "cssSelector"}, field)

	tree, err := b.Build(root, "java", "LoginPage.java")
	require.NoError(t, err)
	return tree
}

func TestHashTree_Deterministic(t *testing.T) {
	h := NewHasher()
	tree := sampleTree(t)
	assert.Equal(t, h.HashTree(tree), h.HashTree(tree))
}

func TestHashTree_IgnoresNodeIDs(t *testing.T) {
	h := NewHasher()
	a := sampleTree(t)

	// Same structure, different ids (fresh builder offsets the counter).
	b := NewBuilder(nil)
	b.MustNode(TypeImport, nil, nil) // consume one id
	root := b.MustNode(TypeCompilationUnit, nil, nil)
	cls := b.MustNode(TypeClassDeclaration, map[string]any{"name": "LoginPage"}, root)
	field := b.MustNode(TypeField, map[string]any{"name": "username"}, cls)
	b.MustNode(TypeMethodInvocation, map[string]any{"qualifier": "By", "member": "cssSelector"}, field)
	other, err := b.Build(root, "java", "Other.java")
	require.NoError(t, err)

	assert.Equal(t, h.HashTree(a), h.HashTree(other))
}

func TestHashTree_SensitiveToStructure(t *testing.T) {
	h := NewHasher()
	a := sampleTree(t)

	b := NewBuilder(nil)
	root := b.MustNode(TypeCompilationUnit, nil, nil)
	b.MustNode(TypeClassDeclaration, map[string]any{"name": "OtherPage"}, root)
	other, err := b.Build(root, "java", "OtherPage.java")
	require.NoError(t, err)

	assert.NotEqual(t, h.HashTree(a), h.HashTree(other))
}

func TestHashNode_AttributeOrderIndependent(t *testing.T) {
	h := NewHasher()

	x, _ := NewNode("x", TypeMethodInvocation)
	x.Attributes["qualifier"] = "By"
	x.Attributes["member"] = "id"

	y, _ := NewNode("y", TypeMethodInvocation)
	y.Attributes["member"] = "id"
	y.Attributes["qualifier"] = "By"

	assert.Equal(t, h.HashNode(x), h.HashNode(y))
}
