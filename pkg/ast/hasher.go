package ast

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gnana997/testbridge/pkg/util"
)

// Hasher computes deterministic structural hashes of canonical trees.
//
// Hashes are bottom-up: a node's hash covers its type, its sorted
// attributes, and the ordered hashes of its children. Node ids, parent
// references and locations are excluded, so two structurally identical
// trees hash equal regardless of how they were built.
//
// The extractor records each tree's hash on its FileResult. The watch loop
// does not compare these hashes: every rebuild re-extracts every file.
type Hasher struct{}

// NewHasher creates a structural hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// HashTree returns the structural hash of the whole tree.
func (h *Hasher) HashTree(tree *Tree) string {
	return h.HashNode(tree.Root)
}

// HashNode returns the structural hash of the subtree rooted at node.
func (h *Hasher) HashNode(node *Node) string {
	childHashes := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		childHashes = append(childHashes, h.HashNode(child))
	}

	payload := structuralPayload(node, childHashes)
	return fmt.Sprintf("%016x", util.Hash64(payload))
}

// structuralPayload builds the canonical serialized form hashed for one
// node. Attributes are serialized in sorted key order.
func structuralPayload(node *Node, childHashes []string) string {
	keys := make([]string, 0, len(node.Attributes))
	for k := range node.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		attrs = append(attrs, k, node.Attributes[k])
	}

	// JSON is used only as a stable encoding; the payload is never parsed.
	raw, err := json.Marshal([]any{node.Type, attrs, childHashes})
	if err != nil {
		// Attributes are restricted to JSON-serializable values by the
		// loader; a marshal failure means a programming error upstream.
		panic(fmt.Sprintf("ast: unhashable node %s: %v", node.ID, err))
	}
	return string(raw)
}
