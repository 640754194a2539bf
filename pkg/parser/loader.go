package parser

import (
	"encoding/json"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/testbridge/pkg/ast"
	"github.com/gnana997/testbridge/pkg/util"
)

// defaultTreeCacheSize bounds the number of parsed trees kept in memory.
// One tree per source file; test-automation repos rarely exceed this.
const defaultTreeCacheSize = 512

// typeAliases normalizes raw parser tags to canonical node types. Upstream
// parsers with snake_case grammars (tree-sitter style) emit the left-hand
// forms; javalang emits the canonical forms directly. Unknown tags pass
// through unchanged and are treated as opaque downstream.
var typeAliases = map[string]string{
	"compilation_unit":       ast.TypeCompilationUnit,
	"package_declaration":    ast.TypePackageDeclaration,
	"import_declaration":     ast.TypeImport,
	"class_declaration":      ast.TypeClassDeclaration,
	"method_declaration":     ast.TypeMethodDeclaration,
	"constructor_declaration": ast.TypeConstructorDeclaration,
	"field_declaration":      ast.TypeFieldDeclaration,
	"formal_parameter":       ast.TypeFormalParameter,
	"variable_declarator":    ast.TypeVariableDeclarator,
	"local_variable_declaration": ast.TypeLocalVariableDeclaration,
	"block_statement":        ast.TypeBlockStatement,
	"if_statement":           ast.TypeIfStatement,
	"return_statement":       ast.TypeReturnStatement,
	"expression_statement":   ast.TypeStatementExpression,
	"method_invocation":      ast.TypeMethodInvocation,
	"member_reference":       ast.TypeMemberReference,
	"annotation":             ast.TypeAnnotation,
	"literal":                ast.TypeLiteral,
}

// jsonNode mirrors the canonical AST JSON emitted by upstream parsers.
type jsonNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Name       string         `json:"name,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Children   []*jsonNode    `json:"children,omitempty"`
	Location   *ast.Location  `json:"location,omitempty"`
}

type jsonTree struct {
	Language string    `json:"language"`
	FilePath string    `json:"file_path"`
	Root     *jsonNode `json:"root"`
}

// CanonicalLoader loads canonical-AST JSON files produced by an upstream
// language parser.
//
// File contents are read through a memory-mapped cache; decoded trees are
// kept in an LRU so the watch loop can re-run the pipeline without
// re-decoding unchanged files.
type CanonicalLoader struct {
	files  util.FileCache
	trees  *lru.Cache[string, *ast.Tree]
	logger *slog.Logger
}

// NewCanonicalLoader creates a loader. A nil logger falls back to
// slog.Default().
func NewCanonicalLoader(logger *slog.Logger) (*CanonicalLoader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	trees, err := lru.New[string, *ast.Tree](defaultTreeCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating tree cache: %w", err)
	}
	return &CanonicalLoader{
		files:  util.NewFileCache(&util.FileCacheConfig{Logger: logger}),
		trees:  trees,
		logger: logger,
	}, nil
}

// Parse loads the canonical AST for filePath.
//
// The language argument is checked against the language recorded in the
// file when the file carries one; an empty language on either side matches
// anything.
func (l *CanonicalLoader) Parse(filePath, language string) (*ast.Tree, error) {
	if tree, ok := l.trees.Get(filePath); ok {
		return tree, nil
	}

	data, err := l.files.Read(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading AST file %q: %w", filePath, err)
	}

	var raw jsonTree
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding AST file %q: %w", filePath, err)
	}
	if raw.Root == nil {
		return nil, fmt.Errorf("AST file %q has no root node", filePath)
	}
	if language != "" && raw.Language != "" && raw.Language != language {
		return nil, fmt.Errorf("AST file %q is %s, expected %s", filePath, raw.Language, language)
	}

	root, err := convertNode(raw.Root)
	if err != nil {
		return nil, fmt.Errorf("converting AST file %q: %w", filePath, err)
	}

	treePath := raw.FilePath
	if treePath == "" {
		treePath = filePath
	}
	tree, err := ast.NewTree(root, raw.Language, treePath)
	if err != nil {
		return nil, fmt.Errorf("validating AST file %q: %w", filePath, err)
	}

	l.trees.Add(filePath, tree)
	l.logger.Debug("loaded canonical AST",
		"file", filePath,
		"language", tree.Language,
		"nodes", tree.NodeCount())

	return tree, nil
}

// Invalidate drops cached state for a file. Called by the watch loop when
// the file changes on disk.
func (l *CanonicalLoader) Invalidate(filePath string) {
	l.trees.Remove(filePath)
	l.files.Invalidate(filePath)
}

// Close releases the underlying file cache.
func (l *CanonicalLoader) Close() error {
	l.trees.Purge()
	return l.files.Close()
}

// convertNode turns a decoded JSON node into a canonical node, normalizing
// the type tag and wiring parent links.
func convertNode(raw *jsonNode) (*ast.Node, error) {
	node, err := ast.NewNode(raw.ID, normalizeType(raw.Type))
	if err != nil {
		return nil, err
	}
	node.Name = raw.Name
	node.Location = raw.Location
	for k, v := range raw.Attributes {
		node.Attributes[k] = v
	}
	if node.Name == "" {
		if name, ok := raw.Attributes["name"].(string); ok {
			node.Name = name
		}
	}

	for _, rawChild := range raw.Children {
		child, err := convertNode(rawChild)
		if err != nil {
			return nil, err
		}
		// Parent ids recorded by the upstream parser are replaced by the
		// links implied by nesting; AddChild rejects inconsistent input.
		child.ParentID = ""
		if err := node.AddChild(child); err != nil {
			return nil, err
		}
	}
	return node, nil
}

// normalizeType maps known raw tags to canonical types and preserves
// unknown tags verbatim.
func normalizeType(raw string) string {
	if canonical, ok := typeAliases[raw]; ok {
		return canonical
	}
	return raw
}
