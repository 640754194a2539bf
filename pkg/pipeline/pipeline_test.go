package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/testbridge/pkg/ir"
	"github.com/gnana997/testbridge/pkg/parser"
)

// node builds one canonical-AST JSON node.
func node(id, typ string, attrs map[string]any, children ...any) map[string]any {
	n := map[string]any{"id": id, "type": typ}
	if len(attrs) > 0 {
		n["attributes"] = attrs
	}
	if len(children) > 0 {
		n["children"] = children
	}
	return n
}

// loginFlowAST is one source file holding a page object and the test class
// exercising it.
func loginFlowAST() map[string]any {
	return map[string]any{
		"language":  "java",
		"file_path": "src/LoginFlow.java",
		"root": node("cu_1", "CompilationUnit", nil,
			node("cls_1", "ClassDeclaration", map[string]any{"name": "LoginPage"},
				node("f_1", "field", map[string]any{"name": "emailInput"},
					node("loc_1", "MethodInvocation", map[string]any{"qualifier": "By", "member": "cssSelector"},
						node("lit_1", "Literal", map[string]any{"value": `"#email"`}))),
				node("f_2", "field", map[string]any{"name": "loginButton"},
					node("loc_2", "MethodInvocation", map[string]any{"qualifier": "By", "member": "id"},
						node("lit_2", "Literal", map[string]any{"value": `"login-btn"`}))),
				node("m_1", "MethodDeclaration", map[string]any{"name": "enterEmail"},
					node("p_1", "parameter", map[string]any{"name": "email"}),
					node("s_1", "StatementExpression", nil,
						node("i_1", "MethodInvocation", map[string]any{"qualifier": "driver", "member": "findElement"},
							node("r_1", "MemberReference", map[string]any{"member": "emailInput"})))),
			),
			node("cls_2", "ClassDeclaration", map[string]any{"name": "LoginTest"},
				node("f_3", "field", map[string]any{"name": "loginPage"},
					node("rt_1", "ReferenceType", map[string]any{"name": "LoginPage"})),
				node("m_2", "MethodDeclaration", map[string]any{"name": "testLogin"},
					node("a_1", "Annotation", map[string]any{"name": "Test"}),
					node("s_2", "StatementExpression", nil,
						node("i_2", "MethodInvocation", map[string]any{"qualifier": "loginPage", "member": "enterEmail"},
							node("lit_3", "Literal", map[string]any{"value": `"john@test.com"`}))),
					node("s_3", "StatementExpression", nil,
						node("i_3", "MethodInvocation", map[string]any{"qualifier": "loginPage", "member": "clickLogin"})),
				),
			),
		),
	}
}

func checkoutFlowAST() map[string]any {
	return map[string]any{
		"language":  "java",
		"file_path": "src/CheckoutFlow.java",
		"root": node("cu_1", "CompilationUnit", nil,
			node("cls_1", "ClassDeclaration", map[string]any{"name": "CheckoutPage"},
				node("f_1", "field", map[string]any{"name": "payButton"},
					node("loc_1", "MethodInvocation", map[string]any{"qualifier": "By", "member": "cssSelector"},
						node("lit_1", "Literal", map[string]any{"value": `"#pay"`}))),
			),
			node("cls_2", "ClassDeclaration", map[string]any{"name": "CheckoutTest"},
				node("f_2", "field", map[string]any{"name": "checkoutPage"},
					node("rt_1", "ReferenceType", map[string]any{"name": "CheckoutPage"})),
				node("m_1", "MethodDeclaration", map[string]any{"name": "testPay"},
					node("a_1", "Annotation", map[string]any{"name": "Test"}),
					node("s_1", "StatementExpression", nil,
						node("i_1", "MethodInvocation", map[string]any{"qualifier": "checkoutPage", "member": "clickPay"})),
				),
			),
		),
	}
}

func writeAST(t *testing.T, dir, name string, doc map[string]any) string {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testConfig(dir string) Config {
	return Config{
		ProjectName:         "demo",
		SourceFramework:     "selenium-java",
		TargetFramework:     "playwright",
		ArchitecturePattern: "page-object-model",
		SupportsParallel:    true,
		CreatedOn:           "2025-06-01T00:00:00Z",
		SourceLanguage:      "java",
		SourceFiles:         []string{filepath.Join(dir, "*.ast.json")},
		Environment: ir.Environment{
			BaseURLs:      map[string]string{"dev": "https://dev.example.com"},
			ExecutionMode: "local",
			Browsers:      []string{"chromium"},
			Timeouts:      ir.Timeouts{Implicit: 5000, Explicit: 10000, PageLoad: 30000},
			RetryPolicy:   ir.RetryPolicy{Enabled: true, MaxRetries: 2},
		},
	}
}

func newTestPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	loader, err := parser.NewCanonicalLoader(nil)
	require.NoError(t, err)
	t.Cleanup(func() { loader.Close() })

	p, err := New(loader, nil, opts...)
	require.NoError(t, err)
	return p
}

func TestRun_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeAST(t, dir, "login.ast.json", loginFlowAST())

	p := newTestPipeline(t)
	bundle, err := p.Run(testConfig(dir))
	require.NoError(t, err)

	// Targets harvested and sorted by (page, name).
	require.Len(t, bundle.Targets, 2)
	assert.Equal(t, "Email Input", bundle.Targets[0].Semantic.BusinessName)
	assert.Equal(t, "Login Button", bundle.Targets[1].Semantic.BusinessName)

	// One suite per test class; one test with two resolved steps.
	require.Len(t, bundle.Suites, 1)
	require.Len(t, bundle.Tests, 1)

	test := bundle.Tests[0]
	assert.Equal(t, "testLogin", test.Name)
	assert.Equal(t, bundle.Suites[0].SuiteID, test.SuiteID)

	require.Len(t, test.Steps, 2)
	assert.Equal(t, "enterEmail", test.Steps[0].Action)
	require.NotNil(t, test.Steps[0].TargetID)
	assert.Equal(t, ir.TargetID("LoginPage", "emailInput", "css", "#email"), *test.Steps[0].TargetID)

	// clickLogin has no body in the tree; the click→Button pattern binds
	// loginButton at resolution time.
	assert.Equal(t, "clickLogin", test.Steps[1].Action)
	require.NotNil(t, test.Steps[1].TargetID)
	assert.Equal(t, ir.TargetID("LoginPage", "loginButton", "id", "login-btn"), *test.Steps[1].TargetID)

	assert.Equal(t, map[string]any{"value": "john@test.com"}, test.Steps[0].Parameters)
}

func TestRun_MultipleFilesParallel(t *testing.T) {
	dir := t.TempDir()
	writeAST(t, dir, "login.ast.json", loginFlowAST())
	writeAST(t, dir, "checkout.ast.json", checkoutFlowAST())

	p := newTestPipeline(t, WithWorkers(4))
	bundle, err := p.Run(testConfig(dir))
	require.NoError(t, err)

	assert.Len(t, bundle.Targets, 3)
	assert.Len(t, bundle.Suites, 2)
	assert.Len(t, bundle.Tests, 2)

	// Files join in sorted path order: checkout before login.
	assert.Equal(t, "testPay", bundle.Tests[0].Name)
	assert.Equal(t, "testLogin", bundle.Tests[1].Name)
}

// Idempotent build: running the full pipeline twice on the same input
// produces byte-identical output.
func TestRunAndWrite_Idempotent(t *testing.T) {
	dir := t.TempDir()
	writeAST(t, dir, "login.ast.json", loginFlowAST())
	writeAST(t, dir, "checkout.ast.json", checkoutFlowAST())

	cfg := testConfig(dir)
	out1 := t.TempDir()
	out2 := t.TempDir()

	p1 := newTestPipeline(t)
	_, err := p1.RunAndWrite(cfg, out1)
	require.NoError(t, err)

	p2 := newTestPipeline(t)
	_, err = p2.RunAndWrite(cfg, out2)
	require.NoError(t, err)

	var files []string
	require.NoError(t, filepath.Walk(out1, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, _ := filepath.Rel(out1, path)
			files = append(files, rel)
		}
		return nil
	}))
	require.NotEmpty(t, files)

	for _, rel := range files {
		a, err := os.ReadFile(filepath.Join(out1, rel))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(out2, rel))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b), rel)
	}
}

func TestRun_MissingProjectName(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.Run(Config{})
	require.Error(t, err)
	var cfgErr *ir.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_NoSourceFiles(t *testing.T) {
	p := newTestPipeline(t)
	_, err := p.Run(Config{
		ProjectName: "demo",
		SourceFiles: []string{filepath.Join(t.TempDir(), "*.ast.json")},
	})
	require.Error(t, err)
	var cfgErr *ir.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRun_BundleCarriesWarnings(t *testing.T) {
	dir := t.TempDir()
	doc := map[string]any{
		"language":  "java",
		"file_path": "src/MagicTest.java",
		"root": node("cu_1", "CompilationUnit", nil,
			node("cls_1", "ClassDeclaration", map[string]any{"name": "MagicTest"},
				node("m_1", "MethodDeclaration", map[string]any{"name": "testMagic"},
					node("a_1", "Annotation", map[string]any{"name": "Test"}),
					node("s_1", "StatementExpression", nil,
						node("i_1", "MethodInvocation", map[string]any{"qualifier": "helperLib", "member": "doMagic"})),
				),
			),
		),
	}
	writeAST(t, dir, "magic.ast.json", doc)

	p := newTestPipeline(t)
	bundle, err := p.Run(testConfig(dir))
	require.NoError(t, err)

	require.Len(t, bundle.Tests, 1)
	require.Len(t, bundle.Tests[0].Steps, 1)
	assert.Nil(t, bundle.Tests[0].Steps[0].TargetID)
	require.NotEmpty(t, bundle.Diagnostics)
}
