package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/testbridge/pkg/ir"
)

// rebuildCollector records watcher rebuild outcomes.
type rebuildCollector struct {
	mu      sync.Mutex
	bundles []*ir.Bundle
	errs    []error
}

func (c *rebuildCollector) collect(b *ir.Bundle, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bundles = append(c.bundles, b)
	c.errs = append(c.errs, err)
}

func (c *rebuildCollector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bundles)
}

func (c *rebuildCollector) last() (*ir.Bundle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bundles[len(c.bundles)-1], c.errs[len(c.errs)-1]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcher_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeAST(t, dir, "login.ast.json", loginFlowAST())

	p := newTestPipeline(t)
	collector := &rebuildCollector{}

	w, err := NewWatcher(p, testConfig(dir), WatchOptions{DebounceMs: 50}, collector.collect, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// Initial build fires synchronously from Start.
	require.GreaterOrEqual(t, collector.count(), 1)
	first, err := collector.last()
	require.NoError(t, err)
	require.Len(t, first.Targets, 2)

	// Change the source: drop the loginButton field.
	doc := loginFlowAST()
	root := doc["root"].(map[string]any)
	page := root["children"].([]any)[0].(map[string]any)
	fields := page["children"].([]any)
	page["children"] = append(fields[:1], fields[2:]...) // remove f_2
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	waitFor(t, 5*time.Second, func() bool { return collector.count() >= 2 })

	second, err := collector.last()
	require.NoError(t, err)
	assert.Len(t, second.Targets, 1)
}

func TestWatcher_NoSourceFiles(t *testing.T) {
	p := newTestPipeline(t)
	w, err := NewWatcher(p, Config{
		ProjectName: "demo",
		SourceFiles: []string{filepath.Join(t.TempDir(), "*.ast.json")},
	}, DefaultWatchOptions(), nil, nil)
	require.NoError(t, err)

	err = w.Start()
	require.Error(t, err)
	var cfgErr *ir.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
