// FileCache provides fast read access to source and AST files using
// memory-mapped files.
//
// The canonical-AST loader and the watch loop re-read the same files many
// times per session; mapping them once and slicing is much cheaper than
// repeated os.ReadFile calls. Only accessed pages are loaded into RAM.
//
// Safety:
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive loads)
package util

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/edsrzf/mmap-go"
)

// FileCache caches file contents keyed by path.
//
// Thread-safe: multiple goroutines can call methods concurrently.
type FileCache interface {
	// Read returns the full contents of the file, mapping it on first access.
	//
	// The returned slice aliases the mapped region and must not be mutated
	// or retained past Close.
	Read(filePath string) ([]byte, error)

	// Invalidate drops a cached entry, unmapping it. Used by the watch loop
	// when a source file changes on disk.
	Invalidate(filePath string)

	// Size returns the number of currently cached files.
	Size() int

	// Close unmaps all files and releases resources.
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep cached.
	// 0 means unlimited.
	MaxFiles int

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig covers typical test-automation repositories
// (hundreds to a few thousand source files).
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles: 10000,
	}
}

type mappedFile struct {
	data mmap.MMap
	file *os.File // nil for fallback entries
}

// NewFileCache creates a new FileCache with the given config.
// If config is nil, uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &fileCacheImpl{
		config: config,
		cache:  make(map[string]*mappedFile),
		logger: config.Logger,
	}
}

type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache map[string]*mappedFile
	mu    sync.RWMutex
}

func (fc *fileCacheImpl) Read(filePath string) ([]byte, error) {
	// Fast path: already cached (RLock allows parallel reads).
	fc.mu.RLock()
	if mf, ok := fc.cache[filePath]; ok {
		fc.mu.RUnlock()
		return mf.data, nil
	}
	fc.mu.RUnlock()

	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check: another goroutine may have loaded it while we waited.
	if mf, ok := fc.cache[filePath]; ok {
		return mf.data, nil
	}

	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		return nil, fmt.Errorf("file cache limit reached: %d files (limit %d)",
			len(fc.cache), fc.config.MaxFiles)
	}

	mf, err := fc.loadFile(filePath)
	if err != nil {
		return nil, err
	}
	fc.cache[filePath] = mf
	return mf.data, nil
}

// loadFile opens and mmaps a file, falling back to os.ReadFile if mmap fails.
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) loadFile(filePath string) (*mappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	// Empty files can't be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &mappedFile{data: nil}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback",
			"file", filePath,
			"size", stat.Size(),
			"error", err)
		file.Close()

		raw, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap and fallback both failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		return &mappedFile{data: mmap.MMap(raw)}, nil
	}

	return &mappedFile{data: data, file: file}, nil
}

func (fc *fileCacheImpl) Invalidate(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	mf, ok := fc.cache[filePath]
	if !ok {
		return
	}
	delete(fc.cache, filePath)
	fc.release(filePath, mf)
}

func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()
	return len(fc.cache)
}

func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for path, mf := range fc.cache {
		if err := fc.release(path, mf); err != nil {
			errs = append(errs, err)
		}
	}
	fc.cache = make(map[string]*mappedFile)

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// release unmaps and closes one entry. Must be called while holding mu.Lock.
func (fc *fileCacheImpl) release(path string, mf *mappedFile) error {
	var firstErr error
	if mf.file != nil {
		// Mapped entry: unmap then close the descriptor.
		if err := mf.data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap file", "path", path, "error", err)
			firstErr = fmt.Errorf("unmap %q: %w", path, err)
		}
		if err := mf.file.Close(); err != nil {
			fc.logger.Warn("failed to close file", "path", path, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("close %q: %w", path, err)
			}
		}
	}
	return firstErr
}
