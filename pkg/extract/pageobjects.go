package extract

import (
	"log/slog"
	"sort"

	"github.com/gnana997/testbridge/pkg/symtab"
)

// PageObjectExtractor lists the page-object classes discovered by the
// symbol table: classes with at least one By.*-initialized field. The
// action mapper consults this metadata to decide whether a call qualifier
// refers to a page object.
type PageObjectExtractor struct {
	logger *slog.Logger
}

// NewPageObjectExtractor creates a page-object extractor.
func NewPageObjectExtractor(logger *slog.Logger) *PageObjectExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageObjectExtractor{logger: logger}
}

// Extract returns page-object metadata in deterministic (name) order.
func (e *PageObjectExtractor) Extract(table *symtab.Table) []PageObject {
	var pages []PageObject
	for _, cls := range table.Classes() {
		if !cls.IsPageObject {
			continue
		}
		pages = append(pages, PageObject{
			Name:    cls.Name,
			Fields:  sortedKeys(cls.Fields),
			Methods: sortedMethodNames(cls.Methods),
		})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Name < pages[j].Name })

	e.logger.Debug("page-object extraction completed", "pages", len(pages))
	return pages
}

func sortedKeys(m map[string]symtab.Declaration) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedMethodNames[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
