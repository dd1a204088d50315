package schema

import (
	"fmt"
	"os"
	"path/filepath"
)

// Loader gathers schema sources from disk, following import statements.
// The compiler core itself never touches the filesystem; the loader is the
// host-side collaborator that resolves import names to text.
type Loader struct {
	// SearchPaths are directories to search for imported schemas, tried
	// after the importing file's own directory.
	SearchPaths []string

	seen map[string]bool
}

// NewLoader creates a loader with the given search paths.
func NewLoader(searchPaths ...string) *Loader {
	return &Loader{
		SearchPaths: searchPaths,
		seen:        make(map[string]bool),
	}
}

// Load reads the given schema files and, transitively, everything they
// import. Sources are returned in deterministic order: each file precedes
// the files it imports, duplicates are loaded once, and import cycles are
// broken silently (the cycle participant is already loaded).
func (l *Loader) Load(paths ...string) ([]Source, []error) {
	var sources []Source
	var errs []error
	for _, path := range paths {
		l.load(path, &sources, &errs)
	}
	return sources, errs
}

func (l *Loader) load(path string, sources *[]Source, errs *[]error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("failed to resolve path %s: %w", path, err))
		return
	}
	if l.seen[absPath] {
		return
	}
	l.seen[absPath] = true

	content, err := os.ReadFile(absPath)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("failed to read schema: %w", err))
		return
	}
	text := string(content)
	*sources = append(*sources, Source{Name: path, Text: text})

	// Parse just enough to discover imports. Parse diagnostics are left to
	// the real compile pass, which sees the same text.
	var scratch Diagnostics
	file := NewParser(NoFile, text, &scratch).ParseFile()

	baseDir := filepath.Dir(absPath)
	for _, imp := range file.Imports {
		resolved := l.resolveImport(imp.Path, baseDir)
		if resolved == "" {
			*errs = append(*errs, fmt.Errorf("%s: import not found: %s", path, imp.Path))
			continue
		}
		l.load(resolved, sources, errs)
	}
}

// resolveImport resolves an import path against the importing file's
// directory, then each search path.
func (l *Loader) resolveImport(importPath, baseDir string) string {
	candidate := filepath.Join(baseDir, importPath)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	for _, searchPath := range l.SearchPaths {
		candidate := filepath.Join(searchPath, importPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
