// Package testutil holds shared helpers for the architecture tests that keep
// package boundaries honest: the domain package stays free of internal
// imports, and infra drivers are only reached through their facades.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// InternalImportForbidden matches any import path inside this module's
// internal tree. The domain package uses it to prove it has no upward deps.
func InternalImportForbidden(path string) bool {
	return strings.HasPrefix(path, "culturecore/internal/")
}

// PrefixForbidden builds a predicate matching any import path equal to one of
// the given prefixes or nested below it.
func PrefixForbidden(prefixes ...string) func(string) bool {
	return func(path string) bool {
		for _, p := range prefixes {
			if path == p || strings.HasPrefix(path, p+"/") {
				return true
			}
		}
		return false
	}
}

// AssertNoDirectImports parses all non-test .go files directly in dir and
// fails if any import path satisfies forbidden. Subdirectories are not
// scanned and build tags are not honored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := scanDirectImports(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

// AssertNoPackageImports loads every package matching pattern and fails if a
// package outside the allowed set imports a path satisfying forbidden. Use it
// to pin facade boundaries, e.g. only internal/blob may import the blob infra
// drivers.
func AssertNoPackageImports(t testing.TB, pattern string, allowed func(pkgPath string) bool, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, pattern)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	var viols []string
	for _, pkg := range pkgs {
		if allowed != nil && allowed(pkg.PkgPath) {
			continue
		}
		for importPath := range pkg.Imports {
			if forbidden(importPath) {
				viols = append(viols, pkg.PkgPath+" imports "+importPath)
			}
		}
	}
	if len(viols) > 0 {
		sort.Strings(viols)
		t.Fatalf("forbidden package imports (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}

func scanDirectImports(dir string, forbidden func(string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		fileAst, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range fileAst.Imports {
			ip := strings.Trim(imp.Path.Value, `"`)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}
