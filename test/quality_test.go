package test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// getProjectRoot returns the project root directory based on this test file's location.
func getProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "."
	}
	return filepath.Dir(filepath.Dir(filename))
}

// walkGoFiles calls fn for every Go file of the module. Hidden directories,
// vendor, testdata and directories starting with '_' are not part of the
// module and are skipped.
func walkGoFiles(t *testing.T, fn func(path string)) {
	t.Helper()
	root := getProjectRoot()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".go") {
			fn(path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk directory: %v", err)
	}
}

func parseFile(t *testing.T, fset *token.FileSet, path string) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(fset, path, nil, 0)
	if err != nil {
		t.Fatalf("Failed to parse %s: %v", path, err)
	}
	return f
}

// TestNoSkippedTests ensures no test calls t.Skip, t.Skipf or t.SkipNow.
// A test either passes or fails.
func TestNoSkippedTests(t *testing.T) {
	fset := token.NewFileSet()
	var violations []string

	walkGoFiles(t, func(path string) {
		if !strings.HasSuffix(path, "_test.go") {
			return
		}
		ast.Inspect(parseFile(t, fset, path), func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			switch sel.Sel.Name {
			case "Skip", "Skipf", "SkipNow":
				violations = append(violations, fset.Position(sel.Pos()).String()+": "+sel.Sel.Name)
			case "Short":
				if id, ok := sel.X.(*ast.Ident); ok && id.Name == "testing" {
					violations = append(violations, fset.Position(sel.Pos()).String()+": testing.Short")
				}
			}
			return true
		})
	})

	if len(violations) > 0 {
		t.Errorf("Found %d test skip violation(s):", len(violations))
		for _, v := range violations {
			t.Errorf("  %s", v)
		}
	}
}

// TestNoEmptyTests ensures every Test function has a body.
func TestNoEmptyTests(t *testing.T) {
	fset := token.NewFileSet()
	count := 0
	var empty []string

	walkGoFiles(t, func(path string) {
		if !strings.HasSuffix(path, "_test.go") {
			return
		}
		for _, decl := range parseFile(t, fset, path).Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || !strings.HasPrefix(fn.Name.Name, "Test") {
				continue
			}
			count++
			if fn.Body == nil || len(fn.Body.List) == 0 {
				empty = append(empty, fset.Position(fn.Pos()).String()+": "+fn.Name.Name)
			}
		}
	})

	if count == 0 {
		t.Fatal("No test functions found - something is wrong with test discovery")
	}
	for _, e := range empty {
		t.Errorf("Empty test: %s", e)
	}
	t.Logf("Found %d test functions", count)
}

// TestEveryPackageHasTests ensures each library package ships with tests.
func TestEveryPackageHasTests(t *testing.T) {
	root := getProjectRoot()
	entries, err := os.ReadDir(filepath.Join(root, "pkg"))
	if err != nil {
		t.Fatalf("Failed to read pkg/: %v", err)
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		tests, err := filepath.Glob(filepath.Join(root, "pkg", e.Name(), "*_test.go"))
		if err != nil {
			t.Fatalf("Glob failed: %v", err)
		}
		if len(tests) == 0 {
			t.Errorf("pkg/%s has no tests", e.Name())
		}
	}
}

// TestNoDebugOutput ensures library packages report through return values and
// the injected logger, never by printing to the process streams.
func TestNoDebugOutput(t *testing.T) {
	fset := token.NewFileSet()
	pkgDir := filepath.Join(getProjectRoot(), "pkg") + string(filepath.Separator)

	walkGoFiles(t, func(path string) {
		if !strings.HasPrefix(path, pkgDir) || strings.HasSuffix(path, "_test.go") {
			return
		}
		ast.Inspect(parseFile(t, fset, path), func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			id, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			switch {
			case id.Name == "fmt" && strings.HasPrefix(sel.Sel.Name, "Print"),
				id.Name == "os" && (sel.Sel.Name == "Stdout" || sel.Sel.Name == "Stderr"),
				id.Name == "log":
				t.Errorf("%s: %s.%s in library code", fset.Position(sel.Pos()), id.Name, sel.Sel.Name)
			}
			return true
		})
	})
}
