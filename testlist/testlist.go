package testlist

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

const testFileSuffix = "_test.go"

// SuiteFile is a test file that runs as its own suite.
type SuiteFile struct {
	Name  string   // file name, e.g. github_test.go
	Path  string   // absolute path
	Tests []string // top-level Test functions, in declaration order
}

// SuiteName is the file name without the _test.go suffix.
func (f SuiteFile) SuiteName() string {
	return SuiteName(f.Name)
}

// SuiteName strips the _test.go suffix from a file name.
func SuiteName(file string) string {
	return strings.TrimSuffix(filepath.Base(file), testFileSuffix)
}

// Discovery is the result of scanning a suite directory.
type Discovery struct {
	Dir     string
	Suites  []SuiteFile
	Skipped []string // template files deliberately left out
	Setup   string   // preload file compiled with every suite, empty when absent
	Helpers []string // test files without Test functions, compiled with every suite
}

// FindSuiteFiles lists the runnable test files in dir, in directory order.
// setupFile is the preload file that is never run on its own and skipFile is the page-object template.
func FindSuiteFiles(dir, setupFile, skipFile string) (*Discovery, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve test directory: %w", err)
	}
	entries, err := os.ReadDir(absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read test directory: %w", err)
	}

	d := &Discovery{Dir: absDir}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, testFileSuffix) {
			continue
		}
		if name == setupFile {
			d.Setup = name
			continue
		}
		if name == skipFile {
			d.Skipped = append(d.Skipped, name)
			continue
		}

		path := filepath.Join(absDir, name)
		tests, err := FindTestFunctions(path)
		if err != nil {
			return nil, err
		}
		if len(tests) == 0 {
			d.Helpers = append(d.Helpers, name)
			continue
		}
		d.Suites = append(d.Suites, SuiteFile{Name: name, Path: path, Tests: tests})
	}
	return d, nil
}

// FindTestFunctions returns the top-level Test functions declared in a single file
func FindTestFunctions(path string) ([]string, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	var testFunctions []string
	for _, decl := range f.Decls {
		funcDecl, ok := decl.(*ast.FuncDecl)
		if !ok || funcDecl.Recv != nil {
			continue
		}
		// Those functions have to start with "Test" and not be "TestMain"
		if isTestName(funcDecl.Name.Name) {
			testFunctions = append(testFunctions, funcDecl.Name.Name)
		}
	}
	return testFunctions, nil
}

// isTestName mirrors go test: Test followed by nothing or a non-lowercase rune.
func isTestName(name string) bool {
	if !strings.HasPrefix(name, "Test") || name == "TestMain" {
		return false
	}
	rest := name[len("Test"):]
	return rest == "" || !(rest[0] >= 'a' && rest[0] <= 'z')
}

// FindModule walks up from dir to the enclosing go.mod and returns the module path and root.
func FindModule(dir string) (string, string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", "", err
	}
	for cur := absDir; ; cur = filepath.Dir(cur) {
		goModPath := filepath.Join(cur, "go.mod")
		content, err := os.ReadFile(goModPath)
		if err == nil {
			modFile, err := modfile.Parse(goModPath, content, nil)
			if err != nil {
				return "", "", fmt.Errorf("failed to parse go.mod: %w", err)
			}
			if modFile.Module == nil || modFile.Module.Mod.Path == "" {
				return "", "", fmt.Errorf("could not find module name in %s", goModPath)
			}
			return modFile.Module.Mod.Path, cur, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", fmt.Errorf("failed to read go.mod: %w", err)
		}
		if filepath.Dir(cur) == cur {
			return "", "", fmt.Errorf("no go.mod found above %s", absDir)
		}
	}
}

// CompileFiles returns the files passed to go test alongside a suite file.
func (d *Discovery) CompileFiles() []string {
	files := make([]string, 0, len(d.Helpers)+1)
	if d.Setup != "" {
		files = append(files, d.Setup)
	}
	return append(files, d.Helpers...)
}
