package testlist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func createSuiteDir(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, dir, "b_test.go", "package suites\n\nimport \"testing\"\n\nfunc TestB(t *testing.T) {}\n")
	writeFile(t, dir, "a_test.go", `package suites

import "testing"

func TestA(t *testing.T) {}
func TestAnother(t *testing.T) {}
func Testlowercase(t *testing.T) {}
func BenchmarkA(b *testing.B) {}
func helper() {}
`)
	writeFile(t, dir, "setup_test.go", `package suites

import (
	"os"
	"testing"
)

func TestMain(m *testing.M) { os.Exit(m.Run()) }
`)
	writeFile(t, dir, "pageobject_template_test.go", "package suites\n\nimport \"testing\"\n\nfunc TestTemplate(t *testing.T) {}\n")
	writeFile(t, dir, "helpers_test.go", "package suites\n\nfunc open() {}\n")
	writeFile(t, dir, "README.md", "# suites\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested_test.go"), 0755))
	return dir
}

func TestFindSuiteFiles(t *testing.T) {
	dir := createSuiteDir(t)

	d, err := FindSuiteFiles(dir, "setup_test.go", "pageobject_template_test.go")
	require.NoError(t, err)

	require.Len(t, d.Suites, 2)
	assert.Equal(t, "a_test.go", d.Suites[0].Name)
	assert.Equal(t, []string{"TestA", "TestAnother"}, d.Suites[0].Tests)
	assert.Equal(t, "a", d.Suites[0].SuiteName())
	assert.Equal(t, filepath.Join(d.Dir, "a_test.go"), d.Suites[0].Path)
	assert.Equal(t, "b_test.go", d.Suites[1].Name)
	assert.Equal(t, []string{"pageobject_template_test.go"}, d.Skipped)
	assert.Equal(t, "setup_test.go", d.Setup)
	assert.Equal(t, []string{"helpers_test.go"}, d.Helpers)
	assert.Equal(t, []string{"setup_test.go", "helpers_test.go"}, d.CompileFiles())
}

func TestFindSuiteFilesWithoutSetup(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only_test.go", "package suites\n\nimport \"testing\"\n\nfunc TestOnly(t *testing.T) {}\n")

	d, err := FindSuiteFiles(dir, "setup_test.go", "")
	require.NoError(t, err)
	assert.Empty(t, d.Setup)
	assert.Empty(t, d.Skipped)
	assert.Empty(t, d.CompileFiles())
	require.Len(t, d.Suites, 1)
}

func TestFindSuiteFilesErrors(t *testing.T) {
	_, err := FindSuiteFiles(filepath.Join(t.TempDir(), "missing"), "", "")
	require.Error(t, err)

	dir := t.TempDir()
	writeFile(t, dir, "broken_test.go", "package suites\n\nfunc TestBroken(")
	_, err = FindSuiteFiles(dir, "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken_test.go")
}

func TestIsTestName(t *testing.T) {
	assert.True(t, isTestName("Test"))
	assert.True(t, isTestName("TestGitHub"))
	assert.True(t, isTestName("Test_underscore"))
	assert.False(t, isTestName("TestMain"))
	assert.False(t, isTestName("Testify"))
	assert.False(t, isTestName("ExampleTest"))
}

func TestSuiteName(t *testing.T) {
	assert.Equal(t, "github", SuiteName("github_test.go"))
	assert.Equal(t, "google_search", SuiteName("/tmp/suites/google_search_test.go"))
}

func TestFindModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "go.mod", "module github.com/test/module\n\ngo 1.21\n")
	nested := filepath.Join(root, "suites", "deep")
	require.NoError(t, os.MkdirAll(nested, 0755))

	mod, dir, err := FindModule(nested)
	require.NoError(t, err)
	assert.Equal(t, "github.com/test/module", mod)
	assert.Equal(t, root, dir)

	bad := t.TempDir()
	writeFile(t, bad, "go.mod", "go 1.21\n")
	_, _, err = FindModule(bad)
	require.Error(t, err)
}
