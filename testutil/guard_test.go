package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInternalImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"culturecore/internal/core", true},
		{"culturecore/internal/infra/blob/fs", true},
		{"culturecore/pkg/domain", false},
		{"othermod/internal/core", false},
		{"", false},
	}
	for _, c := range cases {
		if got := InternalImportForbidden(c.in); got != c.want {
			t.Fatalf("InternalImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestPrefixForbidden(t *testing.T) {
	forbidden := PrefixForbidden("culturecore/internal/infra/blob")
	cases := []struct {
		in   string
		want bool
	}{
		{"culturecore/internal/infra/blob", true},
		{"culturecore/internal/infra/blob/s3", true},
		{"culturecore/internal/infra/blobbers", false},
		{"culturecore/internal/blob", false},
	}
	for _, c := range cases {
		if got := forbidden(c.in); got != c.want {
			t.Fatalf("forbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport (\n\t\"fmt\"\n\t\"os\"\n)\n\nfunc X() { fmt.Println(os.Args) }\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, PrefixForbidden("culturecore/internal"), "stdlib only")
}

func TestAssertNoDirectImportsSkipsTestFiles(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport \"some/forbidden/pkg\"\n\nvar _ = 0\n")
	if err := os.WriteFile(filepath.Join(dir, "x_test.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, PrefixForbidden("some/forbidden/pkg"), "test files ignored")
}

func TestAssertNoDirectImportsSkipsSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := []byte("package nested\n\nimport \"some/forbidden/pkg\"\n\nvar _ = 0\n")
	if err := os.WriteFile(filepath.Join(sub, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	AssertNoDirectImports(t, dir, PrefixForbidden("some/forbidden/pkg"), "subdirectories ignored")
}

func TestAssertNoPackageImports(t *testing.T) {
	AssertNoPackageImports(t, ".", nil, PrefixForbidden("github.com/nonexistent/dependency"), "not a dependency of testutil")
}
