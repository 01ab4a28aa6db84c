package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIgnoreFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IgnoreFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", IgnoreFileName, err)
	}
}

func TestIgnore_GitDirAlwaysIgnored(t *testing.T) {
	ic := NewIgnoreChecker(t.TempDir(), nil)

	if !ic.IsIgnored(".git", true) {
		t.Error("expected .git to be ignored")
	}
	if !ic.IsIgnored("vendor/mod/.git", true) {
		t.Error("expected nested .git to be ignored")
	}
	if ic.IsIgnored("main.go", false) {
		t.Error("main.go should not be ignored")
	}
}

func TestIgnore_ConfiguredPatterns(t *testing.T) {
	ic := NewIgnoreChecker(t.TempDir(), []string{"target"})

	if !ic.IsIgnored("target", true) {
		t.Error("expected target/ to be ignored")
	}
	if !ic.IsIgnored("crates/core/target", true) {
		t.Error("expected nested target/ to be ignored")
	}
	if ic.IsIgnored("targets", true) {
		t.Error("targets should not be ignored")
	}
}

func TestIgnore_SimpleGlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "*.log\n")
	ic := NewIgnoreChecker(dir, nil)

	if !ic.IsIgnored("debug.log", false) {
		t.Error("expected debug.log to be ignored")
	}
	if !ic.IsIgnored("src/debug.log", false) {
		t.Error("expected src/debug.log to be ignored")
	}
	if ic.IsIgnored("debug.txt", false) {
		t.Error("debug.txt should not be ignored")
	}
}

func TestIgnore_DirectoryOnlyPattern(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "build/\n")
	ic := NewIgnoreChecker(dir, nil)

	if !ic.IsIgnored("build", true) {
		t.Error("expected build/ to be ignored")
	}
	if ic.IsIgnored("build", false) {
		t.Error("a file named build should not match a directory pattern")
	}
}

func TestIgnore_NegationPattern(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "*.log\n!important.log\n")
	ic := NewIgnoreChecker(dir, nil)

	if !ic.IsIgnored("debug.log", false) {
		t.Error("expected debug.log to be ignored")
	}
	if ic.IsIgnored("important.log", false) {
		t.Error("important.log should be re-included")
	}
}

func TestIgnore_NegationOverridesConfigured(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "!target\n")
	ic := NewIgnoreChecker(dir, []string{"target"})

	if ic.IsIgnored("target", true) {
		t.Error("ignore file should be able to re-include a configured pattern")
	}
}

func TestIgnore_CommentsAndBlankLines(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "# comment\n\n*.log\n   \n")
	ic := NewIgnoreChecker(dir, nil)

	if !ic.IsIgnored("debug.log", false) {
		t.Error("expected debug.log to be ignored")
	}
	if ic.IsIgnored("# comment", false) {
		t.Error("comment line should not become a pattern")
	}
}

func TestIgnore_AnchoredAndDoubleStar(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "/docs/generated\n**/testdata/*.golden\n")
	ic := NewIgnoreChecker(dir, nil)

	if !ic.IsIgnored("docs/generated", true) {
		t.Error("expected docs/generated to be ignored")
	}
	if ic.IsIgnored("api/docs/generated", true) {
		t.Error("anchored pattern should not match below the root")
	}
	if !ic.IsIgnored("pkg/x/testdata/out.golden", false) {
		t.Error("expected pkg/x/testdata/out.golden to be ignored")
	}
	if !ic.IsIgnored("testdata/out.golden", false) {
		t.Error("expected testdata/out.golden to be ignored")
	}
}
