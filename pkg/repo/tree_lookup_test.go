package repo

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func TestTreeEntryAtPath(t *testing.T) {
	r, dir := initTestRepo(t)
	writeTestFile(t, filepath.Join(dir, "README.md"), "readme\n")
	writeTestFile(t, filepath.Join(dir, "src", "pkg", "main.go"), "package main\n")
	commit := commitTestFile(t, r, dir, "top.txt", "top\n", "initial")

	tree, err := r.PeelToTree(commit)
	if err != nil {
		t.Fatalf("PeelToTree: %v", err)
	}

	cases := []struct {
		path      string
		wantFound bool
		wantMode  string
	}{
		{path: "README.md", wantFound: true, wantMode: object.TreeModeFile},
		{path: "src", wantFound: true, wantMode: object.TreeModeDir},
		{path: "src/pkg/main.go", wantFound: true, wantMode: object.TreeModeFile},
		{path: "/src/pkg/", wantFound: true, wantMode: object.TreeModeDir},
		{path: "", wantFound: true, wantMode: object.TreeModeDir},
		{path: "src/missing.go", wantFound: false},
		{path: "README.md/child", wantFound: false},
	}
	for _, tc := range cases {
		entry, found, err := r.TreeEntryAtPath(tree, tc.path)
		if err != nil {
			t.Fatalf("TreeEntryAtPath(%q): %v", tc.path, err)
		}
		if found != tc.wantFound {
			t.Fatalf("TreeEntryAtPath(%q) found = %v, want %v", tc.path, found, tc.wantFound)
		}
		if found && entry.Mode != tc.wantMode {
			t.Fatalf("TreeEntryAtPath(%q) mode = %s, want %s", tc.path, entry.Mode, tc.wantMode)
		}
	}

	entry, _, err := r.TreeEntryAtPath(tree, "src/pkg/main.go")
	if err != nil {
		t.Fatalf("TreeEntryAtPath: %v", err)
	}
	data, err := r.Store.ReadBlob(entry.Hash)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(data) != "package main\n" {
		t.Fatalf("blob = %q", data)
	}
}

func TestPeelToTree_RejectsBlob(t *testing.T) {
	r, _ := initTestRepo(t)
	blob, err := r.Store.WriteBlob([]byte("x"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := r.PeelToTree(blob); !errors.Is(err, object.ErrTypeMismatch) {
		t.Fatalf("PeelToTree(blob) error = %v, want ErrTypeMismatch", err)
	}
}
