package object

import (
	"io"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	gitobject "github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

func gitStorage(s *Store) *filesystem.Storage {
	return filesystem.NewStorage(osfs.New(s.Root()), cache.NewObjectLRUDefault())
}

func toGit(h Hash) plumbing.Hash {
	return plumbing.NewHash(h.String())
}

func TestInterop_GoGitReadsOurObjects(t *testing.T) {
	s := tempStore(t)
	commit, tree, blob := buildSmallHistory(t, s)
	st := gitStorage(s)

	c, err := gitobject.GetCommit(st, toGit(commit))
	if err != nil {
		t.Fatalf("go-git GetCommit: %v", err)
	}
	if c.TreeHash != toGit(tree) {
		t.Fatalf("go-git tree = %s, want %s", c.TreeHash, tree)
	}
	if c.Author.Name != "t" || c.Author.Email != "t@t" || c.Author.When.Unix() != 1700000000 {
		t.Fatalf("go-git author = %+v", c.Author)
	}
	if c.Message != "init\n" {
		t.Fatalf("go-git message = %q", c.Message)
	}

	gt, err := c.Tree()
	if err != nil {
		t.Fatalf("go-git Tree: %v", err)
	}
	if len(gt.Entries) != 1 {
		t.Fatalf("go-git tree entries = %+v", gt.Entries)
	}
	e := gt.Entries[0]
	if e.Name != "main.go" || e.Mode != filemode.Regular || e.Hash != toGit(blob) {
		t.Fatalf("go-git tree entry = %+v", e)
	}

	f, err := gt.File("main.go")
	if err != nil {
		t.Fatalf("go-git File: %v", err)
	}
	content, err := f.Contents()
	if err != nil {
		t.Fatalf("go-git Contents: %v", err)
	}
	if content != "package main\n" {
		t.Fatalf("go-git contents = %q", content)
	}
}

func TestInterop_WeReadGoGitObjects(t *testing.T) {
	s := tempStore(t)
	// Creates objects/ before go-git writes into it.
	if _, err := s.WriteBlob(nil); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	st := gitStorage(s)

	payload := []byte("written by go-git\n")
	obj := st.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	w, err := obj.Writer()
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	gh, err := st.SetEncodedObject(obj)
	if err != nil {
		t.Fatalf("SetEncodedObject: %v", err)
	}

	h := MustParseHash(gh.String())
	if h != HashObject(TypeBlob, payload) {
		t.Fatalf("go-git hash %s != ours %s", h, HashObject(TypeBlob, payload))
	}
	got, err := s.ReadBlob(h)
	if err != nil {
		t.Fatalf("ReadBlob: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("ReadBlob = %q, want %q", got, payload)
	}
}

func TestInterop_EncodedObjectHashMatches(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob([]byte("hello\n"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}

	eo, err := gitStorage(s).EncodedObject(plumbing.AnyObject, toGit(h))
	if err != nil {
		t.Fatalf("EncodedObject: %v", err)
	}
	if eo.Type() != plumbing.BlobObject || eo.Size() != 6 {
		t.Fatalf("EncodedObject = (%s, %d), want (blob, 6)", eo.Type(), eo.Size())
	}
	r, err := eo.Reader()
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if plumbing.ComputeHash(plumbing.BlobObject, data) != toGit(h) {
		t.Fatalf("go-git recomputed hash differs from %s", h)
	}
}
