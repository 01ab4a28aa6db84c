package repo

import (
	"path/filepath"
	"testing"

	"github.com/odvcencio/grit/pkg/object"
)

func TestUpdateRef_WritesReflog(t *testing.T) {
	r, _ := initTestRepo(t)

	h1, h2 := testHash(1), testHash(2)
	if err := r.UpdateRef("refs/heads/main", h1); err != nil {
		t.Fatalf("UpdateRef(h1): %v", err)
	}
	if err := r.UpdateRef("refs/heads/main", h2); err != nil {
		t.Fatalf("UpdateRef(h2): %v", err)
	}

	entries, err := r.ReadReflog("main", 10)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("reflog entries = %d, want 2", len(entries))
	}
	if entries[0].NewHash != h2 || entries[0].OldHash != h1 {
		t.Fatalf("latest entry = %+v, want %s -> %s", entries[0], h1, h2)
	}
	if entries[1].NewHash != h1 || entries[1].OldHash != object.ZeroHash {
		t.Fatalf("first entry = %+v, want zero -> %s", entries[1], h1)
	}
	if entries[0].Committer.Identity != "grit <grit@localhost>" || !entries[0].Committer.When.Equal(fixedNow) {
		t.Fatalf("committer = %+v", entries[0].Committer)
	}

	assertFile(t, filepath.Join(r.GitDir, "logs", "refs", "heads", "main"))
}

func TestReadReflog_HeadFollowsBranch(t *testing.T) {
	r, _ := initTestRepo(t)
	if err := r.UpdateRef("refs/heads/main", testHash(1)); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	entries, err := r.ReadReflog("HEAD", 0)
	if err != nil {
		t.Fatalf("ReadReflog(HEAD): %v", err)
	}
	if len(entries) != 1 || entries[0].Ref != "refs/heads/main" {
		t.Fatalf("ReadReflog(HEAD) = %+v", entries)
	}
}

func TestReadReflog_RespectsLimit(t *testing.T) {
	r, _ := initTestRepo(t)

	for i := 0; i < 5; i++ {
		if err := r.UpdateRef("refs/heads/main", testHash(i+1)); err != nil {
			t.Fatalf("UpdateRef(%d): %v", i, err)
		}
	}

	entries, err := r.ReadReflog("main", 2)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries length = %d, want 2", len(entries))
	}
	if entries[0].NewHash != testHash(5) {
		t.Fatalf("newest entry = %s, want %s", entries[0].NewHash, testHash(5))
	}
}

func TestReadReflog_MissingLog(t *testing.T) {
	r, _ := initTestRepo(t)
	entries, err := r.ReadReflog("nope", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("entries = %+v, want none", entries)
	}
}
