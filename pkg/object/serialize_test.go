package object

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCompareTreeNames_VirtualTerminator(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "a", b: "a", want: 0},
		{a: "a", b: "b", want: -1},
		{a: "ab", b: "a", want: -1},
		{a: "a", b: "ab", want: 1},
		{a: "a.txt", b: "a", want: -1},
		{a: "a.txt", b: "ab", want: -1},
		{a: "foo", b: "foo.c", want: 1},
		{a: "a\xff", b: "a", want: 1},
	}
	for _, tt := range tests {
		if got := CompareTreeNames(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareTreeNames(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortTreeEntries_PrefixNamesSortAfterExtensions(t *testing.T) {
	entries := []TreeEntry{
		{Name: "a", Mode: TreeModeDir},
		{Name: "ab", Mode: TreeModeFile},
		{Name: "a.txt", Mode: TreeModeFile},
		{Name: "B", Mode: TreeModeFile},
	}
	SortTreeEntries(entries)

	var got []string
	for _, e := range entries {
		got = append(got, e.Name)
	}
	want := []string{"B", "a.txt", "ab", "a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("sorted names mismatch (-want +got):\n%s", diff)
	}
	if !(&TreeObj{Entries: entries}).IsSorted() {
		t.Fatal("IsSorted = false after SortTreeEntries")
	}
}

func TestMarshalTree_SingleEntryLayout(t *testing.T) {
	h := HashObject(TypeBlob, []byte("hello\n"))
	data := MarshalTree(&TreeObj{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "a.txt", Hash: h}}})

	want := append([]byte("100644 a.txt\x00"), h[:]...)
	if !bytes.Equal(data, want) {
		t.Fatalf("MarshalTree = %q, want %q", data, want)
	}
}

func TestMarshalTree_OrderIndependentOfInput(t *testing.T) {
	e1 := TreeEntry{Mode: TreeModeFile, Name: "z.go", Hash: HashObject(TypeBlob, []byte("z"))}
	e2 := TreeEntry{Mode: TreeModeDir, Name: "pkg", Hash: HashObject(TypeTree, nil)}
	e3 := TreeEntry{Mode: TreeModeExecutable, Name: "run.sh", Hash: HashObject(TypeBlob, []byte("#!/bin/sh"))}

	d1 := MarshalTree(&TreeObj{Entries: []TreeEntry{e1, e2, e3}})
	d2 := MarshalTree(&TreeObj{Entries: []TreeEntry{e3, e1, e2}})
	if !bytes.Equal(d1, d2) {
		t.Fatal("MarshalTree output depends on input order")
	}
}

func TestUnmarshalTree_RoundTrip(t *testing.T) {
	orig := &TreeObj{Entries: []TreeEntry{
		{Mode: TreeModeFile, Name: "README.md", Hash: HashObject(TypeBlob, []byte("readme"))},
		{Mode: TreeModeSymlink, Name: "link", Hash: HashObject(TypeBlob, []byte("README.md"))},
		{Mode: TreeModeDir, Name: "src", Hash: HashObject(TypeTree, nil)},
	}}
	SortTreeEntries(orig.Entries)

	got, err := UnmarshalTree(MarshalTree(orig))
	if err != nil {
		t.Fatalf("UnmarshalTree: %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Fatalf("tree round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmarshalTree_Malformed(t *testing.T) {
	h := HashObject(TypeBlob, nil)
	tests := []struct {
		name string
		data []byte
	}{
		{name: "missing mode", data: []byte(" a\x00")},
		{name: "non-octal mode", data: append([]byte("100899 a\x00"), h[:]...)},
		{name: "missing name", data: append([]byte("100644 \x00"), h[:]...)},
		{name: "short hash", data: append([]byte("100644 a\x00"), h[:10]...)},
		{name: "no nul", data: []byte("100644 abc")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalTree(tt.data); !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("UnmarshalTree err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func fixedSignature(identity string, unix int64, offsetMinutes int) Signature {
	return Signature{
		Identity: identity,
		When:     time.Unix(unix, 0).In(time.FixedZone("", offsetMinutes*60)),
	}
}

func TestMarshalCommit_RootCommitLayout(t *testing.T) {
	tree := HashObject(TypeTree, nil)
	sig := fixedSignature("grit <grit@localhost>", 1700000000, -420)
	data := MarshalCommit(&CommitObj{
		TreeHash:  tree,
		Author:    sig,
		Committer: sig,
		Message:   "initial\n",
	})

	want := "tree " + tree.String() + "\n" +
		"author grit <grit@localhost> 1700000000 -0700\n" +
		"committer grit <grit@localhost> 1700000000 -0700\n" +
		"\n" +
		"initial\n"
	if string(data) != want {
		t.Fatalf("MarshalCommit =\n%s\nwant\n%s", data, want)
	}
	if strings.Contains(string(data), "parent ") {
		t.Fatal("root commit must not have a parent line")
	}
}

func TestCommit_RoundTrip(t *testing.T) {
	orig := &CommitObj{
		TreeHash:  HashObject(TypeTree, nil),
		Parents:   []Hash{HashObject(TypeCommit, []byte("p1")), HashObject(TypeCommit, []byte("p2"))},
		Author:    fixedSignature("Ada Lovelace <ada@example.com>", 1700000000, 60),
		Committer: fixedSignature("Grace Hopper <grace@example.com>", 1700000100, -300),
		Signature: "line one\nline two",
		Message:   "subject\n\nbody with ünïcode\n",
	}

	got, err := UnmarshalCommit(MarshalCommit(orig))
	if err != nil {
		t.Fatalf("UnmarshalCommit: %v", err)
	}
	if diff := cmp.Diff(orig, got); diff != "" {
		t.Fatalf("commit round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCommitSigningPayload_OmitsSignature(t *testing.T) {
	c := &CommitObj{
		TreeHash:  HashObject(TypeTree, nil),
		Author:    fixedSignature("a <a@b>", 1, 0),
		Committer: fixedSignature("a <a@b>", 1, 0),
		Signature: "sig",
		Message:   "m\n",
	}
	payload := CommitSigningPayload(c)
	if bytes.Contains(payload, []byte("gpgsig")) {
		t.Fatalf("signing payload contains gpgsig header:\n%s", payload)
	}
	if c.Signature != "sig" {
		t.Fatal("CommitSigningPayload mutated the commit")
	}
}

func TestUnmarshalCommit_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "no separator", data: "tree " + HashObject(TypeTree, nil).String() + "\n"},
		{name: "missing tree", data: "author a <a@b> 1 +0000\n\nmsg"},
		{name: "bad tree hash", data: "tree xyz\n\nmsg"},
		{name: "bad timezone", data: "tree " + HashObject(TypeTree, nil).String() + "\nauthor a <a@b> 1 +00\n\nmsg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := UnmarshalCommit([]byte(tt.data)); !errors.Is(err, ErrInvalidFormat) {
				t.Fatalf("UnmarshalCommit err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestParseHash(t *testing.T) {
	const hex = "CE013625030BA8DBA906F756967F9E9CA394464A"
	h, err := ParseHash(hex)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if h.String() != strings.ToLower(hex) {
		t.Fatalf("String = %s, want lowercase %s", h, hex)
	}
	if h.Short() != "ce013625" {
		t.Fatalf("Short = %s", h.Short())
	}
	for _, bad := range []string{"", "ce01", strings.Repeat("g", 40)} {
		if _, err := ParseHash(bad); !errors.Is(err, ErrInvalidHash) {
			t.Errorf("ParseHash(%q) err = %v, want ErrInvalidHash", bad, err)
		}
	}
}
