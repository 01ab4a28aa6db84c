package object

import (
	"fmt"
	"time"
)

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
)

// ParseObjectType maps a header kind name to an ObjectType.
func ParseObjectType(s string) (ObjectType, error) {
	switch ObjectType(s) {
	case TypeBlob, TypeTree, TypeCommit:
		return ObjectType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown object type %q", ErrInvalidFormat, s)
	}
}

const (
	// Tree mode constants compatible with Git's canonical mode strings.
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"

	// TreeModeGitlink entries name a commit in another repository.
	TreeModeGitlink = "160000"
)

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// Type returns the object type the entry's mode refers to.
func (e TreeEntry) Type() ObjectType {
	switch e.Mode {
	case TreeModeDir:
		return TypeTree
	case TreeModeGitlink:
		return TypeCommit
	}
	return TypeBlob
}

// TreeObj holds tree entries in canonical order.
type TreeObj struct {
	Entries []TreeEntry
}

// Signature is an author or committer line: identity plus timestamp.
type Signature struct {
	Identity string // "Name <email>"
	When     time.Time
}

// CommitObj represents a commit pointing to a tree with metadata.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	Signature string
	Message   string
}
