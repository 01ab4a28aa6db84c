package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/grit/pkg/object"
)

// PeelToTree follows a commit to its tree. A tree hash is returned as is;
// any other kind is ErrTypeMismatch.
func (r *Repo) PeelToTree(h object.Hash) (object.Hash, error) {
	objType, _, err := r.Store.Stat(h)
	if err != nil {
		return object.ZeroHash, err
	}
	switch objType {
	case object.TypeTree:
		return h, nil
	case object.TypeCommit:
		c, err := r.Store.ReadCommit(h)
		if err != nil {
			return object.ZeroHash, err
		}
		return c.TreeHash, nil
	default:
		return object.ZeroHash, fmt.Errorf("%s is a %s, not a tree: %w", h, objType, object.ErrTypeMismatch)
	}
}

// TreeEntryAtPath finds the entry named by the slash-separated relPath
// inside treeHash. found is false when a path component is missing or a
// non-final component is not a directory.
func (r *Repo) TreeEntryAtPath(treeHash object.Hash, relPath string) (entry object.TreeEntry, found bool, err error) {
	relPath = strings.Trim(relPath, "/")
	if relPath == "" {
		return object.TreeEntry{Mode: object.TreeModeDir, Hash: treeHash}, true, nil
	}

	parts := strings.Split(relPath, "/")
	current := treeHash
	for i, part := range parts {
		if i > MaxTreeDepth {
			return object.TreeEntry{}, false, fmt.Errorf("lookup %s: %w", relPath, ErrTreeTooDeep)
		}
		treeObj, err := r.Store.ReadTree(current)
		if err != nil {
			return object.TreeEntry{}, false, fmt.Errorf("lookup %s: read tree %s: %w", relPath, current, err)
		}

		found = false
		for _, te := range treeObj.Entries {
			if te.Name == part {
				entry, found = te, true
				break
			}
		}
		if !found {
			return object.TreeEntry{}, false, nil
		}
		if i == len(parts)-1 {
			return entry, true, nil
		}
		if !entry.IsDir() {
			return object.TreeEntry{}, false, nil
		}
		current = entry.Hash
	}
	return object.TreeEntry{}, false, nil
}
