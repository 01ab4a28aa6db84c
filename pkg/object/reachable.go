package object

import (
	"errors"
	"fmt"
)

// ReachableSet returns all object hashes reachable from roots by following
// commit parents, commit trees and tree entries. Objects that are not in
// the store are reported in missing instead of failing the walk.
func (s *Store) ReachableSet(roots []Hash) (reachable map[Hash]struct{}, missing []Hash, err error) {
	roots = uniqueHashes(roots)
	reachable = make(map[Hash]struct{}, len(roots))
	seenMissing := make(map[Hash]struct{})

	stack := make([]Hash, 0, len(roots))
	stack = append(stack, roots...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if h.IsZero() {
			continue
		}
		if _, ok := reachable[h]; ok {
			continue
		}
		if _, ok := seenMissing[h]; ok {
			continue
		}

		if !s.Has(h) {
			seenMissing[h] = struct{}{}
			missing = append(missing, h)
			continue
		}

		refs, err := s.referencedHashes(h)
		if errors.Is(err, ErrNotFound) {
			seenMissing[h] = struct{}{}
			missing = append(missing, h)
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reachable set %s: %w", h, err)
		}
		reachable[h] = struct{}{}
		stack = append(stack, refs...)
	}

	return reachable, missing, nil
}

func (s *Store) referencedHashes(h Hash) ([]Hash, error) {
	objType, _, err := s.Stat(h)
	if err != nil {
		return nil, err
	}
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeCommit:
		commit, err := s.ReadCommit(h)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, 1+len(commit.Parents))
		refs = append(refs, commit.TreeHash)
		refs = append(refs, commit.Parents...)
		return refs, nil
	case TypeTree:
		tree, err := s.ReadTree(h)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			if e.Mode == TreeModeGitlink {
				continue
			}
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unsupported object type %q", objType)
	}
}

func uniqueHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		if h.IsZero() {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
