package repo

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/grit/pkg/object"
)

// CommitSigner signs canonical commit payload bytes and returns an encoded
// signature string to be persisted in CommitObj.Signature.
type CommitSigner func(payload []byte) (string, error)

// CommitTree writes a commit for tree with an optional parent (the zero hash
// means a root commit). Author and committer are the configured identity
// stamped with the repository clock.
func (r *Repo) CommitTree(tree, parent object.Hash, message string) (object.Hash, error) {
	return r.CommitTreeWithSigner(tree, parent, message, nil)
}

// CommitTreeWithSigner is CommitTree that signs the commit when signer is
// non-nil. Neither tree nor parent is allowed to dangle.
func (r *Repo) CommitTreeWithSigner(tree, parent object.Hash, message string, signer CommitSigner) (object.Hash, error) {
	if err := r.expectType(tree, object.TypeTree); err != nil {
		return object.ZeroHash, fmt.Errorf("commit: tree: %w", err)
	}
	var parents []object.Hash
	if !parent.IsZero() {
		if err := r.expectType(parent, object.TypeCommit); err != nil {
			return object.ZeroHash, fmt.Errorf("commit: parent: %w", err)
		}
		parents = append(parents, parent)
	}

	now := r.Now()
	if now.Unix() < 0 {
		return object.ZeroHash, fmt.Errorf("commit: clock reads %s, before the unix epoch", now)
	}
	sig := object.Signature{Identity: r.Config.Identity(), When: now}

	if message != "" && !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	commitObj := &object.CommitObj{
		TreeHash:  tree,
		Parents:   parents,
		Author:    sig,
		Committer: sig,
		Message:   message,
	}
	if signer != nil {
		signature, err := signer(object.CommitSigningPayload(commitObj))
		if err != nil {
			return object.ZeroHash, fmt.Errorf("commit: sign commit: %w", err)
		}
		commitObj.Signature = signature
	}

	h, err := r.Store.WriteCommit(commitObj)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: write commit: %w", err)
	}
	r.Logger.Debug("commit written",
		zap.Stringer("hash", h),
		zap.Stringer("tree", tree),
		zap.Int("parents", len(parents)),
	)
	return h, nil
}

func (r *Repo) expectType(h object.Hash, want object.ObjectType) error {
	got, _, err := r.Store.Stat(h)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%s is a %s, want %s: %w", h, got, want, object.ErrTypeMismatch)
	}
	return nil
}

// CommitWorkingTree snapshots the working directory and advances the
// current branch to the new commit:
//
//  1. Write the working tree
//  2. Resolve HEAD for the parent (none on an unborn branch)
//  3. Write the commit
//  4. Move HEAD's branch with a compare-and-swap against the parent
func (r *Repo) CommitWorkingTree(message string, signer CommitSigner) (object.Hash, error) {
	treeHash, err := r.WriteTree()
	if err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}

	parent, err := r.HeadCommit()
	if err != nil {
		if !errors.Is(err, ErrNoCommits) {
			return object.ZeroHash, fmt.Errorf("commit: %w", err)
		}
		parent = object.ZeroHash
	}

	commitHash, err := r.CommitTreeWithSigner(treeHash, parent, message, signer)
	if err != nil {
		return object.ZeroHash, err
	}

	if err := r.UpdateHead(commitHash, parent); err != nil {
		return object.ZeroHash, fmt.Errorf("commit: %w", err)
	}
	return commitHash, nil
}

// LogEntry pairs a commit with its hash.
type LogEntry struct {
	Hash   object.Hash
	Commit *object.CommitObj
}

// Log walks the commit history starting from the given hash, following
// first-parent links, returning up to limit commits newest first. A limit
// of zero or less walks the whole chain.
func (r *Repo) Log(start object.Hash, limit int) ([]LogEntry, error) {
	var entries []LogEntry
	current := start

	for limit <= 0 || len(entries) < limit {
		c, err := r.Store.ReadCommit(current)
		if err != nil {
			return nil, fmt.Errorf("log: read commit %s: %w", current, err)
		}
		entries = append(entries, LogEntry{Hash: current, Commit: c})

		if len(c.Parents) == 0 {
			break
		}
		current = c.Parents[0]
	}
	return entries, nil
}
