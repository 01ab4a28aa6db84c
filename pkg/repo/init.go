package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/odvcencio/grit/pkg/object"
)

var (
	ErrRefCASMismatch                  = errors.New("ref compare-and-swap mismatch")
	ErrRefUpdatedButReflogAppendFailed = errors.New("ref updated but reflog append failed")
	ErrRefNotFound                     = errors.New("ref not found")
	ErrNoCommits                       = errors.New("no commits yet")
)

// RefUpdateReflogError indicates the ref file update succeeded, but appending
// the corresponding reflog entry failed.
type RefUpdateReflogError struct {
	Ref     string
	OldHash object.Hash
	NewHash object.Hash
	Err     error
}

func (e *RefUpdateReflogError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"update ref %q: %s (old=%s new=%s): %v",
		e.Ref,
		ErrRefUpdatedButReflogAppendFailed,
		e.OldHash,
		e.NewHash,
		e.Err,
	)
}

func (e *RefUpdateReflogError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *RefUpdateReflogError) Is(target error) bool {
	return target == ErrRefUpdatedButReflogAppendFailed
}

const (
	refLockRetryDelay = 5 * time.Millisecond
	refLockWaitLimit  = 2 * time.Second
)

// Init creates a new repository at path: .git/HEAD, objects/, refs/heads/,
// logs/ and a default grit.toml. Returns an error if a .git/ directory
// already exists.
func Init(path string, opts ...Option) (*Repo, error) {
	gitDir := filepath.Join(path, GitDirName)

	if _, err := os.Stat(gitDir); err == nil {
		return nil, fmt.Errorf("init: repository already exists at %s", gitDir)
	}

	dirs := []string{
		filepath.Join(gitDir, "objects"),
		filepath.Join(gitDir, "refs", "heads"),
		filepath.Join(gitDir, "refs", "tags"),
		filepath.Join(gitDir, "logs", "refs", "heads"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("init: mkdir %s: %w", d, err)
		}
	}

	headPath := filepath.Join(gitDir, "HEAD")
	if err := os.WriteFile(headPath, []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		return nil, fmt.Errorf("init: write HEAD: %w", err)
	}

	r := newRepo(path, gitDir, DefaultConfig(), opts)
	if err := r.WriteConfig(r.Config); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	r.Logger.Debug("initialized repository", zap.String("git_dir", gitDir))
	return r, nil
}

// Open searches upward from path for a .git/ directory and opens the
// repository. Returns an error if no .git/ directory is found.
func Open(path string, opts ...Option) (*Repo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("open: abs path: %w", err)
	}

	cur := abs
	for {
		gitDir := filepath.Join(cur, GitDirName)
		info, err := os.Stat(gitDir)
		if err == nil && info.IsDir() {
			cfg, err := ReadConfig(gitDir)
			if err != nil {
				return nil, fmt.Errorf("open: %w", err)
			}
			return newRepo(cur, gitDir, cfg, opts), nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return nil, fmt.Errorf("open: not a repository (or any parent up to /): %s", abs)
		}
		cur = parent
	}
}

// Head reads .git/HEAD. If the content starts with "ref: ", it returns the
// ref path (e.g., "refs/heads/main"). Otherwise it returns the raw content
// as a detached hash string.
func (r *Repo) Head() (string, error) {
	data, err := os.ReadFile(filepath.Join(r.GitDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	content := strings.TrimRight(string(data), "\n")

	if strings.HasPrefix(content, "ref: ") {
		return strings.TrimPrefix(content, "ref: "), nil
	}
	return content, nil
}

// ResolveRef resolves a ref name to an object hash.
//
// Resolution order:
//  1. If name is "HEAD", read HEAD. If HEAD is symbolic, resolve the target
//     ref; a branch with no ref file yet yields ErrNoCommits.
//  2. If name starts with "refs/", read .git/<name>.
//  3. Otherwise, try "refs/heads/<name>", then "refs/tags/<name>".
func (r *Repo) ResolveRef(name string) (object.Hash, error) {
	if name == "HEAD" {
		head, err := r.Head()
		if err != nil {
			return object.ZeroHash, err
		}
		if strings.HasPrefix(head, "refs/") {
			h, err := r.ResolveRef(head)
			if errors.Is(err, ErrRefNotFound) {
				return object.ZeroHash, fmt.Errorf("resolve HEAD (%s): %w", head, ErrNoCommits)
			}
			return h, err
		}
		h, err := object.ParseHash(head)
		if err != nil {
			return object.ZeroHash, fmt.Errorf("resolve detached HEAD: %w", err)
		}
		return h, nil
	}

	candidates := []string{name}
	if !strings.HasPrefix(name, "refs/") {
		candidates = []string{"refs/heads/" + name, "refs/tags/" + name}
	}
	for _, refName := range candidates {
		h, ok, err := readRefHash(filepath.Join(r.GitDir, filepath.FromSlash(refName)))
		if err != nil {
			return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, err)
		}
		if ok {
			return h, nil
		}
	}
	return object.ZeroHash, fmt.Errorf("resolve ref %q: %w", name, ErrRefNotFound)
}

// HeadCommit returns the commit HEAD points at, or ErrNoCommits on an
// unborn branch.
func (r *Repo) HeadCommit() (object.Hash, error) {
	return r.ResolveRef("HEAD")
}

// UpdateHead moves the current branch (or a detached HEAD) to h. expectedOld
// is the value HEAD must currently resolve to; the zero hash means the
// branch must not exist yet.
func (r *Repo) UpdateHead(h, expectedOld object.Hash) error {
	head, err := r.Head()
	if err != nil {
		return err
	}
	if strings.HasPrefix(head, "refs/") {
		return r.UpdateRefCAS(head, h, expectedOld)
	}
	return r.UpdateRefCAS("HEAD", h, expectedOld)
}

// UpdateRef writes a hash to the named ref file under .git/. Parent
// directories are created as needed.
func (r *Repo) UpdateRef(name string, h object.Hash) error {
	return r.UpdateRefCAS(name, h)
}

// UpdateRefCAS writes a hash to the named ref file under .git/ while
// holding a file lock on <ref>.lock, using temp file + rename so readers
// never see a partial ref. If expectedOld is provided, the update only
// succeeds when the current ref hash matches it (the zero hash meaning
// "ref must not exist").
//
// Reflog append happens after the ref rename; if reflog append fails, the ref
// update remains committed and a RefUpdateReflogError is returned.
func (r *Repo) UpdateRefCAS(name string, h object.Hash, expectedOld ...object.Hash) (retErr error) {
	if len(expectedOld) > 1 {
		return fmt.Errorf("update ref %q: expected at most one old hash", name)
	}
	if h.IsZero() {
		return fmt.Errorf("update ref %q: refusing to write zero hash", name)
	}

	refPath := filepath.Join(r.GitDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(refPath), 0o755); err != nil {
		return fmt.Errorf("update ref %q: mkdir: %w", name, err)
	}

	lock := flock.New(refPath + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), refLockWaitLimit)
	defer cancel()
	locked, err := lock.TryLockContext(ctx, refLockRetryDelay)
	if err != nil {
		return fmt.Errorf("update ref %q: lock: %w", name, err)
	}
	if !locked {
		return fmt.Errorf("update ref %q: timeout waiting for lock %q", name, lock.Path())
	}
	defer func() {
		retErr = multierr.Append(retErr, lock.Unlock())
	}()

	oldHash, _, err := readRefHash(refPath)
	if err != nil {
		return fmt.Errorf("update ref %q: read old hash: %w", name, err)
	}
	if len(expectedOld) == 1 && oldHash != expectedOld[0] {
		return fmt.Errorf(
			"update ref %q: %w (expected %s, found %s)",
			name,
			ErrRefCASMismatch,
			expectedOld[0],
			oldHash,
		)
	}

	if err := writeFileAtomic(refPath, []byte(h.String()+"\n")); err != nil {
		return fmt.Errorf("update ref %q: write: %w", name, err)
	}
	r.Logger.Debug("ref updated",
		zap.String("ref", name),
		zap.Stringer("old", oldHash),
		zap.Stringer("new", h),
	)

	if err := r.appendReflog(name, oldHash, h, "update"); err != nil {
		return &RefUpdateReflogError{
			Ref:     name,
			OldHash: oldHash,
			NewHash: h,
			Err:     err,
		}
	}

	return nil
}

// readRefHash reads a ref file. ok is false when the file does not exist.
func readRefHash(refPath string) (h object.Hash, ok bool, err error) {
	data, err := os.ReadFile(refPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.ZeroHash, false, nil
		}
		return object.ZeroHash, false, err
	}
	h, err = object.ParseHash(string(data))
	if err != nil {
		return object.ZeroHash, false, err
	}
	return h, true, nil
}
