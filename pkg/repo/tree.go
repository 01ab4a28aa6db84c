package repo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/odvcencio/grit/pkg/object"
)

// MaxTreeDepth bounds directory recursion while building trees.
const MaxTreeDepth = 4096

var (
	ErrEmptyTree   = errors.New("empty tree: nothing to record")
	ErrTreeTooDeep = errors.New("directory nesting too deep")
)

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash object.Hash
}

// WriteTree records the whole working directory as a tree and returns its
// hash. A working directory with nothing to record yields ErrEmptyTree.
func (r *Repo) WriteTree() (object.Hash, error) {
	h, ok, err := r.BuildTreeFor(r.RootDir)
	if err != nil {
		return object.ZeroHash, err
	}
	if !ok {
		return object.ZeroHash, fmt.Errorf("write tree %s: %w", r.RootDir, ErrEmptyTree)
	}
	return h, nil
}

// BuildTreeFor writes blobs for every file under dir and a tree for every
// directory that has at least one entry, returning the hash of dir's tree.
// ok is false when dir contributes no entries at all; that is not an
// error. The result depends only on names, modes and contents below dir.
func (r *Repo) BuildTreeFor(dir string) (h object.Hash, ok bool, err error) {
	b := &treeBuilder{
		repo:   r,
		ignore: NewIgnoreChecker(r.RootDir, r.Config.Tree.Ignore),
		info:   fs.DirEntry.Info,
	}
	if par := r.Config.Tree.Parallelism; par > 1 {
		b.sem = semaphore.NewWeighted(int64(par))
	}
	return b.build(dir, r.relPath(dir), 0)
}

// relPath returns dir relative to the work-tree root in slash form, or ""
// if dir is the root or lies outside it.
func (r *Repo) relPath(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(r.RootDir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

type treeBuilder struct {
	repo   *Repo
	ignore *IgnoreChecker
	// sem bounds concurrent blob writes; nil builds sequentially.
	sem *semaphore.Weighted
	// info lstats a directory entry.
	info func(fs.DirEntry) (fs.FileInfo, error)
}

type treeSlot struct {
	entry object.TreeEntry
	ok    bool
}

func (b *treeBuilder) build(dir, rel string, depth int) (object.Hash, bool, error) {
	if depth > MaxTreeDepth {
		return object.ZeroHash, false, fmt.Errorf("build tree %s: %w", dir, ErrTreeTooDeep)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return object.ZeroHash, false, fmt.Errorf("build tree %s: %w", dir, err)
	}

	slots := make([]treeSlot, len(dirEntries))
	var g errgroup.Group
	var scanErr error
	for i, de := range dirEntries {
		i := i
		name := de.Name()
		childRel := path.Join(rel, name)
		if name == GitDirName {
			continue
		}

		info, err := b.info(de)
		if err != nil {
			scanErr = fmt.Errorf("build tree %s: stat %s: %w", dir, name, err)
			break
		}
		mode, storable := modeFromFileInfo(info)
		if !storable {
			b.repo.Logger.Warn("skipping unsupported file type",
				zap.String("path", childRel),
				zap.Stringer("mode", info.Mode()),
			)
			continue
		}
		if b.ignore.IsIgnored(childRel, mode == object.TreeModeDir) {
			continue
		}

		childPath := filepath.Join(dir, name)
		work := func() error {
			entry, ok, err := b.buildEntry(childPath, childRel, name, mode, depth)
			if err != nil {
				return err
			}
			slots[i] = treeSlot{entry: entry, ok: ok}
			return nil
		}
		if b.sem == nil {
			if scanErr = work(); scanErr != nil {
				break
			}
			continue
		}
		g.Go(work)
	}
	// Children already started must finish before slots is abandoned.
	if err := multierr.Append(scanErr, g.Wait()); err != nil {
		return object.ZeroHash, false, err
	}

	entries := make([]object.TreeEntry, 0, len(slots))
	for _, s := range slots {
		if s.ok {
			entries = append(entries, s.entry)
		}
	}
	if len(entries) == 0 {
		return object.ZeroHash, false, nil
	}
	object.SortTreeEntries(entries)

	h, err := b.repo.Store.WriteTree(&object.TreeObj{Entries: entries})
	if err != nil {
		return object.ZeroHash, false, fmt.Errorf("write tree %s: %w", dir, err)
	}
	b.repo.Logger.Debug("tree written",
		zap.String("path", dir),
		zap.Int("entries", len(entries)),
		zap.Stringer("hash", h),
	)
	return h, true, nil
}

// buildEntry produces the tree entry for one child. ok is false for a
// subdirectory that turned out to be empty.
func (b *treeBuilder) buildEntry(childPath, childRel, name, mode string, depth int) (object.TreeEntry, bool, error) {
	entry := object.TreeEntry{Mode: mode, Name: name}

	if mode == object.TreeModeDir {
		h, ok, err := b.build(childPath, childRel, depth+1)
		if err != nil || !ok {
			return entry, false, err
		}
		entry.Hash = h
		return entry, true, nil
	}

	if b.sem != nil {
		if err := b.sem.Acquire(context.Background(), 1); err != nil {
			return entry, false, err
		}
		defer b.sem.Release(1)
	}

	var err error
	if mode == object.TreeModeSymlink {
		entry.Hash, err = b.repo.Store.WriteSymlink(childPath)
	} else {
		entry.Hash, err = b.repo.Store.WriteBlobFile(childPath)
	}
	if err != nil {
		return entry, false, fmt.Errorf("build tree: %w", err)
	}
	return entry, true, nil
}

// FlattenTree walks a tree object recursively, returning all non-tree
// entries with their full paths (using forward slashes).
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	return r.flattenTreeRec(h, "", 0)
}

func (r *Repo) flattenTreeRec(h object.Hash, prefix string, depth int) ([]TreeFileEntry, error) {
	if depth > MaxTreeDepth {
		return nil, fmt.Errorf("flatten tree %s: %w", h, ErrTreeTooDeep)
	}
	treeObj, err := r.Store.ReadTree(h)
	if err != nil {
		return nil, fmt.Errorf("flatten tree: read %s: %w", h, err)
	}

	var result []TreeFileEntry
	for _, entry := range treeObj.Entries {
		fullPath := entry.Name
		if prefix != "" {
			fullPath = path.Join(prefix, entry.Name)
		}

		if entry.IsDir() {
			sub, err := r.flattenTreeRec(entry.Hash, fullPath, depth+1)
			if err != nil {
				return nil, err
			}
			result = append(result, sub...)
			continue
		}
		result = append(result, TreeFileEntry{
			Path: fullPath,
			Mode: entry.Mode,
			Hash: entry.Hash,
		})
	}
	return result, nil
}
