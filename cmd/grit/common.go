package main

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/odvcencio/grit/pkg/logging"
	"github.com/odvcencio/grit/pkg/object"
	"github.com/odvcencio/grit/pkg/repo"
)

// globalOpts holds the root command's persistent flags.
var globalOpts = struct {
	dir      string
	logLevel string
}{dir: ".", logLevel: "warn"}

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(globalOpts.logLevel)
	if err != nil {
		return nil, fmt.Errorf("--log-level %q: %w", globalOpts.logLevel, err)
	}
	return logger, nil
}

// openRepo opens the repository containing the working directory.
func openRepo() (*repo.Repo, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	return repo.Open(".", repo.WithLogger(logger))
}

// resolveObject accepts a full hash, a ref name such as "HEAD" or "main",
// or "<rev>:<path>" naming an entry in rev's tree.
func resolveObject(r *repo.Repo, arg string) (object.Hash, error) {
	arg = strings.TrimSpace(arg)
	if rev, relPath, ok := strings.Cut(arg, ":"); ok {
		return resolveTreePath(r, rev, relPath)
	}
	if h, err := object.ParseHash(arg); err == nil {
		return h, nil
	}
	h, err := r.ResolveRef(arg)
	if err != nil {
		return object.ZeroHash, fmt.Errorf("%q is neither an object hash nor a ref: %w", arg, err)
	}
	return h, nil
}

func resolveTreePath(r *repo.Repo, rev, relPath string) (object.Hash, error) {
	if rev == "" {
		rev = "HEAD"
	}
	h, err := resolveObject(r, rev)
	if err != nil {
		return object.ZeroHash, err
	}
	tree, err := r.PeelToTree(h)
	if err != nil {
		return object.ZeroHash, err
	}
	entry, found, err := r.TreeEntryAtPath(tree, relPath)
	if err != nil {
		return object.ZeroHash, err
	}
	if !found {
		return object.ZeroHash, fmt.Errorf("path %q does not exist in %s: %w", relPath, rev, object.ErrNotFound)
	}
	return entry.Hash, nil
}

func firstLine(msg string) string {
	line, _, _ := strings.Cut(msg, "\n")
	return line
}
