package repo

import (
	"time"

	"go.uber.org/zap"

	"github.com/odvcencio/grit/pkg/object"
)

// GitDirName is the administrative directory at the work-tree root. It is
// never recorded in a tree.
const GitDirName = ".git"

// Repo represents an opened repository.
type Repo struct {
	RootDir string        // working directory root
	GitDir  string        // .git/ directory
	Store   *object.Store // content-addressed object store
	Config  *Config

	// Now is the commit clock.
	Now    func() time.Time
	Logger *zap.Logger
}

// Option configures a Repo on Init or Open.
type Option func(*Repo)

// WithLogger sets the logger used by the repository and its store.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithClock overrides the clock used for commit timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Repo) {
		if now != nil {
			r.Now = now
		}
	}
}

func newRepo(rootDir, gitDir string, cfg *Config, opts []Option) *Repo {
	r := &Repo{
		RootDir: rootDir,
		GitDir:  gitDir,
		Config:  cfg,
		Now:     time.Now,
		Logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Store = object.NewStore(gitDir,
		object.WithCompressionLevel(cfg.Core.Compression),
		object.WithLogger(r.Logger.Named("store")),
	)
	return r
}
