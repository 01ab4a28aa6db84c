package repo

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/odvcencio/grit/pkg/object"
)

// ConfigFileName is the repository config file inside the git dir.
const ConfigFileName = "grit.toml"

// Config stores repository-local settings.
type Config struct {
	User UserConfig `toml:"user"`
	Core CoreConfig `toml:"core"`
	Tree TreeConfig `toml:"tree"`
}

// UserConfig is the fixed identity written into commits.
type UserConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

// CoreConfig holds object store settings.
type CoreConfig struct {
	// Compression is the zlib level for new objects (-1 for the default).
	Compression int `toml:"compression"`
}

// TreeConfig controls how the working directory is turned into trees.
type TreeConfig struct {
	// Ignore lists gitignore-style patterns that never become tree entries.
	Ignore []string `toml:"ignore"`
	// Parallelism bounds concurrent blob writes; 1 builds sequentially.
	Parallelism int `toml:"parallelism"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		User: UserConfig{Name: "grit", Email: "grit@localhost"},
		Core: CoreConfig{Compression: object.DefaultCompression},
		Tree: TreeConfig{Ignore: []string{"target"}, Parallelism: 1},
	}
}

// Identity returns "Name <email>" for author and committer lines.
// GRIT_AUTHOR_NAME and GRIT_AUTHOR_EMAIL override the configured values.
func (c *Config) Identity() string {
	name, email := c.User.Name, c.User.Email
	if v := strings.TrimSpace(os.Getenv("GRIT_AUTHOR_NAME")); v != "" {
		name = v
	}
	if v := strings.TrimSpace(os.Getenv("GRIT_AUTHOR_EMAIL")); v != "" {
		email = v
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

func (c *Config) validate() error {
	if strings.ContainsAny(c.User.Name, "<>\n") {
		return fmt.Errorf("user.name %q must not contain '<', '>' or newlines", c.User.Name)
	}
	if strings.ContainsAny(c.User.Email, "<>\n") {
		return fmt.Errorf("user.email %q must not contain '<', '>' or newlines", c.User.Email)
	}
	if c.Core.Compression < object.DefaultCompression || c.Core.Compression > object.BestCompression {
		return fmt.Errorf("core.compression %d out of range [-1, 9]", c.Core.Compression)
	}
	if c.Tree.Parallelism < 1 {
		c.Tree.Parallelism = 1
	}
	return nil
}

// ReadConfig reads <gitDir>/grit.toml. A missing file yields DefaultConfig.
func ReadConfig(gitDir string) (*Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(gitDir, ConfigFileName)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig atomically writes <gitDir>/grit.toml and makes cfg the
// repository's active config.
func (r *Repo) WriteConfig(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.validate(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(r.GitDir, ConfigFileName), buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	r.Config = cfg
	return nil
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		return multierr.Combine(err, tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Sync(); err != nil {
		return multierr.Combine(err, tmp.Close(), os.Remove(tmpName))
	}
	if err := tmp.Close(); err != nil {
		return multierr.Append(err, os.Remove(tmpName))
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return multierr.Append(err, os.Remove(tmpName))
	}
	if err := os.Rename(tmpName, path); err != nil {
		return multierr.Append(err, os.Remove(tmpName))
	}
	return nil
}
