package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/odvcencio/grit/pkg/object"
)

func TestReadConfig_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := ReadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("ReadConfig mismatch (-want +got):\n%s", diff)
	}
	if len(cfg.Tree.Ignore) != 1 || cfg.Tree.Ignore[0] != "target" {
		t.Fatalf("tree.ignore = %v, want [target]", cfg.Tree.Ignore)
	}
	if cfg.Tree.Parallelism != 1 {
		t.Fatalf("tree.parallelism = %d, want 1", cfg.Tree.Parallelism)
	}
	if cfg.Core.Compression != object.DefaultCompression {
		t.Fatalf("core.compression = %d, want %d", cfg.Core.Compression, object.DefaultCompression)
	}
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	r, _ := initTestRepo(t)

	cfg := DefaultConfig()
	cfg.User.Name = "Ada Lovelace"
	cfg.User.Email = "ada@example.com"
	cfg.Core.Compression = object.BestSpeed
	cfg.Tree.Ignore = []string{"target", "node_modules"}
	cfg.Tree.Parallelism = 8
	if err := r.WriteConfig(cfg); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	got, err := ReadConfig(r.GitDir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Fatalf("config round trip mismatch (-want +got):\n%s", diff)
	}
	if id := got.Identity(); id != "Ada Lovelace <ada@example.com>" {
		t.Fatalf("Identity = %q", id)
	}
}

func TestReadConfig_PartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	content := "[user]\nname = \"Only Name\"\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.User.Name != "Only Name" {
		t.Errorf("user.name = %q, want %q", cfg.User.Name, "Only Name")
	}
	if cfg.User.Email != "grit@localhost" {
		t.Errorf("user.email = %q, want default", cfg.User.Email)
	}
	if len(cfg.Tree.Ignore) != 1 || cfg.Tree.Ignore[0] != "target" {
		t.Errorf("tree.ignore = %v, want [target]", cfg.Tree.Ignore)
	}
}

func TestReadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"syntax":      "[user\nname = ",
		"compression": "[core]\ncompression = 11\n",
		"email":       "[user]\nemail = \"<evil>\"\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			if _, err := ReadConfig(dir); err == nil {
				t.Fatalf("ReadConfig(%q) succeeded, want error", content)
			}
		})
	}
}

func TestReadConfig_ClampsParallelism(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("[tree]\nparallelism = 0\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Tree.Parallelism != 1 {
		t.Fatalf("tree.parallelism = %d, want 1", cfg.Tree.Parallelism)
	}
}

func TestIdentity_EnvironmentOverrides(t *testing.T) {
	t.Setenv("GRIT_AUTHOR_NAME", "From Env")
	t.Setenv("GRIT_AUTHOR_EMAIL", "")

	if id := DefaultConfig().Identity(); id != "From Env <grit@localhost>" {
		t.Fatalf("Identity = %q, want %q", id, "From Env <grit@localhost>")
	}
}
