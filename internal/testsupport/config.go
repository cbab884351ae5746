package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"photodup/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config rooted in unique temp directories per test.
// The photo root exists and is empty; populate it with WriteFile.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.Root = filepath.Join(base, "photos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := os.MkdirAll(cfg.Paths.Root, 0o755); err != nil {
		t.Fatalf("mkdir photo root: %v", err)
	}
	return &cfg
}

// WithPermanentDelete switches the config to unlink files instead of
// trashing them.
func WithPermanentDelete() ConfigOption {
	return func(c *config.Config) {
		c.Review.PermanentDelete = true
	}
}

// WithSubfolder scopes the initial scan to one immediate child of the root.
func WithSubfolder(name string) ConfigOption {
	return func(c *config.Config) {
		c.Scan.Subfolder = name
	}
}
