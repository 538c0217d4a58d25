package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/d3fig/pkg/cache"
	"github.com/matzehuels/d3fig/pkg/config"
	"github.com/matzehuels/d3fig/pkg/store"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, ".cache", appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	custom := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", custom)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(custom, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCLICacheDirFromConfig(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.Config.CacheDir = "/srv/d3fig-cache"

	dir, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != "/srv/d3fig-cache" {
		t.Errorf("cacheDir() = %q, want the configured directory", dir)
	}
}

func TestNewCacheBackends(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.Config.CacheDir = t.TempDir()

	ch, err := c.newCache(t.Context(), false)
	if err != nil {
		t.Fatalf("newCache() error: %v", err)
	}
	if _, ok := ch.(*cache.FileCache); !ok {
		t.Errorf("file backend returned %T", ch)
	}

	ch, err = c.newCache(t.Context(), true)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ch.(*cache.FileCache); ok {
		t.Error("noCache should not return a file cache")
	}

	c.Config.CacheBackend = config.CacheNone
	ch, _ = c.newCache(t.Context(), false)
	if _, ok := ch.(*cache.FileCache); ok {
		t.Error("cache_backend=none should not return a file cache")
	}
}

func TestNewStoreBackends(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)

	c.Config.StoreBackend = config.StoreMemory
	st, err := c.newStore(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*store.MemoryStore); !ok {
		t.Errorf("memory backend returned %T", st)
	}

	c.Config.StoreBackend = config.StoreFile
	c.Config.StoreDir = t.TempDir()
	st, err = c.newStore(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	fs, ok := st.(*store.FileStore)
	if !ok || fs.Path() != c.Config.StoreDir {
		t.Errorf("file backend returned %T", st)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	got := strings.Join(names, ",")
	for _, want := range []string{"render", "inspect", "serve", "docs", "cache", "completion"} {
		if !strings.Contains(got, want) {
			t.Errorf("subcommands %q missing %q", got, want)
		}
	}
}

func TestRootCommandConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("cache_backend = \"none\"\nstore_backend = \"memory\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", path, "cache", "path"})
	root.SetOut(io.Discard)
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if c.Config.CacheBackend != config.CacheNone || c.Config.StoreBackend != config.StoreMemory {
		t.Errorf("config not loaded: %+v", c.Config)
	}
}

func TestRootCommandBadConfig(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.toml"), "cache", "path"})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	if err := root.Execute(); err == nil {
		t.Error("Execute() should fail for a missing explicit config file")
	}
}
