// Package cli implements the d3fig command-line interface.
//
// d3fig turns recorded drawing-call traces into mpld3 figure documents and
// the pages that display them. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
//   - render: build a trace and write json, html, dot or svg artifacts
//   - inspect: browse the figures, axes and datasets of a trace
//   - serve: serve a trace's figures over HTTP
//   - docs: manage stored figure documents
//   - cache: manage the artifact cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/d3fig/pkg/buildinfo"
	"github.com/matzehuels/d3fig/pkg/cache"
	"github.com/matzehuels/d3fig/pkg/config"
	"github.com/matzehuels/d3fig/pkg/observability"
	"github.com/matzehuels/d3fig/pkg/pipeline"
	"github.com/matzehuels/d3fig/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "d3fig"

	// redisPrefix namespaces d3fig keys in a shared Redis.
	redisPrefix = "d3fig:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger and built-in config.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "d3fig turns recorded plot traces into interactive d3 figures",
		Long:          `d3fig replays recorded figure-drawing traces into mpld3 figure documents, deduplicating shared data columns, and renders them as JSON, standalone HTML pages, or dataset diagrams.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/d3fig/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.docsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and attaches the logger to the command context.
func (c *CLI) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.Config = cfg

	if c.Logger.GetLevel() <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetHTTPHooks(hooks)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(ch, c.keyer(), c.Logger)
	if c.Config.CacheTTL > 0 {
		r.TTL = c.Config.CacheTTL
	}
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.CacheBackend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, c.redisConfig())
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	default:
		dir, err := c.cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// keyer scopes cache keys by release so an upgrade never serves artifacts
// rendered by an older build.
func (c *CLI) keyer() cache.Keyer {
	return cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.Version+":")
}

func (c *CLI) redisConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Addr:     c.Config.RedisAddr,
		Password: c.Config.RedisPassword,
		DB:       c.Config.RedisDB,
		Prefix:   redisPrefix,
	}
}

// newStore opens the configured document store. A MongoDB store reads
// through the configured cache.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	switch c.Config.StoreBackend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreMongo:
		ms, err := store.NewMongoStore(ctx, store.MongoConfig{
			URI:      c.Config.MongoURI,
			Database: c.Config.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		if c.Config.CacheBackend == config.CacheNone {
			return ms, nil
		}
		ch, err := c.newCache(ctx, false)
		if err != nil {
			ms.Close()
			return nil, err
		}
		return store.WithCache(ms, ch, c.keyer(), 0), nil
	default:
		fs, err := store.NewFileStore(c.Config.StoreDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, defaulting to the XDG
// location.
func (c *CLI) cacheDir() (string, error) {
	if c.Config != nil && c.Config.CacheDir != "" {
		return c.Config.CacheDir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/d3fig/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// readInput reads a trace file, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
