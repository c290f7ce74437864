// Package cli implements the dialoguegraph command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/dialoguegraph/pkg/buildinfo"
	"github.com/matzehuels/dialoguegraph/pkg/cache"
	"github.com/matzehuels/dialoguegraph/pkg/pipeline"
	"github.com/matzehuels/dialoguegraph/pkg/render"
	"github.com/matzehuels/dialoguegraph/pkg/session"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = buildinfo.AppName

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

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Dialoguegraph edits branching game dialogues as node graphs",
		Long:         `Dialoguegraph is a node-graph editor for branching game dialogue. Dialogues are saved as JSON documents, kept in a local or shared store, and exported as diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+defaultConfigHint()+")")

	root.AddCommand(c.newCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// cfg returns the loaded configuration, or defaults before PersistentPreRunE ran.
func (c *CLI) cfg() *Config {
	if c.config == nil {
		c.config = DefaultConfig()
	}
	return c.config
}

// =============================================================================
// Factories
// =============================================================================

// newRunner creates an export runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// openStore opens the configured dialogue store.
func (c *CLI) openStore(ctx context.Context) (session.Store, error) {
	cfg := c.cfg().Store
	c.Logger.Debug("opening store", "backend", cfg.Backend)
	return session.Open(ctx, cfg)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/dialoguegraph/).
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
		return []string{render.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input paths.
// A known format extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if render.ValidateFormat(strings.TrimPrefix(ext, ".")) == nil {
		return strings.TrimSuffix(output, ext)
	}
	return output
}
