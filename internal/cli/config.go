package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/matzehuels/dialoguegraph/pkg/server"
	"github.com/matzehuels/dialoguegraph/pkg/session"
	"github.com/matzehuels/dialoguegraph/pkg/view"
)

// envPrefix prefixes environment overrides, e.g. DIALOGUEGRAPH_STORE_BACKEND.
const envPrefix = "DIALOGUEGRAPH_"

// Config is the contents of config.toml.
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[editor]
//	fallback_x = 100
//	fallback_y = 100
//
//	[server]
//	addr = ":8080"
type Config struct {
	Store  session.Config `toml:"store"`
	Editor EditorConfig   `toml:"editor"`
	Server ServerConfig   `toml:"server"`
}

// EditorConfig configures interactive editing.
type EditorConfig struct {
	// Position of nodes loaded without layout information.
	FallbackX float64 `toml:"fallback_x"`
	FallbackY float64 `toml:"fallback_y"`
}

// Fallback returns the fallback position as a view point.
func (e EditorConfig) Fallback() view.Point {
	return view.Point{X: e.FallbackX, Y: e.FallbackY}
}

// ServerConfig configures `serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Store:  session.Config{Backend: session.BackendFile},
		Editor: EditorConfig{FallbackX: 100, FallbackY: 100},
		Server: ServerConfig{Addr: server.DefaultAddr},
	}
}

// LoadConfig reads the config file at path, or the default location when
// path is empty, then applies a .env file in the working directory and
// DIALOGUEGRAPH_* environment overrides. A missing default file is not an
// error; a missing explicit file is.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if explicit || !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	strs := map[string]*string{
		"STORE_BACKEND":  &cfg.Store.Backend,
		"STORE_DIR":      &cfg.Store.Dir,
		"REDIS_ADDR":     &cfg.Store.RedisAddr,
		"REDIS_PREFIX":   &cfg.Store.RedisPrefix,
		"MONGO_URI":      &cfg.Store.MongoURI,
		"MONGO_DATABASE": &cfg.Store.MongoDatabase,
		"POSTGRES_DSN":   &cfg.Store.PostgresDSN,
		"SERVER_ADDR":    &cfg.Server.Addr,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	floats := map[string]*float64{
		"FALLBACK_X": &cfg.Editor.FallbackX,
		"FALLBACK_Y": &cfg.Editor.FallbackY,
	}
	for key, dst := range floats {
		v, ok := os.LookupEnv(envPrefix + key)
		if !ok {
			continue
		}
		if _, err := fmt.Sscanf(v, "%g", dst); err != nil {
			return fmt.Errorf("%s%s: invalid number %q", envPrefix, key, v)
		}
	}
	return nil
}

// defaultConfigPath returns $XDG_CONFIG_HOME/dialoguegraph/config.toml,
// or "" when no home directory is known.
func defaultConfigPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

func defaultConfigHint() string {
	return "$XDG_CONFIG_HOME/" + appName + "/config.toml"
}
