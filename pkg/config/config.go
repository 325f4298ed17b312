// Package config loads flowform settings.
//
// Settings are layered, later layers winning:
//
//  1. built-in defaults ([Default])
//  2. a config file, TOML or YAML by extension
//  3. variables from a .env file in the working directory
//  4. FLOWFORM_* environment variables
//
// The result is validated before it is returned.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowform/pkg/errors"
)

// EnvConfigPath names the variable consulted when Load gets no path.
const EnvConfigPath = "FLOWFORM_CONFIG"

// Config holds every setting.
type Config struct {
	Compiler   CompilerConfig   `toml:"compiler" yaml:"compiler"`
	Visibility VisibilityConfig `toml:"visibility" yaml:"visibility"`
	Cache      CacheConfig      `toml:"cache" yaml:"cache"`
	Server     ServerConfig     `toml:"server" yaml:"server"`
}

// CompilerConfig feeds compiler.Options.
type CompilerConfig struct {
	Placeholder   string `toml:"placeholder" yaml:"placeholder" validate:"required"`
	MaxChainDepth int    `toml:"max_chain_depth" yaml:"max_chain_depth" validate:"gte=1,lte=1024"`
}

// VisibilityConfig feeds visibility.Engine.
type VisibilityConfig struct {
	MaxIterations int `toml:"max_iterations" yaml:"max_iterations" validate:"gte=1,lte=1000"`
}

// CacheConfig selects and tunes the cache backend.
type CacheConfig struct {
	// Backend is one of file, memory, redis or none.
	Backend       string        `toml:"backend" yaml:"backend" validate:"oneof=file memory redis none"`
	Dir           string        `toml:"dir" yaml:"dir"`
	TTL           time.Duration `toml:"ttl" yaml:"ttl" validate:"gte=0"`
	MemoryEntries int           `toml:"memory_entries" yaml:"memory_entries" validate:"gte=1"`
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db" validate:"gte=0,lte=15"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	Prefix        string        `toml:"prefix" yaml:"prefix"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Addr            string        `toml:"addr" yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gte=0"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Compiler:   CompilerConfig{Placeholder: "(select)", MaxChainDepth: 32},
		Visibility: VisibilityConfig{MaxIterations: 10},
		Cache: CacheConfig{
			Backend:       "file",
			TTL:           7 * 24 * time.Hour,
			MemoryEntries: 1024,
			Prefix:        "flowform:",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load builds the configuration. An empty path falls back to
// $FLOWFORM_CONFIG, and then to defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read .env")
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %s", path, undecoded[0])
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !stderrors.Is(err, io.EOF) {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "config %s: unsupported extension %q (use .toml, .yaml or .yml)", path, ext)
	}
	return nil
}

// applyEnv overrides settings from FLOWFORM_* variables.
func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s=%q", key, v)
		}
		*dst = n
		return nil
	}
	dur := func(key string, dst *time.Duration) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s=%q", key, v)
		}
		*dst = d
		return nil
	}

	str("FLOWFORM_PLACEHOLDER", &c.Compiler.Placeholder)
	str("FLOWFORM_CACHE_BACKEND", &c.Cache.Backend)
	str("FLOWFORM_CACHE_DIR", &c.Cache.Dir)
	str("FLOWFORM_REDIS_ADDR", &c.Cache.RedisAddr)
	str("FLOWFORM_REDIS_PASSWORD", &c.Cache.RedisPassword)
	str("FLOWFORM_ADDR", &c.Server.Addr)

	return stderrors.Join(
		num("FLOWFORM_MAX_CHAIN_DEPTH", &c.Compiler.MaxChainDepth),
		num("FLOWFORM_MAX_ITERATIONS", &c.Visibility.MaxIterations),
		num("FLOWFORM_CACHE_ENTRIES", &c.Cache.MemoryEntries),
		num("FLOWFORM_REDIS_DB", &c.Cache.RedisDB),
		dur("FLOWFORM_CACHE_TTL", &c.Cache.TTL),
	)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every setting and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "validate config")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return errors.New(errors.ErrCodeInvalidConfig, "invalid config: %s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s must be %s %s, got %v", field, fe.Tag(), fe.Param(), fe.Value())
	}
}
