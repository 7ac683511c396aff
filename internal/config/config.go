// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

// Package config loads LetMeIn configuration from defaults, an optional YAML
// file and command-line flags, in that order of precedence.
package config

import (
	"net/url"
	"os"
	"slices"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/letmein-auth/letmein/internal/auth"
)

// EnvDatabaseURL is consulted when no database URL is configured.
const EnvDatabaseURL = "DATABASE_URL"

// Config is the complete LetMeIn configuration.
//
// The list keys configure every account type at once. The singular keys
// configure a single type and take precedence over the lists.
type Config struct {
	Models     []string `koanf:"models" json:"models,omitempty" yaml:"models,omitempty" jsonschema:"description=Account type names in registration order; the first is the default type"`
	Attributes []string `koanf:"attributes" json:"attributes,omitempty" yaml:"attributes,omitempty" jsonschema:"description=Login attribute per account type"`
	Passwords  []string `koanf:"passwords" json:"passwords,omitempty" yaml:"passwords,omitempty" jsonschema:"description=Password hash attribute per account type"`
	Salts      []string `koanf:"salts" json:"salts,omitempty" yaml:"salts,omitempty" jsonschema:"description=Password salt attribute per account type"`

	Model     string `koanf:"model" json:"model,omitempty" yaml:"model,omitempty" jsonschema:"description=Single account type; overrides models"`
	Attribute string `koanf:"attribute" json:"attribute,omitempty" yaml:"attribute,omitempty" jsonschema:"description=Single login attribute; overrides attributes"`
	Password  string `koanf:"password" json:"password,omitempty" yaml:"password,omitempty" jsonschema:"description=Single password hash attribute; overrides passwords"`
	Salt      string `koanf:"salt" json:"salt,omitempty" yaml:"salt,omitempty" jsonschema:"description=Single salt attribute; overrides salts"`

	Hasher   HasherConfig   `koanf:"hasher" json:"hasher,omitempty" yaml:"hasher,omitempty"`
	Database DatabaseConfig `koanf:"database" json:"database,omitempty" yaml:"database,omitempty"`
	Log      LogConfig      `koanf:"log" json:"log,omitempty" yaml:"log,omitempty"`
	Metrics  MetricsConfig  `koanf:"metrics" json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// HasherConfig holds the argon2id cost parameters.
type HasherConfig struct {
	Time    uint32 `koanf:"time" json:"time,omitempty" yaml:"time,omitempty" jsonschema:"minimum=1,description=argon2id iterations"`
	Memory  uint32 `koanf:"memory" json:"memory,omitempty" yaml:"memory,omitempty" jsonschema:"minimum=8,description=argon2id memory in KiB"`
	Threads uint8  `koanf:"threads" json:"threads,omitempty" yaml:"threads,omitempty" jsonschema:"minimum=1,maximum=255,description=argon2id parallelism"`
	KeyLen  uint32 `koanf:"key_len" json:"key_len,omitempty" yaml:"key_len,omitempty" jsonschema:"minimum=16,description=Derived key length in bytes"`
	SaltLen int    `koanf:"salt_len" json:"salt_len,omitempty" yaml:"salt_len,omitempty" jsonschema:"minimum=8,description=Generated salt length in bytes"`
}

// DatabaseConfig locates the account tables.
type DatabaseConfig struct {
	URL    string            `koanf:"url" json:"url,omitempty" yaml:"url,omitempty" jsonschema:"description=PostgreSQL URL; DATABASE_URL is used when empty"`
	Tables map[string]string `koanf:"tables" json:"tables,omitempty" yaml:"tables,omitempty" jsonschema:"description=Table name per account type; defaults to the snake_case plural of the type"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" yaml:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" yaml:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// MetricsConfig controls the observability server.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr,omitempty" yaml:"addr,omitempty" jsonschema:"description=Listen address for /metrics and health probes"`
}

// defaults are loaded before any file or flag.
func defaults() map[string]any {
	opts := auth.DefaultOptions()
	params := auth.DefaultHasherParams()
	return map[string]any{
		"models":          opts.Models,
		"attributes":      opts.Attributes,
		"passwords":       opts.Passwords,
		"salts":           opts.Salts,
		"hasher.time":     params.Time,
		"hasher.memory":   params.Memory,
		"hasher.threads":  params.Threads,
		"hasher.key_len":  params.KeyLen,
		"hasher.salt_len": params.SaltLen,
		"log.format":      "json",
		"log.level":       "info",
		"metrics.addr":    "127.0.0.1:9100",
	}
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	cfg, err := Load(LoadOptions{})
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(err)
	}
	return cfg
}

// LoadOptions selects the sources for Load.
type LoadOptions struct {
	// File is an optional YAML file. It is validated against the schema
	// before it is merged.
	File string
	// Flags, when set, contributes every flag registered by RegisterFlags
	// that was changed on the command line.
	Flags *pflag.FlagSet
}

// Load builds a Config from defaults, then File, then Flags.
func Load(opts LoadOptions) (*Config, error) {
	k := koanf.New(".")
	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("key", key).Wrap(err)
		}
	}

	if opts.File != "" {
		data, err := os.ReadFile(opts.File)
		if err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
		if err := ValidateSchema(data); err != nil {
			return nil, oops.With("file", opts.File).Wrap(err)
		}
		if err := k.Load(file.Provider(opts.File), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("file", opts.File).Wrap(err)
		}
	}

	if opts.Flags != nil {
		provider := posflag.ProviderWithFlag(opts.Flags, ".", nil, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("source", "flags").Wrap(err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").With("operation", "unmarshal").Wrap(err)
	}
	cfg.applySingular()
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(EnvDatabaseURL)
	}
	return &cfg, nil
}

// applySingular replaces each list with its singular key when that is set.
func (c *Config) applySingular() {
	if c.Model != "" {
		c.Models = []string{c.Model}
	}
	if c.Attribute != "" {
		c.Attributes = []string{c.Attribute}
	}
	if c.Password != "" {
		c.Passwords = []string{c.Password}
	}
	if c.Salt != "" {
		c.Salts = []string{c.Salt}
	}
}

// Validate checks that the configuration can build a registry and a hasher.
func (c *Config) Validate() error {
	if len(c.Models) == 0 {
		return oops.Code("CONFIG_INVALID").Wrapf(auth.ErrNotRegistered, "at least one model is required")
	}
	seen := make(map[string]struct{}, len(c.Models))
	for i, m := range c.Models {
		if m == "" {
			return oops.Code("CONFIG_INVALID").With("index", i).Errorf("model name cannot be empty")
		}
		if _, dup := seen[m]; dup {
			return oops.Code("CONFIG_INVALID").With("model", m).Errorf("model %q is listed twice", m)
		}
		seen[m] = struct{}{}
	}
	for name, list := range map[string][]string{
		"attributes": c.Attributes,
		"passwords":  c.Passwords,
		"salts":      c.Salts,
	} {
		if len(list) > len(c.Models) {
			return oops.Code("CONFIG_INVALID").
				With("key", name).
				With("entries", len(list)).
				With("models", len(c.Models)).
				Errorf("%s has more entries than models", name)
		}
	}
	for typeName := range c.Database.Tables {
		if !slices.Contains(c.Models, typeName) {
			return oops.Code("CONFIG_INVALID").
				With("model", typeName).
				Errorf("database.tables names unknown model %q", typeName)
		}
	}
	if err := c.HasherParams().Validate(); err != nil {
		return oops.With("key", "hasher").Wrap(err)
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return oops.Code("CONFIG_INVALID").With("format", c.Log.Format).Errorf("log.format must be json or text")
	}
	return nil
}

// RegistryOptions converts the account type lists for auth.NewRegistryFromOptions.
func (c *Config) RegistryOptions() auth.Options {
	return auth.Options{
		Models:     slices.Clone(c.Models),
		Attributes: slices.Clone(c.Attributes),
		Passwords:  slices.Clone(c.Passwords),
		Salts:      slices.Clone(c.Salts),
	}
}

// HasherParams converts the hasher section for auth.NewArgon2idHasherWithParams.
func (c *Config) HasherParams() auth.HasherParams {
	return auth.HasherParams{
		Time:    c.Hasher.Time,
		Memory:  c.Hasher.Memory,
		Threads: c.Hasher.Threads,
		KeyLen:  c.Hasher.KeyLen,
		SaltLen: c.Hasher.SaltLen,
	}
}

// Redacted returns a copy with the database password masked, for display.
func (c *Config) Redacted() *Config {
	out := *c
	if u, err := url.Parse(c.Database.URL); err == nil && u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
			out.Database.URL = u.String()
		}
	}
	return &out
}
