// Package config loads the layered dotconf configuration: embedded
// defaults, then the user's config file, then DOTCONF_* environment
// variables. Later layers override earlier ones.
package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"dotconf/pkg/errors"
	"dotconf/pkg/paths"
	"dotconf/pkg/types"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Config is the fully resolved configuration.
type Config struct {
	// SourceControlFolder is the directory tracked files live in.
	SourceControlFolder string `koanf:"source_control_folder" toml:"source_control_folder"`

	// SecretKey is the path to the armored PGP private key. Empty means
	// no key is configured.
	SecretKey string `koanf:"secret_key" toml:"secret_key"`

	// RecipientKey is the path to the armored PGP public key secrets are
	// encrypted to. Empty means encrypt to SecretKey's own public half.
	RecipientKey string `koanf:"recipient_key" toml:"recipient_key"`

	Git GitConfig `koanf:"git" toml:"git"`
}

// GitConfig controls the optional git integration.
type GitConfig struct {
	AutoCommit bool `koanf:"auto_commit" toml:"auto_commit"`
}

// Keys returns the PGP key locations as the crypto layer expects them.
func (c *Config) Keys() types.KeyConfig {
	return types.KeyConfig{
		SecretKeyPath:    c.SecretKey,
		RecipientKeyPath: c.RecipientKey,
	}
}

// HasSecretKey reports whether a private key is configured.
func (c *Config) HasSecretKey() bool {
	return c.SecretKey != ""
}

// Load reads the configuration. If path is empty, the user config file is
// probed at the XDG config dir and then ~/.dotconf.toml; a missing user
// file is not an error, the defaults still apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// 1. Embedded defaults
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load default config")
	}

	// 2. User config file
	if path == "" {
		if found, ok := paths.UserConfigFile(); ok {
			path = found
		}
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigParse, "failed to load config from %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "cannot read config file %s", path)
		}
	}

	// 3. Environment overrides: DOTCONF_SECRET_KEY -> secret_key,
	// DOTCONF_GIT__AUTO_COMMIT -> git.auto_commit
	err := k.Load(env.Provider("DOTCONF_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "DOTCONF_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal configuration")
	}

	if err := expandPaths(&cfg); err != nil {
		return nil, err
	}
	if cfg.SourceControlFolder == "" {
		return nil, errors.New(errors.ErrConfigParse, "source_control_folder must not be empty")
	}
	return &cfg, nil
}

// expandPaths resolves ~ and environment variables in the path-valued
// settings. Empty values stay empty.
func expandPaths(cfg *Config) error {
	for _, field := range []*string{&cfg.SourceControlFolder, &cfg.SecretKey, &cfg.RecipientKey} {
		if *field == "" {
			continue
		}
		expanded, err := paths.ExpandEnv(*field)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfigParse, "invalid path %q in configuration", *field)
		}
		*field = expanded
	}
	return nil
}
