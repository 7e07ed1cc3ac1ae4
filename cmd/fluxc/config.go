package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	configFileName = "fluxc.toml"
	envPrefix      = "FLUXC"

	packageKey     = "package"
	libraryKey     = "library"
	replHistoryKey = "repl.history"

	logLevelKey      = "log.level"
	logFormatKey     = "log.format"
	logFileKey       = "log.file"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultPackage       = "main"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// Config is the resolved configuration: defaults, overlaid by the nearest
// fluxc.toml, overlaid by FLUXC_* environment variables.
type Config struct {
	// Path is the fluxc.toml the configuration was read from, if any.
	Path string

	// Package is the path given to packages analyzed from source.
	Package string

	// Library is a directory of extra .flux packages made importable
	// alongside the standard library.
	Library string

	// History is the REPL history file.
	History string

	Log LogConfig
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

// FindProjectConfig searches for a fluxc.toml file starting from dir and
// walking up to parent directories, stopping at a .git boundary. Returns
// the path and its decoded contents, or ("", nil, nil) if not found.
func FindProjectConfig(dir string) (string, map[string]any, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, configFileName)
		if _, err := os.Stat(path); err == nil {
			var raw map[string]any
			if _, err := toml.DecodeFile(path, &raw); err != nil {
				return "", nil, errors.Wrapf(err, "parsing %s", path)
			}
			return path, raw, nil
		}

		// Stop at .git boundary
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// LoadConfig resolves the configuration for a command run from dir.
func LoadConfig(dir string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault(packageKey, defaultPackage)
	v.SetDefault(libraryKey, "")
	v.SetDefault(replHistoryKey, "")
	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logFormatKey, defaultLogFormat)
	v.SetDefault(logFileKey, "")
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)

	path, raw, err := FindProjectConfig(dir)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		if err := v.MergeConfigMap(raw); err != nil {
			return nil, errors.Wrapf(err, "loading %s", path)
		}
	}

	cfg := &Config{
		Path:    path,
		Package: v.GetString(packageKey),
		Library: v.GetString(libraryKey),
		History: v.GetString(replHistoryKey),
		Log: LogConfig{
			Level:      v.GetString(logLevelKey),
			Format:     v.GetString(logFormatKey),
			File:       v.GetString(logFileKey),
			MaxSize:    v.GetInt(logMaxSizeKey),
			MaxBackups: v.GetInt(logMaxBackupsKey),
			MaxAge:     v.GetInt(logMaxAgeKey),
			Compress:   v.GetBool(logCompressKey),
		},
	}

	// Relative paths in fluxc.toml are relative to the file.
	if path != "" {
		base := filepath.Dir(path)
		cfg.Library = resolvePath(base, cfg.Library)
		cfg.Log.File = resolvePath(base, cfg.Log.File)
		cfg.History = resolvePath(base, cfg.History)
	}
	if cfg.History == "" {
		cfg.History = historyFilePath()
	}
	return cfg, nil
}

func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

type configKey struct{}

func configToContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok {
		return &Config{
			Package: defaultPackage,
			History: historyFilePath(),
			Log:     LogConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		}
	}
	return cfg
}
