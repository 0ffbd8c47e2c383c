// Package config loads logforge's settings: a pkg/config.Manager
// wrapping viper, JSON config file under a per-app directory, env var
// overrides, mapstructure decode hooks for nested fields.
package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"

	pkgconfig "github.com/logforge/logforge/pkg/config"
)

const (
	AppName      = "logforge"
	ConfigName   = "logforge"
	EnvPrefix    = "LOGFORGE"
	EnvConfigDir = "LOGFORGE_CONFIG_DIR"
)

// ResourceLimits holds the per-archive resource caps applied during
// extraction.
type ResourceLimits struct {
	MaxDepth        int   `mapstructure:"max_depth" json:"max_depth"`
	MaxFileSize     int64 `mapstructure:"max_file_size" json:"max_file_size"`
	MaxTotalSize    int64 `mapstructure:"max_total_size" json:"max_total_size"`
	MaxEntries      int   `mapstructure:"max_entries" json:"max_entries"`
	MaxExpandRatio  int   `mapstructure:"max_expand_ratio" json:"max_expand_ratio"`
	MaxParallelFile int   `mapstructure:"max_parallel_files" json:"max_parallel_files"`
}

// CacheLimits sizes the in-memory caches shared across workspaces.
type CacheLimits struct {
	ResultCacheSize int           `mapstructure:"result_cache_size" json:"result_cache_size"`
	ResultCacheTTL  time.Duration `mapstructure:"result_cache_ttl" json:"result_cache_ttl"`
	RegexCacheSize  int           `mapstructure:"regex_cache_size" json:"regex_cache_size"`
}

// Config is logforge's full settings surface.
type Config struct {
	ConfigDir    string         `mapstructure:"-" json:"-"`
	WorkspaceDir string         `mapstructure:"workspace_dir" json:"workspace_dir"`
	HTTPAddr     string         `mapstructure:"http_addr" json:"http_addr"`
	LogLevel     string         `mapstructure:"log_level" json:"log_level"`
	Resources    ResourceLimits `mapstructure:"resources" json:"resources"`
	Caches       CacheLimits    `mapstructure:"caches" json:"caches"`
}

// GetHTTPAddr satisfies internal/httpapi's Config interface.
func (c *Config) GetHTTPAddr() string { return c.HTTPAddr }

// GetWorkspaceDir returns the configured workspace root directory.
func (c *Config) GetWorkspaceDir() string { return c.WorkspaceDir }

// Defaults returns the settings used when no config file/env var
// overrides them, sized conservatively for a single-user desktop box.
func Defaults() *Config {
	return &Config{
		HTTPAddr: "127.0.0.1:8642",
		LogLevel: "info",
		Resources: ResourceLimits{
			MaxDepth:        8,
			MaxFileSize:     2 << 30,  // 2 GiB
			MaxTotalSize:    32 << 30, // 32 GiB
			MaxEntries:      200_000,
			MaxExpandRatio:  200,
			MaxParallelFile: 0, // 0 = derive from CPU count at startup
		},
		Caches: CacheLimits{
			ResultCacheSize: 256,
			ResultCacheTTL:  5 * time.Minute,
			RegexCacheSize:  512,
		},
	}
}

// Load reads logforge's config file (creating one with defaults on
// first run), applies LOGFORGE_-prefixed env var overrides, and fills
// in WorkspaceDir if the user never set one.
func Load(configDir string) (*Config, *pkgconfig.Manager, error) {
	if configDir == "" {
		configDir = os.Getenv(EnvConfigDir)
	}

	mgr, err := pkgconfig.New(AppName, configDir, ConfigName, EnvPrefix, true)
	if err != nil {
		log.Error().Err(err).Msg("load logforge config failed")
		return nil, nil, err
	}

	conf := Defaults()
	for k, v := range defaultsMap(conf) {
		mgr.Viper.SetDefault(k, v)
	}

	if err := mgr.Load(conf); err != nil {
		log.Error().Err(err).Msg("load logforge config failed")
		return nil, nil, err
	}
	conf.ConfigDir = mgr.Path

	if conf.WorkspaceDir == "" {
		conf.WorkspaceDir = defaultWorkspaceDir()
	}

	if conf.Resources.MaxParallelFile <= 0 {
		conf.Resources.MaxParallelFile = defaultParallelism()
	}

	return conf, mgr, nil
}

// defaultParallelism derives MAX_PARALLEL_FILES as half the host's
// logical CPU count when the config leaves it at 0, falling back to a
// single worker if the count can't be read (e.g. inside a restrictive
// container) or halves to zero.
func defaultParallelism() int {
	n, err := cpu.Counts(true)
	if err != nil || n/2 < 1 {
		return 1
	}
	return n / 2
}

func defaultWorkspaceDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.TempDir()
	}
	return home + string(os.PathSeparator) + "." + AppName + string(os.PathSeparator) + "workspaces"
}

// defaultsMap flattens conf's fields into viper.SetDefault keys so a
// config file or env var that only sets one field doesn't lose the
// rest of the struct's defaults.
func defaultsMap(conf *Config) map[string]any {
	return map[string]any{
		"http_addr":                    conf.HTTPAddr,
		"log_level":                    conf.LogLevel,
		"resources.max_depth":          conf.Resources.MaxDepth,
		"resources.max_file_size":      conf.Resources.MaxFileSize,
		"resources.max_total_size":     conf.Resources.MaxTotalSize,
		"resources.max_entries":        conf.Resources.MaxEntries,
		"resources.max_expand_ratio":   conf.Resources.MaxExpandRatio,
		"resources.max_parallel_files": conf.Resources.MaxParallelFile,
		"caches.result_cache_size":     conf.Caches.ResultCacheSize,
		"caches.result_cache_ttl":      conf.Caches.ResultCacheTTL,
		"caches.regex_cache_size":      conf.Caches.RegexCacheSize,
	}
}
