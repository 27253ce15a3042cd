// Package config loads intervaldb's configuration from layered sources:
// built-in defaults, an optional YAML file, environment variables, and
// finally CLI flags bound through viper — each layer overriding the last.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every recognized server option plus the engine's numerical
// limits.
type Config struct {
	DataDir          string `mapstructure:"data_dir" yaml:"data_dir"`
	ListenAddr       string `mapstructure:"listen_addr" yaml:"listen_addr"`
	ListenPort       int    `mapstructure:"listen_port" yaml:"listen_port"`
	Password         string `mapstructure:"password" yaml:"password"`
	MaxConnections   int    `mapstructure:"max_connections" yaml:"max_connections"`
	CompactionThresh int64  `mapstructure:"compaction_threshold" yaml:"compaction_threshold"`
	GCRetentionMs    int64  `mapstructure:"gc_retention_ms" yaml:"gc_retention_ms"`
	TLSCertFile      string `mapstructure:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile       string `mapstructure:"tls_key_file" yaml:"tls_key_file"`
	MetricsPort      int    `mapstructure:"metrics_port" yaml:"metrics_port"`
	AdminListenAddr  string `mapstructure:"admin_listen_addr" yaml:"admin_listen_addr"`
	AdminJWTSecret   string `mapstructure:"admin_jwt_secret" yaml:"admin_jwt_secret"`
	LogFormat        string `mapstructure:"log_format" yaml:"log_format"` // "json" or "text"

	Limits Limits `mapstructure:"limits" yaml:"limits"`
}

// Limits is the engine's numerical ceiling table, every field individually
// overridable so operators can tune a tenant without recompiling.
type Limits struct {
	MaxResourcesPerTenant   int   `mapstructure:"max_resources_per_tenant" yaml:"max_resources_per_tenant"`
	MaxHierarchyDepth       int   `mapstructure:"max_hierarchy_depth" yaml:"max_hierarchy_depth"`
	MaxIntervalsPerResource int   `mapstructure:"max_intervals_per_resource" yaml:"max_intervals_per_resource"`
	MaxNameLen              int   `mapstructure:"max_name_len" yaml:"max_name_len"`
	MaxLabelLen             int   `mapstructure:"max_label_len" yaml:"max_label_len"`
	MaxBatchSize            int   `mapstructure:"max_batch_size" yaml:"max_batch_size"`
	MaxInClauseIDs          int   `mapstructure:"max_in_clause_ids" yaml:"max_in_clause_ids"`
	MaxQueryWindowMs        int64 `mapstructure:"max_query_window_ms" yaml:"max_query_window_ms"`
	MaxSpanDurationMs       int64 `mapstructure:"max_span_duration_ms" yaml:"max_span_duration_ms"`
}

// DefaultLimits returns conservative, production-sane ceilings.
func DefaultLimits() Limits {
	return Limits{
		MaxResourcesPerTenant:   100_000,
		MaxHierarchyDepth:       32,
		MaxIntervalsPerResource: 50_000,
		MaxNameLen:              256,
		MaxLabelLen:             1024,
		MaxBatchSize:            1000,
		MaxInClauseIDs:          500,
		MaxQueryWindowMs:        int64(366) * 24 * 3600 * 1000, // just over a year
		MaxSpanDurationMs:       int64(366) * 24 * 3600 * 1000,
	}
}

// Default returns the configuration every layer above starts from.
func Default() *Config {
	return &Config{
		DataDir:          "./data",
		ListenAddr:       "0.0.0.0",
		ListenPort:       5432,
		Password:         "",
		MaxConnections:   100,
		CompactionThresh: 10_000,
		GCRetentionMs:    int64(30) * 24 * 3600 * 1000, // 30 days
		MetricsPort:      0,                            // 0 disables the Prometheus endpoint
		AdminListenAddr:  "127.0.0.1:8090",
		AdminJWTSecret:   "",
		LogFormat:        "json",
		Limits:           DefaultLimits(),
	}
}

// Load builds a Config from defaults, an optional YAML file at path (empty
// skips it), INTERVALDB_-prefixed environment variables, and whatever the
// caller has already bound into v (typically CLI flags bound by cobra).
// Later sources override earlier ones.
func Load(path string, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	def := Default()
	bindDefaults(v, def)

	v.SetEnvPrefix("INTERVALDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return nil, fmt.Errorf("config: tls_cert_file and tls_key_file must both be set or both be empty")
	}
	return cfg, nil
}

func bindDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("listen_port", d.ListenPort)
	v.SetDefault("password", d.Password)
	v.SetDefault("max_connections", d.MaxConnections)
	v.SetDefault("compaction_threshold", d.CompactionThresh)
	v.SetDefault("gc_retention_ms", d.GCRetentionMs)
	v.SetDefault("tls_cert_file", d.TLSCertFile)
	v.SetDefault("tls_key_file", d.TLSKeyFile)
	v.SetDefault("metrics_port", d.MetricsPort)
	v.SetDefault("admin_listen_addr", d.AdminListenAddr)
	v.SetDefault("admin_jwt_secret", d.AdminJWTSecret)
	v.SetDefault("log_format", d.LogFormat)

	v.SetDefault("limits.max_resources_per_tenant", d.Limits.MaxResourcesPerTenant)
	v.SetDefault("limits.max_hierarchy_depth", d.Limits.MaxHierarchyDepth)
	v.SetDefault("limits.max_intervals_per_resource", d.Limits.MaxIntervalsPerResource)
	v.SetDefault("limits.max_name_len", d.Limits.MaxNameLen)
	v.SetDefault("limits.max_label_len", d.Limits.MaxLabelLen)
	v.SetDefault("limits.max_batch_size", d.Limits.MaxBatchSize)
	v.SetDefault("limits.max_in_clause_ids", d.Limits.MaxInClauseIDs)
	v.SetDefault("limits.max_query_window_ms", d.Limits.MaxQueryWindowMs)
	v.SetDefault("limits.max_span_duration_ms", d.Limits.MaxSpanDurationMs)
}
