package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/daimatz/jclass/pkg/classloader"
	"github.com/daimatz/jclass/pkg/classpath"
)

// EnvPrefix is the prefix of environment variables read by Load, e.g.
// JCLASS_CLASSPATH or JCLASS_LOG_LEVEL.
const EnvPrefix = "JCLASS"

// LogConfig selects the log handler.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Neo4jConfig holds connection settings for graph export.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Config holds all runtime configuration for jclass.
// Values are populated from .jclass.yaml, JCLASS_* env vars, and CLI flags.
type Config struct {
	Classpath  []string    `mapstructure:"classpath"`
	Manifest   string      `mapstructure:"manifest"`
	IncludeJDK bool        `mapstructure:"include_jdk"`
	JmodPath   string      `mapstructure:"jmod_path"`
	CacheSize  int         `mapstructure:"cache_size"`
	Log        LogConfig   `mapstructure:"log"`
	Neo4j      Neo4jConfig `mapstructure:"neo4j"`
}

// SetDefaults registers the built-in defaults. Registering every key also
// lets AutomaticEnv find nested keys during Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("classpath", []string{})
	v.SetDefault("manifest", "")
	v.SetDefault("include_jdk", false)
	v.SetDefault("jmod_path", "")
	v.SetDefault("cache_size", classloader.DefaultCacheSize)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.user", "neo4j")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", "neo4j")
}

// BindEnv makes JCLASS_* variables override config keys, with '.' in
// nested keys written as '_'.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the global viper instance, applying
// built-in defaults for any values not set by config file, environment,
// or flags.
func Load() (Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom is Load for a specific viper instance.
func LoadFrom(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that viper cannot type-check.
func (c Config) Validate() error {
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive, got %d", c.CacheSize)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses Level ("debug", "info", "warn", "error").
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// BuildClasspath assembles the effective classpath: manifest entries
// first, then classpath entries in order, then java.base.jmod when the JDK
// is requested. Each classpath value may itself be an OS path list.
func (c Config) BuildClasspath() (classpath.Classpath, error) {
	var cp classpath.Classpath
	includeJDK := c.IncludeJDK
	jmod := c.JmodPath

	if c.Manifest != "" {
		m, err := classpath.LoadManifest(c.Manifest)
		if err != nil {
			return classpath.Classpath{}, err
		}
		includeJDK = includeJDK || m.IncludeJDK
		if jmod == "" && m.JmodPath != "" {
			jmod = filepath.Join(filepath.Dir(c.Manifest), m.JmodPath)
			if filepath.IsAbs(m.JmodPath) {
				jmod = m.JmodPath
			}
		}
		m.IncludeJDK = false
		cp = m.Classpath()
	}

	for _, value := range c.Classpath {
		cp = cp.Join(classpath.Parse(value))
	}

	if includeJDK {
		if jmod == "" {
			jmod = classpath.FindJavaBaseJmod()
		}
		if jmod == "" {
			return classpath.Classpath{}, fmt.Errorf("include_jdk is set but java.base.jmod was not found; set jmod_path, JAVA_HOME or JAVA_BASE_JMOD")
		}
		cp.PushBack(jmod)
	}
	return cp, nil
}
