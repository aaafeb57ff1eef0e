package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/attachdex/internal/domain/mime"
	"github.com/kailas-cloud/attachdex/internal/domain/pipeline"
	"github.com/kailas-cloud/attachdex/internal/domain/sizepolicy"
)

// Config holds the attachdex configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Search      SearchConfig      `yaml:"search"`
	Database    DatabaseConfig    `yaml:"database"`
	Attachments AttachmentsConfig `yaml:"attachments"`
	Files       FilesConfig       `yaml:"files"`
	Indexing    IndexingConfig    `yaml:"indexing"`
	Auth        AuthConfig        `yaml:"auth"`
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File  string `yaml:"file"`  // optional rotating JSON log file
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// SearchConfig holds the search cluster connection.
type SearchConfig struct {
	Addrs      []string `yaml:"addrs"`
	Username   string   `yaml:"username"`
	Password   string   `yaml:"password"`
	APIKey     string   `yaml:"api_key"`
	Index      string   `yaml:"index"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

// DatabaseConfig holds the shared key-value store connection.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, none (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// AttachmentsConfig holds the enrichment tunables.
type AttachmentsConfig struct {
	PipelineName        string          `yaml:"pipeline_name"`
	PipelineDescription string          `yaml:"pipeline_description"`
	MaxFileSizeBytes    int64           `yaml:"max_file_size_bytes"`
	AllowedMimeTypes    *mime.Allowlist `yaml:"allowed_mime_types"`
	// IndexOversized embeds files at or above MaxFileSizeBytes anyway.
	IndexOversized bool `yaml:"index_oversized"`
	// ExcludePatterns are filepath.Match patterns whose files are never embedded.
	ExcludePatterns []string `yaml:"exclude_patterns"`
	// CapabilityTTLSec bounds how long a shared capability flag is trusted (0 = until refreshed).
	CapabilityTTLSec int `yaml:"capability_ttl_sec"`
}

// FilesConfig holds file resolution settings.
type FilesConfig struct {
	Resolver      string `yaml:"resolver"` // dir, registry (default: dir)
	Root          string `yaml:"root"`     // local directory or gs://bucket/prefix; registered paths must stay under it
	Suffix        string `yaml:"suffix"`
	ConfineToRoot bool   `yaml:"confine_to_root"`
	GCS           bool   `yaml:"gcs"`
	CacheSize     int    `yaml:"cache_size"`
	CacheTTLSec   int    `yaml:"cache_ttl_sec"`
}

// IndexingConfig holds indexing host settings.
type IndexingConfig struct {
	Workers      int `yaml:"workers"`
	MaxBatchSize int `yaml:"max_batch_size"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML document.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Search.Index == "" {
		c.Search.Index = "attachdex-content"
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 30
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "none"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Attachments.PipelineName == "" {
		c.Attachments.PipelineName = pipeline.DefaultName
	}
	if c.Attachments.PipelineDescription == "" {
		c.Attachments.PipelineDescription = pipeline.DefaultDescription
	}
	if c.Attachments.MaxFileSizeBytes <= 0 {
		c.Attachments.MaxFileSizeBytes = sizepolicy.DefaultMaxFileSizeBytes
	}
	if c.Attachments.AllowedMimeTypes == nil {
		def := mime.Default()
		c.Attachments.AllowedMimeTypes = &def
	}
	if c.Files.Resolver == "" {
		c.Files.Resolver = "dir"
	}
	if c.Files.CacheSize <= 0 {
		c.Files.CacheSize = 4096
	}
	if c.Files.CacheTTLSec <= 0 {
		c.Files.CacheTTLSec = 300
	}
	if c.Indexing.Workers <= 0 {
		c.Indexing.Workers = 4
	}
	if c.Indexing.MaxBatchSize <= 0 {
		c.Indexing.MaxBatchSize = 100
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "attachdex:"
	}
}

var pipelineNameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]*$`)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Search.Addrs) == 0 {
		return fmt.Errorf("search.addrs is required")
	}
	if !pipelineNameRegex.MatchString(c.Attachments.PipelineName) {
		return fmt.Errorf("attachments.pipeline_name %q must be lowercase alphanumeric with _ . -",
			c.Attachments.PipelineName)
	}
	if c.Attachments.AllowedMimeTypes != nil && c.Attachments.AllowedMimeTypes.Len() == 0 {
		return fmt.Errorf("attachments.allowed_mime_types must not be empty")
	}
	for _, p := range c.Attachments.ExcludePatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("attachments.exclude_patterns: %q: %w", p, err)
		}
	}

	switch c.Database.Driver {
	case "none":
	case "valkey", "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be \"valkey\", \"redis\" or \"none\", got %q", c.Database.Driver)
	}

	switch c.Files.Resolver {
	case "dir":
		if c.Files.Root == "" {
			return fmt.Errorf("files.root is required for the dir resolver")
		}
	case "registry":
		if c.Database.Driver == "none" {
			return fmt.Errorf("files.resolver \"registry\" requires a database driver")
		}
		if c.Files.Root == "" {
			return fmt.Errorf("files.root is required for the registry resolver")
		}
		if !hasAPIKey(c.Auth.APIKeys) {
			return fmt.Errorf("files.resolver \"registry\" requires a non-empty auth.api_keys entry")
		}
	default:
		return fmt.Errorf("files.resolver must be \"dir\" or \"registry\", got %q", c.Files.Resolver)
	}
	return nil
}

func hasAPIKey(keys []string) bool {
	for _, k := range keys {
		if k != "" {
			return true
		}
	}
	return false
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
