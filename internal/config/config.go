// Package config loads bucketgate's runtime configuration.
//
// Sources, later ones winning:
//
//  1. built-in defaults
//  2. an optional YAML file (-config flag or BUCKETGATE_CONFIG)
//  3. environment variables
//
// Environment variables:
//
//	AWS_ACCESS_KEY_ID        required
//	AWS_SECRET_ACCESS_KEY    required
//	AWS_REGION               default "us-east-1"
//	S3_ENDPOINT_URL          optional, e.g. "http://minio:9000"
//	MINIO_ROOT_USER          required, passed through
//	MINIO_ROOT_PASSWORD      required, passed through
//	CORS_ALLOW_ORIGINS       default "*", comma separated
//	BUCKETGATE_ADDR          listen address, default ":8000"
//	BUCKETGATE_PROVIDER      "minio" (default) or "s3"
//	BUCKETGATE_LOG_LEVEL     debug, info, warn, error
//	BUCKETGATE_LOG_FORMAT    json or console
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/bucketgate/internal/filestore"
	"github.com/koustreak/bucketgate/internal/logger"
)

const (
	DefaultAddr            = ":8000"
	DefaultPrefix          = "/api/v1"
	DefaultServiceName     = "AWS S3 Proxy Service"
	DefaultCORSOrigins     = "*"
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxMemory       = 32 << 20
)

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Admin   AdminConfig   `yaml:"admin"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Prefix          string        `yaml:"prefix"`
	ServiceName     string        `yaml:"service_name"`
	CORSOrigins     []string      `yaml:"cors_allow_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxMemory is how much of an upload is buffered in memory when the
	// file part precedes the name fields; the rest spills to a temporary file.
	MaxMemory int64 `yaml:"max_memory"`
}

type StorageConfig struct {
	Provider    filestore.Provider `yaml:"provider"`
	Endpoint    string             `yaml:"endpoint"`
	AccessKey   string             `yaml:"access_key"`
	SecretKey   string             `yaml:"secret_key"`
	Region      string             `yaml:"region"`
	PathStyle   *bool              `yaml:"path_style"`
	PartSize    int64              `yaml:"part_size"`
	Concurrency int                `yaml:"concurrency"`
}

// AdminConfig holds the backend root credentials. They are required at
// startup but bucketgate does not use them itself.
type AdminConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with every optional field set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			Prefix:          DefaultPrefix,
			ServiceName:     DefaultServiceName,
			CORSOrigins:     []string{DefaultCORSOrigins},
			ShutdownTimeout: DefaultShutdownTimeout,
			MaxMemory:       DefaultMaxMemory,
		},
		Storage: StorageConfig{
			Provider:    filestore.ProviderMinIO,
			Region:      filestore.DefaultRegion,
			PartSize:    filestore.DefaultPartSize,
			Concurrency: filestore.DefaultConcurrency,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	str("AWS_ACCESS_KEY_ID", &cfg.Storage.AccessKey)
	str("AWS_SECRET_ACCESS_KEY", &cfg.Storage.SecretKey)
	str("AWS_REGION", &cfg.Storage.Region)
	str("S3_ENDPOINT_URL", &cfg.Storage.Endpoint)
	str("MINIO_ROOT_USER", &cfg.Admin.User)
	str("MINIO_ROOT_PASSWORD", &cfg.Admin.Password)
	str("BUCKETGATE_ADDR", &cfg.Server.Addr)
	str("BUCKETGATE_LOG_LEVEL", &cfg.Log.Level)
	str("BUCKETGATE_LOG_FORMAT", &cfg.Log.Format)

	if v, ok := lookup("BUCKETGATE_PROVIDER"); ok && v != "" {
		cfg.Storage.Provider = filestore.Provider(strings.ToLower(v))
	}
	if v, ok := lookup("CORS_ALLOW_ORIGINS"); ok && v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("BUCKETGATE_PART_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("BUCKETGATE_PART_SIZE: %w", err)
		}
		cfg.Storage.PartSize = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports every missing required value and malformed setting at once.
func (c Config) Validate() error {
	var problems []error
	required := []struct {
		name, value string
	}{
		{"AWS_ACCESS_KEY_ID", c.Storage.AccessKey},
		{"AWS_SECRET_ACCESS_KEY", c.Storage.SecretKey},
		{"MINIO_ROOT_USER", c.Admin.User},
		{"MINIO_ROOT_PASSWORD", c.Admin.Password},
	}
	for _, r := range required {
		if r.value == "" {
			problems = append(problems, fmt.Errorf("environment variable %s is required", r.name))
		}
	}

	if c.Storage.Provider == "" {
		problems = append(problems, errors.New("storage provider is required"))
	} else if err := c.FileStore().Validate(); err != nil {
		problems = append(problems, fmt.Errorf("storage: %w", err))
	}
	if c.Storage.Concurrency < 1 {
		problems = append(problems, errors.New("storage concurrency must be at least 1"))
	}
	if c.Server.Prefix != "" && !strings.HasPrefix(c.Server.Prefix, "/") {
		problems = append(problems, fmt.Errorf("server prefix %q must start with /", c.Server.Prefix))
	}
	if len(c.Server.CORSOrigins) == 0 {
		problems = append(problems, errors.New("at least one CORS origin is required"))
	}
	if !logger.ValidLevel(c.Log.Level) {
		problems = append(problems, fmt.Errorf("unknown log level %q", c.Log.Level))
	}
	return errors.Join(problems...)
}

// FileStore converts the storage section into a filestore.Config.
// Path-style addressing defaults to on whenever an endpoint override is set.
func (c Config) FileStore() *filestore.Config {
	pathStyle := c.Storage.Endpoint != ""
	if c.Storage.PathStyle != nil {
		pathStyle = *c.Storage.PathStyle
	}
	return &filestore.Config{
		Provider:    c.Storage.Provider,
		Endpoint:    c.Storage.Endpoint,
		AccessKey:   c.Storage.AccessKey,
		SecretKey:   c.Storage.SecretKey,
		Region:      c.Storage.Region,
		PathStyle:   pathStyle,
		PartSize:    c.Storage.PartSize,
		Concurrency: c.Storage.Concurrency,
	}
}

// Logger converts the log section into a logger.Config.
func (c Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	lc.Service = "bucketgate"
	return lc
}
