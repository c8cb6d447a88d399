package filestore

import (
	"fmt"
	"net/url"
	"strings"
)

// Provider identifies the file storage backend.
type Provider string

const (
	ProviderMinIO Provider = "minio"
	ProviderS3    Provider = "s3"
)

// Transfer tuning defaults. Uploads larger than DefaultPartSize are split into
// parts sent by DefaultConcurrency workers.
const (
	DefaultRegion      = "us-east-1"
	DefaultPartSize    = 25 * 1024 * 1024
	DefaultConcurrency = 4
)

// Config holds all settings needed to connect to a file storage backend.
type Config struct {
	// Provider is the storage backend (e.g. ProviderMinIO).
	Provider Provider

	// Endpoint overrides the backend URL, e.g. "http://localhost:9000".
	// Leave empty to talk to AWS S3.
	Endpoint string

	// AccessKey is the access key ID (MinIO / S3 style).
	AccessKey string

	// SecretKey is the secret access key.
	SecretKey string

	// Region is used for request signing and bucket creation.
	Region string

	// PathStyle forces path-style bucket addressing (needed by most
	// self-hosted S3-compatible servers).
	PathStyle bool

	// PartSize is both the multipart threshold and the size of each part.
	PartSize int64

	// Concurrency caps the number of parts uploaded in parallel.
	Concurrency int
}

// DefaultConfig returns a config for the given credentials with the default
// region and transfer tuning.
func DefaultConfig(endpoint, accessKey, secretKey string) *Config {
	return &Config{
		Provider:    ProviderMinIO,
		Endpoint:    endpoint,
		AccessKey:   accessKey,
		SecretKey:   secretKey,
		Region:      DefaultRegion,
		PathStyle:   endpoint != "",
		PartSize:    DefaultPartSize,
		Concurrency: DefaultConcurrency,
	}
}

// WithDefaults returns a copy of c with zero transfer settings filled in.
func (c Config) WithDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderMinIO
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.PartSize <= 0 {
		c.PartSize = DefaultPartSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	return c
}

// Validate checks the settings a driver would otherwise only reject on first
// use. The endpoint must be an http(s) URL with a host; the minio provider
// also accepts a bare "host:port".
func (c Config) Validate() error {
	switch c.Provider {
	case "", ProviderMinIO, ProviderS3:
	default:
		return fmt.Errorf("unknown storage provider %q", c.Provider)
	}
	if c.Endpoint == "" {
		return nil
	}
	if !strings.Contains(c.Endpoint, "://") {
		if c.Provider == ProviderS3 {
			return fmt.Errorf("endpoint %q must be an http or https URL", c.Endpoint)
		}
		return nil
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("endpoint %q: %w", c.Endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("endpoint %q: unsupported scheme %q", c.Endpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("endpoint %q has no host", c.Endpoint)
	}
	return nil
}
