package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings for the CMS CLI.
//
// Units: RequestTimeout and RefreshTimeout are time.Duration values.
type Config struct {
	BaseURL     string
	AuthPrefix  string
	RefreshPath string
	LoginPath   string
	LogoutPath  string

	RequestTimeout time.Duration
	RefreshTimeout time.Duration

	CredentialStore string
	CredentialPath  string
	PassphraseEnv   string
	RedisAddr       string
	RedisKey        string

	PurgeOnRejectedRetry bool

	// RetryTransport lifts the two-requests-per-call bound; see package doc.
	RetryTransport bool
	RetryMax       int

	LabelsFile string
	LogLevel   string
	LogFormat  string

	GRPCAddr string

	MediaBackend      string
	MediaMaxMB        int
	UploadConcurrency int
	CloudinaryURL     string
	S3Endpoint        string
	S3Bucket          string
	S3Region          string
	S3AccessKey       string
	S3SecretKey       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "http://127.0.0.1:8080"
	c.AuthPrefix = "/v1/auth/"
	c.RefreshPath = "/v1/auth/refresh"
	c.LoginPath = "/v1/auth/login"
	c.LogoutPath = "/v1/auth/logout"

	c.RequestTimeout = 15 * time.Second
	c.RefreshTimeout = 10 * time.Second

	c.CredentialStore = "memory"
	c.PassphraseEnv = "CMSCLIENT_PASSPHRASE"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisKey = "cmsclient:access_token"

	c.RetryMax = 3

	c.LogLevel = "info"
	c.LogFormat = "text"

	c.MediaBackend = "cloudinary"
	c.MediaMaxMB = 10
	c.UploadConcurrency = 4
	c.S3Region = "us-east-1"
}

// CredentialFile is the file backing the file and sqlite stores: the
// configured path, or a per-user default named after the store kind.
func (c *Config) CredentialFile() string {
	if c.CredentialPath != "" {
		return c.CredentialPath
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	name := "credential.json"
	if c.CredentialStore == "sqlite" {
		name = "credential.db"
	}
	return filepath.Join(dir, "cmsclient", name)
}

// Passphrase reads the sealing passphrase from the configured environment
// variable; nil when unset.
func (c *Config) Passphrase() []byte {
	if c.PassphraseEnv == "" {
		return nil
	}
	if v := os.Getenv(c.PassphraseEnv); v != "" {
		return []byte(v)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if given) and command-line flags (if present). Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
