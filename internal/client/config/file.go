package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/cmsclient/internal/flagx"
	"github.com/dmitrijs2005/cmsclient/internal/timex"
	"github.com/pelletier/go-toml/v2"
)

// FileConfig is a DTO used for JSON and TOML unmarshalling. Durations use
// timex.Duration so files can specify them as strings like "15s" (JSON also
// takes integer nanoseconds).
type FileConfig struct {
	BaseURL     string `json:"base_url" toml:"base_url"`
	AuthPrefix  string `json:"auth_prefix" toml:"auth_prefix"`
	RefreshPath string `json:"refresh_path" toml:"refresh_path"`
	LoginPath   string `json:"login_path" toml:"login_path"`
	LogoutPath  string `json:"logout_path" toml:"logout_path"`

	RequestTimeout timex.Duration `json:"request_timeout" toml:"request_timeout"`
	RefreshTimeout timex.Duration `json:"refresh_timeout" toml:"refresh_timeout"`

	CredentialStore string `json:"credential_store" toml:"credential_store"`
	CredentialPath  string `json:"credential_path" toml:"credential_path"`
	PassphraseEnv   string `json:"credential_passphrase_env" toml:"credential_passphrase_env"`
	RedisAddr       string `json:"redis_addr" toml:"redis_addr"`
	RedisKey        string `json:"redis_key" toml:"redis_key"`

	PurgeOnRejectedRetry bool `json:"purge_on_rejected_retry" toml:"purge_on_rejected_retry"`
	RetryTransport       bool `json:"retry_transport" toml:"retry_transport"`
	RetryMax             int  `json:"retry_max" toml:"retry_max"`

	LabelsFile string `json:"labels_file" toml:"labels_file"`
	LogLevel   string `json:"log_level" toml:"log_level"`
	LogFormat  string `json:"log_format" toml:"log_format"`

	GRPCAddr string `json:"grpc_addr" toml:"grpc_addr"`

	MediaBackend      string `json:"media_backend" toml:"media_backend"`
	MediaMaxMB        int    `json:"media_max_mb" toml:"media_max_mb"`
	UploadConcurrency int    `json:"upload_concurrency" toml:"upload_concurrency"`
	CloudinaryURL     string `json:"cloudinary_url" toml:"cloudinary_url"`
	S3Endpoint        string `json:"s3_endpoint" toml:"s3_endpoint"`
	S3Bucket          string `json:"s3_bucket" toml:"s3_bucket"`
	S3Region          string `json:"s3_region" toml:"s3_region"`
	S3AccessKey       string `json:"s3_access_key" toml:"s3_access_key"`
	S3SecretKey       string `json:"s3_secret_key" toml:"s3_secret_key"`
}

func fileConfigFrom(c *Config) FileConfig {
	return FileConfig{
		BaseURL:              c.BaseURL,
		AuthPrefix:           c.AuthPrefix,
		RefreshPath:          c.RefreshPath,
		LoginPath:            c.LoginPath,
		LogoutPath:           c.LogoutPath,
		RequestTimeout:       timex.Duration{Duration: c.RequestTimeout},
		RefreshTimeout:       timex.Duration{Duration: c.RefreshTimeout},
		CredentialStore:      c.CredentialStore,
		CredentialPath:       c.CredentialPath,
		PassphraseEnv:        c.PassphraseEnv,
		RedisAddr:            c.RedisAddr,
		RedisKey:             c.RedisKey,
		PurgeOnRejectedRetry: c.PurgeOnRejectedRetry,
		RetryTransport:       c.RetryTransport,
		RetryMax:             c.RetryMax,
		LabelsFile:           c.LabelsFile,
		LogLevel:             c.LogLevel,
		LogFormat:            c.LogFormat,
		GRPCAddr:             c.GRPCAddr,
		MediaBackend:         c.MediaBackend,
		MediaMaxMB:           c.MediaMaxMB,
		UploadConcurrency:    c.UploadConcurrency,
		CloudinaryURL:        c.CloudinaryURL,
		S3Endpoint:           c.S3Endpoint,
		S3Bucket:             c.S3Bucket,
		S3Region:             c.S3Region,
		S3AccessKey:          c.S3AccessKey,
		S3SecretKey:          c.S3SecretKey,
	}
}

func (fc FileConfig) apply(c *Config) {
	c.BaseURL = fc.BaseURL
	c.AuthPrefix = fc.AuthPrefix
	c.RefreshPath = fc.RefreshPath
	c.LoginPath = fc.LoginPath
	c.LogoutPath = fc.LogoutPath
	c.RequestTimeout = fc.RequestTimeout.Duration
	c.RefreshTimeout = fc.RefreshTimeout.Duration
	c.CredentialStore = fc.CredentialStore
	c.CredentialPath = fc.CredentialPath
	c.PassphraseEnv = fc.PassphraseEnv
	c.RedisAddr = fc.RedisAddr
	c.RedisKey = fc.RedisKey
	c.PurgeOnRejectedRetry = fc.PurgeOnRejectedRetry
	c.RetryTransport = fc.RetryTransport
	c.RetryMax = fc.RetryMax
	c.LabelsFile = fc.LabelsFile
	c.LogLevel = fc.LogLevel
	c.LogFormat = fc.LogFormat
	c.GRPCAddr = fc.GRPCAddr
	c.MediaBackend = fc.MediaBackend
	c.MediaMaxMB = fc.MediaMaxMB
	c.UploadConcurrency = fc.UploadConcurrency
	c.CloudinaryURL = fc.CloudinaryURL
	c.S3Endpoint = fc.S3Endpoint
	c.S3Bucket = fc.S3Bucket
	c.S3Region = fc.S3Region
	c.S3AccessKey = fc.S3AccessKey
	c.S3SecretKey = fc.S3SecretKey
}

// parseFile overlays Config with values from the file given by -c/-config.
//
// The file is decoded over the current values, so keys it omits keep their
// defaults. ".toml" files are decoded with go-toml; anything else is JSON.
// Panics on read or decode errors (caller should recover if desired).
func parseFile(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := fileConfigFrom(cfg)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}
	fc.apply(cfg)
}
