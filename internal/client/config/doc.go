// Package config loads runtime configuration for the CMS CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file (see parseFile) selected via flags: -c or -config.
//     Files ending in .toml are TOML, everything else JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the CMS API
//	-t int      request timeout (seconds)
//	-s string   credential store kind
//	-l string   field labels file
//	-v string   log level
//	-g string   gRPC endpoint
//
// # File schema
//
// Durations are strings like "15s" (JSON also accepts integer nanoseconds):
//
//	{
//	  "base_url": "https://cms.example.com",
//	  "request_timeout": "15s",
//	  "refresh_timeout": "10s",
//	  "credential_store": "file",
//	  "purge_on_rejected_retry": false
//	}
//
// retry_transport adds transport-level retries (429, 5xx, connection errors)
// under the dispatcher. It is off by default: with it on, one dispatched call
// is no longer bounded to two network requests (original plus the retry
// after a refresh), and server errors are retried.
//
// The sealing passphrase for the file store is never read from the file; it
// comes from the environment variable named by credential_passphrase_env.
package config
