package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cmsclient/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the CMS API
//	-t int      request timeout in seconds
//	-s string   credential store (memory, cookie, file, sqlite, redis)
//	-l string   field labels file (YAML)
//	-v string   log level (debug, info, warn, error)
//	-g string   host:port of the gRPC endpoint
//
// Other arguments are filtered out with flagx.FilterArgs so the CLI can keep
// its own.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-s", "-l", "-v", "-g"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.BaseURL, "a", cfg.BaseURL, "base URL of the CMS API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.CredentialStore, "s", cfg.CredentialStore, "credential store")
	fs.StringVar(&cfg.LabelsFile, "l", cfg.LabelsFile, "field labels file")
	fs.StringVar(&cfg.LogLevel, "v", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.GRPCAddr, "g", cfg.GRPCAddr, "gRPC endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
