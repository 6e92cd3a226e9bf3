package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/linkedcommunity/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Only -a, -d and -t are looked at; everything else in os.Args is filtered
// out with flagx.FilterArgs so other components may own their flags.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "local session database path")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
