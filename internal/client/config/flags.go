package config

import (
	"flag"
	"os"

	"github.com/mzaverin/dropspace/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the Redis-backed metadata store
//	-t string   pre-provisioned session token
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.RedisAddr, "a", cfg.RedisAddr, "address and port of the metadata store")
	fs.StringVar(&cfg.SessionToken, "t", cfg.SessionToken, "pre-provisioned session token")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
