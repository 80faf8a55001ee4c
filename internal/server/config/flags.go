package config

import (
	"flag"
	"os"
	"time"

	"github.com/akozlovs/gamersnet/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-k string   access-token signing key
//	-e string   refresh-token signing key
//	-t int      access token validity, seconds
//	-r int      refresh token validity, seconds
//	-q string   redis address for the session store (empty = in-memory)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers in seconds.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-k", "-e", "-t", "-r", "-q"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AccessTokenKey, "k", config.AccessTokenKey, "access-token signing key")
	fs.StringVar(&config.RefreshTokenKey, "e", config.RefreshTokenKey, "refresh-token signing key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access_token_validity_duration (in seconds)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Seconds()), "refresh_token_validity_duration (in seconds)")

	fs.StringVar(&config.RedisAddr, "q", config.RedisAddr, "redis address for session store")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Second
	config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Second
}
