package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/bizledger/internal/flagx"
)

var serverFlags = []string{"-a", "-g", "-d", "-s", "-t", "-r", "-l", "-revocation", "-redis", "-strict-refresh"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string            HTTP bind address (e.g. ":8080")
//	-g string            gRPC bind address, empty disables gRPC
//	-d string            PostgreSQL DSN
//	-s string            JWT HMAC secret key
//	-t duration          access token validity (e.g. "15m")
//	-r duration          refresh token validity (e.g. "168h")
//	-l string            log level
//	-revocation string   token denylist backend: none, memory, redis
//	-redis string        redis address
//	-strict-refresh      require refresh tokens on /auth/refresh and re-check account state
//
// os.Args is filtered with flagx.FilterArgs first so that flags owned by
// other components (such as -c) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port of the HTTP API")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port of the gRPC listener")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.AccessTokenValidityDuration, "t", config.AccessTokenValidityDuration, "access token validity")
	fs.DurationVar(&config.RefreshTokenValidityDuration, "r", config.RefreshTokenValidityDuration, "refresh token validity")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.RevocationBackend, "revocation", config.RevocationBackend, "token denylist backend (none, memory, redis)")
	fs.StringVar(&config.RedisAddr, "redis", config.RedisAddr, "redis address")
	fs.BoolVar(&config.StrictRefresh, "strict-refresh", config.StrictRefresh, "strict refresh token checks")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
