package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/gatorauth/internal/flagx"
)

var serverFlags = []string{
	"-a", "-i", "-k", "-d", "-driver", "-t", "-r", "-b", "-o",
	"-access-private-key", "-access-public-key",
	"-refresh-private-key", "-refresh-public-key",
	"-log-level",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-i string   application id, used in the base path and X-Gator-App-Id
//	-k string   shared API key
//	-d string   database DSN
//	-driver     database driver: pgx or sqlite
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-b int      bcrypt cost
//	-o          one-time-use refresh tokens
//	-access-private-key, -access-public-key,
//	-refresh-private-key, -refresh-public-key   PEM or path to PEM
//	-log-level  debug, info, warn or error
//
// Only these flags are considered; everything else in args is ignored.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.AppID, "i", config.AppID, "application id")
	fs.StringVar(&config.APIKey, "k", config.APIKey, "shared api key")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.DatabaseDriver, "driver", config.DatabaseDriver, "database driver (pgx|sqlite)")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshTokenValidity := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.BoolVar(&config.OneTimeRefresh, "o", config.OneTimeRefresh, "one-time-use refresh tokens")

	fs.StringVar(&config.AccessTokenPrivateKey, "access-private-key", config.AccessTokenPrivateKey, "access token private key")
	fs.StringVar(&config.AccessTokenPublicKey, "access-public-key", config.AccessTokenPublicKey, "access token public key")
	fs.StringVar(&config.RefreshTokenPrivateKey, "refresh-private-key", config.RefreshTokenPrivateKey, "refresh token private key")
	fs.StringVar(&config.RefreshTokenPublicKey, "refresh-public-key", config.RefreshTokenPublicKey, "refresh token public key")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Whole-minute flags only override when given, so sub-minute values from
	// JSON or the environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidity) * time.Minute
		}
	})

	return nil
}
