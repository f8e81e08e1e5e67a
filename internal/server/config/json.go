package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gatorauth/internal/flagx"
	"github.com/dmitrijs2005/gatorauth/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Durations
// accept both "5m"-style strings and integer nanoseconds. Pointer fields let
// an explicit false be told apart from an absent key.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	AppID                        string         `json:"app_id"`
	APIKey                       string         `json:"api_key"`
	DatabaseDriver               string         `json:"database_driver"`
	DatabaseDSN                  string         `json:"database_dsn"`
	ConnectMaxWait               timex.Duration `json:"connect_max_wait"`
	AccessTokenPrivateKey        string         `json:"access_token_private_key"`
	AccessTokenPublicKey         string         `json:"access_token_public_key"`
	RefreshTokenPrivateKey       string         `json:"refresh_token_private_key"`
	RefreshTokenPublicKey        string         `json:"refresh_token_public_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	OneTimeRefresh               *bool          `json:"one_time_refresh"`
	BlacklistPruneInterval       timex.Duration `json:"blacklist_prune_interval"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	SecureCookies                *bool          `json:"secure_cookies"`
	CORSAllowedOrigins           []string       `json:"cors_allowed_origins"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJSON overlays values from the file named by -c/-config in args.
// Keys absent from the file leave the current values untouched.
func parseJSON(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.AppID, c.AppID)
	setString(&config.APIKey, c.APIKey)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AccessTokenPrivateKey, c.AccessTokenPrivateKey)
	setString(&config.AccessTokenPublicKey, c.AccessTokenPublicKey)
	setString(&config.RefreshTokenPrivateKey, c.RefreshTokenPrivateKey)
	setString(&config.RefreshTokenPublicKey, c.RefreshTokenPublicKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.ConnectMaxWait.Duration != 0 {
		config.ConnectMaxWait = c.ConnectMaxWait.Duration
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.BlacklistPruneInterval.Duration != 0 {
		config.BlacklistPruneInterval = c.BlacklistPruneInterval.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.OneTimeRefresh != nil {
		config.OneTimeRefresh = *c.OneTimeRefresh
	}
	if c.SecureCookies != nil {
		config.SecureCookies = *c.SecureCookies
	}
	if c.CORSAllowedOrigins != nil {
		config.CORSAllowedOrigins = c.CORSAllowedOrigins
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
