package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bizledger/internal/flagx"
	"github.com/dmitrijs2005/bizledger/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations accept
// both "15m" strings and integer nanoseconds. Absent fields leave the current
// value untouched.
type JsonConfig struct {
	EndpointAddrHTTP             string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string        `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	MaxFailedAttempts            int            `json:"max_failed_attempts"`
	LockoutDuration              timex.Duration `json:"lockout_duration"`
	StrictRefresh                *bool          `json:"strict_refresh"`
	RevocationBackend            string         `json:"revocation_backend"`
	RedisAddr                    string         `json:"redis_addr"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson loads the file named by -c / -config, if any, and overlays its
// values onto config. It panics if the file cannot be read or decoded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	// an explicit empty string disables gRPC
	if c.EndpointAddrGRPC != nil {
		config.EndpointAddrGRPC = *c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.BcryptCost > 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.MaxFailedAttempts > 0 {
		config.MaxFailedAttempts = c.MaxFailedAttempts
	}
	if c.LockoutDuration.Duration > 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.StrictRefresh != nil {
		config.StrictRefresh = *c.StrictRefresh
	}
	if c.RevocationBackend != "" {
		config.RevocationBackend = c.RevocationBackend
	}
	if c.RedisAddr != "" {
		config.RedisAddr = c.RedisAddr
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
}
