// Package config holds runtime settings for the cool-tracker client.
// Configuration is layered: defaults, then an optional JSON file, then
// command-line flags; later sources take precedence.
package config

import "time"

// Config holds runtime settings for the cool-tracker client.
//
// Fields:
//   - BaseURL: root of the LMS REST API, without a trailing slash.
//   - DatabasePath: SQLite file holding the local cache.
//   - KeyPath: file holding (or deriving) the credential encryption key.
//   - KeyPassphraseEnv: name of the env var with an optional keystore
//     passphrase; when set, the key is derived instead of stored.
//   - HTTPTimeout: per-request timeout for LMS calls.
//   - OnlineCheckInterval: how often the client probes LMS reachability.
//     Zero disables the built-in prober.
//   - FetchConcurrency: upper bound on concurrent per-course assignment fetches.
//   - RequestsPerSecond: outbound request budget against the LMS.
type Config struct {
	BaseURL             string
	DatabasePath        string
	KeyPath             string
	KeyPassphraseEnv    string
	HTTPTimeout         time.Duration
	OnlineCheckInterval time.Duration
	FetchConcurrency    int
	RequestsPerSecond   float64
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://cool.ntu.edu.tw/api/v1"
	c.DatabasePath = "cooltracker.db"
	c.KeyPath = "cooltracker.key"
	c.KeyPassphraseEnv = "COOLTRACKER_KEY_PASSPHRASE"
	c.HTTPTimeout = 15 * time.Second
	c.OnlineCheckInterval = 30 * time.Second
	c.FetchConcurrency = 8
	c.RequestsPerSecond = 10
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
