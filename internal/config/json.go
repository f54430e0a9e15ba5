package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/NatsuCamellia/cool-tracker/internal/flagx"
	"github.com/NatsuCamellia/cool-tracker/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify intervals either as strings like "30s"
// or as integer nanoseconds. After parsing, values are copied into the
// runtime Config (which uses time.Duration).
type JsonConfig struct {
	BaseURL             string         `json:"base_url"`
	DatabasePath        string         `json:"database_path"`
	KeyPath             string         `json:"key_path"`
	KeyPassphraseEnv    string         `json:"key_passphrase_env"`
	HTTPTimeout         timex.Duration `json:"http_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	FetchConcurrency    int            `json:"fetch_concurrency"`
	RequestsPerSecond   float64        `json:"requests_per_second"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flags (flagx.JsonConfigFlags);
// when neither is given, no JSON is loaded. Zero-valued JSON fields leave the
// existing Config value untouched. Read or unmarshal errors panic; the config
// layering runs before anything else, so there is nothing to clean up.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.BaseURL != "" {
		cfg.BaseURL = jc.BaseURL
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.KeyPath != "" {
		cfg.KeyPath = jc.KeyPath
	}
	if jc.KeyPassphraseEnv != "" {
		cfg.KeyPassphraseEnv = jc.KeyPassphraseEnv
	}
	if jc.HTTPTimeout.Duration != 0 {
		cfg.HTTPTimeout = time.Duration(jc.HTTPTimeout.Duration)
	}
	if jc.OnlineCheckInterval.Duration != 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval.Duration)
	}
	if jc.FetchConcurrency != 0 {
		cfg.FetchConcurrency = jc.FetchConcurrency
	}
	if jc.RequestsPerSecond != 0 {
		cfg.RequestsPerSecond = jc.RequestsPerSecond
	}
}
