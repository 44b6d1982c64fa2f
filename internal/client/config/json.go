package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/whatbmphotos/internal/flagx"
	"github.com/dmitrijs2005/whatbmphotos/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Absent
// fields leave the current value alone.
type JsonConfig struct {
	BaseURL         string         `json:"base_url"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	DataDir         string         `json:"data_dir"`
	DownloadDir     string         `json:"download_dir"`
	Language        string         `json:"language"`
	LogBackend      string         `json:"log_backend"`
	LogLevel        string         `json:"log_level"`
	CoalesceRefresh *bool          `json:"coalesce_refresh"`
	StorePassphrase string         `json:"store_passphrase"`
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
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

	overlay(&cfg.BaseURL, jc.BaseURL)
	overlay(&cfg.DataDir, jc.DataDir)
	overlay(&cfg.DownloadDir, jc.DownloadDir)
	overlay(&cfg.Language, jc.Language)
	overlay(&cfg.LogBackend, jc.LogBackend)
	overlay(&cfg.LogLevel, jc.LogLevel)
	overlay(&cfg.StorePassphrase, jc.StorePassphrase)
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.CoalesceRefresh != nil {
		cfg.CoalesceRefresh = *jc.CoalesceRefresh
	}
}
