package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
)

// AppName names the data directory.
const AppName = "whatbmphotos"

// PassphraseEnv holds the optional credential store passphrase.
const PassphraseEnv = "WHATBM_STORE_PASSPHRASE"

// Config holds runtime settings for the whatbmphotos CLI.
//
// Fields:
//   - BaseURL: origin of the photo API, without trailing slash.
//   - RequestTimeout: upper bound for every API call, page fetches included.
//   - DataDir: local database and key file location.
//   - DownloadDir: where downloaded photos are written; defaults under DataDir.
//   - Language: UI language override; empty means the stored preference.
//   - CoalesceRefresh: share one token refresh between concurrent 401s.
//   - StorePassphrase: derive the credential store key from a passphrase
//     instead of a key file.
type Config struct {
	BaseURL         string
	RequestTimeout  time.Duration
	DataDir         string
	DownloadDir     string
	Language        string
	LogBackend      string
	LogLevel        string
	CoalesceRefresh bool
	StorePassphrase string
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", AppName)
	}
	return "." + AppName
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = "https://photos.whatbm.com/api"
	c.RequestTimeout = 30 * time.Second
	c.DataDir = defaultDataDir()
	c.DownloadDir = ""
	c.Language = ""
	c.LogBackend = logging.BackendZap
	c.LogLevel = "info"
	c.CoalesceRefresh = false
	c.StorePassphrase = ""
}

// DownloadPath returns DownloadDir, or DataDir/downloads when unset.
func (c *Config) DownloadPath() string {
	if c.DownloadDir != "" {
		return c.DownloadDir
	}
	return filepath.Join(c.DataDir, "downloads")
}

// DatabasePath is the SQLite file inside DataDir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "client.db")
}

func parseEnv(cfg *Config) {
	if v, ok := os.LookupEnv(PassphraseEnv); ok {
		cfg.StorePassphrase = v
	}
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
