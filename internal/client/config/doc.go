// Package config loads runtime configuration for the whatbmphotos CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. WHATBM_STORE_PASSPHRASE from the environment.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   API base URL
//	-t int      request timeout (seconds)
//	-d string   data directory
//	-l string   UI language
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "30s"
// or integer nanoseconds:
//
//	{
//	  "base_url": "https://photos.whatbm.com/api",
//	  "request_timeout": "30s",
//	  "data_dir": "/home/me/.local/share/whatbmphotos",
//	  "download_dir": "/home/me/Pictures",
//	  "language": "hin",
//	  "log_backend": "zap",
//	  "log_level": "debug",
//	  "coalesce_refresh": true
//	}
package config
