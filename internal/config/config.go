// Package config loads CLI settings from a JSON file backend with
// environment overrides.
package config

import "time"

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Upload  UploadConfig
}

type ServerConfig struct {
	// BaseURL is the document QA backend address.
	BaseURL string
}

type StorageConfig struct {
	// DataDir holds the local chat history database.
	DataDir string
}

type LogConfig struct {
	Level string
}

type UploadConfig struct {
	// ProgressResetDelayMS is how long a finished upload keeps showing
	// 100% before the indicator resets.
	ProgressResetDelayMS int
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			BaseURL: "http://localhost:8000",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Upload: UploadConfig{
			ProgressResetDelayMS: 800,
		},
	}
}

// ProgressResetDelay returns the upload indicator reset delay as a
// duration.
func (c Config) ProgressResetDelay() time.Duration {
	return time.Duration(c.Upload.ProgressResetDelayMS) * time.Millisecond
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/docq/config.json, then applies DOCQ_* environment
// overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}
