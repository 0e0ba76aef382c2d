package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment overrides, applied on top of the config file.
const (
	EnvAPIURL   = "COVIDASH_API_URL"
	EnvLogLevel = "COVIDASH_LOG_LEVEL"
	EnvAddr     = "COVIDASH_ADDR"
)

// LoadEnvFiles loads dotenv files into the process environment. Variables
// already set win, and missing files are skipped.
func LoadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overwrites config values with any COVIDASH_* variables set.
func ApplyEnv(cfg *FileConfig) {
	if v, ok := lookupNonEmpty(EnvAPIURL); ok {
		cfg.API.BaseURL = &v
	}
	if v, ok := lookupNonEmpty(EnvLogLevel); ok {
		cfg.Log.Level = &v
	}
	if v, ok := lookupNonEmpty(EnvAddr); ok {
		cfg.Serve.Addr = &v
	}
}

func lookupNonEmpty(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
