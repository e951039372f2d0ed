package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are skipped; variables already set in the
// environment are not overwritten.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// Env returns the trimmed value of key, or "" when unset. A leading UTF-8
// byte order mark is stripped, which editors on Windows tend to leave behind.
func Env(key string) string {
	return strings.TrimSpace(strings.TrimPrefix(os.Getenv(key), "\ufeff"))
}

// EnvOr returns Env(key), or fallback when the variable is empty.
func EnvOr(key, fallback string) string {
	if v := Env(key); v != "" {
		return v
	}
	return fallback
}
