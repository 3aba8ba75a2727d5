package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// envLookup resolves variables from the process environment first and from
// parsed `.env` files second. Empty process values fall through to `.env`.
// The process environment is never mutated.
type envLookup struct {
	dotenv map[string]string
}

func (e envLookup) lookup(key string) (string, bool) {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value, true
	}
	value, ok := e.dotenv[key]
	return value, ok
}

func dotEnvCandidates(configPath string) []string {
	var paths []string
	if configPath != "" {
		paths = append(paths, filepath.Join(filepath.Dir(configPath), ".env"))
	}
	if abs, err := filepath.Abs(".env"); err == nil {
		paths = append(paths, abs)
	}
	return paths
}

// loadEnv merges the given `.env` files. Earlier files win on duplicate keys.
func loadEnv(paths []string) (envLookup, error) {
	merged := make(map[string]string)
	seen := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		values, err := godotenv.Read(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return envLookup{}, fmt.Errorf("read %s: %w", path, err)
		}
		for key, value := range values {
			if _, exists := merged[key]; !exists {
				merged[key] = value
			}
		}
	}
	return envLookup{dotenv: merged}, nil
}
