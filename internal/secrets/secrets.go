// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads backend credentials from a directory of plain-text
// files. Each file in the directory represents one secret: the filename is
// the key name and the file contents (trimmed) are the value.
//
// Supported key files: anyparser-api-key, anyparser-api-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// Key files and the environment variables consulted when a file is absent.
const (
	KeyAPIKey = "anyparser-api-key"
	KeyAPIURL = "anyparser-api-url"

	EnvAPIKey = "ANYPARSER_API_KEY"
	EnvAPIURL = "ANYPARSER_API_URL"
)

// Set maps secret names to values.
type Set map[string]string

// Load reads all files in dir and returns a Set of filename to trimmed
// contents. A missing directory is not an error; Load returns an empty Set.
// Unreadable files are logged and skipped.
func Load(dir string) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(Set)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve returns the first non-empty value among explicit, the secret named
// key, and the environment variable env.
func (s Set) Resolve(explicit, key, env string) string {
	if explicit != "" {
		return explicit
	}
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(env))
}

// Keys returns the loaded secret names without their values.
func (s Set) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}
