// Package confluenceconfig resolves the credentials and project settings
// the core components consume: Confluence auth (env vars, optional .env
// file) and the YAML project config surface of spec §6.
package confluenceconfig

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// AuthMode selects how Credentials authenticates against Confluence.
type AuthMode int

const (
	// AuthModeBasic authenticates with an email + API token pair.
	AuthModeBasic AuthMode = iota
	// AuthModeBearer authenticates with a personal access token.
	AuthModeBearer
)

// Credentials holds resolved Confluence connection details. Exactly one of
// (Email, APIToken) or (APIToken alone, as a bearer PAT) is meaningful,
// selected by Mode (spec §4.9 "exactly one" auth model).
type Credentials struct {
	Domain   string
	Email    string
	APIToken string
	Mode     AuthMode
}

// ErrMissingConfig is returned when required credential values cannot be resolved.
var ErrMissingConfig = errors.New("confluenceconfig: missing configuration")

// LoadCredentials resolves credentials from environment and an optional
// .env file. Precedence: CONFLUENCE_* (legacy) -> ATLASSIAN_* -> .env file.
// The .env path is loaded only if explicit env vars are absent. A
// CONFLUENCE_PAT / ATLASSIAN_PAT value selects bearer auth; otherwise basic
// auth is assumed and an email is required.
func LoadCredentials(dotEnvPath string) (*Credentials, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			_ = godotenv.Load(dotEnvPath)
		}
	}

	domain := resolve("CONFLUENCE_URL", "ATLASSIAN_DOMAIN")
	pat := resolve("CONFLUENCE_PAT", "ATLASSIAN_PAT")

	var missing []string
	if domain == "" {
		missing = append(missing, "ATLASSIAN_DOMAIN")
	}

	if pat != "" {
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
		}
		return &Credentials{
			Domain:   strings.TrimRight(domain, "/"),
			APIToken: pat,
			Mode:     AuthModeBearer,
		}, nil
	}

	email := resolve("CONFLUENCE_EMAIL", "ATLASSIAN_EMAIL")
	token := resolve("CONFLUENCE_API_TOKEN", "ATLASSIAN_API_TOKEN")
	if email == "" {
		missing = append(missing, "ATLASSIAN_EMAIL")
	}
	if token == "" {
		missing = append(missing, "ATLASSIAN_API_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	return &Credentials{
		Domain:   strings.TrimRight(domain, "/"),
		Email:    email,
		APIToken: token,
		Mode:     AuthModeBasic,
	}, nil
}

// resolve returns the first non-empty value from the legacy key then the canonical key.
func resolve(legacyKey, canonicalKey string) string {
	if v := os.Getenv(legacyKey); v != "" {
		return v
	}
	return os.Getenv(canonicalKey)
}
