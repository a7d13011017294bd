package srv

import (
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	BackendGitHub = "github"
	BackendSQLite = "sqlite"
)

// Environment keys that must be set for the server to touch the store.
const (
	EnvRepoOwner   = "GH_REPO_OWNER"
	EnvRepoName    = "GH_REPO_NAME"
	EnvGitHubToken = "GITHUB_TOKEN"
	EnvAdminSecret = "ADMIN_SECRET"
)

// Config holds all configurable server settings.
type Config struct {
	// Store
	StoreBackend string
	RepoOwner    string
	RepoName     string
	FilePath     string
	Branch       string
	GitHubToken  string
	GitHubAPIURL string
	StoreTimeout time.Duration
	DBPath       string

	// Admin
	AdminSecret string // plain text, or a bcrypt hash

	// Admin Rate Limiting
	AdminRateLimit    int           // requests per interval
	AdminRateInterval time.Duration // interval for rate limit
	AdminRateBurst    int           // max burst capacity

	// Honeycomb
	HoneycombAPIKey string
	ServiceName     string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StoreBackend: BackendGitHub,
		FilePath:     "public/changelog.json",
		Branch:       "main",
		StoreTimeout: 15 * time.Second,
		DBPath:       "changelog.sqlite3",

		// Admin: 10 requests per minute, burst of 5
		AdminRateLimit:    10,
		AdminRateInterval: time.Minute,
		AdminRateBurst:    5,

		ServiceName: "changelogd",
	}
}

// ConfigFromEnv returns a Config populated from environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("STORE_BACKEND"); v == BackendGitHub || v == BackendSQLite {
		cfg.StoreBackend = v
	}

	cfg.RepoOwner = os.Getenv(EnvRepoOwner)
	cfg.RepoName = os.Getenv(EnvRepoName)
	cfg.GitHubToken = os.Getenv(EnvGitHubToken)
	cfg.GitHubAPIURL = os.Getenv("GITHUB_API_URL")
	cfg.AdminSecret = os.Getenv(EnvAdminSecret)

	if v := os.Getenv("GH_FILE_PATH"); v != "" {
		cfg.FilePath = v
	}
	if v := os.Getenv("GH_BRANCH"); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("STORE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.StoreTimeout = d
		}
	}

	if v := os.Getenv("ADMIN_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AdminRateLimit = n
		}
	}

	if v := os.Getenv("ADMIN_RATE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AdminRateInterval = d
		}
	}

	if v := os.Getenv("ADMIN_RATE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AdminRateBurst = n
		}
	}

	cfg.HoneycombAPIKey = os.Getenv("HONEYCOMB_API_KEY")
	if v := os.Getenv("OTEL_SERVICE_NAME"); v != "" {
		cfg.ServiceName = v
	}

	return cfg
}

// Missing lists the environment keys a request needs but that are unset.
// Reads only need the store location; mutations also need the credential
// and the admin secret.
func (c Config) Missing(mutating bool) []string {
	var missing []string
	if c.StoreBackend == BackendGitHub {
		if c.RepoOwner == "" {
			missing = append(missing, EnvRepoOwner)
		}
		if c.RepoName == "" {
			missing = append(missing, EnvRepoName)
		}
		if mutating && c.GitHubToken == "" {
			missing = append(missing, EnvGitHubToken)
		}
	}
	if mutating && c.AdminSecret == "" {
		missing = append(missing, EnvAdminSecret)
	}
	return missing
}
