package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Insecure default values that must never reach production.
var insecureDefaults = map[string]bool{
	"your-secret-key-change-in-production": true,
	"internal-secret":                      true,
	"internal-service-secret":              true,
	"":                                     true,
}

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	JWT            JWTConfig
	GitHub         GitHubConfig
	Cloud          CloudConfig
	Session        SessionConfig
	InternalSecret string
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	Schema   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

// GitHubConfig holds the version-control platform settings. The token is the
// only credential this service uses against GitHub.
type GitHubConfig struct {
	Org             string
	Token           string
	TemplateRepoURL string
}

// CloudConfig holds the Google Cloud settings. ProjectHash is the
// project-specific hash Cloud Run embeds in service hostnames; it lets the
// service compute deployment URLs without a round trip to the platform.
type CloudConfig struct {
	ProjectID   string
	ProjectHash string
	Region      string
	Connection  string
}

type SessionConfig struct {
	AppPort int
}

func Load() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8006"),
			Mode: getEnv("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "saas_user"),
			Password: getEnv("DB_PASSWORD", "saas_pass"),
			DBName:   getEnv("DB_NAME", "saas_db"),
			Schema:   getEnv("DB_SCHEMA", "provisioner"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET_KEY", ""),
		},
		GitHub: GitHubConfig{
			Org:             getEnv("GITHUB_ORG", ""),
			Token:           getEnv("GITHUB_TOKEN", ""),
			TemplateRepoURL: getEnv("GITHUB_TEMPLATE_REPO_URL", ""),
		},
		Cloud: CloudConfig{
			ProjectID:   getEnv("GCLOUD_PROJECT_ID", ""),
			ProjectHash: getEnv("GCLOUD_PROJECT_HASH", ""),
			Region:      getEnv("GCLOUD_REGION", "us-central1"),
			Connection:  getEnv("CLOUDBUILD_CONNECTION", "my-github-connection"),
		},
		Session: SessionConfig{
			AppPort: getEnvInt("SESSION_APP_PORT", 3000),
		},
		InternalSecret: getEnv("INTERNAL_SECRET", ""),
	}

	// Never log tokens or secrets.
	log.Printf("[config] Site Provisioner loaded: port=%s db=%s/%s.%s project=%s region=%s org=%s",
		cfg.Server.Port, cfg.Database.Host, cfg.Database.DBName, cfg.Database.Schema,
		cfg.Cloud.ProjectID, cfg.Cloud.Region, cfg.GitHub.Org)

	return cfg
}

// Validate checks the secrets the HTTP layer depends on. It runs once at
// startup and is fatal when it fails.
func (c *Config) Validate() error {
	if insecureDefaults[c.JWT.SecretKey] {
		return fmt.Errorf("JWT_SECRET_KEY must be set to a secure value (current value is insecure or empty)")
	}
	if len(c.JWT.SecretKey) < 32 {
		return fmt.Errorf("JWT_SECRET_KEY must be at least 32 characters long")
	}

	if insecureDefaults[c.InternalSecret] {
		return fmt.Errorf("INTERNAL_SECRET must be set to a secure value (current value is insecure or empty)")
	}
	if len(c.InternalSecret) < 32 {
		return fmt.Errorf("INTERNAL_SECRET must be at least 32 characters long")
	}

	return nil
}

// ValidateProvisioning checks that every value the provisioning flow needs is
// present. The orchestrator consults it before making any external call, so a
// misconfigured server fails fast with no side effects.
func (c *Config) ValidateProvisioning() error {
	var missing []string
	if c.Cloud.ProjectID == "" {
		missing = append(missing, "GCLOUD_PROJECT_ID")
	}
	if c.Cloud.ProjectHash == "" {
		missing = append(missing, "GCLOUD_PROJECT_HASH")
	}
	if c.GitHub.Org == "" {
		missing = append(missing, "GITHUB_ORG")
	}
	if c.GitHub.Token == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.GitHub.TemplateRepoURL == "" {
		missing = append(missing, "GITHUB_TEMPLATE_REPO_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("server configuration error: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// ValidateSession checks the subset of configuration the live-editing flow
// needs. Sessions run against an existing repository, so the template URL and
// project hash are not required here.
func (c *Config) ValidateSession() error {
	if c.Cloud.ProjectID == "" {
		return fmt.Errorf("server configuration error: missing GCLOUD_PROJECT_ID")
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + c.Port + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
