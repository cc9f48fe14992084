package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string

	// Base URLs of the three compliance-backend API gateways.
	JobsAPIBaseURL           string
	QuestionGenAPIBaseURL    string
	IndexDocumentsAPIBaseURL string

	// Outbound bearer credentials. A static token wins when set; otherwise
	// the OAuth2 client-credentials flow against TokenURL is used.
	BackendToken       string
	TokenURL           string
	ClientID           string
	ClientSecret       string
	TokenScopes        []string
	BackendTimeoutSecs int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	jobsBase := os.Getenv("JOBS_API_BASE_URL")

	if env == "production" && jobsBase == "" {
		log.Printf("JOBS_API_BASE_URL is required in production")
	}

	return Config{
		Port:                     getEnv("PORT", "8080"),
		CORSAllowOrigin:          splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		Env:                      env,
		JobsAPIBaseURL:           jobsBase,
		QuestionGenAPIBaseURL:    getEnv("QUESTION_GENERATOR_API_BASE_URL", jobsBase),
		IndexDocumentsAPIBaseURL: getEnv("INDEX_DOCUMENTS_API_BASE_URL", jobsBase),
		BackendToken:             os.Getenv("BACKEND_TOKEN"),
		TokenURL:                 os.Getenv("TOKEN_URL"),
		ClientID:                 os.Getenv("TOKEN_CLIENT_ID"),
		ClientSecret:             os.Getenv("TOKEN_CLIENT_SECRET"),
		TokenScopes:              splitAndTrim(getEnv("TOKEN_SCOPES", "")),
		BackendTimeoutSecs:       getEnvInt("BACKEND_TIMEOUT_SECONDS", 0),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
