package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultMaxUploadBytes   = 10 << 20
	defaultDeployment       = "gpt-4o"
	defaultAPIVersion       = "2024-02-15-preview"
	defaultStorageRegion    = "us-east-1"
	defaultAllowedFileTypes = ".pdf,.doc,.docx,.txt"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string

	// Remote completion API.
	OpenAIEndpoint   string
	OpenAIAPIKey     string
	OpenAIDeployment string
	OpenAIAPIVersion string
	OpenAITimeout    time.Duration

	// Storage. StorageAccount presence selects the cloud backend.
	StorageAccount     string
	StorageRegion      string
	StorageEndpoint    string
	StorageAccessKey   string
	StorageSecretKey   string
	UseManagedIdentity bool
	LocalStoreDir      string

	// Uploads.
	MaxUploadBytes   int64
	AllowedFileTypes []string

	// PDF rendering.
	ChromePath      string
	ChromeRemoteURL string
	ChromeNoSandbox bool
	RenderTimeout   time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	apiKey := getEnv("AZURE_OPENAI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("OPENAI_API_KEY", "")
	}

	region := getEnv("STORAGE_REGION", "")
	if region == "" {
		region = getEnv("AWS_REGION", defaultStorageRegion)
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		Env:              normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		OpenAIEndpoint:   strings.TrimRight(getEnv("AZURE_OPENAI_ENDPOINT", ""), "/"),
		OpenAIAPIKey:     apiKey,
		OpenAIDeployment: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", defaultDeployment),
		OpenAIAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", defaultAPIVersion),
		OpenAITimeout:    getSeconds("OPENAI_TIMEOUT_SECONDS", 120*time.Second),

		StorageAccount:     strings.TrimSpace(os.Getenv("STORAGE_ACCOUNT_NAME")),
		StorageRegion:      region,
		StorageEndpoint:    getEnv("STORAGE_ENDPOINT", ""),
		StorageAccessKey:   getEnv("STORAGE_ACCESS_KEY_ID", ""),
		StorageSecretKey:   getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
		UseManagedIdentity: getBool("USE_MANAGED_IDENTITY", false),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "."),

		MaxUploadBytes:   getInt64("MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		AllowedFileTypes: normalizeExtensions(splitAndTrim(getEnv("ALLOWED_FILE_TYPES", defaultAllowedFileTypes))),

		ChromePath:      getEnv("CHROME_PATH", ""),
		ChromeRemoteURL: getEnv("CHROME_REMOTE_URL", ""),
		ChromeNoSandbox: getBool("CHROME_NO_SANDBOX", false),
		RenderTimeout:   getSeconds("PDF_RENDER_TIMEOUT_SECONDS", 60*time.Second),
	}
}

// CloudStorage reports whether the cloud storage backend is configured.
func (c Config) CloudStorage() bool {
	return strings.TrimSpace(c.StorageAccount) != ""
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getBool(key string, def bool) bool {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return def
	}
	return parsed
}

func getInt64(key string, def int64) int64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getSeconds(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return time.Duration(parsed) * time.Second
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

// normalizeExtensions lower-cases entries and makes sure each starts with a dot.
func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
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
	default:
		return "dev"
	}
}
