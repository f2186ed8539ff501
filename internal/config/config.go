package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/iammorganparry/feel/internal/models"
)

const (
	ProviderGemini    = "gemini"
	ProviderGeminiSDK = "gemini-sdk"
	ProviderOpenAI    = "openai"

	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"

	CodecTextSafe = "text-safe"
	CodecJSON     = "json"

	DefaultOpenAIModel = "gpt-4.1-mini"
)

type Config struct {
	Port     int
	LogLevel string
	APIKey   string
	// Analysis
	Provider        string
	GeminiAPIKey    string
	LLMBaseURL      string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	DefaultModel    string
	DefaultLanguage models.Language
	HTTPTimeout     time.Duration
	// Emoji catalog
	EmojiAPIURL string
	// Persistence
	StorageDriver string
	DBPath        string
	DataDir       string
	QuotaBytes    int
	Codec         string
	// MCP bridge
	ServerURL string
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present; real environment
// variables win over it.
func Load() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadOffline is Load without the analysis provider checks, for tools
// that only read the persisted history or talk to a running server.
func LoadOffline() (*Config, error) {
	cfg := fromEnv()
	if err := cfg.validateCommon(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func fromEnv() *Config {
	_ = godotenv.Load()

	dataDir := envStr("FEEL_DATA_DIR", defaultDataDir())
	cfg := &Config{
		Port:            envInt("PORT", 8742),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		APIKey:          envStr("API_KEY", ""),
		Provider:        envStr("LLM_PROVIDER", ProviderGemini),
		GeminiAPIKey:    envStr("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		LLMBaseURL:      envStr("LLM_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		OpenAIAPIKey:    envStr("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   envStr("OPENAI_BASE_URL", ""),
		DefaultModel:    envStr("DEFAULT_MODEL", models.DefaultModel),
		DefaultLanguage: models.Language(envStr("DEFAULT_LANGUAGE", string(models.DefaultLanguage))),
		HTTPTimeout:     time.Duration(envInt("HTTP_TIMEOUT_SECONDS", 60)) * time.Second,
		EmojiAPIURL:     envStr("EMOJI_API_URL", "https://emojihub.yurace.pro/api"),
		StorageDriver:   envStr("STORAGE_DRIVER", DriverSQLite),
		DBPath:          envStr("FEEL_DB_PATH", filepath.Join(dataDir, "feel.db")),
		DataDir:         dataDir,
		QuotaBytes:      envInt("STORAGE_QUOTA_BYTES", 5*1024*1024),
		Codec:           envStr("STORAGE_CODEC", CodecTextSafe),
		ServerURL:       envStr("FEEL_SERVER_URL", "http://localhost:8742"),
	}

	if cfg.Provider == ProviderOpenAI && os.Getenv("DEFAULT_MODEL") == "" {
		cfg.DefaultModel = DefaultOpenAIModel
	}
	return cfg
}

func (c *Config) validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderGeminiSDK:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY must be set for provider %q", c.Provider)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set for provider %q", c.Provider)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of gemini, gemini-sdk, openai, got %q", c.Provider)
	}
	if !c.DefaultLanguage.IsValid() {
		return fmt.Errorf("DEFAULT_LANGUAGE must be fr or en, got %q", c.DefaultLanguage)
	}
	if c.Provider != ProviderOpenAI && !models.IsSupportedModel(c.DefaultModel) {
		return fmt.Errorf("DEFAULT_MODEL %q is not a supported model", c.DefaultModel)
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.StorageDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("FEEL_DB_PATH must not be empty")
		}
	case DriverFile:
		if c.DataDir == "" {
			return fmt.Errorf("FEEL_DATA_DIR must not be empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of sqlite, file, memory, got %q", c.StorageDriver)
	}
	if c.Codec != CodecTextSafe && c.Codec != CodecJSON {
		return fmt.Errorf("STORAGE_CODEC must be text-safe or json, got %q", c.Codec)
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("STORAGE_QUOTA_BYTES must not be negative, got %d", c.QuotaBytes)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "feel")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "feel")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
