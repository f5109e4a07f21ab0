// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting.
type Config struct {
	Addr      string
	DataDir   string
	StaticDir string
	LogLevel  string

	LLMProvider   string
	GCPProject    string
	GCPLocation   string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	RedisURL string
	CacheTTL time.Duration

	Desktop         bool
	CameraID        int
	MotionThreshold float64

	InterpretTimeout time.Duration
	BufferCapacity   int
	SubmitWindow     int
	PrimaryLanguage  string
}

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

// Load reads an optional .env file from the working directory and then
// the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Addr:            get("ADDR", ":8080"),
		LogLevel:        get("LOG_LEVEL", "info"),
		LLMProvider:     strings.ToLower(get("LLM_PROVIDER", "")),
		GCPProject:      get("GCP_PROJECT", ""),
		GCPLocation:     get("GCP_LOCATION", "us-central1"),
		GeminiModel:     get("GEMINI_MODEL", ""),
		OpenAIAPIKey:    get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   get("OPENAI_BASE_URL", ""),
		OpenAIModel:     get("OPENAI_MODEL", ""),
		RedisURL:        get("REDIS_URL", ""),
		PrimaryLanguage: get("PRIMARY_LANGUAGE", "English"),
	}

	dataDir := get("DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".isharavaani")
	}
	cfg.DataDir = dataDir
	cfg.StaticDir = get("STATIC_DIR", findStaticDir(dataDir))

	if cfg.LLMProvider == "" {
		cfg.LLMProvider = defaultProvider(cfg)
	}
	switch cfg.LLMProvider {
	case ProviderGemini, ProviderOpenAI, ProviderEcho:
	default:
		return nil, fmt.Errorf("LLM_PROVIDER: unknown provider %q", cfg.LLMProvider)
	}

	var err error
	if cfg.CacheTTL, err = duration(get("CACHE_TTL", "24h"), "CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.InterpretTimeout, err = duration(get("INTERPRET_TIMEOUT", "0"), "INTERPRET_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.CameraID, err = integer(get("CAMERA_ID", "-1"), "CAMERA_ID"); err != nil {
		return nil, err
	}
	if cfg.BufferCapacity, err = integer(get("BUFFER_CAPACITY", "51"), "BUFFER_CAPACITY"); err != nil {
		return nil, err
	}
	if cfg.SubmitWindow, err = integer(get("SUBMIT_WINDOW", "10"), "SUBMIT_WINDOW"); err != nil {
		return nil, err
	}
	if cfg.BufferCapacity <= 0 || cfg.SubmitWindow <= 0 {
		return nil, fmt.Errorf("BUFFER_CAPACITY and SUBMIT_WINDOW must be positive")
	}
	if cfg.MotionThreshold, err = strconv.ParseFloat(get("MOTION_THRESHOLD", "0.02"), 64); err != nil {
		return nil, fmt.Errorf("MOTION_THRESHOLD: %w", err)
	}
	if cfg.Desktop, err = strconv.ParseBool(get("DESKTOP", "false")); err != nil {
		return nil, fmt.Errorf("DESKTOP: %w", err)
	}

	return cfg, nil
}

// CameraEnabled reports whether the desktop capture pipeline should run.
func (c *Config) CameraEnabled() bool {
	return c.CameraID >= 0
}

// DatabasePath is the sqlite file inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "isharavaani.db")
}

func defaultProvider(cfg *Config) string {
	switch {
	case cfg.GCPProject != "":
		return ProviderGemini
	case cfg.OpenAIAPIKey != "" || cfg.OpenAIBaseURL != "":
		return ProviderOpenAI
	default:
		return ProviderEcho
	}
}

func findStaticDir(dataDir string) string {
	for _, dir := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

// duration accepts Go durations and bare seconds.
func duration(s, key string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func integer(s, key string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
