package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := FromEnv(envMap(map[string]string{"DATA_DIR": dir}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.LLMProvider != ProviderEcho {
		t.Errorf("LLMProvider = %q, want echo without credentials", cfg.LLMProvider)
	}
	if cfg.BufferCapacity != 51 || cfg.SubmitWindow != 10 {
		t.Errorf("BufferCapacity/SubmitWindow = %d/%d", cfg.BufferCapacity, cfg.SubmitWindow)
	}
	if cfg.InterpretTimeout != 0 {
		t.Errorf("InterpretTimeout = %v, want none", cfg.InterpretTimeout)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if cfg.CameraEnabled() {
		t.Error("camera should be disabled by default")
	}
	if cfg.PrimaryLanguage != "English" {
		t.Errorf("PrimaryLanguage = %q", cfg.PrimaryLanguage)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "isharavaani.db") {
		t.Errorf("DatabasePath() = %q", cfg.DatabasePath())
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"DATA_DIR":          t.TempDir(),
		"ADDR":              "127.0.0.1:9000",
		"LLM_PROVIDER":      "OpenAI",
		"OPENAI_BASE_URL":   "http://localhost:11434/v1",
		"INTERPRET_TIMEOUT": "15",
		"CACHE_TTL":         "90m",
		"CAMERA_ID":         "0",
		"BUFFER_CAPACITY":   "30",
		"SUBMIT_WINDOW":     "5",
		"DESKTOP":           "true",
		"MOTION_THRESHOLD":  "0.1",
	}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	if cfg.Addr != "127.0.0.1:9000" || cfg.LLMProvider != ProviderOpenAI {
		t.Errorf("Addr/LLMProvider = %q/%q", cfg.Addr, cfg.LLMProvider)
	}
	if cfg.InterpretTimeout != 15*time.Second {
		t.Errorf("InterpretTimeout = %v", cfg.InterpretTimeout)
	}
	if cfg.CacheTTL != 90*time.Minute {
		t.Errorf("CacheTTL = %v", cfg.CacheTTL)
	}
	if !cfg.CameraEnabled() || !cfg.Desktop {
		t.Errorf("CameraEnabled/Desktop = %v/%v", cfg.CameraEnabled(), cfg.Desktop)
	}
	if cfg.BufferCapacity != 30 || cfg.SubmitWindow != 5 || cfg.MotionThreshold != 0.1 {
		t.Errorf("capacity/window/threshold = %d/%d/%v", cfg.BufferCapacity, cfg.SubmitWindow, cfg.MotionThreshold)
	}
}

func TestFromEnv_ProviderInference(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{"DATA_DIR": t.TempDir(), "GCP_PROJECT": "demo"}))
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.LLMProvider != ProviderGemini {
		t.Errorf("LLMProvider = %q, want gemini", cfg.LLMProvider)
	}
	if cfg.GCPLocation != "us-central1" {
		t.Errorf("GCPLocation = %q", cfg.GCPLocation)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, val string
	}{
		{"LLM_PROVIDER", "claude"},
		{"INTERPRET_TIMEOUT", "soon"},
		{"CAMERA_ID", "front"},
		{"BUFFER_CAPACITY", "0"},
		{"SUBMIT_WINDOW", "-2"},
		{"MOTION_THRESHOLD", "high"},
		{"DESKTOP", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := FromEnv(envMap(map[string]string{"DATA_DIR": t.TempDir(), tt.key: tt.val}))
			if err == nil {
				t.Fatalf("expected error for %s=%q", tt.key, tt.val)
			}
			if !strings.Contains(err.Error(), strings.Split(tt.key, "_")[0]) {
				t.Errorf("error %q does not name the key", err)
			}
		})
	}
}
