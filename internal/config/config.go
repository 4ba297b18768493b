package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/subgemma/subtrans/internal/document"
	"github.com/subgemma/subtrans/internal/llm"
	"github.com/subgemma/subtrans/internal/service"
	"github.com/subgemma/subtrans/internal/style"
	"github.com/subgemma/subtrans/internal/zhconv"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults; a .env file is
// honored when present (loaded by the command entrypoint).
//
// Environment Variables:
//
// Endpoint configuration:
// - LLM_ENDPOINT: Inference endpoint base URL (default: http://localhost:11434)
// - LLM_KIND: Endpoint flavor, "ollama" or "openai" (default: ollama)
// - LLM_API_KEY: Bearer token for openai-style endpoints (optional)
// - LLM_MODEL: Model name (default: translategemma)
// - LLM_MAX_TOKENS: Max tokens per response (default: 8000)
// - LLM_TEMPERATURE: Sampling temperature (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 300)
// - LLM_MAX_ATTEMPTS: Attempts per request (default: 3)
// - LLM_RETRY_DELAY: Base backoff delay in seconds (default: 2)
//
// Translation configuration:
// - SOURCE_LANGUAGE: Source language label (default: English)
// - TARGET_LANGUAGE: Target language label (default: Traditional Chinese)
// - BATCH_SIZE: Units per batch (default: 20)
// - MAX_BATCH_CHARS: Character budget per batch, 0 disables (default: 0)
// - STYLE_PRESET: Prompt persona name (default: subtitle)
// - INPUT_ROOT: Directory scanned for input files (default: /input)
// - OUTPUT_ROOT: Directory for translated files (default: /output)
// - OUTPUT_SUFFIX: Filename suffix before the extension, e.g. "_zh" (default: none)
// - FILE_TYPE: "srt" or "txt" (default: srt)
// - CRON_EXPR: Scan schedule for serve mode (default: 0 * * * *)
//
// Server configuration:
// - HTTP_ADDR: Status API listen address (default: :8650)
// - DB_PATH: SQLite database path (default: data/subtrans.db)
// - LOG_LEVEL: debug|info|warn|error (default: info)
type Config struct {
	LLM       llm.Config      `json:"llm"`
	Translate TranslateConfig `json:"translate"`
	Server    ServerConfig    `json:"server"`
}

// TranslateConfig holds the per-run translation defaults.
type TranslateConfig struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	BatchSize      int    `json:"batch_size"`
	MaxBatchChars  int    `json:"max_batch_chars"`
	StylePreset    string `json:"style_preset"`
	InputRoot      string `json:"input_root"`
	OutputRoot     string `json:"output_root"`
	OutputSuffix   string `json:"output_suffix"`
	FileType       string `json:"file_type"`
	CronExpr       string `json:"cron_expr"`
}

// ServerConfig holds serve-mode settings.
type ServerConfig struct {
	HTTPAddr string `json:"http_addr"`
	DBPath   string `json:"db_path"`
	LogLevel string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: llm.Config{
			Endpoint:    getEnvString("LLM_ENDPOINT", "http://localhost:11434"),
			Kind:        getEnvString("LLM_KIND", llm.KindOllama),
			APIKey:      getEnvString("LLM_API_KEY", ""),
			Model:       getEnvString("LLM_MODEL", "translategemma"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 8000),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.3),
			Timeout:     getEnvInt("LLM_TIMEOUT", 300),
			MaxAttempts: getEnvInt("LLM_MAX_ATTEMPTS", 3),
			RetryDelay:  getEnvInt("LLM_RETRY_DELAY", 2),
		},
		Translate: TranslateConfig{
			SourceLanguage: getEnvString("SOURCE_LANGUAGE", "English"),
			TargetLanguage: getEnvString("TARGET_LANGUAGE", zhconv.TraditionalChineseLabel),
			BatchSize:      getEnvInt("BATCH_SIZE", 20),
			MaxBatchChars:  getEnvInt("MAX_BATCH_CHARS", 0),
			StylePreset:    getEnvString("STYLE_PRESET", style.Subtitle.Name),
			InputRoot:      getEnvString("INPUT_ROOT", "/input"),
			OutputRoot:     getEnvString("OUTPUT_ROOT", "/output"),
			OutputSuffix:   getEnvString("OUTPUT_SUFFIX", ""),
			FileType:       getEnvString("FILE_TYPE", string(document.FormatSRT)),
			CronExpr:       getEnvString("CRON_EXPR", "0 * * * *"),
		},
		Server: ServerConfig{
			HTTPAddr: getEnvString("HTTP_ADDR", ":8650"),
			DBPath:   getEnvString("DB_PATH", "data/subtrans.db"),
			LogLevel: getEnvString("LOG_LEVEL", "info"),
		},
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.LLM.Validate(); err != nil {
		return nil, fmt.Errorf("invalid endpoint configuration: %w", err)
	}

	return config, nil
}

// RunConfiguration resolves the translate defaults into an immutable run
// configuration.
func (c *Config) RunConfiguration() (service.RunConfiguration, error) {
	preset, ok := style.Lookup(c.Translate.StylePreset)
	if !ok {
		return service.RunConfiguration{}, fmt.Errorf("unknown style preset %q, expected one of %v", c.Translate.StylePreset, style.Names())
	}

	cfg := service.RunConfiguration{
		SourceLanguage: c.Translate.SourceLanguage,
		TargetLanguage: c.Translate.TargetLanguage,
		Model:          c.LLM.Model,
		BatchSize:      c.Translate.BatchSize,
		MaxBatchChars:  c.Translate.MaxBatchChars,
		Style:          preset,
		InputRoot:      c.Translate.InputRoot,
		OutputRoot:     c.Translate.OutputRoot,
		OutputSuffix:   c.Translate.OutputSuffix,
		FileType:       document.Format(c.Translate.FileType),
	}
	if err := cfg.Validate(); err != nil {
		return service.RunConfiguration{}, err
	}
	return cfg, nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
