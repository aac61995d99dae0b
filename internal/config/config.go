// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes the names of the
// managed resources every Lambda talks to: the DynamoDB tables, the SNS
// topics, the Bedrock Knowledge Base, and the WebSocket push endpoint.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// GenerationConfig defines the Bedrock retrieve-and-generate settings.
type GenerationConfig struct {
	KnowledgeBaseID    string // KNOWLEDGE_BASE_ID (no default; required by cmd/process)
	InferenceProfileID string // INFERENCE_PROFILE_ID (short id or full ARN)
	AccountID          string // AWS_ACCOUNT_ID (needed to resolve short profile ids)
	MaxTokens          int    // GENERATION_MAX_TOKENS
}

// Config holds all configuration values for the application.
type Config struct {
	// Stores
	QuestionsTable   string // TABLE_NAME
	ConnectionsTable string // CONNECTIONS_TABLE

	// Pub/sub
	ProcessTopicARN string // PROCESS_TOPIC_ARN
	NotifyTopicARN  string // NOTIFY_TOPIC_ARN

	// Realtime push
	WebSocketEndpoint string // WEBSOCKET_API_ENDPOINT (required by cmd/notify)

	// Generation
	Generation GenerationConfig

	// Logging
	LogLevel string // debug|info|warn|error|fatal|panic

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
//
// Resources that only some Lambdas need (Knowledge Base id, WebSocket
// endpoint) are not validated here; each cmd main checks the fields it
// actually depends on.
func Load() (Config, error) {
	cfg := Config{
		QuestionsTable:   getenv("TABLE_NAME", "qa-assistant-questions"),
		ConnectionsTable: getenv("CONNECTIONS_TABLE", "qa-assistant-connections"),

		ProcessTopicARN: getenv("PROCESS_TOPIC_ARN", ""),
		NotifyTopicARN:  getenv("NOTIFY_TOPIC_ARN", ""),

		WebSocketEndpoint: getenv("WEBSOCKET_API_ENDPOINT", ""),

		Generation: GenerationConfig{
			KnowledgeBaseID:    getenv("KNOWLEDGE_BASE_ID", ""),
			InferenceProfileID: getenv("INFERENCE_PROFILE_ID", "us.amazon.nova-pro-v1:0"),
			AccountID:          getenv("AWS_ACCOUNT_ID", ""),
			MaxTokens:          getint("GENERATION_MAX_TOKENS", 4096),
		},

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-qa-backend"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.QuestionsTable) == "" {
		return cfg, errors.New("TABLE_NAME must not be empty")
	}
	if strings.TrimSpace(cfg.ConnectionsTable) == "" {
		return cfg, errors.New("CONNECTIONS_TABLE must not be empty")
	}
	if cfg.Generation.MaxTokens <= 0 {
		return cfg, errors.New("GENERATION_MAX_TOKENS must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
