package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultJSONDir = "APT_DIGITAL_WEAPON_JSON"
	defaultSTIXDir = "APT_DIGITAL_WEAPON_STIX"
)

// Config holds all md2stix configuration.
type Config struct {
	Pipeline PipelineConfig
	Log      LogConfig
	API      APIConfig

	MetricsFile string // empty disables the textfile export
	DatabaseURL string // empty disables indicator persistence
}

// PipelineConfig holds the input/output roots and extraction settings.
type PipelineConfig struct {
	MarkdownRoot string
	JSONRoot     string
	STIXRoot     string
	Workers      int
	TableMode    string // "lines", "gfm"
	HeaderMode   string // "shared", "per-table"
}

type LogConfig struct {
	Level  string
	Format string // "text", "json"
}

type APIConfig struct {
	Port      string
	AuthToken string
}

// Load reads configuration from environment variables with defaults that
// reproduce the historical directory layout: both output roots sit next to
// the tree they are derived from.
func Load() Config {
	markdownRoot := getEnv("MD2STIX_MARKDOWN_ROOT", ".")
	jsonRoot := getEnv("MD2STIX_JSON_ROOT", siblingOf(markdownRoot, defaultJSONDir))
	stixRoot := getEnv("MD2STIX_STIX_ROOT", siblingOf(jsonRoot, defaultSTIXDir))

	return Config{
		Pipeline: PipelineConfig{
			MarkdownRoot: markdownRoot,
			JSONRoot:     jsonRoot,
			STIXRoot:     stixRoot,
			Workers:      getEnvInt("MD2STIX_WORKERS", 8),
			TableMode:    strings.ToLower(getEnv("MD2STIX_TABLE_MODE", "lines")),
			HeaderMode:   strings.ToLower(getEnv("MD2STIX_HEADER_MODE", "shared")),
		},
		Log: LogConfig{
			Level:  getEnv("MD2STIX_LOG_LEVEL", "info"),
			Format: getEnv("MD2STIX_LOG_FORMAT", "text"),
		},
		API: APIConfig{
			Port:      getEnv("REST_API_PORT", "8080"),
			AuthToken: os.Getenv("REST_API_AUTH_TOKEN"),
		},
		MetricsFile: os.Getenv("MD2STIX_METRICS_FILE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
}

// siblingOf places name next to root, e.g. ./weapons -> ./<name>.
func siblingOf(root, name string) string {
	return filepath.Join(filepath.Dir(filepath.Clean(root)), name)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return defaultValue
	}
	return n
}
