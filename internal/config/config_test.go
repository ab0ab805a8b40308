package config

import (
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"MD2STIX_MARKDOWN_ROOT", "MD2STIX_JSON_ROOT", "MD2STIX_STIX_ROOT", "MD2STIX_WORKERS",
		"MD2STIX_TABLE_MODE", "MD2STIX_HEADER_MODE", "MD2STIX_LOG_LEVEL", "MD2STIX_LOG_FORMAT",
		"MD2STIX_METRICS_FILE", "DATABASE_URL", "REST_API_PORT", "REST_API_AUTH_TOKEN",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Pipeline.MarkdownRoot != "." {
		t.Errorf("MarkdownRoot = %q, want .", cfg.Pipeline.MarkdownRoot)
	}
	if cfg.Pipeline.JSONRoot != "APT_DIGITAL_WEAPON_JSON" {
		t.Errorf("JSONRoot = %q, want APT_DIGITAL_WEAPON_JSON", cfg.Pipeline.JSONRoot)
	}
	if cfg.Pipeline.STIXRoot != "APT_DIGITAL_WEAPON_STIX" {
		t.Errorf("STIXRoot = %q, want APT_DIGITAL_WEAPON_STIX", cfg.Pipeline.STIXRoot)
	}
	if cfg.Pipeline.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.TableMode != "lines" || cfg.Pipeline.HeaderMode != "shared" {
		t.Errorf("unexpected modes: %q / %q", cfg.Pipeline.TableMode, cfg.Pipeline.HeaderMode)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log config: %+v", cfg.Log)
	}
	if cfg.API.Port != "8080" || cfg.API.AuthToken != "" {
		t.Errorf("unexpected API config: %+v", cfg.API)
	}
	if cfg.MetricsFile != "" || cfg.DatabaseURL != "" {
		t.Errorf("expected optional sinks disabled, got %q / %q", cfg.MetricsFile, cfg.DatabaseURL)
	}
}

func TestLoadDerivesSiblingRoots(t *testing.T) {
	t.Setenv("MD2STIX_MARKDOWN_ROOT", "/data/weapons/")
	t.Setenv("MD2STIX_JSON_ROOT", "")
	t.Setenv("MD2STIX_STIX_ROOT", "")

	cfg := Load()

	if cfg.Pipeline.JSONRoot != filepath.FromSlash("/data/APT_DIGITAL_WEAPON_JSON") {
		t.Errorf("JSONRoot = %q", cfg.Pipeline.JSONRoot)
	}
	if cfg.Pipeline.STIXRoot != filepath.FromSlash("/data/APT_DIGITAL_WEAPON_STIX") {
		t.Errorf("STIXRoot = %q", cfg.Pipeline.STIXRoot)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MD2STIX_JSON_ROOT", "/tmp/json")
	t.Setenv("MD2STIX_STIX_ROOT", "/tmp/stix")
	t.Setenv("MD2STIX_WORKERS", "3")
	t.Setenv("MD2STIX_TABLE_MODE", "GFM")
	t.Setenv("DATABASE_URL", "postgres://localhost/md2stix")

	cfg := Load()

	if cfg.Pipeline.JSONRoot != "/tmp/json" || cfg.Pipeline.STIXRoot != "/tmp/stix" {
		t.Errorf("unexpected roots: %+v", cfg.Pipeline)
	}
	if cfg.Pipeline.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Pipeline.Workers)
	}
	if cfg.Pipeline.TableMode != "gfm" {
		t.Errorf("TableMode = %q, want gfm", cfg.Pipeline.TableMode)
	}
	if cfg.DatabaseURL != "postgres://localhost/md2stix" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
}

func TestGetEnvIntFallback(t *testing.T) {
	for _, v := range []string{"abc", "0", "-2"} {
		t.Setenv("MD2STIX_WORKERS", v)
		if got := getEnvInt("MD2STIX_WORKERS", 8); got != 8 {
			t.Errorf("getEnvInt(%q) = %d, want fallback 8", v, got)
		}
	}
}
