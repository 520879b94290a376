package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("TEST_WAKTU_HOST", "example.test")
	path := writeFile(t, t.TempDir(), "config.yaml", `
upstream:
  base_url: https://${TEST_WAKTU_HOST}/api
  timeout: 3s
server:
  request_timeout: 1m
  http_addr: ":3333"
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upstream.BaseURL != "https://example.test/api" {
		t.Fatalf("env reference not expanded: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 3*time.Second || cfg.Server.RequestTimeout != time.Minute {
		t.Fatalf("unexpected timeouts: %+v", cfg)
	}
	if cfg.Server.HTTPAddr != ":3333" || cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
}

func TestLoadFindsDefaultJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.json", `{"log": {"level": "warn"}}`)
	t.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("expected warn from config.json, got %q", cfg.Log.Level)
	}
	if cfg.Upstream.Timeout != 10*time.Second {
		t.Fatalf("defaults must survive partial files, got %v", cfg.Upstream.Timeout)
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "log:\n  level: info\n")
	t.Setenv("WAKTU_SOLAT_BASE_URL", "http://localhost:9999")
	t.Setenv("WAKTU_SOLAT_TIMEOUT", "5")
	t.Setenv("MCP_REQUEST_TIMEOUT", "750ms")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LOG_FILE", "/tmp/prayer.log")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Upstream.BaseURL != "http://localhost:9999" {
		t.Fatalf("base url: %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Fatalf("bare seconds not accepted: %v", cfg.Upstream.Timeout)
	}
	if cfg.Server.RequestTimeout != 750*time.Millisecond {
		t.Fatalf("request timeout: %v", cfg.Server.RequestTimeout)
	}
	if cfg.Log.Level != "error" || cfg.Log.File != "/tmp/prayer.log" {
		t.Fatalf("log overrides: %+v", cfg.Log)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name string
		file string
		env  map[string]string
		want string
	}{
		{name: "missing file", want: "read config file"},
		{name: "bad yaml", file: "upstream: [", want: "parse config file"},
		{name: "bad scheme", file: "upstream:\n  base_url: ftp://x\n", want: "base_url"},
		{name: "zero timeout", file: "upstream:\n  timeout: 0s\n", want: "upstream.timeout"},
		{name: "bad level", file: "log:\n  level: loud\n", want: "log.level"},
		{name: "bad format", file: "log:\n  format: xml\n", want: "log.format"},
		{name: "bad env duration", file: "{}", env: map[string]string{"MCP_REQUEST_TIMEOUT": "soon"}, want: "MCP_REQUEST_TIMEOUT"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			path := filepath.Join(dir, "absent.yaml")
			if tc.file != "" {
				path = writeFile(t, dir, strings.ReplaceAll(tc.name, " ", "_")+".yaml", tc.file)
			}
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}
