// Package config loads server settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultPaths are tried in order when no config file is given.
var DefaultPaths = []string{"config.yaml", "config.yml", "config.json"}

// Config is the full server configuration.
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

// UpstreamConfig points at the prayer-time API.
type UpstreamConfig struct {
	BaseURL   string        `yaml:"base_url" env:"WAKTU_SOLAT_BASE_URL"`
	Timeout   time.Duration `yaml:"timeout" env:"WAKTU_SOLAT_TIMEOUT"`
	UserAgent string        `yaml:"user_agent" env:"WAKTU_SOLAT_USER_AGENT"`
}

// ServerConfig controls request handling and the optional HTTP transport.
type ServerConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" env:"MCP_REQUEST_TIMEOUT"`
	HTTPAddr       string        `yaml:"http_addr" env:"MCP_HTTP_ADDR"`
}

// LogConfig selects level, format and destination. An empty File means stderr.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	File   string `yaml:"file" env:"LOG_FILE"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL: "https://api.waktusolat.app",
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{
			RequestTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds a Config from defaults, then the file at path (or the first
// existing DefaultPaths entry when path is empty), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = findDefault()
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findDefault() string {
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// loadFile expands ${VAR} references before parsing. JSON files parse as YAML.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an http(s) URL, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return errors.New("upstream.timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// applyEnvOverrides sets fields tagged `env` from the environment, recursing
// into nested structs. Unparseable values are reported rather than ignored.
func applyEnvOverrides(v any) error {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	t := val.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := val.Field(i)

		if fieldVal.Kind() == reflect.Struct {
			if err := applyEnvOverrides(fieldVal.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		name := field.Tag.Get("env")
		if name == "" {
			continue
		}
		raw, ok := os.LookupEnv(name)
		if !ok || !fieldVal.CanSet() {
			continue
		}
		raw = strings.TrimSpace(raw)

		switch {
		case fieldVal.Type() == durationType:
			d, err := parseDuration(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fieldVal.SetInt(int64(d))
		case fieldVal.Kind() == reflect.String:
			fieldVal.SetString(raw)
		case fieldVal.Kind() == reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			fieldVal.SetInt(int64(n))
		case fieldVal.Kind() == reflect.Bool:
			fieldVal.SetBool(strings.EqualFold(raw, "true") || raw == "1")
		}
	}
	return nil
}

// parseDuration accepts Go durations ("15s") or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}
