package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds the server configuration. Values come from an optional TOML
// file, with GYMDESK_* environment variables taking precedence so deploys
// can override single fields without editing the file.
type Config struct {
	Addr        string
	DBPath      string
	StaticDir   string
	Env         string // "development" or "production"
	CSRFKeyHex  string
	ResendKey   string
	EmailFrom   string
	SlowQueryMS int
	SeedDemo    bool
}

const (
	defaultAddr        = ":8080"
	defaultDBPath      = "gymdesk.db"
	defaultStaticDir   = "static"
	defaultEnv         = "development"
	defaultEmailFrom   = "GymDesk <noreply@gymdesk.example>"
	defaultSlowQueryMS = 100
)

// Production reports whether the server runs with production hardening.
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load parses the TOML config at path (missing file falls back to defaults)
// and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{
		Addr:        defaultAddr,
		DBPath:      defaultDBPath,
		StaticDir:   defaultStaticDir,
		Env:         defaultEnv,
		EmailFrom:   defaultEmailFrom,
		SlowQueryMS: defaultSlowQueryMS,
	}

	if path != "" {
		bytes, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := applyTOML(&cfg, bytes); err != nil {
				return Config{}, err
			}
		}
	}

	applyEnv(&cfg)

	if cfg.Env != "development" && cfg.Env != "production" {
		return Config{}, fmt.Errorf("env must be development or production, got %q", cfg.Env)
	}
	return cfg, nil
}

func applyTOML(cfg *Config, bytes []byte) error {
	var raw struct {
		Addr        string `toml:"addr"`
		DBPath      string `toml:"db_path"`
		StaticDir   string `toml:"static_dir"`
		Env         string `toml:"env"`
		CSRFKey     string `toml:"csrf_key"`
		ResendKey   string `toml:"resend_key"`
		EmailFrom   string `toml:"email_from"`
		SlowQueryMS int    `toml:"slow_query_ms"`
		SeedDemo    bool   `toml:"seed_demo"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&cfg.Addr, raw.Addr)
	setString(&cfg.DBPath, raw.DBPath)
	setString(&cfg.StaticDir, raw.StaticDir)
	setString(&cfg.Env, raw.Env)
	setString(&cfg.CSRFKeyHex, raw.CSRFKey)
	setString(&cfg.ResendKey, raw.ResendKey)
	setString(&cfg.EmailFrom, raw.EmailFrom)
	if raw.SlowQueryMS > 0 {
		cfg.SlowQueryMS = raw.SlowQueryMS
	}
	cfg.SeedDemo = raw.SeedDemo
	return nil
}

func applyEnv(cfg *Config) {
	setEnvString(&cfg.Addr, "GYMDESK_ADDR")
	setEnvString(&cfg.DBPath, "GYMDESK_DB_PATH")
	setEnvString(&cfg.StaticDir, "GYMDESK_STATIC_DIR")
	setEnvString(&cfg.Env, "GYMDESK_ENV")
	setEnvString(&cfg.CSRFKeyHex, "GYMDESK_CSRF_KEY")
	setEnvString(&cfg.ResendKey, "GYMDESK_RESEND_KEY")
	setEnvString(&cfg.EmailFrom, "GYMDESK_EMAIL_FROM")
	if v := os.Getenv("GYMDESK_SLOW_QUERY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SlowQueryMS = n
		}
	}
	if v := os.Getenv("GYMDESK_SEED_DEMO"); v != "" {
		cfg.SeedDemo = v == "1" || strings.EqualFold(v, "true")
	}
}

func setString(dst *string, v string) {
	if s := strings.TrimSpace(v); s != "" {
		*dst = s
	}
}

func setEnvString(dst *string, key string) {
	setString(dst, os.Getenv(key))
}
