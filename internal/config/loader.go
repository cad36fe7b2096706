// Package config loads runtime settings from an optional YAML file and the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Storage backends understood by the server.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures configuration values for the timetable service.
type Config struct {
	HTTPPort         int           `yaml:"http_port"`
	Storage          string        `yaml:"storage"`
	SQLiteDSN        string        `yaml:"sqlite_dsn"`
	SessionTTL       time.Duration `yaml:"session_ttl"`
	Timezone         string        `yaml:"timezone"`
	LogLevel         string        `yaml:"log_level"`
	SessionPruneCron string        `yaml:"session_prune_cron"`

	// AdminEmail and AdminPassword, when set, make sure an admin account
	// exists at startup. Memory storage starts empty without them.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		HTTPPort:         8080,
		Storage:          StorageSQLite,
		SQLiteDSN:        "jadwal.db",
		SessionTTL:       24 * time.Hour,
		Timezone:         "Asia/Jakarta",
		LogLevel:         "info",
		SessionPruneCron: "@every 1h",
	}
}

// Location resolves the configured timezone. Hosts without tzdata fall back
// to a fixed UTC+7 zone when the default Asia/Jakarta is requested.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err == nil {
		return loc, nil
	}
	if c.Timezone == "Asia/Jakarta" {
		return time.FixedZone("WIB", 7*60*60), nil
	}
	return nil, fmt.Errorf("config: load timezone %q: %w", c.Timezone, err)
}

// Load reads JADWAL_CONFIG_FILE (if set) and then applies environment overrides.
//
// Every invalid value is reported in a single error.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with an injectable environment lookup.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(getenv("JADWAL_CONFIG_FILE")); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	invalid := make([]string, 0, 4)

	if portValue := strings.TrimSpace(getenv("JADWAL_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil {
			invalid = append(invalid, "JADWAL_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.TrimSpace(getenv("JADWAL_STORAGE")); storage != "" {
		cfg.Storage = strings.ToLower(storage)
	}

	if dsn := strings.TrimSpace(getenv("JADWAL_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if ttlValue := strings.TrimSpace(getenv("JADWAL_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil {
			invalid = append(invalid, "JADWAL_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if tz := strings.TrimSpace(getenv("JADWAL_TIMEZONE")); tz != "" {
		cfg.Timezone = tz
	}

	if level := strings.TrimSpace(getenv("JADWAL_LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if spec := strings.TrimSpace(getenv("JADWAL_SESSION_PRUNE_CRON")); spec != "" {
		cfg.SessionPruneCron = spec
	}

	if email := strings.TrimSpace(getenv("JADWAL_ADMIN_EMAIL")); email != "" {
		cfg.AdminEmail = email
	}

	if password := getenv("JADWAL_ADMIN_PASSWORD"); password != "" {
		cfg.AdminPassword = password
	}

	invalid = append(invalid, cfg.validate()...)
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid values: %s", strings.Join(dedupe(invalid), ", "))
	}

	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: file %s does not exist", path)
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c Config) validate() []string {
	var invalid []string
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		invalid = append(invalid, "JADWAL_HTTP_PORT")
	}
	if c.Storage != StorageSQLite && c.Storage != StorageMemory {
		invalid = append(invalid, "JADWAL_STORAGE")
	}
	if c.Storage == StorageSQLite && strings.TrimSpace(c.SQLiteDSN) == "" {
		invalid = append(invalid, "JADWAL_SQLITE_DSN")
	}
	if c.SessionTTL <= 0 {
		invalid = append(invalid, "JADWAL_SESSION_TTL")
	}
	if _, err := c.Location(); err != nil {
		invalid = append(invalid, "JADWAL_TIMEZONE")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, "JADWAL_LOG_LEVEL")
	}
	if c.SessionPruneCron != "" {
		if _, err := cron.ParseStandard(c.SessionPruneCron); err != nil {
			invalid = append(invalid, "JADWAL_SESSION_PRUNE_CRON")
		}
	}
	if (strings.TrimSpace(c.AdminEmail) == "") != (c.AdminPassword == "") {
		invalid = append(invalid, "JADWAL_ADMIN_EMAIL", "JADWAL_ADMIN_PASSWORD")
	}
	return invalid
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
