package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

// InsecureFallbackSecret signs tokens when jwt_secret is left unset.
// Anyone holding this string can forge admin tokens; startup must
// surface its use loudly.
const InsecureFallbackSecret = "fallback-secret-change-this"

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	LogConfig   logger.LogConfig `json:"log_config"`
	DB          DBConfig         `json:"db"`
	Mail        MailConfig       `json:"mail"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Auth        AuthConfig       `json:"auth"`
	CORSOrigins []string         `json:"cors_origins"`

	// InsecureJWTSecret records that the fallback secret is in use.
	InsecureJWTSecret bool `json:"-"`
}

type DBConfig struct {
	DSN           string `json:"dsn"`
	MigrationsDir string `json:"migrations_dir"`
}

type MailConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type AuthConfig struct {
	CodeTTLMinutes        int      `json:"code_ttl_minutes"`
	ResendCooldownSeconds int      `json:"resend_cooldown_seconds"`
	MaxAttempts           int      `json:"max_attempts"`
	DefaultRole           string   `json:"default_role"`
	AdminEmails           []string `json:"admin_emails"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if cfg.DB.MigrationsDir == "" {
		cfg.DB.MigrationsDir = "migrations"
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = InsecureFallbackSecret
		cfg.InsecureJWTSecret = true
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 24
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if cfg.FileStore.Type == "local" && cfg.FileStore.Data == nil {
		cfg.FileStore.Data = map[string]interface{}{"dir": "artifacts"}
	}
	if cfg.Auth.CodeTTLMinutes == 0 {
		cfg.Auth.CodeTTLMinutes = 10
	}
	if cfg.Auth.ResendCooldownSeconds == 0 {
		cfg.Auth.ResendCooldownSeconds = 60
	}
	if cfg.Auth.MaxAttempts == 0 {
		cfg.Auth.MaxAttempts = 6
	}
	if cfg.Auth.DefaultRole == "" {
		cfg.Auth.DefaultRole = "user"
	}
	return nil
}
