package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
	AutoMigrate     bool
}

type AuthConfig struct {
	AccessSecret       string
	AllowProfileHeader bool
}

type ReportsConfig struct {
	BestClientsLimit int
	MaxLimit         int
	ProfessionMetric string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Reports     ReportsConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("AUTH_ALLOW_PROFILE_HEADER", true)
	v.SetDefault("HTTP_SHUTDOWN_TIMEOUT", "10s")

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:            v.GetString("HTTP_HOST"),
			Port:            v.GetInt("HTTP_PORT"),
			ShutdownTimeout: v.GetDuration("HTTP_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Auth: AuthConfig{
			AccessSecret:       v.GetString("JWT_ACCESS_SECRET"),
			AllowProfileHeader: v.GetBool("AUTH_ALLOW_PROFILE_HEADER"),
		},
		Reports: ReportsConfig{
			BestClientsLimit: v.GetInt("REPORT_BEST_CLIENTS_LIMIT"),
			MaxLimit:         v.GetInt("REPORT_MAX_LIMIT"),
			ProfessionMetric: strings.ToLower(strings.TrimSpace(v.GetString("REPORT_PROFESSION_METRIC"))),
		},
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3001
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"*"}
	}
	if cfg.Reports.BestClientsLimit == 0 {
		cfg.Reports.BestClientsLimit = 2
	}
	if cfg.Reports.MaxLimit == 0 {
		cfg.Reports.MaxLimit = 100
	}
	if cfg.Reports.ProfessionMetric == "" {
		cfg.Reports.ProfessionMetric = "max"
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if !cfg.Auth.AllowProfileHeader && cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required when AUTH_ALLOW_PROFILE_HEADER is disabled")
	}
	switch cfg.Reports.ProfessionMetric {
	case "max", "sum":
	default:
		return fmt.Errorf("REPORT_PROFESSION_METRIC must be max or sum, got %q", cfg.Reports.ProfessionMetric)
	}
	if cfg.Reports.BestClientsLimit < 1 {
		return fmt.Errorf("REPORT_BEST_CLIENTS_LIMIT must be positive")
	}
	if cfg.Reports.MaxLimit < cfg.Reports.BestClientsLimit {
		return fmt.Errorf("REPORT_MAX_LIMIT must not be below REPORT_BEST_CLIENTS_LIMIT")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
