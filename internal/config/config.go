package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const DefaultPath = "config/config.yaml"

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Driver      string `yaml:"driver"`
		URL         string `yaml:"url"`
		AutoMigrate bool   `yaml:"auto_migrate"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		Currency      string `yaml:"currency"`
	} `yaml:"stripe"`
	QuickBooks struct {
		ClientID      string `yaml:"client_id"`
		ClientSecret  string `yaml:"client_secret"`
		RefreshToken  string `yaml:"refresh_token"`
		RealmID       string `yaml:"realm_id"`
		BaseURL       string `yaml:"base_url"`
		ServiceItemID string `yaml:"service_item_id"`
	} `yaml:"quickbooks"`
	Storage struct {
		Endpoint  string `yaml:"endpoint"`
		Region    string `yaml:"region"`
		Bucket    string `yaml:"bucket"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		PublicURL string `yaml:"public_url"`
	} `yaml:"storage"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
	} `yaml:"auth"`
	Maintenance struct {
		Interval           time.Duration `yaml:"interval"`
		Timeout            time.Duration `yaml:"timeout"`
		Timezone           string        `yaml:"timezone"`
		ReminderLeadDays   int           `yaml:"reminder_lead_days"`
		EventRetentionDays int           `yaml:"event_retention_days"`
	} `yaml:"maintenance"`
	Jobs struct {
		Workers    int           `yaml:"workers"`
		MaxRetries int           `yaml:"max_retries"`
		RetryDelay time.Duration `yaml:"retry_delay"`
	} `yaml:"jobs"`
}

// Default returns a Config with every optional value filled in.
func Default() Config {
	var cfg Config
	cfg.Server.Address = ":4001"
	cfg.Database.Driver = "pgx"
	cfg.Stripe.Currency = "usd"
	cfg.QuickBooks.BaseURL = "https://quickbooks.api.intuit.com"
	cfg.Storage.Region = "us-east-1"
	cfg.Maintenance.Interval = 24 * time.Hour
	cfg.Maintenance.Timeout = 2 * time.Minute
	cfg.Maintenance.Timezone = "UTC"
	cfg.Maintenance.ReminderLeadDays = 3
	cfg.Maintenance.EventRetentionDays = 90
	cfg.Jobs.Workers = 3
	cfg.Jobs.MaxRetries = 3
	cfg.Jobs.RetryDelay = time.Minute
	return cfg
}

// LoadConfig reads the YAML file at CONFIG_PATH (or DefaultPath) when it
// exists and then applies environment overrides.
func LoadConfig() (Config, error) {
	path := os.Getenv("CONFIG_PATH")
	required := path != ""
	if path == "" {
		path = DefaultPath
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("unmarshal config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		c.Server.Address = port
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}

	readStringEnv("DB_DRIVER", &c.Database.Driver)
	readStringEnv("DATABASE_URL", &c.Database.URL)
	readStringEnv("REDIS_ADDR", &c.Redis.Addr)
	readStringEnv("REDIS_PASSWORD", &c.Redis.Password)
	readStringEnv("STRIPE_SECRET_KEY", &c.Stripe.SecretKey)
	readStringEnv("STRIPE_WEBHOOK_SECRET", &c.Stripe.WebhookSecret)
	readStringEnv("STRIPE_CURRENCY", &c.Stripe.Currency)
	readStringEnv("QUICKBOOKS_CLIENT_ID", &c.QuickBooks.ClientID)
	readStringEnv("QUICKBOOKS_CLIENT_SECRET", &c.QuickBooks.ClientSecret)
	readStringEnv("QUICKBOOKS_REFRESH_TOKEN", &c.QuickBooks.RefreshToken)
	readStringEnv("QUICKBOOKS_REALM_ID", &c.QuickBooks.RealmID)
	readStringEnv("QUICKBOOKS_BASE_URL", &c.QuickBooks.BaseURL)
	readStringEnv("QUICKBOOKS_SERVICE_ITEM_ID", &c.QuickBooks.ServiceItemID)
	readStringEnv("S3_ENDPOINT", &c.Storage.Endpoint)
	readStringEnv("S3_REGION", &c.Storage.Region)
	readStringEnv("S3_BUCKET", &c.Storage.Bucket)
	readStringEnv("S3_ACCESS_KEY", &c.Storage.AccessKey)
	readStringEnv("S3_SECRET_KEY", &c.Storage.SecretKey)
	readStringEnv("S3_PUBLIC_URL", &c.Storage.PublicURL)
	readStringEnv("SUPABASE_JWT_SECRET", &c.Auth.JWTSecret)
	readStringEnv("BUSINESS_TIMEZONE", &c.Maintenance.Timezone)

	if err := readBoolEnv("DB_AUTO_MIGRATE", &c.Database.AutoMigrate); err != nil {
		return err
	}
	if err := readIntEnv("REDIS_DB", &c.Redis.DB); err != nil {
		return err
	}
	if err := readIntEnv("REMINDER_LEAD_DAYS", &c.Maintenance.ReminderLeadDays); err != nil {
		return err
	}
	if err := readIntEnv("EVENT_RETENTION_DAYS", &c.Maintenance.EventRetentionDays); err != nil {
		return err
	}
	if err := readIntEnv("JOB_WORKERS", &c.Jobs.Workers); err != nil {
		return err
	}
	if err := readIntEnv("JOB_MAX_RETRIES", &c.Jobs.MaxRetries); err != nil {
		return err
	}
	if err := readDurationEnv("JOB_RETRY_DELAY", &c.Jobs.RetryDelay); err != nil {
		return err
	}
	if err := readDurationEnv("MAINTENANCE_INTERVAL", &c.Maintenance.Interval); err != nil {
		return err
	}
	return readDurationEnv("MAINTENANCE_TIMEOUT", &c.Maintenance.Timeout)
}

// Validate reports missing required settings.
func (c Config) Validate() error {
	var missing []string
	if c.Database.Driver == "" {
		missing = append(missing, "database.driver")
	}
	if c.Database.URL == "" {
		missing = append(missing, "database.url")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "auth.jwt_secret")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing config: %s", strings.Join(missing, ", "))
	}
	switch c.Database.Driver {
	case "pgx", "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Maintenance.Interval <= 0 {
		return errors.New("maintenance.interval must be positive")
	}
	if c.Maintenance.ReminderLeadDays < 0 {
		return errors.New("maintenance.reminder_lead_days must not be negative")
	}
	return nil
}

func (c Config) StripeEnabled() bool {
	return c.Stripe.SecretKey != ""
}

func (c Config) StorageEnabled() bool {
	return c.Storage.Bucket != ""
}

func readStringEnv(key string, dst *string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func readIntEnv(key string, dst *int) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = n
	return nil
}

func readBoolEnv(key string, dst *bool) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = b
	return nil
}

func readDurationEnv(key string, dst *time.Duration) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
