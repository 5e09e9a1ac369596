package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host  string `yaml:"host"`
		Port  int    `yaml:"port"`
		Env   string `yaml:"env"`
		Debug bool   `yaml:"debug"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"` // postgres://... или sqlite://file.db
	} `yaml:"database"`

	JWT struct {
		Secret     string        `yaml:"secret"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
		Blacklist  string        `yaml:"blacklist"` // database | redis
	} `yaml:"jwt"`

	Redis struct {
		URL string `yaml:"url"`
	} `yaml:"redis"`

	Payments struct {
		Currency string `yaml:"currency"`
		Razorpay struct {
			KeyID     string `yaml:"key_id"`
			KeySecret string `yaml:"key_secret"`
			BaseURL   string `yaml:"base_url"`
		} `yaml:"razorpay"`
		Stripe struct {
			SecretKey string `yaml:"secret_key"`
		} `yaml:"stripe"`
	} `yaml:"payments"`

	Storage struct {
		Type      string `yaml:"type"`      // local, s3
		BasePath  string `yaml:"base_path"` // для local
		BaseURL   string `yaml:"base_url"`  // публичный URL
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		Endpoint  string `yaml:"endpoint"` // S3-совместимые хранилища
		MaxSize   int64  `yaml:"max_size"`
	} `yaml:"storage"`

	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`

	RateLimit struct {
		LoginPerMinute int `yaml:"login_per_minute"`
	} `yaml:"rate_limit"`

	Workers struct {
		SubscriptionInterval time.Duration `yaml:"subscription_interval"`
	} `yaml:"workers"`

	Pagination struct {
		DefaultPageSize int `yaml:"default_page_size"`
		MaxPageSize     int `yaml:"max_page_size"`
	} `yaml:"pagination"`

	FirstAdmin struct {
		Email    string `yaml:"email"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"first_admin"`
}

var AppConfig *Config

// LoadConfig читает .env, затем config.yaml (или только окружение, если задан DATABASE_URL).
func LoadConfig() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	var cfg Config

	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}
	} else {
		log.Println("Loading configuration from environment")
		cfg.Database.DSN = os.Getenv("DATABASE_URL")
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString(&cfg.Server.Env, "SERVER_ENV")
	if port, err := strconv.Atoi(os.Getenv("SERVER_PORT")); err == nil {
		cfg.Server.Port = port
	}
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Payments.Razorpay.KeyID, "RAZORPAY_KEY_ID")
	setString(&cfg.Payments.Razorpay.KeySecret, "RAZORPAY_KEY_SECRET")
	setString(&cfg.Payments.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	setString(&cfg.FirstAdmin.Email, "FIRST_ADMIN_EMAIL")
	setString(&cfg.FirstAdmin.Username, "FIRST_ADMIN_USERNAME")
	setString(&cfg.FirstAdmin.Password, "FIRST_ADMIN_PASSWORD")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Env == "" {
		cfg.Server.Env = "development"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.JWT.AccessTTL == 0 {
		cfg.JWT.AccessTTL = 24 * time.Hour
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.JWT.Blacklist == "" {
		cfg.JWT.Blacklist = "database"
	}
	if cfg.Payments.Currency == "" {
		cfg.Payments.Currency = "INR"
	}
	if cfg.Payments.Razorpay.BaseURL == "" {
		cfg.Payments.Razorpay.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "local"
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "./uploads"
	}
	if cfg.Storage.BaseURL == "" {
		cfg.Storage.BaseURL = "/api/v1/files"
	}
	if cfg.Storage.MaxSize == 0 {
		cfg.Storage.MaxSize = 10 * 1024 * 1024
	}
	if cfg.RateLimit.LoginPerMinute == 0 {
		cfg.RateLimit.LoginPerMinute = 1
	}
	if cfg.Workers.SubscriptionInterval == 0 {
		cfg.Workers.SubscriptionInterval = time.Hour
	}
	if cfg.Pagination.DefaultPageSize == 0 {
		cfg.Pagination.DefaultPageSize = 10
	}
	if cfg.Pagination.MaxPageSize == 0 {
		cfg.Pagination.MaxPageSize = 100
	}
}

// Defaults возвращает конфиг только со значениями по умолчанию (для тестов)
func Defaults() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}
