package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config aggregates application settings that may be sourced from files or environment variables.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	LLM      LLMConfig      `mapstructure:"llm"`
	JobBoard JobBoardConfig `mapstructure:"jobboard"`
	Email    EmailConfig    `mapstructure:"email"`
	Clamd    ClamdConfig    `mapstructure:"clamd"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port               int    `mapstructure:"port"`
	CORSAllowedOrigins string `mapstructure:"cors_allowed_origins"`
}

// WorkerConfig 控制 asynq worker 进程。
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	MetricsPort int `mapstructure:"metrics_port"`
}

// DatabaseConfig contains connection options for PostgreSQL.
// URL 非空时优先于分项配置。
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig 包含 Redis 连接配置。
type RedisConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port 形式的地址。
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MinIOConfig contains connection options for MinIO/S3-compatible storage.
type MinIOConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	AccessKeyID      string `mapstructure:"access_key_id"`
	SecretAccessKey  string `mapstructure:"secret_access_key"`
	UseSSL           bool   `mapstructure:"use_ssl"`
	Bucket           string `mapstructure:"bucket"`
	Region           string `mapstructure:"region"`
	AutoCreateBucket bool   `mapstructure:"auto_create_bucket"`
}

// LLMConfig 描述 Gemini 推理服务。
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// JobBoardConfig 描述 Adzuna 职位搜索接口。
type JobBoardConfig struct {
	AppID   string `mapstructure:"app_id"`
	AppKey  string `mapstructure:"app_key"`
	Country string `mapstructure:"country"`
	BaseURL string `mapstructure:"base_url"`
}

// EmailConfig 描述事务邮件服务。
type EmailConfig struct {
	APIKey      string `mapstructure:"api_key"`
	SenderEmail string `mapstructure:"sender_email"`
	BaseURL     string `mapstructure:"base_url"`
}

// ClamdConfig 为空地址时跳过上传文件的病毒扫描。
type ClamdConfig struct {
	Addr string `mapstructure:"addr"`
}

// DSN builds a lib/pq compatible connection string.
func (d DatabaseConfig) DSN() string {
	if strings.TrimSpace(d.URL) != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
		d.SSLMode,
	)
}

// AllowedOrigins 拆分逗号分隔的 CORS 白名单；为空表示允许全部来源。
func (a APIConfig) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(a.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// Load reads configuration from environment variables, after loading an optional .env file.
func Load() (*Config, error) {
	// .env 不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if err := bindEnv(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// MustLoad wraps Load and panics on failure.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDatabase 只读取并校验数据库配置，供不依赖外部服务的管理命令使用。
func LoadDatabase() (DatabaseConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return DatabaseConfig{}, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return DatabaseConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validateDatabase(cfg.Database); err != nil {
		return DatabaseConfig{}, err
	}
	return cfg.Database, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("worker.concurrency", 10)
	v.SetDefault("worker.metrics_port", 9091)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.bucket", "resume-uploads")
	v.SetDefault("minio.auto_create_bucket", true)
	v.SetDefault("llm.model", "gemini-2.0-flash")
	v.SetDefault("jobboard.country", "us")
	v.SetDefault("jobboard.base_url", "https://api.adzuna.com/v1/api")
	v.SetDefault("email.base_url", "https://api.resend.com")
}

func bindEnv(v *viper.Viper) error {
	mappings := map[string]string{
		"api.port":                 "API_PORT",
		"api.cors_allowed_origins": "CORS_ALLOWED_ORIGINS",
		"worker.concurrency":       "WORKER_CONCURRENCY",
		"worker.metrics_port":      "METRICS_PORT",
		"database.url":             "DATABASE_URL",
		"database.host":            "DATABASE_HOST",
		"database.port":            "DATABASE_PORT",
		"database.name":            "DB_NAME",
		"database.user":            "POSTGRES_USER",
		"database.password":        "POSTGRES_PASSWORD",
		"database.sslmode":         "DATABASE_SSLMODE",
		"redis.host":               "REDIS_HOST",
		"redis.port":               "REDIS_PORT",
		"minio.endpoint":           "MINIO_ENDPOINT",
		"minio.access_key_id":      "MINIO_ACCESS_KEY_ID",
		"minio.secret_access_key":  "MINIO_SECRET_ACCESS_KEY",
		"minio.use_ssl":            "MINIO_USE_SSL",
		"minio.bucket":             "MINIO_BUCKET",
		"minio.region":             "MINIO_REGION",
		"minio.auto_create_bucket": "MINIO_AUTO_CREATE_BUCKET",
		"llm.api_key":              "GEMINI_API_KEY",
		"llm.model":                "GEMINI_MODEL",
		"jobboard.app_id":          "ADZUNA_APP_ID",
		"jobboard.app_key":         "ADZUNA_APP_KEY",
		"jobboard.country":         "ADZUNA_COUNTRY",
		"jobboard.base_url":        "ADZUNA_BASE_URL",
		"email.api_key":            "RESEND_API_KEY",
		"email.sender_email":       "SENDER_EMAIL",
		"email.base_url":           "RESEND_BASE_URL",
		"clamd.addr":               "CLAMD_ADDR",
	}

	for key, env := range mappings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind %s to %s: %w", key, env, err)
		}
	}

	return nil
}

func validate(cfg Config) error {
	if cfg.API.Port <= 0 {
		return errors.New("api port must be positive")
	}
	if cfg.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	if err := validateDatabase(cfg.Database); err != nil {
		return err
	}
	if cfg.Redis.Host == "" {
		return errors.New("redis host is required")
	}
	if cfg.Redis.Port <= 0 {
		return errors.New("redis port must be positive")
	}
	if cfg.MinIO.Endpoint == "" {
		return errors.New("minio endpoint is required")
	}
	if cfg.MinIO.Bucket == "" {
		return errors.New("minio bucket is required")
	}
	if cfg.LLM.APIKey == "" {
		return errors.New("gemini api key is required")
	}
	if cfg.JobBoard.AppID == "" || cfg.JobBoard.AppKey == "" {
		return errors.New("adzuna app id and app key are required")
	}
	if cfg.Email.APIKey == "" {
		return errors.New("email provider api key is required")
	}
	if cfg.Email.SenderEmail == "" {
		return errors.New("sender email is required")
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	if strings.TrimSpace(d.URL) == "" {
		if d.Host == "" {
			return errors.New("database url or host is required")
		}
		if d.Port <= 0 {
			return errors.New("database port must be positive")
		}
		if d.User == "" {
			return errors.New("database user is required")
		}
		if d.SSLMode == "" {
			return errors.New("database sslmode is required")
		}
	}
	if d.Name == "" {
		return errors.New("database name is required")
	}
	return nil
}
