package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Values come from defaults, then an
// optional YAML file, then the environment (.env included).
type Config struct {
	HTTPAddr      string        `yaml:"http_addr"`
	Storage       string        `yaml:"storage"` // memory | postgres | sqlite
	SQLitePath    string        `yaml:"sqlite_path"`
	DB            DBConfig      `yaml:"db"`
	JWTSecret     string        `yaml:"jwt_secret"`
	JWTTTL        time.Duration `yaml:"jwt_ttl"`
	FanoutMode    string        `yaml:"fanout_mode"` // global | subscribed
	Cache         string        `yaml:"cache"`       // local | redis | none
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	NATSURL       string        `yaml:"nats_url"`
	UploadDir     string        `yaml:"upload_dir"`
	AllowedOrigin string        `yaml:"allowed_origin"`
	LogLevel      string        `yaml:"log_level"` // debug | info | warn | error
}

type DBConfig struct {
	Host     string `yaml:"host"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Port     string `yaml:"port"`
	SSLMode  string `yaml:"sslmode"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:   ":8080",
		Storage:    "memory",
		SQLitePath: "postsync.db",
		DB: DBConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		JWTTTL:     time.Hour,
		FanoutMode: "global",
		Cache:      "local",
		UploadDir:  "uploads",
		LogLevel:   "info",
	}
}

func LoadEnv() {
	err := godotenv.Load()
	if err != nil {
		slog.Debug(".env file not found")
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	LoadEnv()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"HTTP_ADDR":      &c.HTTPAddr,
		"STORAGE":        &c.Storage,
		"SQLITE_PATH":    &c.SQLitePath,
		"DB_HOST":        &c.DB.Host,
		"DB_USER":        &c.DB.User,
		"DB_PASSWORD":    &c.DB.Password,
		"DB_NAME":        &c.DB.Name,
		"DB_PORT":        &c.DB.Port,
		"DB_SSLMODE":     &c.DB.SSLMode,
		"JWT_SECRET":     &c.JWTSecret,
		"FANOUT_MODE":    &c.FanoutMode,
		"CACHE":          &c.Cache,
		"REDIS_ADDR":     &c.RedisAddr,
		"REDIS_PASSWORD": &c.RedisPassword,
		"NATS_URL":       &c.NATSURL,
		"UPLOAD_DIR":     &c.UploadDir,
		"ALLOWED_ORIGIN": &c.AllowedOrigin,
		"LOG_LEVEL":      &c.LogLevel,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("JWT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid JWT_TTL %q: %w", v, err)
		}
		c.JWTTTL = d
	}
	return nil
}

// Validate rejects unknown enum values and settings that cannot work.
func (c *Config) Validate() error {
	if err := oneOf("storage", c.Storage, "memory", "postgres", "sqlite"); err != nil {
		return err
	}
	if err := oneOf("fanout_mode", c.FanoutMode, "global", "subscribed"); err != nil {
		return err
	}
	if err := oneOf("cache", c.Cache, "local", "redis", "none"); err != nil {
		return err
	}
	if err := oneOf("log_level", c.LogLevel, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("environment variable JWT_SECRET is not set")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}
	if c.Cache == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("cache is redis but REDIS_ADDR is not set")
	}
	if c.Storage == "postgres" && (c.DB.User == "" || c.DB.Name == "") {
		return fmt.Errorf("storage is postgres but DB_USER or DB_NAME is not set")
	}
	return nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q: must be one of %v", name, value, allowed)
}
