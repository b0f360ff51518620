package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	StorageMemory   = "memory"
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	AI       AIConfig       `mapstructure:"ai" yaml:"ai"`
	Worker   WorkerConfig   `mapstructure:"worker" yaml:"worker"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host" yaml:"host"`
	Port            string        `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RateLimit       int           `mapstructure:"rate_limit" yaml:"rate_limit"`
	CORSOrigins     []string      `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development" yaml:"development"`
}

type StorageConfig struct {
	Type string `mapstructure:"type" yaml:"type"` // memory, file, postgres или redis
	Key  string `mapstructure:"key" yaml:"key"`
	Dir  string `mapstructure:"dir" yaml:"dir"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	MaxConnections int32         `mapstructure:"max_connections" yaml:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections" yaml:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	Migrate        bool          `mapstructure:"migrate" yaml:"migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type AIConfig struct {
	APIKey      string        `mapstructure:"api_key" yaml:"api_key"`
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Model       string        `mapstructure:"model" yaml:"model"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type WorkerConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Interval  time.Duration `mapstructure:"interval" yaml:"interval"`
	BatchSize int           `mapstructure:"batch_size" yaml:"batch_size"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.request_timeout", 45*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.rate_limit", 100)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("logging.development", false)

	v.SetDefault("storage.type", StorageFile)
	v.SetDefault("storage.key", "taskflow_tasks")
	v.SetDefault("storage.dir", "data")

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "taskflow:")

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://api.groq.com/openai/v1/chat/completions")
	v.SetDefault("ai.model", "llama-3.3-70b-versatile")
	v.SetDefault("ai.temperature", 0.4)
	v.SetDefault("ai.max_tokens", 256)
	v.SetDefault("ai.timeout", 30*time.Second)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval", 5*time.Minute)
	v.SetDefault("worker.batch_size", 100)
}

// Load читает конфиг. Пустой path означает config.yml в текущей директории,
// и его отсутствие не ошибка: работаем на значениях по умолчанию и переменных окружения.
// Явно указанный файл обязан существовать.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TASKFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// ключ Groq принимаем и под привычным именем
	if err := v.BindEnv("ai.api_key", "TASKFLOW_AI_API_KEY", "GROQ_API_KEY"); err != nil {
		return nil, fmt.Errorf("привязка переменных окружения: %w", err)
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение конфига: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка парсинга конфига: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageMemory, StorageRedis:
	case StorageFile:
		if c.Storage.Dir == "" {
			return errors.New("конфиг: storage.dir обязателен для storage.type=file")
		}
	case StoragePostgres:
		if c.Database.URL == "" {
			return errors.New("конфиг: database.url обязателен для storage.type=postgres")
		}
	default:
		return fmt.Errorf("конфиг: неизвестный storage.type %q", c.Storage.Type)
	}

	if strings.TrimSpace(c.Storage.Key) == "" {
		return errors.New("конфиг: storage.key не может быть пустым")
	}
	if c.Server.Port == "" {
		return errors.New("конфиг: server.port не может быть пустым")
	}
	if c.Worker.Enabled && c.Worker.Interval <= 0 {
		return errors.New("конфиг: worker.interval должен быть положительным")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
