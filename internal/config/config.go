package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Допустимые значения переключателей.
const (
	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"

	PrefsBackendFile     = "file"
	PrefsBackendRedis    = "redis"
	PrefsBackendPostgres = "postgres"
)

// Config содержит конфигурацию relay-сервера.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	// Настройки AI провайдера
	AIClientType    string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL       string        `envconfig:"AI_BASE_URL" default:"https://api.openai.com/v1"`
	AITimeout       time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AIOrgID         string        `envconfig:"AI_ORG_ID"`
	AITokenEstimate bool          `envconfig:"AI_TOKEN_ESTIMATE" default:"true"`
	// Секрет: /run/secrets/openai_api_key, затем OPENAI_API_KEY
	AIAPIKey string `envconfig:"OPENAI_API_KEY"`

	// Модели
	DefaultModel         string        `envconfig:"DEFAULT_MODEL" default:"gpt-4o-mini"`
	AllowedModels        []string      `envconfig:"ALLOWED_MODELS"`
	ModelPrefixes        []string      `envconfig:"MODEL_PREFIXES" default:"gpt-,o"`
	ModelRefreshInterval time.Duration `envconfig:"MODEL_REFRESH_INTERVAL" default:"10m"`

	// Синтез речи
	TTSModel        string `envconfig:"TTS_MODEL" default:"tts-1"`
	TTSDefaultVoice string `envconfig:"TTS_DEFAULT_VOICE" default:"alloy"`

	// Веб-поиск (SearXNG JSON API)
	SearchURL        string        `envconfig:"SEARCH_URL" default:"https://searx.be/search"`
	SearchTimeout    time.Duration `envconfig:"SEARCH_TIMEOUT" default:"5s"`
	SearchMaxResults int           `envconfig:"SEARCH_MAX_RESULTS" default:"5"`

	// Файлы
	DataDir   string `envconfig:"DATA_DIR" default:"uploads"`
	StaticDir string `envconfig:"STATIC_DIR" default:"dist"`

	// Хранилище предпочтений
	PrefsBackend string `envconfig:"PREFS_BACKEND" default:"file"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"circuitbot"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"5"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://127.0.0.1:5173,http://localhost:8787,http://127.0.0.1:8787"`
	CORSAllowAll       bool   `envconfig:"CORS_ALLOW_ALL" default:"true"`

	RateLimitPerMinute uint `envconfig:"RATE_LIMIT_PER_MINUTE" default:"30"`
}

// PrefsFilePath - файл с картой userId -> счетчики.
func (c *Config) PrefsFilePath() string {
	return filepath.Join(c.DataDir, "ab_prefs.json")
}

// LogsDir - каталог журналов посещений.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins разбивает CORSAllowedOrigins в срез.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// Validate проверяет значения переключателей.
func (c *Config) Validate() error {
	switch c.AIClientType {
	case AIClientOpenAI:
		if c.AIAPIKey == "" {
			return fmt.Errorf("AI API key is required for client type %q", c.AIClientType)
		}
	case AIClientOllama:
	default:
		return fmt.Errorf("unknown AI client type: %q", c.AIClientType)
	}

	switch c.PrefsBackend {
	case PrefsBackendFile, PrefsBackendRedis:
	case PrefsBackendPostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("db password is required for prefs backend %q", c.PrefsBackend)
		}
	default:
		return fmt.Errorf("unknown prefs backend: %q", c.PrefsBackend)
	}

	if c.DefaultModel == "" {
		return fmt.Errorf("DEFAULT_MODEL must not be empty")
	}
	return nil
}

// LoadConfig загружает конфигурацию из .env, переменных окружения и секретов.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			} else {
				log.Printf("Loaded configuration from %s", envFilePath)
			}
		} else if !os.IsNotExist(err) {
			log.Printf("Warning: Error checking %s file: %v", envFilePath, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	// Секреты из файлов имеют приоритет над переменными окружения
	if key, err := ReadSecret("openai_api_key"); err == nil {
		cfg.AIAPIKey = key
	}
	if pass, err := ReadSecret("redis_password"); err == nil {
		cfg.RedisPassword = pass
	}
	if pass, err := ReadSecret("db_password"); err == nil {
		cfg.DBPassword = pass
	} else if env := os.Getenv("DB_PASSWORD"); env != "" {
		cfg.DBPassword = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Printf("Configuration loaded: env=%s port=%s ai=%s model=%s prefs=%s",
		cfg.Env, cfg.ServerPort, cfg.AIClientType, cfg.DefaultModel, cfg.PrefsBackend)
	return &cfg, nil
}
