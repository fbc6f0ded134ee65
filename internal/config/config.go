package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Storage backend names accepted by STORAGE_BACKEND.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-bank"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Storage  Storage
	Postgres Postgres
	Redis    Redis
	Quiz     Quiz
	Bank     Bank
	Trivia   Trivia
	CORS     CORS
}

// Storage selects where the user question subset is persisted.
type Storage struct {
	Backend string        `env:"STORAGE_BACKEND" envDefault:"file"`
	Key     string        `env:"STORAGE_KEY" envDefault:"user_quiz_questions"`
	FileDir string        `env:"STORAGE_FILE_DIR" envDefault:"data"`
	Timeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"3s"`
}

// Postgres captures connection info for the postgres backend.
type Postgres struct {
	Host        string `env:"PG_HOST" envDefault:"localhost"`
	Port        int    `env:"PG_PORT" envDefault:"5432"`
	User        string `env:"PG_USER" envDefault:"quiz"`
	Password    string `env:"PG_PASSWORD" envDefault:"quiz"`
	Database    string `env:"PG_DATABASE" envDefault:"quiz"`
	SSLMode     string `env:"PG_SSL_MODE" envDefault:"disable"`
	AutoMigrate bool   `env:"PG_AUTO_MIGRATE" envDefault:"true"`
}

// Redis holds connection settings for the redis backend.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
}

// Quiz groups gameplay timing defaults.
type Quiz struct {
	QuestionTimeLimit    time.Duration `env:"QUESTION_TIME_LIMIT" envDefault:"15s"`
	TickInterval         time.Duration `env:"QUESTION_TICK_INTERVAL" envDefault:"1s"`
	FeedbackDelay        time.Duration `env:"FEEDBACK_DELAY" envDefault:"1500ms"` // 0 means the session default
	DefaultQuestionCount int           `env:"DEFAULT_QUESTION_COUNT" envDefault:"5"`
}

// Bank configures import/export of the question bank.
type Bank struct {
	ExportFilename string `env:"EXPORT_FILENAME" envDefault:"kuis_soal_ekspor.json"`
	ImportMaxBytes int64  `env:"IMPORT_MAX_BYTES" envDefault:"1048576"`
}

// Trivia configures the outside question providers.
type Trivia struct {
	Enabled   bool          `env:"TRIVIA_ENABLED" envDefault:"true"`
	OpenTDB   string        `env:"TRIVIA_OPENTDB_URL" envDefault:"https://opentdb.com"`
	TriviaAPI string        `env:"TRIVIA_API_URL" envDefault:"https://the-trivia-api.com/api"`
	APIKey    string        `env:"TRIVIA_API_KEY" envDefault:""`
	Timeout   time.Duration `env:"TRIVIA_TIMEOUT" envDefault:"5s"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type"`
	MaxAge         int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with.
func (c *App) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendFile, BackendRedis, BackendPostgres:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("STORAGE_KEY must not be empty")
	}
	if c.Quiz.QuestionTimeLimit < c.Quiz.TickInterval || c.Quiz.TickInterval <= 0 {
		return fmt.Errorf("QUESTION_TIME_LIMIT must be at least one QUESTION_TICK_INTERVAL")
	}
	if c.Quiz.FeedbackDelay < 0 {
		return fmt.Errorf("FEEDBACK_DELAY must not be negative")
	}
	return nil
}

// PostgresDSN renders the pgx connection string for the configured database.
func (c *App) PostgresDSN() string {
	p := c.Postgres
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}
