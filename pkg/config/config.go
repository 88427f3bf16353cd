package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	TaskStore TaskStoreConfig
	Gemini    GeminiConfig
	SMTP      SMTPConfig
	Trello    TrelloConfig
	Analyzer  AnalyzerConfig
	Dispatch  DispatchConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8080"`
	Host            string   `envconfig:"HOST" default:"0.0.0.0"`
	Environment     string   `envconfig:"ENVIRONMENT" default:"development"`
	AllowedOrigins  []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout int      `envconfig:"SHUTDOWN_TIMEOUT" default:"10"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name        string `envconfig:"DB_NAME" default:"meeting_autopilot"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	MaxConns    int    `envconfig:"DB_MAX_CONNS" default:"25"`
	MinConns    int    `envconfig:"DB_MIN_CONNS" default:"5"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"false"`
}

// TaskStoreConfig selects the task store backend
type TaskStoreConfig struct {
	Driver string `envconfig:"TASKSTORE_DRIVER" default:"postgres"` // "postgres" or "memory"
}

// GeminiConfig holds language-model capability configuration
type GeminiConfig struct {
	APIKey  string        `envconfig:"GEMINI_API_KEY"`
	BaseURL string        `envconfig:"GEMINI_API_URL" default:"https://generativelanguage.googleapis.com"`
	Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`
	Timeout time.Duration `envconfig:"ANALYZER_TIMEOUT" default:"30s"`
}

// SMTPConfig holds mail transport configuration
type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:"smtp.gmail.com"`
	Port     int    `envconfig:"SMTP_PORT" default:"465"`
	Username string `envconfig:"SMTP_USERNAME"`
	Password string `envconfig:"SMTP_PASSWORD"`
	From     string `envconfig:"MAIL_FROM"`
}

// TrelloConfig holds task-tracker capability configuration
type TrelloConfig struct {
	APIKey  string        `envconfig:"TRELLO_API_KEY"`
	Token   string        `envconfig:"TRELLO_API_TOKEN"`
	BaseURL string        `envconfig:"TRELLO_API_URL" default:"https://api.trello.com"`
	Timeout time.Duration `envconfig:"TRELLO_TIMEOUT" default:"15s"`
}

// AnalyzerConfig bounds transcript analysis
type AnalyzerConfig struct {
	MaxTranscriptChars int `envconfig:"ANALYZER_MAX_TRANSCRIPT_CHARS" default:"120000"`
}

// DispatchConfig holds the per-task retry policy
type DispatchConfig struct {
	MaxAttempts       int           `envconfig:"DISPATCH_MAX_ATTEMPTS" default:"3"`
	CallTimeout       time.Duration `envconfig:"DISPATCH_CALL_TIMEOUT" default:"30s"`
	BackoffBase       time.Duration `envconfig:"DISPATCH_BACKOFF_BASE" default:"1s"`
	BackoffFactor     float64       `envconfig:"DISPATCH_BACKOFF_FACTOR" default:"2.0"`
	BackoffCap        time.Duration `envconfig:"DISPATCH_BACKOFF_CAP" default:"30s"`
	RequireRecipients bool          `envconfig:"DISPATCH_REQUIRE_RECIPIENTS" default:"false"`
}

// ReconcileConfig holds reconciliation worker configuration
type ReconcileConfig struct {
	Interval         time.Duration `envconfig:"RECONCILE_INTERVAL" default:"15m"`
	MissingTolerance int           `envconfig:"RECONCILE_MISSING_TOLERANCE" default:"3"`
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables or defaults")
	}

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// The original worker checked every minute; keep that in development only
	if config.Server.Environment == "development" && config.Reconcile.Interval == 15*time.Minute {
		config.Reconcile.Interval = time.Minute
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Dispatch.MaxAttempts < 1 {
		return fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be at least 1")
	}
	if c.Reconcile.MissingTolerance < 1 {
		return fmt.Errorf("RECONCILE_MISSING_TOLERANCE must be at least 1")
	}
	if c.Reconcile.Interval <= 0 {
		return fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}
	if c.TaskStore.Driver != "postgres" && c.TaskStore.Driver != "memory" {
		return fmt.Errorf("TASKSTORE_DRIVER must be postgres or memory, got %q", c.TaskStore.Driver)
	}
	return nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
