package config

import (
	"fmt"
	"os"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported progress store kinds.
const (
	StoreCSV      = "csv"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

const configPathEnv = "DEADLINE_BOT_CONFIG_PATH"

// Flags are the required command-line parameters.
type Flags struct {
	BotToken    string
	ChatID      string
	DeadlineStr string
	GoalPages   int
}

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	ChatID          string
	Deadline        time.Time // Calendar date at midnight UTC
	GoalPages       int
	TelegramAPIURL  string
	TelegramTimeout time.Duration

	LogLevel    string
	Environment string

	StoreKind     string
	ProgressFile  string
	DatabaseURL   string
	SQLitePath    string
	ProgressTable string
	ProgressOrder string // Optional id column ordering rows that share a date

	CronSpecDaily string // When the daily report runs
	CycleTimeout  time.Duration
	ChartDir      string // Empty means the OS temp dir
}

// fileConfig is the optional YAML file. Environment variables override it.
type fileConfig struct {
	Log struct {
		Level       string `yaml:"level"`
		Environment string `yaml:"environment"`
	} `yaml:"log"`
	Store struct {
		Kind        string `yaml:"kind"`
		File        string `yaml:"file"`
		DatabaseURL string `yaml:"database_url"`
		SQLitePath  string `yaml:"sqlite_path"`
		Table       string `yaml:"table"`
		IDColumn    string `yaml:"id_column"`
	} `yaml:"store"`
	Telegram struct {
		APIURL  string `yaml:"api_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron         string `yaml:"cron"`
		CycleTimeout string `yaml:"cycle_timeout"`
	} `yaml:"schedule"`
	Chart struct {
		Dir string `yaml:"dir"`
	} `yaml:"chart"`
}

// Load builds the configuration from the command-line flags, environment variables,
// a .env file (if present) and an optional YAML file named by DEADLINE_BOT_CONFIG_PATH.
func Load(flags Flags) (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	var file fileConfig
	if path := os.Getenv(configPathEnv); path != "" {
		if err := loadFromFile(path, &file); err != nil {
			return nil, err
		}
	}

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = strings.TrimSpace(flags.BotToken)
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("bot token is not set")
	}
	// Bot API tokens look like "<bot id>:<secret>".
	if !strings.Contains(cfg.TelegramToken, ":") {
		return nil, fmt.Errorf("invalid bot token format")
	}

	cfg.ChatID = strings.TrimSpace(flags.ChatID)
	if cfg.ChatID == "" {
		return nil, fmt.Errorf("chat ID is not set")
	}

	cfg.Deadline, err = time.Parse("2006-01-02", strings.TrimSpace(flags.DeadlineStr))
	if err != nil {
		return nil, fmt.Errorf("invalid deadline %q, expected YYYY-MM-DD: %w", flags.DeadlineStr, err)
	}

	cfg.GoalPages = flags.GoalPages
	if cfg.GoalPages <= 0 {
		return nil, fmt.Errorf("goal pages must be positive, got %d", flags.GoalPages)
	}

	cfg.LogLevel = strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), file.Log.Level, "info"))
	cfg.Environment = strings.ToLower(firstNonEmpty(os.Getenv("ENVIRONMENT"), file.Log.Environment, "development"))

	cfg.StoreKind = strings.ToLower(firstNonEmpty(os.Getenv("PROGRESS_STORE"), file.Store.Kind, StoreCSV))
	cfg.ProgressFile = firstNonEmpty(os.Getenv("PROGRESS_FILE"), file.Store.File, "date-page.csv")
	cfg.DatabaseURL = firstNonEmpty(os.Getenv("DATABASE_URL"), file.Store.DatabaseURL)
	cfg.SQLitePath = firstNonEmpty(os.Getenv("SQLITE_PATH"), file.Store.SQLitePath)
	cfg.ProgressTable = firstNonEmpty(os.Getenv("PROGRESS_TABLE"), file.Store.Table, "progress")
	cfg.ProgressOrder = firstNonEmpty(os.Getenv("PROGRESS_ID_COLUMN"), file.Store.IDColumn)

	switch cfg.StoreKind {
	case StoreCSV:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set (required for %s store)", StorePostgres)
		}
	case StoreSQLite:
		if cfg.SQLitePath == "" {
			return nil, fmt.Errorf("SQLITE_PATH is not set (required for %s store)", StoreSQLite)
		}
	default:
		return nil, fmt.Errorf("invalid PROGRESS_STORE %q, expected %s, %s or %s", cfg.StoreKind, StoreCSV, StorePostgres, StoreSQLite)
	}

	cfg.TelegramAPIURL = strings.TrimRight(firstNonEmpty(os.Getenv("TELEGRAM_API_URL"), file.Telegram.APIURL, "https://api.telegram.org"), "/")
	cfg.TelegramTimeout, err = parseDuration("TELEGRAM_TIMEOUT", firstNonEmpty(os.Getenv("TELEGRAM_TIMEOUT"), file.Telegram.Timeout, "30s"))
	if err != nil {
		return nil, err
	}

	cfg.CronSpecDaily = firstNonEmpty(os.Getenv("CRON_SPEC_DAILY"), file.Schedule.Cron, "0 7 * * *") // Default: 07:00 daily
	cfg.CycleTimeout, err = parseDuration("CYCLE_TIMEOUT", firstNonEmpty(os.Getenv("CYCLE_TIMEOUT"), file.Schedule.CycleTimeout, "5m"))
	if err != nil {
		return nil, err
	}

	cfg.ChartDir = firstNonEmpty(os.Getenv("CHART_DIR"), file.Chart.Dir)

	return cfg, nil
}

func loadFromFile(path string, cfg *fileConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %s", name, value)
	}
	return d, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
