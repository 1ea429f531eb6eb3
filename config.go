package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/viper"
)

// Config captures the full runtime configuration for one sync process. It is
// loaded once in main and passed explicitly into every component; nothing
// reads configuration state behind the orchestrator's back.
type Config struct {
	APIID       int
	APIHash     string
	SessionFile string

	StoreDriver      string // "pgx" or "sqlite3"
	PostgresDB       string
	PostgresUser     string
	PostgresPassword string
	DBHost           string
	DBPort           int
	SQLitePath       string

	ImagesDir      string
	AttachmentsDir string

	MessageFetchLimit int
	ReplyFetchLimit   int

	// Debug pinning: restrict the run to one dialog and floor its watermark
	// at a fixed message id so the same window is replayed every run.
	DebugMode               bool
	DebugChannelID          int64
	DebugMessageIDThreshold int64

	QRPath        string
	TwoFAPassword string
	LogLevel      string
}

// envBindings maps viper keys to the environment variables that feed them.
// The variable names match the original deployment's environment.
var envBindings = map[string]string{
	"telegram.api_id":            "TELEGRAM_API_ID",
	"telegram.api_hash":          "TELEGRAM_API_HASH",
	"telegram.session_file":      "TELEGRAM_SESSION_FILE",
	"telegram.2fa_password":      "TELEGRAM_2FA_PASSWORD",
	"store.driver":               "STORE_DRIVER",
	"store.postgres_db":          "POSTGRES_DB",
	"store.postgres_user":        "POSTGRES_USER",
	"store.postgres_password":    "POSTGRES_PASSWORD",
	"store.db_host":              "DB_HOST",
	"store.db_port":              "DB_PORT",
	"store.sqlite_path":          "SQLITE_PATH",
	"paths.images_dir":           "IMAGES_DIR",
	"paths.attachments_dir":      "ATTACHMENTS_DIR",
	"paths.qr_path":              "QR_PATH",
	"limits.message_fetch":       "MESSAGE_FETCH_LIMIT",
	"limits.reply_fetch":         "REPLY_FETCH_LIMIT",
	"debug.mode":                 "DEBUG_MODE",
	"debug.channel_id":           "DEBUG_CHANNEL_ID",
	"debug.message_id_threshold": "DEBUG_MESSAGE_ID_THRESHOLD",
	"log.level":                  "LOG_LEVEL",
}

// ApplyDefaults seeds defaults and environment bindings on a viper instance.
func ApplyDefaults(v *viper.Viper) {
	v.SetDefault("telegram.session_file", "session/telegram.session")
	v.SetDefault("store.driver", "pgx")
	v.SetDefault("store.db_host", "localhost")
	v.SetDefault("store.db_port", 5432)
	v.SetDefault("store.sqlite_path", "mirror.db")
	v.SetDefault("paths.images_dir", "/data/images")
	v.SetDefault("paths.attachments_dir", "/data/attachments")
	v.SetDefault("paths.qr_path", "login-qr.png")
	v.SetDefault("limits.message_fetch", 50)
	v.SetDefault("limits.reply_fetch", 5)
	v.SetDefault("debug.mode", false)
	v.SetDefault("log.level", "info")

	for key, env := range envBindings {
		// BindEnv only errors on empty input.
		_ = v.BindEnv(key, env)
	}
}

// LoadConfig reads the configuration from a viper instance and validates the
// values the run cannot proceed without.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIID:       v.GetInt("telegram.api_id"),
		APIHash:     v.GetString("telegram.api_hash"),
		SessionFile: v.GetString("telegram.session_file"),

		StoreDriver:      v.GetString("store.driver"),
		PostgresDB:       v.GetString("store.postgres_db"),
		PostgresUser:     v.GetString("store.postgres_user"),
		PostgresPassword: v.GetString("store.postgres_password"),
		DBHost:           v.GetString("store.db_host"),
		DBPort:           v.GetInt("store.db_port"),
		SQLitePath:       v.GetString("store.sqlite_path"),

		ImagesDir:      v.GetString("paths.images_dir"),
		AttachmentsDir: v.GetString("paths.attachments_dir"),

		MessageFetchLimit: v.GetInt("limits.message_fetch"),
		ReplyFetchLimit:   v.GetInt("limits.reply_fetch"),

		DebugMode:               v.GetBool("debug.mode"),
		DebugChannelID:          v.GetInt64("debug.channel_id"),
		DebugMessageIDThreshold: v.GetInt64("debug.message_id_threshold"),

		QRPath:        v.GetString("paths.qr_path"),
		TwoFAPassword: v.GetString("telegram.2fa_password"),
		LogLevel:      v.GetString("log.level"),
	}

	if cfg.APIID == 0 {
		return Config{}, fmt.Errorf("TELEGRAM_API_ID is not set")
	}
	if cfg.APIHash == "" {
		return Config{}, fmt.Errorf("TELEGRAM_API_HASH is not set")
	}
	switch cfg.StoreDriver {
	case "pgx":
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is not set")
		}
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is not set")
		}
	case "sqlite3":
		if cfg.SQLitePath == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH is not set")
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q (want pgx or sqlite3)", cfg.StoreDriver)
	}
	if cfg.MessageFetchLimit <= 0 {
		return Config{}, fmt.Errorf("MESSAGE_FETCH_LIMIT must be positive, got %d", cfg.MessageFetchLimit)
	}
	if cfg.ReplyFetchLimit <= 0 {
		return Config{}, fmt.Errorf("REPLY_FETCH_LIMIT must be positive, got %d", cfg.ReplyFetchLimit)
	}
	if cfg.DebugMode && cfg.DebugChannelID == 0 {
		return Config{}, fmt.Errorf("DEBUG_MODE set but DEBUG_CHANNEL_ID is not")
	}

	return cfg, nil
}

// DSN builds the database connection string for the configured driver.
func (c Config) DSN() string {
	if c.StoreDriver == "sqlite3" {
		return c.SQLitePath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.DBHost, c.DBPort),
		Path:   "/" + c.PostgresDB,
	}
	return u.String()
}
