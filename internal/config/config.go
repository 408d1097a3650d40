package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// HTTP Server
	Port               string        `envconfig:"PORT" default:"8081"`
	RequestTimeout     time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	RateLimitPerMinute int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120" validate:"min=1"`

	// Logging
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`

	// Grid limits
	MaxTables   int  `envconfig:"MAX_TABLES" default:"10" validate:"min=1,max=50"`
	MaxRows     int  `envconfig:"MAX_ROWS" default:"50" validate:"min=1,max=200"`
	ZeroIsBlank bool `envconfig:"ZERO_IS_BLANK" default:"false"`

	// Form sessions
	SessionBackend   string        `envconfig:"SESSION_BACKEND" default:"memory" validate:"oneof=memory sqlite redis"`
	SessionTTL       time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	SessionCacheSize int           `envconfig:"SESSION_CACHE_SIZE" default:"1000" validate:"min=1"`
	SQLiteDBPath     string        `envconfig:"SQLITE_DB_PATH" default:"./data/yeargrid.db"`
	RedisAddr        string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	// AMQP
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"yeargrid"`
	AMQPQueue    string `envconfig:"AMQP_QUEUE" default:"grid_submitted"`

	// Export
	ExportBackend            string `envconfig:"EXPORT_BACKEND" default:"memory" validate:"oneof=memory sheets"`
	GoogleSpreadsheetID      string `envconfig:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `envconfig:"GOOGLE_SHEET_NAME" default:"Grid"`
	GoogleServiceAccountFile string `envconfig:"GOOGLE_SERVICE_ACCOUNT_FILE"`
	GoogleServiceAccountJSON string `envconfig:"GOOGLE_SERVICE_ACCOUNT_JSON"`
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their environment variable name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("envconfig")
	})
	return v
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, describe(fe))
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RequestTimeout < time.Second {
		errs = append(errs, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}
	if c.SessionTTL < time.Minute {
		errs = append(errs, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	switch c.SessionBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "redis":
		if c.RedisAddr == "" {
			errs = append(errs, "Redis address cannot be empty when using redis backend")
		}
	}

	// AMQP is optional; when configured it must be complete
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExportBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errs = append(errs, "Google Spreadsheet ID is required when using sheets export")
		}
		if c.GoogleSheetName == "" {
			errs = append(errs, "Google Sheet name is required when using sheets export")
		}
		hasFile := c.GoogleServiceAccountFile != ""
		if !hasFile && c.GoogleServiceAccountJSON == "" {
			errs = append(errs, "either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
		}
		if hasFile {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errs = append(errs, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// ValidateWorker checks the settings the export worker cannot run without.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.AMQPURL == "" {
		return errors.New("configuration validation failed:\n- AMQP_URL is required by the export worker")
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("invalid %s '%v': must be one of [%s]", fe.Field(), fe.Value(), fe.Param())
	case "min":
		return fmt.Sprintf("invalid %s %v: must be at least %s", fe.Field(), fe.Value(), fe.Param())
	case "max":
		return fmt.Sprintf("invalid %s %v: must be at most %s", fe.Field(), fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("invalid %s: failed %s check", fe.Field(), fe.Tag())
	}
}

// SlogLevel maps LogLevel to its slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
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
