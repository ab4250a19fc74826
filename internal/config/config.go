package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
	"golang.org/x/text/language"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

type Config struct {
	// HTTP Server
	Port      string
	RateLimit string

	// Storage
	DataBackend  string
	SQLiteDBPath string

	// Exchange rates
	FXBaseURL           string
	FXKey               string
	SupportedCurrencies []string

	// AMQP; empty URL disables change events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Presentation
	LogLevel        string
	DisplayLanguage string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("DATA_BACKEND", "sqlite")
	v.SetDefault("SQLITE_DB_PATH", "./data/expenses.db")
	v.SetDefault("FX_BASE_URL", "https://api.frankfurter.app/")
	v.SetDefault("FX_KEY", "")
	v.SetDefault("SUPPORTED_CURRENCIES", strings.Join(core.DefaultCurrencies, ","))
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "expenses")
	v.SetDefault("AMQP_QUEUE", "expense_events")
	v.SetDefault("GOOGLE_SPREADSHEET_ID", "")
	v.SetDefault("GOOGLE_SHEET_NAME", "Expenses")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	v.SetDefault("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DISPLAY_LANGUAGE", "en")
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return &Config{
		Port:      strings.TrimSpace(v.GetString("PORT")),
		RateLimit: strings.TrimSpace(v.GetString("RATE_LIMIT")),

		DataBackend:  strings.ToLower(strings.TrimSpace(v.GetString("DATA_BACKEND"))),
		SQLiteDBPath: strings.TrimSpace(v.GetString("SQLITE_DB_PATH")),

		FXBaseURL:           strings.TrimSpace(v.GetString("FX_BASE_URL")),
		FXKey:               strings.TrimSpace(v.GetString("FX_KEY")),
		SupportedCurrencies: splitList(v.GetString("SUPPORTED_CURRENCIES")),

		AMQPURL:      strings.TrimSpace(v.GetString("AMQP_URL")),
		AMQPExchange: strings.TrimSpace(v.GetString("AMQP_EXCHANGE")),
		AMQPQueue:    strings.TrimSpace(v.GetString("AMQP_QUEUE")),

		GoogleSpreadsheetID:      strings.TrimSpace(v.GetString("GOOGLE_SPREADSHEET_ID")),
		GoogleSheetName:          strings.TrimSpace(v.GetString("GOOGLE_SHEET_NAME")),
		GoogleServiceAccountJSON: strings.TrimSpace(v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON")),
		GoogleServiceAccountFile: strings.TrimSpace(v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE")),

		LogLevel:        strings.TrimSpace(v.GetString("LOG_LEVEL")),
		DisplayLanguage: strings.TrimSpace(v.GetString("DISPLAY_LANGUAGE")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Currencies builds the supported currency registry.
func (c *Config) Currencies() (*core.CurrencyRegistry, error) {
	return core.NewCurrencyRegistry(c.SupportedCurrencies)
}

// Validate validates the server configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "sqlite"}
	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.FXBaseURL != "" {
		if u, err := url.Parse(c.FXBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid FX base URL '%s': %v", c.FXBaseURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid FX base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if _, err := c.Currencies(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid supported currencies: %v", err))
	}

	errors = append(errors, c.validateAMQP()...)

	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rate limit '%s': %v", c.RateLimit, err))
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	if _, err := language.Parse(c.DisplayLanguage); err != nil {
		errors = append(errors, fmt.Sprintf("invalid display language '%s': %v", c.DisplayLanguage, err))
	}

	return combine(errors)
}

// ValidateWorker validates the settings the export worker needs.
func (c *Config) ValidateWorker() error {
	var errors []string

	if c.AMQPURL == "" {
		errors = append(errors, "AMQP URL is required for the export worker")
	}
	errors = append(errors, c.validateAMQP()...)

	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "Google Spreadsheet ID is required for the export worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the export worker")
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	return combine(errors)
}

func (c *Config) validateAMQP() []string {
	if c.AMQPURL == "" {
		return nil
	}
	var errors []string
	if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
	} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
		errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
	}
	if c.AMQPExchange == "" {
		errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
	}
	if c.AMQPQueue == "" {
		errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
	}
	return errors
}

func combine(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
