package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"listentg/internal/constants"
	apperrors "listentg/internal/errors"
	"listentg/internal/models"
	"listentg/internal/security"
	"listentg/internal/validation"

	"github.com/spf13/viper"
)

var (
	ErrMissingBotToken    = models.ConfigError{Message: "missing telegram bot token"}
	ErrMissingTargetGroup = models.ConfigError{Message: "missing forwarding target group"}
	ErrMissingDBPath      = models.ConfigError{Message: "missing database path"}
	ErrNegativeDelay      = models.ConfigError{Message: "forwarding delay must not be negative"}
)

// LoadConfig reads the config file at path (ini, json or yaml, chosen by
// extension), applies defaults and environment overrides, and validates it.
func LoadConfig(path string) (*models.Config, error) {
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidConfig, "failed to read config file").
			WithContext("path", path)
	}

	var config models.Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidConfig, "failed to decode config file").
			WithContext("path", path)
	}

	// INI keys outside any section land in the "default" section
	if tz := v.GetString("default.timezone"); tz != "" {
		config.Timezone = tz
	}

	var err error
	if config.Filters.ExcludeChatIDs, err = parseIDList(v.Get("filters.exclude_chat_ids")); err != nil {
		return nil, models.ConfigError{Message: fmt.Sprintf("invalid filters.exclude_chat_ids: %v", err)}
	}
	if config.Filters.ExcludeSenderIDs, err = parseIDList(v.Get("filters.exclude_sender_ids")); err != nil {
		return nil, models.ConfigError{Message: fmt.Sprintf("invalid filters.exclude_sender_ids: %v", err)}
	}

	if err := applyEnvironmentOverrides(&config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("telegram.poll_timeout_sec", constants.DefaultPollTimeoutSec)
	v.SetDefault("forwarding.forwarding_delay_seconds", constants.DefaultForwardingDelaySeconds)
	v.SetDefault("forwarding.queue_capacity", constants.DefaultQueueCapacity)
	v.SetDefault("logging.level", constants.DefaultLogLevel)
	v.SetDefault("database.path", constants.DefaultDatabasePath)
	v.SetDefault("database.busy_timeout_ms", constants.DefaultBusyTimeoutMs)
	v.SetDefault("database.max_read_conns", constants.DefaultMaxReadConns)
	v.SetDefault("database.write_attempts", constants.DefaultDatabaseWriteAttempts)
	v.SetDefault("server.host", constants.DefaultServerHost)
	v.SetDefault("server.port", constants.DefaultServerPort)
	v.SetDefault("server.read_timeout_sec", constants.DefaultServerReadTimeoutSec)
	v.SetDefault("server.write_timeout_sec", constants.DefaultServerWriteTimeoutSec)
	v.SetDefault("server.shutdown_timeout_sec", constants.DefaultGracefulShutdownSec)
	v.SetDefault("retry.initial_backoff_ms", constants.DefaultRetryBackoffMs)
	v.SetDefault("retry.max_backoff_ms", constants.DefaultMaxBackoffMs)
	v.SetDefault("retry.max_attempts", constants.DefaultMaxAttempts)
	v.SetDefault("tracing.service_name", constants.DefaultServiceName)
	v.SetDefault("tracing.sample_rate", constants.DefaultTracingSampleRate)
	v.SetDefault("queue_monitor.interval_sec", constants.DefaultQueueMonitorSec)
	v.SetDefault("queue_monitor.backlog_threshold", constants.DefaultBacklogThreshold)
	v.SetDefault("timezone", constants.DefaultTimezone)
}

// parseIDList accepts either a comma separated string or a list of numbers.
// A missing key yields an empty list.
func parseIDList(raw interface{}) ([]int64, error) {
	ids := []int64{}
	switch value := raw.(type) {
	case nil:
		return ids, nil
	case string:
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%q is not an integer id", part)
			}
			ids = append(ids, id)
		}
	case []interface{}:
		for _, item := range value {
			parsed, err := parseIDList(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, parsed...)
		}
	case int:
		ids = append(ids, int64(value))
	case int64:
		ids = append(ids, value)
	case float64:
		if value != float64(int64(value)) {
			return nil, fmt.Errorf("%v is not an integer id", value)
		}
		ids = append(ids, int64(value))
	default:
		return nil, fmt.Errorf("unsupported id list type %T", raw)
	}
	return ids, nil
}

func validate(c *models.Config) error {
	if c.Telegram.BotToken == "" {
		return ErrMissingBotToken
	}
	if err := validation.ValidateStringLength(c.Telegram.BotToken, "telegram bot token", 1, constants.MaxBotTokenLength); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if c.Forwarding.TargetGroup == 0 {
		return ErrMissingTargetGroup
	}
	if c.Forwarding.ForwardingDelaySeconds < 0 {
		return ErrNegativeDelay
	}
	if c.Forwarding.QueueCapacity < 0 {
		return models.ConfigError{Message: "queue capacity must not be negative"}
	}
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if err := security.ValidateFilePath(c.Database.Path); err != nil {
		return models.ConfigError{Message: fmt.Sprintf("invalid database path: %v", err)}
	}
	if err := validation.ValidateNumericRange(c.Server.Port, "server port", 1, 65535); err != nil {
		return models.ConfigError{Message: fmt.Sprintf("invalid server port: %v", err)}
	}
	if err := validation.ValidateTimeout(c.Server.ReadTimeoutSec, "server read timeout"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if err := validation.ValidateTimeout(c.Server.WriteTimeoutSec, "server write timeout"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if err := validation.ValidateTimeout(c.Telegram.PollTimeoutSec, "telegram poll timeout"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return models.ConfigError{Message: fmt.Sprintf("unknown timezone %q", c.Timezone)}
	}

	if c.Database.WriteAttempts <= 0 {
		c.Database.WriteAttempts = constants.DefaultDatabaseWriteAttempts
	}
	if c.Database.MaxReadConns <= 0 {
		c.Database.MaxReadConns = constants.DefaultMaxReadConns
	}
	if c.QueueMonitor.IntervalSec <= 0 {
		c.QueueMonitor.IntervalSec = constants.DefaultQueueMonitorSec
	}
	return nil
}

func applyEnvironmentOverrides(c *models.Config) error {
	// Bot tokens belong in the environment rather than in config files
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Telegram.BotToken = token
	}

	if path := os.Getenv("LISTENTG_DB_PATH"); path != "" {
		c.Database.Path = path
	}

	if target := os.Getenv("LISTENTG_TARGET_GROUP"); target != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(target), 10, 64)
		if err != nil {
			return models.ConfigError{Message: fmt.Sprintf("invalid LISTENTG_TARGET_GROUP: %q", target)}
		}
		c.Forwarding.TargetGroup = id
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return models.ConfigError{Message: fmt.Sprintf("invalid PORT: %q", port)}
		}
		c.Server.Port = p
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		c.ErrorReporting.DSN = dsn
		c.ErrorReporting.Enabled = true
	}
	return nil
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("LISTENTG_ENV") == "production"

	if isProduction {
		// Debug output of the bot library prints request URLs, which contain the token
		if c.Telegram.Debug {
			return models.ConfigError{Message: "telegram debug output must not be enabled in production (it logs the bot token)"}
		}
		if strings.EqualFold(c.Logging.Level, "debug") {
			return models.ConfigError{Message: "debug logging should not be used in production (message text is logged)"}
		}
	} else if os.Getenv("TELEGRAM_BOT_TOKEN") == "" {
		fmt.Fprintf(os.Stderr, "WARNING: bot token read from config file. Set TELEGRAM_BOT_TOKEN environment variable instead.\n")
	}

	return nil
}
