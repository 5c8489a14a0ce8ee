package models

import "time"

// Config holds the application configuration
type Config struct {
	Telegram       TelegramConfig       `json:"telegram" mapstructure:"telegram"`
	Forwarding     ForwardingConfig     `json:"forwarding" mapstructure:"forwarding"`
	Filters        FilterConfig         `json:"filters" mapstructure:"-"`
	Logging        LoggingConfig        `json:"logging" mapstructure:"logging"`
	Database       DatabaseConfig       `json:"database" mapstructure:"database"`
	Server         ServerConfig         `json:"server" mapstructure:"server"`
	Retry          RetryConfig          `json:"retry" mapstructure:"retry"`
	Tracing        TracingConfig        `json:"tracing" mapstructure:"tracing"`
	ErrorReporting ErrorReportingConfig `json:"error_reporting" mapstructure:"error_reporting"`
	QueueMonitor   QueueMonitorConfig   `json:"queue_monitor" mapstructure:"queue_monitor"`
	Timezone       string               `json:"timezone" mapstructure:"timezone"`
}

// TelegramConfig holds messaging client settings
type TelegramConfig struct {
	BotToken       string `json:"bot_token" mapstructure:"bot_token"`
	PollTimeoutSec int    `json:"poll_timeout_sec" mapstructure:"poll_timeout_sec"`
	Debug          bool   `json:"debug" mapstructure:"debug"`
}

// ForwardingConfig holds delivery settings
type ForwardingConfig struct {
	TargetGroup            int64   `json:"target_group" mapstructure:"target_group"`
	ForwardingDelaySeconds float64 `json:"forwarding_delay_seconds" mapstructure:"forwarding_delay_seconds"`
	QueueCapacity          int     `json:"queue_capacity" mapstructure:"queue_capacity"`
	// MarkAsRead only takes effect with a client that can acknowledge reads.
	// The Bot API client cannot, so with it this only logs a startup warning.
	MarkAsRead bool `json:"mark_as_read" mapstructure:"mark_as_read"`
}

// ForwardingDelay returns the minimum interval between forward attempts
func (f ForwardingConfig) ForwardingDelay() time.Duration {
	return time.Duration(f.ForwardingDelaySeconds * float64(time.Second))
}

// FilterConfig holds the exclusion sets. It is fixed for the process lifetime.
type FilterConfig struct {
	ExcludeChatIDs   []int64 `json:"exclude_chat_ids"`
	ExcludeSenderIDs []int64 `json:"exclude_sender_ids"`
}

// LoggingConfig holds logging related configurations
type LoggingConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path          string `json:"path" mapstructure:"path"`
	BusyTimeoutMs int    `json:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
	MaxReadConns  int    `json:"max_read_conns" mapstructure:"max_read_conns"`
	WriteAttempts int    `json:"write_attempts" mapstructure:"write_attempts"`
}

// ServerConfig holds read API settings
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	ReadTimeoutSec     int    `json:"read_timeout_sec" mapstructure:"read_timeout_sec"`
	WriteTimeoutSec    int    `json:"write_timeout_sec" mapstructure:"write_timeout_sec"`
	ShutdownTimeoutSec int    `json:"shutdown_timeout_sec" mapstructure:"shutdown_timeout_sec"`
	TrustProxy         bool   `json:"trust_proxy" mapstructure:"trust_proxy"`
}

// RetryConfig holds retry related configurations
type RetryConfig struct {
	InitialBackoffMs int `json:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `json:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	MaxAttempts      int `json:"max_attempts" mapstructure:"max_attempts"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled        bool    `json:"enabled" mapstructure:"enabled"`
	ServiceName    string  `json:"service_name" mapstructure:"service_name"`
	ServiceVersion string  `json:"service_version" mapstructure:"service_version"`
	Environment    string  `json:"environment" mapstructure:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate" mapstructure:"sample_rate"`
	UseStdout      bool    `json:"use_stdout" mapstructure:"use_stdout"`
}

// ErrorReportingConfig holds Sentry-compatible error tracking settings
type ErrorReportingConfig struct {
	Enabled     bool   `json:"enabled" mapstructure:"enabled"`
	DSN         string `json:"dsn" mapstructure:"dsn"`
	Environment string `json:"environment" mapstructure:"environment"`
	Release     string `json:"release" mapstructure:"release"`
}

// QueueMonitorConfig holds backlog monitoring settings
type QueueMonitorConfig struct {
	IntervalSec      int `json:"interval_sec" mapstructure:"interval_sec"`
	BacklogThreshold int `json:"backlog_threshold" mapstructure:"backlog_threshold"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
