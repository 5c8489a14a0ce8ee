package constants

// Default forwarding configuration values
const (
	DefaultForwardingDelaySeconds = 2.0
	DefaultQueueCapacity          = 0
	DefaultPollTimeoutSec         = 60
	MaxBotTokenLength             = 256
)

// Default storage configuration values
const (
	DefaultDatabasePath          = "listentg_messages.db"
	DefaultBusyTimeoutMs         = 5000
	DefaultMaxReadConns          = 4
	DefaultDatabaseWriteAttempts = 3
	DefaultSearchResultLimit     = 50
	DefaultMinSearchQueryLength  = 2
	MaxSearchQueryLength         = 256
)

// Default retry configuration values
const (
	DefaultRetryBackoffMs = 1000
	DefaultMaxBackoffMs   = 60000
	DefaultMaxAttempts    = 5
)

// Default server and timeout values
const (
	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8000
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	DefaultBackoffInitialMs      = 500
	DefaultBackoffMaxSec         = 5
)

// Default statistics windows
const (
	DefaultTimezone          = "UTC"
	StatsWindowDays          = 7
	ActivityWindowDays       = 30
	TopChatsLimit            = 10
	TopTalkersLimit          = 10
	DefaultQueueMonitorSec   = 60
	DefaultBacklogThreshold  = 100
	DefaultLogLevel          = "info"
	DefaultServiceName       = "listentg"
	DefaultTracingSampleRate = 0.1
)

// Privacy settings
const (
	DefaultIDMaskLength  = 4
	DefaultPreviewLength = 32
)
