package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr        string // status API bind address; "off" disables the API
	LogDir      string // logs directory
	LogLevel    string // debug|info|warn|error
	LogConsole  bool   // tee logs to stderr as well
	DatabaseURL string // optional postgres mirror of the poll log

	LocationsFile   string   // YAML map of code -> {locationId, alert}
	AlertLocations  []string // extra codes subscribed to alerts
	AvailabilityURL string   // upstream slot-availability endpoint
	PollLogFile     string   // append-only raw poll log

	NtfyBaseURL     string
	NtfyTopicPrefix string
	SlackWebhook    string
	NotifyTimeout   time.Duration

	PollPeriod    time.Duration // one full round over all locations
	PollTimeout   time.Duration
	ParallelPolls bool
	RetryAttempts int           // how many times to try the upstream GET
	RetryBackoff  time.Duration // backoff between retries

	HorizonDays      int
	ReminderInterval time.Duration
	RepeatCap        int

	PublicAPIKeys  []string
	AdminAPIKeys   []string
	PublicRPM      int
	PublicBurst    int
	AllowedOrigins []string // CORS; empty allows any origin
}

func FromEnv() Config {
	// Bind address (Windows-friendly default)
	addr := os.Getenv("API_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8080"
	}

	logDir := envOr("LOG_DIR", "logs")

	return Config{
		Addr:        addr,
		LogDir:      logDir,
		LogLevel:    envOr("LOG_LEVEL", "info"),
		LogConsole:  envBool("LOG_CONSOLE", false),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		LocationsFile:   envOr("LOCATIONS_FILE", "locations.yaml"),
		AlertLocations:  splitList(os.Getenv("ALERT_LOCATIONS")),
		AvailabilityURL: envOr("AVAILABILITY_URL", "https://ttp.cbp.dhs.gov/schedulerapi/slot-availability"),
		PollLogFile:     envOr("POLL_LOG_FILE", logDir+"/global_entry_log.txt"),

		NtfyBaseURL:     strings.TrimRight(envOr("NTFY_BASE_URL", "https://ntfy.sh"), "/"),
		NtfyTopicPrefix: envOr("NTFY_TOPIC_PREFIX", "GE-"),
		SlackWebhook:    os.Getenv("SLACK_WEBHOOK_URL"),
		NotifyTimeout:   envMillis("NOTIFY_TIMEOUT_MS", 15*time.Second),

		PollPeriod:    envMillis("POLL_PERIOD_MS", 15*time.Second),
		PollTimeout:   envMillis("POLL_TIMEOUT_MS", 15*time.Second),
		ParallelPolls: envBool("PARALLEL_POLLS", false),
		RetryAttempts: envPositive("RETRY_ATTEMPTS", 1),
		RetryBackoff:  envMillis("RETRY_BACKOFF_MS", 300*time.Millisecond),

		HorizonDays:      envPositive("HORIZON_DAYS", 90),
		ReminderInterval: time.Duration(envPositive("REMINDER_INTERVAL_S", 180)) * time.Second,
		RepeatCap:        envPositive("REPEAT_CAP", 3),

		PublicAPIKeys:  splitList(os.Getenv("PUBLIC_API_KEYS")),
		AdminAPIKeys:   splitList(os.Getenv("ADMIN_API_KEYS")),
		PublicRPM:      envPositive("PUBLIC_RPM", 120),
		PublicBurst:    envPositive("PUBLIC_BURST", 30),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envPositive(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return def
}

// splitList parses "a,b, c" into ["a","b","c"], dropping empties.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
