package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"

	NotifyTimer  = "timer"
	NotifyBroker = "broker"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Log       LogConfig
	Notify    NotifyConfig
	Scheduler SchedulerConfig
	PubSub    PubSubConfig
}

type LogConfig struct {
	Level string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type StoreConfig struct {
	Driver             string
	DataDir            string
	PostgresDSN        string
	SQLitePath         string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	SlowQueryThreshold time.Duration
}

type NotifyConfig struct {
	Backend      string
	Horizon      time.Duration
	PollInterval time.Duration
	TriggerTopic string
	EventTopic   string
}

type SchedulerConfig struct {
	Timezone          string
	Location          *time.Location
	SnoozeDuration    time.Duration
	ActionTimeout     time.Duration
	RetryBudget       int
	ReconcileSchedule string
}

type PubSubConfig struct {
	NatsURL         string
	GCloudProjectID string
}

// source resolves a key from the environment first, then the YAML file.
type source struct {
	file map[string]string
}

func (s source) get(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	if value, ok := s.file[key]; ok && value != "" {
		return value
	}

	return defaultValue
}

func (s source) duration(key, defaultValue string) (time.Duration, error) {
	d, err := time.ParseDuration(s.get(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return d, nil
}

func (s source) int(key, defaultValue string) (int, error) {
	n, err := strconv.Atoi(s.get(key, defaultValue))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}

	return n, nil
}

// Load reads an optional .env file from the working directory and the
// optional YAML file at path, then lets environment variables override
// both. The YAML file uses the environment variable names as keys.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := readYAML(path)
	if err != nil {
		return nil, err
	}

	src := source{file: file}

	var errs []error

	serverPort, err := src.int("SERVER_PORT", "8080")
	errs = append(errs, err)

	readTimeout, err := src.duration("SERVER_READ_TIMEOUT", "30s")
	errs = append(errs, err)

	writeTimeout, err := src.duration("SERVER_WRITE_TIMEOUT", "30s")
	errs = append(errs, err)

	maxOpenConns, err := src.int("DB_MAX_OPEN_CONNS", "25")
	errs = append(errs, err)

	maxIdleConns, err := src.int("DB_MAX_IDLE_CONNS", "25")
	errs = append(errs, err)

	connMaxLifetime, err := src.duration("DB_CONN_MAX_LIFETIME", "5m")
	errs = append(errs, err)

	slowQuery, err := src.duration("DB_SLOW_QUERY_THRESHOLD", "200ms")
	errs = append(errs, err)

	horizon, err := src.duration("NOTIFY_HORIZON", "24h")
	errs = append(errs, err)

	pollInterval, err := src.duration("NOTIFY_POLL_INTERVAL", "1s")
	errs = append(errs, err)

	snooze, err := src.duration("SNOOZE_DURATION", "10m")
	errs = append(errs, err)

	actionTimeout, err := src.duration("ACTION_TIMEOUT", "1h")
	errs = append(errs, err)

	retryBudget, err := src.int("RECONCILE_RETRY_BUDGET", "3")
	errs = append(errs, err)

	timezone := src.get("TIMEZONE", "Local")

	location, err := time.LoadLocation(timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid TIMEZONE: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	dataDir := src.get("DATA_DIR", "./data")

	cfg := &Config{
		Server: ServerConfig{
			Host:         src.get("SERVER_HOST", "0.0.0.0"),
			Port:         serverPort,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
		Store: StoreConfig{
			Driver:             src.get("STORE_DRIVER", StoreFile),
			DataDir:            dataDir,
			PostgresDSN:        src.get("POSTGRES_DSN", ""),
			SQLitePath:         src.get("SQLITE_PATH", filepath.Join(dataDir, "medremind.db")),
			MaxOpenConns:       maxOpenConns,
			MaxIdleConns:       maxIdleConns,
			ConnMaxLifetime:    connMaxLifetime,
			SlowQueryThreshold: slowQuery,
		},
		Log: LogConfig{
			Level: src.get("LOG_LEVEL", "info"),
		},
		Notify: NotifyConfig{
			Backend:      src.get("NOTIFY_BACKEND", NotifyTimer),
			Horizon:      horizon,
			PollInterval: pollInterval,
			TriggerTopic: src.get("TRIGGER_TOPIC", "medremind.triggers"),
			EventTopic:   src.get("EVENT_TOPIC", "medremind.notification-events"),
		},
		Scheduler: SchedulerConfig{
			Timezone:          timezone,
			Location:          location,
			SnoozeDuration:    snooze,
			ActionTimeout:     actionTimeout,
			RetryBudget:       retryBudget,
			ReconcileSchedule: src.get("RECONCILE_SCHEDULE", "@every 15m"),
		},
		PubSub: PubSubConfig{
			NatsURL:         src.get("NATS_URL", ""),
			GCloudProjectID: src.get("GCLOUD_PROJECT_ID", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readYAML(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		if v == nil {
			continue
		}

		out[k] = fmt.Sprint(v)
	}

	return out, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreFile, StoreSQLite:
	case StorePostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORE_DRIVER is postgres")
		}
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q: must be file, sqlite or postgres", c.Store.Driver)
	}

	switch c.Notify.Backend {
	case NotifyTimer:
	case NotifyBroker:
		if c.PubSub.NatsURL == "" {
			return errors.New("NATS_URL is required when NOTIFY_BACKEND is broker")
		}
	default:
		return fmt.Errorf("invalid NOTIFY_BACKEND %q: must be timer or broker", c.Notify.Backend)
	}

	if c.Notify.PollInterval <= 0 {
		return errors.New("NOTIFY_POLL_INTERVAL must be positive")
	}

	if c.Scheduler.RetryBudget < 0 {
		return errors.New("RECONCILE_RETRY_BUDGET must not be negative")
	}

	return c.PubSub.Validate()
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
