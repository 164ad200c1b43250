// Package config загружает настройки агента из config.toml.
// Значения из .env и переменных окружения WASHSYNC_* перекрывают файл.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

var (
	// ErrReadConfig возвращается, если файл конфигурации не удалось прочитать
	ErrReadConfig = errors.New("config: failed to read config")

	// ErrInvalidConfig возвращается при недопустимых значениях
	ErrInvalidConfig = errors.New("config: invalid config")
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "WASHSYNC_"

type Config struct {
	Server       ServerConfig       `toml:"server"`
	Storage      StorageConfig      `toml:"storage"`
	RemoteAPI    RemoteAPIConfig    `toml:"remote_api"`
	Sync         SyncConfig         `toml:"sync"`
	Connectivity ConnectivityConfig `toml:"connectivity"`
	Logs         LogsConfig         `toml:"logs"`
	Metrics      MetricsConfig      `toml:"metrics"`
	Telemetry    TelemetryConfig    `toml:"telemetry"`
}

// ServerConfig локальный HTTP API для оболочки приложения. Таймауты в секундах.
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// StorageConfig локальное хранилище: sqlite на устройстве или postgres на стойке администратора
type StorageConfig struct {
	Driver          string `toml:"driver"`
	Path            string `toml:"path"`
	DSN             string `toml:"dsn"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DataSource строка подключения для sql.Open
func (s StorageConfig) DataSource() string {
	if s.Driver == DriverPostgres {
		return s.DSN
	}
	return "file:" + s.Path + "?_busy_timeout=5000&_foreign_keys=on&_journal_mode=WAL"
}

type RemoteAPIConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"`
}

// SyncConfig периодическая синхронизация. Token - начальный bearer-токен,
// дальше его передаёт приложение через PUT /session.
type SyncConfig struct {
	IntervalSeconds int    `toml:"interval_seconds"`
	Token           string `toml:"token"`
}

func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

type ConnectivityConfig struct {
	ProbeIntervalSeconds int `toml:"probe_interval_seconds"`
	ProbeTimeoutSeconds  int `toml:"probe_timeout_seconds"`
}

type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

type MetricsConfig struct {
	Enabled           bool   `toml:"enabled"`
	ServiceName       string `toml:"service_name"`
	Path              string `toml:"path"`
	PoolStatsInterval int    `toml:"pool_stats_interval"`
}

type TelemetryConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	Insecure    bool   `toml:"insecure"`
	ServiceName string `toml:"service_name"`
}

// Драйверы хранилища
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Load читает .env (если есть), файл конфигурации и переменные окружения
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", ErrReadConfig, err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrReadConfig, path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a number", ErrInvalidConfig, EnvPrefix, key, v)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := os.LookupEnv(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q is not a boolean", ErrInvalidConfig, EnvPrefix, key, v)
		}
		*dst = b
		return nil
	}

	str("STORAGE_DRIVER", &c.Storage.Driver)
	str("STORAGE_PATH", &c.Storage.Path)
	str("STORAGE_DSN", &c.Storage.DSN)
	str("REMOTE_API_URL", &c.RemoteAPI.URL)
	str("SYNC_TOKEN", &c.Sync.Token)
	str("LOG_LEVEL", &c.Logs.Level)
	str("LOG_FILE", &c.Logs.File)
	str("OTLP_ENDPOINT", &c.Telemetry.Endpoint)

	return errors.Join(
		num("HTTP_PORT", &c.Server.HTTPPort),
		num("REMOTE_API_TIMEOUT", &c.RemoteAPI.Timeout),
		num("SYNC_INTERVAL_SECONDS", &c.Sync.IntervalSeconds),
		flag("METRICS_ENABLED", &c.Metrics.Enabled),
		flag("TELEMETRY_ENABLED", &c.Telemetry.Enabled),
	)
}

func (c *Config) applyDefaults() {
	setInt := func(dst *int, v int) {
		if *dst == 0 {
			*dst = v
		}
	}
	setString := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}

	setInt(&c.Server.HTTPPort, 8088)
	setInt(&c.Server.ReadTimeout, 15)
	setInt(&c.Server.WriteTimeout, 30)
	setInt(&c.Server.IdleTimeout, 60)
	setInt(&c.Server.ShutdownTimeout, 10)

	setString(&c.Storage.Driver, DriverSQLite)
	setString(&c.Storage.Path, "washsync.db")
	if c.Storage.Driver == DriverSQLite {
		// одна запись за раз: SQLite сериализует писателей
		c.Storage.MaxOpenConns = 1
		c.Storage.MaxIdleConns = 1
	}
	setInt(&c.Storage.MaxOpenConns, 10)
	setInt(&c.Storage.MaxIdleConns, 5)
	setInt(&c.Storage.ConnMaxLifetime, 300)

	setInt(&c.RemoteAPI.Timeout, 15)
	setInt(&c.Sync.IntervalSeconds, 300)
	setInt(&c.Connectivity.ProbeIntervalSeconds, 15)
	setInt(&c.Connectivity.ProbeTimeoutSeconds, 5)

	setString(&c.Logs.Level, "info")
	setString(&c.Metrics.ServiceName, "washsync")
	setString(&c.Metrics.Path, "/metrics")
	setInt(&c.Metrics.PoolStatsInterval, 15)
	setString(&c.Telemetry.ServiceName, c.Metrics.ServiceName)

	c.RemoteAPI.URL = strings.TrimRight(c.RemoteAPI.URL, "/")
}

// Validate проверяет обязательные значения
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite3"))
		}
	case DriverPostgres:
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q is not supported", c.Storage.Driver))
	}

	if c.RemoteAPI.URL == "" {
		errs = append(errs, errors.New("remote_api.url is required"))
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("server.http_port %d is out of range", c.Server.HTTPPort))
	}
	if c.Sync.IntervalSeconds < 0 {
		errs = append(errs, errors.New("sync.interval_seconds must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
