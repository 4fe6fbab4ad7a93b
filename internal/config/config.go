package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// IngestConfig holds ingestion pipeline settings.
type IngestConfig struct {
	// BatchTimeout bounds one full normalize-and-reconcile call.
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"INGEST_BATCH_TIMEOUT" env-default:"5m"`
	// MaxEntriesPerBatch rejects oversized vendor payloads outright.
	MaxEntriesPerBatch int `yaml:"max_entries_per_batch" env:"INGEST_MAX_ENTRIES_PER_BATCH" env-default:"10000"`
}

// SnapshotConfig holds clocked-in snapshot cache settings.
type SnapshotConfig struct {
	// RefreshInterval is the cron cadence used by cmd/refresher. The core
	// never schedules itself; this is consumed only by the trigger binary.
	RefreshInterval time.Duration `yaml:"refresh_interval" env:"SNAPSHOT_REFRESH_INTERVAL" env-default:"2m"`
	// StaleThreshold is how old a snapshot's last refresh may be before
	// the stats endpoint reports the cache as stale.
	StaleThreshold time.Duration `yaml:"stale_threshold" env:"SNAPSHOT_STALE_THRESHOLD" env-default:"10m"`
}
