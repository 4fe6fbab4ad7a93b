package config

import (
	"fmt"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) must be >= min_conns (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}

	if c.Ingest.MaxEntriesPerBatch <= 0 {
		return fmt.Errorf("ingest.max_entries_per_batch must be > 0 (got %d)", c.Ingest.MaxEntriesPerBatch)
	}
	if c.Ingest.BatchTimeout <= 0 {
		return fmt.Errorf("ingest.batch_timeout must be > 0 (got %v)", c.Ingest.BatchTimeout)
	}

	if c.Snapshot.RefreshInterval < time.Second {
		return fmt.Errorf("snapshot.refresh_interval must be >= 1s (got %v)", c.Snapshot.RefreshInterval)
	}
	if c.Snapshot.StaleThreshold < time.Minute {
		return fmt.Errorf("snapshot.stale_threshold must be >= 1m (got %v)", c.Snapshot.StaleThreshold)
	}

	return nil
}
