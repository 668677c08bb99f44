package postgres

import "time"

// DefaultApplicationName is reported to the server in pg_stat_activity.
const DefaultApplicationName = "simple-translate"

// Config holds the history database settings.
type Config struct {
	// DSN is a libpq connection string or URL,
	// e.g. "postgres://translate:secret@db:5432/history?sslmode=require".
	DSN string

	// Pool bounds (defaults: 10 max, 1 min) and connection recycling
	// (default: 5m).
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration

	// ConnectTimeout bounds the connectivity check in New (default: 10s).
	ConnectTimeout time.Duration

	// ApplicationName defaults to DefaultApplicationName.
	ApplicationName string

	// MigrateOnStart applies the embedded schema migrations in New. Turn it
	// off when the schema is managed separately.
	MigrateOnStart bool
}

func (c *Config) defaults() {
	if c.MaxConns == 0 {
		c.MaxConns = 10
	}
	if c.MinConns == 0 {
		c.MinConns = 1
	}
	if c.MaxConnLifetime == 0 {
		c.MaxConnLifetime = 5 * time.Minute
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.ApplicationName == "" {
		c.ApplicationName = DefaultApplicationName
	}
}
