package sqlite

import "time"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// Config holds SQLite store settings.
type Config struct {
	// Path is the database file. Parent directories are created as needed.
	// Use MemoryPath for a throwaway database.
	Path string

	// BusyTimeout is how long a writer waits for a lock (default: 5s).
	BusyTimeout time.Duration
}

// defaults applies default values for unset configuration fields.
func (c *Config) defaults() {
	if c.BusyTimeout == 0 {
		c.BusyTimeout = 5 * time.Second
	}
}
