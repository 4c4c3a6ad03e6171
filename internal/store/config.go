package store

import (
	"strings"
)

const (
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"

	defaultJournalSizeLimit = 64 << 20
)

// Config selects and locates the backing database.
type Config struct {
	Driver string
	// Path is the database file for the sqlite driver.
	Path string
	// DSN is the connection string for the postgres driver.
	DSN string
	// JournalSizeLimit caps the sqlite write-ahead log, in bytes.
	JournalSizeLimit int64
}

// SqliteConfig returns a sqlite configuration for the file at path.
func SqliteConfig(path string) Config {
	cfg := Config{Driver: DriverSqlite, Path: path}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = DriverSqlite
	}
	if c.JournalSizeLimit <= 0 {
		c.JournalSizeLimit = defaultJournalSizeLimit
	}
}

func (c Config) String() string {
	if c.Driver == DriverPostgres {
		return "postgres"
	}
	return c.Path
}
