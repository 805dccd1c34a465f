// ABOUTME: SQLite-based cache implementation for persistent caching
// ABOUTME: Keeps feed state and other small blobs across restarts in a single file

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	coreerrors "digests-refresher/core/errors"
	"digests-refresher/core/interfaces"
	"digests-refresher/infrastructure/sqlbuilder"
	_ "github.com/mattn/go-sqlite3"
)

const table = "cache"

// noExpiry marks entries stored with a zero TTL
const noExpiry = math.MaxInt64

var (
	getQuery = sqlbuilder.New().
			Select("value").
			From(table).
			Where("key", "=", nil).
			Where("expiry", ">", nil).
			MustBuild()
	setQuery = sqlbuilder.New().
			InsertOrReplace(table).
			Values([]string{"key", "value", "expiry"}, []interface{}{nil, nil, nil}).
			MustBuild()
	deleteQuery  = sqlbuilder.New().Delete(table).Where("key", "=", nil).MustBuild()
	cleanupQuery = sqlbuilder.New().Delete(table).Where("expiry", "<=", nil).MustBuild()
)

// Client implements the Cache interface using SQLite
type Client struct {
	db       *sql.DB
	filePath string
	logger   interfaces.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// NewSQLiteCache creates a new SQLite cache client. logger may be nil.
func NewSQLiteCache(filePath string, logger interfaces.Logger) (*Client, error) {
	if filePath == "" {
		filePath = "cache.db"
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	client := &Client{
		db:       db,
		filePath: filePath,
		logger:   logger,
		stop:     make(chan struct{}),
	}

	if err := client.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	go client.cleanupRoutine(5 * time.Minute)

	return client, nil
}

// initSchema creates the cache table if it doesn't exist
func (c *Client) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS cache (
			key TEXT PRIMARY KEY,
			value BLOB NOT NULL,
			expiry INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_expiry ON cache(expiry);
	`

	_, err := c.db.Exec(query)
	return err
}

// Get retrieves a value from the cache
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if err := sqlbuilder.ValidateKey(key, c.warner()); err != nil {
		return nil, &coreerrors.ValidationError{Field: "key", Message: err.Error()}
	}

	var value []byte
	err := c.db.QueryRowContext(ctx, getQuery, key, time.Now().Unix()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &coreerrors.NotFoundError{Resource: "cache key", ID: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value: %w", err)
	}

	return value, nil
}

// Set stores a value in the cache with TTL; a zero TTL never expires
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := sqlbuilder.ValidateKey(key, c.warner()); err != nil {
		return &coreerrors.ValidationError{Field: "key", Message: err.Error()}
	}
	if err := sqlbuilder.ValidateValue(value); err != nil {
		return &coreerrors.ValidationError{Field: "value", Message: err.Error()}
	}

	expiry := int64(noExpiry)
	if ttl > 0 {
		expiry = time.Now().Add(ttl).Unix()
	}

	if _, err := c.db.ExecContext(ctx, setQuery, key, value, expiry); err != nil {
		return fmt.Errorf("failed to set value: %w", err)
	}
	return nil
}

// Delete removes a value from the cache
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := sqlbuilder.ValidateKey(key, c.warner()); err != nil {
		return &coreerrors.ValidationError{Field: "key", Message: err.Error()}
	}

	if _, err := c.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("failed to delete value: %w", err)
	}
	return nil
}

// cleanupRoutine periodically removes expired entries until Close
func (c *Client) cleanupRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

// cleanup removes expired entries
func (c *Client) cleanup() {
	res, err := c.db.Exec(cleanupQuery, time.Now().Unix())
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("SQLite cache cleanup failed", map[string]interface{}{"error": err.Error()})
		}
		return
	}
	if n, _ := res.RowsAffected(); n > 0 && c.logger != nil {
		c.logger.Debug("SQLite cache cleanup", map[string]interface{}{"removed": n})
	}
}

// Close stops the cleanup routine and closes the database connection
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		err = c.db.Close()
	})
	return err
}

// Stats returns cache statistics
func (c *Client) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var count int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_entries"] = count

	var expired int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cache WHERE expiry <= ?", time.Now().Unix()).Scan(&expired); err != nil {
		return nil, err
	}
	stats["expired_entries"] = expired
	stats["file_path"] = c.filePath

	return stats, nil
}

// warner returns the logger as a sqlbuilder.Logger, or nil
func (c *Client) warner() sqlbuilder.Logger {
	if c.logger == nil {
		return nil
	}
	return c.logger
}
