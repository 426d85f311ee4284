package thumbcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-browser/internal/logging"
	"media-browser/internal/media"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// SQLiteStore keeps encoded thumbnails in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the database file at dbPath. The parent
// directory must already exist and be writable.
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	logging.Info("Thumbnail database path: %s", dbPath)

	// busy_timeout helps prevent "database is locked" errors when several
	// extractions finish together
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close database after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logging.Info("Thumbnail database initialized successfully at %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS thumbnails (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Backend implements Store.
func (s *SQLiteStore) Backend() string { return "sqlite" }

// Load implements Store.
func (s *SQLiteStore) Load(key string) (image.Image, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM thumbnails WHERE key = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query thumbnail: %w", err)
	}

	img, err := media.DecodeBytes(data)
	if err != nil {
		return nil, false, err
	}
	return img, true, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(key string, img image.Image) error {
	data, err := media.EncodeJPEG(img)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thumbnails (key, data, created_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, created_at = excluded.created_at
	`, key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to store thumbnail: %w", err)
	}
	return nil
}

// Count returns the number of stored thumbnails.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM thumbnails`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count thumbnails: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
