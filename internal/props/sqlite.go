package props

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore backs the property store with a single-file SQLite database.
// The quota is enforced here rather than by the schema so that the same
// limit applies regardless of how the file was created.
type SQLiteStore struct {
	sql   *sql.DB
	quota int
}

// OpenSQLite opens (creating if needed) the property database at path with
// the given slot quota.
func OpenSQLite(path string, quota int) (*SQLiteStore, error) {
	if quota <= 0 {
		return nil, errors.New("props: quota must be positive")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS properties (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
	`); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{sql: db, quota: quota}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sql == nil {
		return nil
	}
	return s.sql.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.sql.QueryRowContext(ctx, "SELECT value FROM properties WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	tx, err := s.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties WHERE key = ?", key).Scan(&exists)
	if err != nil {
		return err
	}
	if exists == 0 {
		var total int
		err = tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&total)
		if err != nil {
			return err
		}
		if total >= s.quota {
			err = ErrQuotaExceeded
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
INSERT INTO properties (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.sql.ExecContext(ctx, "DELETE FROM properties WHERE key = ?", key)
	return err
}

func (s *SQLiteStore) List(ctx context.Context) (map[string]string, error) {
	rows, err := s.sql.QueryContext(ctx, "SELECT key, value FROM properties")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.sql.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&n)
	return n, err
}
