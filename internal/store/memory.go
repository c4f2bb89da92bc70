package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/sigil/internal/interp"
)

// LoadMemory reads the persisted snapshot into a fresh Memory bounded
// to maxEntries. Persisted TTLs are restored as-is; an entry whose TTL
// already lapsed in a previous run was never saved, so no expiry
// arithmetic happens here.
func (s *Store) LoadMemory(ctx context.Context, maxEntries int, now func() time.Time) (*interp.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, ttl_seconds
		FROM memory_entries
		ORDER BY key
	`)
	if err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}
	defer rows.Close()

	mem := interp.NewMemoryAt(maxEntries, now)
	for rows.Next() {
		var (
			key   string
			value string
			ttl   sql.NullFloat64
		)
		if err := rows.Scan(&key, &value, &ttl); err != nil {
			return nil, fmt.Errorf("load memory: %w", err)
		}

		v, err := interp.UnmarshalValue([]byte(value))
		if err != nil {
			return nil, fmt.Errorf("load memory: decode %q: %w", key, err)
		}

		if ttl.Valid {
			mem.SetTTL(key, v, ttl.Float64)
		} else {
			mem.Set(key, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load memory: %w", err)
	}

	return mem, nil
}

// SaveMemory replaces the persisted snapshot with the store's current
// contents in one transaction. Expired entries are dropped by the
// Memory read path before they reach the database.
func (s *Store) SaveMemory(ctx context.Context, mem *interp.Memory) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_entries`); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO memory_entries (key, value, ttl_seconds)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	defer stmt.Close()

	for _, key := range mem.Keys() {
		v, ok := mem.Get(key)
		if !ok {
			continue
		}

		data, err := interp.MarshalValue(v)
		if err != nil {
			return fmt.Errorf("save memory: encode %q: %w", key, err)
		}

		var ttl any
		if seconds := mem.TTL(key); seconds > 0 {
			ttl = seconds
		}
		if _, err := stmt.ExecContext(ctx, key, string(data), ttl); err != nil {
			return fmt.Errorf("save memory: write %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save memory: %w", err)
	}
	return nil
}
