package journal

import (
	"database/sql"
	"time"
)

// DB exposes the internal *sql.DB for test helpers in journal_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetNow overrides the clock used for created_at.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}
