package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/compliancehq/compliancebot/internal/models"
	"github.com/compliancehq/compliancebot/pkg/database"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS thread_records (
    thread_id  TEXT PRIMARY KEY,
    payload    TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);`

// SQLiteStore persists thread record sets in SQLite. Optional backend
// selected by store.driver=sqlite; it keeps the same last-writer-wins
// replace semantics as MemoryStore via an upsert on the thread key.
type SQLiteStore struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteStore creates the store and its schema.
func NewSQLiteStore(db *database.DB, logger *zap.Logger) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create thread_records table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Put upserts the thread's record set as a single JSON payload.
func (s *SQLiteStore) Put(ctx context.Context, threadID string, records []models.AuditRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO thread_records (thread_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		threadID, string(payload), time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to store thread records",
			zap.String("thread_id", threadID),
			zap.Error(err))
		return fmt.Errorf("failed to store records: %w", err)
	}

	s.logger.Debug("Stored thread records",
		zap.String("thread_id", threadID),
		zap.Int("count", len(records)))
	return nil
}

// Get loads and decodes the thread's record set.
func (s *SQLiteStore) Get(ctx context.Context, threadID string) ([]models.AuditRecord, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM thread_records WHERE thread_id = ?`, threadID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load records: %w", err)
	}

	var records []models.AuditRecord
	if err := json.Unmarshal([]byte(payload), &records); err != nil {
		return nil, false, fmt.Errorf("failed to decode records: %w", err)
	}
	return records, true, nil
}
