// Package journal persists confirmed submissions to a local SQLite database
// so history survives process restarts.
package journal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"movelend/engine"
)

// Record is one confirmed submission. Amounts are stored as decimal strings
// in raw units; SQLite has no integer wide enough for them.
type Record struct {
	ID            uint   `gorm:"primaryKey"`
	Operation     string `gorm:"index"`
	Broker        string
	Symbol        string
	Sender        string `gorm:"index"`
	UnderlyingRaw string
	TicketRaw     string
	TxHash        string `gorm:"uniqueIndex"`
	GasUsed       uint64
	VMStatus      string
	CreatedAt     time.Time
}

// Journal is an append-only store of confirmed submissions.
type Journal struct {
	db *gorm.DB
}

// Open creates or opens the database at path and migrates the schema.
func Open(path string) (*Journal, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	db, err := gorm.Open(sqlite.Open(trimmed), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", trimmed, err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	return &Journal{db: db}, nil
}

// Append stores one record. Duplicate transaction hashes are rejected by the
// unique index.
func (j *Journal) Append(ctx context.Context, rec *Record) error {
	if err := j.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("append journal record: %w", err)
	}
	return nil
}

// BySender lists the sender's submissions, newest first. A non-positive limit
// returns everything.
func (j *Journal) BySender(ctx context.Context, sender string, limit int) ([]Record, error) {
	query := j.db.WithContext(ctx).
		Where("sender = ?", strings.TrimSpace(sender)).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var out []Record
	if err := query.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list journal records for %s: %w", sender, err)
	}
	return out, nil
}

// RecordSubmission satisfies the pipeline's recorder hook.
func (j *Journal) RecordSubmission(ctx context.Context, rec engine.SubmissionRecord) error {
	return j.Append(ctx, &Record{
		Operation:     rec.Operation,
		Broker:        rec.Broker,
		Symbol:        rec.Symbol,
		Sender:        rec.Sender,
		UnderlyingRaw: rec.UnderlyingRaw,
		TicketRaw:     rec.TicketRaw,
		TxHash:        rec.TxHash,
		GasUsed:       rec.GasUsed,
		VMStatus:      rec.VMStatus,
	})
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
