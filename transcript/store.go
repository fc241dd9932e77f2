// Package transcript persists dialogue runs as an append-only log of
// entries. Entries are write-once: the store exposes no update or delete.
package transcript

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Kind classifies an entry within a run.
type Kind string

const (
	KindTopic          Kind = "topic"           // seed of a round-robin discussion
	KindTask           Kind = "task"            // seed of a partitioned task
	KindResponse       Kind = "response"        // discussion-round response
	KindAspectResponse Kind = "aspect_response" // response to an assigned aspect
	KindFinalResponse  Kind = "final_response"  // synthesis response
)

// SpeakerSystem is the speaker recorded for seed entries.
const SpeakerSystem = "system"

// Entry is one message in a run. RunName and SequenceNumber are assigned by
// the store on append; sequence numbers form a gapless 0-based range per run.
type Entry struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RunName        string    `gorm:"size:255;not null;uniqueIndex:idx_run_seq,priority:1;index:idx_run" json:"run_name"`
	CreatedAt      time.Time `json:"created_at"`
	Speaker        string    `gorm:"size:64;not null" json:"speaker"`
	Kind           Kind      `gorm:"size:32;not null" json:"kind"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Aspect         string    `gorm:"size:255" json:"aspect,omitempty"`
	SequenceNumber int       `gorm:"not null;uniqueIndex:idx_run_seq,priority:2" json:"sequence_number"`
}

// TableName keeps the historical table name.
func (Entry) TableName() string { return "model_dialogues" }

// RunInfo identifies a run for the recent-runs query.
type RunInfo struct {
	RunName   string    `json:"run_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the append-only transcript store. Any gorm dialect works; the CLI
// and tests use sqlite.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a Store and migrates its schema.
func NewStore(db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate transcript schema: %w", err)
	}
	return &Store{
		db:     db,
		logger: logger.With(zap.String("component", "transcript_store")),
	}, nil
}

// Append stores the given entries under runName, assigning sequence numbers
// starting after the run's current maximum (0 if the run is new). The whole
// call is one transaction: either every entry is stored or none is.
func (s *Store) Append(ctx context.Context, runName string, entries ...Entry) error {
	if runName == "" {
		return fmt.Errorf("run name cannot be empty")
	}
	if len(entries) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int
		row := tx.Model(&Entry{}).
			Where("run_name = ?", runName).
			Select("COALESCE(MAX(sequence_number), -1)").
			Row()
		if err := row.Scan(&maxSeq); err != nil {
			return fmt.Errorf("failed to read max sequence number: %w", err)
		}

		for i := range entries {
			entries[i].ID = 0
			entries[i].RunName = runName
			entries[i].SequenceNumber = maxSeq + 1 + i
		}
		if err := tx.Create(&entries).Error; err != nil {
			return fmt.Errorf("failed to append entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("entries appended",
		zap.String("run", runName),
		zap.Int("count", len(entries)),
		zap.Int("last_seq", entries[len(entries)-1].SequenceNumber),
	)
	return nil
}

// List returns all entries of a run ordered by sequence number. The result
// is stable across calls: the store is read-only after append.
func (s *Store) List(ctx context.Context, runName string) ([]Entry, error) {
	var entries []Entry
	err := s.db.WithContext(ctx).
		Where("run_name = ?", runName).
		Order("sequence_number ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list run %s: %w", runName, err)
	}
	return entries, nil
}

// RecentRuns returns up to limit distinct runs, most recently created first.
// A run's creation time is the time of its earliest entry.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunInfo, error) {
	if limit <= 0 {
		return nil, nil
	}
	// A run's first entry has sequence number 0, so selecting those rows
	// yields each run exactly once with its creation time.
	var runs []RunInfo
	err := s.db.WithContext(ctx).
		Model(&Entry{}).
		Select("run_name, created_at").
		Where("sequence_number = ?", 0).
		Order("created_at DESC").
		Limit(limit).
		Scan(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	return runs, nil
}
