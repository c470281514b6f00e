package metrics

import (
	"context"
	"fmt"

	"github.com/kilianp07/cpsim/core/journal"
	coremetrics "github.com/kilianp07/cpsim/core/metrics"
)

// JournalConfig configures the message journal sink.
type JournalConfig struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

// SetDefaults applies defaults for unset fields.
func (c *JournalConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "journal.jsonl"
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 100
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 5
	}
	if c.MaxAgeDays <= 0 {
		c.MaxAgeDays = 30
	}
}

// JournalSink appends every publish outcome to a journal store.
type JournalSink struct {
	store journal.Store
}

// NewJournalSink wraps store.
func NewJournalSink(store journal.Store) *JournalSink {
	return &JournalSink{store: store}
}

// NewRotatingJournalSink opens a rotating JSONL journal.
func NewRotatingJournalSink(cfg JournalConfig) (*JournalSink, error) {
	cfg.SetDefaults()
	store, err := journal.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", cfg.Path, err)
	}
	return NewJournalSink(store), nil
}

// RecordMessage appends one record.
func (s *JournalSink) RecordMessage(rec coremetrics.MessageRecord) error {
	return s.store.Append(context.Background(), journal.Record{
		Timestamp: rec.Time,
		Tag:       rec.Tag,
		Seq:       rec.Seq,
		Type:      rec.Type,
		OK:        rec.OK,
		Error:     rec.Error,
	})
}

// Close closes the journal store.
func (s *JournalSink) Close() error { return s.store.Close() }
