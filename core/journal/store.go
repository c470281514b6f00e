// Package journal keeps a per-message record of every OCPP frame a sweep
// handed to the publish channel.
package journal

import (
	"context"
	"time"

	"github.com/kilianp07/cpsim/core/model"
)

// Record captures the outcome of one publish.
type Record struct {
	Timestamp time.Time         `json:"timestamp"`
	Tag       string            `json:"tag"`
	Seq       int               `json:"seq"`
	Type      model.MessageType `json:"type"`
	OK        bool              `json:"ok"`
	Error     string            `json:"error,omitempty"`
}

// Query defines filters for retrieving records. Zero fields match everything.
type Query struct {
	Start      time.Time
	End        time.Time
	Tag        string
	Type       model.MessageType
	FailedOnly bool
}

// Match reports whether r passes every filter of q.
func (q Query) Match(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Tag != "" && r.Tag != q.Tag {
		return false
	}
	if q.Type != "" && r.Type != q.Type {
		return false
	}
	return !q.FailedOnly || !r.OK
}

// Store persists Records and supports querying.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
