package journal

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/cpsim/core/model"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := Record{Timestamp: time.Now(), Tag: "cp_0", Type: model.MessageMeterValues, OK: true}
	for i := 0; i < 100; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(path + "*")
	if len(files) == 0 {
		t.Fatalf("expected journal files")
	}
	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 100)
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	recs := []Record{
		{Timestamp: base, Tag: "cp_0", Type: model.MessageAuthorize, OK: true},
		{Timestamp: base.Add(time.Second), Tag: "cp_1", Type: model.MessageAuthorize, OK: true},
		{Timestamp: base.Add(2 * time.Second), Tag: "cp_0", Type: model.MessageMeterValues, OK: false, Error: "publish failed"},
		{Timestamp: base.Add(3 * time.Second), Tag: "cp_0", Type: model.MessageStopTransaction, OK: true},
	}
	for _, r := range recs {
		require.NoError(t, store.Append(context.Background(), r))
	}

	tests := []struct {
		name string
		q    Query
		want int
	}{
		{"all", Query{}, 4},
		{"tag", Query{Tag: "cp_0"}, 3},
		{"type", Query{Type: model.MessageAuthorize}, 2},
		{"failed", Query{FailedOnly: true}, 1},
		{"window", Query{Start: base.Add(time.Second), End: base.Add(2 * time.Second)}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := store.Query(context.Background(), tt.q)
			require.NoError(t, err)
			assert.Len(t, out, tt.want)
		})
	}

	out, err := store.Query(context.Background(), Query{FailedOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "publish failed", out[0].Error)
}

func TestAppendHonoursContext(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"), 1, 1, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = store.Append(ctx, Record{})
	assert.True(t, errors.Is(err, context.Canceled))
}
