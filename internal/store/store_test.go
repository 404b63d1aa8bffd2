package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndQuery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "sess-1", EventSessionStarted, map[string]any{"lesson_ref": "2d-shapes-intro"}))
	require.NoError(t, s.Record(ctx, "sess-1", EventTabSelected, map[string]any{"tab": "quiz"}))
	require.NoError(t, s.Record(ctx, "sess-2", EventSessionStarted, nil))

	events, err := s.Events(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventSessionStarted, events[0].Type)
	assert.Equal(t, EventTabSelected, events[1].Type)
	assert.JSONEq(t, `{"tab":"quiz"}`, string(events[1].Payload))
	assert.False(t, events[0].CreatedAt.IsZero())
}

func TestStore_NilPayloadStoresEmptyObject(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, "sess-1", EventPaused, nil))

	events, err := s.Events(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.JSONEq(t, `{}`, string(events[0].Payload))
}

func TestStore_CountByType(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, s.Record(ctx, "sess-1", EventChatMessage, nil))
	}
	require.NoError(t, s.Record(ctx, "sess-1", EventPaused, nil))

	n, err := s.CountByType(ctx, "sess-1", EventChatMessage)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
