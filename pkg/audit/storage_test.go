package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/audit"
)

func TestMemoryStorage_Query(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := audit.NewMemoryStorage()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, storage.StoreBatch(ctx, []audit.Event{
		{ID: "1", Action: audit.ActionRoleCreated, ActorID: "a", ResourceID: "r1", Result: audit.ResultSuccess, CreatedAt: base},
		{ID: "2", Action: audit.ActionRoleDeleted, ActorID: "a", ResourceID: "r1", Result: audit.ResultSuccess, CreatedAt: base.Add(time.Hour)},
		{ID: "3", Action: audit.ActionCSRFRejected, Result: audit.ResultFailure, CreatedAt: base.Add(2 * time.Hour)},
	}))
	require.NoError(t, storage.Store(ctx, audit.Event{ID: "4", Action: audit.ActionRoleCreated, ActorID: "b", Result: audit.ResultSuccess, CreatedAt: base.Add(3 * time.Hour)}))

	ids := func(events []audit.Event) []string {
		out := make([]string, 0, len(events))
		for _, e := range events {
			out = append(out, e.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		criteria audit.Criteria
		want     []string
	}{
		{name: "all", want: []string{"1", "2", "3", "4"}},
		{name: "by action", criteria: audit.Criteria{Action: audit.ActionRoleCreated}, want: []string{"1", "4"}},
		{name: "by actor", criteria: audit.Criteria{ActorID: "a"}, want: []string{"1", "2"}},
		{name: "by resource", criteria: audit.Criteria{ResourceID: "r1"}, want: []string{"1", "2"}},
		{name: "by result", criteria: audit.Criteria{Result: audit.ResultFailure}, want: []string{"3"}},
		{name: "since", criteria: audit.Criteria{Since: base.Add(2 * time.Hour)}, want: []string{"3", "4"}},
		{name: "limit", criteria: audit.Criteria{Limit: 2}, want: []string{"1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := storage.Query(ctx, tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestSlogStorage(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	storage := audit.NewSlogStorage(slog.New(slog.NewJSONHandler(buf, nil)))

	err := storage.Store(context.Background(), audit.Event{
		ID:       "evt-1",
		Action:   audit.ActionCSRFRateLimited,
		Result:   audit.ResultFailure,
		IP:       "203.0.113.7",
		Metadata: map[string]any{"retry_after": 300},
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "audit", entry["msg"])
	assert.Equal(t, audit.ActionCSRFRateLimited, entry["action"])
	assert.Equal(t, "203.0.113.7", entry["client_ip"])
	assert.NotContains(t, entry, "actor_id")
	meta, ok := entry["metadata"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 300, meta["retry_after"])
}

type mockBatchStorage struct {
	mock.Mock
	mu      sync.Mutex
	batches [][]audit.Event
}

func (m *mockBatchStorage) Store(ctx context.Context, event audit.Event) error {
	return m.StoreBatch(ctx, []audit.Event{event})
}

func (m *mockBatchStorage) StoreBatch(ctx context.Context, events []audit.Event) error {
	m.mu.Lock()
	m.batches = append(m.batches, append([]audit.Event(nil), events...))
	m.mu.Unlock()
	args := m.Called(ctx, len(events))
	return args.Error(0)
}

func (m *mockBatchStorage) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.batches {
		n += len(b)
	}
	return n
}

func TestAsyncStorage_BatchesConcurrentWrites(t *testing.T) {
	t.Parallel()

	bs := &mockBatchStorage{}
	bs.On("StoreBatch", mock.Anything, mock.Anything).Return(nil)

	storage := audit.NewAsyncStorage(bs, audit.AsyncOptions{BatchSize: 10, BatchTimeout: 20 * time.Millisecond})
	log := audit.NewLogger(storage)

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, log.Log(context.Background(), audit.ActionRoleUpdated))
		}()
	}
	wg.Wait()

	require.NoError(t, storage.Close(context.Background()))
	assert.Equal(t, 25, bs.total())
	assert.Less(t, len(bs.batches), 25, "events share batches")
}

func TestAsyncStorage_PropagatesErrors(t *testing.T) {
	t.Parallel()

	bs := &mockBatchStorage{}
	bs.On("StoreBatch", mock.Anything, mock.Anything).Return(assert.AnError)

	storage := audit.NewAsyncStorage(bs, audit.AsyncOptions{BatchTimeout: 5 * time.Millisecond})
	t.Cleanup(func() { _ = storage.Close(context.Background()) })

	err := storage.Store(context.Background(), audit.Event{Action: audit.ActionRoleCreated, Result: audit.ResultSuccess})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestAsyncStorage_RejectsAfterClose(t *testing.T) {
	t.Parallel()

	bs := &mockBatchStorage{}
	storage := audit.NewAsyncStorage(bs, audit.AsyncOptions{})
	require.NoError(t, storage.Close(context.Background()))
	require.NoError(t, storage.Close(context.Background()))

	err := storage.Store(context.Background(), audit.Event{Action: audit.ActionRoleCreated, Result: audit.ResultSuccess})
	assert.ErrorIs(t, err, audit.ErrStorageNotAvailable)
	bs.AssertNotCalled(t, "StoreBatch", mock.Anything, mock.Anything)
}

func TestAsyncStorage_PanicsWithoutStorage(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { audit.NewAsyncStorage(nil, audit.AsyncOptions{}) })
}
