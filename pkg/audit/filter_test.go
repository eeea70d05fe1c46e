package audit_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/audit"
)

func TestMetadataFilter_Defaults(t *testing.T) {
	t.Parallel()

	sum := sha256.Sum256([]byte("ops@example.com"))

	in := map[string]any{
		"reason":        "mismatch",
		"retry_after":   300,
		"token":         "7f3a",
		"CSRF_Token":    "7f3a",
		"refresh_token": "r1",
		"api_key":       "sk_live_abc",
		"Authorization": "Bearer x",
		"client_secret": "s",
		"old_password":  "hunter2",
		"email":         "ops@example.com",
		"phone":         "+1 555 0100",
	}
	out := audit.NewMetadataFilter().Filter(in)

	assert.Equal(t, map[string]any{
		"reason":      "mismatch",
		"retry_after": 300,
		"email":       hex.EncodeToString(sum[:]),
		"phone":       "+1*******00",
	}, out)
	assert.Len(t, in, 11, "input must not be modified")
}

func TestMetadataFilter_Options(t *testing.T) {
	t.Parallel()

	f := audit.NewMetadataFilter(
		audit.WithAllowedField("token"),
		audit.WithFilteredField("role_*", audit.FilterActionMask),
		audit.WithFilteredField("reason", audit.FilterActionRemove),
	)
	out := f.Filter(map[string]any{
		"token":    "t",
		"role_ids": "12345678",
		"role":     "abcd",
		"reason":   "missing",
	})
	assert.Equal(t, map[string]any{
		"token":    "t",
		"role_ids": "1******8",
		"role":     "abcd",
	}, out)

	bare := audit.NewMetadataFilter(audit.WithoutDefaultRules())
	assert.Equal(t, map[string]any{"token": "t"}, bare.Filter(map[string]any{"token": "t"}))
	assert.Nil(t, bare.Filter(nil))
}

func TestLogger_WithMetadataFilter(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	log := audit.NewLogger(storage, audit.WithMetadataFilter(audit.NewMetadataFilter()))

	err := log.LogFailure(context.Background(), audit.ActionCSRFRejected, assert.AnError,
		audit.WithResource("route", "POST /api/roles"),
		audit.WithMetadata("reason", "mismatch"),
		audit.WithMetadata("csrf_token", "2b7e151628aed2a6abf7158809cf4f3c"),
		audit.WithMetadata("api_key", "sk_live_abc"),
	)
	require.NoError(t, err)

	events := storage.Events()
	require.Len(t, events, 1)
	assert.Equal(t, map[string]any{"reason": "mismatch"}, events[0].Metadata)
}

func TestLogger_WithHasher(t *testing.T) {
	t.Parallel()

	storage := audit.NewMemoryStorage()
	fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	hasher := audit.NewSHA256Hasher()
	log := audit.NewLogger(storage,
		audit.WithHasher(hasher),
		audit.WithClock(func() time.Time { return fixed }),
	)

	require.NoError(t, log.Log(context.Background(), audit.ActionRoleDeleted,
		audit.WithResource("role", "r1"),
		audit.WithMetadata("name", "ROLE_EDITOR"),
	))

	events := storage.Events()
	require.Len(t, events, 1)
	e := events[0]
	require.Len(t, e.Hash, 64)

	stored := e.Hash
	e.Hash = ""
	assert.Equal(t, stored, hasher.Hash(e))

	e.ResourceID = "r2"
	assert.NotEqual(t, stored, hasher.Hash(e))
}

func TestNewAsyncLogger(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	storage := audit.NewMemoryStorage()
	log, closeFn := audit.NewAsyncLogger(storage, audit.AsyncOptions{BatchTimeout: 10 * time.Millisecond})

	require.NoError(t, log.Log(ctx, audit.ActionRoleCreated))
	require.NoError(t, log.Log(ctx, audit.ActionRoleUpdated))
	require.NoError(t, closeFn(ctx))

	assert.Len(t, storage.Events(), 2)
	assert.ErrorIs(t, log.Log(ctx, audit.ActionRoleDeleted), audit.ErrStorageNotAvailable)
}
