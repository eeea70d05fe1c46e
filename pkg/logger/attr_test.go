package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authkit/pkg/logger"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestIdentifierAttrs(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	assert.Equal(t, "role_id", logger.RoleID(id).Key)
	assert.Equal(t, id.String(), logger.RoleID(id).Value.String())
	assert.Equal(t, "principal_id", logger.PrincipalID(id).Key)
	assert.Equal(t, "actor_id", logger.ActorID(id).Key)
	assert.Equal(t, "organization_id", logger.OrganizationID(&id).Key)
	assert.True(t, logger.OrganizationID(nil).Equal(slog.Attr{}))
}

func TestRequestAttrs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "203.0.113.7", logger.ClientIP("203.0.113.7").Value.String())
	assert.True(t, logger.ClientIP("").Equal(slog.Attr{}))
	assert.Equal(t, "path", logger.Path("/api").Key)
	assert.Equal(t, "method", logger.Method("POST").Key)
	assert.Equal(t, int64(3), logger.Count(3).Value.Int64())
	assert.Equal(t, "csrf", logger.Component("csrf").Value.String())
	assert.Equal(t, "role.created", logger.Event("role.created").Value.String())
	assert.Equal(t, "ROLE_USER", logger.RoleName("ROLE_USER").Value.String())
}
