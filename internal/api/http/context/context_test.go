package context

import (
	stdctx "context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/classfolio/classfolio-server/internal/model"
)

func TestManager_SetAndGetUser(t *testing.T) {
	m := NewManager()
	user := model.User{ID: uuid.New(), Username: "alice"}

	ctx := m.SetUserToContext(stdctx.Background(), user)

	got, ok := m.GetUserFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, got)
}

func TestManager_GetUser_NotFound(t *testing.T) {
	m := NewManager()
	_, ok := m.GetUserFromContext(stdctx.Background())
	assert.False(t, ok)
}
