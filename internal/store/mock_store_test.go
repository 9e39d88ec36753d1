package store

import (
	"context"
	"testing"
	"time"

	"example.com/postapi/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ StoreInterface = (*Store)(nil)
	_ StoreInterface = (*MockStore)(nil)
	_ StoreInterface = (*MockStoreFail)(nil)
)

func TestMockStore_UsernameUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMock()

	id, err := m.CreateUser(ctx, "almaz", []byte("h"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = m.CreateUser(ctx, "almaz", []byte("h2"))
	assert.ErrorIs(t, err, ErrConflict)

	u, err := m.GetUserByUsername(ctx, "almaz")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
}

func TestMockStore_DeletePostIsOwnerConditional(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	require.NoError(t, m.AddPost(ctx, models.Post{ID: "p1", OwnerID: "u1"}))

	assert.ErrorIs(t, m.DeletePost(ctx, "p1", "u2"), ErrNotApplied)
	require.NoError(t, m.DeletePost(ctx, "p1", "u1"))

	_, err := m.GetPost(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_DeleteUserKeepsReclaimedUsername(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	id, err := m.CreateUser(ctx, "nur", nil)
	require.NoError(t, err)
	u, err := m.GetUserByID(ctx, id)
	require.NoError(t, err)

	require.NoError(t, m.DeleteUser(ctx, u))
	assert.ErrorIs(t, m.DeleteUser(ctx, u), ErrNotApplied)

	_, err = m.GetUserByUsername(ctx, "nur")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockStore_ActivityNewestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMock()
	base := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, m.RecordActivity(ctx, models.Event{
			Type: models.EventPostCreated, UserID: "u1", At: base.Add(time.Duration(i) * time.Second),
		}))
	}

	events, err := m.GetActivity(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].At.After(events[1].At))
}
