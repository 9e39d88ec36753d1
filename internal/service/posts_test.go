package service

import (
	"context"
	"testing"

	"example.com/postapi/internal/apperr"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	owner    = models.User{ID: "user_1", Username: "almaz"}
	stranger = models.User{ID: "user_2", Username: "nur"}
)

func TestPosts_CreateSetsOwnerFromIdentity(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	pub := &recordingPublisher{}
	p := NewPosts(st, pub, logger.Discard())

	post, err := p.CreatePost(ctx, owner, "sunset", "https://cdn.example/1.jpg", "2024-05-01")
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, owner.ID, post.OwnerID)
	assert.Equal(t, "sunset", post.Caption)
	assert.Equal(t, "https://cdn.example/1.jpg", post.PostURL)
	assert.Equal(t, "2024-05-01", post.Created)
	assert.Equal(t, post, st.Posts[post.ID])
	assert.Equal(t, []models.EventType{models.EventPostCreated}, pub.types())
}

func TestPosts_CreateRequiresAllFields(t *testing.T) {
	st := store.NewMock()
	p := NewPosts(st, nil, logger.Discard())

	for _, c := range [][3]string{
		{"", "url", "created"},
		{"caption", "", "created"},
		{"caption", "url", ""},
	} {
		_, err := p.CreatePost(context.Background(), owner, c[0], c[1], c[2])
		assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))
	}
	assert.Zero(t, st.Calls)
}

func TestPosts_CreateStoreFailure(t *testing.T) {
	p := NewPosts(&store.MockStoreFail{}, nil, logger.Discard())

	_, err := p.CreatePost(context.Background(), owner, "c", "u", "d")
	assert.Equal(t, apperr.StoreUnavailable, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "add post")
}

func TestPosts_DeleteOwnership(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	pub := &recordingPublisher{}
	p := NewPosts(st, pub, logger.Discard())

	post, err := p.CreatePost(ctx, owner, "c", "u", "d")
	require.NoError(t, err)

	err = p.DeletePost(ctx, stranger, post.ID)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))
	assert.Contains(t, st.Posts, post.ID)

	require.NoError(t, p.DeletePost(ctx, owner, post.ID))
	_, err = st.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, []models.EventType{models.EventPostCreated, models.EventPostDeleted}, pub.types())
}

func TestPosts_DeleteNotFound(t *testing.T) {
	p := NewPosts(store.NewMock(), nil, logger.Discard())

	for _, id := range []string{"missing", ""} {
		err := p.DeletePost(context.Background(), owner, id)
		assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
	}
}

func TestPosts_DeleteNotApplied(t *testing.T) {
	ctx := context.Background()
	st := store.NewMock()
	p := NewPosts(st, nil, logger.Discard())
	post, err := p.CreatePost(ctx, owner, "c", "u", "d")
	require.NoError(t, err)

	st.DeleteNotApplied = true
	err = p.DeletePost(ctx, owner, post.ID)
	assert.Equal(t, apperr.DeleteFailed, apperr.KindOf(err))
}

func TestPosts_DeleteStoreFailure(t *testing.T) {
	p := NewPosts(&store.MockStoreFail{}, nil, logger.Discard())

	err := p.DeletePost(context.Background(), owner, "p1")
	assert.Equal(t, apperr.StoreUnavailable, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "load post")
}
