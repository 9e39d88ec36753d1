package service

import (
	"context"
	"time"

	"example.com/postapi/internal/apperr"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/store"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Posts implements post creation and owner-only deletion.
type Posts struct {
	store  store.StoreInterface
	events EventPublisher
	log    *logger.Logger
	now    func() time.Time
}

func NewPosts(st store.StoreInterface, events EventPublisher, log *logger.Logger) *Posts {
	return &Posts{store: st, events: events, log: log, now: time.Now}
}

// CreatePost stores a post owned by user. The owner never comes from client input.
func (p *Posts) CreatePost(ctx context.Context, user models.User, caption, postURL, created string) (models.Post, error) {
	if caption == "" || postURL == "" || created == "" {
		return models.Post{}, apperr.New(apperr.InvalidInput, "Missing required fields")
	}

	post := models.Post{
		ID:        uuid.NewString(),
		OwnerID:   user.ID,
		Caption:   caption,
		PostURL:   postURL,
		Created:   created,
		CreatedAt: p.now().UTC(),
	}

	if err := p.store.AddPost(ctx, post); err != nil {
		return models.Post{}, storeErr(err, "add post")
	}

	p.log.Info("service/posts", "Post created by user_id="+user.ID)
	p.publish(ctx, models.Event{Type: models.EventPostCreated, UserID: user.ID, PostID: post.ID})
	return post, nil
}

// DeletePost removes a post if and only if user owns it.
func (p *Posts) DeletePost(ctx context.Context, user models.User, postID string) error {
	if postID == "" {
		return apperr.New(apperr.NotFound, "No Posts Found!")
	}

	post, err := p.store.GetPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.NotFound, "No Posts Found!")
	}
	if err != nil {
		return storeErr(err, "load post")
	}

	if post.OwnerID != user.ID {
		p.log.Info("service/posts", "Rejected delete of foreign post by user_id="+user.ID)
		return apperr.New(apperr.Forbidden, "Unauthorized action!")
	}

	// The store re-checks ownership atomically, so a concurrent delete or
	// ownership change between the read above and this write is caught here.
	err = p.store.DeletePost(ctx, post.ID, user.ID)
	if errors.Is(err, store.ErrNotApplied) {
		return apperr.New(apperr.DeleteFailed, "Post could not be deleted!")
	}
	if err != nil {
		return storeErr(err, "delete post")
	}

	p.log.Info("service/posts", "Post deleted by user_id="+user.ID)
	p.publish(ctx, models.Event{Type: models.EventPostDeleted, UserID: user.ID, PostID: post.ID})
	return nil
}

func (p *Posts) publish(ctx context.Context, event models.Event) {
	if p.events != nil {
		p.events.Publish(ctx, event)
	}
}
