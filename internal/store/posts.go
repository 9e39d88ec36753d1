package store

import (
	"context"

	"example.com/postapi/internal/models"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

// --- Post operations ---

func (s *Store) AddPost(ctx context.Context, post models.Post) error {
	if err := s.Session.Query(`
		INSERT INTO posts (post_id, owner_id, caption, post_url, created, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		post.ID, post.OwnerID, post.Caption, post.PostURL, post.Created, post.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		s.log.Error("store", "Failed to add post", err)
		return errors.Wrap(err, "insert post")
	}

	s.log.Info("store", "Post added to posts table (post content anonymized)")
	return nil
}

// GetPost loads a post by id. Returns ErrNotFound if it does not exist.
func (s *Store) GetPost(ctx context.Context, postID string) (models.Post, error) {
	var p models.Post
	err := s.Session.Query(`
		SELECT post_id, owner_id, caption, post_url, created, created_at
		FROM posts WHERE post_id = ?`,
		postID,
	).WithContext(ctx).Scan(&p.ID, &p.OwnerID, &p.Caption, &p.PostURL, &p.Created, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return models.Post{}, ErrNotFound
		}
		s.log.Error("store", "Failed to query post", err)
		return models.Post{}, errors.Wrap(err, "get post")
	}
	return p, nil
}

// DeletePost deletes the post only if it is still owned by ownerID.
// Returns ErrNotApplied when no row matched the condition.
func (s *Store) DeletePost(ctx context.Context, postID, ownerID string) error {
	result := make(map[string]interface{})
	applied, err := s.Session.Query(
		`DELETE FROM posts WHERE post_id = ? IF owner_id = ?`,
		postID, ownerID,
	).WithContext(ctx).MapScanCAS(result)
	if err != nil {
		s.log.Error("store", "Failed to delete post", err)
		return errors.Wrap(err, "delete post")
	}
	if !applied {
		return ErrNotApplied
	}

	s.log.Info("store", "Post deleted (post ID anonymized)")
	return nil
}
