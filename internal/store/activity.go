package store

import (
	"context"
	"time"

	"example.com/postapi/internal/models"
	"github.com/pkg/errors"
)

// --- Activity operations ---

func (s *Store) RecordActivity(ctx context.Context, event models.Event) error {
	if err := s.Session.Query(`
		INSERT INTO activity_by_user (user_id, at, event_type, post_id)
		VALUES (?, ?, ?, ?)`,
		event.UserID, event.At, string(event.Type), event.PostID,
	).WithContext(ctx).Exec(); err != nil {
		s.log.Error("store", "Failed to record activity", err)
		return errors.Wrap(err, "insert activity")
	}
	return nil
}

// GetActivity returns the most recent events for a user, newest first.
func (s *Store) GetActivity(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	iter := s.Session.Query(`
		SELECT at, event_type, post_id
		FROM activity_by_user WHERE user_id = ? LIMIT ?`,
		userID, limit,
	).WithContext(ctx).Iter()

	var res []models.Event
	var at time.Time
	var typ, postID string

	for iter.Scan(&at, &typ, &postID) {
		res = append(res, models.Event{
			Type:   models.EventType(typ),
			UserID: userID,
			PostID: postID,
			At:     at,
		})
	}

	if err := iter.Close(); err != nil {
		s.log.Error("store", "Failed to retrieve user activity", err)
		return nil, errors.Wrap(err, "get activity")
	}
	return res, nil
}
