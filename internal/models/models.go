package models

import "time"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Post struct {
	ID        string    `json:"postId"`
	OwnerID   string    `json:"uid"`
	Caption   string    `json:"caption"`
	PostURL   string    `json:"postUrl"`
	Created   string    `json:"created"`
	CreatedAt time.Time `json:"-"`
}

type EventType string

const (
	EventUserRegistered EventType = "user_registered"
	EventUserDeleted    EventType = "user_deleted"
	EventPostCreated    EventType = "post_created"
	EventPostDeleted    EventType = "post_deleted"
)

// Event is an account or post activity record published to Kafka.
type Event struct {
	Type   EventType `json:"type"`
	UserID string    `json:"user_id"`
	PostID string    `json:"post_id,omitempty"`
	At     time.Time `json:"at"`
}

func (t EventType) Valid() bool {
	switch t {
	case EventUserRegistered, EventUserDeleted, EventPostCreated, EventPostDeleted:
		return true
	}
	return false
}
