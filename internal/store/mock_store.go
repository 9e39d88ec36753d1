package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"example.com/postapi/internal/models"
)

// MockStore simulates Cassandra operations for testing.
type MockStore struct {
	mu        sync.Mutex
	counter   int
	Users     map[string]models.User
	Usernames map[string]string
	Posts     map[string]models.Post
	Activity  map[string][]models.Event

	ShouldFail       bool // flag to simulate failures
	DeleteNotApplied bool // simulate a conditional delete losing a race
	Calls            int  // number of store calls, to assert the store was not touched
}

// NewMock initializes a new mock store
func NewMock() *MockStore {
	return &MockStore{
		Users:     make(map[string]models.User),
		Usernames: make(map[string]string),
		Posts:     make(map[string]models.Post),
		Activity:  make(map[string][]models.Event),
	}
}

func (m *MockStore) Close() {}

func (m *MockStore) enter() {
	m.mu.Lock()
	m.Calls++
}

// CreateUser simulates creating a new user with a unique username
func (m *MockStore) CreateUser(_ context.Context, username string, passwordHash []byte) (string, error) {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return "", errors.New("mock: create user failed")
	}
	if _, taken := m.Usernames[username]; taken {
		return "", ErrConflict
	}
	m.counter++
	id := fmt.Sprintf("user_%d", m.counter)
	m.Users[id] = models.User{ID: id, Username: username, PasswordHash: passwordHash}
	m.Usernames[username] = id
	return id, nil
}

func (m *MockStore) GetUserByID(_ context.Context, userID string) (models.User, error) {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.User{}, errors.New("mock: get user failed")
	}
	u, ok := m.Users[userID]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (m *MockStore) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.User{}, errors.New("mock: get user by username failed")
	}
	id, ok := m.Usernames[username]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return m.Users[id], nil
}

func (m *MockStore) DeleteUser(_ context.Context, user models.User) error {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: delete user failed")
	}
	if _, ok := m.Users[user.ID]; !ok || m.DeleteNotApplied {
		return ErrNotApplied
	}
	delete(m.Users, user.ID)
	if m.Usernames[user.Username] == user.ID {
		delete(m.Usernames, user.Username)
	}
	return nil
}

// AddPost simulates adding a post
func (m *MockStore) AddPost(_ context.Context, post models.Post) error {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: add post failed")
	}
	m.Posts[post.ID] = post
	return nil
}

func (m *MockStore) GetPost(_ context.Context, postID string) (models.Post, error) {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return models.Post{}, errors.New("mock: get post failed")
	}
	p, ok := m.Posts[postID]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	return p, nil
}

func (m *MockStore) DeletePost(_ context.Context, postID, ownerID string) error {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: delete post failed")
	}
	p, ok := m.Posts[postID]
	if !ok || p.OwnerID != ownerID || m.DeleteNotApplied {
		return ErrNotApplied
	}
	delete(m.Posts, postID)
	return nil
}

func (m *MockStore) RecordActivity(_ context.Context, event models.Event) error {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock: record activity failed")
	}
	m.Activity[event.UserID] = append(m.Activity[event.UserID], event)
	return nil
}

// GetActivity returns a user's events newest first with a limit
func (m *MockStore) GetActivity(_ context.Context, userID string, limit int) ([]models.Event, error) {
	m.enter()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return nil, errors.New("mock: get activity failed")
	}
	events := append([]models.Event(nil), m.Activity[userID]...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At.After(events[j].At) })
	if limit > 0 && len(events) > limit {
		return events[:limit], nil
	}
	return events, nil
}

// ---------------------------------------------
// MockStoreFail always returns errors for negative tests
type MockStoreFail struct{}

func (m *MockStoreFail) Close() {}

func (m *MockStoreFail) CreateUser(context.Context, string, []byte) (string, error) {
	return "", errors.New("mock store create user failed")
}

func (m *MockStoreFail) GetUserByID(context.Context, string) (models.User, error) {
	return models.User{}, errors.New("mock store get user failed")
}

func (m *MockStoreFail) GetUserByUsername(context.Context, string) (models.User, error) {
	return models.User{}, errors.New("mock store get user by username failed")
}

func (m *MockStoreFail) DeleteUser(context.Context, models.User) error {
	return errors.New("mock store delete user failed")
}

func (m *MockStoreFail) AddPost(context.Context, models.Post) error {
	return errors.New("mock store add post failed")
}

func (m *MockStoreFail) GetPost(context.Context, string) (models.Post, error) {
	return models.Post{}, errors.New("mock store get post failed")
}

func (m *MockStoreFail) DeletePost(context.Context, string, string) error {
	return errors.New("mock store delete post failed")
}

func (m *MockStoreFail) RecordActivity(context.Context, models.Event) error {
	return errors.New("mock store record activity failed")
}

func (m *MockStoreFail) GetActivity(context.Context, string, int) ([]models.Event, error) {
	return nil, errors.New("mock store get activity failed")
}
