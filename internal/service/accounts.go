package service

import (
	"context"
	"sync"

	"example.com/postapi/internal/apperr"
	"example.com/postapi/internal/auth"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/store"
	"github.com/pkg/errors"
)

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Verify(password string, hashed []byte) bool
}

// TokenIssuer signs credentials for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// EventPublisher receives activity events. Implementations must not block for long.
type EventPublisher interface {
	Publish(ctx context.Context, event models.Event)
}

// UserSummary is returned after a successful registration.
type UserSummary struct {
	ID       string `json:"user_id"`
	Username string `json:"username"`
}

// Accounts implements register, login and self-deletion.
type Accounts struct {
	store  store.StoreInterface
	hasher PasswordHasher
	tokens TokenIssuer
	events EventPublisher
	log    *logger.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAccounts(st store.StoreInterface, hasher PasswordHasher, tokens TokenIssuer, events EventPublisher, log *logger.Logger) *Accounts {
	return &Accounts{
		store:  st,
		hasher: hasher,
		tokens: tokens,
		events: events,
		log:    log,
	}
}

func (a *Accounts) Register(ctx context.Context, username, password string) (UserSummary, error) {
	if username == "" || password == "" {
		return UserSummary{}, apperr.New(apperr.InvalidInput, "Username and password are required!")
	}

	_, err := a.store.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		a.log.Info("service/accounts", "Registration rejected, username taken")
		return UserSummary{}, apperr.New(apperr.Conflict, "User already exists!")
	case !errors.Is(err, store.ErrNotFound):
		return UserSummary{}, storeErr(err, "check username")
	}

	hashed, err := a.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return UserSummary{}, apperr.New(apperr.InvalidInput, "Password is too long!")
	}
	if err != nil {
		return UserSummary{}, apperr.Wrap(apperr.Internal, "Failed to hash password", errors.WithMessage(err, "register"))
	}

	id, err := a.store.CreateUser(ctx, username, hashed)
	if errors.Is(err, store.ErrConflict) {
		// Lost the race against a concurrent registration of the same name.
		return UserSummary{}, apperr.New(apperr.Conflict, "User already exists!")
	}
	if err != nil {
		return UserSummary{}, storeErr(err, "create user")
	}

	a.log.Info("service/accounts", "User registered with user_id="+id)
	a.publish(ctx, models.Event{Type: models.EventUserRegistered, UserID: id})
	return UserSummary{ID: id, Username: username}, nil
}

// Login returns a signed token. Unknown usernames and wrong passwords fail identically.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", apperr.New(apperr.InvalidInput, "Username and password are required!")
	}

	user, err := a.store.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same bcrypt work as a real check so timing does not reveal the miss.
		a.hasher.Verify(password, a.dummy())
		return "", invalidCredentials()
	}
	if err != nil {
		return "", storeErr(err, "find user for login")
	}

	if !a.hasher.Verify(password, user.PasswordHash) {
		return "", invalidCredentials()
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, "Failed to generate token", errors.WithMessagef(err, "login user_id=%s", user.ID))
	}

	a.log.Debug("service/accounts", "Token issued for user_id="+user.ID)
	return token, nil
}

// DeleteSelf removes the authenticated user's account. Their posts are left in place.
func (a *Accounts) DeleteSelf(ctx context.Context, user models.User) error {
	current, err := a.store.GetUserByID(ctx, user.ID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.New(apperr.NotFound, "User not found!")
	}
	if err != nil {
		return storeErr(err, "reload user")
	}

	err = a.store.DeleteUser(ctx, current)
	if errors.Is(err, store.ErrNotApplied) {
		return apperr.New(apperr.DeleteFailed, "User could not be deleted!")
	}
	if err != nil {
		return storeErr(err, "delete user")
	}

	a.log.Info("service/accounts", "User deleted with user_id="+current.ID)
	a.publish(ctx, models.Event{Type: models.EventUserDeleted, UserID: current.ID})
	return nil
}

// Activity limits for the caller's timeline.
const (
	DefaultActivityLimit = 50
	MaxActivityLimit     = 200
)

// Activity returns the authenticated user's recorded events, newest first.
// Out-of-range limits fall back to DefaultActivityLimit or are capped.
func (a *Accounts) Activity(ctx context.Context, user models.User, limit int) ([]models.Event, error) {
	switch {
	case limit <= 0:
		limit = DefaultActivityLimit
	case limit > MaxActivityLimit:
		limit = MaxActivityLimit
	}

	events, err := a.store.GetActivity(ctx, user.ID, limit)
	if err != nil {
		return nil, storeErr(err, "load activity")
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (a *Accounts) publish(ctx context.Context, event models.Event) {
	if a.events != nil {
		a.events.Publish(ctx, event)
	}
}

func (a *Accounts) dummy() []byte {
	a.dummyOnce.Do(func() {
		hashed, err := a.hasher.Hash("dummy-password-for-timing")
		if err != nil {
			a.log.Warn("service/accounts", "Failed to prepare dummy hash", err)
			return
		}
		a.dummyHash = hashed
	})
	return a.dummyHash
}

// storeErr reports a failed store call as a 500, keeping the operation in the cause.
func storeErr(err error, op string) error {
	return apperr.Wrap(apperr.StoreUnavailable, "Database error!", errors.WithMessage(err, op))
}

func invalidCredentials() error {
	return apperr.New(apperr.InvalidCredentials, "Invalid username or password!")
}
