package middleware

import (
	"context"
	"net/http"

	"example.com/postapi/internal/apperr"
	"example.com/postapi/internal/auth"
	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"example.com/postapi/internal/response"
	"example.com/postapi/internal/store"
	"github.com/pkg/errors"
)

// TokenHeader carries the bearer credential on protected routes.
const TokenHeader = "x-access-token"

type contextKey string

const UserCtxKey = contextKey("user")

// TokenValidator checks a raw token and returns its claims.
type TokenValidator interface {
	Validate(token string) (auth.Claims, error)
}

// UserLookup loads the user a token refers to.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (models.User, error)
}

// Authenticator resolves the caller's identity before protected handlers run.
type Authenticator struct {
	tokens TokenValidator
	users  UserLookup
	log    *logger.Logger
}

func NewAuthenticator(tokens TokenValidator, users UserLookup, log *logger.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// Authenticate wraps next, short-circuiting with 401/500 when the caller
// cannot be resolved to an existing user.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Resolve(r)
		if err != nil {
			response.Error(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserCtxKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Resolve extracts and validates the token and loads its user.
func (a *Authenticator) Resolve(r *http.Request) (models.User, error) {
	raw := r.Header.Get(TokenHeader)
	if raw == "" {
		return models.User{}, apperr.New(apperr.MissingCredential, "Token is missing!")
	}

	claims, err := a.tokens.Validate(raw)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return models.User{}, apperr.New(apperr.ExpiredToken, "Token has expired!")
	case err != nil:
		a.log.Debug("http/auth", errors.WithMessage(err, "Rejected token").Error())
		return models.User{}, apperr.New(apperr.MalformedToken, "Invalid token!")
	}

	user, err := a.users.GetUserByID(r.Context(), claims.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Tokens outlive deleted accounts; they fail here.
		return models.User{}, apperr.New(apperr.UnknownIdentity, "Token is invalid!")
	}
	if err != nil {
		a.log.Error("http/auth", "Failed to load user for token", err)
		return models.User{}, apperr.Wrap(apperr.StoreUnavailable, "Database error!", errors.WithMessage(err, "resolve token user"))
	}
	return user, nil
}

// UserFromContext returns the user injected by Authenticate.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(UserCtxKey).(models.User)
	return user, ok
}
