package store

import (
	"context"
	"time"

	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"github.com/gocql/gocql"
	"github.com/pkg/errors"
)

// --- User operations ---

// userRows are the single-statement writes behind CreateUser and DeleteUser.
// Cassandra has no multi-table transaction, so the sequencing and cleanup
// between them lives in createUser and deleteUser.
type userRows interface {
	insertUser(ctx context.Context, user models.User) error
	deleteUserRow(ctx context.Context, userID string) (bool, error)
	userExists(ctx context.Context, userID string) (bool, error)
	// claimUsername returns the current owner when the claim was not applied.
	claimUsername(ctx context.Context, username, userID string) (bool, string, error)
	releaseUsername(ctx context.Context, username, userID string) error
}

// CreateUser inserts a new user and returns its generated id.
// The username is claimed with a lightweight transaction, so two concurrent
// registrations of the same name cannot both succeed; the loser gets ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username string, passwordHash []byte) (string, error) {
	return createUser(ctx, s, s.log, username, passwordHash)
}

// createUser writes the user row before claiming the username. The index
// therefore never points at a row that was not written, and a failed claim
// only leaves an unreachable user row, which is removed on a best-effort basis.
func createUser(ctx context.Context, rows userRows, log *logger.Logger, username string, passwordHash []byte) (string, error) {
	user := models.User{
		ID:           gocql.TimeUUID().String(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := rows.insertUser(ctx, user); err != nil {
		log.Error("store", "Failed to create user in main table", err)
		return "", errors.Wrap(err, "insert user")
	}

	applied, owner, err := rows.claimUsername(ctx, username, user.ID)
	if err == nil && !applied {
		applied, err = reclaimOrphan(ctx, rows, log, username, owner, user.ID)
	}
	if err != nil || !applied {
		if _, derr := rows.deleteUserRow(ctx, user.ID); derr != nil {
			log.Warn("store", "Failed to remove unclaimed user row", derr)
		}
		if err != nil {
			log.Error("store", "Failed to claim username", err)
			return "", errors.Wrap(err, "claim username")
		}
		return "", ErrConflict
	}

	log.Info("store", "User created successfully (username anonymized)")
	return user.ID, nil
}

// reclaimOrphan takes over a username whose index entry points at a user row
// that no longer exists, as left behind by an interrupted delete.
func reclaimOrphan(ctx context.Context, rows userRows, log *logger.Logger, username, owner, userID string) (bool, error) {
	if owner == "" {
		return false, nil
	}
	exists, err := rows.userExists(ctx, owner)
	if err != nil || exists {
		return false, err
	}

	log.Warn("store", "Reclaiming orphaned username entry", nil)
	if err := rows.releaseUsername(ctx, username, owner); err != nil {
		return false, err
	}
	applied, _, err := rows.claimUsername(ctx, username, userID)
	return applied, err
}

// GetUserByID loads a user row. Returns ErrNotFound if it does not exist.
func (s *Store) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	var u models.User
	err := s.Session.Query(
		`SELECT user_id, username, password_hash, created_at FROM users WHERE user_id = ?`,
		userID,
	).WithContext(ctx).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return models.User{}, ErrNotFound
		}
		s.log.Error("store", "Failed to query user by id", err)
		return models.User{}, errors.Wrap(err, "get user by id")
	}
	return u, nil
}

// GetUserByUsername resolves the username index and loads the user row.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var id string
	err := s.Session.Query(
		`SELECT user_id FROM users_by_username WHERE username = ?`,
		username,
	).WithContext(ctx).Scan(&id)
	if err != nil {
		if errors.Is(err, gocql.ErrNotFound) {
			return models.User{}, ErrNotFound
		}
		s.log.Error("store", "Failed to query user by username", err)
		return models.User{}, errors.Wrap(err, "get user by username")
	}
	return s.GetUserByID(ctx, id)
}

// DeleteUser removes the user row and then its username index entry.
// Returns ErrNotApplied if the row was already gone.
func (s *Store) DeleteUser(ctx context.Context, user models.User) error {
	return deleteUser(ctx, s, s.log, user)
}

// deleteUser succeeds once the user row is gone. A failed index cleanup is
// only logged; the stale entry is reclaimed by the next registration of the name.
func deleteUser(ctx context.Context, rows userRows, log *logger.Logger, user models.User) error {
	applied, err := rows.deleteUserRow(ctx, user.ID)
	if err != nil {
		log.Error("store", "Failed to delete user", err)
		return errors.Wrap(err, "delete user")
	}
	if !applied {
		return ErrNotApplied
	}

	if err := rows.releaseUsername(ctx, user.Username, user.ID); err != nil {
		log.Warn("store", "Failed to delete username entry, left for reclaim", err)
	}

	log.Info("store", "User deleted (user ID anonymized)")
	return nil
}

// --- Single-statement CQL ---

func (s *Store) insertUser(ctx context.Context, user models.User) error {
	return s.Session.Query(`
		INSERT INTO users (user_id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	).WithContext(ctx).Exec()
}

func (s *Store) deleteUserRow(ctx context.Context, userID string) (bool, error) {
	result := make(map[string]interface{})
	return s.Session.Query(
		`DELETE FROM users WHERE user_id = ? IF EXISTS`,
		userID,
	).WithContext(ctx).MapScanCAS(result)
}

func (s *Store) userExists(ctx context.Context, userID string) (bool, error) {
	var id string
	err := s.Session.Query(
		`SELECT user_id FROM users WHERE user_id = ?`,
		userID,
	).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) claimUsername(ctx context.Context, username, userID string) (bool, string, error) {
	result := make(map[string]interface{})
	applied, err := s.Session.Query(`
		INSERT INTO users_by_username (username, user_id)
		VALUES (?, ?) IF NOT EXISTS`,
		username, userID,
	).WithContext(ctx).MapScanCAS(result)
	if err != nil || applied {
		return applied, "", err
	}
	owner, _ := result["user_id"].(string)
	return false, owner, nil
}

// releaseUsername drops the index entry only if it still points at userID.
func (s *Store) releaseUsername(ctx context.Context, username, userID string) error {
	result := make(map[string]interface{})
	_, err := s.Session.Query(
		`DELETE FROM users_by_username WHERE username = ? IF user_id = ?`,
		username, userID,
	).WithContext(ctx).MapScanCAS(result)
	return err
}
