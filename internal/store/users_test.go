package store

import (
	"context"
	"errors"
	"testing"

	"example.com/postapi/internal/logger"
	"example.com/postapi/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRows keeps the users table and the username index as two maps and can
// fail individual statements, so partial writes can be simulated.
type fakeRows struct {
	users map[string]models.User
	index map[string]string

	failInsert  bool
	failClaim   bool
	failRelease bool
	failDelete  bool
}

var _ userRows = (*fakeRows)(nil)

func newFakeRows() *fakeRows {
	return &fakeRows{users: map[string]models.User{}, index: map[string]string{}}
}

func (f *fakeRows) insertUser(_ context.Context, user models.User) error {
	if f.failInsert {
		return errors.New("write timeout")
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeRows) deleteUserRow(_ context.Context, userID string) (bool, error) {
	if f.failDelete {
		return false, errors.New("write timeout")
	}
	if _, ok := f.users[userID]; !ok {
		return false, nil
	}
	delete(f.users, userID)
	return true, nil
}

func (f *fakeRows) userExists(_ context.Context, userID string) (bool, error) {
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeRows) claimUsername(_ context.Context, username, userID string) (bool, string, error) {
	if f.failClaim {
		return false, "", errors.New("write timeout")
	}
	if owner, ok := f.index[username]; ok {
		return false, owner, nil
	}
	f.index[username] = userID
	return true, "", nil
}

func (f *fakeRows) releaseUsername(_ context.Context, username, userID string) error {
	if f.failRelease {
		return errors.New("write timeout")
	}
	if f.index[username] == userID {
		delete(f.index, username)
	}
	return nil
}

func TestCreateUser_WritesRowAndIndex(t *testing.T) {
	rows := newFakeRows()

	id, err := createUser(context.Background(), rows, logger.Discard(), "almaz", []byte("h"))
	require.NoError(t, err)

	assert.Equal(t, id, rows.index["almaz"])
	assert.Equal(t, "almaz", rows.users[id].Username)
	assert.Equal(t, []byte("h"), rows.users[id].PasswordHash)
}

func TestCreateUser_FailedRowInsertLeavesNoIndex(t *testing.T) {
	ctx := context.Background()
	rows := newFakeRows()
	rows.failInsert = true

	_, err := createUser(ctx, rows, logger.Discard(), "almaz", []byte("h"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Empty(t, rows.index)

	// A retry after the outage succeeds.
	rows.failInsert = false
	_, err = createUser(ctx, rows, logger.Discard(), "almaz", []byte("h"))
	require.NoError(t, err)
}

func TestCreateUser_FailedClaimRemovesRow(t *testing.T) {
	rows := newFakeRows()
	rows.failClaim = true

	_, err := createUser(context.Background(), rows, logger.Discard(), "almaz", []byte("h"))
	require.Error(t, err)
	assert.Empty(t, rows.users)
	assert.Empty(t, rows.index)
}

func TestCreateUser_TakenUsernameConflicts(t *testing.T) {
	ctx := context.Background()
	rows := newFakeRows()
	first, err := createUser(ctx, rows, logger.Discard(), "almaz", []byte("h"))
	require.NoError(t, err)

	_, err = createUser(ctx, rows, logger.Discard(), "almaz", []byte("h2"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, rows.users, 1)
	assert.Equal(t, first, rows.index["almaz"])
}

func TestCreateUser_ReclaimsOrphanedIndexEntry(t *testing.T) {
	rows := newFakeRows()
	rows.index["almaz"] = "deleted-user"

	id, err := createUser(context.Background(), rows, logger.Discard(), "almaz", []byte("h"))
	require.NoError(t, err)
	assert.Equal(t, id, rows.index["almaz"])
}

func TestDeleteUser_IndexCleanupFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	rows := newFakeRows()
	id, err := createUser(ctx, rows, logger.Discard(), "almaz", []byte("h"))
	require.NoError(t, err)

	rows.failRelease = true
	require.NoError(t, deleteUser(ctx, rows, logger.Discard(), rows.users[id]))
	assert.NotContains(t, rows.users, id)
	assert.Equal(t, id, rows.index["almaz"])

	// The stale entry does not block the name.
	rows.failRelease = false
	newID, err := createUser(ctx, rows, logger.Discard(), "almaz", []byte("h2"))
	require.NoError(t, err)
	assert.Equal(t, newID, rows.index["almaz"])
}

func TestDeleteUser_Outcomes(t *testing.T) {
	ctx := context.Background()
	rows := newFakeRows()
	id, err := createUser(ctx, rows, logger.Discard(), "almaz", []byte("h"))
	require.NoError(t, err)
	user := rows.users[id]

	rows.failDelete = true
	assert.Error(t, deleteUser(ctx, rows, logger.Discard(), user))
	assert.Contains(t, rows.users, id)

	rows.failDelete = false
	require.NoError(t, deleteUser(ctx, rows, logger.Discard(), user))
	assert.Empty(t, rows.index)
	assert.ErrorIs(t, deleteUser(ctx, rows, logger.Discard(), user), ErrNotApplied)
}
