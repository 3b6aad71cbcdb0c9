package storage

import (
	"chat-relay/domain/account"
	"chat-relay/errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	// When creating a user
	created, err := repo.CreateUser(account.User{Username: "alice", Email: "Alice@Example.com", PasswordHash: "hash"})
	req.NoError(err)
	req.NotEqual(uuid.Nil, created.ID)
	req.Equal(account.RoleUser, created.Role)

	// Then the user is found by email, case insensitively, and by id
	byEmail, err := repo.GetUserByEmail("alice@example.com")
	req.NoError(err)
	req.Equal(created.ID, byEmail.ID)
	req.Equal("hash", byEmail.PasswordHash)

	byID, err := repo.GetUserByID(created.ID.String())
	req.NoError(err)
	req.Equal("alice", byID.Username)
}

func TestUserRepository_Duplicates(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	// Given an existing user
	_, err := repo.CreateUser(account.User{Username: "alice", Email: "alice@example.com"})
	req.NoError(err)

	// When reusing the email or the username
	_, err = repo.CreateUser(account.User{Username: "other", Email: "ALICE@example.com"})
	req.ErrorIs(err, errors.ErrUserAlreadyExists)
	_, err = repo.CreateUser(account.User{Username: "Alice", Email: "other@example.com"})
	req.ErrorIs(err, errors.ErrUserAlreadyExists)

	// Then only one user exists
	users, err := repo.ListUsers()
	req.NoError(err)
	req.Len(users, 1)
}

func TestUserRepository_Unknown(t *testing.T) {
	req := require.New(t)
	db, cleanup := SetupTestDB(t)
	defer cleanup()
	repo := NewUserRepository(db)

	_, err := repo.GetUserByEmail("ghost@example.com")
	req.ErrorIs(err, errors.ErrNotFound)
	_, err = repo.GetUserByID(uuid.NewString())
	req.ErrorIs(err, errors.ErrNotFound)
}
