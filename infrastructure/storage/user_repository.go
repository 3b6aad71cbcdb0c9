//go:generate go run go.uber.org/mock/mockgen -source=user_repository.go -destination=../../mocks/mock_user_repository.go -package=mocks
package storage

import (
	"chat-relay/domain/account"
	"chat-relay/errors"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	userPrefix        = "user:id:"
	userEmailIndex    = "user:email:"
	userUsernameIndex = "user:username:"
)

type IUserRepository interface {
	CreateUser(user account.User) (account.User, error)
	GetUserByEmail(email string) (account.User, error)
	GetUserByID(id string) (account.User, error)
	ListUsers() ([]account.User, error)
}

type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type diskUser struct {
	ID           string `cbor:"id"`
	Username     string `cbor:"username"`
	Email        string `cbor:"email"`
	PasswordHash string `cbor:"password_hash"`
	Role         string `cbor:"role"`
	AvatarURL    string `cbor:"avatar_url"`
	CreatedAt    int64  `cbor:"created_at"`
}

// CreateUser persists the user with unique email and username indexes.
// Email and username are compared case-insensitively.
func (u UserRepository) CreateUser(user account.User) (account.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = account.RoleUser
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	data, err := marshal(fromUser(user))
	if err != nil {
		return account.User{}, fmt.Errorf("marshal failed: %w", err)
	}

	emailKey := []byte(userEmailIndex + normalize(user.Email))
	usernameKey := []byte(userUsernameIndex + normalize(user.Username))
	id := []byte(user.ID.String())

	err = u.db.Update(func(txn *badger.Txn) error {
		for _, key := range [][]byte{emailKey, usernameKey} {
			if _, err := txn.Get(key); err == nil {
				return errors.ErrUserAlreadyExists
			} else if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		if err := txn.Set(emailKey, id); err != nil {
			return err
		}
		if err := txn.Set(usernameKey, id); err != nil {
			return err
		}
		return txn.Set([]byte(userPrefix+user.ID.String()), data)
	})
	if err != nil {
		if errors.Is(err, errors.ErrUserAlreadyExists) {
			return account.User{}, err
		}
		return account.User{}, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return user, nil
}

// GetUserByEmail resolves the email index then loads the user.
func (u UserRepository) GetUserByEmail(email string) (account.User, error) {
	var user account.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailIndex + normalize(email)))
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		user, err = getUser(txn, string(id))
		return err
	})
	return user, mapNotFound(err)
}

func (u UserRepository) GetUserByID(id string) (account.User, error) {
	var user account.User
	err := u.db.View(func(txn *badger.Txn) error {
		var err error
		user, err = getUser(txn, id)
		return err
	})
	return user, mapNotFound(err)
}

// ListUsers returns every registered user, in id order.
func (u UserRepository) ListUsers() ([]account.User, error) {
	users := make([]account.User, 0)
	prefix := []byte(userPrefix)
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskUser
			if err := it.Item().Value(func(val []byte) error {
				return unmarshal(val, &disk)
			}); err != nil {
				return err
			}
			user, err := toUser(disk)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
	return users, nil
}

func getUser(txn *badger.Txn, id string) (account.User, error) {
	item, err := txn.Get([]byte(userPrefix + id))
	if err != nil {
		return account.User{}, err
	}
	var disk diskUser
	if err := item.Value(func(val []byte) error {
		return unmarshal(val, &disk)
	}); err != nil {
		return account.User{}, err
	}
	return toUser(disk)
}

func mapNotFound(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, badger.ErrKeyNotFound):
		return errors.ErrNotFound
	default:
		return fmt.Errorf("%w: %w", errors.ErrStorage, err)
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func fromUser(user account.User) diskUser {
	return diskUser{
		ID:           user.ID.String(),
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		AvatarURL:    user.AvatarURL,
		CreatedAt:    user.CreatedAt.UnixNano(),
	}
}

func toUser(disk diskUser) (account.User, error) {
	id, err := uuid.Parse(disk.ID)
	if err != nil {
		return account.User{}, err
	}
	return account.User{
		ID:           id,
		Username:     disk.Username,
		Email:        disk.Email,
		PasswordHash: disk.PasswordHash,
		Role:         account.Role(disk.Role),
		AvatarURL:    disk.AvatarURL,
		CreatedAt:    time.Unix(0, disk.CreatedAt).UTC(),
	}, nil
}
