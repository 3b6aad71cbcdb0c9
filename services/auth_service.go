//go:generate go run go.uber.org/mock/mockgen -source=auth_service.go -destination=../mocks/mock_auth_service.go -package=mocks
package services

import (
	"chat-relay/auth"
	"chat-relay/domain/account"
	"chat-relay/errors"
	"chat-relay/infrastructure/storage"
	"fmt"

	"github.com/samber/lo"
)

type IAuthService interface {
	Register(req auth.RegisterRequest) (AuthResult, error)
	Login(req auth.LoginRequest) (AuthResult, error)
	Me(userID string) (account.Profile, error)
	Users(except string) ([]account.Profile, error)
}

// AuthResult is the profile of the authenticated user along with a fresh token.
type AuthResult struct {
	account.Profile
	Token string `json:"token"`
}

type AuthService struct {
	userRepository storage.IUserRepository
	tokens         *auth.TokenManager
}

func NewAuthService(repo storage.IUserRepository, tokens *auth.TokenManager) *AuthService {
	return &AuthService{userRepository: repo, tokens: tokens}
}

func (s *AuthService) Register(req auth.RegisterRequest) (AuthResult, error) {
	// Business rules are checked before any expensive hashing
	if err := auth.ValidateRegister(req); err != nil {
		return AuthResult{}, err
	}

	// Hashing stays in the service, the repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing failed: %w", err)
	}

	user, err := s.userRepository.CreateUser(account.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Role:         account.RoleUser,
	})
	if err != nil {
		return AuthResult{}, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(req auth.LoginRequest) (AuthResult, error) {
	if err := auth.ValidateLogin(req); err != nil {
		return AuthResult{}, errors.ErrInvalidCredentials
	}

	user, err := s.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		// Generic error to prevent user enumeration attacks
		return AuthResult{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		return AuthResult{}, errors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthService) Me(userID string) (account.Profile, error) {
	user, err := s.userRepository.GetUserByID(userID)
	if err != nil {
		return account.Profile{}, err
	}
	return user.Profile(), nil
}

// Users lists every profile but the caller's one, the contact list of the chat.
func (s *AuthService) Users(except string) ([]account.Profile, error) {
	users, err := s.userRepository.ListUsers()
	if err != nil {
		return nil, err
	}
	others := lo.Filter(users, func(u account.User, _ int) bool {
		return u.ID.String() != except
	})
	return lo.Map(others, func(u account.User, _ int) account.Profile {
		return u.Profile()
	}), nil
}

func (s *AuthService) issue(user account.User) (AuthResult, error) {
	token, err := s.tokens.GenerateToken(user.ID.String(), []string{string(user.Role)})
	if err != nil {
		return AuthResult{}, errors.ErrTokenGeneration
	}
	return AuthResult{Profile: user.Profile(), Token: token}, nil
}
