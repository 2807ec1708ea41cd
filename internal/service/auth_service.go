package service

import (
	"context"

	"github.com/simbunathan/ocr-app/internal/auth"
	apperrors "github.com/simbunathan/ocr-app/internal/errors"
	"github.com/simbunathan/ocr-app/internal/logging"
	"github.com/simbunathan/ocr-app/internal/storage"
)

// AuthResult is returned after a successful registration or login.
type AuthResult struct {
	Token    string `json:"token"`
	UserID   string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// AuthService handles registration and login.
type AuthService struct {
	store  storage.UserStore
	tokens *auth.TokenManager
	log    *logging.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(store storage.UserStore, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		log:    logging.NewLogger("auth-service"),
	}
}

// Register creates a new account and returns a signed token.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	if username == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("All fields are required")
	}

	exists, err := s.store.UserExists(ctx, username, email)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to check existing users", err)
	}
	if exists {
		return nil, apperrors.NewValidationError("User already exists")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to hash password", err)
	}

	user := &storage.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, apperrors.NewDatabaseError("Failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to issue token", err)
	}

	s.log.Info("user registered", "user", user.ID, "username", username)

	return &AuthResult{Token: token, UserID: user.ID, Username: username, Email: email}, nil
}

// Login verifies credentials and returns a signed token. A wrong email and a
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("Email and password are required")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.NewUnauthorizedError("Invalid credentials")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to issue token", err)
	}

	return &AuthResult{Token: token, UserID: user.ID, Username: user.Username, Email: user.Email}, nil
}
