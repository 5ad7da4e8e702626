package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/pkg/logger"
	"github.com/ikkim/captains-log/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// TokenRevoker blacklists access tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.AccessToken, error)
	Login(email, password string, remember bool) (*model.User, *util.AccessToken, error)
	Logout(ctx context.Context, claims *util.TokenClaims) error
	GetUserByID(id uint) (*model.User, error)
	DeleteAccount(userID uint) error
}

type authService struct {
	userRepo       repository.UserRepository
	revoker        TokenRevoker
	jwtSecret      string
	accessExpiry   time.Duration
	rememberExpiry time.Duration
}

// NewAuthService wires the account flows. revoker may be nil when no
// revocation store is configured; logout then only drops the client token.
func NewAuthService(
	userRepo repository.UserRepository,
	revoker TokenRevoker,
	jwtSecret string,
	accessExpiry, rememberExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		revoker:        revoker,
		jwtSecret:      jwtSecret,
		accessExpiry:   accessExpiry,
		rememberExpiry: rememberExpiry,
	}
}

func (s *authService) Register(input RegisterInput) (*model.User, *util.AccessToken, error) {
	if err := input.Validate(); err != nil {
		logger.Warn("Registration rejected", map[string]interface{}{
			"reason": err.Error(),
		})
		return nil, nil, err
	}
	email := input.Email

	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	existingUser, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}
	if existingUser != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hashedPassword,
	}
	if err := s.userRepo.Create(user); err != nil {
		// lost a race with a concurrent registration of the same email
		if _, findErr := s.userRepo.FindByEmail(email); findErr == nil {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, err
	}

	token, err := util.GenerateAccessToken(user.ID, user.Email, s.jwtSecret, s.accessExpiry)
	if err != nil {
		logger.Error("Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return user, token, nil
}

func (s *authService) Login(email, password string, remember bool) (*model.User, *util.AccessToken, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	logger.Info("Login attempt", map[string]interface{}{
		"email":    email,
		"remember": remember,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		logger.Error("Failed to find user", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"email":   email,
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	expiry := s.accessExpiry
	if remember {
		expiry = s.rememberExpiry
	}
	token, err := util.GenerateAccessToken(user.ID, user.Email, s.jwtSecret, expiry)
	if err != nil {
		logger.Error("Failed to generate access token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id":    user.ID,
		"expires_at": token.ExpiresAt,
	})
	return user, token, nil
}

// Logout revokes the presented access token until its natural expiry.
func (s *authService) Logout(ctx context.Context, claims *util.TokenClaims) error {
	if claims == nil {
		return util.ErrInvalidToken
	}
	if s.revoker == nil {
		logger.Warn("Logout without revocation store, token stays valid until expiry", map[string]interface{}{
			"user_id": claims.UserID,
		})
		return nil
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revoker.Revoke(ctx, claims.ID, expiresAt); err != nil {
		logger.Error("Failed to revoke access token", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		return err
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		logger.Error("Failed to fetch user", err, map[string]interface{}{
			"user_id": id,
		})
		return nil, err
	}
	return user, nil
}

// DeleteAccount removes the user with every planet and discovery they own.
func (s *authService) DeleteAccount(userID uint) error {
	logger.Info("Deleting account", map[string]interface{}{
		"user_id": userID,
	})

	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		logger.Error("Failed to delete account", err, map[string]interface{}{
			"user_id": userID,
		})
		return err
	}

	logger.Info("Account deleted", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}
