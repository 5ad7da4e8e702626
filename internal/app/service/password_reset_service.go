package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/repository"
	"github.com/ikkim/captains-log/pkg/logger"
	"github.com/ikkim/captains-log/pkg/mail"
	"github.com/ikkim/captains-log/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrUnknownEmail          = errors.New("there is no account with that email")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
)

type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	VerifyResetToken(token string) (*model.User, error)
	ResetPassword(token string, input ResetPasswordInput) error
	PurgeStaleTokens() (int64, error)
}

type passwordResetService struct {
	db       *gorm.DB
	userRepo repository.UserRepository
	signer   *util.ResetTokenSigner
	mailer   mail.Sender
	baseURL  string
	now      func() time.Time
}

func NewPasswordResetService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	signer *util.ResetTokenSigner,
	mailer mail.Sender,
	baseURL string,
) PasswordResetService {
	return &passwordResetService{
		db:       db,
		userRepo: userRepo,
		signer:   signer,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// RequestReset issues a new token for the account, replacing any earlier
// one, and mails the reset link.
func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return invalid("email", "is required")
	}

	logger.Info("Processing password reset request", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Password reset requested for unknown email", map[string]interface{}{
				"email": email,
			})
			return ErrUnknownEmail
		}
		logger.Error("Failed to find user for password reset", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	token, issuedAt, err := s.signer.Sign(user.ID)
	if err != nil {
		logger.Error("Failed to sign reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	user.SetResetToken(token, issuedAt)
	if err := s.userRepo.Update(user); err != nil {
		logger.Error("Failed to store reset token", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}

	msg, err := mail.PasswordResetMessage(user.Email, s.resetURL(token), humanDuration(s.signer.MaxAge()))
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Error("Failed to send reset email", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return fmt.Errorf("send reset email: %w", err)
	}

	logger.Info("Password reset email sent", map[string]interface{}{
		"user_id":   user.ID,
		"issued_at": issuedAt,
	})
	return nil
}

func (s *passwordResetService) resetURL(token string) string {
	return s.baseURL + "/reset_password/" + url.PathEscape(token)
}

// VerifyResetToken returns the account a token was issued for. Every
// failure collapses to ErrInvalidOrExpiredToken; the cause is only logged.
func (s *passwordResetService) VerifyResetToken(token string) (*model.User, error) {
	return s.verify(s.userRepo, token)
}

func (s *passwordResetService) verify(users repository.UserRepository, token string) (*model.User, error) {
	userID, err := s.signer.Verify(token)
	if err != nil {
		reason := "malformed"
		switch {
		case errors.Is(err, util.ErrResetTokenExpired):
			reason = "expired"
		case errors.Is(err, util.ErrResetTokenBadSignature):
			reason = "bad_signature"
		}
		logger.Warn("Reset token rejected", map[string]interface{}{
			"reason": reason,
		})
		return nil, ErrInvalidOrExpiredToken
	}

	user, err := users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Reset token for deleted account", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrInvalidOrExpiredToken
		}
		return nil, err
	}

	if !user.HasResetToken(token) {
		logger.Warn("Reset token superseded or already used", map[string]interface{}{
			"user_id": userID,
		})
		return nil, ErrInvalidOrExpiredToken
	}
	return user, nil
}

// ResetPassword sets a new password and clears the stored token so the
// link cannot be used twice.
func (s *passwordResetService) ResetPassword(token string, input ResetPasswordInput) error {
	logger.Info("Processing password reset with token")

	var userID uint
	err := s.db.Transaction(func(tx *gorm.DB) error {
		users := s.userRepo.WithTx(tx)

		user, err := s.verify(users, token)
		if err != nil {
			return err
		}
		if err := input.Validate(); err != nil {
			return err
		}

		hash, err := util.HashPassword(input.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
		user.ClearResetToken()
		userID = user.ID
		return users.Update(user)
	})
	if err != nil {
		var verr *ValidationError
		if !errors.Is(err, ErrInvalidOrExpiredToken) && !errors.As(err, &verr) {
			logger.Error("Failed to reset password", err)
		}
		return err
	}

	logger.Info("Password reset completed", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

// PurgeStaleTokens clears tokens that are past their maximum age.
func (s *passwordResetService) PurgeStaleTokens() (int64, error) {
	cutoff := s.now().Add(-s.signer.MaxAge())
	cleared, err := s.userRepo.ClearResetTokensIssuedBefore(cutoff)
	if err != nil {
		logger.Error("Failed to purge stale reset tokens", err)
		return 0, err
	}
	if cleared > 0 {
		logger.Info("Stale reset tokens purged", map[string]interface{}{
			"count": cleared,
		})
	}
	return cleared, nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		if h := int(d / time.Hour); h != 1 {
			return fmt.Sprintf("%d hours", h)
		}
		return "1 hour"
	case d >= time.Minute && d%time.Minute == 0:
		if m := int(d / time.Minute); m != 1 {
			return fmt.Sprintf("%d minutes", m)
		}
		return "1 minute"
	}
	return d.String()
}
