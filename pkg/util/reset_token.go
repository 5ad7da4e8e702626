package util

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const resetTokenAudience = "password-reset"

// Reset token verification failures. Callers that only need a yes/no answer
// can test for ErrResetTokenInvalid, which all three wrap.
var (
	ErrResetTokenInvalid      = errors.New("reset token invalid")
	ErrResetTokenExpired      = fmt.Errorf("%w: expired", ErrResetTokenInvalid)
	ErrResetTokenBadSignature = fmt.Errorf("%w: bad signature", ErrResetTokenInvalid)
	ErrResetTokenMalformed    = fmt.Errorf("%w: malformed", ErrResetTokenInvalid)
)

// ResetTokenSigner issues and verifies time-limited password reset tokens.
// The payload is the user id; the issue time is embedded so that age is
// checked independently of the exp claim.
type ResetTokenSigner struct {
	key    []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewResetTokenSigner(secret string, maxAge time.Duration) *ResetTokenSigner {
	return &ResetTokenSigner{
		// separate key space from access tokens signed with the same secret
		key:    []byte(secret + ":" + resetTokenAudience),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests and the purge job.
func (s *ResetTokenSigner) WithClock(now func() time.Time) *ResetTokenSigner {
	return &ResetTokenSigner{key: s.key, maxAge: s.maxAge, now: now}
}

func (s *ResetTokenSigner) MaxAge() time.Duration {
	return s.maxAge
}

// Sign returns a token for userID together with its issue time.
func (s *ResetTokenSigner) Sign(userID uint) (string, time.Time, error) {
	issuedAt := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   strconv.FormatUint(uint64(userID), 10),
		Audience:  jwt.ClaimStrings{resetTokenAudience},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.maxAge)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign reset token: %w", err)
	}
	return signed, issuedAt, nil
}

// Verify decodes token and returns the user id it was issued for.
func (s *ResetTokenSigner) Verify(token string) (uint, error) {
	if token == "" {
		return 0, ErrResetTokenMalformed
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetTokenAudience),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, ErrResetTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return 0, ErrResetTokenBadSignature
	default:
		return 0, fmt.Errorf("%w (%v)", ErrResetTokenMalformed, err)
	}

	if claims.IssuedAt == nil || s.now().Sub(claims.IssuedAt.Time) > s.maxAge {
		return 0, ErrResetTokenExpired
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrResetTokenMalformed
	}
	return uint(userID), nil
}
