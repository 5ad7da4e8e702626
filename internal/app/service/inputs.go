package service

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/prompt"
	"github.com/ikkim/captains-log/pkg/util"
)

// ValidationError reports a form field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

type StartInput struct {
	ThingsToDiscover int
}

func (in *StartInput) Validate() error {
	if in.ThingsToDiscover < 1 {
		return invalid("things_to_discover", "must be at least 1")
	}
	if limit := prompt.Capacity(); in.ThingsToDiscover > limit {
		return invalid("things_to_discover", "must be at most %d", limit)
	}
	return nil
}

type LogInput struct {
	Description string
}

func (in *LogInput) Validate() error {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return invalid("description", "is required")
	}
	return nil
}

type NameInput struct {
	Name string
}

func (in *NameInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(in.Name) > model.PlanetNameMaxLength {
		return invalid("name", "must be at most %d characters", model.PlanetNameMaxLength)
	}
	return nil
}

type RegisterInput struct {
	Email    string
	Password string
	Confirm  string
}

func (in *RegisterInput) Validate() error {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return err
	}
	in.Email = email

	if err := checkNewPassword(in.Password, in.Confirm); err != nil {
		return err
	}
	return nil
}

type ResetPasswordInput struct {
	Password string
	Confirm  string
}

func (in *ResetPasswordInput) Validate() error {
	return checkNewPassword(in.Password, in.Confirm)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalid("email", "is not a valid email address")
	}
	return email, nil
}

func checkNewPassword(password, confirm string) error {
	if err := util.CheckPasswordPolicy(password); err != nil {
		return invalid("password", "%s", err.Error())
	}
	if password != confirm {
		return invalid("confirm", "passwords must match")
	}
	return nil
}
