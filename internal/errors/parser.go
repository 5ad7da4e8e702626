package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns infrastructure errors into a code and a message that is
// safe to show. context names the operation, e.g. "create planet".
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong on our side",
		}
	}

	errLower := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// postgres 23505 / sqlite UNIQUE
	if strings.Contains(errLower, "duplicate key") || strings.Contains(errLower, "unique constraint") {
		return parseDuplicateKeyError(errLower)
	}

	// postgres 23503 / sqlite FOREIGN KEY
	if strings.Contains(errLower, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "The referenced record no longer exists",
		}
	}

	// postgres 23502 / sqlite NOT NULL
	if strings.Contains(errLower, "not-null constraint") || strings.Contains(errLower, "not null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "A required field is missing",
		}
	}

	if strings.Contains(errLower, "connection refused") ||
		strings.Contains(errLower, "no such host") ||
		strings.Contains(errLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A backing service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errLower string) ErrorInfo {
	switch {
	case strings.Contains(errLower, "email"):
		return ErrorInfo{
			Code:    AuthEmailAlreadyExists,
			Message: "Email already registered",
		}
	case strings.Contains(errLower, "thing_discovered") || strings.Contains(errLower, "idx_discoveries_planet_thing"):
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "That has already been discovered on this planet",
		}
	case strings.Contains(errLower, "number") || strings.Contains(errLower, "idx_discoveries_planet_number"):
		return ErrorInfo{
			Code:    ResourceConflict,
			Message: "This discovery was already logged. Reload and try again",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "discovery"):
		return "Discovery not found"
	case strings.Contains(contextLower, "planet"):
		return "Planet not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "The requested record was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create") || strings.Contains(contextLower, "start"):
		return "Could not save your changes. Please try again later"
	case strings.Contains(contextLower, "update") || strings.Contains(contextLower, "rename") || strings.Contains(contextLower, "edit"):
		return "Could not update the record. Please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Could not delete the record. Please try again later"
	}
	return "Something went wrong on our side. Please try again later"
}

// ParseAndRespond writes the parsed error with statusCode.
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
