package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/captains-log/internal/app/service"
	apperrors "github.com/ikkim/captains-log/internal/errors"
	"github.com/ikkim/captains-log/internal/middleware"
)

func planetIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("planet_id"), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid planet ID")
		return 0, false
	}
	return uint(id), true
}

func discoveryNumberParam(c *gin.Context) (int, bool) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number < 1 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid discovery number")
		return 0, false
	}
	return number, true
}

// currentUserID reads the id set by the auth middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

// respondValidation writes a 400 for form validation failures and reports
// whether it did.
func respondValidation(c *gin.Context, err error) bool {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	apperrors.RespondWithValidationError(c, map[string]string{verr.Field: verr.Message})
	return true
}
