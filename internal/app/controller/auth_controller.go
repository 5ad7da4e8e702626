package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/captains-log/internal/app/model"
	"github.com/ikkim/captains-log/internal/app/service"
	apperrors "github.com/ikkim/captains-log/internal/errors"
	"github.com/ikkim/captains-log/internal/middleware"
)

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
}

func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService) *AuthController {
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Confirm  string `json:"confirm" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

type RequestResetRequest struct {
	Email string `json:"email" binding:"required"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
	Confirm  string `json:"confirm" binding:"required"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	}
}

// Register handles account creation and logs the new user in
// POST /api/v1/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid registration request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email, password and confirmation are required")
		return
	}

	user, token, err := ctrl.authService.Register(service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "An account with that email already exists")
			return
		}
		log.Error("Registration failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "register user")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    userResponse(user),
		"token":   token,
	})
}

// Login handles email and password login
// POST /api/v1/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Email and password are required")
		return
	}

	user, token, err := ctrl.authService.Login(req.Email, req.Password, req.Remember)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
			return
		}
		log.Error("Login failed", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse(user),
		"token":   token,
	})
}

// Logout revokes the presented token
// POST /api/v1/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
		log.Error("Logout failed", err, map[string]interface{}{
			"user_id": claims.UserID,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out"})
}

// GetMe returns the current account
// GET /api/v1/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Account not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// DeleteMe removes the account with all of its planets and logs out
// DELETE /api/v1/me
func (ctrl *AuthController) DeleteMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := ctrl.authService.DeleteAccount(userID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "Account not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	if claims, ok := middleware.GetClaims(c); ok {
		if err := ctrl.authService.Logout(c.Request.Context(), claims); err != nil {
			log.Warn("Token revocation after account deletion failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Your account has been deleted"})
}

// RequestReset mails a password reset link
// POST /api/v1/reset_password
func (ctrl *AuthController) RequestReset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RequestResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "Email is required")
		return
	}

	if err := ctrl.passwordResetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		if respondValidation(c, err) {
			return
		}
		if errors.Is(err, service.ErrUnknownEmail) {
			apperrors.NotFound(c, apperrors.AuthUnknownEmail, "There is no account with that email. You must register first")
			return
		}
		log.Error("Password reset request failed", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalExternalAPI, "The reset email could not be sent. Please try again later")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "An email has been sent with instructions to reset your password",
	})
}

// CheckResetToken tells the client whether a reset link is still usable
// GET /api/v1/reset_password/:token
func (ctrl *AuthController) CheckResetToken(c *gin.Context) {
	user, err := ctrl.passwordResetService.VerifyResetToken(c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "That is an invalid or expired token")
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"email": user.Email,
	})
}

// ResetPassword sets a new password using a reset token
// POST /api/v1/reset_password/:token
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Password and confirmation are required")
		return
	}

	err := ctrl.passwordResetService.ResetPassword(c.Param("token"), service.ResetPasswordInput{
		Password: req.Password,
		Confirm:  req.Confirm,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrExpiredToken) {
			apperrors.BadRequest(c, apperrors.AuthResetTokenInvalid, "That is an invalid or expired token")
			return
		}
		if respondValidation(c, err) {
			return
		}
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your password has been updated! You are now able to log in",
	})
}
