package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/captains-log/internal/app/service"
	apperrors "github.com/ikkim/captains-log/internal/errors"
	"github.com/ikkim/captains-log/internal/middleware"
)

type ExplorationController struct {
	explorationService service.ExplorationService
}

func NewExplorationController(explorationService service.ExplorationService) *ExplorationController {
	return &ExplorationController{
		explorationService: explorationService,
	}
}

type StartRequest struct {
	ThingsToDiscover int `json:"things_to_discover"`
}

type LogDiscoveryRequest struct {
	Description string `json:"description"`
}

type NamePlanetRequest struct {
	Name string `json:"name"`
}

func (ctrl *ExplorationController) respondError(c *gin.Context, err error, action string) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrNotCurrentDiscovery):
		apperrors.NotFound(c, apperrors.ExploreNotCurrent, "That discovery is not the one you are exploring")
	case errors.Is(err, service.ErrNotCurrentPlanet):
		apperrors.NotFound(c, apperrors.ExploreNotCurrent, "That planet is not the one you are exploring")
	case errors.Is(err, service.ErrWrongStage):
		apperrors.Conflict(c, apperrors.ExploreWrongStage, "Log every discovery before naming the planet")
	case errors.Is(err, service.ErrPromptsExhausted):
		apperrors.Conflict(c, apperrors.ExplorePromptsExhausted, "There is nothing left to discover on this planet")
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.Unauthorized(c, "")
	default:
		middleware.GetLoggerFromContext(c).Error("Exploration request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.InternalError(c, "")
	}
}

// Current reports where the user is in their exploration
// GET /api/v1/explore
func (ctrl *ExplorationController) Current(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	state, err := ctrl.explorationService.Current(userID)
	if err != nil {
		ctrl.respondError(c, err, "current")
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

// Start begins a new planet, or returns the one in progress
// POST /api/v1/explore
func (ctrl *ExplorationController) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "things_to_discover must be a number")
		return
	}

	state, resumed, err := ctrl.explorationService.Start(userID, service.StartInput{ThingsToDiscover: req.ThingsToDiscover})
	if err != nil {
		ctrl.respondError(c, err, "start")
		return
	}

	status := http.StatusCreated
	if resumed {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"state":   state,
		"resumed": resumed,
	})
}

// GetDiscovery shows the prompt for the pending discovery
// GET /api/v1/explore/:planet_id/discoveries/:number
func (ctrl *ExplorationController) GetDiscovery(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planetID, ok := planetIDParam(c)
	if !ok {
		return
	}
	number, ok := discoveryNumberParam(c)
	if !ok {
		return
	}

	state, err := ctrl.explorationService.GetCurrentDiscovery(userID, planetID, number)
	if err != nil {
		ctrl.respondError(c, err, "get_discovery")
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

// LogDiscovery records the description of the pending discovery
// POST /api/v1/explore/:planet_id/discoveries/:number
func (ctrl *ExplorationController) LogDiscovery(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planetID, ok := planetIDParam(c)
	if !ok {
		return
	}
	number, ok := discoveryNumberParam(c)
	if !ok {
		return
	}

	var req LogDiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "description must be text")
		return
	}

	state, err := ctrl.explorationService.LogDiscovery(userID, planetID, number, service.LogInput{Description: req.Description})
	if err != nil {
		ctrl.respondError(c, err, "log_discovery")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your discovery has been logged",
		"state":   state,
	})
}

// NamePlanet names the planet and archives it
// POST /api/v1/explore/:planet_id/name
func (ctrl *ExplorationController) NamePlanet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planetID, ok := planetIDParam(c)
	if !ok {
		return
	}

	var req NamePlanetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "name must be text")
		return
	}

	planet, err := ctrl.explorationService.NamePlanet(userID, planetID, service.NameInput{Name: req.Name})
	if err != nil {
		ctrl.respondError(c, err, "name_planet")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Planet " + planet.Name + " has been added to your archive",
		"planet":  planet,
	})
}
