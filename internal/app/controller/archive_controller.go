package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/captains-log/internal/app/service"
	apperrors "github.com/ikkim/captains-log/internal/errors"
	"github.com/ikkim/captains-log/internal/middleware"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ArchiveController struct {
	archiveService service.ArchiveService
	logbookService service.LogbookService
}

func NewArchiveController(archiveService service.ArchiveService, logbookService service.LogbookService) *ArchiveController {
	return &ArchiveController{
		archiveService: archiveService,
		logbookService: logbookService,
	}
}

type RenamePlanetRequest struct {
	Name string `json:"name"`
}

type EditDiscoveryRequest struct {
	Description string `json:"description"`
}

func (ctrl *ArchiveController) respondError(c *gin.Context, err error, action string) {
	if respondValidation(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrPlanetNotFound):
		apperrors.NotFound(c, apperrors.ArchivePlanetNotFound, "Planet not found")
	case errors.Is(err, service.ErrPlanetForbidden):
		apperrors.Forbidden(c, "That planet belongs to another explorer")
	case errors.Is(err, service.ErrPlanetNotArchived):
		apperrors.Conflict(c, apperrors.ArchiveNotArchived, "Finish exploring the planet before changing it")
	case errors.Is(err, service.ErrDiscoveryNotFound):
		apperrors.NotFound(c, apperrors.ArchiveDiscoveryNotFound, "Discovery not found")
	default:
		middleware.GetLoggerFromContext(c).Error("Archive request failed", err, map[string]interface{}{
			"action": action,
		})
		apperrors.InternalError(c, "")
	}
}

// List returns the user's archived planets, newest first
// GET /api/v1/archive
func (ctrl *ArchiveController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	summaries, err := ctrl.archiveService.ListArchived(userID)
	if err != nil {
		ctrl.respondError(c, err, "list")
		return
	}

	planets := make([]gin.H, 0, len(summaries))
	for _, s := range summaries {
		planets = append(planets, gin.H{
			"id":              s.Planet.ID,
			"name":            s.Planet.Name,
			"archived_at":     s.Planet.ArchivedAt,
			"discovery_count": s.DiscoveryCount,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"planets": planets,
		"count":   len(planets),
	})
}

// Export downloads the archive as a spreadsheet
// GET /api/v1/archive/export
func (ctrl *ArchiveController) Export(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	f, err := ctrl.logbookService.Export(userID)
	if err != nil {
		ctrl.respondError(c, err, "export")
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		ctrl.respondError(c, err, "export")
		return
	}

	filename := fmt.Sprintf("captains-log-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Get shows one planet with its discoveries
// GET /api/v1/archive/:planet_id
func (ctrl *ArchiveController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planetID, ok := planetIDParam(c)
	if !ok {
		return
	}

	detail, err := ctrl.archiveService.GetPlanet(userID, planetID)
	if err != nil {
		ctrl.respondError(c, err, "get")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Rename changes the name of an archived planet
// POST /api/v1/archive/:planet_id/rename
func (ctrl *ArchiveController) Rename(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planetID, ok := planetIDParam(c)
	if !ok {
		return
	}

	var req RenamePlanetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "name must be text")
		return
	}

	planet, err := ctrl.archiveService.RenamePlanet(userID, planetID, service.NameInput{Name: req.Name})
	if err != nil {
		ctrl.respondError(c, err, "rename")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Your planet has been renamed",
		"planet":  planet,
	})
}

// Delete removes an archived planet and its discoveries
// POST /api/v1/archive/:planet_id/delete
func (ctrl *ArchiveController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	planetID, ok := planetIDParam(c)
	if !ok {
		return
	}

	if err := ctrl.archiveService.DeletePlanet(userID, planetID); err != nil {
		ctrl.respondError(c, err, "delete")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Your planet has been deleted"})
}

// EditDiscovery rewrites the description of one discovery
// POST /api/v1/archive/:planet_id/discoveries/:number/edit
func (ctrl *ArchiveController) EditDiscovery(c *gin.Context) {
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

	var req EditDiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "description must be text")
		return
	}

	discovery, err := ctrl.archiveService.EditDiscovery(userID, planetID, number, service.LogInput{Description: req.Description})
	if err != nil {
		ctrl.respondError(c, err, "edit_discovery")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Your discovery has been updated",
		"discovery": discovery,
	})
}
