package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/services"
	"github.com/rq1234/cv-tailor/internal/utils"
)

type LibraryHandler struct {
	svc services.LibraryService
}

func NewLibraryHandler(svc services.LibraryService) *LibraryHandler {
	return &LibraryHandler{svc: svc}
}

// IngestResponse reports the stored id plus how dedup classified the entity
// against the existing pool.
type IngestResponse struct {
	ID    string                `json:"id"`
	Dedup *services.DedupResult `json:"dedup"`
}

func (h *LibraryHandler) AddExperience(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var e models.WorkExperience
	if err := c.ShouldBindJSON(&e); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LibraryHandler.AddExperience", "invalid request body", err))
		return
	}
	e.UserID = userID

	res, err := h.svc.AddExperience(c.Request.Context(), &e)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IngestResponse{ID: e.ID, Dedup: res})
}

func (h *LibraryHandler) AddProject(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var p models.Project
	if err := c.ShouldBindJSON(&p); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LibraryHandler.AddProject", "invalid request body", err))
		return
	}
	p.UserID = userID

	res, err := h.svc.AddProject(c.Request.Context(), &p)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IngestResponse{ID: p.ID, Dedup: res})
}

func (h *LibraryHandler) AddActivity(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var a models.Activity
	if err := c.ShouldBindJSON(&a); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "LibraryHandler.AddActivity", "invalid request body", err))
		return
	}
	a.UserID = userID

	res, err := h.svc.AddActivity(c.Request.Context(), &a)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, IngestResponse{ID: a.ID, Dedup: res})
}

type ReembedResponse struct {
	Queued int `json:"queued"`
}

// Reembed queues embedding backfill for every entity of the caller that has
// none yet.
func (h *LibraryHandler) Reembed(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	queued, err := h.svc.EnqueueReembed(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, ReembedResponse{Queued: queued})
}
