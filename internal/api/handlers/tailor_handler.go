package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rq1234/cv-tailor/internal/models"
	"github.com/rq1234/cv-tailor/internal/services"
	"github.com/rq1234/cv-tailor/internal/utils"
)

type TailorHandler struct {
	selection services.SelectionService
	tailor    services.TailorService
}

func NewTailorHandler(selection services.SelectionService, tailor services.TailorService) *TailorHandler {
	return &TailorHandler{selection: selection, tailor: tailor}
}

type SelectRequest struct {
	JD       *models.ParsedJD `json:"parsed_jd" binding:"required"`
	MaxPages int              `json:"max_pages"`
	Mode     string           `json:"selection_mode"` // library|latest_cv
}

func selectionMode(raw string) (services.SelectionMode, bool) {
	switch raw {
	case "", string(services.ModeLibrary):
		return services.ModeLibrary, true
	case string(services.ModeLatestCV):
		return services.ModeLatestCV, true
	default:
		return "", false
	}
}

// Select runs selection only: no rewriting, nothing persisted. Used to
// preview what a tailoring run would pick.
func (h *TailorHandler) Select(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TailorHandler.Select", "invalid request body", err))
		return
	}
	mode, ok := selectionMode(req.Mode)
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TailorHandler.Select", "selection_mode must be library or latest_cv", nil))
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = 1
	}

	result, err := h.selection.Select(c.Request.Context(), userID, req.JD, req.MaxPages, mode)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

type RunRequest struct {
	JD             *models.ParsedJD `json:"parsed_jd" binding:"required"`
	ApplicationID  *string          `json:"application_id"`
	MaxPages       int              `json:"max_pages"`
	Mode           string           `json:"selection_mode"`
	RewriteBullets bool             `json:"rewrite_bullets"`
}

// Run executes the full pipeline: select, rewrite, persist a version.
func (h *TailorHandler) Run(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TailorHandler.Run", "invalid request body", err))
		return
	}
	mode, ok := selectionMode(req.Mode)
	if !ok {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TailorHandler.Run", "selection_mode must be library or latest_cv", nil))
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = 1
	}

	result, err := h.tailor.Run(c.Request.Context(), userID, &services.TailorRequest{
		ApplicationID:  req.ApplicationID,
		JD:             req.JD,
		MaxPages:       req.MaxPages,
		Mode:           mode,
		RewriteBullets: req.RewriteBullets,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
