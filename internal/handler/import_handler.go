package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/service"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/response"
)

// ImportHandler exposes the bulk roster import endpoint.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

type importRequest struct {
	Rows   []models.ImportRow `json:"rows" binding:"required"`
	Offset int                `json:"offset"`
}

// Import godoc
// @Summary Import a third-party roster in resumable batches
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body importRequest true "Roster rows and resume offset"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /imports/roster [post]
func (h *ImportHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	report, err := h.imports.Import(c.Request.Context(), req.Rows, req.Offset)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
