package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentoria-app/mentoria-api/internal/service"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/response"
)

// ExchangeHandler exposes the course exchange endpoint.
type ExchangeHandler struct {
	exchanges *service.ExchangeService
}

// NewExchangeHandler constructs ExchangeHandler.
func NewExchangeHandler(exchanges *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchanges: exchanges}
}

// Exchange godoc
// @Summary Move a student between classes
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.ExchangeRequest true "Exchange payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /enrollments/exchange [post]
func (h *ExchangeHandler) Exchange(c *gin.Context) {
	var req service.ExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.exchanges.Exchange(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
