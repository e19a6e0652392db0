package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mentoria-app/mentoria-api/internal/middleware"
	"github.com/mentoria-app/mentoria-api/internal/models"
	"github.com/mentoria-app/mentoria-api/internal/service"
	appErrors "github.com/mentoria-app/mentoria-api/pkg/errors"
	"github.com/mentoria-app/mentoria-api/pkg/response"
)

// IdentityHandler exposes identity resolution and role linking endpoints.
type IdentityHandler struct {
	identity *service.IdentityService
	auth     *service.AuthService
}

// NewIdentityHandler constructs IdentityHandler.
func NewIdentityHandler(identity *service.IdentityService, auth *service.AuthService) *IdentityHandler {
	return &IdentityHandler{identity: identity, auth: auth}
}

type resolveRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type resolveResponse struct {
	Found      bool               `json:"found"`
	Resolution *models.Resolution `json:"resolution,omitempty"`
}

type linkRequest struct {
	AccountID int         `json:"account_id"`
	Role      models.Role `json:"role" binding:"required"`
	EntityID  int         `json:"entity_id" binding:"required"`
	Force     bool        `json:"force"`
}

type linkResponse struct {
	Account *models.Account       `json:"account"`
	Token   *models.TokenResponse `json:"token,omitempty"`
}

// Resolve godoc
// @Summary Resolve a phone number to a role-tagged record
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body resolveRequest true "Phone to resolve"
// @Success 200 {object} response.Envelope
// @Router /identity/resolve [post]
func (h *IdentityHandler) Resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	resolution, err := h.identity.Resolve(c.Request.Context(), req.Phone)
	if err != nil {
		// an exhausted lookup chain is a normal onboarding outcome, not
		// a failure of the endpoint
		if appErrors.Is(err, appErrors.ErrNotFound) {
			response.JSON(c, http.StatusOK, resolveResponse{Found: false}, nil)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolveResponse{Found: true, Resolution: resolution}, nil)
}

// Link godoc
// @Summary Link a resolved role onto an account
// @Tags Identity
// @Accept json
// @Produce json
// @Param payload body linkRequest true "Link payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /identity/link [post]
func (h *IdentityHandler) Link(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	accountID := req.AccountID
	if accountID == 0 {
		accountID = claims.AccountID
	}
	// only administrators relink other accounts or override an existing
	// verified role
	if (accountID != claims.AccountID || req.Force) && claims.Role != models.RoleAdmin {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	account, err := h.identity.Link(c.Request.Context(), accountID, req.Role, req.EntityID, req.Force)
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := linkResponse{Account: account}
	// self-link: reissue the token so the new role takes effect without a
	// fresh sign-in
	if accountID == claims.AccountID {
		if token, err := h.auth.IssueToken(account); err == nil {
			resp.Token = token
		}
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
