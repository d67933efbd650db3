package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/service"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// InviteHandler exposes invite issuance and redemption endpoints.
type InviteHandler struct {
	invites *service.InviteService
	auth    *service.AuthService
}

// NewInviteHandler constructs InviteHandler.
func NewInviteHandler(invites *service.InviteService, auth *service.AuthService) *InviteHandler {
	return &InviteHandler{invites: invites, auth: auth}
}

// Create godoc
// @Summary Issue an invite
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateInviteRequest true "Invite payload"
// @Success 201 {object} response.Envelope
// @Router /invites [post]
func (h *InviteHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)

	var req service.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	invite, err := h.invites.Create(c.Request.Context(), claims.InstitutionID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invite)
}

// List godoc
// @Summary List issued invites
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /invites [get]
func (h *InviteHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	invites, err := h.invites.List(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, invites, nil)
}

// Delete godoc
// @Summary Revoke an invite
// @Tags Invites
// @Security BearerAuth
// @Param id path string true "Invite token"
// @Success 204
// @Router /invites/{id} [delete]
func (h *InviteHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.invites.Delete(c.Request.Context(), claims.InstitutionID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Redeem godoc
// @Summary Redeem an invite token
// @Tags Invites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body handler.redeemRequest true "Token payload"
// @Success 200 {object} response.Envelope
// @Router /invites/redeem [post]
func (h *InviteHandler) Redeem(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}

	user, err := h.invites.Redeem(c.Request.Context(), claims.UserID, req.Token)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Issue a fresh token carrying the new tenant binding.
	resp, err := h.auth.TokenFor(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

type redeemRequest struct {
	Token string `json:"token"`
}
