package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/service"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// InstitutionHandler exposes tenant lifecycle endpoints.
type InstitutionHandler struct {
	institutions *service.InstitutionService
	auth         *service.AuthService
}

// NewInstitutionHandler constructs InstitutionHandler.
func NewInstitutionHandler(institutions *service.InstitutionService, auth *service.AuthService) *InstitutionHandler {
	return &InstitutionHandler{institutions: institutions, auth: auth}
}

// Create godoc
// @Summary Found an institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateInstitutionRequest true "Institution payload"
// @Success 201 {object} response.Envelope
// @Router /institutions [post]
func (h *InstitutionHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	inst, err := h.institutions.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	// The founder's existing token predates the binding, so sign a fresh one
	// carrying the new tenant. Without it every tenant route would keep
	// rejecting the founder until they logged in again.
	auth, err := h.auth.Reissue(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"institution": inst, "auth": auth})
}

// Get godoc
// @Summary Current institution
// @Tags Institutions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /institution [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	inst, err := h.institutions.Get(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// Rename godoc
// @Summary Rename the institution (founder only)
// @Tags Institutions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.RenameInstitutionRequest true "Rename payload"
// @Success 200 {object} response.Envelope
// @Router /institution [patch]
func (h *InstitutionHandler) Rename(c *gin.Context) {
	claims := claimsFromContext(c)

	var req service.RenameInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	inst, err := h.institutions.Rename(c.Request.Context(), claims.InstitutionID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}
