package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linguahub/institute-api/internal/models"
	"github.com/linguahub/institute-api/internal/service"
	appErrors "github.com/linguahub/institute-api/pkg/errors"
	"github.com/linguahub/institute-api/pkg/response"
)

// MessagingHandler exposes SMS, WhatsApp and email dispatch endpoints.
type MessagingHandler struct {
	messaging *service.MessagingService
	metrics   *service.MetricsService
}

// NewMessagingHandler constructs MessagingHandler.
func NewMessagingHandler(messaging *service.MessagingService, metrics *service.MetricsService) *MessagingHandler {
	return &MessagingHandler{messaging: messaging, metrics: metrics}
}

// SendSMS godoc
// @Summary Send a single SMS
// @Tags Messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SMSRequest true "Message payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/sms [post]
func (h *MessagingHandler) SendSMS(c *gin.Context) {
	var req models.SMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	sid, err := h.messaging.SendSMS(c.Request.Context(), req)
	h.observe("sms", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message_id": sid}, nil)
}

// SendWhatsApp godoc
// @Summary Send a single WhatsApp message
// @Tags Messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SMSRequest true "Message payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/whatsapp [post]
func (h *MessagingHandler) SendWhatsApp(c *gin.Context) {
	var req models.SMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	sid, err := h.messaging.SendWhatsApp(c.Request.Context(), req)
	h.observe("whatsapp", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"message_id": sid}, nil)
}

// SendBulk godoc
// @Summary Send a message to up to 100 recipients
// @Tags Messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.BulkSMSRequest true "Bulk payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/bulk [post]
func (h *MessagingHandler) SendBulk(c *gin.Context) {
	var req models.BulkSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	summary, err := h.messaging.SendBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.metrics != nil {
		for _, r := range summary.Results {
			h.metrics.ObserveDispatch(req.Channel, r.Success)
		}
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// SendEmail godoc
// @Summary Send an email
// @Tags Messaging
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.EmailRequest true "Email payload"
// @Success 200 {object} response.Envelope
// @Router /notifications/email [post]
func (h *MessagingHandler) SendEmail(c *gin.Context) {
	var req models.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	err := h.messaging.SendEmail(c.Request.Context(), req)
	h.observe("email", err)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"sent": true}, nil)
}

func (h *MessagingHandler) observe(channel string, err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.ObserveDispatch(channel, err == nil)
}
