package handlers

import (
	"io"
	"net/http"

	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/infrastructure/paystack"
	"github.com/waste3d/courseplatform-api/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	payments *usecase.PaymentUseCase
}

func NewPaymentHandler(payments *usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type initializePaymentReq struct {
	PlanID string `json:"plan_id" binding:"required,uuid"`
}

// GET /payments/plans
func (h *PaymentHandler) Plans(c *gin.Context) {
	res, err := h.payments.Plans(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /payments/initialize
func (h *PaymentHandler) Initialize(c *gin.Context) {
	var req initializePaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.payments.Initialize(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.PlanID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /payments/verify/:reference
func (h *PaymentHandler) Verify(c *gin.Context) {
	res, err := h.payments.Verify(c.Request.Context(), middleware.CurrentUser(c), c.Param("reference"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /payments/history
func (h *PaymentHandler) History(c *gin.Context) {
	res, err := h.payments.History(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /webhook/paystack
//
// The signature covers the raw bytes, so the body is read as-is and never re-encoded.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, err)
		return
	}
	outcome, err := h.payments.HandleWebhook(c.Request.Context(), body, c.GetHeader(paystack.SignatureHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": outcome})
}
