package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"cleanbag-service/internal/payment"
)

const signatureHeader = "X-Cleanbag-Signature"

// paymentsWebhook receives provider callbacks. The endpoint is outside the
// JWT group: the HMAC signature over the raw body is the authentication.
func (h *Handler) paymentsWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("unreadable body"))
		return
	}

	if err := payment.VerifySignature(h.webhookSecret, body, c.GetHeader(signatureHeader)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("invalid signature"))
		return
	}

	var event payment.Event
	if err := json.Unmarshal(body, &event); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid payload"))
		return
	}

	if err := h.orderService.HandlePaymentEvent(c.Request.Context(), event); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "received"}))
}
