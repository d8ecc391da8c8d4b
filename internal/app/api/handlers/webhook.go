package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/memberlink/internal/app/service/membership"
	wh "github.com/fatflowers/memberlink/internal/app/service/webhook_handler"
	"github.com/fatflowers/memberlink/pkg/logctx"
	"github.com/fatflowers/memberlink/pkg/response"
	"github.com/fatflowers/memberlink/pkg/types"
)

// maxWebhookBody caps a single delivery; Whop payloads are a few KiB.
const maxWebhookBody = 1 << 20

type webhookHandler interface {
	HandleWebhook(ctx context.Context, provider types.Provider, headers http.Header, body []byte) (*wh.Result, error)
}

// WebhookAck is the body returned for every accepted delivery.
type WebhookAck struct {
	Success bool `json:"success"`
}

// @Summary      Whop Webhook
// @Description  Receives Whop membership events. The body must be the raw signed payload; svix-id, svix-timestamp and svix-signature headers are required.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body string true "Whop webhook payload"
// @Success      200  {object}  handlers.WebhookAck
// @Failure      400  {object}  response.ErrorBody
// @Failure      401  {object}  response.ErrorBody
// @Failure      500  {object}  response.ErrorBody
// @Router       /api/webhooks/whop [post]
// ApiWhopWebhook handles Whop membership webhooks
func ApiWhopWebhook(h webhookHandler, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logctx.FromGin(c, base)
		log.Infow("webhook_whop_received")

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
		if err != nil {
			log.Warnw("webhook_whop_read_failed", "err", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, response.NewErrorBody(response.CodeInvalidEvent, msgInvalidEvent))
			return
		}

		res, err := h.HandleWebhook(c.Request.Context(), types.ProviderWhop, c.Request.Header, body)
		if err != nil {
			if errors.Is(err, membership.ErrAuth) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.NewErrorBody(response.CodeUnauthorized, msgBadSignature))
				return
			}
			log.Errorw("webhook_whop_handle_error", "err", err)
			abortWithError(c, err)
			return
		}
		log.Infow("webhook_whop_handled", "event_type", res.EventType, "duplicate", res.Duplicate)
		c.JSON(http.StatusOK, WebhookAck{Success: true})
	}
}

func RegisterWebhookRoutes(r gin.IRouter, h *wh.WebhookHandler, log *zap.SugaredLogger) {
	// Mount under provided group, expected at "/api/webhooks"
	r.POST("/whop", ApiWhopWebhook(h, log))
}
