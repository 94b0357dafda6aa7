package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cakevision-backend/internal/config"
	"cakevision-backend/internal/mailer"
	"cakevision-backend/internal/models"
	"cakevision-backend/internal/supabase"
)

type PremiumStore interface {
	SetPremium(ctx context.Context, userID uuid.UUID, tier string) error
}

// PaymentsWebhookHandler receives checkout notifications from the payment
// gateway. Payment capture and signature verification happen at the gateway;
// this endpoint only trusts a shared token and flips the premium flag.
type PaymentsWebhookHandler struct {
	config   *config.Config
	store    PremiumStore
	mailer   *mailer.Client
	realtime *supabase.RealtimeClient
	log      *slog.Logger
}

func NewPaymentsWebhookHandler(cfg *config.Config, store PremiumStore, mail *mailer.Client, realtime *supabase.RealtimeClient, log *slog.Logger) *PaymentsWebhookHandler {
	return &PaymentsWebhookHandler{
		config:   cfg,
		store:    store,
		mailer:   mail,
		realtime: realtime,
		log:      log,
	}
}

// HandleWebhook godoc
// @Summary     Payment gateway webhook
// @Description Activates premium entitlements on checkout.completed events. Authenticated with the shared webhook token, not a user JWT.
// @Tags        webhooks
// @Accept      json
// @Produce     json
// @Param       Authorization header string true "Shared webhook token"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Router      /webhooks/payments [post]
func (h *PaymentsWebhookHandler) HandleWebhook(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "missing authorization token"})
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if h.config.PaymentWebhookToken == "" || token != h.config.PaymentWebhookToken {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "invalid authorization token"})
		return
	}

	var event models.PaymentWebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse event",
			Message: err.Error(),
		})
		return
	}

	if event.Event != "checkout.completed" {
		// Other event types are acknowledged and ignored.
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id in event"})
		return
	}

	tier := event.Tier
	if tier != "lifetime" {
		tier = "monthly"
	}

	if err := h.store.SetPremium(c.Request.Context(), userID, tier); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "unknown user"})
			return
		}
		h.log.Error("failed to activate premium", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to activate premium"})
		return
	}

	h.log.Info("premium activated", "user_id", userID, "tier", tier)

	if h.realtime != nil {
		h.realtime.PublishUserEvent(userID, "premium_activated",
			supabase.PremiumActivatedPayload(userID, tier))
	}

	if event.Email != "" {
		go func(to, tier string) {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.mailer.SendPremiumWelcome(ctx, to, tier); err != nil {
				h.log.Warn("failed to send premium welcome email", "error", err)
			}
		}(event.Email, tier)
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
