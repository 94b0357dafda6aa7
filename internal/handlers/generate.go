package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cakevision-backend/internal/gateway"
	"cakevision-backend/internal/middleware"
	"cakevision-backend/internal/models"
	"cakevision-backend/internal/prompt"
	"cakevision-backend/internal/services"
)

type GenerateHandler struct {
	gateway      *gateway.Client
	entitlements *services.EntitlementService
	timeout      time.Duration
	log          *slog.Logger
}

func NewGenerateHandler(gw *gateway.Client, entitlements *services.EntitlementService, timeout time.Duration, log *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		gateway:      gw,
		entitlements: entitlements,
		timeout:      timeout,
		log:          log,
	}
}

// userIDFromContext parses the user id the auth middleware stored.
func userIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "user id not found"})
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid user id"})
		return uuid.Nil, false
	}
	return userID, true
}

// Generate godoc
// @Summary     Generate personalized cake images
// @Description Renders every camera view for the requested cake style plus an AI greeting message, or regenerates a single view when specificView is set. The batch is all-or-nothing: any failing view fails the request.
// @Tags        cakes
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.GenerateCakeRequest true "Cake attributes"
// @Success     200 {object} models.GenerateCakeResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     403 {object} models.ErrorResponse
// @Failure     429 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /cakes/generate [post]
func (h *GenerateHandler) Generate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.GenerateCakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.entitlements.CheckGeneration(c.Request.Context(), userID, req.Character); err != nil {
		switch {
		case errors.Is(err, services.ErrPremiumRequired):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "This character requires a premium subscription"})
		case errors.Is(err, services.ErrQuotaExceeded):
			c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Generation limit reached for your plan"})
		default:
			h.log.Error("entitlement check failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, models.GenerateErrorResponse{Error: "failed to verify account entitlements"})
		}
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if req.SpecificView != "" {
		h.regenerateView(c, ctx, req)
		return
	}

	h.generateBatch(c, ctx, req)
}

func (h *GenerateHandler) regenerateView(c *gin.Context, ctx context.Context, req models.GenerateCakeRequest) {
	view := req.SpecificView
	style := prompt.ViewStyle(view, req.Style())

	image, err := h.gateway.GenerateImage(ctx, gateway.GenerateImageRequest{
		Prompt:      prompt.Build(req, view),
		PhotoBase64: photoFor(req, view),
		Quality:     req.Quality,
	})
	if err != nil {
		h.respondGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.RegenerateViewResponse{
		RegeneratedImage: image,
		ViewIndex:        prompt.ViewIndex(view, style),
		ViewName:         view,
		ViewStyle:        style,
	})
}

func (h *GenerateHandler) generateBatch(c *gin.Context, ctx context.Context, req models.GenerateCakeRequest) {
	views := prompt.ViewsFor(req.Style(), req.Character)

	images := make([]string, len(views))
	var greeting string

	g, gctx := errgroup.WithContext(ctx)
	for i, view := range views {
		i, view := i, view
		g.Go(func() error {
			image, err := h.gateway.GenerateImage(gctx, gateway.GenerateImageRequest{
				Prompt:      prompt.Build(req, view),
				PhotoBase64: photoFor(req, view),
				Quality:     req.Quality,
			})
			if err != nil {
				return err
			}
			images[i] = image
			return nil
		})
	}
	g.Go(func() error {
		message, err := h.gateway.GenerateMessage(gctx, prompt.BuildMessage(req))
		if err != nil {
			return err
		}
		greeting = message
		return nil
	})

	if err := g.Wait(); err != nil {
		h.respondGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateCakeResponse{
		Success:            true,
		Images:             images,
		ImageLabels:        prompt.Labels(views),
		GenerateBothStyles: req.Character != "",
		GreetingMessage:    greeting,
	})
}

// photoFor returns the user photo only for the top-down view, the one that
// carries the edible photo print.
func photoFor(req models.GenerateCakeRequest, view string) string {
	if view == prompt.ViewTop {
		return req.UserPhotoBase64
	}
	return ""
}

func (h *GenerateHandler) respondGenerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gateway.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, models.ErrorResponse{
			Error: "Rate limit exceeded. Please try again in a few moments.",
		})
	case errors.Is(err, gateway.ErrCreditsExhausted):
		c.JSON(http.StatusInternalServerError, models.GenerateErrorResponse{
			Error: "Image generation credits exhausted",
		})
	default:
		h.log.Error("generation failed", "error", err)
		c.JSON(http.StatusInternalServerError, models.GenerateErrorResponse{
			Error: "Failed to generate cake images",
		})
	}
}
