package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cakevision-backend/internal/models"
	"cakevision-backend/internal/services"
)

type ProfilesHandler struct {
	entitlements *services.EntitlementService
	log          *slog.Logger
}

func NewProfilesHandler(entitlements *services.EntitlementService, log *slog.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		entitlements: entitlements,
		log:          log,
	}
}

// GetProfile godoc
// @Summary     Get profile and quota usage
// @Description Returns the user's tier plus yearly/lifetime generation counts and remaining quota.
// @Tags        profiles
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ProfileResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /profile [get]
func (h *ProfilesHandler) GetProfile(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	usage, err := h.entitlements.Usage(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load profile usage", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, usage)
}
