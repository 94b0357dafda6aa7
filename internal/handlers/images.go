package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cakevision-backend/internal/models"
	"cakevision-backend/internal/services"
	"cakevision-backend/internal/supabase"
)

type GalleryStore interface {
	ListGeneratedImages(ctx context.Context, userID uuid.UUID) ([]models.GeneratedImage, error)
	SetImageFeatured(ctx context.Context, imageID, userID uuid.UUID, featured bool) error
	DeleteGeneratedImage(ctx context.Context, imageID, userID uuid.UUID) error
}

type ImagesHandler struct {
	save  *services.SaveService
	store GalleryStore
	log   *slog.Logger
}

func NewImagesHandler(save *services.SaveService, store GalleryStore, log *slog.Logger) *ImagesHandler {
	return &ImagesHandler{
		save:  save,
		store: store,
		log:   log,
	}
}

// SaveImage godoc
// @Summary     Save a generated cake image
// @Description Persists a kept image to the user's gallery. The generated data URL is uploaded to durable storage first; on storage failure the ephemeral URL is kept. The yearly generation counter is incremented atomically.
// @Tags        images
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.SaveImageRequest true "Image to save"
// @Success     201 {object} models.ImageResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /images [post]
func (h *ImagesHandler) SaveImage(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var req models.SaveImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	img, err := h.save.Save(c.Request.Context(), userID, req)
	if err != nil {
		h.log.Error("failed to save image", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to save image"})
		return
	}

	c.JSON(http.StatusCreated, models.NewImageResponse(*img))
}

// ListImages godoc
// @Summary     List the user's gallery
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Success     200 {object} models.ImageListResponse
// @Failure     401 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /images [get]
func (h *ImagesHandler) ListImages(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	images, err := h.store.ListGeneratedImages(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to list images", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to list images"})
		return
	}

	resp := models.ImageListResponse{Images: make([]models.ImageResponse, 0, len(images))}
	for _, img := range images {
		resp.Images = append(resp.Images, models.NewImageResponse(img))
	}

	c.JSON(http.StatusOK, resp)
}

// FeatureImage godoc
// @Summary     Toggle the featured flag on a gallery image
// @Tags        images
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       image_id path string true "Image ID (UUID)"
// @Param       request body models.FeatureImageRequest true "Featured flag"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /images/{image_id}/featured [patch]
func (h *ImagesHandler) FeatureImage(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image id"})
		return
	}

	var req models.FeatureImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	if err := h.store.SetImageFeatured(c.Request.Context(), imageID, userID, req.Featured); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "image not found"})
			return
		}
		h.log.Error("failed to update image", "image_id", imageID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to update image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// DeleteImage godoc
// @Summary     Delete a gallery image
// @Tags        images
// @Produce     json
// @Security    Bearer
// @Param       image_id path string true "Image ID (UUID)"
// @Success     200 {object} map[string]string
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /images/{image_id} [delete]
func (h *ImagesHandler) DeleteImage(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "database not available"})
		return
	}

	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	imageID, err := uuid.Parse(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid image id"})
		return
	}

	if err := h.store.DeleteGeneratedImage(c.Request.Context(), imageID, userID); err != nil {
		if errors.Is(err, supabase.ErrNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "image not found"})
			return
		}
		h.log.Error("failed to delete image", "image_id", imageID, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "failed to delete image"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
