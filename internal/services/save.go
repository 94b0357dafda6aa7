package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cakevision-backend/internal/models"
	"cakevision-backend/internal/supabase"
)

type ImageStore interface {
	CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error
	IncrementGenerationCount(ctx context.Context, userID uuid.UUID, year int) (int, error)
}

type ImageStorage interface {
	UploadImage(userID, imageID uuid.UUID, data []byte, contentType string) (string, string, error)
}

type EventPublisher interface {
	PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error
}

// SaveService persists a kept cake image: the generated data URL is routed
// through object storage for a durable public URL, the gallery row is
// written, and the per-year generation counter is bumped atomically. Storage
// failures fall back to the ephemeral data URL so a save never fails on the
// storage leg alone.
type SaveService struct {
	store   ImageStore
	storage ImageStorage
	events  EventPublisher
	log     *slog.Logger
	now     func() time.Time
}

func NewSaveService(store ImageStore, storage ImageStorage, events EventPublisher, log *slog.Logger) *SaveService {
	return &SaveService{
		store:   store,
		storage: storage,
		events:  events,
		log:     log,
		now:     time.Now,
	}
}

func (s *SaveService) Save(ctx context.Context, userID uuid.UUID, req models.SaveImageRequest) (*models.GeneratedImage, error) {
	imageID := uuid.New()
	imageURL := req.ImageURL

	if data, contentType, ok := decodeDataURL(req.ImageURL); ok && s.storage != nil {
		_, publicURL, err := s.storage.UploadImage(userID, imageID, data, contentType)
		if err != nil {
			s.log.Warn("image storage upload failed, keeping ephemeral url", "user_id", userID, "error", err)
		} else {
			imageURL = publicURL
		}
	}

	messageType := req.MessageType
	if messageType == "" {
		messageType = "ai"
	}

	img := &models.GeneratedImage{
		ID:          imageID,
		UserID:      userID,
		ImageURL:    imageURL,
		Prompt:      req.Prompt,
		MessageType: messageType,
	}
	if req.Message != "" {
		img.Message = sql.NullString{String: req.Message, Valid: true}
	}
	if req.RecipientName != "" {
		img.RecipientName = sql.NullString{String: req.RecipientName, Valid: true}
	}
	if req.Occasion != "" {
		img.Occasion = sql.NullString{String: req.Occasion, Valid: true}
	}

	if err := s.store.CreateGeneratedImage(ctx, img); err != nil {
		return nil, err
	}

	if _, err := s.store.IncrementGenerationCount(ctx, userID, s.now().UTC().Year()); err != nil {
		// The image row exists; a lost increment only under-counts quota
		// usage in the user's favor. Log and move on.
		s.log.Error("failed to increment generation count", "user_id", userID, "error", err)
	}

	if s.events != nil {
		if err := s.events.PublishUserEvent(userID, "image_saved", supabase.ImageSavedPayload(userID, imageID, imageURL)); err != nil {
			s.log.Warn("failed to publish image_saved event", "user_id", userID, "error", err)
		}
	}

	return img, nil
}

// decodeDataURL splits a "data:<mime>;base64,<payload>" URL into raw bytes
// and content type. Anything else (including plain https URLs) returns
// ok=false and is stored as-is.
func decodeDataURL(url string) ([]byte, string, bool) {
	if !strings.HasPrefix(url, "data:") {
		return nil, "", false
	}

	meta, payload, found := strings.Cut(url, ",")
	if !found {
		return nil, "", false
	}

	contentType := "image/png"
	meta = strings.TrimPrefix(meta, "data:")
	if mime, enc, ok := strings.Cut(meta, ";"); ok && enc == "base64" && mime != "" {
		contentType = mime
	} else if !ok || enc != "base64" {
		return nil, "", false
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", false
	}

	return data, contentType, true
}
