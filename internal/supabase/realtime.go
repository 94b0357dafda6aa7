package supabase

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

// RealtimeClient publishes per-user events consumed by the web app over
// Supabase Realtime.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	// The Go client has no direct Realtime publish; row changes on
	// generated_images and profiles already fan out through Supabase's
	// postgres_changes channels, so explicit publishes are a no-op hook
	// kept for a future REST-based broadcast.
	return nil
}

func (r *RealtimeClient) PublishUserEvent(userID uuid.UUID, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID.String())
	return r.PublishEvent(channel, event, payload)
}

func ImageSavedPayload(userID, imageID uuid.UUID, imageURL string) map[string]interface{} {
	return map[string]interface{}{
		"user_id":   userID.String(),
		"image_id":  imageID.String(),
		"image_url": imageURL,
		"status":    "saved",
	}
}

func PremiumActivatedPayload(userID uuid.UUID, tier string) map[string]interface{} {
	return map[string]interface{}{
		"user_id": userID.String(),
		"tier":    tier,
		"status":  "premium_activated",
	}
}
