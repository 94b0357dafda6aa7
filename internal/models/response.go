package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// GenerateErrorResponse is the failure shape of the generation endpoint,
// which always carries an explicit success flag.
type GenerateErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type GenerateCakeResponse struct {
	Success            bool     `json:"success"`
	Images             []string `json:"images"`
	ImageLabels        []string `json:"imageLabels"`
	GenerateBothStyles bool     `json:"generateBothStyles"`
	GreetingMessage    string   `json:"greetingMessage"`
}

type RegenerateViewResponse struct {
	RegeneratedImage string `json:"regeneratedImage"`
	ViewIndex        int    `json:"viewIndex"`
	ViewName         string `json:"viewName"`
	ViewStyle        string `json:"viewStyle"`
}

type ImageResponse struct {
	ID            string    `json:"id"`
	ImageURL      string    `json:"image_url"`
	Prompt        string    `json:"prompt"`
	Message       string    `json:"message,omitempty"`
	MessageType   string    `json:"message_type"`
	RecipientName string    `json:"recipient_name,omitempty"`
	Occasion      string    `json:"occasion,omitempty"`
	Featured      bool      `json:"featured"`
	CreatedAt     time.Time `json:"created_at"`
}

type ImageListResponse struct {
	Images []ImageResponse `json:"images"`
}

type ProfileResponse struct {
	ID             string `json:"id"`
	Email          string `json:"email,omitempty"`
	IsPremium      bool   `json:"is_premium"`
	PremiumTier    string `json:"premium_tier,omitempty"`
	YearlyCount    int    `json:"yearly_count"`
	LifetimeCount  int    `json:"lifetime_count"`
	RemainingQuota int    `json:"remaining_quota"`
}

type SaleResponse struct {
	ID         string    `json:"id"`
	Country    string    `json:"country,omitempty"`
	Label      string    `json:"label"`
	BannerText string    `json:"banner_text"`
	Emoji      string    `json:"emoji,omitempty"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Active     bool      `json:"active"`
	Priority   int       `json:"priority"`
	// "countdown" for time-boxed campaigns, "limited_spots" for the
	// open-ended fallback sale.
	DisplayMode string `json:"display_mode"`
}

type ActiveSaleResponse struct {
	Sale *SaleResponse `json:"sale"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func NewSaleResponse(s HolidaySale) SaleResponse {
	resp := SaleResponse{
		ID:         s.ID.String(),
		Label:      s.Label,
		BannerText: s.BannerText,
		Emoji:      s.Emoji,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
		Active:     s.Active,
		Priority:   s.Priority,
	}
	if s.Country.Valid {
		resp.Country = s.Country.String
	}
	if s.IsDefault() {
		resp.DisplayMode = "limited_spots"
	} else {
		resp.DisplayMode = "countdown"
	}
	return resp
}

func NewImageResponse(img GeneratedImage) ImageResponse {
	resp := ImageResponse{
		ID:          img.ID.String(),
		ImageURL:    img.ImageURL,
		Prompt:      img.Prompt,
		MessageType: img.MessageType,
		Featured:    img.Featured,
		CreatedAt:   img.CreatedAt,
	}
	if img.Message.Valid {
		resp.Message = img.Message.String
	}
	if img.RecipientName.Valid {
		resp.RecipientName = img.RecipientName.String
	}
	if img.Occasion.Valid {
		resp.Occasion = img.Occasion.String
	}
	return resp
}
