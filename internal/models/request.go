package models

import "time"

type GenerateCakeRequest struct {
	Name            string `json:"name" binding:"required,min=1,max=50"`
	Occasion        string `json:"occasion" binding:"required,min=1,max=50"`
	Relation        string `json:"relation" binding:"required,min=1,max=50"`
	Gender          string `json:"gender" binding:"required,min=1,max=20"`
	Character       string `json:"character,omitempty" binding:"omitempty,max=50"`
	CakeStyle       string `json:"cakeStyle,omitempty" binding:"omitempty,oneof=decorated sculpted"`
	CakeType        string `json:"cakeType,omitempty" binding:"omitempty,max=100"`
	Layers          string `json:"layers,omitempty" binding:"omitempty,max=100"`
	Theme           string `json:"theme,omitempty" binding:"omitempty,max=100"`
	Colors          string `json:"colors,omitempty" binding:"omitempty,max=100"`
	UserPhotoBase64 string `json:"userPhotoBase64,omitempty" binding:"omitempty,max=5000000"`
	SpecificView    string `json:"specificView,omitempty" binding:"omitempty,oneof=front side top main"`
	Quality         string `json:"quality,omitempty" binding:"omitempty,oneof=fast high"`
}

// Style returns the requested cake style, defaulting to "decorated".
func (r GenerateCakeRequest) Style() string {
	if r.CakeStyle == "" {
		return "decorated"
	}
	return r.CakeStyle
}

type SaveImageRequest struct {
	ImageURL      string `json:"image_url" binding:"required"`
	Prompt        string `json:"prompt" binding:"required"`
	Message       string `json:"message,omitempty"`
	MessageType   string `json:"message_type,omitempty" binding:"omitempty,oneof=ai custom"`
	RecipientName string `json:"recipient_name,omitempty" binding:"omitempty,max=50"`
	Occasion      string `json:"occasion,omitempty" binding:"omitempty,max=50"`
}

type FeatureImageRequest struct {
	Featured bool `json:"featured"`
}

type SaleRequest struct {
	Country    string    `json:"country,omitempty" binding:"omitempty,len=2"`
	Label      string    `json:"label" binding:"required,max=100"`
	BannerText string    `json:"banner_text" binding:"required,max=200"`
	Emoji      string    `json:"emoji,omitempty" binding:"omitempty,max=8"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	Active     bool      `json:"active"`
	Priority   int       `json:"priority"`
}

type PaymentWebhookEvent struct {
	Event  string `json:"event"`
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
	Email  string `json:"email,omitempty"`
}
