package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	ID          uuid.UUID
	Email       sql.NullString
	IsPremium   bool
	PremiumTier sql.NullString
	IsAdmin     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type GeneratedImage struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	ImageURL      string
	Prompt        string
	Message       sql.NullString
	MessageType   string
	RecipientName sql.NullString
	Occasion      sql.NullString
	Featured      bool
	CreatedAt     time.Time
}

// GenerationTracking holds one row per (user, year). The count only ever
// goes up; increments happen through a single conditional upsert.
type GenerationTracking struct {
	UserID    uuid.UUID
	Year      int
	Count     int
	UpdatedAt time.Time
}

type HolidaySale struct {
	ID         uuid.UUID
	Country    sql.NullString
	Label      string
	BannerText string
	Emoji      string
	StartDate  time.Time
	EndDate    time.Time
	Active     bool
	Priority   int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// defaultSaleYear marks open-ended fallback sales. A sale ending in or after
// this year is rendered as a "limited spots" banner rather than a countdown.
const defaultSaleYear = 2099

func (s HolidaySale) IsDefault() bool {
	return s.EndDate.Year() >= defaultSaleYear
}
