package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cakevision-backend/internal/models"
	"cakevision-backend/internal/supabase"
)

var (
	ErrQuotaExceeded   = errors.New("generation quota exceeded")
	ErrPremiumRequired = errors.New("premium subscription required")
)

// premiumCharacters lists the character selections reserved for premium
// accounts. Membership is checked server-side before any gateway call so a
// modified client cannot bypass the gate.
var premiumCharacters = map[string]bool{
	"superhero": true,
	"princess":  true,
	"mermaid":   true,
	"astronaut": true,
	"dragon":    true,
	"unicorn":   true,
	"pirate":    true,
	"wizard":    true,
}

type EntitlementStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	YearlyGenerationCount(ctx context.Context, userID uuid.UUID, year int) (int, error)
	LifetimeGenerationCount(ctx context.Context, userID uuid.UUID) (int, error)
}

// EntitlementService is the authoritative quota and premium gate. Premium
// accounts get a per-calendar-year ceiling; free accounts a lifetime one.
type EntitlementService struct {
	store        EntitlementStore
	freeLimit    int
	premiumLimit int
	log          *slog.Logger
	now          func() time.Time
}

func NewEntitlementService(store EntitlementStore, freeLimit, premiumLimit int, log *slog.Logger) *EntitlementService {
	return &EntitlementService{
		store:        store,
		freeLimit:    freeLimit,
		premiumLimit: premiumLimit,
		log:          log,
		now:          time.Now,
	}
}

func IsPremiumCharacter(character string) bool {
	return premiumCharacters[strings.ToLower(strings.TrimSpace(character))]
}

// CheckGeneration verifies the user may start a generation request. A
// missing profile row is treated as a free-tier account.
func (s *EntitlementService) CheckGeneration(ctx context.Context, userID uuid.UUID, character string) error {
	if s.store == nil {
		return errors.New("database not available")
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, supabase.ErrNotFound) {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	isPremium := profile != nil && profile.IsPremium

	if character != "" && IsPremiumCharacter(character) && !isPremium {
		return ErrPremiumRequired
	}

	if isPremium {
		count, err := s.store.YearlyGenerationCount(ctx, userID, s.now().UTC().Year())
		if err != nil {
			return fmt.Errorf("failed to load yearly count: %w", err)
		}
		if count >= s.premiumLimit {
			return ErrQuotaExceeded
		}
		return nil
	}

	count, err := s.store.LifetimeGenerationCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load lifetime count: %w", err)
	}
	if count >= s.freeLimit {
		return ErrQuotaExceeded
	}
	return nil
}

// Usage reports the tier and counters shown on the profile page.
func (s *EntitlementService) Usage(ctx context.Context, userID uuid.UUID) (*models.ProfileResponse, error) {
	if s.store == nil {
		return nil, errors.New("database not available")
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil && !errors.Is(err, supabase.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	resp := &models.ProfileResponse{ID: userID.String()}
	if profile != nil {
		resp.IsPremium = profile.IsPremium
		if profile.Email.Valid {
			resp.Email = profile.Email.String
		}
		if profile.PremiumTier.Valid {
			resp.PremiumTier = profile.PremiumTier.String
		}
	}

	yearly, err := s.store.YearlyGenerationCount(ctx, userID, s.now().UTC().Year())
	if err != nil {
		return nil, fmt.Errorf("failed to load yearly count: %w", err)
	}
	lifetime, err := s.store.LifetimeGenerationCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load lifetime count: %w", err)
	}

	resp.YearlyCount = yearly
	resp.LifetimeCount = lifetime
	if resp.IsPremium {
		resp.RemainingQuota = max(s.premiumLimit-yearly, 0)
	} else {
		resp.RemainingQuota = max(s.freeLimit-lifetime, 0)
	}

	return resp, nil
}
