package supabase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"cakevision-backend/internal/models"
)

var ErrNotFound = errors.New("record not found")

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

// Profiles

func (d *DatabaseClient) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var p models.Profile
	err := d.db.QueryRowContext(ctx, `
		SELECT id, email, is_premium, premium_tier, is_admin, created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, userID).Scan(&p.ID, &p.Email, &p.IsPremium, &p.PremiumTier, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return &p, nil
}

func (d *DatabaseClient) SetPremium(ctx context.Context, userID uuid.UUID, tier string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE profiles
		SET is_premium = true, premium_tier = $1, updated_at = NOW()
		WHERE id = $2
	`, tier, userID)
	if err != nil {
		return fmt.Errorf("failed to set premium: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Generation tracking

// IncrementGenerationCount bumps the per-user-per-year counter in a single
// atomic upsert and returns the new count. Concurrent saves from the same
// user cannot under-count.
func (d *DatabaseClient) IncrementGenerationCount(ctx context.Context, userID uuid.UUID, year int) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO generation_tracking (user_id, year, count)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, year)
		DO UPDATE SET count = generation_tracking.count + 1, updated_at = NOW()
		RETURNING count
	`, userID, year).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment generation count: %w", err)
	}
	return count, nil
}

func (d *DatabaseClient) YearlyGenerationCount(ctx context.Context, userID uuid.UUID, year int) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `
		SELECT COALESCE(count, 0) FROM generation_tracking
		WHERE user_id = $1 AND year = $2
	`, userID, year).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get yearly generation count: %w", err)
	}
	return count, nil
}

func (d *DatabaseClient) LifetimeGenerationCount(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(count), 0) FROM generation_tracking
		WHERE user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get lifetime generation count: %w", err)
	}
	return count, nil
}

// Generated images

func (d *DatabaseClient) CreateGeneratedImage(ctx context.Context, img *models.GeneratedImage) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO generated_images (id, user_id, image_url, prompt, message, message_type, recipient_name, occasion, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, img.ID, img.UserID, img.ImageURL, img.Prompt, img.Message, img.MessageType,
		img.RecipientName, img.Occasion, img.Featured).Scan(&img.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create generated image: %w", err)
	}
	return nil
}

func (d *DatabaseClient) ListGeneratedImages(ctx context.Context, userID uuid.UUID) ([]models.GeneratedImage, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, user_id, image_url, prompt, message, message_type, recipient_name, occasion, featured, created_at
		FROM generated_images
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list generated images: %w", err)
	}
	defer rows.Close()

	var images []models.GeneratedImage
	for rows.Next() {
		var img models.GeneratedImage
		if err := rows.Scan(&img.ID, &img.UserID, &img.ImageURL, &img.Prompt, &img.Message,
			&img.MessageType, &img.RecipientName, &img.Occasion, &img.Featured, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generated image: %w", err)
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

func (d *DatabaseClient) SetImageFeatured(ctx context.Context, imageID, userID uuid.UUID, featured bool) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE generated_images
		SET featured = $1
		WHERE id = $2 AND user_id = $3
	`, featured, imageID, userID)
	if err != nil {
		return fmt.Errorf("failed to update featured flag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) DeleteGeneratedImage(ctx context.Context, imageID, userID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM generated_images
		WHERE id = $1 AND user_id = $2
	`, imageID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete generated image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Holiday sales

func (d *DatabaseClient) ListActiveSales(ctx context.Context, now time.Time) ([]models.HolidaySale, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, country, label, banner_text, emoji, start_date, end_date, active, priority, created_at, updated_at
		FROM holiday_sales
		WHERE active = true AND start_date <= $1 AND end_date >= $1
		ORDER BY priority DESC, start_date DESC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sales: %w", err)
	}
	defer rows.Close()

	return scanSales(rows)
}

func (d *DatabaseClient) ListSales(ctx context.Context) ([]models.HolidaySale, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, country, label, banner_text, emoji, start_date, end_date, active, priority, created_at, updated_at
		FROM holiday_sales
		ORDER BY priority DESC, start_date DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	return scanSales(rows)
}

func scanSales(rows *sql.Rows) ([]models.HolidaySale, error) {
	var sales []models.HolidaySale
	for rows.Next() {
		var s models.HolidaySale
		if err := rows.Scan(&s.ID, &s.Country, &s.Label, &s.BannerText, &s.Emoji,
			&s.StartDate, &s.EndDate, &s.Active, &s.Priority, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

func (d *DatabaseClient) CreateSale(ctx context.Context, s *models.HolidaySale) error {
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO holiday_sales (id, country, label, banner_text, emoji, start_date, end_date, active, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, s.ID, s.Country, s.Label, s.BannerText, s.Emoji, s.StartDate, s.EndDate, s.Active, s.Priority).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

func (d *DatabaseClient) UpdateSale(ctx context.Context, s *models.HolidaySale) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE holiday_sales
		SET country = $1, label = $2, banner_text = $3, emoji = $4,
		    start_date = $5, end_date = $6, active = $7, priority = $8, updated_at = NOW()
		WHERE id = $9
	`, s.Country, s.Label, s.BannerText, s.Emoji, s.StartDate, s.EndDate, s.Active, s.Priority, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update sale: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *DatabaseClient) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	res, err := d.db.ExecContext(ctx, `
		DELETE FROM holiday_sales
		WHERE id = $1
	`, saleID)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateExpiredSales flips off time-boxed sales past their end date.
// Open-ended fallback sales (end year >= 2099) are left untouched.
func (d *DatabaseClient) DeactivateExpiredSales(ctx context.Context, now time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE holiday_sales
		SET active = false, updated_at = NOW()
		WHERE active = true AND end_date < $1 AND date_part('year', end_date) < 2099
	`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired sales: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
