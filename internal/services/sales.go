package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cakevision-backend/internal/models"
)

const saleCacheTTL = 5 * time.Minute

type SaleStore interface {
	ListActiveSales(ctx context.Context, now time.Time) ([]models.HolidaySale, error)
}

// SaleResolver picks the single sale shown on marketing pages for a visitor
// country. Results are cached per country in redis; the cache is an
// optimization only and every redis failure falls through to the database.
type SaleResolver struct {
	store SaleStore
	cache *redis.Client
	log   *slog.Logger
	now   func() time.Time
}

func NewSaleResolver(store SaleStore, cache *redis.Client, log *slog.Logger) *SaleResolver {
	return &SaleResolver{
		store: store,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// ActiveSale returns the sale to display for a country, or nil when no sale
// applies. A country-scoped sale beats the global default; within the same
// scope the store orders by priority descending, then latest start date.
func (r *SaleResolver) ActiveSale(ctx context.Context, country string) (*models.HolidaySale, error) {
	if r.store == nil {
		return nil, nil
	}

	country = strings.ToUpper(strings.TrimSpace(country))

	if sale, ok := r.cachedSale(ctx, country); ok {
		return sale, nil
	}

	sales, err := r.store.ListActiveSales(ctx, r.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to load active sales: %w", err)
	}

	sale := pickSale(sales, country)
	r.storeSale(ctx, country, sale)
	return sale, nil
}

func pickSale(sales []models.HolidaySale, country string) *models.HolidaySale {
	// sales arrive ordered by priority desc, start_date desc
	if country != "" {
		for i := range sales {
			if sales[i].Country.Valid && sales[i].Country.String == country {
				return &sales[i]
			}
		}
	}
	for i := range sales {
		if !sales[i].Country.Valid {
			return &sales[i]
		}
	}
	return nil
}

func saleCacheKey(country string) string {
	if country == "" {
		country = "GLOBAL"
	}
	return "sales:active:" + country
}

func (r *SaleResolver) cachedSale(ctx context.Context, country string) (*models.HolidaySale, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, saleCacheKey(country)).Result()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn("sale cache read failed", "error", err)
		}
		return nil, false
	}

	if raw == "null" {
		return nil, true
	}

	var sale models.HolidaySale
	if err := json.Unmarshal([]byte(raw), &sale); err != nil {
		r.log.Warn("sale cache entry malformed, ignoring", "error", err)
		return nil, false
	}
	return &sale, true
}

func (r *SaleResolver) storeSale(ctx context.Context, country string, sale *models.HolidaySale) {
	if r.cache == nil {
		return
	}

	payload := []byte("null")
	if sale != nil {
		data, err := json.Marshal(sale)
		if err != nil {
			return
		}
		payload = data
	}

	if err := r.cache.Set(ctx, saleCacheKey(country), payload, saleCacheTTL).Err(); err != nil {
		r.log.Warn("sale cache write failed", "error", err)
	}
}

// Invalidate drops the cached sale for every country. Called after admin
// mutations; a full flush is fine at this cardinality.
func (r *SaleResolver) Invalidate(ctx context.Context) {
	if r.cache == nil {
		return
	}

	iter := r.cache.Scan(ctx, 0, "sales:active:*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.cache.Del(ctx, iter.Val()).Err(); err != nil {
			r.log.Warn("sale cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
	if err := iter.Err(); err != nil {
		r.log.Warn("sale cache scan failed", "error", err)
	}
}
