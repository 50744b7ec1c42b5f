package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"farm_store/internal/errs"
	"farm_store/internal/models"
	"farm_store/internal/redis"
	"farm_store/internal/repository"

	"github.com/rs/zerolog"
)

type CatalogService interface {
	// ListActive returns active products newest first. "" and "all" disable
	// the category filter; any other value must name a known category.
	ListActive(ctx context.Context, category string) ([]models.Product, error)
	Get(ctx context.Context, id uint) (*models.Product, error)
	// GetActive hides inactive products, for customer-facing lookups.
	GetActive(ctx context.Context, id uint) (*models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, draft models.ProductDraft) (*models.Product, error)
	Update(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id uint) error
	// InvalidateListings drops every cached listing, e.g. after checkout
	// changed stock.
	InvalidateListings(ctx context.Context)
}

// JSONCache is the slice of the redis client the catalog needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type catalogService struct {
	products repository.ProductRepository
	cache    JSONCache
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCatalogService wires the catalog; a nil cache disables listing caching.
func NewCatalogService(products repository.ProductRepository, cache JSONCache, ttl time.Duration, log zerolog.Logger) CatalogService {
	return &catalogService{products: products, cache: cache, ttl: ttl, log: log}
}

func listingKey(category models.Category) string {
	if category == "" {
		return "catalog:active:" + models.CategoryAll
	}
	return "catalog:active:" + strings.ToLower(strings.ReplaceAll(string(category), " ", "-"))
}

func (s *catalogService) ListActive(ctx context.Context, category string) ([]models.Product, error) {
	var filter models.Category
	if c := strings.TrimSpace(category); c != "" && !strings.EqualFold(c, models.CategoryAll) {
		parsed, ok := models.ParseCategory(c)
		if !ok {
			return nil, errs.Validation("catalogService.ListActive", "unknown category "+c)
		}
		filter = parsed
	}

	key := listingKey(filter)
	if s.cache != nil {
		var cached []models.Product
		err := s.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, redis.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
		}
	}

	products, err := s.products.ListActive(ctx, filter)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, products, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
		}
	}
	return products, nil
}

func (s *catalogService) Get(ctx context.Context, id uint) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

func (s *catalogService) GetActive(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, errs.NotFound("catalogService.GetActive", "product not found")
	}
	return product, nil
}

func (s *catalogService) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.products.ListAll(ctx)
}

func (s *catalogService) Create(ctx context.Context, draft models.ProductDraft) (*models.Product, error) {
	product, err := draft.ToProduct()
	if err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.InvalidateListings(ctx)
	return product, nil
}

func (s *catalogService) Update(ctx context.Context, id uint, patch models.ProductPatch) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// patch a copy so a validation failure leaves nothing half-applied
	updated := *product
	if err := patch.Apply(&updated); err != nil {
		return nil, err
	}
	if err := s.products.UpdateColumns(ctx, id, patch.Columns(&updated)); err != nil {
		return nil, err
	}
	s.InvalidateListings(ctx)
	// reread so the stock reflects any checkout that ran meanwhile
	return s.products.GetByID(ctx, id)
}

func (s *catalogService) Delete(ctx context.Context, id uint) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.InvalidateListings(ctx)
	return nil
}

func (s *catalogService) InvalidateListings(ctx context.Context) {
	if s.cache == nil {
		return
	}
	keys := []string{listingKey("")}
	for _, c := range models.AllCategories() {
		keys = append(keys, listingKey(c))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Msg("catalog cache invalidation failed")
	}
}
