// Package catalog provides the cache-backed reads every screen shares:
// the course list, the pricing page payload, and single-course lookups.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/pvandermeer/luma/internal/cache"
	"github.com/pvandermeer/luma/internal/domain"
)

// Resource keys in the shared cache key space.
const (
	KeyCourses = "courses"
	KeyPricing = "pricing"
	KeyFAQ     = "faq"
)

// Course is one entry of the course catalog.
type Course struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int64  `json:"price"`
}

// Fetcher retrieves a raw content payload from the remote data store.
type Fetcher interface {
	FetchResource(ctx context.Context, key string) (json.RawMessage, error)
}

// Service reads catalog data through the client cache.
type Service struct {
	cache   *cache.Cache
	fetcher Fetcher
	logger  *slog.Logger
}

// NewService creates a catalog service.
func NewService(c *cache.Cache, fetcher Fetcher, logger *slog.Logger) *Service {
	return &Service{cache: c, fetcher: fetcher, logger: logger}
}

// Courses returns the course catalog, decoded.
func (s *Service) Courses(ctx context.Context) ([]Course, error) {
	payload, err := s.resource(ctx, KeyCourses)
	if err != nil {
		return nil, err
	}

	var courses []Course
	if err := json.Unmarshal(payload, &courses); err != nil {
		return nil, domain.Internal(err, "catalog.courses", "failed to decode course catalog")
	}
	return courses, nil
}

// Course looks up a single course by id.
func (s *Service) Course(ctx context.Context, id string) (*Course, error) {
	courses, err := s.Courses(ctx)
	if err != nil {
		return nil, err
	}

	for i := range courses {
		if courses[i].ID == id {
			return &courses[i], nil
		}
	}
	return nil, domain.NotFound("catalog.course", "course", id)
}

// Ref returns the product reference for a course, for opening a checkout.
func (c Course) Ref() domain.ProductRef {
	return domain.ProductRef{ID: c.ID, Name: c.Name, Category: c.Category}
}

// Pricing returns the pricing page payload as-is.
func (s *Service) Pricing(ctx context.Context) (json.RawMessage, error) {
	return s.resource(ctx, KeyPricing)
}

// FAQ returns the FAQ content payload as-is.
func (s *Service) FAQ(ctx context.Context) (json.RawMessage, error) {
	return s.resource(ctx, KeyFAQ)
}

func (s *Service) resource(ctx context.Context, key string) (json.RawMessage, error) {
	return s.cache.Get(ctx, key, func(ctx context.Context) (json.RawMessage, error) {
		return s.fetcher.FetchResource(ctx, key)
	})
}
