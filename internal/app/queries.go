package app

import (
	"context"
	"fmt"
	"time"

	"localbiz/internal/domain"
)

type QueryService struct {
	repo     domain.BusinessRepository
	search   domain.SearchClient
	cache    domain.Cache
	catalog  []domain.Category
	cacheTTL time.Duration
}

// NewQueryService builds the read side. cache may be nil.
func NewQueryService(r domain.BusinessRepository, s domain.SearchClient, c domain.Cache, catalog []domain.Category, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, search: s, cache: c, catalog: catalog, cacheTTL: ttl}
}

// businessesGenKey holds the list generation. A sync bumps it after every
// committed category; list keys embed it.
const businessesGenKey = "businesses:gen"

func businessesKey(gen int64, slug string) string {
	if slug == "" {
		return fmt.Sprintf("businesses:%d", gen)
	}
	return fmt.Sprintf("businesses:%d:%s", gen, slug)
}

func detailsKey(externalID string) string { return "place_details:" + externalID }

// Categories returns the configured catalog, not the stored rows.
func (s *QueryService) Categories() []domain.Category {
	out := make([]domain.Category, len(s.catalog))
	copy(out, s.catalog)
	return out
}

// ListBusinesses returns stored businesses, optionally filtered by category slug.
// Cache failures fall through to the store. The generation is read before the
// store query, so a list fetched before a sync commit is never cached under a
// generation readers still use.
func (s *QueryService) ListBusinesses(ctx context.Context, slug string) ([]domain.BusinessView, error) {
	if s.cache == nil {
		return s.repo.ListBusinesses(ctx, slug)
	}
	gen, ok := s.listGeneration(ctx)
	if !ok {
		return s.repo.ListBusinesses(ctx, slug)
	}
	key := businessesKey(gen, slug)

	var cached []domain.BusinessView
	if hit, _ := s.cache.Get(ctx, key, &cached); hit && cached != nil {
		return cached, nil
	}
	out, err := s.repo.ListBusinesses(ctx, slug)
	if err != nil {
		return nil, err
	}
	if now, ok := s.listGeneration(ctx); ok && now == gen {
		_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	}
	return out, nil
}

// listGeneration reports false when the cache cannot be read.
func (s *QueryService) listGeneration(ctx context.Context) (int64, bool) {
	var gen int64
	if _, err := s.cache.Get(ctx, businessesGenKey, &gen); err != nil {
		return 0, false
	}
	return gen, true
}

func (s *QueryService) GetBusiness(ctx context.Context, externalID string) (domain.BusinessView, error) {
	return s.repo.GetBusiness(ctx, externalID)
}

// PlaceDetails proxies the provider's details for a stored business.
func (s *QueryService) PlaceDetails(ctx context.Context, externalID string) (domain.PlaceDetails, error) {
	if _, err := s.repo.GetBusiness(ctx, externalID); err != nil {
		return domain.PlaceDetails{}, err
	}
	key := detailsKey(externalID)
	if s.cache != nil {
		var cached domain.PlaceDetails
		if ok, _ := s.cache.Get(ctx, key, &cached); ok {
			return cached, nil
		}
	}
	d, err := s.search.GetPlaceDetails(ctx, externalID)
	if err != nil {
		return domain.PlaceDetails{}, err
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, key, d, int(s.cacheTTL.Seconds()))
	}
	return d, nil
}

// Photo proxies a provider photo so clients never need the API key.
func (s *QueryService) Photo(ctx context.Context, ref string, maxWidth int) (domain.PhotoStream, error) {
	return s.search.FetchPhoto(ctx, ref, maxWidth)
}
