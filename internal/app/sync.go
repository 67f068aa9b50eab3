package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"localbiz/internal/adapters/observability"
	"localbiz/internal/domain"
)

const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
	TriggerCLI       = "cli"
)

const (
	CategorySynced  = "synced"
	CategoryFailed  = "failed"
	CategorySkipped = "skipped"
)

type CategoryReport struct {
	Slug       string `json:"slug"`
	Status     string `json:"status"`
	Businesses int    `json:"businesses"`
	Error      string `json:"error,omitempty"`
}

// Report describes one sync run. Categories lists every catalog entry in order.
type Report struct {
	RunID      string           `json:"runId"`
	Trigger    string           `json:"trigger"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Categories []CategoryReport `json:"categories"`
}

// Businesses is the number of rows upserted across the run.
func (r Report) Businesses() int {
	n := 0
	for _, c := range r.Categories {
		n += c.Businesses
	}
	return n
}

// SyncService reconciles stored categories and businesses with the provider.
// At most one run is in flight per service.
type SyncService struct {
	search  domain.SearchClient
	repo    domain.BusinessRepository
	cache   domain.Cache
	catalog []domain.Category
	guard   *semaphore.Weighted
	now     func() time.Time
}

func NewSyncService(s domain.SearchClient, r domain.BusinessRepository, cache domain.Cache, catalog []domain.Category) *SyncService {
	return &SyncService{
		search:  s,
		repo:    r,
		cache:   cache,
		catalog: catalog,
		guard:   semaphore.NewWeighted(1),
		now:     time.Now,
	}
}

// Run performs one sync run over the catalog in order. Each category is
// searched and then written in its own transaction; the first error stops
// the run and leaves already committed categories in place. A run that
// overlaps another returns domain.ErrSyncInProgress without side effects.
func (s *SyncService) Run(ctx context.Context, trigger string) (Report, error) {
	if !s.guard.TryAcquire(1) {
		observability.ObserveSync(trigger, "skipped", 0)
		return Report{}, domain.ErrSyncInProgress
	}
	defer s.guard.Release(1)

	rep := Report{
		RunID:      uuid.NewString(),
		Trigger:    trigger,
		StartedAt:  s.now(),
		Categories: make([]CategoryReport, 0, len(s.catalog)),
	}
	l := log.With().Str("run_id", rep.RunID).Str("trigger", trigger).Logger()
	l.Info().Int("categories", len(s.catalog)).Msg("sync started")

	var runErr error
	for _, cat := range s.catalog {
		if runErr != nil {
			rep.Categories = append(rep.Categories, CategoryReport{Slug: cat.Slug, Status: CategorySkipped})
			continue
		}
		n, err := s.syncCategory(ctx, l, cat)
		if err != nil {
			runErr = fmt.Errorf("sync category %s: %w", cat.Slug, err)
			rep.Categories = append(rep.Categories, CategoryReport{Slug: cat.Slug, Status: CategoryFailed, Error: err.Error()})
			continue
		}
		rep.Categories = append(rep.Categories, CategoryReport{Slug: cat.Slug, Status: CategorySynced, Businesses: n})
	}

	rep.FinishedAt = s.now()
	dur := rep.FinishedAt.Sub(rep.StartedAt)
	if runErr != nil {
		observability.ObserveSync(trigger, "error", dur)
		return rep, runErr
	}
	observability.ObserveSync(trigger, "ok", dur)
	l.Info().Int("businesses", rep.Businesses()).Dur("duration", dur).Msg("sync completed")
	return rep, nil
}

func (s *SyncService) syncCategory(ctx context.Context, l zerolog.Logger, cat domain.Category) (int, error) {
	l.Info().Str("category", cat.Slug).Msg("fetching places")

	places, err := s.search.SearchPlaces(ctx, cat.SearchTerm, cat.PlaceType)
	if err != nil {
		return 0, err
	}

	n := 0
	err = s.repo.InTx(ctx, func(w domain.CatalogWriter) error {
		catID, err := w.UpsertCategory(ctx, cat.Slug, cat.Title)
		if err != nil {
			return err
		}
		for _, p := range places {
			b, ok := mapPlace(p, catID)
			if !ok {
				l.Warn().Str("category", cat.Slug).Str("name", p.Name).Msg("place without id skipped")
				continue
			}
			if err := w.UpsertBusiness(ctx, b); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	observability.ObserveUpserts(cat.Slug, n)
	s.invalidateLists(ctx)
	l.Info().Str("category", cat.Slug).Int("businesses", n).Msg("category synced")
	return n, nil
}

// invalidateLists moves readers to a new list generation. Every list is
// retired at once since a business can move between categories; old keys
// expire on their TTL.
func (s *SyncService) invalidateLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if _, err := s.cache.Incr(ctx, businessesGenKey); err != nil {
		log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
