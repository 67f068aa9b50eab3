package app_test

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"sync"

	"localbiz/internal/domain"
)

// ---- fakes ----

// fakeSearch answers by search term. Terms listed in errs fail.
type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]domain.Place
	errs    map[string]error
	details map[string]domain.PlaceDetails
	calls   []string
	// block, when set, is waited on before answering.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeSearch) SearchPlaces(ctx context.Context, query, placeType string) ([]domain.Place, error) {
	f.mu.Lock()
	f.calls = append(f.calls, query)
	block, entered := f.block, f.entered
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func (f *fakeSearch) GetPlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "details:"+placeID)
	d, ok := f.details[placeID]
	if !ok {
		return domain.PlaceDetails{}, domain.ErrNotFound
	}
	return d, nil
}

func (f *fakeSearch) FetchPhoto(ctx context.Context, ref string, maxWidth int) (domain.PhotoStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "photo:"+ref)
	return domain.PhotoStream{
		ContentType: "image/jpeg",
		Body:        io.NopCloser(strings.NewReader(ref + "@" + strconv.Itoa(maxWidth))),
	}, nil
}

func (f *fakeSearch) set(query string, ps ...domain.Place) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.results == nil {
		f.results = map[string][]domain.Place{}
	}
	f.results[query] = ps
}

func (f *fakeSearch) fail(query string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = map[string]error{}
	}
	f.errs[query] = err
}

func (f *fakeSearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRepo struct {
	list    []domain.BusinessView
	byExt   map[string]domain.BusinessView
	listErr error
	lists   int
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(w domain.CatalogWriter) error) error {
	return nil
}
func (f *fakeRepo) ListBusinesses(ctx context.Context, slug string) ([]domain.BusinessView, error) {
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}
func (f *fakeRepo) GetBusiness(ctx context.Context, externalID string) (domain.BusinessView, error) {
	bv, ok := f.byExt[externalID]
	if !ok {
		return domain.BusinessView{}, domain.ErrNotFound
	}
	return bv, nil
}

// fakeCache round-trips values through JSON like the redis adapter.
type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}
func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}
func (c *fakeCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	var n int64
	if b, ok := c.store[key]; ok {
		if err := json.Unmarshal(b, &n); err != nil {
			return 0, err
		}
	}
	n++
	c.store[key] = []byte(strconv.FormatInt(n, 10))
	return n, nil
}

func ptr[T any](v T) *T { return &v }

func place(id, name string, rating float64) domain.Place {
	return domain.Place{
		PlaceID:          id,
		Name:             name,
		FormattedAddress: name + " Road, Ravet",
		Geometry:         &domain.Geometry{Location: &domain.LatLng{Lat: 18.64, Lng: 73.87}},
		Rating:           ptr(rating),
	}
}
