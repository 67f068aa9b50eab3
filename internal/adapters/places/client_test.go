package places_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localbiz/internal/adapters/places"
	"localbiz/internal/domain"
)

func newServer(t *testing.T, hits *int32, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		h(w, r)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func TestSearchPlaces_OK(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/textsearch/json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "grocery store ravet pune", q.Get("query"))
		assert.Equal(t, "grocery_or_supermarket", q.Get("type"))
		assert.Equal(t, "18.6490,73.8773", q.Get("location"))
		assert.Equal(t, "5000", q.Get("radius"))
		assert.Equal(t, "test-key", q.Get("key"))
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"place_id": "p-1", "name": "Fresh Mart", "formatted_address": "Ravet, Pune",
				 "geometry": {"location": {"lat": 18.64, "lng": 73.87}}, "rating": 4.2,
				 "opening_hours": {"open_now": true}, "photos": [{"photo_reference": "ph-1"}]},
				{"place_id": "p-2", "name": "Corner Store"}
			]}`))
	})

	cl := places.New(ts.URL, "test-key")
	got, err := cl.SearchPlaces(ctx(t), "grocery store ravet pune", "grocery_or_supermarket")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "p-1", got[0].PlaceID)
	assert.Equal(t, "Ravet, Pune", got[0].FormattedAddress)
	require.NotNil(t, got[0].Geometry)
	assert.InDelta(t, 18.64, got[0].Geometry.Location.Lat, 1e-9)
	require.NotNil(t, got[0].Rating)
	assert.InDelta(t, 4.2, *got[0].Rating, 1e-9)
	require.NotNil(t, got[0].OpeningHours)
	assert.True(t, *got[0].OpeningHours.OpenNow)
	assert.Equal(t, "ph-1", got[0].Photos[0].PhotoReference)

	assert.Nil(t, got[1].Geometry)
	assert.Nil(t, got[1].Rating)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestSearchPlaces_CustomAnchor(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1.5,2.5", r.URL.Query().Get("location"))
		assert.Equal(t, "800", r.URL.Query().Get("radius"))
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS","results":[]}`))
	})
	_, err := places.New(ts.URL, "k", places.WithAnchor("1.5,2.5", 800)).SearchPlaces(ctx(t), "q", "")
	require.NoError(t, err)
}

func TestSearchPlaces_ZeroResultsIsEmpty(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ZERO_RESULTS"}`))
	})
	got, err := places.New(ts.URL, "k").SearchPlaces(ctx(t), "nothing here", "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearchPlaces_MissingKeyFailsBeforeNetwork(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","results":[]}`))
	})

	_, err := places.New(ts.URL, "").SearchPlaces(ctx(t), "q", "t")

	var cfgErr *domain.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "want ConfigurationError, got %v", err)
	assert.Equal(t, "GOOGLE_PLACES_API_KEY", cfgErr.Setting)
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestSearchPlaces_Non2xx(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := places.New(ts.URL, "k").SearchPlaces(ctx(t), "q", "t")

	var httpErr *domain.UpstreamHTTPError
	require.True(t, errors.As(err, &httpErr), "want UpstreamHTTPError, got %v", err)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Equal(t, "upstream down", httpErr.Body)
	// no retries
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestSearchPlaces_ProviderStatusError(t *testing.T) {
	for _, status := range []string{"REQUEST_DENIED", "OVER_QUERY_LIMIT", "INVALID_REQUEST", "UNKNOWN_ERROR"} {
		t.Run(status, func(t *testing.T) {
			var hits int32
			ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"` + status + `","error_message":"nope"}`))
			})

			_, err := places.New(ts.URL, "k").SearchPlaces(ctx(t), "q", "t")

			var apiErr *domain.UpstreamAPIError
			require.True(t, errors.As(err, &apiErr), "want UpstreamAPIError, got %v", err)
			assert.Equal(t, status, apiErr.Status)
			assert.Equal(t, "nope", apiErr.Message)
		})
	}
}

func TestGetPlaceDetails(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "p-1", r.URL.Query().Get("place_id"))
		assert.Contains(t, r.URL.Query().Get("fields"), "formatted_phone_number")
		_, _ = w.Write([]byte(`{"status":"OK","result":{
			"name":"Fresh Mart","formatted_phone_number":"020 1234",
			"website":"https://fresh.example","reviews":[{"author_name":"Ana","rating":5}]}}`))
	})

	d, err := places.New(ts.URL, "k").GetPlaceDetails(ctx(t), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", d.PlaceID)
	assert.Equal(t, "020 1234", d.FormattedPhoneNumber)
	require.Len(t, d.Reviews, 1)
	assert.Equal(t, "Ana", d.Reviews[0].AuthorName)
}

func TestGetPlaceDetails_NotFound(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"NOT_FOUND"}`))
	})

	_, err := places.New(ts.URL, "k").GetPlaceDetails(ctx(t), "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var apiErr *domain.UpstreamAPIError
	assert.True(t, errors.As(err, &apiErr))
}

func TestGetPlaceDetails_MissingKey(t *testing.T) {
	_, err := places.New("http://127.0.0.1:1", "").GetPlaceDetails(ctx(t), "p")
	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSearchPlaces_InjectedHTTPClientTimeout(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	c := places.New(ts.URL, "secret-key", places.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.SearchPlaces(ctx(t), "q", "t")

	require.Error(t, err)
	var httpErr *domain.UpstreamHTTPError
	assert.False(t, errors.As(err, &httpErr))
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestFetchPhoto(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photo":
			assert.Equal(t, "ph-1", r.URL.Query().Get("photo_reference"))
			assert.Equal(t, "400", r.URL.Query().Get("maxwidth"))
			assert.Equal(t, "k", r.URL.Query().Get("key"))
			// the provider answers with a redirect to the image host
			http.Redirect(w, r, "/image/ph-1.jpg", http.StatusFound)
		case "/image/ph-1.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("JPEGDATA"))
		default:
			http.NotFound(w, r)
		}
	})

	ph, err := places.New(ts.URL, "k").FetchPhoto(ctx(t), "ph-1", 400)
	require.NoError(t, err)
	defer ph.Body.Close()
	b, err := io.ReadAll(ph.Body)
	require.NoError(t, err)
	assert.Equal(t, "JPEGDATA", string(b))
	assert.Equal(t, "image/jpeg", ph.ContentType)
}

func TestFetchPhoto_Errors(t *testing.T) {
	var hits int32
	ts := newServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := places.New(ts.URL, "k").FetchPhoto(ctx(t), "gone", 400)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = places.New(ts.URL, "").FetchPhoto(ctx(t), "ph-1", 400)
	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}
