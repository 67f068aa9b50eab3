// Package places is a client for the places provider's text search and
// details endpoints.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"localbiz/internal/adapters/observability"
	"localbiz/internal/domain"
)

const (
	DefaultBaseURL  = "https://maps.googleapis.com/maps/api/place"
	DefaultLocation = "18.6490,73.8773"
	DefaultRadius   = 5000

	detailsFields = "name,formatted_address,formatted_phone_number,opening_hours,photos,rating,reviews,website,geometry"
)

type Client struct {
	base     string
	hc       *http.Client
	key      string
	location string
	radius   int
}

type Option func(*Client)

// WithAnchor sets the fixed search center ("lat,lng") and radius in meters.
func WithAnchor(location string, radius int) Option {
	return func(c *Client) {
		if location != "" {
			c.location = location
		}
		if radius > 0 {
			c.radius = radius
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New never fails on a missing key: the key is checked on every call instead.
func New(base, key string, opts ...Option) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	c := &Client{
		base:     strings.TrimRight(base, "/"),
		hc:       &http.Client{Timeout: 20 * time.Second},
		key:      key,
		location: DefaultLocation,
		radius:   DefaultRadius,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type textSearchResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []domain.Place `json:"results"`
}

type detailsResponse struct {
	Status       string              `json:"status"`
	ErrorMessage string              `json:"error_message"`
	Result       domain.PlaceDetails `json:"result"`
}

// SearchPlaces runs one text search around the configured anchor.
// ZERO_RESULTS is an empty result, not an error.
func (c *Client) SearchPlaces(ctx context.Context, query, placeType string) ([]domain.Place, error) {
	if err := c.checkKey(); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("query", query)
	if placeType != "" {
		params.Set("type", placeType)
	}
	params.Set("location", c.location)
	params.Set("radius", strconv.Itoa(c.radius))

	var out textSearchResponse
	if err := c.get(ctx, "textsearch/json", params, &out); err != nil {
		return nil, err
	}
	switch out.Status {
	case "OK":
		return out.Results, nil
	case "ZERO_RESULTS":
		return []domain.Place{}, nil
	default:
		return nil, &domain.UpstreamAPIError{Status: out.Status, Message: out.ErrorMessage}
	}
}

func (c *Client) GetPlaceDetails(ctx context.Context, placeID string) (domain.PlaceDetails, error) {
	if err := c.checkKey(); err != nil {
		return domain.PlaceDetails{}, err
	}
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", detailsFields)

	var out detailsResponse
	if err := c.get(ctx, "details/json", params, &out); err != nil {
		return domain.PlaceDetails{}, err
	}
	switch out.Status {
	case "OK":
		if out.Result.PlaceID == "" {
			out.Result.PlaceID = placeID
		}
		return out.Result, nil
	case "NOT_FOUND", "INVALID_REQUEST":
		return domain.PlaceDetails{}, fmt.Errorf("%w: %w", domain.ErrNotFound,
			&domain.UpstreamAPIError{Status: out.Status, Message: out.ErrorMessage})
	default:
		return domain.PlaceDetails{}, &domain.UpstreamAPIError{Status: out.Status, Message: out.ErrorMessage}
	}
}

// FetchPhoto streams the image behind a photo reference, scaled to at most
// maxWidth pixels. The provider redirects to the image; the client follows.
func (c *Client) FetchPhoto(ctx context.Context, ref string, maxWidth int) (domain.PhotoStream, error) {
	if err := c.checkKey(); err != nil {
		return domain.PhotoStream{}, err
	}
	params := url.Values{}
	params.Set("photo_reference", ref)
	params.Set("maxwidth", strconv.Itoa(maxWidth))

	resp, err := c.send(ctx, "photo", "image/*", params)
	if err != nil {
		var he *domain.UpstreamHTTPError
		if errors.As(err, &he) && he.StatusCode == http.StatusNotFound {
			return domain.PhotoStream{}, fmt.Errorf("%w: %w", domain.ErrNotFound, err)
		}
		return domain.PhotoStream{}, err
	}
	return domain.PhotoStream{
		ContentType: resp.Header.Get("Content-Type"),
		Body:        resp.Body,
	}, nil
}

// ---- Internals ----

func (c *Client) checkKey() error {
	if c.key == "" {
		return &domain.ConfigurationError{Setting: "GOOGLE_PLACES_API_KEY"}
	}
	return nil
}

// send performs a GET against {base}/{endpoint}. Non-2xx responses are
// consumed and returned as *domain.UpstreamHTTPError; on success the caller
// owns the body.
func (c *Client) send(ctx context.Context, endpoint, accept string, params url.Values) (*http.Response, error) {
	params.Set("key", c.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "localbiz/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("places", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// url.Error would echo the query string, key included
		return nil, fmt.Errorf("places %s: %w", endpoint, unwrapURLError(err))
	}
	observability.ObserveExternal("places", endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.UpstreamHTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return resp, nil
}

// get decodes a 2xx JSON body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	resp, err := c.send(ctx, endpoint, "application/json", params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("places %s: decode: %w", endpoint, err)
	}
	return nil
}

func unwrapURLError(err error) error {
	if ue, ok := err.(*url.Error); ok {
		return ue.Err
	}
	return err
}
