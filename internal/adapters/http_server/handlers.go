// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"localbiz/internal/app"
	"localbiz/internal/domain"
)

type Handlers struct {
	Q    *app.QueryService
	Sync *app.SyncService
	// Limiter throttles POST /businesses/refresh; nil disables it.
	Limiter     *rate.Limiter
	SyncTimeout time.Duration
}

// NewRefreshLimiter returns a limiter allowing perMinute refreshes with a
// burst of one, or nil when perMinute <= 0.
func NewRefreshLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

const (
	defaultPhotoWidth = 400
	maxPhotoWidth     = 1600
)

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type refreshResponse struct {
	Status string     `json:"status"`
	Report app.Report `json:"report"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/health", h.health)
	s.mux.Post("/businesses/refresh", h.refresh)

	s.mux.Group(func(r chi.Router) {
		r.Use(Timeout(s.timeout))
		r.Get("/categories", h.listCategories)
		r.Get("/businesses", h.listBusinesses)
		r.Get("/businesses/{externalId}", h.getBusiness)
		r.Get("/businesses/{externalId}/details", h.getDetails)
		r.Get("/photos/{ref}", h.getPhoto)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses. Internal causes are
// logged, never echoed.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cfgErr  *domain.ConfigurationError
		httpErr *domain.UpstreamHTTPError
		apiErr  *domain.UpstreamAPIError
	)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	case errors.As(err, &cfgErr):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("service misconfigured")
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "places provider is not configured")
	case errors.As(err, &httpErr), errors.As(err, &apiErr):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("places provider failed")
		writeProblem(w, http.StatusBadGateway, "Bad Gateway", "places provider request failed")
	case errors.Is(err, context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Gateway Timeout", "request timed out")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeTagged writes v with a weak ETag, or 304 when the client already has it.
func writeTagged(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) listCategories(w http.ResponseWriter, r *http.Request) {
	writeTagged(w, r, h.Q.Categories())
}

func (h *Handlers) listBusinesses(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.ListBusinesses(r.Context(), r.URL.Query().Get("categoryId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTagged(w, r, out)
}

func (h *Handlers) getBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.Q.GetBusiness(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTagged(w, r, b)
}

func (h *Handlers) getDetails(w http.ResponseWriter, r *http.Request) {
	d, err := h.Q.PlaceDetails(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handlers) getPhoto(w http.ResponseWriter, r *http.Request) {
	maxWidth := defaultPhotoWidth
	if v := r.URL.Query().Get("maxwidth"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxPhotoWidth {
			writeProblem(w, http.StatusBadRequest, "Invalid maxwidth", "maxwidth must be an integer between 1 and 1600")
			return
		}
		maxWidth = n
	}

	ph, err := h.Q.Photo(r.Context(), chi.URLParam(r, "ref"), maxWidth)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer ph.Body.Close()

	ct := ph.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, ph.Body); err != nil {
		log.Warn().Err(err).Msg("photo copy interrupted")
	}
}

func (h *Handlers) refresh(w http.ResponseWriter, r *http.Request) {
	if h.Limiter != nil && !h.Limiter.Allow() {
		w.Header().Set("Retry-After", "60")
		writeProblem(w, http.StatusTooManyRequests, "Too Many Requests", "refresh is rate limited")
		return
	}

	ctx := r.Context()
	if h.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.SyncTimeout)
		defer cancel()
	}

	rep, err := h.Sync.Run(ctx, app.TriggerManual)
	switch {
	case errors.Is(err, domain.ErrSyncInProgress):
		writeProblem(w, http.StatusConflict, "Conflict", "a sync run is already in progress")
	case err != nil:
		log.Error().Err(err).Str("run_id", rep.RunID).Interface("report", rep.Categories).Msg("manual refresh failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "failed to refresh data")
	default:
		writeJSON(w, http.StatusOK, refreshResponse{Status: "ok", Report: rep})
	}
}
