package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"play_reviews/internal/app"
	"play_reviews/internal/domain"
)

type Handlers struct {
	Ingest   *app.IngestService
	Analysis *app.AnalysisService
	Registry domain.TemplateRegistry
	Archive  domain.ReviewArchive
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/templates", h.listTemplates)
	s.mux.Get("/v1/apps/{id}/reviews", h.listReviews)
	s.mux.Post("/v1/apps/{id}/fetch", h.fetchReviews)
	s.mux.Post("/v1/apps/{id}/analyses/{template}", h.runAnalysis)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// statusFor maps domain errors to HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidAppID):
		return http.StatusNotFound, "Unknown App"
	case errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound, "Unknown Template"
	case errors.Is(err, domain.ErrUnresolvedPlaceholder):
		return http.StatusUnprocessableEntity, "Unresolved Placeholder"
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "Payload Too Large"
	case errors.Is(err, domain.ErrMalformedStore):
		return http.StatusConflict, "Malformed Batch File"
	case errors.Is(err, domain.ErrSourceUnavailable):
		return http.StatusBadGateway, "Review Feed Unavailable"
	case errors.Is(err, domain.ErrSchemaViolation), errors.Is(err, domain.ErrProvider):
		return http.StatusBadGateway, "Model Provider Error"
	default:
		return http.StatusInternalServerError, "Internal Error"
	}
}

func (h *Handlers) listTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"templates": h.Registry.List()})
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "id")

	limit := 50
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		limit = l
	}

	reviews, err := h.Archive.ListReviews(r.Context(), appID, limit)
	if err != nil {
		status, title := statusFor(err)
		writeProblem(w, status, title, err.Error())
		return
	}
	if len(reviews) == 0 {
		writeProblem(w, http.StatusNotFound, "Not Found", "no reviews archived for "+appID)
		return
	}

	out := map[string]any{"appId": appID, "reviews": reviews}
	etag, body := calcETagAndBody(out)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write listReviews body")
	}
}

type fetchRequest struct {
	Count   int    `json:"count"`
	Lang    string `json:"lang"`
	Country string `json:"country"`
}

func (h *Handlers) fetchReviews(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "id")

	var req fetchRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
			return
		}
	}
	if req.Count <= 0 {
		req.Count = 100
	}
	if req.Lang == "" {
		req.Lang = "en"
	}
	if req.Country == "" {
		req.Country = "us"
	}

	batch, err := h.Ingest.IngestApp(r.Context(), appID, req.Count, req.Lang, req.Country)
	if err != nil {
		status, title := statusFor(err)
		writeProblem(w, status, title, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appId":     batch.AppID,
		"count":     batch.Len(),
		"requested": batch.Requested,
		"truncated": batch.Truncated,
	})
}

type analyzeRequest struct {
	Model       string            `json:"model"`
	Temperature *float64          `json:"temperature"`
	Vars        map[string]string `json:"vars"`
}

func (h *Handlers) runAnalysis(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "id")
	templateID := chi.URLParam(r, "template")

	var req analyzeRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Body", "body must be JSON")
			return
		}
	}

	batch, err := h.Ingest.LoadBatch(appID)
	if errors.Is(err, fs.ErrNotExist) {
		writeProblem(w, http.StatusNotFound, "No Batch", "no fetched batch for "+appID)
		return
	}
	if err != nil {
		status, title := statusFor(err)
		writeProblem(w, status, title, err.Error())
		return
	}

	params := domain.ModelParams{Model: req.Model, Temperature: req.Temperature, Vars: req.Vars}
	res, err := h.Analysis.Analyze(r.Context(), batch, templateID, params)
	if err != nil {
		status, title := statusFor(err)
		writeProblem(w, status, title, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appId":      appID,
		"template":   templateID,
		"model":      res.Model,
		"text":       res.Text,
		"structured": res.Structured,
	})
}
