// Package httpapi exposes the donor registry over a JSON HTTP API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"donorregistry/internal/core"
	"donorregistry/pkg/domain"
)

// ConfirmHeader carries an affirmative removal answer as an alternative to the
// confirm=true query parameter.
const ConfirmHeader = "X-Confirm-Removal"

const maxBodyBytes = 64 << 10

// Service is the registry surface the handler needs.
type Service interface {
	Snapshot(ctx context.Context, q core.Query) (core.View, error)
	Register(ctx context.Context, reg domain.Registration) (domain.Donor, error)
	Remove(ctx context.Context, id string, confirm core.Confirmer) error
	Contact(ctx context.Context, id string) (core.ContactAction, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Handler wires registry endpoints to the service.
type Handler struct {
	service Service
	logger  core.Logger
}

// New constructs a handler. A nil logger discards output.
func New(service Service, logger core.Logger) *Handler {
	if logger == nil {
		logger = discardLogger{}
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the API routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/donors", h.HandleList)
		r.Post("/donors", h.HandleRegister)
		r.Delete("/donors/{id}", h.HandleRemove)
		r.Get("/donors/{id}/contact", h.HandleContact)
		r.Get("/stats", h.HandleStats)
	})
}

// NewRouter builds the complete process router: middleware, API routes,
// health and Prometheus metrics from gatherer (nil uses the default
// gatherer).
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	h.Register(r)
	return r
}

// HandleList handles GET /api/v1/donors?q=&blood=. Each request filters
// with its own parameters.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Snapshot(r.Context(), requestQuery(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleRegister handles POST /api/v1/donors.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var reg domain.Registration
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	donor, err := h.service.Register(r.Context(), reg)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{Donor: donor, Message: core.MsgRegistered})
}

// HandleRemove handles DELETE /api/v1/donors/{id}. The caller must confirm
// with confirm=true or the X-Confirm-Removal header. The returned view is
// filtered by the request's q and blood parameters.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	confirmed := r.URL.Query().Get("confirm") == "true" || r.Header.Get(ConfirmHeader) == "true"
	var prompt string
	confirm := core.ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return confirmed
	})
	if err := h.service.Remove(r.Context(), id, confirm); err != nil {
		if errors.Is(err, domain.ErrNotConfirmed) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Prompt: prompt})
			return
		}
		h.writeServiceError(w, r, err)
		return
	}
	view, err := h.service.Snapshot(r.Context(), requestQuery(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleContact handles GET /api/v1/donors/{id}/contact.
func (h *Handler) HandleContact(w http.ResponseWriter, r *http.Request) {
	action, err := h.service.Contact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, action)
}

// HandleStats handles GET /api/v1/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func requestQuery(r *http.Request) core.Query {
	return core.Query{Search: r.URL.Query().Get("q"), Blood: r.URL.Query().Get("blood")}
}

type registerResponse struct {
	Donor   domain.Donor `json:"donor"`
	Message string       `json:"message"`
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
	Prompt  string   `json:"prompt,omitempty"`
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Error(), Missing: verr.Missing})
	case errors.Is(err, domain.ErrDonorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: domain.ErrDonorNotFound.Error()})
	case errors.Is(err, domain.ErrNotConfirmed):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
