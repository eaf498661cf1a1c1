package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/burakmert236/arenaview/common/logger"
	"github.com/burakmert236/arenaview/common/models"
	arenaerrors "github.com/burakmert236/arenaview/services/arena-service/internal/errors"
	"github.com/burakmert236/arenaview/services/arena-service/internal/events"
	"github.com/burakmert236/arenaview/services/arena-service/internal/metrics"
	"github.com/burakmert236/arenaview/services/arena-service/internal/service"
)

const (
	serviceName = "arena-service"

	upstreamPingTimeout = time.Second
)

// IngestStatus reports where the ingestion pipeline currently is.
type IngestStatus interface {
	State() events.State
	Messages() uint64
	Ping(ctx context.Context) error
}

type ArenaHandler struct {
	arenaService service.ArenaService
	ingest       IngestStatus
	metrics      *metrics.Metrics
	logger       *logger.Logger
}

func NewArenaHandler(
	arenaService service.ArenaService,
	ingest IngestStatus,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *ArenaHandler {
	return &ArenaHandler{
		arenaService: arenaService,
		ingest:       ingest,
		metrics:      metrics,
		logger:       logger.With("component", "ArenaHandler"),
	}
}

type RouterConfig struct {
	NoCORS   bool
	Gatherer prometheus.Gatherer
}

func NewRouter(h *ArenaHandler, cfg RouterConfig) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chimiddleware.Recoverer)
	router.Use(requestLogger(h.logger))
	if !cfg.NoCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet},
		}))
	}

	router.Get("/", h.Root)
	router.Get("/status", h.Status)
	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	router.Get("/{id}", h.GetArena)

	return router
}

func (h *ArenaHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(serviceName))
}

// GetArena serves GET /{id}?page=&me=.
func (h *ArenaHandler) GetArena(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 0
	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.metrics.ViewRequests.WithLabelValues(metrics.OutcomeInvalid).Inc()
			h.errorResponse(w, r, arenaerrors.InvalidPage(raw))
			return
		}
		page = n
	}

	arenaId := models.ArenaID(chi.URLParam(r, "id"))
	viewer := models.UserName(query.Get("me"))

	view, err := h.arenaService.GetView(r.Context(), arenaId, page, viewer)
	if err != nil {
		h.errorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, view); err != nil {
		h.logger.Error("Failed to write arena view", "arena_id", arenaId, "error", err)
	}
}

type statusResponse struct {
	service.Stats
	// Received counts every document read from upstream, including the
	// ones the decoder rejected.
	Received uint64 `json:"received"`
	State    string `json:"state"`
	Upstream string `json:"upstream"`
}

func (h *ArenaHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Stats:    h.arenaService.Stats(),
		Received: h.ingest.Messages(),
		State:    h.ingest.State().String(),
		Upstream: "reachable",
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamPingTimeout)
	defer cancel()
	if err := h.ingest.Ping(ctx); err != nil {
		h.logger.Warn("Upstream ping failed", "error", err)
		resp.Upstream = "unreachable"
	}

	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Warn("Failed to write status", "error", err)
	}
}
