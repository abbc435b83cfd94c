package handlers

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/observability"
	"supermarket-dashboard/internal/services"
)

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
	version   string
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger, version string) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
		version:   version,
	}
}

func (h *APIHandlers) HandleCities(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.analytics.Cities(), map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleTables(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r.URL.Query(), h.analytics.Cities())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Aggregate(sel), map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	sel, err := selectionFromQuery(r.URL.Query(), h.analytics.Cities())
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, h.analytics.Recompute(r.Context(), sel), map[string]string{
		"Cache-Control": cacheMaxAge,
	})
}

// HandleChartSVG serves GET /charts/{slot} where slot is "<id>.svg".
func (h *APIHandlers) HandleChartSVG(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	id, ok := strings.CutSuffix(r.PathValue("slot"), ".svg")
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("chart exports are available as .svg only"), requestID)
		return
	}

	sel, err := selectionFromQuery(r.URL.Query(), h.analytics.Cities())
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	spec, found := h.analytics.Recompute(r.Context(), sel).Slot(id)
	if !found {
		errors.WriteError(w, h.logger, errors.NotFound("unknown chart "+id), requestID)
		return
	}

	var buf bytes.Buffer
	if err := charts.RenderSVG(&buf, spec); err != nil {
		errors.WriteError(w, h.logger, errors.InternalWrap(err, "failed to render chart"), requestID)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", cacheMaxAge)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.analytics.Stats())
}
