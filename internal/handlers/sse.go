package handlers

import (
	"context"
	stderrors "errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"supermarket-dashboard/internal/binding"
	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/observability"
)

var statusTemplate = template.Must(template.New("status").Parse(
	`<p id="status" class="muted">{{if .Cities}}{{len .Cities}} of {{.Total}} cities{{else}}No cities selected{{end}} · {{.Metric}}</p>`))

type statusData struct {
	Cities []string
	Total  int
	Metric string
}

type SSEHandlers struct {
	sessions  *binding.Registry
	totalCity int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewSSEHandlers(sessions *binding.Registry, totalCities int, timeout time.Duration, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		sessions:  sessions,
		totalCity: totalCities,
		timeout:   timeout,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderStatus(set charts.ChartSet) (string, error) {
	var buf strings.Builder
	err := statusTemplate.Execute(&buf, statusData{
		Cities: set.Selection.Cities,
		Total:  h.totalCity,
		Metric: set.Selection.Metric.Label(),
	})
	return buf.String(), err
}

// HandleCharts dispatches the page's current filter to its session binding and
// patches all five charts once the recomputation is applied.
func (h *SSEHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid signals"), requestID)
		return
	}
	if signals.SessionID == "" {
		errors.WriteError(w, h.logger, errors.BadRequest("sessionId signal is required"), requestID)
		return
	}
	if _, err := uuid.Parse(signals.SessionID); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "sessionId must be a UUID"), requestID)
		return
	}

	sel, err := signals.selection()
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	b, err := h.sessions.Session(signals.SessionID)
	if err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("dashboard is shutting down"), requestID)
		return
	}

	seq, err := b.Dispatch(sel)
	if err != nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("session stopped"), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	set, err := b.Await(ctx, seq)
	if stderrors.Is(err, binding.ErrStopped) {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("session stopped"), requestID)
		return
	}
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	status, err := h.renderStatus(set)
	if err != nil {
		h.logger.Error("render status", "error", err, "request_id", requestID)
		return
	}

	sse := datastar.NewSSE(w, r)

	if err := sse.MarshalAndPatchSignals(map[string]any{"_charts": set}); err != nil {
		h.logger.Error("patch chart signals", "error", err, "request_id", requestID)
		return
	}
	if err := sse.PatchElements(status); err != nil {
		h.logger.Error("patch status", "error", err, "request_id", requestID)
		return
	}

	h.logger.Debug("charts patched",
		"session_id", signals.SessionID,
		"seq", set.Seq,
		"request_id", requestID,
	)
}
