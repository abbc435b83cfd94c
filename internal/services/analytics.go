package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/dataset"
	"supermarket-dashboard/internal/models"
	"supermarket-dashboard/internal/observability"
)

// Analytics answers filter selections against one loaded dataset.
type Analytics struct {
	dataset        *dataset.Dataset
	logger         *slog.Logger
	loadedAt       time.Time
	recomputations atomic.Int64
}

func NewAnalytics(ds *dataset.Dataset, logger *slog.Logger) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		dataset:  ds,
		logger:   logger,
		loadedAt: time.Now(),
	}
}

func (a *Analytics) Dataset() *dataset.Dataset {
	return a.dataset
}

// Cities lists every city, most frequent first.
func (a *Analytics) Cities() []string {
	return a.dataset.Cities()
}

// DefaultSelection is every city with the revenue metric.
func (a *Analytics) DefaultSelection() models.FilterSelection {
	return models.FilterSelection{
		Cities: a.dataset.Cities(),
		Metric: models.MetricRevenue,
	}
}

func (a *Analytics) Aggregate(sel models.FilterSelection) models.Tables {
	return Aggregate(a.dataset, sel)
}

// Recompute runs one full filter → aggregate → chart pass.
func (a *Analytics) Recompute(ctx context.Context, sel models.FilterSelection) charts.ChartSet {
	_, span := observability.StartSpan(ctx, "recompute")
	span.SetTag("metric", sel.Metric.String())

	tables := Aggregate(a.dataset, sel)
	set := charts.BuildAll(tables, sel.Metric)
	set.Selection = sel

	span.Finish()
	a.recomputations.Add(1)

	a.logger.Debug("charts recomputed",
		"cities", len(sel.Cities),
		"metric", sel.Metric.String(),
		"span", span,
		"request_id", observability.GetRequestID(ctx),
	)
	return set
}

// Stats reports dataset size and activity for monitoring.
func (a *Analytics) Stats() map[string]any {
	return map[string]any{
		"record_count":   a.dataset.Len(),
		"cities":         a.dataset.Cities(),
		"loaded_at":      a.loadedAt,
		"recomputations": a.recomputations.Load(),
	}
}
