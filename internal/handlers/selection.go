package handlers

import (
	"net/url"
	"strings"

	"supermarket-dashboard/internal/errors"
	"supermarket-dashboard/internal/models"
)

// selectionFromQuery reads ?city=..&metric=.. . No city parameter selects every
// city; a single empty city= selects none.
func selectionFromQuery(q url.Values, allCities []string) (models.FilterSelection, error) {
	sel := models.FilterSelection{Metric: models.MetricRevenue}

	if raw := q.Get("metric"); raw != "" {
		metric, err := models.ParseMetric(raw)
		if err != nil {
			return sel, errors.ValidationWrap(err, "metric must be one of: revenue, rating")
		}
		sel.Metric = metric
	}

	values, present := q["city"]
	if !present {
		sel.Cities = allCities
		return sel, nil
	}

	sel.Cities = make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			sel.Cities = append(sel.Cities, v)
		}
	}
	return sel, nil
}

// dashboardSignals mirrors the client-side signals sent on every Datastar request.
type dashboardSignals struct {
	SessionID string   `json:"sessionId"`
	Cities    []string `json:"cities"`
	Metric    string   `json:"metric"`
}

func (s dashboardSignals) selection() (models.FilterSelection, error) {
	metric, err := models.ParseMetric(s.Metric)
	if err != nil {
		return models.FilterSelection{}, errors.ValidationWrap(err, "metric must be one of: revenue, rating")
	}
	cities := s.Cities
	if cities == nil {
		cities = []string{}
	}
	return models.FilterSelection{Cities: cities, Metric: metric}, nil
}
