package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"supermarket-dashboard/internal/binding"
	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/models"
)

const (
	sessionA = "3f1c2a9e-7b4d-4e8a-9c61-0d5f2b7a8e14"
	sessionB = "b8e0d6c4-2f3a-4c71-8d95-6a1e7f40c2b3"
)

func newTestSSEHandlers(t *testing.T) (*SSEHandlers, *binding.Registry) {
	t.Helper()
	analytics := createTestAnalytics()
	registry := binding.NewRegistry(analytics, testLogger(), time.Minute)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		registry.Shutdown(ctx)
	})
	return NewSSEHandlers(registry, len(analytics.Cities()), 2*time.Second, testLogger()), registry
}

func signalsRequest(signals string) *http.Request {
	target := "/sse/charts"
	if signals != "" {
		target += "?datastar=" + url.QueryEscape(signals)
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Datastar-Request", "true")
	return req
}

func TestNewSSEHandlers(t *testing.T) {
	handlers, registry := newTestSSEHandlers(t)

	if handlers == nil {
		t.Fatal("NewSSEHandlers() returned nil")
	}
	if handlers.sessions != registry {
		t.Error("NewSSEHandlers() should set sessions field")
	}
	if handlers.totalCity != 3 {
		t.Errorf("expected 3 total cities, got %d", handlers.totalCity)
	}
}

func TestSSEHandlers_HandleCharts(t *testing.T) {
	handlers, registry := newTestSSEHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleCharts(w, signalsRequest(`{"sessionId":"`+sessionA+`","cities":["Yangon","Mandalay"],"metric":"revenue"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/event-stream") {
		t.Errorf("expected content-type to contain 'text/event-stream', got %q", ct)
	}

	body := w.Body.String()
	expected := []string{
		"event: datastar-patch-signals",
		`"_charts"`,
		`"title":"Revenue by city"`,
		`"label":"Mandalay"`,
		"event: datastar-patch-elements",
		"2 of 3 cities",
	}
	for _, content := range expected {
		if !strings.Contains(body, content) {
			t.Errorf("expected SSE body to contain %q", content)
		}
	}
	if strings.Contains(body, `"label":"Naypyitaw"`) {
		t.Error("deselected city should not appear in the charts")
	}

	if registry.Len() != 1 {
		t.Errorf("expected one session, got %d", registry.Len())
	}
}

func TestSSEHandlers_SessionReuse(t *testing.T) {
	handlers, registry := newTestSSEHandlers(t)

	for _, metric := range []string{"revenue", "rating"} {
		w := httptest.NewRecorder()
		handlers.HandleCharts(w, signalsRequest(`{"sessionId":"`+sessionB+`","cities":["Yangon"],"metric":"`+metric+`"}`))
		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
		}
	}

	if registry.Len() != 1 {
		t.Errorf("expected a single reused session, got %d", registry.Len())
	}

	b, err := registry.Session(sessionB)
	if err != nil {
		t.Fatal(err)
	}
	current, ok := b.Current()
	if !ok {
		t.Fatal("session should hold the last applied charts")
	}
	if current.Selection.Metric != models.MetricRating || current.Seq != 2 {
		t.Errorf("expected second selection applied, got seq %d metric %s", current.Seq, current.Selection.Metric)
	}
}

func TestSSEHandlers_EmptySelection(t *testing.T) {
	handlers, _ := newTestSSEHandlers(t)

	w := httptest.NewRecorder()
	handlers.HandleCharts(w, signalsRequest(`{"sessionId":"`+sessionA+`","cities":[],"metric":"rating"}`))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "No cities selected") {
		t.Error("status should report an empty selection")
	}
	if !strings.Contains(body, `"series":[]`) {
		t.Error("empty selection should produce empty series")
	}
}

func TestSSEHandlers_BadRequests(t *testing.T) {
	handlers, registry := newTestSSEHandlers(t)

	tests := []struct {
		name       string
		signals    string
		wantStatus int
		wantCode   string
	}{
		{"no signals", "", http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed json", `{"sessionId":`, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing session", `{"cities":["Yangon"],"metric":"revenue"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"session not a uuid", `{"sessionId":"s1","cities":["Yangon"],"metric":"revenue"}`, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown metric", `{"sessionId":"` + sessionA + `","cities":["Yangon"],"metric":"profit"}`, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handlers.HandleCharts(w, signalsRequest(tt.signals))

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantCode) {
				t.Errorf("expected error code %s in %s", tt.wantCode, w.Body.String())
			}
		})
	}

	if registry.Len() != 0 {
		t.Errorf("rejected requests must not create sessions, got %d", registry.Len())
	}
}

func TestSSEHandlers_AfterShutdown(t *testing.T) {
	handlers, registry := newTestSSEHandlers(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := registry.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	handlers.HandleCharts(w, signalsRequest(`{"sessionId":"`+sessionB+`","cities":["Yangon"],"metric":"revenue"}`))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

// blockingRecomputer holds every recomputation until its context ends.
type blockingRecomputer struct {
	entered chan struct{}
}

func (b *blockingRecomputer) Recompute(ctx context.Context, sel models.FilterSelection) charts.ChartSet {
	b.entered <- struct{}{}
	<-ctx.Done()
	return charts.ChartSet{Selection: sel}
}

func TestSSEHandlers_StoppedWhileWaiting(t *testing.T) {
	rc := &blockingRecomputer{entered: make(chan struct{}, 1)}
	registry := binding.NewRegistry(rc, testLogger(), time.Minute)
	handlers := NewSSEHandlers(registry, 3, 5*time.Second, testLogger())

	w := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.HandleCharts(w, signalsRequest(`{"sessionId":"`+sessionA+`","cities":["Yangon"],"metric":"revenue"}`))
	}()

	<-rc.entered
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := registry.Shutdown(ctx); err != nil {
		t.Fatal(err)
	}
	<-done

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d: %s", http.StatusServiceUnavailable, w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "SERVICE_UNAVAILABLE") {
		t.Errorf("expected SERVICE_UNAVAILABLE in %s", w.Body.String())
	}
}

func TestSSEHandlers_renderStatus(t *testing.T) {
	handlers, _ := newTestSSEHandlers(t)

	tests := []struct {
		name string
		sel  models.FilterSelection
		want string
	}{
		{"some cities", models.FilterSelection{Cities: []string{"Yangon"}, Metric: models.MetricRating}, "1 of 3 cities · Rating"},
		{"no cities", models.FilterSelection{Cities: []string{}, Metric: models.MetricRevenue}, "No cities selected · Revenue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html, err := handlers.renderStatus(charts.ChartSet{Selection: tt.sel})
			if err != nil {
				t.Fatalf("renderStatus() failed: %v", err)
			}
			if !strings.HasPrefix(html, `<p id="status"`) {
				t.Errorf("status must target the #status element, got %q", html)
			}
			if !strings.Contains(html, tt.want) {
				t.Errorf("expected %q in %q", tt.want, html)
			}
		})
	}
}
