package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/services"
)

func TestPageHandlers_HandleDashboard(t *testing.T) {
	handlers := NewPageHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{"<title>Realtime Sales Dashboard</title>", "📊 Realtime Dashboard", "$ 350", `data-bind="city"`, `<option value="B" selected>`} {
		if !strings.Contains(body, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}

func TestPageHandlers_HandleDashboard_Preselected(t *testing.T) {
	handlers := NewPageHandlers(createTestAnalytics(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/?city=B", nil))

	body := w.Body.String()
	if !strings.Contains(body, "$ 200") {
		t.Error("expected totals for city B only")
	}
	if !strings.Contains(body, `<option value="A">`) {
		t.Error("expected city A to be listed but not selected")
	}
}

func TestPageHandlers_HandleDashboard_Unavailable(t *testing.T) {
	handlers := NewPageHandlers(services.NewAnalytics(failingSource{err: errors.New("boom")}), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}
