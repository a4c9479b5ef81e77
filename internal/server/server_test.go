package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testServer() *Server {
	analytics := services.NewAnalytics(nil)
	analytics.SetTable(&models.Table{Records: []models.SalesRecord{
		{InvoiceID: "1", City: "Yangon", CustomerType: "Member", Gender: "Female", ProductLine: "Sports and travel", Total: 120, Rating: 7, Hour: 11},
	}})
	return NewServer(analytics, testLogger())
}

func TestServer_Routes(t *testing.T) {
	srv := testServer()

	tests := []struct {
		method string
		path   string
		want   int
		ctype  string
	}{
		{http.MethodGet, "/", http.StatusOK, "text/html"},
		{http.MethodGet, "/health", http.StatusOK, "application/json"},
		{http.MethodGet, "/admin/stats", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/options", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/summary?city=Yangon", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/records", http.StatusOK, "application/json"},
		{http.MethodGet, "/api/export.csv", http.StatusOK, "text/csv"},
		{http.MethodGet, "/api/report.pdf", http.StatusOK, "application/pdf"},
		{http.MethodGet, "/sse/dashboard", http.StatusOK, "text/event-stream"},
		{http.MethodGet, "/nope", http.StatusNotFound, ""},
		{http.MethodPost, "/api/summary", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, w.Code)
			}
			if tt.ctype != "" && !strings.HasPrefix(w.Header().Get("Content-Type"), tt.ctype) {
				t.Errorf("expected content type %q, got %q", tt.ctype, w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestGracefulServer_Serve(t *testing.T) {
	cfg := config.Defaults()
	cfg.Server.ShutdownTimeout = 2 * time.Second

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	httpServer := &http.Server{Handler: testServer()}
	gs := NewGracefulServer(httpServer, testLogger(), cfg)

	var hookCalls atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		hookCalls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	if hookCalls.Load() != 1 {
		t.Errorf("expected hook to run once, got %d", hookCalls.Load())
	}
}

func TestGracefulServer_HookError(t *testing.T) {
	cfg := config.Defaults()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	gs := NewGracefulServer(&http.Server{Handler: http.NotFoundHandler()}, testLogger(), cfg)
	hookErr := errors.New("flush failed")
	gs.RegisterShutdownHook(func(context.Context) error { return hookErr })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := gs.Serve(ctx, ln); !errors.Is(err, hookErr) {
		t.Errorf("expected hook error, got %v", err)
	}
}
