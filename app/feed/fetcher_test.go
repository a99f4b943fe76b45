package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetcher_Run(t *testing.T) {
	body := `<rss version="2.0"><channel><title>Test</title></channel></rss>`

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
		w.Write([]byte(body))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), server.URL, "Test Agent/1.0", 5*time.Second)

	data, contentType, err := fetcher.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(data) != body {
		t.Errorf("Expected body '%s', got '%s'", body, data)
	}
	if contentType != "application/rss+xml; charset=utf-8" {
		t.Errorf("Expected upstream content type, got '%s'", contentType)
	}
	if gotUserAgent != "Test Agent/1.0" {
		t.Errorf("Expected configured user agent, got '%s'", gotUserAgent)
	}
}

func TestFetcher_Run_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), server.URL, "Test Agent/1.0", 5*time.Second)

	if _, _, err := fetcher.Run(context.Background()); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestFetcher_Run_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), server.URL, "Test Agent/1.0", 50*time.Millisecond)

	if _, _, err := fetcher.Run(context.Background()); err == nil {
		t.Error("Expected error when upstream exceeds the fetch timeout")
	}
}

func TestFetcher_Run_UnreachableUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	fetcher := NewFetcher(&http.Client{}, server.URL, "Test Agent/1.0", time.Second)

	if _, _, err := fetcher.Run(context.Background()); err == nil {
		t.Error("Expected error for unreachable upstream")
	}
}

func TestFetcher_Run_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), server.URL, "Test Agent/1.0", 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := fetcher.Run(ctx); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
