package linkmeta

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Plain Title</title>
<meta property="og:title" content="OG Title" />
<meta property="og:description" content="A description." />
<meta property="og:image" content="https://cdn.example/cover.png" />
<meta property="og:site_name" content="Example" />
</head>
<body><p>hello</p></body>
</html>`

func TestFetchExtractsOpenGraphTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	meta, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if meta.Title != "OG Title" {
		t.Errorf("expected og:title to win, got %q", meta.Title)
	}
	if meta.Description != "A description." {
		t.Errorf("unexpected description %q", meta.Description)
	}
	if meta.ImageURL != "https://cdn.example/cover.png" {
		t.Errorf("unexpected image %q", meta.ImageURL)
	}
	if meta.SiteName != "Example" {
		t.Errorf("unexpected site name %q", meta.SiteName)
	}
	if meta.URL != srv.URL {
		t.Errorf("expected request URL echoed back, got %q", meta.URL)
	}
}

func TestFetchFallsBackToTitleTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title> Just a Title </title></head><body></body></html>`)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	meta, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Title != "Just a Title" {
		t.Errorf("expected trimmed title tag, got %q", meta.Title)
	}
}

func TestFetchRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	_, err := f.Fetch(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotHTML) {
		t.Fatalf("expected ErrNotHTML, got %v", err)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	meta, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error after retries: %v", err)
	}
	if meta.Title != "OG Title" {
		t.Errorf("unexpected title %q", meta.Title)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestFetchNoRetryOnClientError(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.Client())
	_, err := f.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected an error for 404")
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("expected a single attempt, got %d", got)
	}
}
