package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"postpilot/internal/poster"
	"postpilot/internal/queue"
	"postpilot/pkg/logx"
)

func TestPostSendsPayload(t *testing.T) {
	t.Parallel()
	var got payload
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := New(Config{URL: srv.URL, AuthToken: "secret"}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	req := poster.Request{
		Content:   "<p>hi</p>",
		PlainText: "hi",
		Media:     &queue.Media{Kind: "photo", Ref: "https://example.test/a.jpg"},
	}
	if err := p.Post(context.Background(), req); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if got.PlainText != "hi" || got.MediaRef != "https://example.test/a.jpg" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("auth header = %q", auth)
	}
}

func TestPostRejectsNon2xx(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	p, err := New(Config{URL: srv.URL}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Post(context.Background(), poster.Request{PlainText: "x"}); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestPostTimesOut(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	p, err := New(Config{URL: srv.URL, Timeout: 50 * time.Millisecond}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = p.Post(context.Background(), poster.Request{PlainText: "x"})
	if !errors.Is(err, poster.ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
}

func TestNewRequiresURL(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty url")
	}
}
