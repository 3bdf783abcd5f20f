package notifiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

func TestHTTPNotifierSuccess(t *testing.T) {
	var got Event
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.Header.Get("X-Test") != "1" {
			t.Errorf("missing header")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n, err := newHTTPNotifier(context.Background(), sanitizeConfig(Config{
		ID:   "hook",
		Type: TypeHTTP,
		HTTP: &HTTPConfig{URL: srv.URL, Method: "put", Headers: map[string]string{"X-Test": "1"}},
	}), nil)
	if err != nil {
		t.Fatalf("newHTTPNotifier: %v", err)
	}

	evt := NewEvent("met", "The Met", domain.ArtworkRecord{ID: "met:1"}, "at://did/app.bsky.feed.post/1", "")
	if err := n.Notify(context.Background(), evt); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got.SourceID != "met" || got.Artwork.ID != "met:1" || got.PostURI == "" {
		t.Fatalf("unexpected payload %#v", got)
	}
}

func TestHTTPNotifierErrorOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()

	n, err := newHTTPNotifier(context.Background(), sanitizeConfig(Config{
		ID: "hook", Type: TypeHTTP, HTTP: &HTTPConfig{URL: srv.URL},
	}), nil)
	if err != nil {
		t.Fatalf("newHTTPNotifier: %v", err)
	}
	if err := n.Notify(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error for 400 response")
	}
}
