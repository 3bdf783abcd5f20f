package sources

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

func cooperSource(url string) Source {
	cfg := testSource("cooper", TypeCooper, url)
	cfg.Name = "Cooper Hewitt"
	cfg.KeyEnv = "COOPER_API_KEY"
	cfg.RequiresKey = true
	return cfg
}

func TestCooperAdapterMissingKeyMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	adapter, _ := NewCooperAdapter(cooperSource(srv.URL), testDeps(nil))
	_, err := collect(t, adapter, Query{Term: "tomato"})
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) || srcErr.Source != "cooper" {
		t.Fatalf("expected SourceError for cooper, got %#v", err)
	}
	if hits != 0 {
		t.Fatalf("expected no requests, got %d", hits)
	}
}

func TestCooperAdapterStatFailIsAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]any{
			"stat":  "fail",
			"error": map[string]any{"code": 998, "message": "Invalid access token"},
		})
	}))
	defer srv.Close()

	adapter, _ := NewCooperAdapter(cooperSource(srv.URL), testDeps(map[string]string{"COOPER_API_KEY": "tok"}))
	if _, err := collect(t, adapter, Query{Term: "tomato"}); !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
}

func TestCooperAdapterResolvesLandingPageImage(t *testing.T) {
	var srvURL string
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("access_token") != "tok" || q.Get("method") != cooperSearchMethod || q.Get("query") != "tomato" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		writeJSON(t, w, map[string]any{
			"stat": "ok",
			"objects": []map[string]any{
				{
					"id": "18704235", "title": "Sidewall, Tomatoes", "date": "1950",
					"description": " Vines of ripe tomatoes on a trellis. ",
					"creditline":  "Gift of Jane Doe", "has_no_known_copyright": "1",
					"participants": []map[string]string{{"person_name": "Ada Designer", "role_name": "Designer"}},
					"images": []map[string]any{{
						"b": map[string]string{"url": "https://images.collection.cooperhewitt.org/b.jpg"},
						"z": map[string]string{"url": "https://images.collection.cooperhewitt.org/z.jpg"},
					}},
				},
				{
					"id": 18704236, "title": "Plate", "has_no_known_copyright": 0,
					"creditline": "Gift of John Roe",
					"url":        srvURL + "/objects/18704236/",
				},
				{"id": 18704237, "title": "Bowl"},
			},
		})
	})
	mux.HandleFunc("/objects/18704236/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><meta property="og:image" content="/media/plate.jpg"></head></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	srvURL = srv.URL

	adapter, _ := NewCooperAdapter(cooperSource(srv.URL+"/rest/"), testDeps(map[string]string{"COOPER_API_KEY": "tok"}))
	recs, err := collect(t, adapter, Query{Term: "tomato"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %#v", recs)
	}
	first := recs[0]
	if first.ID != "cooper:18704235" || first.Artist != "Ada Designer" || first.License != domain.LicensePublicDomain {
		t.Fatalf("unexpected first record %#v", first)
	}
	if first.CreditLine != "Vines of ripe tomatoes on a trellis." {
		t.Fatalf("expected description in the credit line slot, got %q", first.CreditLine)
	}
	if first.ImageURL != "https://images.collection.cooperhewitt.org/b.jpg" {
		t.Fatalf("expected b rendition, got %q", first.ImageURL)
	}
	second := recs[1]
	if second.ImageURL != srv.URL+"/media/plate.jpg" {
		t.Fatalf("expected og:image fallback, got %q", second.ImageURL)
	}
	if second.CreditLine != "Gift of John Roe" {
		t.Fatalf("expected credit line fallback, got %q", second.CreditLine)
	}
	if second.License != domain.LicenseUnknown {
		t.Fatalf("expected unknown license, got %q", second.License)
	}
}
