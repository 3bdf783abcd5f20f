package sources

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

const smithsonianRows = `{"response":{"rows":[
 {"id":"edanmdm-saam_1929.6.1","title":"Tomatoes",
  "content":{
   "freetext":{
    "name":[{"label":"Artist","content":"Grace Painter"}],
    "date":[{"label":"Date","content":"1929"}],
    "creditLine":[{"label":"Credit Line","content":"Gift of the artist"}]},
   "descriptiveNonRepeating":{
    "data_source":"Smithsonian American Art Museum",
    "record_link":"https://collections.si.edu/saam-1929",
    "metadata_usage":{"access":"CC0"},
    "online_media":{"media":[
     {"type":"3d","content":"https://ids.si.edu/model"},
     {"type":"Images","content":"https://ids.si.edu/ids/deliveryService?id=SAAM-1929"}]}}}},
 {"id":"edanmdm-nmah_2","title":"Seed packet",
  "content":{"descriptiveNonRepeating":{"metadata_usage":{"access":"usage conditions apply"}}}},
 {"title":"missing id"}
]}}`

func TestSmithsonianAdapterReadsNestedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "tomato AND online_media_type:Images" {
			t.Errorf("unexpected q %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(smithsonianRows))
	}))
	defer srv.Close()

	cfg := testSource("smithsonian", TypeSmithsonian, srv.URL)
	cfg.Name = "Smithsonian Open Access"
	cfg.KeyEnv = "SMITH_API_KEY"
	adapter, _ := NewSmithsonianAdapter(cfg, testDeps(map[string]string{"SMITH_API_KEY": "sk"}))

	recs, err := collect(t, adapter, Query{Term: "tomato"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record with an image, got %#v", recs)
	}
	want := domain.ArtworkRecord{
		ID:           "smithsonian:edanmdm-saam_1929.6.1",
		Title:        "Tomatoes",
		Artist:       "Grace Painter",
		Date:         "1929",
		CreditLine:   "Gift of the artist",
		ImageURL:     "https://ids.si.edu/ids/deliveryService?id=SAAM-1929",
		ObjectURL:    "https://collections.si.edu/saam-1929",
		SourceMuseum: "Smithsonian American Art Museum, Smithsonian Open Access",
		License:      domain.LicenseCC0,
	}
	if recs[0] != want {
		t.Fatalf("unexpected record\n got %#v\nwant %#v", recs[0], want)
	}
}

func TestPathStringUnwrapsArrays(t *testing.T) {
	var doc any
	if err := json.Unmarshal([]byte(`{"a":[[{"b":7}]],"n":null}`), &doc); err != nil {
		t.Fatal(err)
	}
	if got := pathString(doc, "$.a[0][0].b"); got != "7" {
		t.Fatalf("expected 7, got %q", got)
	}
	if got := pathString(doc, "$.n"); got != "" {
		t.Fatalf("expected empty for null, got %q", got)
	}
	if got := pathString(doc, "$.missing.field"); got != "" {
		t.Fatalf("expected empty for missing path, got %q", got)
	}
}

func TestSmithsonianAdapterMissingKeyMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cfg := testSource("smithsonian", TypeSmithsonian, srv.URL)
	cfg.KeyEnv = "SMITH_API_KEY"
	adapter, _ := NewSmithsonianAdapter(cfg, testDeps(nil))
	_, err := collect(t, adapter, Query{Term: "tomato"})
	if !errors.Is(err, domain.ErrAuth) {
		t.Fatalf("expected ErrAuth, got %v", err)
	}
	var srcErr *domain.SourceError
	if !errors.As(err, &srcErr) || srcErr.Source != "smithsonian" {
		t.Fatalf("expected SourceError for smithsonian, got %#v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no requests, got %d", hits.Load())
	}
}
