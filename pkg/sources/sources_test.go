package sources

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRegistryYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sources.yaml")
	content := `
sources:
  - id: met
    name: The Met Open Access
    type: met
    source_url: https://collectionapi.metmuseum.org/public/collection/v1/
    request_delay_ms: 250
    search_terms: [tomato, tomatoes, Tomato]
  - id: harvard
    name: Harvard Art Museums
    type: harvard
    source_url: https://api.harvardartmuseums.org/object
    key_env: harvard_api_key
  - id: rijks
    name: Rijksmuseum
    type: rijksmuseum
    source_url: https://www.rijksmuseum.nl/api/en/collection
    enabled: false
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write sources file: %v", err)
	}

	reg, err := LoadRegistry(file)
	if err != nil {
		t.Fatalf("LoadRegistry returned error: %v", err)
	}
	if len(reg.All()) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(reg.All()))
	}
	if len(reg.Enabled()) != 2 {
		t.Fatalf("expected 2 enabled sources, got %d", len(reg.Enabled()))
	}

	met, ok := reg.ByID("met")
	if !ok {
		t.Fatalf("expected met to be loaded")
	}
	if met.SourceURL != "https://collectionapi.metmuseum.org/public/collection/v1/" {
		t.Fatalf("expected source_url kept verbatim, got %s", met.SourceURL)
	}
	if met.RequestDelay() != 250*time.Millisecond {
		t.Fatalf("unexpected request delay: %v", met.RequestDelay())
	}
	if got := met.Terms("ignored"); len(got) != 2 || got[0] != "tomato" || got[1] != "tomatoes" {
		t.Fatalf("unexpected terms %v", got)
	}
	if met.RequiresKey {
		t.Fatalf("met must not require a key")
	}

	harvard, _ := reg.ByID("harvard")
	if !harvard.RequiresKey || harvard.KeyEnv != "HARVARD_API_KEY" {
		t.Fatalf("expected key_env to imply requires_key, got %#v", harvard)
	}
	if got := harvard.Terms("tomato"); len(got) != 1 || got[0] != "tomato" {
		t.Fatalf("expected run term fallback, got %v", got)
	}
}

func TestLoadRegistryDuplicateID(t *testing.T) {
	raw := []byte(`{"sources": [
  {"id": "met", "name": "A", "type": "met", "source_url": "https://a.example"},
  {"id": "MET", "name": "B", "type": "met", "source_url": "https://b.example"}
]}`)
	if _, err := ParseRegistry(raw, ".json"); err == nil {
		t.Fatalf("expected duplicate source error, got nil")
	}
}

func TestLoadRegistryRejectsInvalidEntries(t *testing.T) {
	cases := map[string]string{
		"missing type": `sources: [{id: a, name: A, source_url: "https://a"}]`,
		"colon in id":  `sources: [{id: "a:b", name: A, type: met, source_url: "https://a"}]`,
		"empty":        `sources: []`,
	}
	for name, raw := range cases {
		if _, err := ParseRegistry([]byte(raw), ".yaml"); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
