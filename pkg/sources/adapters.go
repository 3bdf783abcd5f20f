package sources

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/Adda-Baaj/tomato-bot/pkg/httpclient"
)

// Source types understood by the default builder registry.
const (
	TypeMet         = "met"
	TypeCleveland   = "cleveland"
	TypeCooper      = "cooper_hewitt"
	TypeRijks       = "rijksmuseum"
	TypeHarvard     = "harvard"
	TypeSmithsonian = "smithsonian"
)

// Deps are the collaborators handed to adapter builders.
type Deps struct {
	// Client overrides the per-source HTTP client (tests).
	Client HTTPClient
	// Pages resolves og:image for landing pages; defaults to an HTML resolver on Client.
	Pages PageResolver
	// Key looks up an API key by environment variable name.
	Key func(env string) (string, bool)
	// Rand orders candidates; nil falls back to the global source.
	Rand *rand.Rand
}

func (d Deps) clientFor(cfg Source) HTTPClient {
	if d.Client != nil {
		return d.Client
	}
	return httpclient.NewRestyClient(cfg.Timeout())
}

func (d Deps) apiKey(cfg Source) string {
	if d.Key == nil || cfg.KeyEnv == "" {
		return ""
	}
	v, ok := d.Key(cfg.KeyEnv)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

func (d Deps) pagesFor(client HTTPClient) PageResolver {
	if d.Pages != nil {
		return d.Pages
	}
	return NewHTMLPageResolver(client)
}

// Builder creates an Adapter from a source entry.
type Builder func(cfg Source, deps Deps) (Adapter, error)

// BuilderRegistry maps source types to builders.
type BuilderRegistry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewBuilderRegistry returns a registry with optional pre-registered builders.
func NewBuilderRegistry(builders map[string]Builder) *BuilderRegistry {
	r := &BuilderRegistry{builders: make(map[string]Builder)}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a source type.
func (r *BuilderRegistry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// AdapterFor builds the adapter for the given source.
func (r *BuilderRegistry) AdapterFor(cfg Source, deps Deps) (Adapter, error) {
	if r == nil {
		return nil, fmt.Errorf("builder registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("source id is empty")
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(strings.TrimSpace(cfg.Type))]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no adapter registered for source %q (type %q)", cfg.ID, cfg.Type)
	}
	return builder(cfg, deps)
}

// DefaultBuilders wires up the known museum adapters.
func DefaultBuilders() *BuilderRegistry {
	return NewBuilderRegistry(map[string]Builder{
		TypeMet:         NewMetAdapter,
		TypeCleveland:   NewClevelandAdapter,
		TypeCooper:      NewCooperAdapter,
		TypeRijks:       NewRijksAdapter,
		TypeHarvard:     NewHarvardAdapter,
		TypeSmithsonian: NewSmithsonianAdapter,
	})
}
