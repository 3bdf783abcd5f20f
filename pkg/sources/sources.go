package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Package sources contains museum source configs (YAML/JSON) and their adapters.

// Source describes one museum collection API declared in the sources file.
type Source struct {
	ID             string         `json:"id" yaml:"id"`
	Name           string         `json:"name" yaml:"name"`
	Type           string         `json:"type" yaml:"type"`
	SourceURL      string         `json:"source_url" yaml:"source_url"`
	KeyEnv         string         `json:"key_env" yaml:"key_env"`
	RequiresKey    bool           `json:"requires_key" yaml:"requires_key"`
	Enabled        *bool          `json:"enabled" yaml:"enabled"`
	RequestDelayMs int            `json:"request_delay_ms" yaml:"request_delay_ms"`
	TimeoutSeconds int            `json:"timeout_seconds" yaml:"timeout_seconds"`
	PageSize       int            `json:"page_size" yaml:"page_size"`
	MaxLookups     int            `json:"max_lookups" yaml:"max_lookups"`
	SearchTerms    []string       `json:"search_terms" yaml:"search_terms"`
	RelevanceTerms []string       `json:"relevance_terms" yaml:"relevance_terms"`
	Config         map[string]any `json:"config" yaml:"config"`
}

type registryFile struct {
	Sources []Source `json:"sources" yaml:"sources"`
}

const (
	defaultRequestDelayMs = 500
	defaultTimeoutSeconds = 15
	defaultPageSize       = 100
	defaultMaxLookups     = 40
)

// Registry holds the sources loaded from file, in declaration order.
type Registry struct {
	sources []Source
	idx     map[string]Source
}

// LoadRegistry loads the source registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sources file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sources file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	return ParseRegistry(raw, filepath.Ext(path))
}

// ParseRegistry decodes, sanitizes, and validates registry content.
func ParseRegistry(raw []byte, ext string) (*Registry, error) {
	file, err := parseRegistryFile(raw, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Sources) == 0 {
		return nil, errors.New("sources file contains no sources entries")
	}

	reg := &Registry{
		sources: make([]Source, 0, len(file.Sources)),
		idx:     make(map[string]Source, len(file.Sources)),
	}
	for i := range file.Sources {
		s := sanitizeSource(file.Sources[i])
		if err := validateSource(s); err != nil {
			return nil, fmt.Errorf("source[%d]: %w", i, err)
		}
		if _, exists := reg.idx[s.ID]; exists {
			return nil, fmt.Errorf("duplicate source id %q", s.ID)
		}
		reg.sources = append(reg.sources, s)
		reg.idx[s.ID] = s
	}
	return reg, nil
}

func parseRegistryFile(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		if reg, err := unmarshalRegistry(d.name, data, d.fn); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("sources file format not recognized (expected YAML or JSON)")
}

type unmarshalFn func([]byte, any) error

func unmarshalRegistry(name string, data []byte, fn unmarshalFn) (registryFile, error) {
	var reg registryFile
	if err := fn(data, &reg); err != nil {
		return registryFile{}, fmt.Errorf("decode %s sources: %w", name, err)
	}
	return reg, nil
}

func sanitizeSource(s Source) Source {
	s.ID = strings.ToLower(strings.TrimSpace(s.ID))
	s.Name = strings.TrimSpace(s.Name)
	s.Type = strings.ToLower(strings.TrimSpace(s.Type))
	s.SourceURL = strings.TrimSpace(s.SourceURL)
	s.KeyEnv = strings.ToUpper(strings.TrimSpace(s.KeyEnv))
	if s.KeyEnv != "" {
		s.RequiresKey = true
	}

	if s.Enabled == nil {
		def := true
		s.Enabled = &def
	}
	if s.Config == nil {
		s.Config = map[string]any{}
	}
	if s.RequestDelayMs <= 0 {
		s.RequestDelayMs = defaultRequestDelayMs
	}
	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = defaultTimeoutSeconds
	}
	if s.PageSize <= 0 {
		s.PageSize = defaultPageSize
	}
	if s.MaxLookups <= 0 {
		s.MaxLookups = defaultMaxLookups
	}
	s.SearchTerms = cleanTerms(s.SearchTerms)
	s.RelevanceTerms = cleanTerms(s.RelevanceTerms)

	return s
}

func cleanTerms(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, t := range in {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

func validateSource(s Source) error {
	if s.ID == "" {
		return errors.New("id is required")
	}
	if strings.ContainsAny(s.ID, ": ") {
		return fmt.Errorf("id %q must not contain ':' or spaces", s.ID)
	}
	if s.Name == "" {
		return fmt.Errorf("name is required for source %q", s.ID)
	}
	if s.Type == "" {
		return fmt.Errorf("type is required for source %q", s.ID)
	}
	if s.SourceURL == "" {
		return fmt.Errorf("source_url is required for source %q", s.ID)
	}
	return nil
}

// All returns every configured source.
func (r *Registry) All() []Source {
	if r == nil {
		return nil
	}
	out := make([]Source, len(r.sources))
	copy(out, r.sources)
	return out
}

// Enabled returns the sources not switched off in config.
func (r *Registry) Enabled() []Source {
	all := r.All()
	out := make([]Source, 0, len(all))
	for _, s := range all {
		if s.EnabledValue() {
			out = append(out, s)
		}
	}
	return out
}

// ByID returns the source entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Source, bool) {
	if r == nil {
		return Source{}, false
	}
	s, ok := r.idx[strings.ToLower(strings.TrimSpace(id))]
	return s, ok
}

// EnabledValue returns the enabled flag defaulting to true.
func (s Source) EnabledValue() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// RequestDelay returns the per-request throttle duration for the source.
func (s Source) RequestDelay() time.Duration {
	if s.RequestDelayMs <= 0 {
		return time.Duration(defaultRequestDelayMs) * time.Millisecond
	}
	return time.Duration(s.RequestDelayMs) * time.Millisecond
}

// Timeout returns the HTTP timeout for the source.
func (s Source) Timeout() time.Duration {
	if s.TimeoutSeconds <= 0 {
		return time.Duration(defaultTimeoutSeconds) * time.Second
	}
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Terms returns the search terms for a run term: configured terms when present, else the term itself.
func (s Source) Terms(term string) []string {
	if len(s.SearchTerms) > 0 {
		return s.SearchTerms
	}
	if t := strings.TrimSpace(term); t != "" {
		return []string{t}
	}
	return nil
}
