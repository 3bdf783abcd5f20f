package sources

import (
	"context"
	"errors"
	"iter"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
)

// maxMetLookupFailures is how many object lookups in a row may fail, 404s aside, before the
// source is reported unavailable.
const maxMetLookupFailures = 3

// metAdapter searches The Met collection API: one search call per term, then one object
// lookup per candidate id, throttled by the source request delay.
type metAdapter struct {
	cfg    Source
	client HTTPClient
	rng    *rand.Rand
}

// NewMetAdapter builds an adapter for The Met Open Access API.
func NewMetAdapter(cfg Source, deps Deps) (Adapter, error) {
	return &metAdapter{cfg: cfg, client: deps.clientFor(cfg), rng: deps.Rand}, nil
}

func (a *metAdapter) ID() string { return a.cfg.ID }

type metSearchResponse struct {
	Total     int   `json:"total"`
	ObjectIDs []int `json:"objectIDs"`
}

type metObject struct {
	ObjectID          int    `json:"objectID"`
	IsPublicDomain    bool   `json:"isPublicDomain"`
	Title             string `json:"title"`
	ArtistDisplayName string `json:"artistDisplayName"`
	ObjectDate        string `json:"objectDate"`
	CreditLine        string `json:"creditLine"`
	Department        string `json:"department"`
	PrimaryImage      string `json:"primaryImage"`
	PrimaryImageSmall string `json:"primaryImageSmall"`
	ObjectURL         string `json:"objectURL"`
	Medium            string `json:"medium"`
	ObjectName        string `json:"objectName"`
	Tags              []struct {
		Term string `json:"term"`
	} `json:"tags"`
}

func (a *metAdapter) Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error] {
	return func(yield func(domain.ArtworkRecord, error) bool) {
		terms := a.cfg.Terms(q.Term)
		ids, err := a.searchIDs(ctx, terms)
		if err != nil {
			yield(domain.ArtworkRecord{}, err)
			return
		}
		shuffle(a.rng, ids)

		relevance := a.cfg.RelevanceTerms
		if len(relevance) == 0 {
			relevance = terms
		}

		lookups, failures := 0, 0
		for _, oid := range ids {
			key := domain.QualifiedID(a.cfg.ID, strconv.Itoa(oid))
			if q.seen(key) {
				continue
			}
			if lookups >= a.cfg.MaxLookups {
				return
			}
			if lookups > 0 {
				if err := wait(ctx, a.cfg.RequestDelay()); err != nil {
					yield(domain.ArtworkRecord{}, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err))
					return
				}
			}
			lookups++

			obj, err := a.object(ctx, oid)
			if err != nil {
				if errors.Is(err, domain.ErrAuth) || ctx.Err() != nil {
					yield(domain.ArtworkRecord{}, err)
					return
				}
				if !isStatus(err, http.StatusNotFound) {
					failures++
				}
				logger.WarnObj("met object lookup failed", "source_item_error", map[string]any{
					"source_id": a.cfg.ID,
					"object_id": oid,
					"failures":  failures,
					"error":     err.Error(),
				})
				if failures >= maxMetLookupFailures {
					yield(domain.ArtworkRecord{}, err)
					return
				}
				continue
			}
			failures = 0
			if !obj.relevant(relevance) {
				logger.DebugObj("met object not relevant", "source_item", map[string]any{
					"source_id": a.cfg.ID,
					"object_id": oid,
				})
				continue
			}

			rec := a.record(key, obj)
			if !rec.HasImage() {
				continue
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// searchIDs unions the object ids of every term, keeping first-seen order.
func (a *metAdapter) searchIDs(ctx context.Context, terms []string) ([]int, error) {
	var ids []int
	seen := make(map[int]struct{})

	err := eachTerm(ctx, a.cfg, terms, func(term string) error {
		params := url.Values{}
		params.Set("q", term)
		params.Set("hasImages", "true")
		u, err := buildURL(a.cfg.SourceURL, params, "search")
		if err != nil {
			return domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
		}

		var resp metSearchResponse
		if err := getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &resp); err != nil {
			return err
		}
		for _, id := range resp.ObjectIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		logger.DebugObj("met search completed", "source_search", map[string]any{
			"source_id": a.cfg.ID,
			"term":      term,
			"ids":       len(resp.ObjectIDs),
		})
		return nil
	})
	return ids, err
}

func (a *metAdapter) object(ctx context.Context, oid int) (metObject, error) {
	u, err := buildURL(a.cfg.SourceURL, nil, "objects", strconv.Itoa(oid))
	if err != nil {
		return metObject{}, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
	}
	var obj metObject
	err = getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &obj)
	return obj, err
}

func (o metObject) relevant(terms []string) bool {
	parts := []string{o.Title, o.Medium, o.ObjectName}
	for _, t := range o.Tags {
		parts = append(parts, t.Term)
	}
	return containsAny(strings.Join(parts, " "), terms)
}

func (a *metAdapter) record(key string, o metObject) domain.ArtworkRecord {
	museum := a.cfg.Name
	if dept := strings.TrimSpace(o.Department); dept != "" {
		museum = dept + ", " + a.cfg.Name
	}
	license := domain.LicenseUnknown
	if o.IsPublicDomain {
		license = domain.LicensePublicDomain
	}
	return domain.ArtworkRecord{
		ID:           key,
		Title:        orUntitled(o.Title),
		Artist:       strings.TrimSpace(o.ArtistDisplayName),
		Date:         strings.TrimSpace(o.ObjectDate),
		CreditLine:   strings.TrimSpace(o.CreditLine),
		ImageURL:     firstNonEmpty(o.PrimaryImageSmall, o.PrimaryImage),
		ObjectURL:    strings.TrimSpace(o.ObjectURL),
		SourceMuseum: museum,
		License:      license,
	}
}
