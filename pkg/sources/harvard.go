package sources

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

// harvardAdapter searches the Harvard Art Museums API.
type harvardAdapter struct {
	listing
	client HTTPClient
	key    string
}

// NewHarvardAdapter builds an adapter for Harvard Art Museums.
func NewHarvardAdapter(cfg Source, deps Deps) (Adapter, error) {
	client := deps.clientFor(cfg)
	return &harvardAdapter{
		listing: listing{cfg: cfg, rng: deps.Rand, pages: deps.pagesFor(client)},
		client:  client,
		key:     deps.apiKey(cfg),
	}, nil
}

func (a *harvardAdapter) ID() string { return a.cfg.ID }

type harvardResponse struct {
	Records []harvardRecord `json:"records"`
}

type harvardRecord struct {
	ID                   flexString `json:"id"`
	Title                string     `json:"title"`
	Dated                string     `json:"dated"`
	CreditLine           string     `json:"creditline"`
	PrimaryImageURL      string     `json:"primaryimageurl"`
	URL                  string     `json:"url"`
	Copyright            string     `json:"copyright"`
	ImagePermissionLevel *int       `json:"imagepermissionlevel"`
	People               []struct {
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"people"`
}

func (a *harvardAdapter) Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error] {
	if a.key == "" {
		return failed(domain.NewSourceError(a.cfg.ID, domain.ErrAuth, fmt.Errorf("%s is not set", a.cfg.KeyEnv)))
	}
	return a.search(ctx, q, a.page)
}

func (a *harvardAdapter) page(ctx context.Context, term string) ([]domain.ArtworkRecord, error) {
	params := url.Values{}
	params.Set("apikey", a.key)
	params.Set("keyword", term)
	params.Set("hasimage", "1")
	params.Set("size", strconv.Itoa(a.cfg.PageSize))
	u, err := buildURL(a.cfg.SourceURL, params)
	if err != nil {
		return nil, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
	}

	var resp harvardResponse
	if err := getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.ArtworkRecord, 0, len(resp.Records))
	for _, rec := range resp.Records {
		if rec.ID == "" {
			continue
		}
		out = append(out, a.record(rec))
	}
	return out, nil
}

func (a *harvardAdapter) record(r harvardRecord) domain.ArtworkRecord {
	var artist string
	for _, p := range r.People {
		if name := strings.TrimSpace(p.Name); name != "" {
			artist = name
			break
		}
	}
	license := domain.LicenseUnknown
	if r.ImagePermissionLevel != nil && *r.ImagePermissionLevel == 0 && strings.TrimSpace(r.Copyright) == "" {
		license = domain.LicensePublicDomain
	}
	return domain.ArtworkRecord{
		ID:           domain.QualifiedID(a.cfg.ID, r.ID.String()),
		Title:        orUntitled(r.Title),
		Artist:       artist,
		Date:         strings.TrimSpace(r.Dated),
		CreditLine:   strings.TrimSpace(r.CreditLine),
		ImageURL:     strings.TrimSpace(r.PrimaryImageURL),
		ObjectURL:    strings.TrimSpace(r.URL),
		SourceMuseum: a.cfg.Name,
		License:      license,
	}
}
