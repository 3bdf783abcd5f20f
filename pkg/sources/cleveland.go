package sources

import (
	"context"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

// clevelandAdapter searches the Cleveland Museum of Art open access API.
type clevelandAdapter struct {
	listing
	client HTTPClient
}

// NewClevelandAdapter builds an adapter for the Cleveland Museum of Art.
func NewClevelandAdapter(cfg Source, deps Deps) (Adapter, error) {
	client := deps.clientFor(cfg)
	return &clevelandAdapter{
		listing: listing{cfg: cfg, rng: deps.Rand},
		client:  client,
	}, nil
}

func (a *clevelandAdapter) ID() string { return a.cfg.ID }

type clevelandResponse struct {
	Data []clevelandArtwork `json:"data"`
}

type clevelandArtwork struct {
	ID                 flexString `json:"id"`
	Title              string     `json:"title"`
	CreationDate       string     `json:"creation_date"`
	CreditLine         string     `json:"creditline"`
	ShareLicenseStatus string     `json:"share_license_status"`
	URL                string     `json:"url"`
	Creators           []struct {
		Description string `json:"description"`
	} `json:"creators"`
	Images struct {
		Web struct {
			URL string `json:"url"`
		} `json:"web"`
	} `json:"images"`
}

func (a *clevelandAdapter) Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error] {
	return a.search(ctx, q, a.page)
}

func (a *clevelandAdapter) page(ctx context.Context, term string) ([]domain.ArtworkRecord, error) {
	params := url.Values{}
	params.Set("q", term)
	params.Set("has_image", "1")
	params.Set("cc0", "1")
	params.Set("limit", strconv.Itoa(a.cfg.PageSize))
	u, err := buildURL(a.cfg.SourceURL, params)
	if err != nil {
		return nil, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
	}

	var resp clevelandResponse
	if err := getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.ArtworkRecord, 0, len(resp.Data))
	for _, obj := range resp.Data {
		if obj.ID == "" {
			continue
		}
		out = append(out, a.record(obj))
	}
	return out, nil
}

func (a *clevelandAdapter) record(o clevelandArtwork) domain.ArtworkRecord {
	var artist string
	if len(o.Creators) > 0 {
		artist = strings.TrimSpace(o.Creators[0].Description)
	}
	license := domain.LicenseUnknown
	museum := a.cfg.Name
	if strings.EqualFold(strings.TrimSpace(o.ShareLicenseStatus), "cc0") {
		license = domain.LicenseCC0
		museum += " (CC0)"
	}
	return domain.ArtworkRecord{
		ID:           domain.QualifiedID(a.cfg.ID, o.ID.String()),
		Title:        orUntitled(o.Title),
		Artist:       artist,
		Date:         strings.TrimSpace(o.CreationDate),
		CreditLine:   strings.TrimSpace(o.CreditLine),
		ImageURL:     strings.TrimSpace(o.Images.Web.URL),
		ObjectURL:    strings.TrimSpace(o.URL),
		SourceMuseum: museum,
		License:      license,
	}
}
