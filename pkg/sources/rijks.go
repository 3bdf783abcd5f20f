package sources

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

// rijksAdapter searches the Rijksmuseum collection API. The key is optional in config: when it
// is absent the source is simply not eligible.
type rijksAdapter struct {
	listing
	client HTTPClient
	key    string
}

// NewRijksAdapter builds an adapter for the Rijksmuseum.
func NewRijksAdapter(cfg Source, deps Deps) (Adapter, error) {
	client := deps.clientFor(cfg)
	return &rijksAdapter{
		listing: listing{cfg: cfg, rng: deps.Rand},
		client:  client,
		key:     deps.apiKey(cfg),
	}, nil
}

func (a *rijksAdapter) ID() string { return a.cfg.ID }

type rijksResponse struct {
	ArtObjects []rijksObject `json:"artObjects"`
}

type rijksObject struct {
	ObjectNumber          string `json:"objectNumber"`
	Title                 string `json:"title"`
	LongTitle             string `json:"longTitle"`
	PrincipalOrFirstMaker string `json:"principalOrFirstMaker"`
	PermitDownload        bool   `json:"permitDownload"`
	WebImage              *struct {
		URL string `json:"url"`
	} `json:"webImage"`
	Links struct {
		Web string `json:"web"`
	} `json:"links"`
}

func (a *rijksAdapter) Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error] {
	if a.key == "" {
		return failed(domain.NewSourceError(a.cfg.ID, domain.ErrAuth, fmt.Errorf("%s is not set", a.cfg.KeyEnv)))
	}
	return a.search(ctx, q, a.page)
}

func (a *rijksAdapter) page(ctx context.Context, term string) ([]domain.ArtworkRecord, error) {
	params := url.Values{}
	params.Set("key", a.key)
	params.Set("q", term)
	params.Set("imgonly", "True")
	params.Set("ps", strconv.Itoa(a.cfg.PageSize))
	u, err := buildURL(a.cfg.SourceURL, params)
	if err != nil {
		return nil, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
	}

	var resp rijksResponse
	if err := getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.ArtworkRecord, 0, len(resp.ArtObjects))
	for _, obj := range resp.ArtObjects {
		if strings.TrimSpace(obj.ObjectNumber) == "" {
			continue
		}
		out = append(out, a.record(obj))
	}
	return out, nil
}

func (a *rijksAdapter) record(o rijksObject) domain.ArtworkRecord {
	var img string
	if o.WebImage != nil {
		img = strings.TrimSpace(o.WebImage.URL)
	}
	license := domain.LicenseUnknown
	if o.PermitDownload {
		license = domain.LicensePublicDomain
	}
	artist := strings.TrimSpace(o.PrincipalOrFirstMaker)
	if strings.EqualFold(artist, "anonymous") {
		artist = ""
	}
	return domain.ArtworkRecord{
		ID:           domain.QualifiedID(a.cfg.ID, o.ObjectNumber),
		Title:        orUntitled(o.Title),
		Artist:       artist,
		Date:         rijksDate(o.LongTitle),
		ImageURL:     img,
		ObjectURL:    strings.TrimSpace(o.Links.Web),
		SourceMuseum: a.cfg.Name,
		License:      license,
	}
}

// rijksDate takes the trailing segment of a long title such as
// "Still Life with Tomatoes, Jan Davidsz. de Heem, c. 1650" when it contains a digit.
func rijksDate(longTitle string) string {
	idx := strings.LastIndex(longTitle, ",")
	if idx < 0 {
		return ""
	}
	tail := strings.TrimSpace(longTitle[idx+1:])
	if strings.IndexFunc(tail, unicode.IsDigit) < 0 {
		return ""
	}
	return tail
}
