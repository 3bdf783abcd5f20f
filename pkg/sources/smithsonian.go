package sources

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/PaesslerAG/jsonpath"
)

// JSONPath expressions into one Smithsonian Open Access row.
const (
	siPathID         = "$.id"
	siPathTitle      = "$.title"
	siPathArtist     = "$.content.freetext.name[0].content"
	siPathDate       = "$.content.freetext.date[0].content"
	siPathCredit     = "$.content.freetext.creditLine[0].content"
	siPathDataSource = "$.content.descriptiveNonRepeating.data_source"
	siPathRecordLink = "$.content.descriptiveNonRepeating.record_link"
	siPathAccess     = "$.content.descriptiveNonRepeating.metadata_usage.access"
	siPathImage      = `$.content.descriptiveNonRepeating.online_media.media[?(@.type=="Images")].content`
	siPathAnyMedia   = "$.content.descriptiveNonRepeating.online_media.media[0].content"
)

// smithsonianAdapter searches the Smithsonian Open Access API (api.data.gov key).
type smithsonianAdapter struct {
	listing
	client HTTPClient
	key    string
}

// NewSmithsonianAdapter builds an adapter for Smithsonian Open Access.
func NewSmithsonianAdapter(cfg Source, deps Deps) (Adapter, error) {
	client := deps.clientFor(cfg)
	return &smithsonianAdapter{
		listing: listing{cfg: cfg, rng: deps.Rand},
		client:  client,
		key:     deps.apiKey(cfg),
	}, nil
}

func (a *smithsonianAdapter) ID() string { return a.cfg.ID }

type smithsonianResponse struct {
	Response struct {
		Rows []any `json:"rows"`
	} `json:"response"`
}

func (a *smithsonianAdapter) Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error] {
	if a.key == "" {
		return failed(domain.NewSourceError(a.cfg.ID, domain.ErrAuth, fmt.Errorf("%s is not set", a.cfg.KeyEnv)))
	}
	return a.search(ctx, q, a.page)
}

func (a *smithsonianAdapter) page(ctx context.Context, term string) ([]domain.ArtworkRecord, error) {
	params := url.Values{}
	params.Set("api_key", a.key)
	params.Set("q", term+" AND online_media_type:Images")
	params.Set("rows", strconv.Itoa(a.cfg.PageSize))
	u, err := buildURL(a.cfg.SourceURL, params, "search")
	if err != nil {
		return nil, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
	}

	var resp smithsonianResponse
	if err := getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &resp); err != nil {
		return nil, err
	}

	out := make([]domain.ArtworkRecord, 0, len(resp.Response.Rows))
	for _, row := range resp.Response.Rows {
		rec, ok := a.record(row)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *smithsonianAdapter) record(row any) (domain.ArtworkRecord, bool) {
	id := pathString(row, siPathID)
	if id == "" {
		return domain.ArtworkRecord{}, false
	}
	license := domain.LicenseUnknown
	if strings.EqualFold(pathString(row, siPathAccess), "cc0") {
		license = domain.LicenseCC0
	}
	museum := a.cfg.Name
	if ds := pathString(row, siPathDataSource); ds != "" {
		museum = ds + ", " + a.cfg.Name
	}
	return domain.ArtworkRecord{
		ID:           domain.QualifiedID(a.cfg.ID, id),
		Title:        orUntitled(pathString(row, siPathTitle)),
		Artist:       pathString(row, siPathArtist),
		Date:         pathString(row, siPathDate),
		CreditLine:   pathString(row, siPathCredit),
		ImageURL:     firstNonEmpty(pathString(row, siPathImage), pathString(row, siPathAnyMedia)),
		ObjectURL:    pathString(row, siPathRecordLink),
		SourceMuseum: museum,
		License:      license,
	}, true
}

// pathString evaluates expr against doc and returns the first scalar as a string.
func pathString(doc any, expr string) string {
	val, err := jsonpath.Get(expr, doc)
	if err != nil {
		return ""
	}
	for {
		arr, ok := val.([]any)
		if !ok {
			break
		}
		if len(arr) == 0 {
			return ""
		}
		val = arr[0]
	}
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
