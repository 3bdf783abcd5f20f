package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

const cooperSearchMethod = "cooperhewitt.search.objects"

// cooperAdapter searches the Cooper Hewitt collection REST API. Requires an access token.
type cooperAdapter struct {
	listing
	client HTTPClient
	key    string
}

// NewCooperAdapter builds an adapter for Cooper Hewitt, Smithsonian Design Museum.
func NewCooperAdapter(cfg Source, deps Deps) (Adapter, error) {
	client := deps.clientFor(cfg)
	return &cooperAdapter{
		listing: listing{cfg: cfg, rng: deps.Rand, pages: deps.pagesFor(client)},
		client:  client,
		key:     deps.apiKey(cfg),
	}, nil
}

func (a *cooperAdapter) ID() string { return a.cfg.ID }

type cooperResponse struct {
	Stat  string `json:"stat"`
	Error *struct {
		Code    flexString `json:"code"`
		Message string     `json:"message"`
	} `json:"error"`
	Objects []cooperObject `json:"objects"`
}

type cooperObject struct {
	ID                  flexString `json:"id"`
	Title               string     `json:"title"`
	Date                string     `json:"date"`
	Description         string     `json:"description"`
	CreditLine          string     `json:"creditline"`
	URL                 string     `json:"url"`
	HasNoKnownCopyright flexString `json:"has_no_known_copyright"`
	Participants        []struct {
		PersonName string `json:"person_name"`
		RoleName   string `json:"role_name"`
	} `json:"participants"`
	Images []map[string]json.RawMessage `json:"images"`
}

func (a *cooperAdapter) Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error] {
	if a.key == "" {
		return failed(domain.NewSourceError(a.cfg.ID, domain.ErrAuth, fmt.Errorf("%s is not set", a.cfg.KeyEnv)))
	}
	return a.search(ctx, q, a.page)
}

func (a *cooperAdapter) page(ctx context.Context, term string) ([]domain.ArtworkRecord, error) {
	params := url.Values{}
	params.Set("method", cooperSearchMethod)
	params.Set("access_token", a.key)
	params.Set("query", term)
	params.Set("has_images", "1")
	params.Set("per_page", strconv.Itoa(a.cfg.PageSize))
	u, err := buildURL(a.cfg.SourceURL, params)
	if err != nil {
		return nil, domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
	}

	var resp cooperResponse
	if err := getJSON(ctx, a.client, a.cfg.ID, u, Headers(a.cfg), &resp); err != nil {
		return nil, err
	}
	if err := a.apiError(resp); err != nil {
		return nil, err
	}

	out := make([]domain.ArtworkRecord, 0, len(resp.Objects))
	for _, obj := range resp.Objects {
		if obj.ID == "" {
			continue
		}
		out = append(out, a.record(obj))
	}
	return out, nil
}

// apiError maps the in-body failure envelope; the API reports bad tokens with HTTP 200.
func (a *cooperAdapter) apiError(resp cooperResponse) error {
	if !strings.EqualFold(resp.Stat, "fail") {
		return nil
	}
	msg := "unknown error"
	code := 0
	if resp.Error != nil {
		msg = resp.Error.Message
		code, _ = strconv.Atoi(resp.Error.Code.String())
	}
	err := errors.New("api error: " + msg)
	lower := strings.ToLower(msg)
	if code == http.StatusUnauthorized || code == http.StatusForbidden ||
		strings.Contains(lower, "token") || strings.Contains(lower, "auth") {
		return domain.NewSourceError(a.cfg.ID, domain.ErrAuth, err)
	}
	return domain.NewSourceError(a.cfg.ID, domain.ErrSourceUnavailable, err)
}

// record maps an object. The description takes the credit line slot, falling back to the credit line.
func (a *cooperAdapter) record(o cooperObject) domain.ArtworkRecord {
	var artist string
	for _, p := range o.Participants {
		if name := strings.TrimSpace(p.PersonName); name != "" {
			artist = name
			break
		}
	}
	license := domain.LicenseUnknown
	if o.HasNoKnownCopyright.Truthy() {
		license = domain.LicensePublicDomain
	}
	return domain.ArtworkRecord{
		ID:           domain.QualifiedID(a.cfg.ID, o.ID.String()),
		Title:        orUntitled(o.Title),
		Artist:       artist,
		Date:         strings.TrimSpace(o.Date),
		CreditLine:   firstNonEmpty(o.Description, o.CreditLine),
		ImageURL:     cooperImage(o),
		ObjectURL:    strings.TrimSpace(o.URL),
		SourceMuseum: a.cfg.Name,
		License:      license,
	}
}

// cooperImage prefers the large "b" rendition, then "z", then "n".
func cooperImage(o cooperObject) string {
	if len(o.Images) == 0 {
		return ""
	}
	sizes := o.Images[0]
	for _, size := range []string{"b", "z", "n"} {
		raw, ok := sizes[size]
		if !ok {
			continue
		}
		var rendition struct {
			URL string `json:"url"`
		}
		if err := json.Unmarshal(raw, &rendition); err != nil {
			continue
		}
		if u := strings.TrimSpace(rendition.URL); u != "" {
			return u
		}
	}
	return ""
}

// failed returns a sequence that yields err once.
func failed(err error) iter.Seq2[domain.ArtworkRecord, error] {
	return func(yield func(domain.ArtworkRecord, error) bool) {
		yield(domain.ArtworkRecord{}, err)
	}
}
