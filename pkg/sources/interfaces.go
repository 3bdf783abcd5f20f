package sources

import (
	"context"
	"iter"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/pkg/httpclient"
)

// Query is a generic artwork search request.
type Query struct {
	Term string
	// Seen optionally lets adapters skip ids before spending requests on them.
	// The selector still checks the store for every yielded record.
	Seen func(id string) bool
}

func (q Query) seen(id string) bool {
	return q.Seen != nil && q.Seen(id)
}

// Adapter translates a generic search into one museum's API and yields normalized records.
// The sequence is lazy, finite and single-use; it stops after the first yielded error.
// Records without an image are never yielded. License status is reported, not filtered.
type Adapter interface {
	ID() string
	Search(ctx context.Context, q Query) iter.Seq2[domain.ArtworkRecord, error]
}

// PageResolver finds an image for an object landing page.
type PageResolver interface {
	ImageURL(ctx context.Context, pageURL string) (string, error)
}

// HTTPClient aliases the shared httpclient.Client interface for clarity within sources.
type HTTPClient = httpclient.Client
