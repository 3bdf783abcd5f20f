package sources

import (
	"context"
	"iter"
	"math/rand/v2"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
)

// listing is the shared shape of providers whose search response already carries full
// records: search every term, merge by id, shuffle, then stream records.
type listing struct {
	cfg   Source
	pages PageResolver
	rng   *rand.Rand
}

// fetchPage returns the records of one term search.
type fetchPage func(ctx context.Context, term string) ([]domain.ArtworkRecord, error)

func (l listing) search(ctx context.Context, q Query, fetch fetchPage) iter.Seq2[domain.ArtworkRecord, error] {
	return func(yield func(domain.ArtworkRecord, error) bool) {
		var recs []domain.ArtworkRecord
		seen := make(map[string]struct{})

		err := eachTerm(ctx, l.cfg, l.cfg.Terms(q.Term), func(term string) error {
			page, err := fetch(ctx, term)
			if err != nil {
				return err
			}
			for _, rec := range page {
				if _, ok := seen[rec.ID]; ok {
					continue
				}
				seen[rec.ID] = struct{}{}
				recs = append(recs, rec)
			}
			logger.DebugObj("source search completed", "source_search", map[string]any{
				"source_id": l.cfg.ID,
				"term":      term,
				"records":   len(page),
			})
			return nil
		})
		if err != nil {
			yield(domain.ArtworkRecord{}, err)
			return
		}

		shuffle(l.rng, recs)
		resolved := 0
		for _, rec := range recs {
			if q.seen(rec.ID) {
				continue
			}
			if !rec.HasImage() {
				if rec.ObjectURL == "" || l.pages == nil || resolved >= l.cfg.MaxLookups {
					continue
				}
				if resolved > 0 {
					if err := wait(ctx, l.cfg.RequestDelay()); err != nil {
						yield(domain.ArtworkRecord{}, domain.NewSourceError(l.cfg.ID, domain.ErrSourceUnavailable, err))
						return
					}
				}
				resolved++
				rec.ImageURL = l.resolveImage(ctx, rec)
				if !rec.HasImage() {
					continue
				}
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

func (l listing) resolveImage(ctx context.Context, rec domain.ArtworkRecord) string {
	img, err := l.pages.ImageURL(ctx, rec.ObjectURL)
	if err != nil {
		logger.WarnObj("landing page image lookup failed", "source_item_error", map[string]any{
			"source_id":  l.cfg.ID,
			"record_id":  rec.ID,
			"object_url": rec.ObjectURL,
			"error":      err.Error(),
		})
		return ""
	}
	return img
}
