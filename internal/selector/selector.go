package selector

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
	"github.com/Adda-Baaj/tomato-bot/pkg/sources"
)

// ErrStoreLookup aborts a pick when the dedup store cannot answer.
var ErrStoreLookup = errors.New("dedup store lookup failed")

// Deduper reports whether an artwork id has already been posted.
type Deduper interface {
	Contains(id string) (bool, error)
}

// Selection is the artwork chosen for this run and the source it came from.
type Selection struct {
	Source sources.Descriptor
	Record domain.ArtworkRecord
}

// Attempt records one source tried during a pick.
type Attempt struct {
	SourceID string
	Err      error
}

// Selector picks sources uniformly at random until one yields a postable, unseen artwork.
type Selector struct {
	catalog *sources.Catalog
	store   Deduper
	rng     *rand.Rand
}

// New wires a selector. A nil rng is replaced with a randomly seeded one.
func New(catalog *sources.Catalog, store Deduper, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{catalog: catalog, store: store, rng: rng}
}

// Pick runs one selection round for term. It returns domain.ErrExhausted when every eligible
// source was attempted without producing a candidate.
func (s *Selector) Pick(ctx context.Context, term string) (Selection, error) {
	if s == nil || s.catalog == nil || s.store == nil {
		return Selection{}, fmt.Errorf("selector is not initialized")
	}

	r := newRound(s.catalog.Candidates())
	for {
		switch r.state {
		case StateCandidates:
			r.filterEligible()

		case StateEligible:
			if err := ctx.Err(); err != nil {
				return Selection{}, err
			}
			remaining := r.remaining()
			if len(remaining) == 0 {
				r.state = StateExhausted
				continue
			}
			entry := remaining[s.rng.IntN(len(remaining))]
			sel, err := s.try(ctx, entry, term)
			if err == nil {
				r.selected = sel
				r.state = StateDone
				continue
			}
			if errors.Is(err, ErrStoreLookup) {
				return Selection{}, err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Selection{}, ctxErr
			}
			r.markAttempted(entry.Descriptor.ID, err)

		case StateAttempted:
			logger.WarnObj("source attempt failed", "source_attempt", r.lastAttempt())
			r.state = StateEligible

		case StateDone:
			logger.InfoObj("artwork selected", "selection", map[string]any{
				"source_id":  r.selected.Source.ID,
				"artwork_id": r.selected.Record.ID,
				"attempts":   len(r.attempts),
			})
			return r.selected, nil

		case StateExhausted:
			logger.InfoObj("all sources exhausted", "selection", map[string]any{
				"eligible": len(r.eligible),
				"attempts": len(r.attempts),
			})
			return Selection{}, fmt.Errorf("%w: %d of %d sources attempted",
				domain.ErrExhausted, len(r.attempts), len(r.candidates))

		default:
			return Selection{}, fmt.Errorf("selector reached unknown state %d", r.state)
		}
	}
}

// try drains one source until it yields an acceptable record.
func (s *Selector) try(ctx context.Context, entry sources.Entry, term string) (Selection, error) {
	id := entry.Descriptor.ID
	query := sources.Query{Term: term, Seen: s.seen}

	var yielded, unlicensed, posted int
	for rec, err := range entry.Adapter.Search(ctx, query) {
		if err != nil {
			return Selection{}, err
		}
		yielded++
		if !rec.HasImage() {
			continue
		}
		if !rec.License.Postable() {
			unlicensed++
			continue
		}
		dup, err := s.store.Contains(rec.ID)
		if err != nil {
			return Selection{}, fmt.Errorf("%w: %s: %w", ErrStoreLookup, rec.ID, err)
		}
		if dup {
			posted++
			continue
		}
		return Selection{Source: entry.Descriptor, Record: rec}, nil
	}

	return Selection{}, domain.NewSourceError(id, domain.ErrNoCandidate,
		fmt.Errorf("%d records, %d not open access, %d already posted", yielded, unlicensed, posted))
}

// seen is the adapters' cheap pre-filter; lookup errors fall through to the authoritative check.
func (s *Selector) seen(id string) bool {
	ok, err := s.store.Contains(id)
	return err == nil && ok
}
