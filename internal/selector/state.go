package selector

import (
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
	"github.com/Adda-Baaj/tomato-bot/pkg/sources"
)

// State is a step of one selection round.
type State int

const (
	StateCandidates State = iota
	StateEligible
	StateAttempted
	StateDone
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateCandidates:
		return "candidates"
	case StateEligible:
		return "eligible"
	case StateAttempted:
		return "attempted"
	case StateDone:
		return "done"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// round holds the mutable bookkeeping of a single Pick call.
type round struct {
	state      State
	candidates []sources.Entry
	eligible   []sources.Entry
	attempted  map[string]struct{}
	attempts   []Attempt
	selected   Selection
}

func newRound(candidates []sources.Entry) *round {
	return &round{
		state:      StateCandidates,
		candidates: candidates,
		attempted:  make(map[string]struct{}, len(candidates)),
	}
}

func (r *round) filterEligible() {
	r.eligible = make([]sources.Entry, 0, len(r.candidates))
	for _, e := range r.candidates {
		if !e.Descriptor.Eligible() {
			logger.InfoObj("source skipped, api key missing", "source_ineligible", e.Descriptor)
			continue
		}
		r.eligible = append(r.eligible, e)
	}
	r.state = StateEligible
}

// remaining is Eligible minus Attempted, in catalog order.
func (r *round) remaining() []sources.Entry {
	out := make([]sources.Entry, 0, len(r.eligible))
	for _, e := range r.eligible {
		if _, done := r.attempted[e.Descriptor.ID]; done {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (r *round) markAttempted(id string, err error) {
	r.attempted[id] = struct{}{}
	r.attempts = append(r.attempts, Attempt{SourceID: id, Err: err})
	r.state = StateAttempted
}

func (r *round) lastAttempt() map[string]any {
	if len(r.attempts) == 0 {
		return nil
	}
	last := r.attempts[len(r.attempts)-1]
	out := map[string]any{"source_id": last.SourceID}
	if last.Err != nil {
		out["error"] = last.Err.Error()
	}
	return out
}
