package notifiers

import (
	"time"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

// Event is the payload sent after an artwork has been posted.
type Event struct {
	RunID      string               `json:"run_id,omitempty"`
	SourceID   string               `json:"source_id"`
	SourceName string               `json:"source_name"`
	Artwork    domain.ArtworkRecord `json:"artwork"`
	PostURI    string               `json:"post_uri"`
	PostURL    string               `json:"post_url,omitempty"`
	PostedAt   time.Time            `json:"posted_at"`
}

// NewEvent constructs an Event for a published artwork.
func NewEvent(sourceID, sourceName string, artwork domain.ArtworkRecord, postURI, postURL string) Event {
	return Event{
		SourceID:   sourceID,
		SourceName: sourceName,
		Artwork:    artwork,
		PostURI:    postURI,
		PostURL:    postURL,
		PostedAt:   time.Now().UTC(),
	}
}
