package publisher

import (
	"strings"
	"unicode"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/rivo/uniseg"
)

const (
	// DefaultLimit is the Bluesky post length limit in grapheme clusters.
	DefaultLimit = 300
	// MaxTextBytes is the UTF-8 length cap app.bsky.feed.post puts on text.
	MaxTextBytes = 3000
	// DefaultHashtags is appended to every caption after a blank line.
	DefaultHashtags = "#tomato #art"

	ellipsis = "…"
	// artistFloor is how far the artist is shortened before the title is touched.
	artistFloor = 32
	altLimit    = 1000
)

// Caption renders post text for an artwork within a grapheme budget and the post byte cap.
type Caption struct {
	Limit    int
	Hashtags string
}

// BuildCaption renders rec with the default hashtags within limit graphemes.
func BuildCaption(rec domain.ArtworkRecord, limit int) string {
	return Caption{Limit: limit, Hashtags: DefaultHashtags}.Build(rec)
}

type captionParts struct {
	title, artist, date, credit, source string
}

func (p captionParts) body() string {
	lines := make([]string, 0, 5)
	for _, l := range []string{p.title, p.artist, p.date, p.credit, p.source} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

// Build renders rec. When over budget it drops the credit line, then the date, then shortens the
// artist and then the title with an ellipsis. Title and artist are never removed.
func (c Caption) Build(rec domain.ArtworkRecord) string {
	limit := c.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	suffix := ""
	if tags := strings.TrimSpace(c.Hashtags); tags != "" {
		suffix = "\n\n" + tags
	}

	p := captionParts{
		title:  clean(rec.Title),
		artist: clean(rec.Artist),
		date:   clean(rec.Date),
		credit: clean(rec.CreditLine),
	}
	if p.title == "" {
		p.title = "Untitled"
	}
	if museum := clean(rec.SourceMuseum); museum != "" {
		p.source = "Source: " + museum
	}

	fitsText := func(text string) bool {
		return graphemes(text) <= limit && len(text) <= MaxTextBytes
	}
	fits := func(q captionParts) bool { return fitsText(q.body() + suffix) }

	if fits(p) {
		return p.body() + suffix
	}
	p.credit = ""
	if fits(p) {
		return p.body() + suffix
	}
	p.date = ""
	if fits(p) {
		return p.body() + suffix
	}

	artist := func(s string) bool { q := p; q.artist = s; return fits(q) }
	title := func(s string) bool { q := p; q.title = s; return fits(q) }

	p.artist = shorten(p.artist, artistFloor, artist)
	if fits(p) {
		return p.body() + suffix
	}
	p.title = shorten(p.title, 1, title)
	if fits(p) {
		return p.body() + suffix
	}
	p.artist = shorten(p.artist, 1, artist)
	if fits(p) {
		return p.body() + suffix
	}

	p.source = ""
	if fits(p) {
		return p.body() + suffix
	}
	return shorten(p.body()+suffix, 0, fitsText)
}

// shorten returns the longest ellipsis truncation of field accepted by fits, keeping at least
// floor graphemes of content. field comes back unchanged when it already fits or is too short.
func shorten(field string, floor int, fits func(string) bool) string {
	if field == "" || fits(field) {
		return field
	}
	lo, hi := floor+1, graphemes(field)-1
	if hi < lo {
		return field
	}
	best := lo
	for lo <= hi {
		mid := (lo + hi) / 2
		if fits(truncate(field, mid)) {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return truncate(field, best)
}

// Alt renders image alt text: the caption body without hashtags.
func (c Caption) Alt(rec domain.ArtworkRecord) string {
	alt := clean(rec.Title)
	if alt == "" {
		alt = "Untitled"
	}
	if artist := clean(rec.Artist); artist != "" {
		alt += " by " + artist
	}
	if date := clean(rec.Date); date != "" {
		alt += ", " + date
	}
	return truncate(alt, altLimit)
}

// truncate cuts s to at most n graphemes, the last being an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if graphemes(s) <= n {
		return s
	}
	if n == 1 {
		return ellipsis
	}
	g := uniseg.NewGraphemes(s)
	var b strings.Builder
	for i := 0; i < n-1 && g.Next(); i++ {
		b.WriteString(g.Str())
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace) + ellipsis
}

func graphemes(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// clean collapses whitespace runs so each field stays on one line.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
