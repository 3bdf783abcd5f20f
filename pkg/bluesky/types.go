package bluesky

import "time"

// Lexicon identifiers used by the client.
const (
	nsidCreateSession = "com.atproto.server.createSession"
	nsidUploadBlob    = "com.atproto.repo.uploadBlob"
	nsidCreateRecord  = "com.atproto.repo.createRecord"

	CollectionPost = "app.bsky.feed.post"
	EmbedImages    = "app.bsky.embed.images"
	FacetTag       = "app.bsky.richtext.facet#tag"
)

// MaxBlobBytes is the largest image the PDS accepts for a post embed.
const MaxBlobBytes = 1_000_000

// Session is an authenticated account session.
type Session struct {
	DID        string `json:"did"`
	Handle     string `json:"handle"`
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
}

// Blob is the reference returned by uploadBlob and embedded in records as-is.
type Blob struct {
	Type string `json:"$type"`
	Ref  struct {
		Link string `json:"$link"`
	} `json:"ref"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Image is one embedded image with its alt text.
type Image struct {
	Alt   string `json:"alt"`
	Image Blob   `json:"image"`
}

// ImagesEmbed is an app.bsky.embed.images embed.
type ImagesEmbed struct {
	Type   string  `json:"$type"`
	Images []Image `json:"images"`
}

// ByteSlice addresses a facet by UTF-8 byte offsets into the post text.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

// FacetFeature is a rich text feature; only tags are produced here.
type FacetFeature struct {
	Type string `json:"$type"`
	Tag  string `json:"tag,omitempty"`
}

// Facet annotates a byte range of the text.
type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// Post is an app.bsky.feed.post record.
type Post struct {
	Type      string       `json:"$type"`
	Text      string       `json:"text"`
	CreatedAt string       `json:"createdAt"`
	Langs     []string     `json:"langs,omitempty"`
	Facets    []Facet      `json:"facets,omitempty"`
	Embed     *ImagesEmbed `json:"embed,omitempty"`
}

// NewImagePost builds a post record with a single image embed.
func NewImagePost(text, alt string, blob Blob, now time.Time) Post {
	return Post{
		Type:      CollectionPost,
		Text:      text,
		CreatedAt: now.UTC().Format(time.RFC3339Nano),
		Langs:     []string{"en"},
		Facets:    TagFacets(text),
		Embed: &ImagesEmbed{
			Type:   EmbedImages,
			Images: []Image{{Alt: alt, Image: blob}},
		},
	}
}

// RecordRef identifies a created record.
type RecordRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}
