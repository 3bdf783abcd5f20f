package publisher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/pkg/bluesky"
	"github.com/Adda-Baaj/tomato-bot/pkg/httpclient"
)

// fakePoster records calls and injects failures.
type fakePoster struct {
	session   *bluesky.Session
	logins    int
	uploaded  []byte
	mimeType  string
	posts     []bluesky.Post
	loginErr  error
	uploadErr error
	postErr   error
}

func (f *fakePoster) Session() *bluesky.Session { return f.session }

func (f *fakePoster) Login(_ context.Context, identifier, _ string) (*bluesky.Session, error) {
	f.logins++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.session = &bluesky.Session{DID: "did:plc:abc", Handle: identifier, AccessJwt: "jwt"}
	return f.session, nil
}

func (f *fakePoster) UploadBlob(_ context.Context, data []byte, mimeType string) (bluesky.Blob, error) {
	if f.uploadErr != nil {
		return bluesky.Blob{}, f.uploadErr
	}
	f.uploaded = data
	f.mimeType = mimeType
	var b bluesky.Blob
	b.Type = "blob"
	b.Ref.Link = "bafk"
	b.MimeType = mimeType
	b.Size = int64(len(data))
	return b, nil
}

func (f *fakePoster) CreatePost(_ context.Context, post bluesky.Post) (bluesky.RecordRef, error) {
	if f.postErr != nil {
		return bluesky.RecordRef{}, f.postErr
	}
	f.posts = append(f.posts, post)
	return bluesky.RecordRef{URI: "at://did:plc:abc/app.bsky.feed.post/3k", CID: "cid"}, nil
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(pngBytes)
		case "/big.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(make([]byte, 64))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestPublisher(poster Poster, maxBytes int) *Publisher {
	return New(poster, httpclient.NewRestyClient(2*time.Second), Options{
		Handle:        "tomato.bsky.social",
		AppPassword:   "pw",
		Caption:       Caption{Limit: DefaultLimit, Hashtags: DefaultHashtags},
		MaxImageBytes: maxBytes,
	})
}

func TestPublishPostsImageWithCaption(t *testing.T) {
	srv := imageServer(t)
	poster := &fakePoster{}
	pub := newTestPublisher(poster, 0)

	rec := sampleRecord()
	rec.ImageURL = srv.URL + "/ok.png"
	res, err := pub.Publish(context.Background(), rec)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if poster.logins != 1 || poster.mimeType != "image/png" || string(poster.uploaded) != string(pngBytes) {
		t.Fatalf("unexpected upload: logins=%d mime=%s", poster.logins, poster.mimeType)
	}
	if len(poster.posts) != 1 {
		t.Fatalf("expected one post, got %d", len(poster.posts))
	}
	post := poster.posts[0]
	if post.Text != BuildCaption(rec, DefaultLimit) || res.Caption != post.Text {
		t.Fatalf("unexpected post text %q", post.Text)
	}
	if post.Embed == nil || post.Embed.Images[0].Alt != "Tomatoes by Jane Doe, 1890" || post.Embed.Images[0].Image.Ref.Link != "bafk" {
		t.Fatalf("unexpected embed %#v", post.Embed)
	}
	if res.URL != "https://bsky.app/profile/tomato.bsky.social/post/3k" {
		t.Fatalf("unexpected result %#v", res)
	}

	// second publish reuses the session
	if _, err := pub.Publish(context.Background(), rec); err != nil {
		t.Fatalf("Publish again: %v", err)
	}
	if poster.logins != 1 {
		t.Fatalf("expected session reuse, logins=%d", poster.logins)
	}
}

func TestPublishRejectsOversizedImage(t *testing.T) {
	srv := imageServer(t)
	poster := &fakePoster{}
	rec := sampleRecord()
	rec.ImageURL = srv.URL + "/big.jpg"

	_, err := newTestPublisher(poster, 32).Publish(context.Background(), rec)
	if !errors.Is(err, domain.ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
	if poster.logins != 0 || poster.uploaded != nil {
		t.Fatalf("oversized image must not reach bluesky")
	}
}

func TestPublishWrapsEveryFailure(t *testing.T) {
	srv := imageServer(t)
	boom := errors.New("boom")
	cases := map[string]struct {
		poster *fakePoster
		path   string
	}{
		"download": {poster: &fakePoster{}, path: "/missing.jpg"},
		"login":    {poster: &fakePoster{loginErr: &bluesky.Error{Status: 401, Name: "AuthenticationRequired"}}, path: "/ok.png"},
		"upload":   {poster: &fakePoster{uploadErr: boom}, path: "/ok.png"},
		"post":     {poster: &fakePoster{postErr: boom}, path: "/ok.png"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rec := sampleRecord()
			rec.ImageURL = srv.URL + tc.path
			_, err := newTestPublisher(tc.poster, 0).Publish(context.Background(), rec)
			if !errors.Is(err, domain.ErrPublish) {
				t.Fatalf("expected ErrPublish, got %v", err)
			}
			if len(tc.poster.posts) != 0 {
				t.Fatalf("no post may be recorded on failure")
			}
		})
	}
}

func TestImageTypeSniffsUnknownContentType(t *testing.T) {
	if got := imageType("application/octet-stream", pngBytes); got != "image/png" {
		t.Fatalf("expected sniffed image/png, got %s", got)
	}
	if got := imageType("image/jpeg; charset=binary", pngBytes); got != "image/jpeg" {
		t.Fatalf("expected declared type, got %s", got)
	}
}
