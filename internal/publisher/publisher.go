package publisher

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
	"github.com/Adda-Baaj/tomato-bot/internal/logger"
	"github.com/Adda-Baaj/tomato-bot/pkg/bluesky"
	"github.com/Adda-Baaj/tomato-bot/pkg/httpclient"
)

// Poster is the subset of the Bluesky client used to publish.
type Poster interface {
	Session() *bluesky.Session
	Login(ctx context.Context, identifier, password string) (*bluesky.Session, error)
	UploadBlob(ctx context.Context, data []byte, mimeType string) (bluesky.Blob, error)
	CreatePost(ctx context.Context, post bluesky.Post) (bluesky.RecordRef, error)
}

// Options configures a Publisher.
type Options struct {
	Handle        string
	AppPassword   string
	Caption       Caption
	MaxImageBytes int
}

// Result describes a published post.
type Result struct {
	URI     string `json:"uri"`
	CID     string `json:"cid"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// Publisher turns an artwork record into a Bluesky image post.
type Publisher struct {
	poster   Poster
	images   httpclient.Client
	handle   string
	password string
	caption  Caption
	maxImage int
	now      func() time.Time
}

// New wires a publisher around a Bluesky poster and an image downloader.
func New(poster Poster, images httpclient.Client, opts Options) *Publisher {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = bluesky.MaxBlobBytes
	}
	return &Publisher{
		poster:   poster,
		images:   images,
		handle:   opts.Handle,
		password: opts.AppPassword,
		caption:  opts.Caption,
		maxImage: opts.MaxImageBytes,
		now:      time.Now,
	}
}

// Caption renders the post text without publishing.
func (p *Publisher) Caption(rec domain.ArtworkRecord) string {
	return p.caption.Build(rec)
}

// Publish downloads the image, uploads it and creates the post. Every failure wraps
// domain.ErrPublish. Nothing is retried.
func (p *Publisher) Publish(ctx context.Context, rec domain.ArtworkRecord) (Result, error) {
	if p == nil || p.poster == nil || p.images == nil {
		return Result{}, domain.PublishFailure("init", fmt.Errorf("publisher is not initialized"))
	}
	text := p.caption.Build(rec)

	data, mimeType, err := p.download(ctx, rec.ImageURL)
	if err != nil {
		return Result{}, domain.PublishFailure("download image", err)
	}

	if p.poster.Session() == nil {
		if _, err := p.poster.Login(ctx, p.handle, p.password); err != nil {
			return Result{}, domain.PublishFailure("login", err)
		}
	}

	blob, err := p.poster.UploadBlob(ctx, data, mimeType)
	if err != nil {
		return Result{}, domain.PublishFailure("upload image", err)
	}

	ref, err := p.poster.CreatePost(ctx, bluesky.NewImagePost(text, p.caption.Alt(rec), blob, p.now()))
	if err != nil {
		return Result{}, domain.PublishFailure("create post", err)
	}

	res := Result{URI: ref.URI, CID: ref.CID, URL: bluesky.PostURL(ref.URI, p.handle), Caption: text}
	logger.InfoObj("artwork posted", "post", map[string]any{
		"artwork_id": rec.ID,
		"uri":        res.URI,
		"url":        res.URL,
		"bytes":      len(data),
	})
	return res, nil
}

func (p *Publisher) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, "", fmt.Errorf("record has no image url")
	}
	resp, err := p.images.Get(ctx, imageURL, map[string]string{"Accept": "image/*"})
	if err != nil {
		return nil, "", fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 {
		return nil, "", fmt.Errorf("empty image body")
	}
	if len(body) > p.maxImage {
		return nil, "", fmt.Errorf("image is %d bytes, limit %d", len(body), p.maxImage)
	}
	return body, imageType(resp.Header("Content-Type"), body), nil
}

// imageType prefers a declared image/* content type and sniffs the bytes otherwise.
func imageType(declared string, body []byte) string {
	if mt, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mt, "image/") {
		return mt
	}
	return http.DetectContentType(body)
}
