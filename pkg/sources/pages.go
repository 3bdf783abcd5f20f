package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

// htmlPageResolver fetches object landing pages and extracts the share image from meta tags.
type htmlPageResolver struct {
	client HTTPClient
}

// NewHTMLPageResolver constructs a resolver using the provided HTTP client.
func NewHTMLPageResolver(client HTTPClient) PageResolver {
	return &htmlPageResolver{client: client}
}

// ImageURL returns the absolute og:image (or twitter:image) URL of pageURL, or "" when absent.
func (r *htmlPageResolver) ImageURL(ctx context.Context, pageURL string) (string, error) {
	if strings.TrimSpace(pageURL) == "" {
		return "", nil
	}

	resp, err := r.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return "", fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("status %d body: %s", resp.StatusCode(), responseSnippet(resp.Body()))
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}

	ref, err := metaImage(body)
	if err != nil {
		return "", err
	}
	return resolveURL(ref, pageURL), nil
}

// metaImage returns the raw og:image or twitter:image content of an HTML document.
func metaImage(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return firstNonEmpty(
		extract(`meta[property="og:image"]`),
		extract(`meta[name="twitter:image"]`),
	), nil
}

func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return refURL.String()
	}
	return baseURL.ResolveReference(refURL).String()
}
