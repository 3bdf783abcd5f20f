package bluesky

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/tomato-bot/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

// DefaultService is the public Bluesky PDS entryway.
const DefaultService = "https://bsky.social"

// ErrNoSession is returned by authenticated calls made before Login.
var ErrNoSession = errors.New("bluesky: no session")

// Error is an XRPC error response.
type Error struct {
	Status  int
	Name    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("xrpc status %d: %s", e.Status, e.Name)
	}
	return fmt.Sprintf("xrpc status %d: %s: %s", e.Status, e.Name, e.Message)
}

// Client speaks the three XRPC procedures needed to publish an image post.
type Client struct {
	service string
	http    *resty.Client
	session *Session
	now     func() time.Time
}

// NewClient builds a client against service (DefaultService when empty).
func NewClient(service string, timeout time.Duration) *Client {
	service = strings.TrimRight(strings.TrimSpace(service), "/")
	if service == "" {
		service = DefaultService
	}
	return &Client{
		service: service,
		http:    httpclient.NewRestyHTTPClient(timeout),
		now:     time.Now,
	}
}

// Session returns the current session, or nil before Login.
func (c *Client) Session() *Session { return c.session }

// Login creates a session with a handle and app password.
func (c *Client) Login(ctx context.Context, identifier, password string) (*Session, error) {
	var sess Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"identifier": identifier, "password": password}).
		SetResult(&sess).
		Post(c.endpoint(nsidCreateSession))
	if err := checkResponse(resp, err); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if sess.AccessJwt == "" || sess.DID == "" {
		return nil, fmt.Errorf("create session: response missing did or access token")
	}
	c.session = &sess
	return &sess, nil
}

// UploadBlob stores raw image bytes and returns the blob reference.
func (c *Client) UploadBlob(ctx context.Context, data []byte, mimeType string) (Blob, error) {
	if c.session == nil {
		return Blob{}, ErrNoSession
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	var out struct {
		Blob Blob `json:"blob"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.session.AccessJwt).
		SetHeader("Content-Type", mimeType).
		SetBody(data).
		SetResult(&out).
		Post(c.endpoint(nsidUploadBlob))
	if err := checkResponse(resp, err); err != nil {
		return Blob{}, fmt.Errorf("upload blob: %w", err)
	}
	if out.Blob.Ref.Link == "" {
		return Blob{}, fmt.Errorf("upload blob: response missing blob ref")
	}
	return out.Blob, nil
}

// CreatePost writes post into the session's repo.
func (c *Client) CreatePost(ctx context.Context, post Post) (RecordRef, error) {
	if c.session == nil {
		return RecordRef{}, ErrNoSession
	}
	if post.Type == "" {
		post.Type = CollectionPost
	}
	if post.CreatedAt == "" {
		post.CreatedAt = c.now().UTC().Format(time.RFC3339Nano)
	}
	var ref RecordRef
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.session.AccessJwt).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"repo":       c.session.DID,
			"collection": CollectionPost,
			"record":     post,
		}).
		SetResult(&ref).
		Post(c.endpoint(nsidCreateRecord))
	if err := checkResponse(resp, err); err != nil {
		return RecordRef{}, fmt.Errorf("create record: %w", err)
	}
	return ref, nil
}

func (c *Client) endpoint(nsid string) string {
	return c.service + "/xrpc/" + nsid
}

func checkResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	xerr := &Error{Status: resp.StatusCode()}
	if jsonErr := json.Unmarshal(resp.Body(), xerr); jsonErr != nil || xerr.Name == "" {
		xerr.Name = strings.TrimSpace(snippet(resp.Body()))
	}
	return xerr
}

func snippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return string(body)
}

// PostURL converts an at:// post URI into its bsky.app web URL.
func PostURL(uri, handle string) string {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return ""
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[1] != CollectionPost {
		return ""
	}
	actor := parts[0]
	if handle != "" {
		actor = handle
	}
	return "https://bsky.app/profile/" + actor + "/post/" + parts[2]
}
