package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/tomato-bot/internal/domain"
)

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

var secretParams = []string{"api_key", "apikey", "key", "access_token"}

// redactURL masks API keys in a URL so it can appear in errors and logs.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// buildURL joins base and path segments and encodes params.
func buildURL(base string, params url.Values, segments ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse source_url: %w", err)
	}
	for _, seg := range segments {
		u = u.JoinPath(seg)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vals := range params {
			for _, v := range vals {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// getJSON fetches rawURL and decodes a JSON body into out. 401/403 map to ErrAuth; transport
// failures, other non-2xx statuses and undecodable bodies map to ErrSourceUnavailable.
func getJSON(ctx context.Context, client HTTPClient, sourceID, rawURL string, headers map[string]string, out any) error {
	resp, err := client.Get(ctx, rawURL, headers)
	if err != nil {
		return domain.NewSourceError(sourceID, domain.ErrSourceUnavailable,
			fmt.Errorf("fetch %s: %w", redactURL(rawURL), scrubURLError(err, rawURL)))
	}

	body := resp.Body()
	switch code := resp.StatusCode(); {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.NewSourceError(sourceID, domain.ErrAuth, &StatusError{Code: code, Body: responseSnippet(body)})
	case code < 200 || code > 299:
		return domain.NewSourceError(sourceID, domain.ErrSourceUnavailable, &StatusError{Code: code, Body: responseSnippet(body)})
	}

	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewSourceError(sourceID, domain.ErrSourceUnavailable,
			fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// StatusError records a non-2xx response from a source API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d body: %s", e.Code, e.Body)
}

func isStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// scrubURLError keeps transport errors from echoing the raw URL (and its key).
func scrubURLError(err error, rawURL string) error {
	msg := err.Error()
	if !strings.Contains(msg, rawURL) {
		return err
	}
	return errors.New(strings.ReplaceAll(msg, rawURL, redactURL(rawURL)))
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// eachTerm runs fn once per term with the source delay in between. Auth failures abort
// immediately; other failures are tolerated as long as at least one term succeeds.
func eachTerm(ctx context.Context, cfg Source, terms []string, fn func(term string) error) error {
	if len(terms) == 0 {
		return domain.NewSourceError(cfg.ID, domain.ErrNoCandidate, errors.New("no search terms"))
	}

	var errs []error
	for i, term := range terms {
		if i > 0 {
			if err := wait(ctx, cfg.RequestDelay()); err != nil {
				return domain.NewSourceError(cfg.ID, domain.ErrSourceUnavailable, err)
			}
		}
		err := fn(term)
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrAuth) {
			return err
		}
		errs = append(errs, err)
	}

	if len(errs) == len(terms) {
		return errors.Join(errs...)
	}
	return nil
}

func shuffle[T any](rng *rand.Rand, items []T) {
	swap := func(i, j int) { items[i], items[j] = items[j], items[i] }
	if rng == nil {
		rand.Shuffle(len(items), swap)
		return
	}
	rng.Shuffle(len(items), swap)
}

// flexString decodes JSON strings, numbers, booleans and null into a string.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(b))
	return nil
}

func (f flexString) String() string { return string(f) }

// Truthy treats "1", "true" and "yes" as true.
func (f flexString) Truthy() bool {
	if v, err := strconv.ParseBool(string(f)); err == nil {
		return v
	}
	return strings.EqualFold(string(f), "yes")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func containsAny(haystack string, needles []string) bool {
	haystack = strings.ToLower(haystack)
	for _, n := range needles {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func orUntitled(title string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return "Untitled"
}
