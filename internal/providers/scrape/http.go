package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"subseek/internal/identity"
	"subseek/internal/providers"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) subseek/1.0"
	// MaxResults caps the candidates one source contributes per search.
	MaxResults = 15
	// baseConfidence is the declared confidence of a scraped row; these sites
	// expose no match signal of their own.
	baseConfidence = 0.4
	maxPayloadSize = 8 << 20
)

// HTTPStatusError reports a non-2xx answer from a scraped site.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	var status *HTTPStatusError
	return errors.As(err, &status) && status.StatusCode == http.StatusNotFound
}

// NewHTTPClient returns the client used by scrape sources.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func fetchURL(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8,es;q=0.6")
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxPayloadSize {
		return nil, fmt.Errorf("response from %s exceeds %d bytes", u, maxPayloadSize)
	}
	return data, nil
}

func fetchDocument(ctx context.Context, c *http.Client, u string) (*goquery.Document, error) {
	body, err := fetchURL(ctx, c, u)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	ru, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(ru).String()
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }

func trimBase(base, fallback string) string {
	u := strings.TrimSpace(base)
	if u == "" {
		u = fallback
	}
	return strings.TrimRight(u, "/")
}

func pageTitle(doc *goquery.Document) string {
	if title := normSpace(doc.Find("h1").First().Text()); title != "" {
		return title
	}
	return normSpace(doc.Find("h2").First().Text())
}

// newCandidate fills the fields shared by every scraped row. Season and
// episode come from the release name when it carries a marker.
func newCandidate(ref, release, title, lang string) providers.Candidate {
	c := providers.Candidate{
		Language:   lang,
		Confidence: baseConfidence,
		Ref:        ref,
		Release:    release,
		Tags:       identity.NormalizeTags(release),
		Title:      title,
		Match:      providers.MatchName,
	}
	parsed := identity.Extract(release)
	c.Year = parsed.Year
	if parsed.Episodic {
		c.Season = parsed.Season
		c.Episode = parsed.Episode
		c.Episodic = true
	}
	return c
}
