package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"subseek/internal/identity"
	"subseek/internal/language"
	"subseek/internal/providers"
	"subseek/internal/textutil"
)

// SubdlID is the fallback source id of Subdl.
const SubdlID = "subdl"

// Subdl scrapes subdl.com. A search lists title pages; each title page lists
// subtitle rows labelled with their language.
type Subdl struct {
	// BaseURL overrides https://subdl.com.
	BaseURL string
	Client  *http.Client
}

var _ providers.Source = Subdl{}

func (Subdl) ID() string { return SubdlID }

func (s Subdl) baseURL() string { return trimBase(s.BaseURL, "https://subdl.com") }

func (s Subdl) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return NewHTTPClient(0)
}

// Search finds subtitle rows in lang for the identity's title. When the search
// page yields nothing it tries the title's slug page directly.
func (s Subdl) Search(ctx context.Context, id identity.Identity, lang string) ([]providers.Candidate, error) {
	query := strings.TrimSpace(id.QueryTitle)
	if query == "" {
		query = id.Title
	}
	base := s.baseURL()
	c := s.client()

	doc, err := fetchDocument(ctx, c, base+"/search?query="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	pages := subdlTitlePages(doc, base)

	var out []providers.Candidate
	for _, page := range pages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		rows, err := s.pageCandidates(ctx, c, page, lang)
		if err != nil {
			// one broken title page does not spoil the search
			continue
		}
		out = append(out, rows...)
		if len(out) >= MaxResults {
			break
		}
	}
	if len(out) == 0 {
		slug := textutil.Slug(query)
		if slug == "" {
			return nil, nil
		}
		rows, err := s.pageCandidates(ctx, c, base+"/subtitles/"+slug, lang)
		if err != nil {
			if IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		out = rows
	}
	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out, nil
}

func subdlTitlePages(doc *goquery.Document, base string) []string {
	var pages []string
	seen := make(map[string]struct{})
	doc.Find(`a.subtitle-item, div.result a, a[href*="/subtitles/"]`).Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "/subtitles/") || normSpace(a.Text()) == "" {
			return
		}
		page := resolveURL(base+"/", href)
		if _, ok := seen[page]; ok {
			return
		}
		seen[page] = struct{}{}
		pages = append(pages, page)
	})
	return pages
}

func (s Subdl) pageCandidates(ctx context.Context, c *http.Client, pageURL, lang string) ([]providers.Candidate, error) {
	doc, err := fetchDocument(ctx, c, pageURL)
	if err != nil {
		return nil, err
	}
	return parseSubdlPage(doc, s.baseURL(), lang), nil
}

// parseSubdlPage extracts subtitle rows whose text names lang.
func parseSubdlPage(doc *goquery.Document, base, lang string) []providers.Candidate {
	title := pageTitle(doc)
	var out []providers.Candidate
	doc.Find("tr, div.subtitle-row, li.subtitle-item").Each(func(_ int, row *goquery.Selection) {
		if language.DetectInText(row.Text()) != lang {
			return
		}
		link := row.Find("a[href]").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		release := normSpace(link.Text())
		if release == "" {
			release = title
		}
		if len(release) > 100 {
			release = release[:100]
		}
		out = append(out, newCandidate(resolveURL(base+"/", href), release, title, lang))
	})
	return out
}

// Fetch downloads the payload behind a row link. Row links either point at
// the archive directly or at a detail page carrying a download button.
func (s Subdl) Fetch(ctx context.Context, cand providers.Candidate) ([]byte, error) {
	c := s.client()
	target := cand.Ref
	if !isDirectDownload(target) {
		doc, err := fetchDocument(ctx, c, target)
		if err != nil {
			return nil, err
		}
		var href string
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			h, _ := a.Attr("href")
			if strings.Contains(strings.ToLower(h), "download") || strings.Contains(strings.ToLower(a.Text()), "download") {
				href = h
				return false
			}
			return true
		})
		if href == "" {
			return nil, &HTTPStatusError{URL: target, StatusCode: http.StatusNotFound}
		}
		target = resolveURL(s.baseURL()+"/", href)
	}
	return fetchURL(ctx, c, target)
}

func isDirectDownload(u string) bool {
	lower := strings.ToLower(u)
	return strings.Contains(lower, "/download/") || strings.HasSuffix(lower, ".zip") || strings.HasSuffix(lower, ".srt")
}
