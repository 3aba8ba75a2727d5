package scrape

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"subseek/internal/identity"
	"subseek/internal/language"
	"subseek/internal/providers"
)

// YIFYID is the fallback source id of YIFY Subtitles.
const YIFYID = "yify"

var yifySubtitleID = regexp.MustCompile(`/subtitles?/([^/?#]+)`)

// YIFY scrapes yifysubtitles.ch. It indexes movies only, so episodic
// identities are skipped.
type YIFY struct {
	// BaseURL overrides https://yifysubtitles.ch.
	BaseURL string
	Client  *http.Client
}

var _ providers.Source = YIFY{}

func (YIFY) ID() string { return YIFYID }

func (y YIFY) baseURL() string { return trimBase(y.BaseURL, "https://yifysubtitles.ch") }

func (y YIFY) client() *http.Client {
	if y.Client != nil {
		return y.Client
	}
	return NewHTTPClient(0)
}

// Search looks up movie pages for the title and collects rows in lang.
func (y YIFY) Search(ctx context.Context, id identity.Identity, lang string) ([]providers.Candidate, error) {
	if id.Episodic {
		return nil, nil
	}
	query := strings.TrimSpace(id.QueryTitle)
	if query == "" {
		query = id.Title
	}
	base := y.baseURL()
	c := y.client()

	doc, err := fetchDocument(ctx, c, base+"/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}
	var movies []string
	seen := make(map[string]struct{})
	doc.Find("div.media-body, li.media").Each(func(_ int, item *goquery.Selection) {
		href, ok := item.Find("a[href]").First().Attr("href")
		if !ok || (!strings.Contains(href, "/movie-imdb/") && !strings.Contains(href, "/subtitles/")) {
			return
		}
		movie := resolveURL(base+"/", href)
		if _, dup := seen[movie]; dup {
			return
		}
		seen[movie] = struct{}{}
		movies = append(movies, movie)
	})

	var out []providers.Candidate
	for _, movie := range movies {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		page, err := fetchDocument(ctx, c, movie)
		if err != nil {
			continue
		}
		out = append(out, parseYIFYMovie(page, base, lang)...)
		if len(out) >= MaxResults {
			out = out[:MaxResults]
			break
		}
	}
	return out, nil
}

// parseYIFYMovie reads the subtitle table of a movie page. The rating column
// is carried as the popularity counter.
func parseYIFYMovie(doc *goquery.Document, base, lang string) []providers.Candidate {
	movieTitle := pageTitle(doc)
	var out []providers.Candidate
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		flagCell := row.Find("td.flag-cell")
		rowLang := ""
		if flag := flagCell.Find(`span[class*="flag"]`).First(); flag.Length() > 0 {
			class, _ := flag.Attr("class")
			rowLang = language.DetectInText(class)
		}
		if rowLang == "" {
			rowLang = language.DetectInText(flagCell.Text())
		}
		if rowLang != lang {
			return
		}
		link := row.Find(`a[href*="/subtitle"]`).First()
		if link.Length() == 0 {
			link = row.Find("a[href]").First()
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		release := normSpace(strings.TrimPrefix(normSpace(link.Text()), "subtitle "))
		if release == "" {
			release = movieTitle
		}
		cand := newCandidate(resolveURL(base+"/", href), release, movieTitle, lang)
		rating, _ := strconv.Atoi(normSpace(row.Find("td.rating-cell span.label").First().Text()))
		cand.Downloads = rating
		out = append(out, cand)
	})
	return out
}

// Fetch resolves the download button on the subtitle page, or derives the
// archive URL from the subtitle id when the page has none.
func (y YIFY) Fetch(ctx context.Context, cand providers.Candidate) ([]byte, error) {
	c := y.client()
	base := y.baseURL()
	target := ""
	doc, err := fetchDocument(ctx, c, cand.Ref)
	if err != nil && !IsNotFound(err) {
		return nil, err
	}
	if doc != nil {
		if href, ok := doc.Find(`a.download-subtitle, a[href*="subtitle/download"]`).First().Attr("href"); ok {
			target = resolveURL(base+"/", href)
		}
		if target == "" {
			doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
				h, _ := a.Attr("href")
				lower := strings.ToLower(h)
				if strings.Contains(lower, "download") && strings.Contains(lower, "subtitle") {
					target = resolveURL(base+"/", h)
					return false
				}
				return true
			})
		}
	}
	if target == "" {
		m := yifySubtitleID.FindStringSubmatch(cand.Ref)
		if m == nil {
			return nil, &HTTPStatusError{URL: cand.Ref, StatusCode: http.StatusNotFound}
		}
		target = base + "/subtitle/" + strings.TrimSuffix(m[1], ".zip") + ".zip"
	}
	return fetchURL(ctx, c, target)
}
