package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.opensubtitles.com/api/v1"
	defaultUserAgent   = "subseek v1.0"
	defaultHTTPTimeout = 30 * time.Second
)

// Config describes the OpenSubtitles client configuration.
type Config struct {
	APIKey     string
	UserAgent  string
	UserToken  string
	BaseURL    string
	HTTPClient *http.Client
	// RetryBackoff overrides the wait before the single transient retry.
	RetryBackoff time.Duration
}

// Client wraps the OpenSubtitles REST API.
type Client struct {
	apiKey    string
	userAgent string
	userToken string
	baseURL   *url.URL
	http      *http.Client
	backoff   time.Duration
}

// New creates a Client from the supplied configuration.
func New(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("opensubtitles: api key is required")
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("opensubtitles: parse base url: %w", err)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = RetryBackoff
	}
	return &Client{
		apiKey:    apiKey,
		userAgent: userAgent,
		userToken: strings.TrimSpace(cfg.UserToken),
		baseURL:   baseURL,
		http:      client,
		backoff:   backoff,
	}, nil
}

// SearchRequest describes subtitle discovery filters.
type SearchRequest struct {
	Query     string
	MovieHash string
	Languages []string
	Season    int
	Episode   int
	MediaType string
	Year      int
}

// Subtitle represents a subtitle candidate returned by OpenSubtitles.
type Subtitle struct {
	ID              string
	FileID          int64
	Language        string
	Release         string
	FeatureTitle    string
	FeatureYear     int
	FeatureType     string
	Season          int
	Episode         int
	Downloads       int
	HearingImpaired bool
	MovieHashMatch  bool
	AITranslated    bool
}

// SearchResponse bundles the subtitles returned by a query.
type SearchResponse struct {
	Subtitles []Subtitle
	Total     int
}

// DownloadResult captures the downloaded subtitle payload.
type DownloadResult struct {
	Data        []byte
	FileName    string
	Language    string
	DownloadURL string
}

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("opensubtitles: %s failed (%s)", e.Op, e.Status)
	}
	return fmt.Sprintf("opensubtitles: %s failed (%s): %s", e.Op, e.Status, e.Body)
}

// Search queries the OpenSubtitles API for matching subtitles.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	if c == nil {
		return SearchResponse{}, errors.New("opensubtitles: client is nil")
	}
	endpoint := c.baseURL.JoinPath("subtitles")
	params := url.Values{}
	if hash := strings.ToLower(strings.TrimSpace(req.MovieHash)); hash != "" {
		params.Set("moviehash", hash)
	}
	if req.Query != "" {
		params.Set("query", req.Query)
	}
	if len(req.Languages) > 0 {
		params.Set("languages", strings.Join(req.Languages, ","))
	}
	if req.Season > 0 {
		params.Set("season_number", strconv.Itoa(req.Season))
	}
	if req.Episode > 0 {
		params.Set("episode_number", strconv.Itoa(req.Episode))
	}
	if req.Year > 0 {
		params.Set("year", strconv.Itoa(req.Year))
	}
	mediaType := req.MediaType
	if mediaType == "" && (req.Season > 0 || req.Episode > 0) {
		mediaType = "episode"
	}
	if mediaType != "" {
		params.Set("type", mediaType)
	}
	params.Set("order_by", "download_count")
	params.Set("order_direction", "desc")
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	err := c.withRetry(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
		if err != nil {
			return fmt.Errorf("opensubtitles: build search request: %w", err)
		}
		c.applyHeaders(httpReq)
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return fmt.Errorf("opensubtitles: search request failed: %w", err)
		}
		defer resp.Body.Close()
		if err := checkStatus("search", resp); err != nil {
			return err
		}
		payload = searchResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return &DecodeError{Op: "search", Err: err}
		}
		return nil
	})
	if err != nil {
		return SearchResponse{}, err
	}

	subtitles := make([]Subtitle, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.Attributes.Language == "" {
			continue
		}
		fileID := entry.Attributes.PrimaryFileID()
		if fileID == 0 {
			continue
		}
		details := entry.Attributes.FeatureDetails
		subtitles = append(subtitles, Subtitle{
			ID:              entry.ID,
			FileID:          fileID,
			Language:        entry.Attributes.Language,
			Release:         entry.Attributes.Release,
			FeatureTitle:    firstNonEmpty(details.ParentTitle, details.Title),
			FeatureYear:     details.Year,
			FeatureType:     details.FeatureType,
			Season:          details.SeasonNumber,
			Episode:         details.EpisodeNumber,
			Downloads:       entry.Attributes.DownloadCount,
			HearingImpaired: entry.Attributes.HearingImpaired,
			MovieHashMatch:  entry.Attributes.MovieHashMatch,
			AITranslated:    entry.Attributes.AITranslated || entry.Attributes.MachineTranslated,
		})
	}

	return SearchResponse{
		Subtitles: subtitles,
		Total:     payload.Meta.Total,
	}, nil
}

// Download retrieves the subtitle contents for the specified subtitle file.
func (c *Client) Download(ctx context.Context, fileID int64) (DownloadResult, error) {
	if c == nil {
		return DownloadResult{}, errors.New("opensubtitles: client is nil")
	}
	if fileID <= 0 {
		return DownloadResult{}, errors.New("opensubtitles: invalid file id")
	}
	payload, err := json.Marshal(map[string]any{
		"file_id":    fileID,
		"sub_format": "srt",
	})
	if err != nil {
		return DownloadResult{}, fmt.Errorf("opensubtitles: encode download request: %w", err)
	}

	endpoint := c.baseURL.JoinPath("download")
	var info downloadResponse
	err = c.withRetry(ctx, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("opensubtitles: build download request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		c.applyHeaders(httpReq)
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return fmt.Errorf("opensubtitles: download request failed: %w", err)
		}
		defer resp.Body.Close()
		if err := checkStatus("download negotiation", resp); err != nil {
			return err
		}
		info = downloadResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return &DecodeError{Op: "download", Err: err}
		}
		return nil
	})
	if err != nil {
		return DownloadResult{}, err
	}
	if info.Link == "" {
		return DownloadResult{}, &DecodeError{Op: "download", Err: errors.New("response missing link")}
	}

	downloadURL, err := endpoint.Parse(info.Link)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("opensubtitles: parse download url: %w", err)
	}

	var data []byte
	err = c.withRetry(ctx, func() error {
		dataReq, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL.String(), nil)
		if err != nil {
			return fmt.Errorf("opensubtitles: build link request: %w", err)
		}
		dataReq.Header.Set("User-Agent", c.userAgent)
		dataResp, err := c.http.Do(dataReq)
		if err != nil {
			return fmt.Errorf("opensubtitles: fetch subtitle payload: %w", err)
		}
		defer dataResp.Body.Close()
		if err := checkStatus("subtitle download", dataResp); err != nil {
			return err
		}
		data, err = io.ReadAll(dataResp.Body)
		if err != nil {
			return fmt.Errorf("opensubtitles: read subtitle data: %w", err)
		}
		return nil
	})
	if err != nil {
		return DownloadResult{}, err
	}

	return DownloadResult{
		Data:        data,
		FileName:    info.FileName,
		Language:    info.Language,
		DownloadURL: downloadURL.String(),
	}, nil
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.userToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.userToken)
	}
}

func checkStatus(op string, resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}

// DecodeError is a response body the client could not interpret.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("opensubtitles: decode %s response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type searchResponse struct {
	Data []struct {
		ID         string           `json:"id"`
		Attributes searchAttributes `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Total int `json:"total_count"`
	} `json:"meta"`
}

type searchAttributes struct {
	Language          string         `json:"language"`
	Release           string         `json:"release"`
	DownloadCount     int            `json:"download_count"`
	HearingImpaired   bool           `json:"hearing_impaired"`
	MovieHashMatch    bool           `json:"moviehash_match"`
	AITranslated      bool           `json:"ai_translated"`
	MachineTranslated bool           `json:"machine_translated"`
	FeatureDetails    featureDetails `json:"feature_details"`
	Files             []searchFile   `json:"files"`
}

func (a searchAttributes) PrimaryFileID() int64 {
	if len(a.Files) == 0 {
		return 0
	}
	return a.Files[0].FileID
}

type featureDetails struct {
	FeatureType   string `json:"feature_type"`
	Title         string `json:"title"`
	ParentTitle   string `json:"parent_title"`
	Year          int    `json:"year"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
}

type searchFile struct {
	FileID int64 `json:"file_id"`
}

type downloadResponse struct {
	Link     string `json:"link"`
	FileName string `json:"file_name"`
	Language string `json:"language"`
}
