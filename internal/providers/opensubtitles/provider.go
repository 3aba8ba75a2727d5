package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"subseek/internal/identity"
	"subseek/internal/language"
	"subseek/internal/logging"
	"subseek/internal/providers"
)

// ProviderID is the registry id of the OpenSubtitles adapter.
const ProviderID = "opensubtitles"

// Confidence assigned to hash search results.
const (
	HashMatchConfidence     = 0.9
	HashUnflaggedConfidence = 0.75
	minNameConfidence       = 0.1
	maxNameConfidence       = 0.6
)

// Provider adapts the OpenSubtitles client to the provider capability set.
// It supports both hash and name search.
type Provider struct {
	client *Client
	cache  *Cache
	logger *slog.Logger
}

var (
	_ providers.Provider     = (*Provider)(nil)
	_ providers.HashSearcher = (*Provider)(nil)
)

// NewProvider wraps client. cache may be nil to disable payload caching.
func NewProvider(client *Client, cache *Cache, logger *slog.Logger) *Provider {
	return &Provider{
		client: client,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, ProviderID),
	}
}

func (p *Provider) ID() string { return ProviderID }

func (p *Provider) Priority() int { return providers.PriorityPrimary }

// SearchByHash looks up subtitles indexed under the 64-bit content hash.
func (p *Provider) SearchByHash(ctx context.Context, hash string, lang string) ([]providers.Candidate, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil, nil
	}
	resp, err := p.client.Search(ctx, SearchRequest{
		MovieHash: hash,
		Languages: []string{lang},
	})
	if err != nil {
		return nil, classify("search by hash", err)
	}
	cands := make([]providers.Candidate, 0, len(resp.Subtitles))
	for _, sub := range resp.Subtitles {
		c := toCandidate(sub, providers.MatchHash)
		c.Confidence = HashUnflaggedConfidence
		if sub.MovieHashMatch {
			c.Confidence = HashMatchConfidence
		}
		cands = append(cands, c)
	}
	out := providers.Dedupe(providers.FilterLanguage(cands, lang))
	p.logger.Debug("opensubtitles hash search",
		logging.String("hash", hash),
		logging.Int("results", len(resp.Subtitles)),
		logging.Int("candidates", len(out)),
	)
	return out, nil
}

// SearchByName queries by cleaned title plus year or episode numbers.
func (p *Provider) SearchByName(ctx context.Context, id identity.Identity, lang string) ([]providers.Candidate, error) {
	req := SearchRequest{
		Query:     strings.TrimSpace(id.QueryTitle),
		Languages: []string{lang},
	}
	if req.Query == "" {
		req.Query = strings.TrimSpace(id.Title)
	}
	if id.Episodic {
		req.Season = id.Season
		req.Episode = id.Episode
		req.MediaType = "episode"
	} else {
		req.Year = id.Year
	}
	resp, err := p.client.Search(ctx, req)
	if err != nil {
		return nil, classify("search by name", err)
	}
	cands := make([]providers.Candidate, 0, len(resp.Subtitles))
	for _, sub := range resp.Subtitles {
		c := toCandidate(sub, providers.MatchName)
		c.Confidence = popularityConfidence(sub.Downloads)
		cands = append(cands, c)
	}
	out := providers.Dedupe(providers.FilterLanguage(cands, lang))
	p.logger.Debug("opensubtitles name search",
		logging.String("query", req.Query),
		logging.Int("results", len(resp.Subtitles)),
		logging.Int("candidates", len(out)),
	)
	return out, nil
}

// Fetch downloads the candidate payload, consulting the on-disk cache first.
func (p *Provider) Fetch(ctx context.Context, c providers.Candidate) ([]byte, error) {
	fileID, err := strconv.ParseInt(strings.TrimSpace(c.Ref), 10, 64)
	if err != nil || fileID <= 0 {
		return nil, providers.NewProviderError(ProviderID, "fetch", providers.ReasonBadResponse, fmt.Errorf("invalid file id %q", c.Ref))
	}
	if p.cache != nil {
		hit, ok, err := p.cache.Load(fileID)
		switch {
		case err != nil:
			logging.WarnWithContext(p.logger, "opensubtitles cache read failed", "opensubtitles_cache_error",
				logging.Int64("file_id", fileID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "payload downloaded again"),
				logging.String(logging.FieldErrorHint, "check permissions on the cache directory"),
			)
		case ok:
			p.logger.Debug("opensubtitles cache hit", logging.Int64("file_id", fileID))
			return hit.DownloadResult().Data, nil
		}
	}
	result, err := p.client.Download(ctx, fileID)
	if err != nil {
		return nil, classify("download", err)
	}
	if p.cache != nil && len(result.Data) > 0 {
		if _, err := p.cache.Store(CacheEntry{
			FileID:      fileID,
			Language:    c.Language,
			FileName:    result.FileName,
			DownloadURL: result.DownloadURL,
			Release:     c.Release,
		}, result.Data); err != nil {
			logging.WarnWithContext(p.logger, "opensubtitles cache write failed", "opensubtitles_cache_error",
				logging.Int64("file_id", fileID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "payload will not be reused"),
				logging.String(logging.FieldErrorHint, "check free space and permissions on the cache directory"),
			)
		}
	}
	return result.Data, nil
}

func toCandidate(sub Subtitle, match providers.MatchKind) providers.Candidate {
	return providers.Candidate{
		Provider:  ProviderID,
		Source:    ProviderID,
		Priority:  providers.PriorityPrimary,
		Language:  language.ToISO2(sub.Language),
		Ref:       strconv.FormatInt(sub.FileID, 10),
		Release:   strings.TrimSpace(sub.Release),
		Tags:      identity.NormalizeTags(sub.Release),
		Title:     sub.FeatureTitle,
		Year:      sub.FeatureYear,
		Season:    sub.Season,
		Episode:   sub.Episode,
		Episodic:  strings.EqualFold(sub.FeatureType, "episode") || (sub.Season > 0 && sub.Episode > 0),
		Match:     match,
		Downloads: sub.Downloads,
	}
}

// popularityConfidence maps a download count onto [0.1, 0.6] on a log scale;
// 100k downloads saturates. It orders name results but never accepts one.
func popularityConfidence(downloads int) float64 {
	if downloads <= 0 {
		return minNameConfidence
	}
	ratio := math.Log10(float64(downloads)+1) / 5
	if ratio > 1 {
		ratio = 1
	}
	return minNameConfidence + ratio*(maxNameConfidence-minNameConfidence)
}

// classify converts client errors into provider errors with a reason.
func classify(op string, err error) *providers.ProviderError {
	reason := ""
	var status *StatusError
	var decode *DecodeError
	switch {
	case errors.As(err, &status):
		switch status.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			reason = providers.ReasonAuth
		case http.StatusNotAcceptable, http.StatusTooManyRequests:
			reason = providers.ReasonQuota
		default:
			if status.StatusCode >= 500 {
				reason = providers.ReasonUnavailable
			}
		}
	case errors.As(err, &decode):
		reason = providers.ReasonBadResponse
	}
	return providers.NewProviderError(ProviderID, op, reason, err)
}
