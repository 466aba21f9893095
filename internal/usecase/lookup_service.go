package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crwatch/backend/internal/domain"
)

// Cache outcomes reported to the observer
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// LookupObserver receives lookup outcomes, typically for metrics
type LookupObserver interface {
	ObserveCache(result string)
	ObserveMatches(endpoint string, count int)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(string)        {}
func (nopObserver) ObserveMatches(string, int) {}

// LookupServiceConfig holds configuration for the lookup service
type LookupServiceConfig struct {
	CacheTTL time.Duration
	Match    MatchConfig
	Observer LookupObserver
}

// URLLookup is the result of a raw URL lookup
type URLLookup struct {
	Matches         []domain.EntryMatch `json:"matches"`
	Related         []domain.Entry      `json:"related"`
	SnapshotVersion string              `json:"snapshotVersion"`
}

// DatasetStats describes the snapshot currently served
type DatasetStats struct {
	Version  string                    `json:"version"`
	Source   string                    `json:"source"`
	LoadedAt time.Time                 `json:"loadedAt"`
	Total    int                       `json:"total"`
	Counts   map[domain.EntityType]int `json:"counts"`
}

// LookupService answers match requests against the current dataset snapshot with caching
type LookupService struct {
	snapshots       domain.SnapshotProvider
	cache           domain.CacheRepository
	matchingService *MatchingService
	cacheTTL        time.Duration
	observer        LookupObserver
	logger          zerolog.Logger
}

// NewLookupService creates a new lookup service with dependencies
func NewLookupService(
	snapshots domain.SnapshotProvider,
	cache domain.CacheRepository,
	config LookupServiceConfig,
	logger zerolog.Logger,
) *LookupService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}

	observer := config.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	return &LookupService{
		snapshots:       snapshots,
		cache:           cache,
		matchingService: NewMatchingService(config.Match),
		cacheTTL:        cacheTTL,
		observer:        observer,
		logger:          logger.With().Str("component", "lookup").Logger(),
	}
}

// Match returns the entries relevant to the page described by request.
// Flow: validate -> suppression -> check cache -> match -> order incidents -> cache -> return
func (s *LookupService) Match(ctx context.Context, request *domain.MatchRequest) (*domain.MatchResult, error) {
	if request == nil || strings.TrimSpace(request.URL) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, domain.ErrDatasetUnavailable
	}

	if isSuppressed(request.Host(), request.SuppressedDomains) {
		return &domain.MatchResult{
			Entries:         []domain.Entry{},
			Incidents:       []domain.Entry{},
			Seeds:           []string{},
			SnapshotVersion: snapshot.Version,
			Source:          domain.SourceEngine,
			Suppressed:      true,
		}, nil
	}

	cacheKey := generateCacheKey(snapshot.Version, request.PageContext)

	// Try cache first
	cached, err := s.getFromCache(ctx, cacheKey)
	switch {
	case err == nil:
		s.observer.ObserveCache(CacheHit)
		cached.Source = domain.SourceCache
		return cached, nil
	case errors.Is(err, domain.ErrCacheMiss):
		s.observer.ObserveCache(CacheMiss)
	default:
		s.observer.ObserveCache(CacheError)
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache read failed")
	}

	explanation := s.matchingService.Explain(snapshot.Entries, request.PageContext)
	result := &domain.MatchResult{
		Entries:         explanation.Related,
		Incidents:       IncidentsOf(explanation.Related),
		Seeds:           entryKeys(explanation.Seeds),
		SnapshotVersion: snapshot.Version,
		Source:          domain.SourceEngine,
	}
	s.observer.ObserveMatches("match", len(result.Entries))

	s.logger.Debug().
		Str("host", request.Host()).
		Int("seeds", len(result.Seeds)).
		Int("matches", len(result.Entries)).
		Msg("page matched")

	// Log but don't fail if caching fails
	if err := s.setInCache(ctx, cacheKey, result); err != nil {
		s.logger.Warn().Err(err).Str("key", cacheKey).Msg("cache write failed")
	}

	return result, nil
}

// MatchURL returns the scored URL matches of rawURL and their expansion.
// Results are not cached.
func (s *LookupService) MatchURL(ctx context.Context, rawURL string, limit int) (*URLLookup, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, domain.ErrDatasetUnavailable
	}

	if limit <= 0 {
		limit = s.matchingService.urlSeedLimit
	}

	matches := s.matchingService.URLMatches(snapshot.Entries, rawURL, limit)
	related := ExpandRelated(snapshot.Entries, matchedEntries(matches))
	s.observer.ObserveMatches("match_url", len(matches))

	return &URLLookup{
		Matches:         matches,
		Related:         related,
		SnapshotVersion: snapshot.Version,
	}, nil
}

// Explain runs page-context matching and returns every intermediate step
func (s *LookupService) Explain(ctx context.Context, pageContext domain.PageContext) (*Explanation, error) {
	if strings.TrimSpace(pageContext.URL) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, domain.ErrDatasetUnavailable
	}

	explanation := s.matchingService.Explain(snapshot.Entries, pageContext)
	return &explanation, nil
}

// Stats describes the snapshot currently served
func (s *LookupService) Stats() (*DatasetStats, error) {
	snapshot := s.snapshots.Current()
	if snapshot == nil {
		return nil, domain.ErrDatasetUnavailable
	}

	return &DatasetStats{
		Version:  snapshot.Version,
		Source:   snapshot.Source,
		LoadedAt: snapshot.LoadedAt,
		Total:    snapshot.Len(),
		Counts:   snapshot.Counts(),
	}, nil
}

// isSuppressed reports whether host is on the caller's suppression list.
// Hosts compare after normalization, so "www.example.com" suppresses "example.com".
func isSuppressed(host string, suppressed []string) bool {
	current := NormalizeHostname(host)
	if current == "" {
		return false
	}
	for _, domainName := range suppressed {
		if NormalizeHostname(domainName) == current {
			return true
		}
	}
	return false
}

// generateCacheKey creates a cache key bound to the snapshot version.
// Format: "match:{version}:{sha256 of the normalized page context}"
func generateCacheKey(version string, pageContext domain.PageContext) string {
	metaKeys := make([]string, 0, len(pageContext.Meta))
	for key := range pageContext.Meta {
		metaKeys = append(metaKeys, key)
	}
	sort.Strings(metaKeys)

	var b strings.Builder
	b.WriteString(strings.TrimSpace(pageContext.URL))
	b.WriteByte('\n')
	b.WriteString(NormalizeHostname(pageContext.Host()))
	b.WriteByte('\n')
	b.WriteString(Normalize(pageContext.Title))
	for _, key := range metaKeys {
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(key))
		b.WriteByte('=')
		b.WriteString(Normalize(pageContext.Meta[key]))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("match:%s:%s", version, hex.EncodeToString(sum[:]))
}

// getFromCache retrieves a match result from cache
func (s *LookupService) getFromCache(ctx context.Context, key string) (*domain.MatchResult, error) {
	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var result domain.MatchResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &result, nil
}

// setInCache stores a match result in cache
func (s *LookupService) setInCache(ctx context.Context, key string, result *domain.MatchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return s.cache.Set(ctx, key, payload, s.cacheTTL)
}

func entryKeys(entries []domain.Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		keys = append(keys, entry.Key())
	}
	return keys
}
