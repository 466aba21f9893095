package usecase

import (
	"strings"

	"github.com/crwatch/backend/internal/domain"
)

// MatchConfig holds configuration for the matching service.
// Start from DefaultMatchConfig; zero numeric fields and nil lists fall back
// to the defaults, while an empty non-nil list disables the feature.
type MatchConfig struct {
	EnableSubdomainMatching            bool
	EnableEcommerceFamilyAliasMatching bool
	URLSeedLimit                       int
	MetaSeedLimit                      int
	URLMatchPriority                   URLMatchPriority
	PageContextWeights                 PageContextWeights
	PageContextTypeBoosts              PageContextTypeBoosts
	PageContextMinEntityNameLength     int
	MarketplaceBrandDenylist           []string
	EcommerceDomainFamilyMap           map[string]string
	SpecificPathDomains                []string
	PublicSuffixDomainRoots            bool
}

// DefaultMatchConfig returns the matching defaults
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		EnableSubdomainMatching:            false,
		EnableEcommerceFamilyAliasMatching: true,
		URLSeedLimit:                       3,
		MetaSeedLimit:                      5,
		URLMatchPriority:                   URLMatchPriority{Exact: 3, Partial: 2, Subdomain: 1},
		PageContextWeights: PageContextWeights{
			Title:         10,
			MetaTitle:     9,
			Description:   6,
			OGTitle:       9,
			OGDescription: 6,
		},
		PageContextTypeBoosts:          PageContextTypeBoosts{Company: 3, ProductLine: 4, Product: 4},
		PageContextMinEntityNameLength: 3,
		MarketplaceBrandDenylist:       []string{"amazon", "ebay"},
		EcommerceDomainFamilyMap:       DefaultEcommerceDomainFamilies(),
		SpecificPathDomains:            []string{"github.com"},
	}
}

// withDefaults fills zero-valued limits, weights and tables. Boolean switches
// cannot be told apart from an explicit false and are left alone.
func (c MatchConfig) withDefaults() MatchConfig {
	defaults := DefaultMatchConfig()

	if c.URLSeedLimit <= 0 {
		c.URLSeedLimit = defaults.URLSeedLimit
	}
	if c.MetaSeedLimit <= 0 {
		c.MetaSeedLimit = defaults.MetaSeedLimit
	}
	if c.URLMatchPriority == (URLMatchPriority{}) {
		c.URLMatchPriority = defaults.URLMatchPriority
	}
	if c.PageContextWeights == (PageContextWeights{}) {
		c.PageContextWeights = defaults.PageContextWeights
	}
	if c.PageContextTypeBoosts == (PageContextTypeBoosts{}) {
		c.PageContextTypeBoosts = defaults.PageContextTypeBoosts
	}
	if c.PageContextMinEntityNameLength < 0 {
		c.PageContextMinEntityNameLength = defaults.PageContextMinEntityNameLength
	}
	if c.MarketplaceBrandDenylist == nil {
		c.MarketplaceBrandDenylist = defaults.MarketplaceBrandDenylist
	}
	if c.SpecificPathDomains == nil {
		c.SpecificPathDomains = defaults.SpecificPathDomains
	}
	return c
}

// Explanation lays out every intermediate step of a page-context match
type Explanation struct {
	URLMatches    []domain.EntryMatch `json:"urlMatches"`
	TextMatches   []TextMatch         `json:"textMatches"`
	EcommerceHost bool                `json:"ecommerceHost"`
	Seeds         []domain.Entry      `json:"seeds"`
	Related       []domain.Entry      `json:"related"`
}

// MatchingService combines URL and page-context matching and expands the
// resulting seeds through the relation graph. It is immutable after
// construction and safe for concurrent use.
type MatchingService struct {
	urlSeedLimit  int
	metaSeedLimit int
	urlMatcher    *URLMatcher
	textMatcher   *PageContextMatcher
	ecommerce     *EcommerceRegistry
}

// NewMatchingService creates a new matching service with the given configuration.
// Zero numeric fields fall back to DefaultMatchConfig, but booleans are taken
// as given: a zero MatchConfig has ecommerce alias matching turned off.
func NewMatchingService(config MatchConfig) *MatchingService {
	config = config.withDefaults()

	return &MatchingService{
		urlSeedLimit:  config.URLSeedLimit,
		metaSeedLimit: config.MetaSeedLimit,
		urlMatcher:    NewURLMatcher(config),
		textMatcher:   NewPageContextMatcher(config),
		ecommerce:     NewEcommerceRegistry(config.EcommerceDomainFamilyMap),
	}
}

// URLMatches returns the scored URL matches of rawURL, at most limit of them
func (s *MatchingService) URLMatches(entries []domain.Entry, rawURL string, limit int) []domain.EntryMatch {
	return s.urlMatcher.MatchEntries(entries, rawURL, limit)
}

// IsEcommerceHost reports whether host belongs to a configured marketplace
func (s *MatchingService) IsEcommerceHost(host string) bool {
	return s.ecommerce.IsKnownHost(host)
}

// MatchByURL expands the best URL matches of rawURL into related entries
func (s *MatchingService) MatchByURL(entries []domain.Entry, rawURL string) []domain.Entry {
	matches := s.urlMatcher.MatchEntries(entries, rawURL, s.urlSeedLimit)
	return ExpandRelated(entries, matchedEntries(matches))
}

// MatchByPageContext matches a page by URL and by its title and meta tags,
// then expands the prioritised seeds into related entries
func (s *MatchingService) MatchByPageContext(entries []domain.Entry, ctx domain.PageContext) []domain.Entry {
	return s.Explain(entries, ctx).Related
}

// Explain runs MatchByPageContext and keeps every intermediate result
func (s *MatchingService) Explain(entries []domain.Entry, ctx domain.PageContext) Explanation {
	urlMatches := s.urlMatcher.MatchEntries(entries, ctx.URL, s.urlSeedLimit)

	scored := s.textMatcher.ScoredMatches(entries, ctx)
	if len(scored) > s.metaSeedLimit {
		scored = scored[:s.metaSeedLimit]
	}
	textMatches := make([]domain.Entry, 0, len(scored))
	for _, match := range scored {
		textMatches = append(textMatches, match.Entry)
	}

	explanation := Explanation{
		URLMatches:    urlMatches,
		TextMatches:   scored,
		EcommerceHost: s.IsEcommerceHost(ctx.Host()),
		Seeds:         []domain.Entry{},
		Related:       []domain.Entry{},
	}

	if len(urlMatches) == 0 {
		// Marketplace listings may match by product name alone
		if !explanation.EcommerceHost {
			return explanation
		}
		explanation.Seeds = dedupeEntries(textMatches)
	} else {
		explanation.Seeds = prioritizeSeeds(urlMatches, textMatches)
	}

	explanation.Related = ExpandRelated(entries, explanation.Seeds)
	return explanation
}

// prioritizeSeeds orders seeds from the most to the least specific signal:
// exact non-company URL matches, then (when a company matched by URL)
// non-company text matches, then the other text matches, then the URL matches
func prioritizeSeeds(urlMatches []domain.EntryMatch, textMatches []domain.Entry) []domain.Entry {
	var seeds []domain.Entry
	companyByURL := false

	for _, match := range urlMatches {
		if match.Entry.Type == domain.EntityCompany {
			companyByURL = true
			continue
		}
		if match.MatchType == domain.URLMatchExact && strings.TrimSpace(match.Entry.Website) != "" {
			seeds = append(seeds, match.Entry)
		}
	}

	if companyByURL {
		for _, entry := range textMatches {
			if entry.Type != domain.EntityCompany {
				seeds = append(seeds, entry)
			}
		}
	}
	seeds = append(seeds, textMatches...)
	seeds = append(seeds, matchedEntries(urlMatches)...)

	return dedupeEntries(seeds)
}

func matchedEntries(matches []domain.EntryMatch) []domain.Entry {
	entries := make([]domain.Entry, 0, len(matches))
	for _, match := range matches {
		entries = append(entries, match.Entry)
	}
	return entries
}

// dedupeEntries keeps the first occurrence of every entry key
func dedupeEntries(entries []domain.Entry) []domain.Entry {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]domain.Entry, 0, len(entries))
	for _, entry := range entries {
		key := entry.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, entry)
	}
	return unique
}
