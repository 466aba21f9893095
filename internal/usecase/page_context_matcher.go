package usecase

import (
	"sort"
	"unicode/utf8"

	"github.com/crwatch/backend/internal/domain"
)

// PageContextWeights weights a phrase hit per page field
type PageContextWeights struct {
	Title         int
	MetaTitle     int
	Description   int
	OGTitle       int
	OGDescription int
}

// PageContextTypeBoosts favours entity types that make better seeds
type PageContextTypeBoosts struct {
	Company     int
	ProductLine int
	Product     int
}

func (b PageContextTypeBoosts) boost(entityType domain.EntityType) int {
	switch entityType {
	case domain.EntityCompany:
		return b.Company
	case domain.EntityProductLine:
		return b.ProductLine
	case domain.EntityProduct:
		return b.Product
	default:
		return 0
	}
}

// TextMatch is a page-context hit with its score
type TextMatch struct {
	Entry domain.Entry `json:"entry"`
	Score int          `json:"score"`
}

// PageContextMatcher finds entries whose name appears in the page title or meta tags
type PageContextMatcher struct {
	weights       PageContextWeights
	boosts        PageContextTypeBoosts
	minNameLength int
	denylist      map[string]struct{}
}

// NewPageContextMatcher creates a page-context matcher from the matching configuration
func NewPageContextMatcher(config MatchConfig) *PageContextMatcher {
	config = config.withDefaults()

	denylist := make(map[string]struct{}, len(config.MarketplaceBrandDenylist))
	for _, brand := range config.MarketplaceBrandDenylist {
		if normalized := Normalize(brand); normalized != "" {
			denylist[normalized] = struct{}{}
		}
	}

	return &PageContextMatcher{
		weights:       config.PageContextWeights,
		boosts:        config.PageContextTypeBoosts,
		minNameLength: config.PageContextMinEntityNameLength,
		denylist:      denylist,
	}
}

// pageFields holds the normalized text fields of a page, in weight order
type pageFields struct {
	title         string
	metaTitle     string
	description   string
	ogTitle       string
	ogDescription string
}

func newPageFields(ctx domain.PageContext) pageFields {
	return pageFields{
		title:         Normalize(ctx.Title),
		metaTitle:     Normalize(ctx.MetaValue(domain.MetaTitle)),
		description:   Normalize(ctx.MetaValue(domain.MetaDescription)),
		ogTitle:       Normalize(ctx.MetaValue(domain.MetaOGTitle)),
		ogDescription: Normalize(ctx.MetaValue(domain.MetaOGDescription)),
	}
}

func (f pageFields) empty() bool {
	return f.title == "" && f.metaTitle == "" && f.description == "" &&
		f.ogTitle == "" && f.ogDescription == ""
}

// phraseScore is the word count of needle when it occurs in haystack, else 0
func phraseScore(haystack, needle string) int {
	if haystack == "" || needle == "" || !ContainsWholePhrase(haystack, needle) {
		return 0
	}
	return max(1, wordCount(needle))
}

// ScoredMatches returns every page-context hit, ranked and deduplicated
func (m *PageContextMatcher) ScoredMatches(entries []domain.Entry, ctx domain.PageContext) []TextMatch {
	fields := newPageFields(ctx)
	if fields.empty() {
		return []TextMatch{}
	}

	var matches []TextMatch
	for _, entry := range entries {
		// Incidents are only reachable through relation expansion
		if entry.Type == domain.EntityIncident {
			continue
		}

		name := Normalize(entry.PageName)
		if utf8.RuneCountInString(name) < m.minNameLength {
			continue
		}
		if _, denied := m.denylist[name]; denied {
			continue
		}

		titleHit := phraseScore(fields.title, name)
		metaTitleHit := phraseScore(fields.metaTitle, name)
		descriptionHit := phraseScore(fields.description, name)
		ogTitleHit := phraseScore(fields.ogTitle, name)
		ogDescriptionHit := phraseScore(fields.ogDescription, name)
		if titleHit+metaTitleHit+descriptionHit+ogTitleHit+ogDescriptionHit == 0 {
			continue
		}

		score := titleHit*m.weights.Title +
			metaTitleHit*m.weights.MetaTitle +
			descriptionHit*m.weights.Description +
			ogTitleHit*m.weights.OGTitle +
			ogDescriptionHit*m.weights.OGDescription +
			m.boosts.boost(entry.Type) +
			utf8.RuneCountInString(name)

		matches = append(matches, TextMatch{Entry: entry, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		left, right := matches[i], matches[j]
		if left.Score != right.Score {
			return left.Score > right.Score
		}
		if left.Entry.Type != right.Entry.Type {
			return left.Entry.Type < right.Entry.Type
		}
		if left.Entry.PageName != right.Entry.PageName {
			return left.Entry.PageName < right.Entry.PageName
		}
		return left.Entry.ID() < right.Entry.ID()
	})

	seen := make(map[string]struct{}, len(matches))
	ranked := make([]TextMatch, 0, len(matches))
	for _, match := range matches {
		key := match.Entry.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		ranked = append(ranked, match)
	}
	return ranked
}

// MatchEntries returns at most limit entries named in the page context, best first
func (m *PageContextMatcher) MatchEntries(entries []domain.Entry, ctx domain.PageContext, limit int) []domain.Entry {
	if limit <= 0 {
		return []domain.Entry{}
	}

	scored := m.ScoredMatches(entries, ctx)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]domain.Entry, 0, len(scored))
	for _, match := range scored {
		results = append(results, match.Entry)
	}
	return results
}
