package usecase

import (
	"net/url"
	"sort"
	"strings"

	"github.com/crwatch/backend/internal/domain"
)

// urlTierScale separates the match tiers so a partial path bonus never
// lifts a match into the next tier
const urlTierScale = 1000

// Symbolic reasons attached to URL matches
const (
	ReasonHostEqual            = "host_equal"
	ReasonPathEqual            = "path_equal"
	ReasonPathPrefix           = "path_prefix"
	ReasonRootDomainEqual      = "root_domain_equal"
	ReasonSubdomainMatch       = "subdomain_match"
	ReasonEcommerceFamilyAlias = "ecommerce_family_alias"
)

// URLMatchPriority weights the three match tiers
type URLMatchPriority struct {
	Exact     int
	Partial   int
	Subdomain int
}

// URLMatcher classifies and ranks entry websites against a visited URL
type URLMatcher struct {
	priority               URLMatchPriority
	enableSubdomain        bool
	enableEcommerceAlias   bool
	ecommerce              *EcommerceRegistry
	specificPathDomains    map[string]struct{}
	publicSuffixDomainRoot bool
}

// NewURLMatcher creates a URL matcher from the matching configuration.
// Start from DefaultMatchConfig to get ecommerce alias matching; a zero
// MatchConfig leaves it disabled.
func NewURLMatcher(config MatchConfig) *URLMatcher {
	config = config.withDefaults()

	specific := make(map[string]struct{}, len(config.SpecificPathDomains))
	for _, host := range config.SpecificPathDomains {
		if host = NormalizeHostname(host); host != "" {
			specific[host] = struct{}{}
		}
	}

	return &URLMatcher{
		priority:               config.URLMatchPriority,
		enableSubdomain:        config.EnableSubdomainMatching,
		enableEcommerceAlias:   config.EnableEcommerceFamilyAliasMatching,
		ecommerce:              NewEcommerceRegistry(config.EcommerceDomainFamilyMap),
		specificPathDomains:    specific,
		publicSuffixDomainRoot: config.PublicSuffixDomainRoots,
	}
}

// Classify determines how visited relates to candidate.
// Returns false when the two URLs are unrelated.
func (m *URLMatcher) Classify(visited, candidate *url.URL) (domain.URLMatchDetail, bool) {
	if visited == nil || candidate == nil {
		return domain.URLMatchDetail{}, false
	}

	// Step 1: normalize hosts and paths
	visitedHost := NormalizeHostname(visited.Hostname())
	candidateHost := NormalizeHostname(candidate.Hostname())
	visitedPath := NormalizePath(visited.EscapedPath())
	candidatePath := NormalizePath(candidate.EscapedPath())

	detail := domain.URLMatchDetail{
		VisitedHost:   visitedHost,
		CandidateHost: candidateHost,
	}

	// With subdomain matching on, "www." is a subdomain like any other and
	// the apex site only matches through step 3. That keeps www.ally.com and
	// ally.com/invest distinguishable, at a cost: acme.com/cam against
	// www.acme.com/cam is a subdomain match instead of exact, and visiting
	// www.github.com yields flat subdomain matches that are never pruned.
	sameHost := visitedHost == candidateHost
	if m.enableSubdomain {
		sameHost = lowerHost(visited) == lowerHost(candidate)
	}

	// Step 2: same host, exact path or visited path under the candidate path
	if sameHost {
		if visitedPath == candidatePath {
			detail.MatchType = domain.URLMatchExact
			detail.MatchedPath = candidatePath
			return detail, true
		}

		prefix := candidatePath + "/"
		if candidatePath == "/" {
			prefix = "/"
		}
		if strings.HasPrefix(visitedPath, prefix) {
			detail.MatchType = domain.URLMatchPartial
			detail.MatchedPath = candidatePath
			return detail, true
		}
	}

	// Step 3: sibling hosts under the same registrable domain
	if m.enableSubdomain && !sameHost && m.domainRoot(visitedHost) == m.domainRoot(candidateHost) {
		detail.MatchType = domain.URLMatchSubdomain
		return detail, true
	}

	// Step 4: country variants of the same marketplace
	if m.enableEcommerceAlias {
		visitedFamily, visitedOK := m.ecommerce.Family(visitedHost)
		candidateFamily, candidateOK := m.ecommerce.Family(candidateHost)
		if visitedOK && candidateOK && visitedFamily == candidateFamily {
			detail.MatchType = domain.URLMatchSubdomain
			detail.EcommerceFamilyAlias = true
			return detail, true
		}
	}

	return domain.URLMatchDetail{}, false
}

func lowerHost(u *url.URL) string {
	return strings.ToLower(u.Hostname())
}

func (m *URLMatcher) domainRoot(host string) string {
	if m.publicSuffixDomainRoot {
		return PublicSuffixRoot(host)
	}
	return DomainRoot(host)
}

// Score ranks a match: tier priority, plus the matched path length for
// partial matches so deeper prefixes outrank shallower ones
func (m *URLMatcher) Score(detail domain.URLMatchDetail) int {
	switch detail.MatchType {
	case domain.URLMatchExact:
		return m.priority.Exact * urlTierScale
	case domain.URLMatchPartial:
		return m.priority.Partial*urlTierScale + len(detail.MatchedPath)
	case domain.URLMatchSubdomain:
		return m.priority.Subdomain * urlTierScale
	default:
		return 0
	}
}

// matchReasons explains a classification for callers and tests
func matchReasons(detail domain.URLMatchDetail) []string {
	switch {
	case detail.MatchType == domain.URLMatchExact:
		return []string{ReasonHostEqual, ReasonPathEqual}
	case detail.MatchType == domain.URLMatchPartial:
		return []string{ReasonHostEqual, ReasonPathPrefix}
	case detail.EcommerceFamilyAlias:
		return []string{ReasonEcommerceFamilyAlias, ReasonSubdomainMatch}
	default:
		return []string{ReasonRootDomainEqual, ReasonSubdomainMatch}
	}
}

type detailedMatch struct {
	entry  domain.Entry
	detail domain.URLMatchDetail
	score  int
}

// MatchEntries returns the entries whose website relates to visitedRaw,
// best match first, at most limit of them
func (m *URLMatcher) MatchEntries(entries []domain.Entry, visitedRaw string, limit int) []domain.EntryMatch {
	visited, ok := SafeParseURL(visitedRaw)
	if !ok || limit <= 0 {
		return []domain.EntryMatch{}
	}

	var matches []detailedMatch
	for _, entry := range entries {
		candidate, ok := SafeParseURL(entry.Website)
		if !ok {
			continue
		}

		detail, ok := m.Classify(visited, candidate)
		if !ok {
			continue
		}

		matches = append(matches, detailedMatch{
			entry:  entry,
			detail: detail,
			score:  m.Score(detail),
		})
	}

	matches = m.keepMostSpecificPaths(matches)

	sort.SliceStable(matches, func(i, j int) bool {
		left, right := matches[i], matches[j]
		if left.score != right.score {
			return left.score > right.score
		}
		if left.entry.PageName != right.entry.PageName {
			return left.entry.PageName < right.entry.PageName
		}
		return left.entry.ID() < right.entry.ID()
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}

	results := make([]domain.EntryMatch, 0, len(matches))
	for _, match := range matches {
		results = append(results, domain.EntryMatch{
			Entry:       match.entry,
			MatchType:   match.detail.MatchType,
			MatchedPath: match.detail.MatchedPath,
			Score:       match.score,
			Reasons:     matchReasons(match.detail),
		})
	}
	return results
}

// keepMostSpecificPaths drops, on specific-path hosts, every path match that
// is shallower than the deepest path matched on the same host. A repository
// page then wins over the generic company entry of the code host.
func (m *URLMatcher) keepMostSpecificPaths(matches []detailedMatch) []detailedMatch {
	if len(m.specificPathDomains) == 0 {
		return matches
	}

	deepest := make(map[string]int)
	for _, match := range matches {
		if !m.isPrunable(match.detail) {
			continue
		}
		host := match.detail.CandidateHost
		if length := len(match.detail.MatchedPath); length > deepest[host] {
			deepest[host] = length
		}
	}
	if len(deepest) == 0 {
		return matches
	}

	kept := matches[:0:0]
	for _, match := range matches {
		if m.isPrunable(match.detail) && len(match.detail.MatchedPath) < deepest[match.detail.CandidateHost] {
			continue
		}
		kept = append(kept, match)
	}
	return kept
}

func (m *URLMatcher) isPrunable(detail domain.URLMatchDetail) bool {
	if detail.MatchType != domain.URLMatchExact && detail.MatchType != domain.URLMatchPartial {
		return false
	}
	if detail.MatchedPath == "" {
		return false
	}
	_, ok := m.specificPathDomains[detail.CandidateHost]
	return ok
}
