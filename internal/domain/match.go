package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Meta field names collected by the content script
const (
	MetaDescription   = "description"
	MetaTitle         = "title"
	MetaOGTitle       = "og:title"
	MetaOGDescription = "og:description"
)

// PageContext describes the page the user is currently viewing
type PageContext struct {
	URL      string            `json:"url"`
	Hostname string            `json:"hostname"`
	Title    string            `json:"title,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// Host returns the page hostname, falling back to the host of URL
func (p PageContext) Host() string {
	if host := strings.TrimSpace(p.Hostname); host != "" {
		return host
	}
	raw := strings.TrimSpace(p.URL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

// MetaValue returns the named meta field or an empty string
func (p PageContext) MetaValue(name string) string {
	if p.Meta == nil {
		return ""
	}
	return p.Meta[name]
}

// URLMatchType classifies how a visited URL relates to an entry website
type URLMatchType string

const (
	URLMatchExact     URLMatchType = "exact"
	URLMatchPartial   URLMatchType = "partial"
	URLMatchSubdomain URLMatchType = "subdomain"
)

// URLMatchDetail is the classification of one visited/candidate URL pair
type URLMatchDetail struct {
	MatchType            URLMatchType `json:"matchType"`
	MatchedPath          string       `json:"matchedPath,omitempty"`
	VisitedHost          string       `json:"visitedHost"`
	CandidateHost        string       `json:"candidateHost"`
	EcommerceFamilyAlias bool         `json:"ecommerceFamilyAlias,omitempty"`
}

// EntryMatch is a scored URL match for a single entry
type EntryMatch struct {
	Entry       Entry        `json:"entry"`
	MatchType   URLMatchType `json:"matchType"`
	MatchedPath string       `json:"matchedPath,omitempty"`
	Score       int          `json:"score"`
	Reasons     []string     `json:"reasons"`
}

// MatchRequest is a page context plus the caller's suppression preferences
type MatchRequest struct {
	PageContext
	SuppressedDomains []string `json:"suppressedDomains,omitempty"`
}

// Result sources
const (
	SourceEngine = "engine"
	SourceCache  = "cache"
)

// MatchResult is the outcome of matching one page against the dataset
type MatchResult struct {
	Entries         []Entry  `json:"matches"`
	Incidents       []Entry  `json:"incidents"`
	Seeds           []string `json:"seeds"`
	SnapshotVersion string   `json:"snapshotVersion"`
	Source          string   `json:"source"`
	Suppressed      bool     `json:"suppressed"`
}

// Badge returns the short count shown on the extension icon
func (r *MatchResult) Badge() string {
	if len(r.Entries) > 3 {
		return "3+"
	}
	return strconv.Itoa(len(r.Entries))
}
