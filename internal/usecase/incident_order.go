package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/crwatch/backend/internal/domain"
)

// startDateLayouts are the StartDate formats found in dataset exports
var startDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006/01/02",
}

// parseStartDate returns false for missing or unrecognised dates
func parseStartDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range startDateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// incidentFocus holds the names the page is primarily about
type incidentFocus struct {
	companies    nameSet
	products     nameSet
	productLines nameSet
}

func newIncidentFocus(top, company *domain.Entry) incidentFocus {
	focus := incidentFocus{companies: nameSet{}, products: nameSet{}, productLines: nameSet{}}

	if top != nil {
		signals := newRelationSignals(*top)
		focus.companies.merge(signals.companyNames)
		focus.products.merge(signals.productNames)
		focus.productLines.merge(signals.productLineNames)
		focus.companies.merge(signals.companyRefs)
		focus.products.merge(signals.productRefs)
		focus.productLines.merge(signals.productLineRefs)
	}
	if company != nil {
		if name := Normalize(company.PageName); name != "" {
			focus.companies[name] = struct{}{}
		}
	}
	return focus
}

// tier is 0 for incidents about the focused product, 1 for incidents about
// the focused company and 2 for everything else
func (f incidentFocus) tier(incident domain.Entry) int {
	if normalizedReferenceSet(incident.Product).intersects(f.products) ||
		normalizedReferenceSet(incident.ProductLine).intersects(f.productLines) {
		return 0
	}
	if normalizedReferenceSet(incident.Company).intersects(f.companies) {
		return 1
	}
	return 2
}

type rankedIncident struct {
	entry   domain.Entry
	tier    int
	active  bool
	started time.Time
	dated   bool
}

// OrderIncidents sorts incidents by relevance to top and company, then
// active first, then newest start date first. Undated incidents sort last
// within their group and ties keep the input order.
func OrderIncidents(incidents []domain.Entry, top, company *domain.Entry) []domain.Entry {
	focus := newIncidentFocus(top, company)

	ranked := make([]rankedIncident, 0, len(incidents))
	for _, incident := range incidents {
		started, dated := parseStartDate(incident.StartDate)
		ranked = append(ranked, rankedIncident{
			entry:   incident,
			tier:    focus.tier(incident),
			active:  strings.EqualFold(incident.PrimaryStatus(), "active"),
			started: started,
			dated:   dated,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		left, right := ranked[i], ranked[j]
		if left.tier != right.tier {
			return left.tier < right.tier
		}
		if left.active != right.active {
			return left.active
		}
		if left.dated != right.dated {
			return left.dated
		}
		return left.started.After(right.started)
	})

	ordered := make([]domain.Entry, 0, len(ranked))
	for _, incident := range ranked {
		ordered = append(ordered, incident.entry)
	}
	return ordered
}

// IncidentsOf picks the incidents out of a match result, other than the top
// match itself, and orders them around the top match and the first company
func IncidentsOf(matches []domain.Entry) []domain.Entry {
	if len(matches) == 0 {
		return []domain.Entry{}
	}

	top := &matches[0]
	var company *domain.Entry
	var incidents []domain.Entry
	for i := range matches {
		entry := &matches[i]
		if company == nil && entry.Type == domain.EntityCompany {
			company = entry
		}
		if i > 0 && entry.Type == domain.EntityIncident {
			incidents = append(incidents, *entry)
		}
	}
	return OrderIncidents(incidents, top, company)
}
