package usecase

import (
	"sort"

	"github.com/crwatch/backend/internal/domain"
)

// relationTypePriority orders discovered entries in an expansion result
var relationTypePriority = map[domain.EntityType]int{
	domain.EntityCompany:     0,
	domain.EntityProduct:     1,
	domain.EntityProductLine: 2,
	domain.EntityIncident:    3,
}

type nameSet map[string]struct{}

func (s nameSet) intersects(other nameSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for name := range small {
		if _, ok := large[name]; ok {
			return true
		}
	}
	return false
}

// merge adds every name of other and reports whether s grew
func (s nameSet) merge(other nameSet) bool {
	grew := false
	for name := range other {
		if _, ok := s[name]; ok {
			continue
		}
		s[name] = struct{}{}
		grew = true
	}
	return grew
}

// relationSignals are the normalized names an entry carries and references
type relationSignals struct {
	entityType       domain.EntityType
	companyNames     nameSet
	productNames     nameSet
	productLineNames nameSet
	companyRefs      nameSet
	productRefs      nameSet
	productLineRefs  nameSet
}

func newRelationSignals(entry domain.Entry) relationSignals {
	signals := relationSignals{
		entityType:       entry.Type,
		companyNames:     nameSet{},
		productNames:     nameSet{},
		productLineNames: nameSet{},
		companyRefs:      normalizedReferenceSet(entry.Company),
		productRefs:      normalizedReferenceSet(entry.Product),
		productLineRefs:  normalizedReferenceSet(entry.ProductLine),
	}

	if name := Normalize(entry.PageName); name != "" {
		switch entry.Type {
		case domain.EntityCompany:
			signals.companyNames[name] = struct{}{}
		case domain.EntityProduct:
			signals.productNames[name] = struct{}{}
		case domain.EntityProductLine:
			signals.productLineNames[name] = struct{}{}
		}
	}
	return signals
}

// knownNames accumulates the names reachable from the seeds
type knownNames struct {
	companies    nameSet
	products     nameSet
	productLines nameSet
}

func newKnownNames() *knownNames {
	return &knownNames{companies: nameSet{}, products: nameSet{}, productLines: nameSet{}}
}

// add merges the own names and references of signals into every bucket
func (k *knownNames) add(signals relationSignals) bool {
	grew := k.companies.merge(signals.companyNames)
	grew = k.companies.merge(signals.companyRefs) || grew
	grew = k.products.merge(signals.productNames) || grew
	grew = k.products.merge(signals.productRefs) || grew
	grew = k.productLines.merge(signals.productLineNames) || grew
	grew = k.productLines.merge(signals.productLineRefs) || grew
	return grew
}

// relates applies the inclusion rule of the entry's type
func (k *knownNames) relates(signals relationSignals) bool {
	switch signals.entityType {
	case domain.EntityCompany:
		return signals.companyNames.intersects(k.companies)
	case domain.EntityProductLine:
		return signals.productLineNames.intersects(k.productLines) ||
			signals.companyRefs.intersects(k.companies)
	case domain.EntityProduct:
		return signals.productNames.intersects(k.products) ||
			signals.companyRefs.intersects(k.companies) ||
			signals.productLineRefs.intersects(k.productLines)
	case domain.EntityIncident:
		return signals.companyRefs.intersects(k.companies) ||
			signals.productRefs.intersects(k.products) ||
			signals.productLineRefs.intersects(k.productLines)
	default:
		return false
	}
}

// ExpandRelated returns the seeds followed by every entry transitively
// connected to them through shared company, product or product line names.
// Seeds keep their order; discovered entries are sorted by type, name and id.
func ExpandRelated(all, seeds []domain.Entry) []domain.Entry {
	if len(seeds) == 0 {
		return []domain.Entry{}
	}

	known := newKnownNames()
	selected := make(map[string]struct{}, len(seeds))
	results := make([]domain.Entry, 0, len(seeds))

	for _, seed := range seeds {
		key := seed.Key()
		if _, ok := selected[key]; ok {
			continue
		}
		selected[key] = struct{}{}
		results = append(results, seed)
		known.add(newRelationSignals(seed))
	}

	signals := make([]relationSignals, len(all))
	for i, entry := range all {
		signals[i] = newRelationSignals(entry)
	}

	var discovered []domain.Entry
	for changed := true; changed; {
		changed = false
		for i, entry := range all {
			key := entry.Key()
			if _, ok := selected[key]; ok {
				continue
			}
			if !known.relates(signals[i]) {
				continue
			}

			selected[key] = struct{}{}
			discovered = append(discovered, entry)
			known.add(signals[i])
			changed = true
		}
	}

	sort.SliceStable(discovered, func(i, j int) bool {
		left, right := discovered[i], discovered[j]
		if left.Type != right.Type {
			return relationTypePriority[left.Type] < relationTypePriority[right.Type]
		}
		if left.PageName != right.PageName {
			return left.PageName < right.PageName
		}
		return left.ID() < right.ID()
	})

	return append(results, discovered...)
}
