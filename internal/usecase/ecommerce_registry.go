package usecase

import (
	"sort"
	"strings"
)

// Marketplace family identifiers of the built-in table
const (
	FamilyAmazon = "amazon"
	FamilyEbay   = "ebay"
)

var amazonDomains = []string{
	"amazon.com", "amazon.ca", "amazon.com.mx", "amazon.com.br", "amazon.co.uk",
	"amazon.de", "amazon.fr", "amazon.it", "amazon.es", "amazon.nl",
	"amazon.se", "amazon.pl", "amazon.com.be", "amazon.com.tr", "amazon.eg",
	"amazon.sa", "amazon.ae", "amazon.in", "amazon.sg", "amazon.com.au",
	"amazon.co.jp",
}

var ebayDomains = []string{
	"ebay.com", "ebay.ca", "ebay.com.mx", "ebay.com.br", "ebay.co.uk",
	"ebay.de", "ebay.fr", "ebay.it", "ebay.es", "ebay.nl",
	"ebay.be", "ebay.pl", "ebay.ie", "ebay.at", "ebay.ch",
	"ebay.com.au", "ebay.com.hk", "ebay.ph", "ebay.my", "ebay.sg",
}

// DefaultEcommerceDomainFamilies returns a fresh copy of the built-in
// marketplace domain table
func DefaultEcommerceDomainFamilies() map[string]string {
	families := make(map[string]string, len(amazonDomains)+len(ebayDomains))
	for _, domain := range amazonDomains {
		families[domain] = FamilyAmazon
	}
	for _, domain := range ebayDomains {
		families[domain] = FamilyEbay
	}
	return families
}

type familyDomain struct {
	domain string
	family string
}

// EcommerceRegistry maps marketplace domains to a family so that all
// country variants of one marketplace are treated as aliases
type EcommerceRegistry struct {
	domains []familyDomain
}

// NewEcommerceRegistry builds a registry from a domain -> family table.
// An empty table falls back to the built-in Amazon and eBay domains.
func NewEcommerceRegistry(domainFamilies map[string]string) *EcommerceRegistry {
	if len(domainFamilies) == 0 {
		domainFamilies = DefaultEcommerceDomainFamilies()
	}

	domains := make([]familyDomain, 0, len(domainFamilies))
	for domain, family := range domainFamilies {
		domain = NormalizeHostname(domain)
		family = strings.TrimSpace(family)
		if domain == "" || family == "" {
			continue
		}
		domains = append(domains, familyDomain{domain: domain, family: family})
	}

	// Most specific domain wins when tables overlap (amazon.com vs amazon.com.au)
	sort.Slice(domains, func(i, j int) bool {
		if len(domains[i].domain) != len(domains[j].domain) {
			return len(domains[i].domain) > len(domains[j].domain)
		}
		return domains[i].domain < domains[j].domain
	})

	return &EcommerceRegistry{domains: domains}
}

// IsDomainOrSubdomain reports whether host equals domain or is a subdomain of it
func IsDomainOrSubdomain(host, domain string) bool {
	host = NormalizeHostname(host)
	domain = NormalizeHostname(domain)
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// Family returns the marketplace family of host
func (r *EcommerceRegistry) Family(host string) (string, bool) {
	host = NormalizeHostname(host)
	if host == "" {
		return "", false
	}
	for _, entry := range r.domains {
		if IsDomainOrSubdomain(host, entry.domain) {
			return entry.family, true
		}
	}
	return "", false
}

// IsKnownHost reports whether host belongs to any registered marketplace
func (r *EcommerceRegistry) IsKnownHost(host string) bool {
	_, ok := r.Family(host)
	return ok
}

// Domains returns the registered domains in lexicographic order
func (r *EcommerceRegistry) Domains() []string {
	domains := make([]string, 0, len(r.domains))
	for _, entry := range r.domains {
		domains = append(domains, entry.domain)
	}
	sort.Strings(domains)
	return domains
}

var defaultEcommerceRegistry = NewEcommerceRegistry(nil)

// IsKnownEcommerceHost reports whether host belongs to a marketplace of the built-in table
func IsKnownEcommerceHost(host string) bool {
	return defaultEcommerceRegistry.IsKnownHost(host)
}
