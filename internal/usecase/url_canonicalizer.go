package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var (
	repeatedSlashRegex = regexp.MustCompile(`/{2,}`)
	trailingSlashRegex = regexp.MustCompile(`/+$`)
	hostCharsRegex     = regexp.MustCompile(`^[\p{L}\p{N}.\-_]+$`)
)

// SafeParseURL parses raw into an absolute URL.
// A string without a scheme is retried with an "https://" prefix, so
// "github.com/org" parses. Returns false when no usable host can be found.
func SafeParseURL(raw string) (*url.URL, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	if parsed, err := url.Parse(trimmed); err == nil && parsed.Scheme != "" && validHost(parsed.Hostname()) {
		return parsed, true
	}

	// A string that already names a scheme is not retried
	if strings.Contains(trimmed, "://") {
		return nil, false
	}

	parsed, err := url.Parse("https://" + trimmed)
	if err != nil || !validHost(parsed.Hostname()) {
		return nil, false
	}
	return parsed, true
}

func validHost(host string) bool {
	if host == "" {
		return false
	}
	// IPv6 literals come back from Hostname() without brackets
	if strings.Contains(host, ":") {
		return true
	}
	return hostCharsRegex.MatchString(host)
}

// NormalizeHostname lowercases host, converts internationalized labels to
// punycode and strips one leading "www."
func NormalizeHostname(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if ascii, err := idna.Punycode.ToASCII(host); err == nil {
		host = ascii
	}
	return strings.TrimPrefix(host, "www.")
}

// NormalizePath collapses repeated slashes and strips trailing slashes.
// The root path stays "/" and an empty path becomes "/".
func NormalizePath(path string) string {
	if path == "" {
		return "/"
	}
	clean := repeatedSlashRegex.ReplaceAllString(path, "/")
	if clean == "/" {
		return "/"
	}
	clean = trailingSlashRegex.ReplaceAllString(clean, "")
	if clean == "" {
		return "/"
	}
	return clean
}

// DomainRoot returns the last two labels of host.
// This approximates eTLD+1 and is wrong for suffixes like "co.uk".
func DomainRoot(host string) string {
	var parts []string
	for _, part := range strings.Split(strings.ToLower(host), ".") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) <= 2 {
		return strings.Join(parts, ".")
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// PublicSuffixRoot returns the registrable domain of host using the public
// suffix list, falling back to DomainRoot when the list has no answer
func PublicSuffixRoot(host string) string {
	root, err := publicsuffix.EffectiveTLDPlusOne(strings.ToLower(host))
	if err != nil {
		return DomainRoot(host)
	}
	return root
}
