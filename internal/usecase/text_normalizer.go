package usecase

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Package-level compiled regex patterns for performance
var (
	htmlEntityRegex     = regexp.MustCompile(`&(#[0-9]+|#[xX][0-9a-fA-F]+|[a-zA-Z]+);`)
	referenceSplitRegex = regexp.MustCompile(`[,;|]`)
)

// namedEntities are the HTML entities decoded by name; anything else is left as-is
var namedEntities = map[string]string{
	"amp":  "&",
	"lt":   "<",
	"gt":   ">",
	"quot": `"`,
	"apos": "'",
	"nbsp": " ",
}

// DecodeHTMLEntities replaces named, decimal and hex character references.
// Unknown names and out-of-range code points are kept verbatim.
func DecodeHTMLEntities(text string) string {
	if !strings.Contains(text, "&") {
		return text
	}

	return htmlEntityRegex.ReplaceAllStringFunc(text, func(match string) string {
		entity := match[1 : len(match)-1]

		if strings.HasPrefix(entity, "#x") || strings.HasPrefix(entity, "#X") {
			return decodeCodePoint(match, entity[2:], 16)
		}
		if strings.HasPrefix(entity, "#") {
			return decodeCodePoint(match, entity[1:], 10)
		}
		if decoded, ok := namedEntities[entity]; ok {
			return decoded
		}
		return match
	})
}

func decodeCodePoint(original, digits string, base int) string {
	codePoint, err := strconv.ParseInt(digits, base, 32)
	if err != nil || codePoint > unicode.MaxRune || codePoint < 0 {
		return original
	}
	return string(rune(codePoint))
}

// Normalize canonicalizes text for matching: entities decoded, lowercased,
// every run of non letter/digit characters turned into a single space.
// Dataset strings were already decoded once at load time, so a literal
// "&amp;lt;" in the dataset is decoded twice and matches as "<".
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	decoded := strings.ToLower(DecodeHTMLEntities(text))

	var b strings.Builder
	b.Grow(len(decoded))
	pendingSpace := false
	for _, r := range decoded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return b.String()
}

// ContainsWholePhrase reports whether the tokens of needle appear contiguously
// in haystack. Both arguments are expected to be normalized.
func ContainsWholePhrase(haystack, needle string) bool {
	haystackTokens := strings.Fields(haystack)
	needleTokens := strings.Fields(needle)
	if len(haystackTokens) == 0 || len(needleTokens) == 0 {
		return false
	}
	if len(needleTokens) > len(haystackTokens) {
		return false
	}

	for start := 0; start <= len(haystackTokens)-len(needleTokens); start++ {
		matched := true
		for offset, token := range needleTokens {
			if haystackTokens[start+offset] != token {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// SplitReferences splits a free-text reference field on "," ";" and "|"
func SplitReferences(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}

	var pieces []string
	for _, piece := range referenceSplitRegex.Split(value, -1) {
		if piece = strings.TrimSpace(piece); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

// normalizedReferenceSet normalizes every reference in value into a set
func normalizedReferenceSet(value string) nameSet {
	set := make(nameSet)
	for _, piece := range SplitReferences(value) {
		if normalized := Normalize(piece); normalized != "" {
			set[normalized] = struct{}{}
		}
	}
	return set
}

// wordCount returns the number of whitespace separated tokens
func wordCount(s string) int {
	return len(strings.Fields(s))
}
