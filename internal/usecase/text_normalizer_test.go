package usecase

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"punctuation and case", "Hello, World!", "hello world"},
		{"collapses whitespace", "  Acme \t Home\n ", "acme home"},
		{"named entity", "AT&amp;T", "at t"},
		{"nbsp entity", "&nbsp;Acme&nbsp;Cam", "acme cam"},
		{"decimal and hex entities", "&#65;&#x42;c", "abc"},
		{"unknown entity kept", "Caf&eacute;", "caf eacute"},
		{"underscores and dashes", "a---b___c", "a b c"},
		{"unicode letters", "Crème Brûlée", "crème brûlée"},
		{"digits kept", "AirPods 4 (2024)", "airpods 4 2024"},
		{"only punctuation", "!!! ---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDecodeHTMLEntities(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"&lt;b&gt;", "<b>"},
		{"&quot;quoted&quot; &apos;single&apos;", `"quoted" 'single'`},
		{"&#39;", "'"},
		{"&#X41;", "A"},
		{"&copy; 2025", "&copy; 2025"},
		{"no entities", "no entities"},
		{"&#99999999999;", "&#99999999999;"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := DecodeHTMLEntities(tt.input); got != tt.want {
				t.Errorf("DecodeHTMLEntities(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestContainsWholePhrase(t *testing.T) {
	tests := []struct {
		name     string
		haystack string
		needle   string
		want     bool
	}{
		{"single token", "apple airpods 4", "apple", true},
		{"multi token phrase", "buy the acme home cam today", "acme home", true},
		{"token order matters", "home acme", "acme home", false},
		{"no partial token match", "apple airpods 4 amazon com au electronics", "electron", false},
		{"needle longer than haystack", "acme", "acme home", false},
		{"empty needle", "acme", "", false},
		{"empty haystack", "", "acme", false},
		{"phrase at the end", "apple airpods 4 amazon com au electronics", "electronics", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContainsWholePhrase(tt.haystack, tt.needle); got != tt.want {
				t.Errorf("ContainsWholePhrase(%q, %q) = %v, want %v", tt.haystack, tt.needle, got, tt.want)
			}
		})
	}
}

func TestSplitReferences(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"Acme", []string{"Acme"}},
		{"Acme, Globex;Initech | Umbrella", []string{"Acme", "Globex", "Initech", "Umbrella"}},
		{"Acme,,;", []string{"Acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SplitReferences(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitReferences(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizedReferenceSet(t *testing.T) {
	set := normalizedReferenceSet("Acme Inc.; ACME inc | Globex")
	if len(set) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(set), set)
	}
	for _, name := range []string{"acme inc", "globex"} {
		if _, ok := set[name]; !ok {
			t.Errorf("missing %q in %v", name, set)
		}
	}
}
