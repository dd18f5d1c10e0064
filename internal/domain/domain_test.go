package domain

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		rawURL  string
		want    Domain
		wantErr bool
	}{
		{"full url", "https://www.Google.com/search?q=x", "google.com", false},
		{"no scheme", "example.org", "example.org", false},
		{"bare host with www", "www.example.org", "example.org", false},
		{"subdomain keeps labels", "https://mail.example.com", "mail.example.com", false},
		{"www subdomain stripped once", "https://www.mail.example.com", "mail.example.com", false},
		{"trailing dot", "https://example.com.", "example.com", false},
		{"port stripped", "http://example.com:8080/path", "example.com", false},
		{"uppercase host", "HTTPS://EXAMPLE.COM", "example.com", false},
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"no host", "https:///path", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.rawURL)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%q) expected error, got %q", tt.rawURL, got)
				}
				if !errors.Is(err, ErrInvalidURL) {
					t.Errorf("Normalize(%q) error = %v, want ErrInvalidURL", tt.rawURL, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) unexpected error: %v", tt.rawURL, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.rawURL, got, tt.want)
			}
		})
	}
}

func TestRegistrable(t *testing.T) {
	tests := []struct {
		name string
		in   Domain
		want Domain
	}{
		{"two labels", "example.com", "example.com"},
		{"subdomain", "mail.example.com", "example.com"},
		{"deep subdomain", "a.b.example.com", "example.com"},
		{"multi-part public suffix", "shop.example.co.uk", "example.co.uk"},
		{"single label", "localhost", "localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Registrable(tt.in); got != tt.want {
				t.Errorf("Registrable(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		candidate Domain
		entry     Domain
		mode      MatchMode
		want      bool
	}{
		{"exact host match", "example.com", "example.com", ExactHost, true},
		{"exact host subdomain miss", "mail.example.com", "example.com", ExactHost, false},
		{"exact host parent miss", "example.com", "mail.example.com", ExactHost, false},
		{"parent domain exact", "example.com", "example.com", ParentDomain, true},
		{"parent domain subdomain", "mail.example.com", "example.com", ParentDomain, true},
		{"parent domain deep subdomain", "a.b.example.com", "example.com", ParentDomain, true},
		{"parent domain unrelated", "example.net", "example.com", ParentDomain, false},
		{"parent domain suffix trap", "notexample.com", "example.com", ParentDomain, false},
		{"co.uk not collapsed to suffix", "example.co.uk", "co.uk", ParentDomain, false},
		{"edu category match", "cs.stanford.edu", "edu", ParentDomain, true},
		{"edu category exact-host miss", "cs.stanford.edu", "edu", ExactHost, false},
		{"gov category match", "irs.gov", "gov", ParentDomain, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.candidate, tt.entry, tt.mode); got != tt.want {
				t.Errorf("Matches(%q, %q, %s) = %v, want %v", tt.candidate, tt.entry, tt.mode, got, tt.want)
			}
		})
	}
}

func TestMatchCandidates(t *testing.T) {
	tests := []struct {
		name string
		in   Domain
		want []Domain
	}{
		{"registrable only", "example.com", []Domain{"example.com"}},
		{"subdomain chain", "a.b.example.com", []Domain{"a.b.example.com", "b.example.com", "example.com"}},
		{"multi-part public suffix", "shop.example.co.uk", []Domain{"shop.example.co.uk", "example.co.uk"}},
		{"suffix category appended", "cs.stanford.edu", []Domain{"cs.stanford.edu", "stanford.edu", "edu"}},
		{"single label", "localhost", []Domain{"localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchCandidates(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MatchCandidates(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsSubdomainOf(t *testing.T) {
	if !IsSubdomainOf("a.example.com", "example.com") {
		t.Error("a.example.com should be a subdomain of example.com")
	}
	if IsSubdomainOf("example.com", "a.example.com") {
		t.Error("example.com should not be a subdomain of a.example.com")
	}
	if !IsSubdomainOf("example.com", "example.com") {
		t.Error("a domain is a subdomain of itself")
	}
}
