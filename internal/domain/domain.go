// Package domain normalizes URLs into canonical hostnames and implements
// the matching rules shared by every list store.
package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Domain is a normalized lowercase hostname with any leading "www." removed.
// It is the join key across the whitelist, blacklist, and personal cache.
type Domain string

// ErrInvalidURL is returned when a URL cannot be reduced to a hostname.
var ErrInvalidURL = errors.New("invalid url")

// MatchMode selects how a candidate domain is compared against stored entries.
//
// The global lists use ParentDomain (trust in example.com extends to
// mail.example.com); the personal cache uses ExactHost (a user trusting
// mail.example.com says nothing about example.com).
type MatchMode int

const (
	// ExactHost matches only the full hostname.
	ExactHost MatchMode = iota
	// ParentDomain also matches when the candidate's registrable domain
	// equals the entry, or when the entry is a suffix category.
	ParentDomain
)

func (m MatchMode) String() string {
	if m == ExactHost {
		return "exact_host"
	}
	return "parent_domain"
}

// suffixCategories are TLDs that act as trust categories when present in a
// list: an entry "edu" matches any domain under .edu in ParentDomain mode.
var suffixCategories = map[Domain]struct{}{
	"edu": {},
	"gov": {},
	"mil": {},
}

// Normalize parses a URL (scheme optional, https assumed) and returns the
// canonical domain: lowercased hostname, trailing dot and one leading
// "www." stripped.
func Normalize(rawURL string) (Domain, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", ErrInvalidURL
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || strings.ContainsAny(host, " \t") {
		return "", ErrInvalidURL
	}
	return Domain(host), nil
}

// Registrable returns the registrable domain (eTLD+1) for d using the public
// suffix list, so shop.example.co.uk collapses to example.co.uk rather than
// co.uk. When the suffix list cannot decide, it falls back to the last two
// labels.
func Registrable(d Domain) Domain {
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(string(d)); err == nil {
		return Domain(etld1)
	}
	labels := strings.Split(string(d), ".")
	if len(labels) <= 2 {
		return d
	}
	return Domain(strings.Join(labels[len(labels)-2:], "."))
}

// IsSubdomainOf reports whether candidate equals parent or sits anywhere
// beneath it.
func IsSubdomainOf(candidate, parent Domain) bool {
	return candidate == parent || strings.HasSuffix(string(candidate), "."+string(parent))
}

// IsSuffixCategory reports whether entry is a recognized TLD trust category.
func IsSuffixCategory(entry Domain) bool {
	_, ok := suffixCategories[entry]
	return ok
}

// MatchCandidates returns every stored-entry value that matches d in
// ParentDomain mode: d itself, each parent domain above the public suffix,
// and d's TLD when it is a suffix category. A bare public suffix (co.uk,
// com.au) is never a candidate; only the recognized categories generalize
// at the TLD level. List stores use the result as lookup keys, so this is
// the single definition of the parent-domain rule.
func MatchCandidates(d Domain) []Domain {
	candidates := []Domain{d}

	h := string(d)
	for {
		idx := strings.Index(h, ".")
		if idx < 0 {
			break
		}
		h = h[idx+1:]
		if ps, _ := publicsuffix.PublicSuffix(h); ps == h {
			break
		}
		candidates = append(candidates, Domain(h))
	}

	if idx := strings.LastIndex(string(d), "."); idx >= 0 {
		if tld := Domain(string(d)[idx+1:]); IsSuffixCategory(tld) {
			candidates = append(candidates, tld)
		}
	}
	return candidates
}

// Matches tests candidate against a stored entry under the given mode.
func Matches(candidate, entry Domain, mode MatchMode) bool {
	if candidate == entry {
		return true
	}
	if mode == ExactHost {
		return false
	}
	for _, c := range MatchCandidates(candidate)[1:] {
		if c == entry {
			return true
		}
	}
	return false
}
