package lists

import (
	"bufio"
	"io"
	"strings"

	"cerberus/internal/domain"
)

// Parser extracts domains from a feed payload.
type Parser interface {
	Parse(r io.Reader) ([]domain.Domain, error)
}

// DomainListParser parses one-domain-per-line feeds. Blank lines and
// #-comments are skipped, duplicates collapsed.
type DomainListParser struct{}

func (p *DomainListParser) Parse(r io.Reader) ([]domain.Domain, error) {
	seen := make(map[domain.Domain]struct{})
	var domains []domain.Domain
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		d, err := domain.Normalize(line)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return domains, scanner.Err()
}

// URLListParser parses one-URL-per-line feeds (the OpenPhish feed.txt
// shape) down to their domains.
type URLListParser struct {
	// MaxEntries caps how many leading lines are consumed; 0 means all.
	MaxEntries int
}

func (p *URLListParser) Parse(r io.Reader) ([]domain.Domain, error) {
	seen := make(map[domain.Domain]struct{})
	var domains []domain.Domain
	scanner := bufio.NewScanner(r)
	lines := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++
		if p.MaxEntries > 0 && lines > p.MaxEntries {
			break
		}
		d, err := domain.Normalize(line)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return domains, scanner.Err()
}

// HostfileParser parses hosts-file feeds: "127.0.0.1 domain" or
// "0.0.0.0 domain" per line.
type HostfileParser struct{}

func (p *HostfileParser) Parse(r io.Reader) ([]domain.Domain, error) {
	seen := make(map[domain.Domain]struct{})
	var domains []domain.Domain
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		host := strings.ToLower(fields[1])
		if host == "localhost" || host == "localhost.localdomain" ||
			host == "broadcasthost" || host == "local" {
			continue
		}
		d, err := domain.Normalize(host)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return domains, scanner.Err()
}

// RankedCSVParser parses ranked-origin CSV feeds (the CrUX top-sites
// shape): an "origin,rank" header followed by one origin per line.
type RankedCSVParser struct{}

func (p *RankedCSVParser) Parse(r io.Reader) ([]domain.Domain, error) {
	seen := make(map[domain.Domain]struct{})
	var domains []domain.Domain
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		origin, _, _ := strings.Cut(line, ",")
		if strings.EqualFold(origin, "origin") {
			// Header row.
			continue
		}
		d, err := domain.Normalize(origin)
		if err != nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}
	return domains, scanner.Err()
}

// ParserForFormat returns the parser for a configured feed format.
func ParserForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "urls":
		return &URLListParser{}
	case "hostfile":
		return &HostfileParser{}
	case "ranked_csv":
		return &RankedCSVParser{}
	default:
		return &DomainListParser{}
	}
}
