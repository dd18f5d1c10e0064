package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Model replies follow a fixed three-line contract:
//
//	1. BrandMatch: <True/False>
//	2. Explanation: <free text, may span lines>
//	3. Confidence: <0.0-1.0 | float | percent | unknown>
var replyPattern = regexp.MustCompile(
	`(?is)1\.\s*BrandMatch\s*:\s*<?\s*(true|false)\s*>?` +
		`.*?2\.\s*Explanation\s*:\s*(.*?)` +
		`\s*3\.\s*Confidence\s*:\s*<?\s*([^<>\n]+)\s*>?`,
)

// ParseModelReply extracts a BrandMatch from a model's text reply.
func ParseModelReply(text string) (BrandMatch, error) {
	m := replyPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return BrandMatch{}, fmt.Errorf("unparseable model reply: %.120q", text)
	}

	return BrandMatch{
		MatchesDomain: strings.EqualFold(m[1], "true"),
		Explanation:   strings.TrimSpace(m[2]),
		Confidence:    parseConfidence(m[3]),
	}, nil
}

// parseConfidence normalizes the confidence field to [0,1]. Percentages are
// divided by 100, ranges collapse to their midpoint, and unparseable or
// "unknown" values become 0 so a vague model never inflates certainty.
func parseConfidence(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "", "unknown", "n/a", "na":
		return 0
	}

	if strings.HasSuffix(s, "%") {
		num, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return 0
		}
		return clamp01(num / 100)
	}

	if a, b, ok := strings.Cut(s, "-"); ok {
		lo, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
		hi, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
		if errA != nil || errB != nil {
			return 0
		}
		return clamp01((lo + hi) / 2)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
