package analysis

import (
	"math"
	"testing"
)

func TestParseModelReply(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantMatch   bool
		wantConf    float64
		wantExplain string
		wantErr     bool
	}{
		{
			name:        "well formed true",
			reply:       "1. BrandMatch: True\n2. Explanation: Official domain of the brand.\n3. Confidence: 0.95",
			wantMatch:   true,
			wantConf:    0.95,
			wantExplain: "Official domain of the brand.",
		},
		{
			name:        "well formed false",
			reply:       "1. BrandMatch: False\n2. Explanation: Domain imitates the brand.\n3. Confidence: 0.9",
			wantMatch:   false,
			wantConf:    0.9,
			wantExplain: "Domain imitates the brand.",
		},
		{
			name:      "angle bracket placeholders",
			reply:     "1. BrandMatch: <True>\n2. Explanation: Looks legitimate.\n3. Confidence: <0.8>",
			wantMatch: true,
			wantConf:  0.8,
		},
		{
			name:      "percent confidence",
			reply:     "1. BrandMatch: true\n2. Explanation: ok\n3. Confidence: 85%",
			wantMatch: true,
			wantConf:  0.85,
		},
		{
			name:      "range confidence uses midpoint",
			reply:     "1. BrandMatch: false\n2. Explanation: likely phishing\n3. Confidence: 0.7-0.9",
			wantMatch: false,
			wantConf:  0.8,
		},
		{
			name:      "unknown confidence maps to zero",
			reply:     "1. BrandMatch: false\n2. Explanation: cannot tell\n3. Confidence: unknown",
			wantMatch: false,
			wantConf:  0,
		},
		{
			name:      "confidence above one is clamped",
			reply:     "1. BrandMatch: true\n2. Explanation: sure\n3. Confidence: 1.4",
			wantMatch: true,
			wantConf:  1,
		},
		{
			name:      "preamble chatter tolerated",
			reply:     "Sure, here is my assessment:\n1. BrandMatch: True\n2. Explanation: matches\n3. Confidence: 0.6\nLet me know if you need more.",
			wantMatch: true,
			wantConf:  0.6,
		},
		{
			name:    "missing lines",
			reply:   "The page looks like PayPal.",
			wantErr: true,
		},
		{
			name:    "empty reply",
			reply:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseModelReply(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.MatchesDomain != tt.wantMatch {
				t.Errorf("MatchesDomain = %v, want %v", got.MatchesDomain, tt.wantMatch)
			}
			if math.Abs(got.Confidence-tt.wantConf) > 1e-9 {
				t.Errorf("Confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if tt.wantExplain != "" && got.Explanation != tt.wantExplain {
				t.Errorf("Explanation = %q, want %q", got.Explanation, tt.wantExplain)
			}
		})
	}
}
