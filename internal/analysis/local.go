package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cerberus/internal/domain"
)

// LocalAnalyzer talks to an on-device model server (Ollama-compatible
// generate API). It only sees page-local evidence: the screenshot plus
// signals extracted from the HTML.
type LocalAnalyzer struct {
	endpoint string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// NewLocalAnalyzer creates a local provider against the given Ollama-style
// endpoint (e.g. http://localhost:11434).
func NewLocalAnalyzer(endpoint, model string, logger *slog.Logger) *LocalAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalAnalyzer{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		// Timeouts come from the per-call context owned by the coordinator.
		client: &http.Client{},
		logger: logger,
	}
}

func (a *LocalAnalyzer) Name() string { return "local" }

type ollamaRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// Analyze runs the two-step judgement: identify the brand from the
// screenshot, then check whether the domain belongs to it. If the model
// server is unreachable but the HTML carries a decisive credential
// exfiltration signal, a heuristic judgement is returned instead of an
// error: the local provider's job is page-local evidence, with or without
// a model behind it.
func (a *LocalAnalyzer) Analyze(ctx context.Context, evidence PageEvidence) (BrandMatch, error) {
	if len(evidence.Screenshot) == 0 && strings.TrimSpace(evidence.HTML) == "" {
		return BrandMatch{}, fmt.Errorf("%w: no screenshot or html", ErrMalformedEvidence)
	}

	signals := ExtractSignals(evidence.HTML, domain.Domain(evidence.Domain))
	start := time.Now()

	match, err := a.invokeModel(ctx, evidence, signals)
	if err == nil {
		a.logger.Debug("local analysis complete",
			"domain", evidence.Domain, "brand", match.IdentifiedBrand,
			"matches", match.MatchesDomain, "confidence", match.Confidence,
			"elapsed", time.Since(start))
		return match, nil
	}

	if errors.Is(err, ErrModelUnavailable) && signals.CredentialExfiltration() {
		a.logger.Warn("local model unavailable, using page heuristics", "domain", evidence.Domain)
		return BrandMatch{
			MatchesDomain: false,
			Confidence:    0.5,
			Explanation: fmt.Sprintf("page collects passwords but posts them to %s",
				strings.Join(signals.ForeignActionHosts, ", ")),
		}, nil
	}
	return BrandMatch{}, err
}

func (a *LocalAnalyzer) invokeModel(ctx context.Context, evidence PageEvidence, signals PageSignals) (BrandMatch, error) {
	var images []string
	if len(evidence.Screenshot) > 0 {
		images = []string{base64.StdEncoding.EncodeToString(evidence.Screenshot)}
	}

	brand, err := a.generate(ctx, brandIdentificationPrompt, images)
	if err != nil {
		return BrandMatch{}, err
	}
	brand = strings.ToLower(strings.TrimSpace(brand))

	reply, err := a.generate(ctx, domainMatchingPrompt(brand, evidence.Domain, evidence.URL, signals.PromptContext()), nil)
	if err != nil {
		return BrandMatch{}, err
	}

	match, err := ParseModelReply(reply)
	if err != nil {
		return BrandMatch{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	match.IdentifiedBrand = brand
	return match, nil
}

// generate performs one Ollama generate call and returns the reply text.
func (a *LocalAnalyzer) generate(ctx context.Context, prompt string, images []string) (string, error) {
	payload, err := json.Marshal(ollamaRequest{
		Model:  a.model,
		Prompt: prompt,
		Images: images,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvidence, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: local model: %v", ErrTimeout, ctx.Err())
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrModelUnavailable, resp.StatusCode, body)
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrModelUnavailable, err)
	}
	return out.Response, nil
}
