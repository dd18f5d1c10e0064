package analysis

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"cerberus/internal/domain"
)

// RemoteAnalyzer talks to a hosted vision model (Gemini-style
// generateContent API). It is slower and more accurate than the local
// provider, and its quota is protected by an outbound rate limiter.
type RemoteAnalyzer struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewRemoteAnalyzer creates a remote provider. rps/burst bound the calls
// per second made against the hosted API.
func NewRemoteAnalyzer(endpoint, model, apiKey string, rps float64, burst int, logger *slog.Logger) *RemoteAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RemoteAnalyzer{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		client:   &http.Client{},
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		logger:   logger,
	}
}

func (a *RemoteAnalyzer) Name() string { return "remote" }

type generateInline struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generatePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *generateInline `json:"inline_data,omitempty"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

// Analyze runs the two-step judgement against the hosted model: identify
// the brand from the screenshot, then check the domain against it.
func (a *RemoteAnalyzer) Analyze(ctx context.Context, evidence PageEvidence) (BrandMatch, error) {
	if len(evidence.Screenshot) == 0 {
		return BrandMatch{}, fmt.Errorf("%w: remote analysis requires a screenshot", ErrMalformedEvidence)
	}

	if err := a.limiter.Wait(ctx); err != nil {
		return BrandMatch{}, fmt.Errorf("%w: rate limit wait: %v", ErrTimeout, err)
	}

	start := time.Now()
	image := &generateInline{
		MimeType: "image/png",
		Data:     base64.StdEncoding.EncodeToString(evidence.Screenshot),
	}

	brand, err := a.generate(ctx, []generatePart{
		{Text: brandIdentificationPrompt},
		{InlineData: image},
	})
	if err != nil {
		return BrandMatch{}, err
	}
	brand = strings.ToLower(strings.TrimSpace(brand))

	signals := ExtractSignals(evidence.HTML, domain.Domain(evidence.Domain))
	reply, err := a.generate(ctx, []generatePart{
		{Text: domainMatchingPrompt(brand, evidence.Domain, evidence.URL, signals.PromptContext())},
	})
	if err != nil {
		return BrandMatch{}, err
	}

	match, err := ParseModelReply(reply)
	if err != nil {
		return BrandMatch{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	match.IdentifiedBrand = brand

	a.logger.Debug("remote analysis complete",
		"domain", evidence.Domain, "brand", brand, "matches", match.MatchesDomain,
		"confidence", match.Confidence, "elapsed", time.Since(start))
	return match, nil
}

// generate performs one generateContent call and returns the reply text.
func (a *RemoteAnalyzer) generate(ctx context.Context, parts []generatePart) (string, error) {
	payload, err := json.Marshal(generateRequest{Contents: []generateContent{{Parts: parts}}})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvidence, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.endpoint, a.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("x-goog-api-key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: remote model: %v", ErrTimeout, ctx.Err())
		}
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrModelUnavailable, resp.StatusCode, body)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrModelUnavailable, err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty candidates", ErrModelUnavailable)
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}
