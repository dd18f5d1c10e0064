package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cerberus/internal/metrics"
	"cerberus/internal/models"
)

// RaceConfig bounds the provider race.
type RaceConfig struct {
	LocalTimeout  time.Duration
	RemoteTimeout time.Duration
	// ConfidenceThreshold is the minimum local confidence accepted without
	// waiting for the remote provider.
	ConfidenceThreshold float64
}

// DefaultRaceConfig mirrors the production latency budgets.
func DefaultRaceConfig() RaceConfig {
	return RaceConfig{
		LocalTimeout:        1500 * time.Millisecond,
		RemoteTimeout:       5 * time.Second,
		ConfidenceThreshold: 0.8,
	}
}

// Coordinator races the local and remote providers and shapes the winner
// into a verdict.
type Coordinator struct {
	local  Provider
	remote Provider
	cfg    RaceConfig
	logger *slog.Logger
}

// NewCoordinator creates a race coordinator over the two providers.
func NewCoordinator(local, remote Provider, cfg RaceConfig, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LocalTimeout <= 0 {
		cfg.LocalTimeout = DefaultRaceConfig().LocalTimeout
	}
	if cfg.RemoteTimeout <= 0 {
		cfg.RemoteTimeout = DefaultRaceConfig().RemoteTimeout
	}
	return &Coordinator{local: local, remote: remote, cfg: cfg, logger: logger}
}

type raceResult struct {
	match  BrandMatch
	source models.Source
	err    error
}

// Race runs both providers concurrently under independent timeouts and
// returns the best available verdict.
//
// Decision rules:
//   - a remote success wins outright (remote sees richer evidence);
//   - a local success wins if its confidence clears the threshold and the
//     remote result is not in yet;
//   - a low-confidence local success is held as a fallback while the
//     remote budget runs down;
//   - if everything fails or times out, the verdict is Suspicious at 0.3
//     with reason analysis_unavailable.
//
// The losing provider is cancelled via its context; late results are
// discarded.
func (c *Coordinator) Race(ctx context.Context, evidence PageEvidence) models.Verdict {
	localCtx, cancelLocal := context.WithTimeout(ctx, c.cfg.LocalTimeout)
	defer cancelLocal()
	remoteCtx, cancelRemote := context.WithTimeout(ctx, c.cfg.RemoteTimeout)
	defer cancelRemote()

	localCh := make(chan raceResult, 1)
	remoteCh := make(chan raceResult, 1)

	go c.run(localCtx, c.local, evidence.Clone(), models.SourceLocalAI, localCh)
	go c.run(remoteCtx, c.remote, evidence.Clone(), models.SourceRemoteAI, remoteCh)

	var held *raceResult
	localDone := localCh
	remoteDone := remoteCh
	localExpired := localCtx.Done()
	remoteExpired := remoteCtx.Done()

	for localDone != nil || remoteDone != nil {
		select {
		case r := <-localDone:
			localDone, localExpired = nil, nil
			if r.err != nil {
				c.logger.Warn("local analysis failed", "domain", evidence.Domain, "error", r.err)
				continue
			}
			if r.match.Confidence >= c.cfg.ConfidenceThreshold {
				cancelRemote()
				metrics.RecordRace("local")
				return c.verdictFrom(r)
			}
			// Below threshold: hold and give the remote provider its
			// remaining budget to improve on it.
			held = &r

		case r := <-remoteDone:
			remoteDone, remoteExpired = nil, nil
			if r.err != nil {
				c.logger.Warn("remote analysis failed", "domain", evidence.Domain, "error", r.err)
				continue
			}
			cancelLocal()
			metrics.RecordRace("remote")
			return c.verdictFrom(r)

		case <-localExpired:
			localDone, localExpired = nil, nil
			c.logger.Warn("local analysis timed out", "domain", evidence.Domain, "budget", c.cfg.LocalTimeout)

		case <-remoteExpired:
			remoteDone, remoteExpired = nil, nil
			c.logger.Warn("remote analysis timed out", "domain", evidence.Domain, "budget", c.cfg.RemoteTimeout)
		}
	}

	if held != nil {
		metrics.RecordRace("local_fallback")
		return c.verdictFrom(*held)
	}

	metrics.RecordRace("unavailable")
	return models.Verdict{
		Label:      models.LabelSuspicious,
		Confidence: 0.3,
		Source:     models.SourceLocalAI,
		Reasons: []models.Reason{{
			Code:   models.ReasonAnalysisUnavailable,
			Label:  "Analysis Unavailable",
			Detail: "No analysis provider produced a result in time; treat this page with caution.",
		}},
	}
}

// run invokes one provider and delivers its result. The buffered channel
// means a late loser never blocks; its result is simply never read.
func (c *Coordinator) run(ctx context.Context, p Provider, evidence PageEvidence, source models.Source, out chan<- raceResult) {
	match, err := p.Analyze(ctx, evidence)
	out <- raceResult{match: match, source: source, err: err}
}

func (c *Coordinator) verdictFrom(r raceResult) models.Verdict {
	label := models.LabelDangerous
	reasonLabel := "Brand Mismatch"
	if r.match.MatchesDomain {
		label = models.LabelSafe
		reasonLabel = "Brand Analysis"
	}

	detail := r.match.Explanation
	if detail == "" {
		detail = fmt.Sprintf("brand match: %v", r.match.MatchesDomain)
	}

	return models.Verdict{
		Label:      label,
		Confidence: r.match.Confidence,
		Source:     r.source,
		Brand:      r.match.IdentifiedBrand,
		Reasons: []models.Reason{{
			Code:   models.ReasonAnalysisResult,
			Label:  reasonLabel,
			Detail: detail,
		}},
	}
}
