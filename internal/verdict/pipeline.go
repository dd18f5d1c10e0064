// Package verdict runs the layered evaluation that turns a page visit into
// a verdict: global whitelist, blacklist, the user's personal cache, the
// shared verdict cache, and finally the analysis race.
package verdict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cerberus/internal/analysis"
	"cerberus/internal/domain"
	"cerberus/internal/lists"
	"cerberus/internal/metrics"
	"cerberus/internal/models"
	"cerberus/internal/personal"
	"cerberus/internal/verdictcache"
)

// ErrEvidenceRequired means the cheap layers could not decide and the
// caller must re-submit with page evidence (screenshot and HTML).
var ErrEvidenceRequired = errors.New("page evidence required for analysis")

// state tracks the pipeline's progress through the layers.
type state int

const (
	checkingWhitelist state = iota
	checkingBlacklist
	checkingPersonalCache
	checkingVerdictCache
	awaitingAnalysis
	done
)

func (s state) String() string {
	switch s {
	case checkingWhitelist:
		return "checking_whitelist"
	case checkingBlacklist:
		return "checking_blacklist"
	case checkingPersonalCache:
		return "checking_personal_cache"
	case checkingVerdictCache:
		return "checking_verdict_cache"
	case awaitingAnalysis:
		return "awaiting_analysis"
	default:
		return "done"
	}
}

// Racer runs the analysis provider race. Satisfied by analysis.Coordinator.
type Racer interface {
	Race(ctx context.Context, evidence analysis.PageEvidence) models.Verdict
}

// Pipeline evaluates URLs layer by layer, cheapest first. A layer either
// decides the verdict or passes to the next; lookup errors inside a layer
// degrade to a pass, never to a failed evaluation.
type Pipeline struct {
	whitelist *lists.Store
	blacklist *lists.Store
	personal  *personal.Cache
	cache     *verdictcache.Cache
	racer     Racer
	logger    *slog.Logger
}

// New wires the pipeline. cache and racer may be nil in reduced
// deployments; the corresponding layers are then skipped (cache) or report
// analysis unavailable (racer).
func New(whitelist, blacklist *lists.Store, personalCache *personal.Cache, cache *verdictcache.Cache, racer Racer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		whitelist: whitelist,
		blacklist: blacklist,
		personal:  personalCache,
		cache:     cache,
		racer:     racer,
		logger:    logger,
	}
}

// Outcome is the result of one evaluation.
type Outcome struct {
	Verdict models.Verdict
	Domain  domain.Domain
}

// Evaluate walks the layers for one URL. evidence may be nil: if no cheap
// layer decides, Evaluate returns ErrEvidenceRequired instead of racing
// the analyzers.
func (p *Pipeline) Evaluate(ctx context.Context, rawURL string, evidence *analysis.PageEvidence) (Outcome, error) {
	d, err := domain.Normalize(rawURL)
	if err != nil {
		return Outcome{}, fmt.Errorf("normalize %q: %w", rawURL, err)
	}

	for st := checkingWhitelist; ; {
		start := time.Now()
		v, decided, next := p.step(ctx, st, d, evidence)
		metrics.ObserveLayer(st.String(), time.Since(start))

		if decided {
			p.logger.Debug("verdict decided", "domain", d, "layer", st.String(),
				"verdict", v.Label, "confidence", v.Confidence)
			metrics.RecordVerdict(string(v.Label), string(v.Source))
			return Outcome{Verdict: v, Domain: d}, nil
		}
		if next == awaitingAnalysis && evidence == nil {
			return Outcome{Domain: d}, ErrEvidenceRequired
		}
		if next == done {
			// Unreachable: awaitingAnalysis always decides.
			return Outcome{Domain: d}, ErrEvidenceRequired
		}
		st = next
	}
}

// step runs one layer and reports whether it decided.
func (p *Pipeline) step(ctx context.Context, st state, d domain.Domain, evidence *analysis.PageEvidence) (models.Verdict, bool, state) {
	switch st {
	case checkingWhitelist:
		if p.whitelist != nil && p.whitelist.Contains(d, domain.ParentDomain) {
			return models.Verdict{
				Label:      models.LabelSafe,
				Confidence: 1.0,
				Source:     models.SourceWhitelist,
				Reasons: []models.Reason{{
					Code:   models.ReasonGlobalWhitelist,
					Label:  "Known Safe Site",
					Detail: fmt.Sprintf("%s is on the global list of widely used legitimate sites.", d),
				}},
			}, true, done
		}
		return models.Verdict{}, false, checkingBlacklist

	case checkingBlacklist:
		if p.blacklist != nil && p.blacklist.Contains(d, domain.ParentDomain) {
			return models.Verdict{
				Label:      models.LabelDangerous,
				Confidence: 1.0,
				Source:     models.SourceBlacklist,
				Reasons: []models.Reason{{
					Code:   models.ReasonBlacklist,
					Label:  "Known Phishing Site",
					Detail: fmt.Sprintf("%s appears on an active phishing blocklist.", d),
				}},
			}, true, done
		}
		return models.Verdict{}, false, checkingPersonalCache

	case checkingPersonalCache:
		if p.personal != nil {
			// Every pass through this layer is a visit, trusted or not.
			p.personal.RecordVisit(d)
			if p.personal.IsTrusted(d) {
				return models.Verdict{
					Label:      models.LabelSafe,
					Confidence: 1.0,
					Source:     models.SourcePersonalCache,
					Reasons: []models.Reason{{
						Code:   models.ReasonPersonalWhitelist,
						Label:  "Trusted Site",
						Detail: fmt.Sprintf("You visit %s regularly and it is in your trusted sites.", d),
					}},
				}, true, done
			}
		}
		return models.Verdict{}, false, checkingVerdictCache

	case checkingVerdictCache:
		if p.cache != nil {
			if v, ok := p.cache.Get(d); ok {
				return v, true, done
			}
		}
		return models.Verdict{}, false, awaitingAnalysis

	case awaitingAnalysis:
		v := p.analyze(ctx, d, evidence)
		return v, true, done
	}
	return models.Verdict{}, false, done
}

func (p *Pipeline) analyze(ctx context.Context, d domain.Domain, evidence *analysis.PageEvidence) models.Verdict {
	if p.racer == nil {
		return models.Verdict{
			Label:      models.LabelSuspicious,
			Confidence: 0.3,
			Source:     models.SourceLocalAI,
			Reasons: []models.Reason{{
				Code:   models.ReasonAnalysisUnavailable,
				Label:  "Analysis Unavailable",
				Detail: "No analysis provider is configured; treat this page with caution.",
			}},
		}
	}

	ev := evidence.Clone()
	if ev.Domain == "" {
		ev.Domain = string(d)
	}
	v := p.racer.Race(ctx, ev)

	// Only conclusive analysis results are worth sharing; degraded
	// verdicts would poison the cache for other users.
	if p.cache != nil && hasReason(v, models.ReasonAnalysisResult) {
		p.cache.Put(d, v)
	}
	return v
}

func hasReason(v models.Verdict, code string) bool {
	for _, r := range v.Reasons {
		if r.Code == code {
			return true
		}
	}
	return false
}

// ListMembership reports raw whitelist/blacklist membership for a domain,
// used by the fast check endpoint's response flags.
func (p *Pipeline) ListMembership(d domain.Domain) (inWhitelist, inBlacklist bool) {
	if p.whitelist != nil {
		inWhitelist = p.whitelist.Contains(d, domain.ParentDomain)
	}
	if p.blacklist != nil {
		inBlacklist = p.blacklist.Contains(d, domain.ParentDomain)
	}
	return inWhitelist, inBlacklist
}

// Ready reports whether both static lists have completed an initial load.
func (p *Pipeline) Ready() bool {
	return p.whitelist != nil && p.whitelist.Initialized() &&
		p.blacklist != nil && p.blacklist.Initialized()
}

// InvalidateCached drops any shared cached verdict for a raw URL, used when
// user feedback contradicts a cached analysis.
func (p *Pipeline) InvalidateCached(rawURL string) {
	if p.cache == nil {
		return
	}
	if d, err := domain.Normalize(rawURL); err == nil {
		p.cache.Invalidate(d)
	}
}
