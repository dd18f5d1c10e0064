package models

import "time"

// Label is the final classification of a page visit.
type Label string

const (
	LabelSafe       Label = "safe"
	LabelSuspicious Label = "suspicious"
	LabelDangerous  Label = "dangerous"
)

// Source identifies which pipeline layer produced a verdict.
type Source string

const (
	SourceWhitelist     Source = "whitelist"
	SourceBlacklist     Source = "blacklist"
	SourcePersonalCache Source = "personal_cache"
	SourceLocalAI       Source = "local_ai"
	SourceRemoteAI      Source = "remote_ai"
	SourceVerdictCache  Source = "verdict_cache"
)

// Reason codes carried in verdicts. These are part of the wire contract
// consumed by the extension and must stay stable.
const (
	ReasonGlobalWhitelist     = "global_whitelist"
	ReasonBlacklist           = "blacklist"
	ReasonPersonalWhitelist   = "personal_whitelist"
	ReasonAnalysisResult      = "analysis_result"
	ReasonAnalysisUnavailable = "analysis_unavailable"
	ReasonCachedAnalysis      = "cached_analysis"
)

// Reason is one explainable factor behind a verdict.
type Reason struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Detail string `json:"detail"`
}

// Verdict is the immutable result of a pipeline evaluation.
type Verdict struct {
	Label      Label    `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Reasons    []Reason `json:"reasons"`
	Source     Source   `json:"source"`
	// Brand is the brand the analyzer identified on the page, if any.
	Brand string `json:"brand,omitempty"`
}

// SuggestedAction is a recommended next step for the user.
type SuggestedAction struct {
	Action      string `json:"action"` // "leave", "report", "continue", "block"
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// SuggestedActions returns the recommended actions for a verdict, mirroring
// the guidance the extension shows per outcome.
func SuggestedActions(v Verdict) []SuggestedAction {
	switch v.Label {
	case LabelDangerous:
		return []SuggestedAction{
			{Action: "leave", Label: "Leave Site", Description: "Close this page immediately to protect your information"},
			{Action: "report", Label: "Report Phishing", Description: "Help others by reporting this suspicious site"},
		}
	case LabelSuspicious:
		return []SuggestedAction{
			{Action: "leave", Label: "Leave Site (Recommended)", Description: "This site shows suspicious characteristics"},
			{Action: "continue", Label: "Continue Anyway", Description: "Proceed with caution if you trust this site"},
			{Action: "report", Label: "Report Issue", Description: "Report if you believe this is a false positive"},
		}
	default:
		actions := []SuggestedAction{
			{Action: "continue", Label: "Continue", Description: "This site appears to be legitimate"},
		}
		if v.Source != SourcePersonalCache {
			actions = append(actions, SuggestedAction{
				Action: "report", Label: "Report False Positive",
				Description: "Report if you believe this assessment is incorrect",
			})
		}
		return actions
	}
}

// VerdictEvent is one recorded evaluation, kept for stats and audit.
type VerdictEvent struct {
	ID               int64     `json:"id"`
	URL              string    `json:"url"`
	Domain           string    `json:"domain"`
	Verdict          Label     `json:"verdict"`
	Confidence       float64   `json:"confidence"`
	Source           Source    `json:"source"`
	ClientID         string    `json:"client_id,omitempty"`
	ProcessingTimeMs float64   `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}
