package models

import (
	"time"

	"github.com/google/uuid"
)

// ViewportSize describes the capture viewport reported by the extension.
type ViewportSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	URL              string        `json:"url"`
	Domain           string        `json:"domain"`
	ScreenshotBase64 string        `json:"screenshot_base64"`
	HTML             string        `json:"html,omitempty"`
	ViewportSize     *ViewportSize `json:"viewport_size,omitempty"`
}

// AnalyzeResponse is the body returned by POST /api/analyze. The field set
// is a compatibility contract with the extension; do not rename.
type AnalyzeResponse struct {
	Verdict          Label             `json:"verdict"`
	Confidence       float64           `json:"confidence"`
	Reasons          []Reason          `json:"reasons"`
	Explanation      string            `json:"explanation"`
	SuggestedActions []SuggestedAction `json:"suggested_actions"`
	ProcessingTimeMs float64           `json:"processing_time_ms"`
	Timestamp        string            `json:"timestamp"`
}

// CheckURLRequest is the body of POST /api/check-url, the fast path that
// lets the extension skip screenshot capture on a definitive list hit.
type CheckURLRequest struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
}

// CheckURL statuses.
const (
	CheckStatusSafe          = "safe"
	CheckStatusDangerous     = "dangerous"
	CheckStatusNeedsAnalysis = "needs_analysis"
)

// CheckURLResponse is the body returned by POST /api/check-url.
type CheckURLResponse struct {
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	InWhitelist bool   `json:"in_whitelist"`
	InBlacklist bool   `json:"in_blacklist"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	URL            string `json:"url"`
	Verdict        Label  `json:"verdict"`
	UserFeedback   string `json:"user_feedback"`
	CorrectVerdict Label  `json:"correct_verdict,omitempty"`
}

// FeedbackReport is a stored feedback row.
type FeedbackReport struct {
	ID             uuid.UUID `json:"id"`
	URL            string    `json:"url"`
	Verdict        Label     `json:"verdict"`
	UserFeedback   string    `json:"user_feedback"`
	CorrectVerdict Label     `json:"correct_verdict,omitempty"`
	ClientID       string    `json:"client_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// TrustedRequest is the body of POST /api/trusted.
type TrustedRequest struct {
	Domain string `json:"domain"`
}

// Stats summarizes recorded evaluations for GET /api/stats.
type Stats struct {
	TotalRequests       int64            `json:"total_requests"`
	AvgProcessingTimeMs float64          `json:"average_processing_time_ms"`
	VerdictCounts       map[string]int64 `json:"verdict_counts"`
}
