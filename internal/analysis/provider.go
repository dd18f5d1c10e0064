// Package analysis implements the AI analysis layer: two providers (a fast
// local model and a slower, more accurate remote model) behind one
// interface, and the coordinator that races them.
package analysis

import (
	"context"
	"errors"
)

// Provider errors. All of them are retryable at the coordinator level and
// none is fatal to the pipeline: a failed analysis degrades the verdict,
// it never crashes the request.
var (
	ErrTimeout           = errors.New("analysis timed out")
	ErrModelUnavailable  = errors.New("model unavailable")
	ErrMalformedEvidence = errors.New("malformed evidence")
)

// PageEvidence is everything a provider may inspect about a page visit.
type PageEvidence struct {
	Screenshot []byte
	HTML       string
	Domain     string
	URL        string
}

// Clone returns a deep copy so concurrent providers never share buffers.
func (e PageEvidence) Clone() PageEvidence {
	c := e
	if e.Screenshot != nil {
		c.Screenshot = make([]byte, len(e.Screenshot))
		copy(c.Screenshot, e.Screenshot)
	}
	return c
}

// BrandMatch is a provider's judgement: which brand the page presents as,
// and whether the domain legitimately belongs to that brand.
type BrandMatch struct {
	IdentifiedBrand string
	MatchesDomain   bool
	Confidence      float64
	Explanation     string
}

// Provider analyzes page evidence. Implementations must honor the context
// deadline and must be side-effect free: a losing race result is discarded
// and must not have mutated any shared state.
type Provider interface {
	Name() string
	Analyze(ctx context.Context, evidence PageEvidence) (BrandMatch, error)
}
