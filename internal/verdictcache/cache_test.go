package verdictcache

import (
	"testing"
	"time"

	"cerberus/internal/models"
)

func sampleVerdict() models.Verdict {
	return models.Verdict{
		Label:      models.LabelDangerous,
		Confidence: 0.92,
		Source:     models.SourceRemoteAI,
		Brand:      "paypal",
		Reasons: []models.Reason{{
			Code:   models.ReasonAnalysisResult,
			Label:  "Brand Mismatch",
			Detail: "Domain does not belong to the identified brand.",
		}},
	}
}

func TestCachePutGet(t *testing.T) {
	c := New(nil, time.Minute, nil)
	defer c.Close()

	if _, ok := c.Get("paypa1.com"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Put("paypa1.com", sampleVerdict())

	got, ok := c.Get("paypa1.com")
	if !ok {
		t.Fatal("expected hit after Put")
	}
	if got.Source != models.SourceVerdictCache {
		t.Errorf("Source = %s, want %s", got.Source, models.SourceVerdictCache)
	}
	if got.Label != models.LabelDangerous || got.Confidence != 0.92 {
		t.Errorf("verdict not preserved: %+v", got)
	}
	if len(got.Reasons) != 2 || got.Reasons[0].Code != models.ReasonCachedAnalysis {
		t.Errorf("Reasons = %+v, want cached_analysis prepended", got.Reasons)
	}
	if got.Reasons[1].Code != models.ReasonAnalysisResult {
		t.Errorf("original reason lost: %+v", got.Reasons)
	}
}

func TestCacheExpiry(t *testing.T) {
	c := New(nil, 10*time.Millisecond, nil)
	defer c.Close()

	c.Put("example.com", sampleVerdict())
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("example.com"); ok {
		t.Error("expected miss after TTL")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New(nil, time.Minute, nil)
	defer c.Close()

	c.Put("example.com", sampleVerdict())
	c.Invalidate("example.com")

	if _, ok := c.Get("example.com"); ok {
		t.Error("expected miss after Invalidate")
	}
}

func TestCacheDomainsIsolated(t *testing.T) {
	c := New(nil, time.Minute, nil)
	defer c.Close()

	c.Put("a.example", sampleVerdict())
	if _, ok := c.Get("b.example"); ok {
		t.Error("verdict leaked across domains")
	}
}
