package analysis

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cerberus/internal/domain"
)

// PageSignals are phishing indicators extracted from the page HTML. They
// feed the local model's prompt and back the heuristic fallback when the
// model is unreachable.
type PageSignals struct {
	Title              string
	PasswordInputs     int
	Forms              int
	ForeignActionHosts []string
	HiddenIframes      int
}

// ExtractSignals parses the evidence HTML. An empty document yields empty
// signals, not an error: the screenshot is the primary evidence.
func ExtractSignals(html string, host domain.Domain) PageSignals {
	var sig PageSignals
	if strings.TrimSpace(html) == "" {
		return sig
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return sig
	}

	sig.Title = strings.TrimSpace(doc.Find("title").First().Text())
	sig.PasswordInputs = doc.Find(`input[type="password"]`).Length()

	doc.Find("form").Each(func(_ int, f *goquery.Selection) {
		sig.Forms++
		action, ok := f.Attr("action")
		if !ok {
			return
		}
		target, err := domain.Normalize(action)
		if err != nil {
			return
		}
		if !strings.Contains(action, "://") {
			// Relative action, posts back to the page host.
			return
		}
		if domain.Registrable(target) != domain.Registrable(host) {
			sig.ForeignActionHosts = append(sig.ForeignActionHosts, string(target))
		}
	})

	doc.Find("iframe").Each(func(_ int, fr *goquery.Selection) {
		style, _ := fr.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			sig.HiddenIframes++
		}
	})

	return sig
}

// CredentialExfiltration reports whether the page carries a password form
// posting to a host outside the page's registrable domain, the strongest
// page-local phishing indicator.
func (s PageSignals) CredentialExfiltration() bool {
	return s.PasswordInputs > 0 && len(s.ForeignActionHosts) > 0
}

// PromptContext renders the signals as prompt lines for the model.
func (s PageSignals) PromptContext() string {
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "Page title: %s\n", s.Title)
	}
	fmt.Fprintf(&b, "Forms on page: %d, password inputs: %d\n", s.Forms, s.PasswordInputs)
	if len(s.ForeignActionHosts) > 0 {
		fmt.Fprintf(&b, "Forms posting to foreign hosts: %s\n", strings.Join(s.ForeignActionHosts, ", "))
	}
	if s.HiddenIframes > 0 {
		fmt.Fprintf(&b, "Hidden iframes: %d\n", s.HiddenIframes)
	}
	return b.String()
}
