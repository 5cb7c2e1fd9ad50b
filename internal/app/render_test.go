package app_test

import (
	"database/sql"
	"strings"
	"testing"

	"student_outreach_engine/internal/app"
	"student_outreach_engine/internal/domain/recipient"
)

func testRecipient() *recipient.Recipient {
	return &recipient.Recipient{
		ID:             42,
		Email:          "taro@example.com",
		Name:           "Taro",
		SchoolName:     sql.NullString{String: "Example High", Valid: true},
		GraduationYear: 2026,
	}
}

func TestUnsubscribeTokenDeterministic(t *testing.T) {
	a := app.UnsubscribeToken("secret", 42)
	b := app.UnsubscribeToken("secret", 42)
	if a != b {
		t.Errorf("token is not deterministic: %q vs %q", a, b)
	}
	if len(a) != 32 {
		t.Errorf("token length = %d, want 32", len(a))
	}
	if app.UnsubscribeToken("secret", 43) == a {
		t.Error("different recipients must get different tokens")
	}
	if app.UnsubscribeToken("other", 42) == a {
		t.Error("different secrets must get different tokens")
	}
}

func TestRenderSubjectSubstitution(t *testing.T) {
	r := app.NewRenderer("https://outreach.example.com", "secret", "")
	got := r.RenderSubject("Hi {{ recipient_name }}, class of {{graduation_year}}!", testRecipient())
	want := "Hi Taro, class of 2026!"
	if got != want {
		t.Errorf("RenderSubject = %q, want %q", got, want)
	}
}

func TestRenderSubjectLeavesUnknownPlaceholders(t *testing.T) {
	r := app.NewRenderer("https://outreach.example.com", "secret", "")
	got := r.RenderSubject("{{ recipient_name }} {{ mystery }}", testRecipient())
	if !strings.Contains(got, "{{ mystery }}") {
		t.Errorf("unknown placeholder should pass through, got %q", got)
	}
}

func TestRenderBodyInjectsFooterBeforeBodyClose(t *testing.T) {
	r := app.NewRenderer("https://outreach.example.com", "secret", "")
	rec := testRecipient()
	got := r.RenderBody("<html><body><p>Hello {{ recipient_name }} from {{ recipient_school }}</p></body></html>", rec)

	if !strings.Contains(got, "Hello Taro from Example High") {
		t.Errorf("variables not substituted: %q", got)
	}
	wantURL := "https://outreach.example.com/unsubscribe/42?token=" + app.UnsubscribeToken("secret", 42)
	if !strings.Contains(got, wantURL) {
		t.Errorf("footer missing unsubscribe link %q in %q", wantURL, got)
	}
	footerIdx := strings.Index(got, "unsubscribe here")
	closeIdx := strings.Index(got, "</body>")
	if footerIdx < 0 || closeIdx < 0 || footerIdx > closeIdx {
		t.Errorf("footer must be injected before </body>: %q", got)
	}
}

func TestRenderBodyAppendsFooterWithoutBodyTag(t *testing.T) {
	r := app.NewRenderer("https://outreach.example.com", "secret", "")
	got := r.RenderBody("<p>Plain fragment</p>", testRecipient())
	if !strings.HasPrefix(got, "<p>Plain fragment</p>") {
		t.Errorf("original fragment should come first: %q", got)
	}
	if !strings.Contains(got, "unsubscribe here") {
		t.Errorf("footer should be appended when no body tag exists: %q", got)
	}
}

func TestRenderBodySkipsFooterWhenTemplatePlacesLink(t *testing.T) {
	r := app.NewRenderer("https://outreach.example.com", "secret", "")
	got := r.RenderBody(`<p><a href="{{ unsubscribe_url }}">opt out</a></p>`, testRecipient())
	if strings.Contains(got, "unsubscribe here") {
		t.Errorf("footer must not be injected when the template places the link: %q", got)
	}
	if !strings.Contains(got, "/unsubscribe/42?token=") {
		t.Errorf("placeholder should still be substituted: %q", got)
	}
}

func TestRenderBodySkipsFooterWithoutBaseURL(t *testing.T) {
	r := app.NewRenderer("", "secret", "")
	got := r.RenderBody("<body><p>hi</p></body>", testRecipient())
	if strings.Contains(got, "unsubscribe here") {
		t.Errorf("footer must not be injected when base URL is unset: %q", got)
	}
}
