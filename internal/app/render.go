package app

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"student_outreach_engine/internal/domain/recipient"
)

// Renderer substitutes recognized variables into template subjects and
// bodies and injects the unsubscribe footer. Approved templates use plain
// {{ variable }} placeholders; unknown placeholders pass through untouched.
type Renderer struct {
	baseURL           string
	unsubscribeSecret string
	chatFriendAddURL  string
}

func NewRenderer(baseURL, unsubscribeSecret, chatFriendAddURL string) *Renderer {
	return &Renderer{
		baseURL:           strings.TrimRight(baseURL, "/"),
		unsubscribeSecret: unsubscribeSecret,
		chatFriendAddURL:  chatFriendAddURL,
	}
}

// UnsubscribeToken derives the signed token embedded in unsubscribe links.
// Deterministic per recipient so links stay valid across sends.
func UnsubscribeToken(secret string, recipientID int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "unsubscribe:%d", recipientID)
	return hex.EncodeToString(mac.Sum(nil))[:32]
}

// UnsubscribeURL builds the opt-out link for a recipient.
func (r *Renderer) UnsubscribeURL(recipientID int64) string {
	token := UnsubscribeToken(r.unsubscribeSecret, recipientID)
	return fmt.Sprintf("%s/unsubscribe/%d?token=%s", r.baseURL, recipientID, token)
}

// Variables returns the recognized substitution set for a recipient.
func (r *Renderer) Variables(rec *recipient.Recipient) map[string]string {
	school := ""
	if rec.SchoolName.Valid {
		school = rec.SchoolName.String
	}
	return map[string]string{
		"recipient_name":      rec.Name,
		"recipient_email":     rec.Email,
		"recipient_school":    school,
		"graduation_year":     strconv.Itoa(rec.GraduationYear),
		"unsubscribe_url":     r.UnsubscribeURL(rec.ID),
		"chat_friend_add_url": r.chatFriendAddURL,
	}
}

// substitute replaces {{ key }} and {{key}} forms for every variable.
func substitute(s string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*4)
	for k, v := range vars {
		pairs = append(pairs, "{{ "+k+" }}", v, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// RenderSubject renders a template subject line for a recipient.
func (r *Renderer) RenderSubject(subject string, rec *recipient.Recipient) string {
	return substitute(subject, r.Variables(rec))
}

// RenderBody renders an HTML body for a recipient. When the template does
// not place the unsubscribe link itself, a footer carrying it is injected
// before </body>, or appended when no body tag exists.
func (r *Renderer) RenderBody(bodyHTML string, rec *recipient.Recipient) string {
	vars := r.Variables(rec)
	rendered := substitute(bodyHTML, vars)

	if strings.Contains(bodyHTML, "unsubscribe_url") || r.baseURL == "" {
		return rendered
	}

	footer := fmt.Sprintf(
		`<hr><p style="font-size:12px;color:#666;text-align:center;">To stop receiving these messages, <a href="%s">unsubscribe here</a>.</p>`,
		vars["unsubscribe_url"],
	)
	lower := strings.ToLower(rendered)
	if idx := strings.LastIndex(lower, "</body>"); idx >= 0 {
		return rendered[:idx] + footer + rendered[idx:]
	}
	return rendered + footer
}
