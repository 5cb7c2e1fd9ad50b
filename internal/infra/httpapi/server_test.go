package httpapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"student_outreach_engine/internal/app"
	"student_outreach_engine/internal/domain/audit"
	"student_outreach_engine/internal/domain/recipient"
	"student_outreach_engine/internal/infra/httpapi"
)

type stubRecipientRepo struct {
	recipients   map[int64]*recipient.Recipient
	unsubscribed map[int64]bool
}

func (s *stubRecipientRepo) GetByID(_ context.Context, id int64) (*recipient.Recipient, error) {
	r, ok := s.recipients[id]
	if !ok {
		return nil, recipient.ErrNotFound
	}
	return r, nil
}

func (s *stubRecipientRepo) ListAll(_ context.Context) ([]*recipient.Recipient, error) {
	return nil, nil
}

func (s *stubRecipientRepo) MarkUnsubscribed(_ context.Context, id int64) error {
	if _, ok := s.recipients[id]; !ok {
		return recipient.ErrNotFound
	}
	s.unsubscribed[id] = true
	return nil
}

type stubAuditRepo struct{ entries []*audit.Entry }

func (s *stubAuditRepo) Create(_ context.Context, entry *audit.Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func newUnsubscribeRouter(t *testing.T, repo *stubRecipientRepo) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := app.NewUnsubscribeService(repo, &stubAuditRepo{}, "secret", log)
	return httpapi.NewServer(nil, nil, nil, svc, log).Router()
}

func TestUnsubscribeEndpoint(t *testing.T) {
	repo := &stubRecipientRepo{
		recipients:   map[int64]*recipient.Recipient{42: {ID: 42, Email: "taro@example.com"}},
		unsubscribed: map[int64]bool{},
	}
	router := newUnsubscribeRouter(t, repo)

	get := func(target string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
		return rr
	}

	token := app.UnsubscribeToken("secret", 42)

	if rr := get("/unsubscribe/42?token=" + token); rr.Code != http.StatusOK {
		t.Errorf("valid link: status = %d, want 200 (body %s)", rr.Code, rr.Body)
	}
	if !repo.unsubscribed[42] {
		t.Error("recipient 42 was not marked unsubscribed")
	}

	if rr := get("/unsubscribe/42?token=forged"); rr.Code != http.StatusForbidden {
		t.Errorf("forged token: status = %d, want 403", rr.Code)
	}
	if rr := get("/unsubscribe/999?token=" + app.UnsubscribeToken("secret", 999)); rr.Code != http.StatusNotFound {
		t.Errorf("unknown recipient: status = %d, want 404", rr.Code)
	}
	if rr := get("/unsubscribe/not-a-number?token=x"); rr.Code != http.StatusBadRequest {
		t.Errorf("malformed id: status = %d, want 400", rr.Code)
	}
}
