package app

import (
	"context"
	"crypto/hmac"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"student_outreach_engine/internal/domain/audit"
	"student_outreach_engine/internal/domain/recipient"
)

// ErrBadUnsubscribeToken is returned for a missing or forged token.
var ErrBadUnsubscribeToken = errors.New("invalid unsubscribe token")

// UnsubscribeService verifies signed opt-out links and flips the recipient's
// unsubscribed flag. Tokens are the same HMAC the renderer embeds in mail
// footers, so a link stays valid for the life of the recipient.
type UnsubscribeService struct {
	recipients recipient.Repository
	audits     audit.Repository
	secret     string
	log        *logrus.Logger
}

func NewUnsubscribeService(rr recipient.Repository, ar audit.Repository, secret string, log *logrus.Logger) *UnsubscribeService {
	return &UnsubscribeService{recipients: rr, audits: ar, secret: secret, log: log}
}

// Process marks the recipient unsubscribed after verifying the token.
// Idempotent: unsubscribing twice succeeds.
func (s *UnsubscribeService) Process(ctx context.Context, recipientID int64, token string) error {
	expected := UnsubscribeToken(s.secret, recipientID)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return ErrBadUnsubscribeToken
	}

	if _, err := s.recipients.GetByID(ctx, recipientID); err != nil {
		return err
	}
	if err := s.recipients.MarkUnsubscribed(ctx, recipientID); err != nil {
		return fmt.Errorf("marking recipient %d unsubscribed: %w", recipientID, err)
	}

	entry := audit.System(ActionUnsubscribed, "recipient", recipientID, nil)
	if err := s.audits.Create(ctx, entry); err != nil {
		s.log.WithError(err).Error("failed to audit unsubscribe")
	}
	s.log.WithField("recipient_id", recipientID).Info("recipient unsubscribed")
	return nil
}
