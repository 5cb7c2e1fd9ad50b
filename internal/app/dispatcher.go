package app

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"student_outreach_engine/internal/domain/audit"
	"student_outreach_engine/internal/domain/campaign"
	"student_outreach_engine/internal/domain/channel"
	"student_outreach_engine/internal/domain/dispatch"
	"student_outreach_engine/internal/domain/recipient"
	"student_outreach_engine/internal/domain/template"
)

// Audit action names emitted by the dispatch pipeline.
const (
	ActionDispatchReserved   = "dispatch_reserved"
	ActionDispatchSent       = "dispatch_sent"
	ActionDispatchFailed     = "dispatch_failed"
	ActionDispatchBlocked    = "dispatch_blocked"
	ActionDispatchRedirected = "dispatch_redirected"
	ActionSchedulerTick      = "scheduler_tick"
	ActionUnsubscribed       = "recipient_unsubscribed"
)

// Environment carries the deployment-mode safety configuration. In
// non-production every destination is unconditionally replaced with the
// configured test destination for its channel before any external call; a
// channel without a test destination is blocked outright.
type Environment struct {
	Production       bool
	TestDestinations map[dispatch.Channel]string
}

// ResolveChannel picks the delivery channel and destination for a pairing.
// A chat-preferring campaign falls back to email when the recipient has no
// chat identity; a recipient with no usable destination at all is reported
// as not ok.
func ResolveChannel(c *campaign.Campaign, r *recipient.Recipient) (dispatch.Channel, string, bool) {
	if c.Preferred == campaign.PreferChat && r.HasChatIdentity() {
		return dispatch.ChannelChat, strconv.FormatInt(r.ChatID.Int64, 10), true
	}
	if r.Email != "" {
		return dispatch.ChannelEmail, r.Email, true
	}
	if r.HasChatIdentity() {
		return dispatch.ChannelChat, strconv.FormatInt(r.ChatID.Int64, 10), true
	}
	return "", "", false
}

// Dispatcher turns one due dispatch record into an external send: renders
// the message, applies environment safety, invokes the channel sender with
// a bounded timeout, and records the terminal state. One record's failure
// never aborts the tick.
type Dispatcher struct {
	recipients  recipient.Repository
	campaigns   campaign.Repository
	templates   template.Repository
	dispatches  dispatch.Repository
	audits      audit.Repository
	renderer    *Renderer
	senders     map[dispatch.Channel]channel.Sender
	env         Environment
	sendTimeout time.Duration
	log         *logrus.Logger

	// now is swappable for tests.
	now func() time.Time
}

func NewDispatcher(
	rr recipient.Repository,
	cr campaign.Repository,
	tr template.Repository,
	dr dispatch.Repository,
	ar audit.Repository,
	renderer *Renderer,
	senders map[dispatch.Channel]channel.Sender,
	env Environment,
	sendTimeout time.Duration,
	log *logrus.Logger,
) *Dispatcher {
	return &Dispatcher{
		recipients:  rr,
		campaigns:   cr,
		templates:   tr,
		dispatches:  dr,
		audits:      ar,
		renderer:    renderer,
		senders:     senders,
		env:         env,
		sendTimeout: sendTimeout,
		log:         log,
		now:         time.Now,
	}
}

// SetClock overrides the dispatcher's notion of now. Test hook.
func (d *Dispatcher) SetClock(now func() time.Time) { d.now = now }

// Dispatch processes one scheduled record to a terminal state. The returned
// error reports only bookkeeping failures (record or audit writes); send
// outcomes are captured on the record itself.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *dispatch.Record) error {
	r, err := d.recipients.GetByID(ctx, rec.RecipientID)
	if err != nil {
		return d.fail(ctx, rec, fmt.Sprintf("loading recipient %d: %v", rec.RecipientID, err))
	}
	c, err := d.campaigns.GetByID(ctx, rec.CampaignID)
	if err != nil {
		return d.fail(ctx, rec, fmt.Sprintf("loading campaign %d: %v", rec.CampaignID, err))
	}
	t, err := d.templates.GetByID(ctx, c.TemplateID)
	if err != nil {
		return d.fail(ctx, rec, fmt.Sprintf("loading template %d: %v", c.TemplateID, err))
	}

	ch, destination, ok := ResolveChannel(c, r)
	if !ok {
		return d.fail(ctx, rec, ReasonNoDestination)
	}
	rec.Channel = ch

	msg := channel.Message{
		Destination: destination,
		Subject:     d.renderer.RenderSubject(t.Subject, r),
		Body:        d.renderer.RenderBody(t.BodyHTML, r),
	}

	rec.AttemptCount++
	rec.OriginalRecipient = sql.NullString{String: destination, Valid: true}

	safeMsg, blockReason, redirected := d.applySafety(msg, ch)
	if blockReason != "" {
		rec.Status = dispatch.StatusBlocked
		rec.ErrorMessage = sql.NullString{String: blockReason, Valid: true}
		if err := d.dispatches.Update(ctx, rec); err != nil {
			return fmt.Errorf("updating blocked record %d: %w", rec.ID, err)
		}
		d.auditDispatch(ctx, ActionDispatchBlocked, rec, map[string]any{
			"recipient_id": r.ID,
			"campaign_id":  c.ID,
			"reason":       blockReason,
		})
		d.log.WithFields(logrus.Fields{"record_id": rec.ID, "reason": blockReason}).Warn("dispatch blocked by safety guard")
		return nil
	}
	if redirected {
		d.auditDispatch(ctx, ActionDispatchRedirected, rec, map[string]any{
			"recipient_id":       r.ID,
			"campaign_id":        c.ID,
			"original_recipient": destination,
			"actual_recipient":   safeMsg.Destination,
		})
		d.log.WithFields(logrus.Fields{
			"record_id": rec.ID,
			"original":  destination,
			"actual":    safeMsg.Destination,
		}).Info("non-production destination redirected to test destination")
	}

	sender, ok := d.senders[ch]
	if !ok {
		return d.fail(ctx, rec, fmt.Sprintf("no sender configured for channel %q", ch))
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	providerRef, sendErr := sender.Send(sendCtx, safeMsg)
	cancel()

	now := d.now().In(rec.ScheduledFor.Location())
	if sendErr != nil {
		rec.Status = dispatch.StatusFailed
		rec.ErrorMessage = sql.NullString{String: sendErr.Error(), Valid: true}
		if err := d.dispatches.Update(ctx, rec); err != nil {
			return fmt.Errorf("updating failed record %d: %w", rec.ID, err)
		}
		d.auditDispatch(ctx, ActionDispatchFailed, rec, map[string]any{
			"recipient_id": r.ID,
			"campaign_id":  c.ID,
			"attempt":      rec.AttemptCount,
			"error":        sendErr.Error(),
		})
		d.log.WithFields(logrus.Fields{"record_id": rec.ID, "channel": ch}).WithError(sendErr).Error("channel send failed")
		return nil
	}

	rec.Status = dispatch.StatusSent
	rec.SentAt = sql.NullTime{Time: now, Valid: true}
	rec.ErrorMessage = sql.NullString{}
	if providerRef != "" {
		rec.ProviderMessageID = sql.NullString{String: providerRef, Valid: true}
	}
	if err := d.dispatches.Update(ctx, rec); err != nil {
		return fmt.Errorf("updating sent record %d: %w", rec.ID, err)
	}
	d.auditDispatch(ctx, ActionDispatchSent, rec, map[string]any{
		"recipient_id": r.ID,
		"campaign_id":  c.ID,
		"channel":      string(ch),
		"recipient":    safeMsg.Destination,
	})
	d.log.WithFields(logrus.Fields{"record_id": rec.ID, "channel": ch}).Info("dispatch sent")
	return nil
}

// applySafety enforces the environment redirect rule. In production the
// message passes through unchanged. In any other environment the destination
// is replaced with the channel's test destination, or the send is blocked
// when none is configured.
func (d *Dispatcher) applySafety(msg channel.Message, ch dispatch.Channel) (channel.Message, string, bool) {
	if d.env.Production {
		return msg, "", false
	}
	testDest := d.env.TestDestinations[ch]
	if testDest == "" {
		return msg, fmt.Sprintf("no test destination configured for channel %q in non-production", ch), false
	}
	redirected := msg
	redirected.Destination = testDest
	redirected.Subject = fmt.Sprintf("[REDIRECTED from %s] %s", msg.Destination, msg.Subject)
	return redirected, "", true
}

// fail marks a record failed for a non-transport defect (missing rows,
// missing sender). Returns only bookkeeping errors.
func (d *Dispatcher) fail(ctx context.Context, rec *dispatch.Record, detail string) error {
	rec.Status = dispatch.StatusFailed
	rec.ErrorMessage = sql.NullString{String: detail, Valid: true}
	if err := d.dispatches.Update(ctx, rec); err != nil {
		return fmt.Errorf("updating failed record %d: %w", rec.ID, err)
	}
	d.auditDispatch(ctx, ActionDispatchFailed, rec, map[string]any{"error": detail})
	d.log.WithField("record_id", rec.ID).Error(detail)
	return nil
}

// auditDispatch appends an audit entry; an audit write failure is logged
// but never blocks the pipeline.
func (d *Dispatcher) auditDispatch(ctx context.Context, action string, rec *dispatch.Record, meta map[string]any) {
	entry := audit.System(action, "dispatch_record", rec.ID, meta)
	if err := d.audits.Create(ctx, entry); err != nil {
		d.log.WithField("action", action).WithError(err).Error("failed to write audit entry")
	}
}
