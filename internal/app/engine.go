package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"student_outreach_engine/internal/domain/audit"
	"student_outreach_engine/internal/domain/dispatch"
	"student_outreach_engine/internal/domain/template"
)

// ErrTickInProgress is returned when a tick is requested while another is
// still running. The requester (periodic driver or operator) skips and
// retries at the next interval.
var ErrTickInProgress = errors.New("a scheduler tick is already running")

// TickResult summarizes one completed tick.
type TickResult struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Candidates int       `json:"candidates"`
	Reserved   int       `json:"reserved"`
	Skipped    int       `json:"skipped"`
	Sent       int       `json:"sent"`
	Failed     int       `json:"failed"`
	Blocked    int       `json:"blocked"`
	// Deferred counts due records left scheduled because the rate budget
	// for the current unit was exhausted.
	Deferred int `json:"deferred"`
}

// Engine is the tick coordinator: once per interval it runs
// match → evaluate → guard → window-schedule → rate-admit → dispatch,
// committing results per candidate. Overlapping ticks are disallowed.
type Engine struct {
	matcher    *Matcher
	guard      *DispatchGuard
	window     SendWindow
	limiter    *RateLimiter
	dispatcher *Dispatcher
	templates  template.Repository
	dispatches dispatch.Repository
	audits     audit.Repository
	log        *logrus.Logger

	// now is swappable for tests; defaults to time.Now in the window's zone.
	now func() time.Time

	running sync.Mutex

	lastMu sync.Mutex
	last   *TickResult
}

func NewEngine(
	matcher *Matcher,
	guard *DispatchGuard,
	window SendWindow,
	limiter *RateLimiter,
	dispatcher *Dispatcher,
	tr template.Repository,
	dr dispatch.Repository,
	ar audit.Repository,
	log *logrus.Logger,
) *Engine {
	return &Engine{
		matcher:    matcher,
		guard:      guard,
		window:     window,
		limiter:    limiter,
		dispatcher: dispatcher,
		templates:  tr,
		dispatches: dr,
		audits:     ar,
		log:        log,
		now:        func() time.Time { return time.Now().In(window.Location) },
	}
}

// SetClock overrides the engine's notion of now. Test hook.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// LastTick returns a copy of the most recent tick outcome, if any.
func (e *Engine) LastTick() *TickResult {
	e.lastMu.Lock()
	defer e.lastMu.Unlock()
	if e.last == nil {
		return nil
	}
	out := *e.last
	return &out
}

// RunTick executes one full pipeline pass. Returns ErrTickInProgress when
// another tick (periodic or manual) still holds the guard.
func (e *Engine) RunTick(ctx context.Context) (*TickResult, error) {
	if !e.running.TryLock() {
		e.log.Warn("tick requested while previous tick still running; skipping")
		return nil, ErrTickInProgress
	}
	defer e.running.Unlock()

	now := e.now()
	result := &TickResult{StartedAt: now}
	e.log.WithField("now", now.Format(time.RFC3339)).Info("scheduler tick started")

	if err := e.reserve(ctx, now, result); err != nil {
		return nil, err
	}
	if err := e.sendDue(ctx, now, result); err != nil {
		return nil, err
	}

	result.FinishedAt = e.now()
	e.auditTick(ctx, result)
	e.lastMu.Lock()
	e.last = result
	e.lastMu.Unlock()

	e.log.WithFields(logrus.Fields{
		"candidates": result.Candidates,
		"reserved":   result.Reserved,
		"sent":       result.Sent,
		"failed":     result.Failed,
		"blocked":    result.Blocked,
		"deferred":   result.Deferred,
	}).Info("scheduler tick completed")
	return result, nil
}

// reserve converts eligible candidates into scheduled dispatch records. The
// unique constraint on the dispatch triple is the definitive concurrency
// backstop: a duplicate insert is treated as "already scheduled".
func (e *Engine) reserve(ctx context.Context, now time.Time, result *TickResult) error {
	candidates, err := e.matcher.Candidates(ctx, now)
	if err != nil {
		return err
	}
	result.Candidates = len(candidates)

	templateCache := make(map[int64]*template.Template)
	for _, cand := range candidates {
		t, ok := templateCache[cand.Campaign.TemplateID]
		if !ok {
			t, err = e.templates.GetByID(ctx, cand.Campaign.TemplateID)
			if err != nil && err != template.ErrNotFound {
				return err
			}
			templateCache[cand.Campaign.TemplateID] = t
		}

		eligible, reason := Evaluate(cand.Recipient, cand.Campaign, t, now)
		if !eligible {
			result.Skipped++
			e.log.WithFields(logrus.Fields{
				"recipient_id": cand.Recipient.ID,
				"campaign_id":  cand.Campaign.ID,
				"reason":       reason,
			}).Debug("candidate ineligible")
			continue
		}

		admitted, reason, err := e.guard.Admit(ctx, cand, now)
		if err != nil {
			return err
		}
		if !admitted {
			result.Skipped++
			e.log.WithFields(logrus.Fields{
				"recipient_id": cand.Recipient.ID,
				"campaign_id":  cand.Campaign.ID,
				"reason":       reason,
			}).Debug("candidate filtered by dispatch guard")
			continue
		}

		ch, _, ok := ResolveChannel(cand.Campaign, cand.Recipient)
		if !ok {
			result.Skipped++
			e.log.WithField("recipient_id", cand.Recipient.ID).Debug(ReasonNoDestination)
			continue
		}

		rec := &dispatch.Record{
			RecipientID:      cand.Recipient.ID,
			CampaignID:       cand.Campaign.ID,
			TriggerContextID: cand.TriggerContextID,
			Channel:          ch,
			ScheduledFor:     e.window.Adjust(now),
			Status:           dispatch.StatusScheduled,
		}
		if err := e.dispatches.Create(ctx, rec); err != nil {
			if errors.Is(err, dispatch.ErrDuplicate) {
				result.Skipped++
				e.log.WithFields(logrus.Fields{
					"recipient_id": cand.Recipient.ID,
					"campaign_id":  cand.Campaign.ID,
				}).Debug("duplicate reservation lost the race; already scheduled")
				continue
			}
			return err
		}
		result.Reserved++

		entry := audit.System(ActionDispatchReserved, "dispatch_record", rec.ID, map[string]any{
			"recipient_id":       cand.Recipient.ID,
			"campaign_id":        cand.Campaign.ID,
			"trigger_context_id": cand.TriggerContextID,
			"scheduled_for":      rec.ScheduledFor.Format(time.RFC3339),
		})
		if err := e.audits.Create(ctx, entry); err != nil {
			e.log.WithError(err).Error("failed to audit reservation")
		}
	}
	return nil
}

// sendDue dispatches due records up to the remaining rate budget for the
// current unit, oldest scheduled_for first. Over-budget records stay
// scheduled and are picked up on the next tick.
func (e *Engine) sendDue(ctx context.Context, now time.Time, result *TickResult) error {
	budget, err := e.limiter.Budget(ctx, now)
	if err != nil {
		return err
	}
	dueCount, err := e.dispatches.CountDue(ctx, now)
	if err != nil {
		return err
	}
	if budget == 0 {
		result.Deferred = dueCount
		if dueCount > 0 {
			e.log.WithField("due", dueCount).Info("rate budget exhausted for current unit; deferring all due records")
		}
		return nil
	}

	due, err := e.dispatches.ListDue(ctx, now, budget)
	if err != nil {
		return err
	}
	if dueCount > len(due) {
		result.Deferred = dueCount - len(due)
	}

	for _, rec := range due {
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := e.dispatcher.Dispatch(ctx, rec); err != nil {
			// Bookkeeping failure on one record must not abort the tick.
			e.log.WithField("record_id", rec.ID).WithError(err).Error("dispatch bookkeeping failed")
			continue
		}
		switch rec.Status {
		case dispatch.StatusSent:
			result.Sent++
		case dispatch.StatusFailed:
			result.Failed++
		case dispatch.StatusBlocked:
			result.Blocked++
		}
	}
	return nil
}

func (e *Engine) auditTick(ctx context.Context, result *TickResult) {
	entry := audit.System(ActionSchedulerTick, "system", 0, map[string]any{
		"candidates": result.Candidates,
		"reserved":   result.Reserved,
		"skipped":    result.Skipped,
		"sent":       result.Sent,
		"failed":     result.Failed,
		"blocked":    result.Blocked,
		"deferred":   result.Deferred,
	})
	if err := e.audits.Create(ctx, entry); err != nil {
		e.log.WithError(err).Error("failed to audit tick summary")
	}
}
