package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/fitspace/backend-fitspace/internal/events"
	"github.com/fitspace/backend-fitspace/internal/subscription"
)

// Sweeper walks lapsed ACTIVE subscriptions and flags them for renewal. Each
// flagged subscription also gets a renewal reminder task and a domain event.
// The sweep is a safety net behind the lazy check endpoint; any particular
// subscription may already have been reconciled by the time the sweep sees it.
type Sweeper struct {
	Subs      *subscription.Service
	Store     subscription.Store
	Tasks     *asynq.Client
	Events    *events.Bus
	BatchSize int32
	Logger    zerolog.Logger
	Now       func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HandleExpirySweep processes one sweep tick.
func (s *Sweeper) HandleExpirySweep(ctx context.Context, _ *asynq.Task) error {
	if s == nil || s.Subs == nil || s.Store == nil {
		return errors.New("queue: sweeper not configured")
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = 200
	}
	lapsed, err := s.Store.ListActiveExpiredBefore(ctx, s.now(), batch)
	if err != nil {
		return err
	}
	var flagged int
	for _, sub := range lapsed {
		reconciled, _, err := s.Subs.CheckAndReconcileExpiry(ctx, sub.ID)
		if err != nil {
			s.Logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("reconcile expiry")
			continue
		}
		if !reconciled.Renew {
			continue
		}
		flagged++
		s.enqueueReminder(ctx, reconciled)
		s.emitExpiring(ctx, reconciled)
	}
	s.Logger.Info().Int("scanned", len(lapsed)).Int("flagged", flagged).Msg("expiry sweep complete")
	return nil
}

// HandleRenewalReminder delivers one reminder. Delivery channels hang off the
// event bus; the task handler just records the fact.
func (s *Sweeper) HandleRenewalReminder(ctx context.Context, task *asynq.Task) error {
	var reminder RenewalReminder
	if err := json.Unmarshal(task.Payload(), &reminder); err != nil {
		return err
	}
	s.Logger.Info().
		Str("subscription_id", reminder.SubscriptionID).
		Str("account_id", reminder.AccountID).
		Time("expired", reminder.Expired).
		Msg("renewal reminder due")
	return nil
}

func (s *Sweeper) enqueueReminder(ctx context.Context, sub subscription.Subscription) {
	if s.Tasks == nil {
		return
	}
	task, err := NewRenewalReminderTask(RenewalReminder{
		SubscriptionID: sub.ID,
		AccountID:      sub.AccountID,
		FacilityID:     sub.FacilityID,
		PackageID:      sub.PackageID,
		Expired:        sub.Expires,
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("build reminder task")
		return
	}
	if _, err := s.Tasks.EnqueueContext(ctx, task); err != nil {
		s.Logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("enqueue reminder")
	}
}

func (s *Sweeper) emitExpiring(ctx context.Context, sub subscription.Subscription) {
	if s.Events == nil {
		return
	}
	payload := map[string]any{
		"subscriptionId": sub.ID,
		"accountId":      sub.AccountID,
		"facilityId":     sub.FacilityID,
		"expired":        sub.Expires,
	}
	if _, err := s.Events.Emit(ctx, events.TopicSubscriptionExpiring, sub.ID, payload); err != nil {
		s.Logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("emit expiring event")
	}
}

// Mux registers the sweeper's handlers on an asynq mux.
func (s *Sweeper) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpirySweep, s.HandleExpirySweep)
	mux.HandleFunc(TypeRenewalReminder, s.HandleRenewalReminder)
	return mux
}
