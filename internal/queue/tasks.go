package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Task type names routed through asynq.
const (
	TypeExpirySweep     = "subscription:expiry_sweep"
	TypeRenewalReminder = "subscription:renewal_reminder"
)

// RenewalReminder carries everything a notification channel needs to nudge a
// member whose access lapsed.
type RenewalReminder struct {
	SubscriptionID string    `json:"subscriptionId"`
	AccountID      string    `json:"accountId"`
	FacilityID     string    `json:"facilityId"`
	PackageID      string    `json:"packageId"`
	Expired        time.Time `json:"expired"`
}

// NewExpirySweepTask builds the periodic sweep task. The payload is empty;
// the sweep always scans from the current clock.
func NewExpirySweepTask() *asynq.Task {
	return asynq.NewTask(TypeExpirySweep, nil)
}

// NewRenewalReminderTask builds a reminder task for one lapsed subscription.
func NewRenewalReminderTask(reminder RenewalReminder) (*asynq.Task, error) {
	payload, err := json.Marshal(reminder)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRenewalReminder, payload, asynq.MaxRetry(5)), nil
}
