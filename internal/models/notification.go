package models

import "time"

// NotificationKind is a closed set; the dispatcher resolves recipient and
// message content by switching over it.
type NotificationKind string

const (
	NotificationSessionReminder NotificationKind = "session_reminder"
	NotificationTaskReminder    NotificationKind = "task_reminder"
	NotificationBillingNotice   NotificationKind = "billing_notice"
	NotificationCounselorAlert  NotificationKind = "counselor_alert"
)

type NotificationStatus string

const (
	// NotificationScheduled is the only state the dispatcher picks up.
	// Transitions are scheduled -> sent or scheduled -> failed, never back.
	NotificationScheduled NotificationStatus = "scheduled"
	NotificationSent      NotificationStatus = "sent"
	NotificationFailed    NotificationStatus = "failed"
)

type Notification struct {
	ID        int64              `json:"id"`
	PatientID int64              `json:"patient_id"`
	Kind      NotificationKind   `json:"kind"`
	FireAt    time.Time          `json:"fire_at"`
	Status    NotificationStatus `json:"status"`
	// ReferenceID is a weak, kind-qualified id: a session id for
	// session_reminder/counselor_alert, a task id for task_reminder, an
	// invoice id for billing_notice. No FK; it may legitimately dangle.
	ReferenceID *int64    `json:"reference_id"`
	CreatedAt   time.Time `json:"created_at"`
}
