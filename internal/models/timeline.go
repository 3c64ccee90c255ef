package models

import "time"

type TimelineEventKind string

const (
	TimelineSession TimelineEventKind = "session"
	TimelineTask    TimelineEventKind = "task"
	TimelineCheckIn TimelineEventKind = "checkin"
)

// TimelineEvent is one entry of the merged chronological feed. Exactly one of
// Session, Task, CheckIn is set, matching Kind. OccursAt is the anchor time
// the merge sorts on: session start, task due time, or check-in record time.
type TimelineEvent struct {
	Kind     TimelineEventKind `json:"kind"`
	OccursAt time.Time         `json:"occurs_at"`
	Patient  *PatientSummary   `json:"patient,omitempty"`
	Session  *Session          `json:"session,omitempty"`
	Task     *Task             `json:"task,omitempty"`
	CheckIn  *CheckIn          `json:"checkin,omitempty"`
}

type Timeline struct {
	PatientID   int64           `json:"patient_id,omitempty"`
	CounselorID int64           `json:"counselor_id,omitempty"`
	DateFrom    string          `json:"date_from"`
	DateTo      string          `json:"date_to"`
	TotalEvents int             `json:"total_events"`
	Events      []TimelineEvent `json:"events"`
}
