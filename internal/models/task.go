package models

import "time"

type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskDone    TaskStatus = "done"
	TaskMissed  TaskStatus = "missed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskDone, TaskMissed:
		return true
	}
	return false
}

// Task is the therapeutic "homework" assigned to a patient.
type Task struct {
	ID          int64      `json:"id"`
	PatientID   int64      `json:"patient_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	DueAt       *time.Time `json:"due_at"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
}
