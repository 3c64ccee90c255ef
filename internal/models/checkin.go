package models

import "time"

// CheckIn is a daily patient mood record.
// MoodLevel: 1 (very bad) to 5 (excellent).
// AnxietyLevel: 1 (none) to 10 (extreme).
type CheckIn struct {
	ID           int64     `json:"id"`
	PatientID    int64     `json:"patient_id"`
	RecordedAt   time.Time `json:"recorded_at"`
	MoodLevel    int       `json:"mood_level"`
	AnxietyLevel int       `json:"anxiety_level"`
	PatientNote  *string   `json:"patient_note"`
}
