package models

import "time"

type NoteKind string

const (
	NoteOfficialRecord NoteKind = "official_record"
	NotePersonalNotes  NoteKind = "personal_notes"
)

func (k NoteKind) Valid() bool {
	return k == NoteOfficialRecord || k == NotePersonalNotes
}

// ClinicalNote is the write-up for one session; at most one note per session.
// TODO: encrypt Content at rest before real patient data reaches production.
type ClinicalNote struct {
	ID         int64     `json:"id"`
	PatientID  int64     `json:"patient_id"`
	SessionID  int64     `json:"session_id"`
	Content    string    `json:"content"`
	Kind       NoteKind  `json:"kind"`
	RecordedAt time.Time `json:"recorded_at"`
}
