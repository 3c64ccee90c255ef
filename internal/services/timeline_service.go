package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5"
)

// Per-source caps for the tenant-wide agenda, bounding response size.
const (
	agendaSessionCap = 500
	agendaTaskCap    = 200
	agendaCheckInCap = 200
)

type timelinePatientReader interface {
	GetOwned(ctx context.Context, counselorID, patientID int64) (*models.Patient, error)
	ListByCounselor(ctx context.Context, counselorID int64) ([]models.Patient, error)
}

type timelineSessionReader interface {
	ListInRange(ctx context.Context, patientIDs []int64, from, to time.Time, limit int) ([]models.Session, error)
}

type timelineTaskReader interface {
	ListDueInRange(ctx context.Context, patientIDs []int64, from, to time.Time, limit int) ([]models.Task, error)
}

type timelineCheckInReader interface {
	ListInRange(ctx context.Context, patientIDs []int64, from, to time.Time, limit int) ([]models.CheckIn, error)
}

// TimelineService is the read-only aggregator: it fans out to sessions,
// tasks and check-ins and merges them into one chronologically sorted feed.
type TimelineService struct {
	patients timelinePatientReader
	sessions timelineSessionReader
	tasks    timelineTaskReader
	checkins timelineCheckInReader
}

func NewTimelineService(
	patients timelinePatientReader,
	sessions timelineSessionReader,
	tasks timelineTaskReader,
	checkins timelineCheckInReader,
) *TimelineService {
	return &TimelineService{
		patients: patients,
		sessions: sessions,
		tasks:    tasks,
		checkins: checkins,
	}
}

// PatientTimeline merges the three event sources for one patient over the
// inclusive [dateFrom, dateTo] day range. Day boundaries are UTC. The window
// may span month borders; the client never has to stitch pages together.
func (s *TimelineService) PatientTimeline(ctx context.Context, counselorID, patientID int64, dateFrom, dateTo time.Time) (*models.Timeline, error) {
	if dateTo.Before(dateFrom) {
		return nil, ErrInvalidInput
	}
	if _, err := s.patients.GetOwned(ctx, counselorID, patientID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	from, to := dayBounds(dateFrom, dateTo)
	events, err := s.collectEvents(ctx, []int64{patientID}, from, to, nil, nil)
	if err != nil {
		return nil, err
	}

	return &models.Timeline{
		PatientID:   patientID,
		DateFrom:    dateFrom.Format(time.DateOnly),
		DateTo:      dateTo.Format(time.DateOnly),
		TotalEvents: len(events),
		Events:      events,
	}, nil
}

// TenantAgenda merges events of every patient the counselor owns, in one
// pass, each event tagged with the patient mini-profile. kinds filters the
// sources; empty means all three.
func (s *TimelineService) TenantAgenda(ctx context.Context, counselorID int64, dateFrom, dateTo time.Time, kinds []models.TimelineEventKind) (*models.Timeline, error) {
	if dateTo.Before(dateFrom) {
		return nil, ErrInvalidInput
	}

	patients, err := s.patients.ListByCounselor(ctx, counselorID)
	if err != nil {
		return nil, err
	}

	agenda := &models.Timeline{
		CounselorID: counselorID,
		DateFrom:    dateFrom.Format(time.DateOnly),
		DateTo:      dateTo.Format(time.DateOnly),
		Events:      []models.TimelineEvent{},
	}
	if len(patients) == 0 {
		return agenda, nil
	}

	summaries := make(map[int64]*models.PatientSummary, len(patients))
	patientIDs := make([]int64, 0, len(patients))
	for i := range patients {
		summaries[patients[i].ID] = patients[i].Summary()
		patientIDs = append(patientIDs, patients[i].ID)
	}

	from, to := dayBounds(dateFrom, dateTo)
	events, err := s.collectEvents(ctx, patientIDs, from, to, kindSet(kinds), summaries)
	if err != nil {
		return nil, err
	}

	agenda.TotalEvents = len(events)
	agenda.Events = events
	return agenda, nil
}

// collectEvents queries each enabled source, tags results with their kind
// (and mini-profile when summaries is non-nil), then sorts the merged list
// ascending by anchor time. The sort is stable so events from the same
// source keep their per-source order on equal timestamps.
func (s *TimelineService) collectEvents(
	ctx context.Context,
	patientIDs []int64,
	from, to time.Time,
	enabled map[models.TimelineEventKind]bool,
	summaries map[int64]*models.PatientSummary,
) ([]models.TimelineEvent, error) {
	events := make([]models.TimelineEvent, 0)

	patientOf := func(id int64) *models.PatientSummary {
		if summaries == nil {
			return nil
		}
		return summaries[id]
	}

	if enabled == nil || enabled[models.TimelineSession] {
		sessions, err := s.sessions.ListInRange(ctx, patientIDs, from, to, agendaSessionCap)
		if err != nil {
			return nil, err
		}
		for i := range sessions {
			events = append(events, models.TimelineEvent{
				Kind:     models.TimelineSession,
				OccursAt: sessions[i].StartsAt,
				Patient:  patientOf(sessions[i].PatientID),
				Session:  &sessions[i],
			})
		}
	}

	if enabled == nil || enabled[models.TimelineTask] {
		tasks, err := s.tasks.ListDueInRange(ctx, patientIDs, from, to, agendaTaskCap)
		if err != nil {
			return nil, err
		}
		for i := range tasks {
			events = append(events, models.TimelineEvent{
				Kind:     models.TimelineTask,
				OccursAt: *tasks[i].DueAt,
				Patient:  patientOf(tasks[i].PatientID),
				Task:     &tasks[i],
			})
		}
	}

	if enabled == nil || enabled[models.TimelineCheckIn] {
		checkins, err := s.checkins.ListInRange(ctx, patientIDs, from, to, agendaCheckInCap)
		if err != nil {
			return nil, err
		}
		for i := range checkins {
			events = append(events, models.TimelineEvent{
				Kind:     models.TimelineCheckIn,
				OccursAt: checkins[i].RecordedAt,
				Patient:  patientOf(checkins[i].PatientID),
				CheckIn:  &checkins[i],
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccursAt.Before(events[j].OccursAt)
	})
	return events, nil
}

func kindSet(kinds []models.TimelineEventKind) map[models.TimelineEventKind]bool {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[models.TimelineEventKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

// dayBounds widens a date pair to full UTC days: 00:00:00 of the first day
// through the last nanosecond of the last day.
func dayBounds(dateFrom, dateTo time.Time) (time.Time, time.Time) {
	from := time.Date(dateFrom.Year(), dateFrom.Month(), dateFrom.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(dateTo.Year(), dateTo.Month(), dateTo.Day(), 0, 0, 0, 0, time.UTC).
		AddDate(0, 0, 1).Add(-time.Nanosecond)
	return from, to
}
