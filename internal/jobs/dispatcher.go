package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/PaletotCode/Cori/internal/push"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const defaultBatchSize = 50

type notificationStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.Notification, error)
	UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus) error
}

type patientStore interface {
	GetByID(ctx context.Context, id int64) (*models.Patient, error)
}

type counselorStore interface {
	GetByID(ctx context.Context, id int64) (*models.Counselor, error)
}

type sessionStore interface {
	GetByID(ctx context.Context, id int64) (*models.Session, error)
}

// Dispatcher drains due notifications on a fixed tick. Each notification is
// handled in isolation: one bad row never blocks the rest of the batch, and
// every row leaves the scheduled state exactly once.
type Dispatcher struct {
	notifications notificationStore
	patients      patientStore
	counselors    counselorStore
	sessions      sessionStore
	sender        push.Sender
	interval      time.Duration
	batchSize     int
	cron          *cron.Cron
	log           zerolog.Logger
}

func NewDispatcher(db *pgxpool.Pool, sender push.Sender, interval time.Duration, batchSize int, log zerolog.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Dispatcher{
		notifications: repository.NewNotificationRepository(db),
		patients:      repository.NewPatientRepository(db),
		counselors:    repository.NewCounselorRepository(db),
		sessions:      repository.NewSessionRepository(db),
		sender:        sender,
		interval:      interval,
		batchSize:     batchSize,
		log:           log.With().Str("component", "dispatcher").Logger(),
	}
}

// Start schedules the tick. SkipIfStillRunning keeps a slow batch from
// stacking a second run on top of itself.
func (d *Dispatcher) Start() error {
	d.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(&logPrinter{d.log})),
	))
	spec := fmt.Sprintf("@every %s", d.interval)
	if _, err := d.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.interval)
		defer cancel()
		if err := d.RunOnce(ctx); err != nil {
			d.log.Error().Err(err).Msg("dispatch tick failed")
		}
	}); err != nil {
		return err
	}
	d.cron.Start()
	d.log.Info().Dur("interval", d.interval).Int("batch_size", d.batchSize).Msg("dispatcher started")
	return nil
}

// Stop halts the tick and waits for an in-flight batch to finish.
func (d *Dispatcher) Stop() {
	if d.cron == nil {
		return
	}
	<-d.cron.Stop().Done()
	d.log.Info().Msg("dispatcher stopped")
}

// RunOnce processes one batch of due notifications, oldest fire time first.
func (d *Dispatcher) RunOnce(ctx context.Context) error {
	due, err := d.notifications.ListDue(ctx, time.Now(), d.batchSize)
	if err != nil {
		return fmt.Errorf("list due notifications: %w", err)
	}
	if len(due) == 0 {
		return nil
	}

	for i := range due {
		d.dispatchOne(ctx, &due[i])
	}
	return nil
}

func (d *Dispatcher) dispatchOne(ctx context.Context, n *models.Notification) {
	status := models.NotificationSent
	if err := d.deliver(ctx, n); err != nil {
		status = models.NotificationFailed
		d.log.Warn().Err(err).Int64("notification_id", n.ID).Str("kind", string(n.Kind)).Msg("delivery failed")
	}
	if err := d.notifications.UpdateStatus(ctx, n.ID, status); err != nil {
		d.log.Error().Err(err).Int64("notification_id", n.ID).Msg("status update failed")
	}
}

// deliver resolves recipient and message per kind and pushes. A recipient
// that no longer exists, or has no usable device token, consumes the
// notification silently: there is no one left to notify, which is not a
// delivery failure. Any other lookup error is a failure and must be
// recorded as one.
func (d *Dispatcher) deliver(ctx context.Context, n *models.Notification) error {
	patient, err := d.patients.GetByID(ctx, n.PatientID)
	if errors.Is(err, pgx.ErrNoRows) {
		d.log.Debug().Int64("notification_id", n.ID).Int64("patient_id", n.PatientID).Msg("patient gone, consuming notification")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load patient %d: %w", n.PatientID, err)
	}

	title, body := d.message(ctx, n, patient)

	token := ""
	if n.Kind == models.NotificationCounselorAlert {
		counselor, err := d.counselors.GetByID(ctx, patient.CounselorID)
		if errors.Is(err, pgx.ErrNoRows) {
			d.log.Debug().Int64("notification_id", n.ID).Int64("counselor_id", patient.CounselorID).Msg("counselor gone, consuming notification")
			return nil
		}
		if err != nil {
			return fmt.Errorf("load counselor %d: %w", patient.CounselorID, err)
		}
		if counselor.PushToken != nil {
			token = *counselor.PushToken
		}
	} else if patient.PushToken != nil {
		token = *patient.PushToken
	}

	data := map[string]string{"kind": string(n.Kind)}
	if n.ReferenceID != nil {
		data["reference_id"] = fmt.Sprintf("%d", *n.ReferenceID)
	}
	if _, err := d.sender.Deliver(ctx, token, title, body, data); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) message(ctx context.Context, n *models.Notification, patient *models.Patient) (title, body string) {
	switch n.Kind {
	case models.NotificationSessionReminder:
		if session := d.resolveSession(ctx, n); session != nil {
			return "Session tomorrow", fmt.Sprintf("You have a session on %s. See you there!", formatSessionTime(session.StartsAt))
		}
		return "Session tomorrow", "You have a session scheduled in 24 hours. See you there!"
	case models.NotificationTaskReminder:
		return "Task due soon", "One of your tasks is due in 12 hours."
	case models.NotificationBillingNotice:
		return "Invoice available", "Your monthly invoice is ready. Check the app for details."
	case models.NotificationCounselorAlert:
		if session := d.resolveSession(ctx, n); session != nil {
			return "Session confirmed", fmt.Sprintf("%s confirmed their session on %s.", patient.FullName, formatSessionTime(session.StartsAt))
		}
		return "Session confirmed", fmt.Sprintf("%s confirmed their session.", patient.FullName)
	default:
		return "Notification", "You have a new notification."
	}
}

// resolveSession follows the weak reference of a session-scoped notification.
// The session may have been deleted since scheduling; the caller falls back
// to a generic body, never a failure, because the reference is allowed to
// dangle.
func (d *Dispatcher) resolveSession(ctx context.Context, n *models.Notification) *models.Session {
	if n.ReferenceID == nil {
		return nil
	}
	session, err := d.sessions.GetByID(ctx, *n.ReferenceID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			d.log.Debug().Err(err).Int64("notification_id", n.ID).Int64("session_id", *n.ReferenceID).Msg("session lookup failed, using generic body")
		}
		return nil
	}
	return session
}

func formatSessionTime(t time.Time) string {
	return t.UTC().Format("Jan 2 at 15:04")
}

// logPrinter adapts zerolog to cron's Printf-style logger.
type logPrinter struct {
	log zerolog.Logger
}

func (p *logPrinter) Printf(format string, args ...any) {
	p.log.Debug().Msgf(format, args...)
}
