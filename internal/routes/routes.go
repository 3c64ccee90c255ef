package routes

import (
	"github.com/PaletotCode/Cori/internal/config"
	"github.com/PaletotCode/Cori/internal/handlers"
	"github.com/PaletotCode/Cori/internal/middleware"
	"github.com/PaletotCode/Cori/internal/repository"
	"github.com/PaletotCode/Cori/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, redisClient *redis.Client) {
	notificationService := services.NewNotificationService(db)
	sessionService := services.NewSessionService(db, notificationService)
	billingService := services.NewBillingService(db, notificationService)
	patientService := services.NewPatientService(db)
	taskService := services.NewTaskService(db, notificationService)
	checkInService := services.NewCheckInService(db)
	noteService := services.NewNoteService(db)
	intakeService := services.NewIntakeService(db)
	timelineService := services.NewTimelineService(
		repository.NewPatientRepository(db),
		repository.NewSessionRepository(db),
		repository.NewTaskRepository(db),
		repository.NewCheckInRepository(db),
	)

	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	patientHandler := handlers.NewPatientHandler(patientService)
	sessionHandler := handlers.NewSessionHandler(sessionService, notificationService)
	invoiceHandler := handlers.NewInvoiceHandler(billingService)
	agendaHandler := handlers.NewAgendaHandler(timelineService)
	taskHandler := handlers.NewTaskHandler(taskService)
	checkInHandler := handlers.NewCheckInHandler(checkInService)
	noteHandler := handlers.NewNoteHandler(noteService)
	intakeHandler := handlers.NewIntakeHandler(intakeService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	// The public surface is unauthenticated and therefore rate limited.
	public := api.Group("/public", middleware.PublicRateLimit(redisClient, cfg.PublicRateLimitPerMin))
	public.Get("/intake/:slug", intakeHandler.Profile)
	public.Post("/intake/:slug", intakeHandler.Submit)
	public.Patch("/sessions/confirm/:token", sessionHandler.Confirm)

	v1 := api.Group("/v1", middleware.AuthRequired(cfg.JWTSecret))

	me := v1.Group("/me")
	me.Put("", authHandler.UpdateProfile)
	me.Post("/push-token", authHandler.RegisterPushToken)
	me.Post("/intake-slug", intakeHandler.RegenerateSlug)

	patients := v1.Group("/patients")
	patients.Post("", patientHandler.Create)
	patients.Get("", patientHandler.List)
	patients.Get("/:id", patientHandler.Get)
	patients.Put("/:id", patientHandler.Update)
	patients.Delete("/:id", patientHandler.Delete)
	patients.Post("/:id/approve", patientHandler.Approve)
	patients.Post("/:id/push-token", patientHandler.RegisterPushToken)
	patients.Get("/:id/sessions", sessionHandler.ListByPatient)
	patients.Get("/:id/invoices", invoiceHandler.ListByPatient)
	patients.Get("/:id/tasks", taskHandler.ListByPatient)
	patients.Get("/:id/checkins", checkInHandler.ListByPatient)
	patients.Get("/:id/notes", noteHandler.ListByPatient)

	sessions := v1.Group("/sessions")
	sessions.Post("", sessionHandler.Create)
	sessions.Patch("/:id/state", sessionHandler.UpdateState)

	invoices := v1.Group("/invoices")
	invoices.Get("/outstanding", invoiceHandler.ListOutstanding)
	invoices.Post("/close/:id", invoiceHandler.ClosePeriod)
	invoices.Post("/:id/recompute", invoiceHandler.Recompute)
	invoices.Patch("/:id/pay", invoiceHandler.MarkPaid)

	tasks := v1.Group("/tasks")
	tasks.Post("", taskHandler.Create)
	tasks.Put("/:id/status", taskHandler.UpdateStatus)

	checkins := v1.Group("/checkins")
	checkins.Post("", checkInHandler.Create)

	notes := v1.Group("/notes")
	notes.Post("", noteHandler.Create)
	notes.Put("/:id", noteHandler.Update)

	agenda := v1.Group("/agenda")
	agenda.Get("/general", agendaHandler.Agenda)
	agenda.Get("/:id/timeline", agendaHandler.PatientTimeline)
}
