package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PaletotCode/Cori/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

var (
	repoTestOnce sync.Once
	repoTestPool *pgxpool.Pool
	repoTestErr  error
)

func repoIntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	repoTestOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DATABASE_URL")
		if dbURL == "" {
			repoTestErr = fmt.Errorf("DATABASE_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			repoTestErr = err
			return
		}

		repoTestPool, repoTestErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if repoTestErr != nil {
			return
		}
		repoTestErr = repoTestPool.Ping(context.Background())
	})

	if repoTestErr != nil {
		t.Skipf("skipping integration test: %v", repoTestErr)
	}
	return repoTestPool
}

func TestListDueReturnsOldestFireTimeFirst(t *testing.T) {
	ctx := context.Background()
	pool := repoIntegrationPool(t)

	counselor := &models.Counselor{
		Email:        fmt.Sprintf("notif-test-%d@example.com", time.Now().UnixNano()),
		PasswordHash: "test-hash",
		DisplayName:  "Test Counselor",
		IntakeSlug:   fmt.Sprintf("notif%d", time.Now().UnixNano()),
	}
	if err := NewCounselorRepository(pool).Create(ctx, counselor); err != nil {
		t.Fatalf("create counselor: %v", err)
	}
	t.Cleanup(func() {
		if _, err := pool.Exec(ctx, "DELETE FROM counselors WHERE id = $1", counselor.ID); err != nil {
			t.Fatalf("cleanup counselor: %v", err)
		}
	})

	patient, err := NewPatientRepository(pool).Create(ctx, CreatePatientInput{
		CounselorID: counselor.ID,
		FullName:    "Integration Patient",
		Status:      models.PatientActive,
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	repo := NewNotificationRepository(pool)
	now := time.Now().UTC()

	// Insertion order deliberately disagrees with fire order.
	offsets := []time.Duration{-1 * time.Hour, -3 * time.Hour, -2 * time.Hour}
	ids := make(map[time.Duration]int64, len(offsets))
	for _, offset := range offsets {
		n, err := repo.Create(ctx, CreateNotificationInput{
			PatientID: patient.ID,
			Kind:      models.NotificationTaskReminder,
			FireAt:    now.Add(offset),
		})
		if err != nil {
			t.Fatalf("create notification: %v", err)
		}
		ids[offset] = n.ID
	}
	// A future row must never surface.
	if _, err := repo.Create(ctx, CreateNotificationInput{
		PatientID: patient.ID,
		Kind:      models.NotificationTaskReminder,
		FireAt:    now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("create future notification: %v", err)
	}

	due, err := repo.ListDue(ctx, now, 50)
	if err != nil {
		t.Fatalf("ListDue: %v", err)
	}

	var got []int64
	for _, n := range due {
		if n.PatientID == patient.ID {
			got = append(got, n.ID)
		}
	}
	want := []int64{ids[-3 * time.Hour], ids[-2 * time.Hour], ids[-1 * time.Hour]}
	if len(got) != len(want) {
		t.Fatalf("expected %d due notifications, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected due order %v, got %v", want, got)
		}
	}

	limited, err := repo.ListDue(ctx, now, 2)
	if err != nil {
		t.Fatalf("ListDue limited: %v", err)
	}
	if len(limited) > 2 {
		t.Fatalf("expected at most 2 notifications, got %d", len(limited))
	}
}
