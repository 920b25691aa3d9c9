package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"homelet/internal/app/uow"
	domainbooking "homelet/internal/domain/booking"
	domainproperty "homelet/internal/domain/property"
	domainrange "homelet/internal/domain/shared/daterange"
	"homelet/internal/domain/shared/money"
)

func seedTestProperty(t *testing.T, repo *PropertyRepository) *domainproperty.Property {
	t.Helper()
	prop, err := domainproperty.New(domainproperty.CreateParams{
		ID:          "prop-1",
		Landlord:    "landlord@example.com",
		Title:       "Test flat",
		MonthlyRent: money.Must(10000, "USD"),
		NightlyRate: money.Must(400, "USD"),
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("property build failed: %v", err)
	}
	if err := repo.Save(context.Background(), prop); err != nil {
		t.Fatalf("property save failed: %v", err)
	}
	return prop
}

func TestPropertySaveDetectsStaleVersion(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	seedTestProperty(t, repo)

	first, err := repo.ByID(ctx, "prop-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	second, err := repo.ByID(ctx, "prop-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	first.AdvanceBookingFence(time.Now())
	if err := repo.Save(ctx, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second.AdvanceBookingFence(time.Now())
	if err := repo.Save(ctx, second); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("stale save error = %v, want ErrConcurrentUpdate", err)
	}

	// The winning save can continue from its refreshed version.
	first.AdvanceBookingFence(time.Now())
	if err := repo.Save(ctx, first); err != nil {
		t.Errorf("follow-up save failed: %v", err)
	}
}

func TestRepositoriesReturnCopies(t *testing.T) {
	repo := NewPropertyRepository()
	ctx := context.Background()
	seedTestProperty(t, repo)

	loaded, err := repo.ByID(ctx, "prop-1")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	loaded.Title = "mutated"

	fresh, err := repo.ByID(ctx, "prop-1")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if fresh.Title != "Test flat" {
		t.Errorf("stored aggregate mutated through a loaded copy: %q", fresh.Title)
	}
}

func TestBookingListForUnitFiltersStatusAndOverlap(t *testing.T) {
	repo := NewBookingRepository()
	ctx := context.Background()

	save := func(id string, start, end string, status domainbooking.Status) {
		t.Helper()
		s, _ := time.Parse("2006-01-02", start)
		e, _ := time.Parse("2006-01-02", end)
		dr, err := domainrange.New(s, e)
		if err != nil {
			t.Fatalf("range build failed: %v", err)
		}
		b := &domainbooking.Booking{
			ID:            domainbooking.BookingID(id),
			PropertyID:    "prop-1",
			Renter:        "renter@example.com",
			Range:         dr,
			Status:        status,
			PaymentStatus: domainbooking.PaymentPaid,
			CreatedAt:     time.Now(),
		}
		if err := repo.Save(ctx, b); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	save("b1", "2025-06-01", "2025-06-10", domainbooking.StatusConfirmed)
	save("b2", "2025-06-01", "2025-06-10", domainbooking.StatusCancelled)
	save("b3", "2025-07-01", "2025-07-10", domainbooking.StatusConfirmed)

	dr, _ := domainrange.New(
		time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
	)
	got, err := repo.ListForUnit(ctx, "prop-1", "", dr)
	if err != nil {
		t.Fatalf("ListForUnit failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("ListForUnit = %v, want only b1", got)
	}
}

func TestWriteUnitsSerialize(t *testing.T) {
	factory := NewFactory()
	ctx := context.Background()

	unit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := factory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			t.Errorf("second begin failed: %v", err)
			close(acquired)
			return
		}
		close(acquired)
		_ = second.Rollback(ctx)
	}()

	select {
	case <-acquired:
		t.Fatal("second write unit started before the first committed")
	case <-time.After(50 * time.Millisecond):
	}

	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second write unit never acquired the lock")
	}
}
