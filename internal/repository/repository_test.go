package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"treasurytracker/internal/models"
	"treasurytracker/internal/pagination"
	"treasurytracker/internal/schedule"
	"treasurytracker/internal/testutil"
)

func countEvents(t *testing.T, repo InvestmentRepository, investmentID string) []models.PaymentEvent {
	t.Helper()
	events, err := repo.ListPaymentEvents(context.Background(), []string{investmentID}, PaymentFilter{})
	testutil.AssertNoError(t, err)
	return events
}

func TestSaveInvestment(t *testing.T) {
	t.Run("creates_investment_and_schedule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := NewInvestmentRepository(db)
		user := testutil.CreateTestUser(t, db)

		inv := testutil.NewTestNote(user.ID)
		events, err := schedule.Generate(inv)
		testutil.AssertNoError(t, err)

		err = repo.SaveInvestment(context.Background(), inv, events)
		testutil.AssertNoError(t, err)

		if inv.ID == "" {
			t.Fatal("expected investment ID to be assigned")
		}
		got := countEvents(t, repo, inv.ID)
		if len(got) != 4 {
			t.Fatalf("expected 4 events, got %d", len(got))
		}
		for i, e := range got {
			if e.InvestmentID != inv.ID {
				t.Errorf("event %d: expected investment %s, got %s", i, inv.ID, e.InvestmentID)
			}
		}
		testutil.AssertDecimal(t, got[3].PaymentAmount, "105000", "final amount")
	})

	t.Run("nil_schedule_keeps_events", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := NewInvestmentRepository(db)
		user := testutil.CreateTestUser(t, db)
		inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
		testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.July, 15), "5000.00", models.PaymentStatusPending)

		inv.Description = "renamed"
		err := repo.SaveInvestment(context.Background(), inv, nil)
		testutil.AssertNoError(t, err)

		if got := countEvents(t, repo, inv.ID); len(got) != 1 {
			t.Errorf("expected existing event to survive, got %d events", len(got))
		}
	})
}

func TestReplacePaymentSchedule(t *testing.T) {
	t.Run("idempotent_regeneration", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := NewInvestmentRepository(db)
		user := testutil.CreateTestUser(t, db)
		inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
		ctx := context.Background()

		first, err := schedule.Generate(inv)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, repo.ReplacePaymentSchedule(ctx, inv.ID, first))

		second, err := schedule.Generate(inv)
		testutil.AssertNoError(t, err)
		testutil.AssertNoError(t, repo.ReplacePaymentSchedule(ctx, inv.ID, second))

		got := countEvents(t, repo, inv.ID)
		if len(got) != len(second) {
			t.Fatalf("expected %d events, got %d", len(second), len(got))
		}
		secondIDs := make(map[string]bool, len(second))
		for _, e := range second {
			secondIDs[e.ID] = true
		}
		for _, e := range got {
			if !secondIDs[e.ID] {
				t.Errorf("event %s left over from first generation", e.ID)
			}
		}
	})

	t.Run("failed_insert_keeps_old_schedule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := NewInvestmentRepository(db)
		user := testutil.CreateTestUser(t, db)
		inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
		old := testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.July, 15), "5000.00", models.PaymentStatusPending)

		// Two events on one date violate the unique index.
		day := testutil.Date(2025, time.January, 15)
		dup := []models.PaymentEvent{
			{PaymentDate: day, PaymentAmount: decimal.NewFromInt(1), PaymentType: models.PaymentTypeCoupon, PaymentStatus: models.PaymentStatusPending},
			{PaymentDate: day, PaymentAmount: decimal.NewFromInt(2), PaymentType: models.PaymentTypeCoupon, PaymentStatus: models.PaymentStatusPending},
		}
		err := repo.ReplacePaymentSchedule(context.Background(), inv.ID, dup)
		testutil.AssertAppError(t, err, "INTERNAL_ERROR")

		got := countEvents(t, repo, inv.ID)
		if len(got) != 1 || got[0].ID != old.ID {
			t.Errorf("expected original schedule to remain, got %+v", got)
		}
	})

	t.Run("unknown_investment", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := NewInvestmentRepository(db)

		err := repo.ReplacePaymentSchedule(context.Background(), "0190a000-0000-7000-8000-000000000000", nil)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestGetInvestment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInvestmentRepository(db)
	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(owner.ID))
	testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2025, time.January, 15), "5000.00", models.PaymentStatusPending)
	testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.July, 15), "5000.00", models.PaymentStatusPaid)
	ctx := context.Background()

	t.Run("owner_with_payments", func(t *testing.T) {
		got, err := repo.GetInvestment(ctx, owner.ID, inv.ID, true)
		testutil.AssertNoError(t, err)

		if len(got.Payments) != 2 {
			t.Fatalf("expected 2 payments, got %d", len(got.Payments))
		}
		if !got.Payments[0].PaymentDate.Before(got.Payments[1].PaymentDate) {
			t.Error("expected payments ordered by date")
		}
	})

	t.Run("other_user_is_not_found", func(t *testing.T) {
		_, err := repo.GetInvestment(ctx, other.ID, inv.ID, false)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetInvestment(ctx, owner.ID, "0190a000-0000-7000-8000-000000000000", false)
		testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
	})
}

func TestListInvestments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInvestmentRepository(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	ctx := context.Background()

	testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
	testutil.CreateTestInvestment(t, db, testutil.NewTestBill(user.ID, testutil.Date(2025, time.June, 1)))
	sold := testutil.NewTestNote(user.ID)
	sold.Status = models.InvestmentStatusSold
	testutil.CreateTestInvestment(t, db, sold)
	testutil.CreateTestInvestment(t, db, testutil.NewTestNote(other.ID))

	t.Run("all_for_user", func(t *testing.T) {
		got, total, err := repo.ListInvestments(ctx, user.ID, InvestmentFilter{Window: pagination.Window{Limit: 100}})
		testutil.AssertNoError(t, err)
		if total != 3 || len(got) != 3 {
			t.Errorf("expected 3 investments, got total=%d len=%d", total, len(got))
		}
	})

	t.Run("by_status", func(t *testing.T) {
		status := models.InvestmentStatusActive
		got, total, err := repo.ListInvestments(ctx, user.ID, InvestmentFilter{Status: &status})
		testutil.AssertNoError(t, err)
		if total != 2 || len(got) != 2 {
			t.Errorf("expected 2 active investments, got total=%d len=%d", total, len(got))
		}
	})

	t.Run("by_type", func(t *testing.T) {
		typ := models.InvestmentTypeTreasuryBill
		got, total, err := repo.ListInvestments(ctx, user.ID, InvestmentFilter{Type: &typ})
		testutil.AssertNoError(t, err)
		if total != 1 || len(got) != 1 || got[0].Type != typ {
			t.Errorf("expected the single bill, got total=%d %+v", total, got)
		}
	})

	t.Run("window", func(t *testing.T) {
		got, total, err := repo.ListInvestments(ctx, user.ID, InvestmentFilter{Window: pagination.Window{Skip: 2, Limit: 2}})
		testutil.AssertNoError(t, err)
		if total != 3 {
			t.Errorf("expected total 3 regardless of window, got %d", total)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 investment after skipping 2, got %d", len(got))
		}
	})
}

func TestDeleteInvestment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInvestmentRepository(db)
	user := testutil.CreateTestUser(t, db)
	inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
	testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.July, 15), "5000.00", models.PaymentStatusPending)
	ctx := context.Background()

	testutil.AssertNoError(t, repo.DeleteInvestment(ctx, inv))

	var remaining int64
	db.Model(&models.PaymentEvent{}).Where("investment_id = ?", inv.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected events to be deleted, %d remain", remaining)
	}

	_, err := repo.GetInvestment(ctx, user.ID, inv.ID, false)
	testutil.AssertAppError(t, err, "INVESTMENT_NOT_FOUND")
}

func TestListPaymentEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInvestmentRepository(db)
	user := testutil.CreateTestUser(t, db)
	a := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
	b := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
	ctx := context.Background()

	testutil.CreateTestPayment(t, db, a.ID, testutil.Date(2024, time.July, 15), "1.00", models.PaymentStatusPaid)
	testutil.CreateTestPayment(t, db, a.ID, testutil.Date(2025, time.January, 15), "2.00", models.PaymentStatusPending)
	testutil.CreateTestPayment(t, db, b.ID, testutil.Date(2024, time.October, 1), "3.00", models.PaymentStatusDue)

	t.Run("empty_id_set", func(t *testing.T) {
		got, err := repo.ListPaymentEvents(ctx, nil, PaymentFilter{})
		testutil.AssertNoError(t, err)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil slice, got %v", got)
		}
	})

	t.Run("ordered_across_investments", func(t *testing.T) {
		got, err := repo.ListPaymentEvents(ctx, []string{a.ID, b.ID}, PaymentFilter{})
		testutil.AssertNoError(t, err)
		if len(got) != 3 {
			t.Fatalf("expected 3 events, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].PaymentDate.Before(got[i-1].PaymentDate) {
				t.Errorf("events out of order at %d", i)
			}
		}
	})

	t.Run("status_and_range", func(t *testing.T) {
		from := testutil.Date(2024, time.September, 1)
		to := testutil.Date(2024, time.December, 31)
		got, err := repo.ListPaymentEvents(ctx, []string{a.ID, b.ID}, PaymentFilter{
			Statuses: models.OutstandingPaymentStatuses,
			From:     &from,
			To:       &to,
		})
		testutil.AssertNoError(t, err)
		if len(got) != 1 || got[0].InvestmentID != b.ID {
			t.Errorf("expected only b's due event, got %+v", got)
		}
	})
}

func TestUpdatePaymentEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInvestmentRepository(db)
	user := testutil.CreateTestUser(t, db)
	inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
	p := testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.July, 15), "5000.00", models.PaymentStatusDue)
	ctx := context.Background()

	status := models.PaymentStatusPaid
	amount := decimal.RequireFromString("5000")
	paidOn := testutil.Date(2024, time.July, 16)
	changes, err := models.PaymentUpdate{Status: &status, ActualPaymentDate: &paidOn, ActualPaymentAmount: &amount}.Apply(p)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, repo.UpdatePaymentEvent(ctx, p, changes))

	got, err := repo.GetPaymentEvent(ctx, inv.ID, p.ID)
	testutil.AssertNoError(t, err)
	if got.PaymentStatus != models.PaymentStatusPaid {
		t.Errorf("expected paid, got %s", got.PaymentStatus)
	}
	if !got.ActualPaymentAmount.Valid {
		t.Fatal("expected actual amount to be set")
	}
	testutil.AssertDecimal(t, got.ActualPaymentAmount.Decimal, "5000", "actual amount")

	_, err = repo.GetPaymentEvent(ctx, "0190a000-0000-7000-8000-000000000000", p.ID)
	testutil.AssertAppError(t, err, "PAYMENT_NOT_FOUND")
}

func TestTransitionPaymentStatuses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := NewInvestmentRepository(db)
	user := testutil.CreateTestUser(t, db)
	inv := testutil.CreateTestInvestment(t, db, testutil.NewTestNote(user.ID))
	ctx := context.Background()

	past := testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.July, 15), "1.00", models.PaymentStatusPending)
	today := testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.August, 1), "1.00", models.PaymentStatusPending)
	future := testutil.CreateTestPayment(t, db, inv.ID, testutil.Date(2024, time.September, 1), "1.00", models.PaymentStatusPending)

	n, err := repo.TransitionPaymentStatuses(ctx, models.PaymentStatusPending, models.PaymentStatusDue, testutil.Date(2024, time.August, 1))
	testutil.AssertNoError(t, err)
	if n != 2 {
		t.Errorf("expected 2 events moved, got %d", n)
	}

	want := map[string]models.PaymentStatus{
		past.ID:   models.PaymentStatusDue,
		today.ID:  models.PaymentStatusDue,
		future.ID: models.PaymentStatusPending,
	}
	for id, status := range want {
		got, err := repo.GetPaymentEvent(ctx, inv.ID, id)
		testutil.AssertNoError(t, err)
		if got.PaymentStatus != status {
			t.Errorf("event %s: expected %s, got %s", id, status, got.PaymentStatus)
		}
	}
}
