package repository

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vpnshop/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Panel{}, &models.Account{}, &models.Order{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createPendingOrder(t *testing.T, repo *OrderRepository, db *gorm.DB, code string) *models.Order {
	t.Helper()
	user := &models.User{TelegramID: 123, FirstName: "Buyer"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	order := &models.Order{TrackingCode: code, UserID: user.ID, PlanID: "p1"}
	if err := repo.Create(order, map[int64]int{555: 10, 556: 11}); err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

func reloadOrder(t *testing.T, repo *OrderRepository, code string) *models.Order {
	t.Helper()
	order, err := repo.FindByTrackingCode(code)
	if err != nil {
		t.Fatalf("reload order: %v", err)
	}
	return order
}

func TestResolveClaimsExactlyOnce(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	createPendingOrder(t, repo, db, "AB12CD34")

	if err := repo.Resolve("AB12CD34", models.OrderConfirmed, "alice"); err != nil {
		t.Fatalf("first decision: %v", err)
	}

	// A second admin racing the first must get a reported no-op.
	err := repo.Resolve("AB12CD34", models.OrderRejected, "bob")
	if !errors.Is(err, ErrOrderResolved) {
		t.Fatalf("second decision err = %v, want ErrOrderResolved", err)
	}

	order := reloadOrder(t, repo, "AB12CD34")
	if order.Status != models.OrderConfirmed {
		t.Errorf("status = %q, want %q (losing decision must not overwrite)", order.Status, models.OrderConfirmed)
	}
	if order.ProcessedBy != "alice" {
		t.Errorf("processed_by = %q, want %q", order.ProcessedBy, "alice")
	}
}

func TestResolveUnknownCode(t *testing.T) {
	repo := NewOrderRepository(openTestDB(t))
	if err := repo.Resolve("NOPE0000", models.OrderConfirmed, "alice"); !errors.Is(err, ErrOrderResolved) {
		t.Fatalf("err = %v, want ErrOrderResolved", err)
	}
}

func TestMarkFailedOnlyAfterClaim(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	createPendingOrder(t, repo, db, "AB12CD34")

	// Provisioning failure path: claim first, then fail.
	if err := repo.Resolve("AB12CD34", models.OrderConfirmed, "alice"); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := repo.MarkFailed("AB12CD34"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if got := reloadOrder(t, repo, "AB12CD34").Status; got != models.OrderFailed {
		t.Errorf("status = %q, want %q", got, models.OrderFailed)
	}

	// Failed is terminal; a repeat is a reported no-op.
	if err := repo.MarkFailed("AB12CD34"); !errors.Is(err, ErrOrderResolved) {
		t.Errorf("repeat mark-failed err = %v, want ErrOrderResolved", err)
	}
}

func TestMarkFailedCannotClobberRejection(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	createPendingOrder(t, repo, db, "EF56AB78")

	if err := repo.Resolve("EF56AB78", models.OrderRejected, "alice"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if err := repo.MarkFailed("EF56AB78"); !errors.Is(err, ErrOrderResolved) {
		t.Fatalf("mark-failed on rejected order err = %v, want ErrOrderResolved", err)
	}
	if got := reloadOrder(t, repo, "EF56AB78").Status; got != models.OrderRejected {
		t.Errorf("status = %q, want %q (rejection must stick)", got, models.OrderRejected)
	}
}

func TestAdminMessageIDsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := NewOrderRepository(db)
	createPendingOrder(t, repo, db, "AB12CD34")

	order := reloadOrder(t, repo, "AB12CD34")
	ids := repo.AdminMessageIDs(order)
	if len(ids) != 2 || ids[555] != 10 || ids[556] != 11 {
		t.Errorf("decoded admin message ids = %v, want map[555:10 556:11]", ids)
	}

	if ids := repo.AdminMessageIDs(&models.Order{}); len(ids) != 0 {
		t.Errorf("empty column decoded to %v, want empty map", ids)
	}
}
