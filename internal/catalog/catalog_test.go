package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), 111)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestPlansRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 111)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	plan := Plan{Name: "سرویس 10 گیگ - 30 روزه", Price: 250, DataLimitGB: 10, DurationDays: 30, PanelID: 3}
	if err := s.SavePlan("p1", plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	// A fresh store over the same directory must see the saved plan.
	s2, err := Open(dir, 111)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, ok := s2.Plan("p1")
	if !ok {
		t.Fatal("plan not found after reload")
	}
	if got != plan {
		t.Errorf("reloaded plan = %+v, want %+v", got, plan)
	}

	if err := s2.DeletePlan("p1"); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}
	if _, ok := s2.Plan("p1"); ok {
		t.Error("plan still present after delete")
	}
}

func TestPanelInUse(t *testing.T) {
	s := openTestStore(t)
	if err := s.SavePlan("p1", Plan{Name: "x", PanelID: 7}); err != nil {
		t.Fatal(err)
	}
	if !s.PanelInUse(7) {
		t.Error("PanelInUse(7) = false, want true")
	}
	if s.PanelInUse(8) {
		t.Error("PanelInUse(8) = true, want false")
	}
	if err := s.DeletePlan("p1"); err != nil {
		t.Fatal(err)
	}
	if s.PanelInUse(7) {
		t.Error("PanelInUse(7) = true after plan removal")
	}
}

func TestAdminSet(t *testing.T) {
	s := openTestStore(t)

	if !s.IsAdmin(111) {
		t.Error("root admin must always be an admin")
	}
	if err := s.RemoveAdmin(111); err == nil {
		t.Error("removing the root admin must fail")
	}

	if err := s.AddAdmin(222); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	if !s.IsAdmin(222) {
		t.Error("added admin not recognized")
	}
	if err := s.RemoveAdmin(222); err != nil {
		t.Fatalf("RemoveAdmin: %v", err)
	}
	if s.IsAdmin(222) {
		t.Error("removed admin still recognized")
	}
}

func TestSettingsReplacedWholesale(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, 111)
	if err != nil {
		t.Fatal(err)
	}

	next := s.Settings()
	next.Maintenance.Enabled = true
	next.Payment.CardEnabled = true
	next.Payment.CardNumber = "6037-0000-0000-0000"
	if err := s.SaveSettings(next); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	if !s.Settings().Maintenance.Enabled {
		t.Error("in-memory settings not swapped")
	}

	// The backing file must have been rewritten.
	if _, err := os.Stat(filepath.Join(dir, "settings.json")); err != nil {
		t.Errorf("settings.json not written: %v", err)
	}
	s2, err := Open(dir, 111)
	if err != nil {
		t.Fatal(err)
	}
	if got := s2.Settings().Payment.CardNumber; got != "6037-0000-0000-0000" {
		t.Errorf("reloaded card number = %q", got)
	}
}
