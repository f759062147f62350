package bot

import (
	"testing"

	"vpnshop/internal/catalog"
)

func TestSortedPlanIDsOrder(t *testing.T) {
	plans := map[string]catalog.Plan{
		"c": {Name: "C", Price: 300},
		"a": {Name: "A", Price: 100},
		"b": {Name: "B", Price: 100},
		"d": {Name: "D", Price: 200},
	}

	got := sortedPlanIDs(plans)
	want := []string{"a", "b", "d", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %d ids, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v (cheapest first, id as tiebreak)", got, want)
		}
	}
}

func TestMainMenuAdminRow(t *testing.T) {
	const rootAdmin = int64(777)
	store, err := catalog.Open(t.TempDir(), rootAdmin)
	if err != nil {
		t.Fatal(err)
	}
	b := &Bot{catalog: store}

	hasAdminRow := func(chatID int64) bool {
		for _, row := range b.mainMenuMarkup(chatID).InlineKeyboard {
			for _, button := range row {
				if button.Data == "admin_panel_show" {
					return true
				}
			}
		}
		return false
	}

	if !hasAdminRow(rootAdmin) {
		t.Error("root admin must see the admin panel button")
	}
	if hasAdminRow(12345) {
		t.Error("ordinary user must not see the admin panel button")
	}
}
