package bot

// Step is the conversation state persisted per user. Exactly one step is
// active for a chat at a time and it only advances on explicit user
// actions: menu taps, text replies and photo uploads.
type Step string

const (
	// StepNone is the root state: the user is at the main menu and no
	// text input is expected.
	StepNone Step = ""

	// Purchase flow.
	StepAwaitingReceipt Step = "awaiting_receipt"

	// Admin: add panel (name -> type -> url -> token).
	StepPanelName  Step = "panel_name"
	StepPanelURL   Step = "panel_url"
	StepPanelToken Step = "panel_token"

	// Admin: add plan (price -> gb -> days -> optional user limit).
	StepPlanPrice     Step = "plan_price"
	StepPlanGB        Step = "plan_gb"
	StepPlanDays      Step = "plan_days"
	StepPlanUserLimit Step = "plan_user_limit"

	// Admin: misc data entry.
	StepAdminAdd           Step = "admin_add"
	StepAdminRemove        Step = "admin_remove"
	StepMaintenanceMessage Step = "maintenance_message"
	StepChannelID          Step = "channel_id"
	StepBroadcast          Step = "broadcast"
	StepAccountRename      Step = "account_rename"
)

// textEntrySteps lists every step that consumes a text reply. Steps
// outside this set (stale rows, removed features) normalize to the root
// state, so no input can ever trap a chat.
var textEntrySteps = map[Step]bool{
	StepAwaitingReceipt:    true, // consumes a reprompt for non-photo input
	StepPanelName:          true,
	StepPanelURL:           true,
	StepPanelToken:         true,
	StepPlanPrice:          true,
	StepPlanGB:             true,
	StepPlanDays:           true,
	StepPlanUserLimit:      true,
	StepAdminAdd:           true,
	StepAdminRemove:        true,
	StepMaintenanceMessage: true,
	StepChannelID:          true,
	StepBroadcast:          true,
	StepAccountRename:      true,
}

// NormalizeStep maps a persisted step value to a live state. Unknown
// values fall back to the root state.
func NormalizeStep(raw string) Step {
	s := Step(raw)
	if s == StepNone || textEntrySteps[s] {
		return s
	}
	return StepNone
}

// TextEntrySteps returns every step that expects a text reply.
func TextEntrySteps() []Step {
	out := make([]Step, 0, len(textEntrySteps))
	for s := range textEntrySteps {
		out = append(out, s)
	}
	return out
}
