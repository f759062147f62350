package panel

import (
	"fmt"
	"strings"

	"vpnshop/internal/models"
)

// Types lists the supported panel type identifiers, in the order they
// are offered to admins when adding a panel.
func Types() []string {
	return []string{models.PanelMarzban, models.PanelSanaei}
}

// New returns the client implementation for a configured panel. Lookup
// is case-insensitive; an unknown type yields a descriptive error for
// the caller to handle, never a panic. Configuration can drift from the
// supported set, so every caller must handle the error case.
func New(p *models.Panel) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(p.Type)) {
	case models.PanelMarzban:
		return NewMarzbanClient(p.APIURL, p.APIToken), nil
	case models.PanelSanaei:
		return NewSanaeiClient(p.APIURL, p.APIToken), nil
	default:
		return nil, fmt.Errorf("unsupported panel type: %q", p.Type)
	}
}
