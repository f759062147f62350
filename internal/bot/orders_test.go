package bot

import (
	"strings"
	"testing"
)

func TestBuyerNoticesCarryTrackingCode(t *testing.T) {
	const code = "AB12CD34"

	for name, notice := range map[string]string{
		"rejection":         rejectionNotice(code),
		"provision failure": provisionFailureNotice(code),
	} {
		if !strings.Contains(notice, code) {
			t.Errorf("%s notice does not carry the tracking code: %q", name, notice)
		}
	}
}
