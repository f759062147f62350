package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateUUID generates a UUID v4 string, used as plan ids.
func GenerateUUID() string {
	return uuid.New().String()
}

// RandomHex generates a random hex string of n bytes.
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// TrackingCode generates the short code shown to buyers to reference
// their order: 8 uppercase hex characters.
func TrackingCode() string {
	return strings.ToUpper(RandomHex(4))
}

// PanelUsername synthesizes a username for a new panel account:
// user_<telegramID>_<4 hex chars>. Not guaranteed unique by construction;
// the provisioning pipeline retries once with a fresh suffix on conflict.
func PanelUsername(telegramID int64) string {
	return fmt.Sprintf("user_%d_%s", telegramID, RandomHex(2))
}

// FormatTraffic converts a byte count to a human-readable string.
// A nil count renders the fixed "N/A" token, zero means unlimited-ish
// and is rendered as plain bytes.
func FormatTraffic(bytes *int64) string {
	if bytes == nil {
		return "N/A"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	size := float64(*bytes)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}

// FormatPrice renders a price stored in thousand-toman units.
// 250 => "250,000 تومان", 1500 => "1.5 میلیون تومان".
func FormatPrice(thousands int) string {
	if thousands < 1000 {
		return FormatNumber(int64(thousands)*1000) + " تومان"
	}
	million := float64(thousands) / 1000
	s := strconv.FormatFloat(million, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return s + " میلیون تومان"
}

// FormatNumber adds comma separators to a number.
func FormatNumber(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// GBToBytes converts gigabytes to bytes.
func GBToBytes(gb int) int64 {
	return int64(gb) << 30
}

// RemainingDays returns whole days until a unix expiry timestamp,
// negative when already expired. A zero timestamp means unlimited.
func RemainingDays(expire int64) int {
	return int((expire - time.Now().Unix()) / 86400)
}

// ParseInt safely converts string to int with a default value.
func ParseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}
