package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func memoryDeduper(t *testing.T, ttl time.Duration) *Deduper {
	t.Helper()
	d, err := NewDeduper("", "", 0, ttl)
	if err != nil {
		t.Fatalf("NewDeduper: %v", err)
	}
	return d
}

func TestDeduperSuppressesRepeats(t *testing.T) {
	d := memoryDeduper(t, time.Minute)

	if d.Seen(context.Background(), 42) {
		t.Fatal("first sighting reported as duplicate")
	}
	if !d.Seen(context.Background(), 42) {
		t.Fatal("second sighting not reported as duplicate")
	}
	if d.Seen(context.Background(), 43) {
		t.Fatal("distinct update id reported as duplicate")
	}
}

func TestDeduperExpiry(t *testing.T) {
	d := memoryDeduper(t, 10*time.Millisecond)
	d.Seen(context.Background(), 7)
	time.Sleep(20 * time.Millisecond)

	if d.Seen(context.Background(), 7) {
		t.Fatal("expired entry still reported as duplicate")
	}
}

func dedupRequest(t *testing.T, mw echo.MiddlewareFunc, body string) (int, bool) {
	t.Helper()

	e := echo.New()
	handled := false
	h := mw(func(c echo.Context) error {
		handled = true
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec.Code, handled
}

func TestTelegramUpdateDedupMiddleware(t *testing.T) {
	mw := TelegramUpdateDedup(memoryDeduper(t, time.Minute))

	code, handled := dedupRequest(t, mw, `{"update_id":100}`)
	if code != http.StatusOK || !handled {
		t.Fatalf("fresh update: code=%d handled=%v", code, handled)
	}

	code, handled = dedupRequest(t, mw, `{"update_id":100}`)
	if code != http.StatusOK || handled {
		t.Fatalf("duplicate update must be swallowed with 200: code=%d handled=%v", code, handled)
	}

	// Unparseable bodies always pass through.
	_, handled = dedupRequest(t, mw, "not-json")
	if !handled {
		t.Fatal("malformed body must reach the handler")
	}
}

func TestDedupRestoresBody(t *testing.T) {
	mw := TelegramUpdateDedup(memoryDeduper(t, time.Minute))

	e := echo.New()
	var got string
	h := mw(func(c echo.Context) error {
		raw, _ := io.ReadAll(c.Request().Body)
		got = string(raw)
		return c.NoContent(http.StatusOK)
	})

	body := `{"update_id":200,"message":{"text":"hi"}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	if err := h(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if got != body {
		t.Errorf("downstream body = %q, want original payload", got)
	}
}
