package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const dedupKeyPrefix = "vpnshop:update:"

// Deduper remembers recently processed Telegram update ids. Telegram
// redelivers a webhook update until it gets a 2xx, so a slow decision
// handler can see the same confirm button twice; the deduper makes the
// second delivery a no-op before it reaches telebot.
//
// Backed by Redis SetNX when a server is reachable, so suppression
// survives restarts; otherwise an in-process map with TTL sweeping.
type Deduper struct {
	rdb *redis.Client
	ttl time.Duration

	mu        sync.Mutex
	seen      map[int64]time.Time
	nextSweep time.Time
}

// NewDeduper connects to Redis at addr. An empty addr or a failed ping
// yields a memory-only deduper; the ping error is returned alongside it
// so the caller can log the degradation.
func NewDeduper(addr, pass string, db int, ttl time.Duration) (*Deduper, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	d := &Deduper{
		ttl:       ttl,
		seen:      make(map[int64]time.Time),
		nextSweep: time.Now().Add(ttl),
	}
	if addr == "" {
		return d, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return d, err
	}

	d.rdb = rdb
	return d, nil
}

// Seen records the update id and reports whether it was already known.
// A Redis error degrades to the in-process map for that call rather
// than failing the request.
func (d *Deduper) Seen(ctx context.Context, updateID int64) bool {
	if d.rdb != nil {
		key := dedupKeyPrefix + strconv.FormatInt(updateID, 10)
		fresh, err := d.rdb.SetNX(ctx, key, "1", d.ttl).Result()
		if err == nil {
			return !fresh
		}
	}
	return d.seenLocal(updateID)
}

func (d *Deduper) seenLocal(updateID int64) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[updateID]; ok && exp.After(now) {
		return true
	}
	d.seen[updateID] = now.Add(d.ttl)

	if now.After(d.nextSweep) {
		for id, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, id)
			}
		}
		d.nextSweep = now.Add(d.ttl)
	}
	return false
}

// TelegramUpdateDedup answers duplicate webhook deliveries with a bare
// 200 before they reach the bot. The middleware only ever suppresses:
// unreadable or unparseable bodies pass through untouched.
func TelegramUpdateDedup(d *Deduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if d == nil {
				return next(c)
			}

			id := extractUpdateID(c.Request())
			if id == 0 {
				return next(c)
			}
			if d.Seen(c.Request().Context(), id) {
				// Telegram only needs a 2xx response to stop retries.
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}

// extractUpdateID reads update_id from the request body and restores the
// body for the downstream handler. Returns 0 when there is nothing to
// deduplicate on.
func extractUpdateID(req *http.Request) int64 {
	if req.Body == nil {
		return 0
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return 0
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	var payload struct {
		UpdateID int64 `json:"update_id"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0
	}
	return payload.UpdateID
}
