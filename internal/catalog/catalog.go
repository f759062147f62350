// Package catalog holds the flat-file configuration the bot sells from:
// the plan catalog, runtime settings and the admin set. Each document is
// read-mostly, cached in memory and replaced wholesale on every write.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Plan is a sellable offering provisioned against one panel.
type Plan struct {
	Name         string `json:"name"`
	Price        int    `json:"price"` // thousand-toman units
	DataLimitGB  int    `json:"data_limit_gb"`
	DurationDays int    `json:"duration_days"`
	UserLimit    int    `json:"user_limit"` // 0 = unlimited
	PanelID      uint   `json:"panel_id"`
}

// Settings is the bot-wide settings document.
type Settings struct {
	BotName     string `json:"bot_name"`
	Maintenance struct {
		Enabled bool   `json:"enabled"`
		Message string `json:"message"`
	} `json:"maintenance"`
	ForceJoin struct {
		Enabled   bool   `json:"enabled"`
		ChannelID string `json:"channel_id"`
	} `json:"force_join"`
	Payment struct {
		CardEnabled bool   `json:"card_to_card_enabled"`
		CardNumber  string `json:"card_number"`
		CardHolder  string `json:"card_holder"`
	} `json:"payment"`
}

func defaultSettings() Settings {
	var s Settings
	s.BotName = "VPNShop"
	s.Maintenance.Message = "ربات در حال حاضر در دست تعمیر است. لطفا بعدا تلاش کنید."
	return s
}

// Store manages the three catalog documents under one data directory.
// Writes rewrite the backing file, then swap the in-memory copy; a crash
// between the two can leave them briefly inconsistent, which is
// acceptable for this workload.
type Store struct {
	dir       string
	rootAdmin int64

	mu       sync.RWMutex
	plans    map[string]Plan
	settings Settings
	admins   map[int64]bool
}

// Open loads (or initializes) the catalog files in dir. The root admin
// is always a member of the admin set and can never be removed.
func Open(dir string, rootAdmin int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := &Store{
		dir:       dir,
		rootAdmin: rootAdmin,
		plans:     make(map[string]Plan),
		settings:  defaultSettings(),
		admins:    map[int64]bool{rootAdmin: true},
	}

	if err := loadJSON(s.path("plans.json"), &s.plans); err != nil {
		return nil, err
	}
	if err := loadJSON(s.path("settings.json"), &s.settings); err != nil {
		return nil, err
	}
	var adminList []int64
	if err := loadJSON(s.path("admins.json"), &adminList); err != nil {
		return nil, err
	}
	for _, id := range adminList {
		s.admins[id] = true
	}
	s.admins[rootAdmin] = true

	return s, nil
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// ── Plans ─────────────────────────────────────────────────────────────

// Plans returns a copy of the plan catalog.
func (s *Store) Plans() map[string]Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Plan, len(s.plans))
	for id, p := range s.plans {
		out[id] = p
	}
	return out
}

// Plan looks up one plan by id.
func (s *Store) Plan(id string) (Plan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	return p, ok
}

// SavePlan inserts or replaces a plan and rewrites the catalog file.
func (s *Store) SavePlan(id string, p Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]Plan, len(s.plans)+1)
	for k, v := range s.plans {
		next[k] = v
	}
	next[id] = p
	if err := writeJSON(s.path("plans.json"), next); err != nil {
		return err
	}
	s.plans = next
	return nil
}

// DeletePlan removes a plan and rewrites the catalog file.
func (s *Store) DeletePlan(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]Plan, len(s.plans))
	for k, v := range s.plans {
		if k != id {
			next[k] = v
		}
	}
	if err := writeJSON(s.path("plans.json"), next); err != nil {
		return err
	}
	s.plans = next
	return nil
}

// PanelInUse reports whether any plan provisions against the panel.
// Panels referenced by a plan cannot be deleted.
func (s *Store) PanelInUse(panelID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.plans {
		if p.PanelID == panelID {
			return true
		}
	}
	return false
}

// ── Settings ──────────────────────────────────────────────────────────

// Settings returns the current settings document.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// SaveSettings replaces the settings document wholesale.
func (s *Store) SaveSettings(next Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSON(s.path("settings.json"), next); err != nil {
		return err
	}
	s.settings = next
	return nil
}

// ── Admins ────────────────────────────────────────────────────────────

// IsAdmin reports whether the chat id belongs to an administrator.
func (s *Store) IsAdmin(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[id]
}

// IsRootAdmin reports whether the chat id is the root administrator.
func (s *Store) IsRootAdmin(id int64) bool {
	return id == s.rootAdmin
}

// Admins returns the admin chat ids.
func (s *Store) Admins() []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]int64, 0, len(s.admins))
	for id := range s.admins {
		out = append(out, id)
	}
	return out
}

// AddAdmin grants admin rights and rewrites the admin file.
func (s *Store) AddAdmin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[int64]bool, len(s.admins)+1)
	for k := range s.admins {
		next[k] = true
	}
	next[id] = true
	if err := s.writeAdmins(next); err != nil {
		return err
	}
	s.admins = next
	return nil
}

// RemoveAdmin revokes admin rights. The root admin cannot be removed.
func (s *Store) RemoveAdmin(id int64) error {
	if id == s.rootAdmin {
		return fmt.Errorf("root admin cannot be removed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[int64]bool, len(s.admins))
	for k := range s.admins {
		if k != id {
			next[k] = true
		}
	}
	if err := s.writeAdmins(next); err != nil {
		return err
	}
	s.admins = next
	return nil
}

func (s *Store) writeAdmins(set map[int64]bool) error {
	list := make([]int64, 0, len(set))
	for id := range set {
		list = append(list, id)
	}
	return writeJSON(s.path("admins.json"), list)
}

// ── File helpers ──────────────────────────────────────────────────────

func loadJSON(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
