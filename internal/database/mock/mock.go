// Package mock provides in-memory implementations of the storage interfaces
// for testing. The attendance store enforces the same transition semantics as
// the PostgreSQL implementation, including per-user atomicity.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mtpl/face-attendance/internal/attendance"
	"github.com/mtpl/face-attendance/internal/database"
)

// TemplateStore is an in-memory database.TemplateStore.
type TemplateStore struct {
	mu        sync.Mutex
	nextID    int64
	dim       int
	templates []database.StoredTemplate

	// Error injection
	AddError     error
	ReplaceError error
	ListError    error
	DeactError   error
	CountError   error
}

// NewTemplateStore creates an empty template store for the given dimension.
func NewTemplateStore(dim int) *TemplateStore {
	return &TemplateStore{dim: dim}
}

// Add inserts a new active template.
func (s *TemplateStore) Add(ctx context.Context, userID int64, embedding []float32) (*database.StoredTemplate, error) {
	if s.AddError != nil {
		return nil, s.AddError
	}
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", database.ErrInvalidEmbedding, len(embedding), s.dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := database.StoredTemplate{
		ID:        s.nextID,
		UID:       fmt.Sprintf("mock-uid-%d", s.nextID),
		UserID:    userID,
		Embedding: append([]float32(nil), embedding...),
		Dim:       s.dim,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	s.templates = append(s.templates, t)
	return &t, nil
}

// Replace swaps the user's active template for a new one as one unit. On an
// injected error the store is left unchanged, like a rolled-back transaction.
func (s *TemplateStore) Replace(ctx context.Context, userID int64, embedding []float32) (*database.StoredTemplate, error) {
	if s.ReplaceError != nil {
		return nil, s.ReplaceError
	}
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", database.ErrInvalidEmbedding, len(embedding), s.dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templates {
		if s.templates[i].UserID == userID && s.templates[i].IsActive {
			s.templates[i].IsActive = false
		}
	}
	s.nextID++
	t := database.StoredTemplate{
		ID:        s.nextID,
		UID:       fmt.Sprintf("mock-uid-%d", s.nextID),
		UserID:    userID,
		Embedding: append([]float32(nil), embedding...),
		Dim:       s.dim,
		IsActive:  true,
		CreatedAt: time.Now(),
	}
	s.templates = append(s.templates, t)
	return &t, nil
}

// Deactivate marks the user's active template inactive.
func (s *TemplateStore) Deactivate(ctx context.Context, userID int64) error {
	if s.DeactError != nil {
		return s.DeactError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templates {
		if s.templates[i].UserID == userID && s.templates[i].IsActive {
			s.templates[i].IsActive = false
		}
	}
	return nil
}

// ActiveTemplates returns active templates in insertion order.
func (s *TemplateStore) ActiveTemplates(ctx context.Context) ([]database.StoredTemplate, error) {
	if s.ListError != nil {
		return nil, s.ListError
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []database.StoredTemplate
	for _, t := range s.templates {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active, nil
}

// CountActive returns the number of active templates.
func (s *TemplateStore) CountActive(ctx context.Context) (int, error) {
	if s.CountError != nil {
		return 0, s.CountError
	}
	active, _ := s.ActiveTemplates(ctx)
	return len(active), nil
}

// AttendanceStore is an in-memory attendance.Repository. Transitions run
// under a single mutex so the check-and-write is atomic, mirroring the row
// locks of the PostgreSQL implementation.
type AttendanceStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[string]*attendance.Record // keyed by userID/day

	TransitionError error
}

// NewAttendanceStore creates an empty attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{records: make(map[string]*attendance.Record)}
}

func dayKey(userID int64, day string) string {
	return fmt.Sprintf("%d/%s", userID, day)
}

// Transition atomically applies one state-machine action.
func (s *AttendanceStore) Transition(ctx context.Context, userID int64, day string, action attendance.Action, now time.Time, meta attendance.TransitionMeta) (*attendance.Record, error) {
	if s.TransitionError != nil {
		return nil, s.TransitionError
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.records[dayKey(userID, day)]
	applied, err := attendance.Apply(rec, userID, day, action, now, meta)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		s.nextID++
		applied.ID = s.nextID
		s.records[dayKey(userID, day)] = applied
	}
	copied := *applied
	return &copied, nil
}

// Get returns the record for (user, day), or nil when absent.
func (s *AttendanceStore) Get(ctx context.Context, userID int64, day string) (*attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[dayKey(userID, day)]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

// Latest returns the most recent records.
func (s *AttendanceStore) Latest(ctx context.Context, limit int) ([]attendance.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var records []attendance.Record
	for _, rec := range s.records {
		records = append(records, *rec)
	}
	for i := 0; i < len(records)-1; i++ {
		for j := i + 1; j < len(records); j++ {
			if records[j].CreatedAt.After(records[i].CreatedAt) {
				records[i], records[j] = records[j], records[i]
			}
		}
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// StatsForDay aggregates counts for one day.
func (s *AttendanceStore) StatsForDay(ctx context.Context, day string) (database.DayStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats database.DayStats
	for _, rec := range s.records {
		if rec.Day != day {
			continue
		}
		if rec.ClockInTime != nil {
			stats.Present++
		}
		switch rec.State {
		case attendance.StateOnBreak:
			stats.OnBreak++
		case attendance.StateClockedOut:
			stats.ClockedOut++
		}
	}
	return stats, nil
}

// PresenceStore is an in-memory database.PresenceStore.
type PresenceStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64][]database.PresenceRecord
}

// NewPresenceStore creates an empty presence store.
func NewPresenceStore() *PresenceStore {
	return &PresenceStore{records: make(map[int64][]database.PresenceRecord)}
}

// Mark inserts a presence row unless one exists within the window.
func (s *PresenceStore) Mark(ctx context.Context, userID int64, now time.Time, window time.Duration) (*database.PresenceRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.records[userID]
	if len(history) > 0 {
		last := history[len(history)-1]
		if now.Sub(last.MarkedAt) <= window {
			return &last, false, nil
		}
	}

	s.nextID++
	rec := database.PresenceRecord{ID: s.nextID, UserID: userID, MarkedAt: now, Source: "live_camera"}
	s.records[userID] = append(history, rec)
	return &rec, true, nil
}

// Count returns the number of presence rows for a user.
func (s *PresenceStore) Count(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records[userID])
}

// SettingsStore is an in-memory database.SettingsStore.
type SettingsStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewSettingsStore creates an empty settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{values: make(map[string]string)}
}

// Get returns the value for key.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set upserts a setting.
func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// AllowedIPStore is an in-memory database.AllowedIPStore.
type AllowedIPStore struct {
	mu     sync.Mutex
	nextID int64
	ips    []database.AllowedIP
}

// NewAllowedIPStore creates an allow-list store seeded with the given
// addresses, all active.
func NewAllowedIPStore(addresses ...string) *AllowedIPStore {
	s := &AllowedIPStore{}
	for _, addr := range addresses {
		s.nextID++
		s.ips = append(s.ips, database.AllowedIP{
			ID: s.nextID, Address: addr, IsActive: true, CreatedAt: time.Now(),
		})
	}
	return s
}

// ActiveAddresses returns the active addresses.
func (s *AllowedIPStore) ActiveAddresses(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var addrs []string
	for _, ip := range s.ips {
		if ip.IsActive {
			addrs = append(addrs, ip.Address)
		}
	}
	return addrs, nil
}

// List returns all entries.
func (s *AllowedIPStore) List(ctx context.Context) ([]database.AllowedIP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.AllowedIP(nil), s.ips...), nil
}

// Add inserts a new active entry.
func (s *AllowedIPStore) Add(ctx context.Context, address, description string) (*database.AllowedIP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ip := database.AllowedIP{
		ID: s.nextID, Address: address, Description: description,
		IsActive: true, CreatedAt: time.Now(),
	}
	s.ips = append(s.ips, ip)
	return &ip, nil
}

// Delete removes an entry.
func (s *AllowedIPStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ip := range s.ips {
		if ip.ID == id {
			s.ips = append(s.ips[:i], s.ips[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("allowed IP %d: %w", id, database.ErrNotFound)
}

// Toggle flips the active flag of an entry.
func (s *AllowedIPStore) Toggle(ctx context.Context, id int64) (*database.AllowedIP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.ips {
		if s.ips[i].ID == id {
			s.ips[i].IsActive = !s.ips[i].IsActive
			ip := s.ips[i]
			return &ip, nil
		}
	}
	return nil, fmt.Errorf("allowed IP %d: %w", id, database.ErrNotFound)
}

// HolidayStore is an in-memory database.HolidayStore.
type HolidayStore struct {
	mu       sync.Mutex
	nextID   int64
	holidays []database.Holiday
}

// NewHolidayStore creates an empty holiday store.
func NewHolidayStore() *HolidayStore {
	return &HolidayStore{}
}

// List returns all holidays.
func (s *HolidayStore) List(ctx context.Context) ([]database.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.Holiday(nil), s.holidays...), nil
}

// Add inserts a holiday.
func (s *HolidayStore) Add(ctx context.Context, date, name string, isWeekoff bool) (*database.Holiday, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	h := database.Holiday{ID: s.nextID, Date: date, Name: name, IsWeekoff: isWeekoff, CreatedAt: time.Now()}
	s.holidays = append(s.holidays, h)
	return &h, nil
}

// Delete removes a holiday.
func (s *HolidayStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, h := range s.holidays {
		if h.ID == id {
			s.holidays = append(s.holidays[:i], s.holidays[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("holiday %d: %w", id, database.ErrNotFound)
}

// UserDirectory is an in-memory database.UserDirectory.
type UserDirectory struct {
	mu    sync.Mutex
	users map[int64]database.DirectoryUser
}

// NewUserDirectory creates a directory with the given users.
func NewUserDirectory(users ...database.DirectoryUser) *UserDirectory {
	d := &UserDirectory{users: make(map[int64]database.DirectoryUser)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// SetActive changes a user's activity flag.
func (d *UserDirectory) SetActive(userID int64, active bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.users[userID]
	u.ID = userID
	u.IsActive = active
	d.users[userID] = u
}

// IsActive reports whether the user exists and is enabled.
func (d *UserDirectory) IsActive(ctx context.Context, userID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	return ok && u.IsActive, nil
}

// Get returns the user, or nil when not found.
func (d *UserDirectory) Get(ctx context.Context, userID int64) (*database.DirectoryUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
