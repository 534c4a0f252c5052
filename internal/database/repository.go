package database

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidEmbedding is returned when a template embedding does not match
// the dimension the store was configured with. This is a programming or
// deployment error, not an expected domain outcome.
var ErrInvalidEmbedding = errors.New("embedding dimension mismatch")

// ErrNotFound is returned when an administrative row (allow-list entry,
// holiday) does not exist.
var ErrNotFound = errors.New("not found")

// TemplateStore holds the enrolled biometric templates. Reads always hit
// durable storage; a deactivation must be visible to the very next call.
type TemplateStore interface {
	// Add inserts a new active template for the user and returns the stored row.
	// Fails with ErrInvalidEmbedding on a dimension mismatch. Add does not
	// check for duplicate faces; that composition lives in the service.
	Add(ctx context.Context, userID int64, embedding []float32) (*StoredTemplate, error)
	// Deactivate marks the user's current active template inactive.
	// No-op when the user has no active template.
	Deactivate(ctx context.Context, userID int64) error
	// Replace deactivates the user's current active template and inserts the
	// new one as a single atomic unit. A failure leaves the prior template
	// active; the user is never left without any template.
	Replace(ctx context.Context, userID int64, embedding []float32) (*StoredTemplate, error)
	// ActiveTemplates returns all active templates ordered by insertion.
	// The order is stable so that distance ties resolve deterministically.
	ActiveTemplates(ctx context.Context) ([]StoredTemplate, error)
	// CountActive returns the number of active templates.
	CountActive(ctx context.Context) (int, error)
}

// PresenceStore records live camera presence pings.
type PresenceStore interface {
	// Mark inserts a presence row unless one exists within the rolling window
	// ending at now. Returns the effective record and whether a new row was
	// created. The check and the insert are atomic per user.
	Mark(ctx context.Context, userID int64, now time.Time, window time.Duration) (*PresenceRecord, bool, error)
}

// SettingsStore is the mutable key-value configuration (office coordinates,
// geofence radius). The attendance core only reads it.
type SettingsStore interface {
	// Get returns the value for key, or ok=false when unset.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// AllowedIPStore manages the client origin allow-list.
type AllowedIPStore interface {
	// ActiveAddresses returns the addresses currently allowed to clock.
	ActiveAddresses(ctx context.Context) ([]string, error)
	List(ctx context.Context) ([]AllowedIP, error)
	Add(ctx context.Context, address, description string) (*AllowedIP, error)
	Delete(ctx context.Context, id int64) error
	Toggle(ctx context.Context, id int64) (*AllowedIP, error)
}

// HolidayStore manages the holiday calendar.
type HolidayStore interface {
	List(ctx context.Context) ([]Holiday, error)
	Add(ctx context.Context, date, name string, isWeekoff bool) (*Holiday, error)
	Delete(ctx context.Context, id int64) error
}

// UserDirectory is the read-only view of the HR user database.
type UserDirectory interface {
	// IsActive reports whether the user exists and is enabled.
	IsActive(ctx context.Context, userID int64) (bool, error)
	// Get returns the user, or nil when not found.
	Get(ctx context.Context, userID int64) (*DirectoryUser, error)
}
