package database

import (
	"time"
)

// StoredTemplate represents an enrolled biometric template.
// At most one template per user is active at a time; re-enrollment
// deactivates the previous row instead of deleting it.
type StoredTemplate struct {
	ID        int64
	UID       string // uuid assigned on enrollment, returned to the caller
	UserID    int64
	Embedding []float32
	Dim       int
	IsActive  bool
	CreatedAt time.Time
}

// PresenceRecord is a lightweight presence ping written by the live camera
// endpoint. It is rate-limited to one row per user per rolling minute and is
// independent of the clock in/out state machine.
type PresenceRecord struct {
	ID       int64
	UserID   int64
	MarkedAt time.Time
	Source   string
}

// AllowedIP is an entry of the client origin allow-list.
type AllowedIP struct {
	ID          int64
	Address     string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

// Holiday is a calendar entry excluded from working days.
type Holiday struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"` // civil date, YYYY-MM-DD
	Name      string    `json:"name"`
	IsWeekoff bool      `json:"is_weekoff"`
	CreatedAt time.Time `json:"created_at"`
}

// DirectoryUser is the read-only HR view of a person. The attendance core
// only needs the activity flag; names are resolved for presentation.
type DirectoryUser struct {
	ID        int64
	FirstName string
	LastName  string
	Login     string
	IsActive  bool
}

// Name returns the display name of the user.
func (u *DirectoryUser) Name() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// DayStats aggregates attendance counts for a single civil date.
type DayStats struct {
	Present    int // clocked in at some point today
	OnBreak    int
	ClockedOut int
}
