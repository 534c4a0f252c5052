// Package attendance implements the face matching and clock in/out core:
// 1-nearest-neighbor identification over enrolled templates with a reject
// threshold, and the per-day attendance state machine.
package attendance

import "time"

// IST is the single civil timezone all day boundaries are evaluated in.
// Clock-in and clock-out of one shift must agree on what "today" means.
var IST = time.FixedZone("IST", 5*3600+30*60)

// Action is a requested attendance transition.
type Action string

const (
	ActionClockIn  Action = "clock_in"
	ActionClockOut Action = "clock_out"
	ActionBreakIn  Action = "break_in"
	ActionBreakOut Action = "break_out"
)

// State is the discrete per-day attendance state.
type State string

const (
	StateAbsent     State = "absent" // no record for the day
	StateClockedIn  State = "clocked_in"
	StateOnBreak    State = "on_break"
	StateClockedOut State = "clocked_out" // terminal for the day
)

// DayOf returns the IST civil date of t as YYYY-MM-DD.
func DayOf(t time.Time) string {
	return t.In(IST).Format(time.DateOnly)
}

// Record is the single mutable attendance record for one user on one
// civil date. The state machine is its sole writer.
type Record struct {
	ID           int64      `json:"id"`
	UserID       int64      `json:"user_id"`
	Day          string     `json:"day"` // YYYY-MM-DD in IST
	State        State      `json:"state"`
	Status       string     `json:"status"`
	Source       string     `json:"source"`
	ClockInTime  *time.Time `json:"clock_in_time,omitempty"`
	ClockOutTime *time.Time `json:"clock_out_time,omitempty"`
	BreakInTime  *time.Time `json:"break_in_time,omitempty"`
	BreakOutTime *time.Time `json:"break_out_time,omitempty"`
	IPAddress    string     `json:"ip_address,omitempty"`
	Latitude     *float64   `json:"latitude,omitempty"`
	Longitude    *float64   `json:"longitude,omitempty"`
	DistanceM    *float64   `json:"distance_from_office,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// TransitionMeta is the origin metadata captured when a record is created.
type TransitionMeta struct {
	IPAddress string
	Latitude  *float64
	Longitude *float64
	DistanceM *float64
	Source    string
}

// MatchResult is the outcome of one identification attempt.
type MatchResult struct {
	// OK reports whether the best candidate was within the threshold.
	OK bool
	// UserID of the best matching candidate when OK.
	UserID int64
	// Distance is the minimum distance observed over all candidates.
	// Meaningful for diagnostics even when OK is false.
	Distance float64
	// HasDistance is false when the candidate pool was empty.
	HasDistance bool
}
