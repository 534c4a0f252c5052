package attendance

import "time"

// Apply runs one state-machine transition. rec is the existing record for
// (user, day), or nil when none exists yet. On clock-in with no record a new
// one is created; otherwise rec is mutated in place. The caller is
// responsible for making the load-apply-store sequence atomic per user
// (row lock or equivalent).
func Apply(rec *Record, userID int64, day string, action Action, now time.Time, meta TransitionMeta) (*Record, error) {
	if rec == nil {
		return applyAbsent(userID, day, action, now, meta)
	}

	switch action {
	case ActionClockIn:
		// One cycle per day: a closed record blocks re-entry as well.
		return nil, ErrAlreadyClockedIn

	case ActionBreakIn:
		switch rec.State {
		case StateOnBreak:
			return nil, ErrAlreadyOnBreak
		case StateClockedOut:
			return nil, ErrNoOpenClockIn
		}
		if rec.BreakInTime != nil {
			// The day's single break pair is already used up.
			return nil, ErrAlreadyBrokeOut
		}
		t := now
		rec.BreakInTime = &t
		rec.State = StateOnBreak
		return rec, nil

	case ActionBreakOut:
		if rec.BreakInTime == nil {
			return nil, ErrNoBreakInFound
		}
		if rec.BreakOutTime != nil {
			return nil, ErrAlreadyBrokeOut
		}
		t := now
		rec.BreakOutTime = &t
		rec.State = StateClockedIn
		return rec, nil

	case ActionClockOut:
		switch rec.State {
		case StateClockedOut:
			return nil, ErrAlreadyClockedOut
		case StateOnBreak:
			return nil, ErrAlreadyOnBreak
		}
		t := now
		rec.ClockOutTime = &t
		rec.State = StateClockedOut
		return rec, nil
	}

	return nil, errInvalidAction(action)
}

// applyAbsent handles transitions when no record exists for the day.
func applyAbsent(userID int64, day string, action Action, now time.Time, meta TransitionMeta) (*Record, error) {
	switch action {
	case ActionClockIn:
		t := now
		source := meta.Source
		if source == "" {
			source = "clock"
		}
		return &Record{
			UserID:      userID,
			Day:         day,
			State:       StateClockedIn,
			Status:      "present",
			Source:      source,
			ClockInTime: &t,
			IPAddress:   meta.IPAddress,
			Latitude:    meta.Latitude,
			Longitude:   meta.Longitude,
			DistanceM:   meta.DistanceM,
			CreatedAt:   now,
		}, nil
	case ActionBreakIn:
		return nil, ErrNoOpenClockIn
	case ActionBreakOut:
		return nil, ErrNoBreakInFound
	case ActionClockOut:
		return nil, ErrNoClockInFound
	}
	return nil, errInvalidAction(action)
}
