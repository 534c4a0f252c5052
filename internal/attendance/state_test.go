package attendance

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 2, 9, 30, 0, 0, IST)

func applyAll(t *testing.T, actions ...Action) (*Record, error) {
	t.Helper()
	var rec *Record
	var err error
	now := testNow
	for _, a := range actions {
		rec, err = Apply(rec, 42, "2025-06-02", a, now, TransitionMeta{})
		if err != nil {
			return rec, err
		}
		now = now.Add(time.Hour)
	}
	return rec, nil
}

func TestApply_ClockInCreatesRecord(t *testing.T) {
	lat, lon, dist := 23.0, 72.5, 12.5
	rec, err := Apply(nil, 42, "2025-06-02", ActionClockIn, testNow, TransitionMeta{
		IPAddress: "10.0.0.5",
		Latitude:  &lat,
		Longitude: &lon,
		DistanceM: &dist,
		Source:    "live_camera",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != StateClockedIn {
		t.Errorf("expected state %s, got %s", StateClockedIn, rec.State)
	}
	if rec.Status != "present" {
		t.Errorf("expected status present, got %s", rec.Status)
	}
	if rec.ClockInTime == nil || !rec.ClockInTime.Equal(testNow) {
		t.Errorf("expected clock-in time %v, got %v", testNow, rec.ClockInTime)
	}
	if rec.IPAddress != "10.0.0.5" || rec.Source != "live_camera" {
		t.Errorf("expected origin metadata on the record, got ip=%q source=%q", rec.IPAddress, rec.Source)
	}
	if rec.DistanceM == nil || *rec.DistanceM != 12.5 {
		t.Errorf("expected distance 12.5 on the record, got %v", rec.DistanceM)
	}
}

func TestApply_FullDayCycle(t *testing.T) {
	rec, err := applyAll(t, ActionClockIn, ActionBreakIn, ActionBreakOut, ActionClockOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != StateClockedOut {
		t.Errorf("expected state %s, got %s", StateClockedOut, rec.State)
	}
	if rec.ClockInTime == nil || rec.BreakInTime == nil || rec.BreakOutTime == nil || rec.ClockOutTime == nil {
		t.Error("expected all four timestamps to be set")
	}
}

func TestApply_OrderingErrors(t *testing.T) {
	tests := []struct {
		name    string
		actions []Action
		want    error
	}{
		{"double clock-in", []Action{ActionClockIn, ActionClockIn}, ErrAlreadyClockedIn},
		{"clock-out without clock-in", []Action{ActionClockOut}, ErrNoClockInFound},
		{"break-in without clock-in", []Action{ActionBreakIn}, ErrNoOpenClockIn},
		{"break-out without break-in", []Action{ActionClockIn, ActionBreakOut}, ErrNoBreakInFound},
		{"double break-in", []Action{ActionClockIn, ActionBreakIn, ActionBreakIn}, ErrAlreadyOnBreak},
		{"clock-out while on break", []Action{ActionClockIn, ActionBreakIn, ActionClockOut}, ErrAlreadyOnBreak},
		{"double clock-out", []Action{ActionClockIn, ActionClockOut, ActionClockOut}, ErrAlreadyClockedOut},
		{"clock-in after clock-out", []Action{ActionClockIn, ActionClockOut, ActionClockIn}, ErrAlreadyClockedIn},
		{"break after clock-out", []Action{ActionClockIn, ActionClockOut, ActionBreakIn}, ErrNoOpenClockIn},
		{"second break pair", []Action{ActionClockIn, ActionBreakIn, ActionBreakOut, ActionBreakIn}, ErrAlreadyBrokeOut},
		{"double break-out", []Action{ActionClockIn, ActionBreakIn, ActionBreakOut, ActionBreakOut}, ErrAlreadyBrokeOut},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyAll(t, tt.actions...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApply_BreakOutReturnsToClockedIn(t *testing.T) {
	rec, err := applyAll(t, ActionClockIn, ActionBreakIn, ActionBreakOut)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.State != StateClockedIn {
		t.Errorf("expected state %s after break-out, got %s", StateClockedIn, rec.State)
	}
}

func TestApply_InvalidAction(t *testing.T) {
	if _, err := Apply(nil, 42, "2025-06-02", Action("lunch"), testNow, TransitionMeta{}); err == nil {
		t.Error("expected an error for an unknown action")
	}
}

func TestApply_DefaultSource(t *testing.T) {
	rec, err := Apply(nil, 42, "2025-06-02", ActionClockIn, testNow, TransitionMeta{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Source != "clock" {
		t.Errorf("expected default source clock, got %s", rec.Source)
	}
}

func TestDayOf_ISTBoundary(t *testing.T) {
	// 20:00 UTC is 01:30 the next day in IST.
	utcEvening := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	if day := DayOf(utcEvening); day != "2025-06-03" {
		t.Errorf("expected 2025-06-03, got %s", day)
	}

	// 18:00 UTC is 23:30 the same day in IST.
	utcAfternoon := time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)
	if day := DayOf(utcAfternoon); day != "2025-06-02" {
		t.Errorf("expected 2025-06-02, got %s", day)
	}
}
