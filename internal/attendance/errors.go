package attendance

import (
	"errors"
	"fmt"
)

// Expected domain outcomes. Handlers inspect these with errors.Is/errors.As
// to render precise user messages; anything else is an infrastructure fault.
var (
	ErrNoFaceDetected   = errors.New("no face detected")
	ErrMultipleFaces    = errors.New("multiple faces detected")
	ErrUnknownFace      = errors.New("unknown face")
	ErrIdentityMismatch = errors.New("face does not match the claimed identity")
	ErrAccountInactive  = errors.New("account is inactive")

	ErrAlreadyClockedIn  = errors.New("already clocked in today")
	ErrNoClockInFound    = errors.New("no clock-in found, clock in first")
	ErrAlreadyClockedOut = errors.New("already clocked out today")
	ErrNoOpenClockIn     = errors.New("no open clock-in, clock in first")
	ErrAlreadyOnBreak    = errors.New("already on break")
	ErrNoBreakInFound    = errors.New("no break-in found")
	ErrAlreadyBrokeOut   = errors.New("break already taken today")
)

// DuplicateFaceError rejects an enrollment whose face already belongs to a
// different user.
type DuplicateFaceError struct {
	UserID   int64   // the user the face already belongs to
	Distance float64 // distance to that user's template
}

func (e *DuplicateFaceError) Error() string {
	return fmt.Sprintf("face already enrolled for user %d (distance %.4f)", e.UserID, e.Distance)
}

func errInvalidAction(a Action) error {
	return fmt.Errorf("invalid attendance action %q", a)
}
