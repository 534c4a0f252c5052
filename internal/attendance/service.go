package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/mtpl/face-attendance/internal/database"
	"github.com/mtpl/face-attendance/internal/geofence"
)

// presenceWindow is the rolling window inside which repeated live-mark
// sightings of the same user collapse into the existing presence record.
const presenceWindow = time.Minute

// Repository is the transactional storage for attendance day records.
type Repository interface {
	// Transition atomically applies one state-machine action for (user, day).
	// The precondition check and the write are one unit: two concurrent
	// clock-ins for the same user yield exactly one success.
	Transition(ctx context.Context, userID int64, day string, action Action, now time.Time, meta TransitionMeta) (*Record, error)
	// Get returns the record for (user, day), or nil when absent.
	Get(ctx context.Context, userID int64, day string) (*Record, error)
	// Latest returns the most recent records across all users.
	Latest(ctx context.Context, limit int) ([]Record, error)
	// StatsForDay aggregates attendance counts for one civil date.
	StatsForDay(ctx context.Context, day string) (database.DayStats, error)
}

// Extractor produces one fixed-dimension embedding per face found in an image.
type Extractor interface {
	ExtractFaces(ctx context.Context, image []byte) ([][]float32, error)
}

// PolicyReader loads the effective geo policy at call time.
type PolicyReader interface {
	Policy(ctx context.Context) (geofence.Policy, error)
}

// Service composes the extractor, matcher, gate and state machine into the
// end-to-end enroll, clock and live-mark operations.
type Service struct {
	templates database.TemplateStore
	records   Repository
	presence  database.PresenceStore
	directory database.UserDirectory // optional, nil skips the activity check
	extractor Extractor
	policy    PolicyReader

	threshold float64
	dim       int
	locks     keyedMutex
	now       func() time.Time
}

// NewService creates the attendance service. directory may be nil when no HR
// database is wired; users are then treated as active.
func NewService(
	templates database.TemplateStore,
	records Repository,
	presence database.PresenceStore,
	directory database.UserDirectory,
	extractor Extractor,
	policy PolicyReader,
	threshold float64,
	dim int,
) *Service {
	return &Service{
		templates: templates,
		records:   records,
		presence:  presence,
		directory: directory,
		extractor: extractor,
		policy:    policy,
		threshold: threshold,
		dim:       dim,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Tests use this to pin the day boundary.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ClockRequest is one clock in/out attempt from a camera client.
type ClockRequest struct {
	Image      []byte
	Action     Action
	ClientAddr string
	Latitude   float64
	Longitude  float64
	// ClaimedUserID cross-checks the matched face against an identity the
	// caller already authenticated as. Zero means no claim.
	ClaimedUserID int64
}

// ClockResult is a successful clock transition.
type ClockResult struct {
	UserID         int64
	Record         *Record
	Distance       float64 // face match distance
	DistanceMeters float64 // distance from the office reference point
}

// EnrollResult is a successful enrollment.
type EnrollResult struct {
	TemplateID  int64
	TemplateUID string
	UserID      int64
}

// LiveMarkResult is the outcome of a live camera presence ping. A missing or
// unknown face is a soft outcome here, not an error.
type LiveMarkResult struct {
	Matched  bool
	UserID   int64
	Distance float64
	Record   *database.PresenceRecord
	Created  bool
}

// matchProbe identifies the probe embedding against all active templates.
func (s *Service) matchProbe(ctx context.Context, probe []float32) (MatchResult, error) {
	templates, err := s.templates.ActiveTemplates(ctx)
	if err != nil {
		return MatchResult{}, fmt.Errorf("load active templates: %w", err)
	}

	candidates := make([]Candidate, 0, len(templates))
	for _, t := range templates {
		candidates = append(candidates, Candidate{UserID: t.UserID, Embedding: t.Embedding})
	}
	return Match(probe, candidates, s.threshold), nil
}

// Clock runs the end-to-end clock in/out flow: extract, identify, gate,
// verify the account and apply the state transition.
func (s *Service) Clock(ctx context.Context, req ClockRequest) (*ClockResult, error) {
	if req.Action != ActionClockIn && req.Action != ActionClockOut {
		return nil, errInvalidAction(req.Action)
	}

	embeddings, err := s.extractor.ExtractFaces(ctx, req.Image)
	if err != nil {
		return nil, fmt.Errorf("extract faces: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, ErrNoFaceDetected
	}

	// Only the first detected face is considered for clocking.
	match, err := s.matchProbe(ctx, embeddings[0])
	if err != nil {
		return nil, err
	}
	if !match.OK {
		return nil, ErrUnknownFace
	}

	if req.ClaimedUserID != 0 && req.ClaimedUserID != match.UserID {
		return nil, ErrIdentityMismatch
	}

	policy, err := s.policy.Policy(ctx)
	if err != nil {
		return nil, err
	}
	distance, err := policy.Check(req.ClientAddr, req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	if err := s.checkActive(ctx, match.UserID); err != nil {
		return nil, err
	}

	now := s.now()
	meta := TransitionMeta{
		IPAddress: req.ClientAddr,
		Latitude:  &req.Latitude,
		Longitude: &req.Longitude,
		DistanceM: &distance,
		Source:    "live_camera",
	}

	unlock := s.locks.lock(match.UserID)
	record, err := s.records.Transition(ctx, match.UserID, DayOf(now), req.Action, now, meta)
	unlock()
	if err != nil {
		return nil, err
	}

	return &ClockResult{
		UserID:         match.UserID,
		Record:         record,
		Distance:       match.Distance,
		DistanceMeters: distance,
	}, nil
}

// BreakToggle applies a break transition for an already-authenticated user.
// The identity comes from the caller's session, not from a face probe, but
// the origin and geofence gates still apply.
func (s *Service) BreakToggle(ctx context.Context, userID int64, action Action, clientAddr string, lat, lon float64) (*Record, error) {
	if action != ActionBreakIn && action != ActionBreakOut {
		return nil, errInvalidAction(action)
	}

	policy, err := s.policy.Policy(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := policy.Check(clientAddr, lat, lon); err != nil {
		return nil, err
	}

	if err := s.checkActive(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.records.Transition(ctx, userID, DayOf(now), action, now, TransitionMeta{})
}

// Enroll registers a new biometric template for the user. Exactly one face
// is required, the face must not already belong to a different user, and any
// previous template of the user is deactivated (never deleted).
func (s *Service) Enroll(ctx context.Context, image []byte, userID int64) (*EnrollResult, error) {
	embeddings, err := s.extractor.ExtractFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("extract faces: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, ErrNoFaceDetected
	}
	if len(embeddings) > 1 {
		return nil, ErrMultipleFaces
	}
	probe := embeddings[0]
	if len(probe) != s.dim {
		return nil, database.ErrInvalidEmbedding
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	// Duplicate guard: match against everyone else's active templates. The
	// user's own template is excluded so re-enrollment stays possible.
	templates, err := s.templates.ActiveTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active templates: %w", err)
	}
	candidates := make([]Candidate, 0, len(templates))
	for _, t := range templates {
		if t.UserID == userID {
			continue
		}
		candidates = append(candidates, Candidate{UserID: t.UserID, Embedding: t.Embedding})
	}
	if match := Match(probe, candidates, s.threshold); match.OK {
		return nil, &DuplicateFaceError{UserID: match.UserID, Distance: match.Distance}
	}

	// Deactivating the old template and storing the new one is one atomic
	// storage operation, so a failure never strands the user unenrolled.
	stored, err := s.templates.Replace(ctx, userID, probe)
	if err != nil {
		return nil, fmt.Errorf("replace template: %w", err)
	}

	return &EnrollResult{
		TemplateID:  stored.ID,
		TemplateUID: stored.UID,
		UserID:      stored.UserID,
	}, nil
}

// LiveMark identifies the first face in a live camera frame and records
// presence, at most once per user per rolling minute. Within the window the
// prior record is returned unchanged.
func (s *Service) LiveMark(ctx context.Context, image []byte) (*LiveMarkResult, error) {
	embeddings, err := s.extractor.ExtractFaces(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("extract faces: %w", err)
	}
	if len(embeddings) == 0 {
		return &LiveMarkResult{}, nil
	}

	match, err := s.matchProbe(ctx, embeddings[0])
	if err != nil {
		return nil, err
	}
	if !match.OK {
		return &LiveMarkResult{}, nil
	}

	record, created, err := s.presence.Mark(ctx, match.UserID, s.now(), presenceWindow)
	if err != nil {
		return nil, fmt.Errorf("mark presence: %w", err)
	}

	return &LiveMarkResult{
		Matched:  true,
		UserID:   match.UserID,
		Distance: match.Distance,
		Record:   record,
		Created:  created,
	}, nil
}

// checkActive verifies the user is still enabled in the HR directory.
func (s *Service) checkActive(ctx context.Context, userID int64) error {
	if s.directory == nil {
		return nil
	}
	active, err := s.directory.IsActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user activity: %w", err)
	}
	if !active {
		return ErrAccountInactive
	}
	return nil
}
