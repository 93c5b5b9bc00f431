package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cxc-checkin/internal/broker"
	"cxc-checkin/internal/storage"
)

type CheckInResult struct {
	Profile    *storage.Profile
	Event      *storage.Event
	Attendance *storage.Attendance

	// AlreadyCheckedIn is set when the attendee was checked in before
	// this call. Repeat check-ins are not errors.
	AlreadyCheckedIn bool
}

type CheckInService struct {
	store         storage.Provider
	publisher     broker.Publisher
	enforceWindow bool
	options
	logger *slog.Logger
}

func NewCheckInService(store storage.Provider, publisher broker.Publisher, enforceWindow bool, opts ...Option) *CheckInService {
	if publisher == nil {
		publisher = broker.NoopPublisher{}
	}
	return &CheckInService{
		store:         store,
		publisher:     publisher,
		enforceWindow: enforceWindow,
		options:       buildOptions(opts),
		logger:        slog.With("component", "checkin"),
	}
}

// CheckIn marks the profile carrying nfcID as attending eventID.
func (s *CheckInService) CheckIn(ctx context.Context, eventID int64, nfcID string) (*CheckInResult, error) {
	profile, err := s.profileByNfcID(ctx, nfcID)
	if err != nil {
		return nil, err
	}
	event, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	now := s.clockSecond()
	if s.enforceWindow && !WindowOf(event).IsOpen(now) {
		return nil, fmt.Errorf("%w: event %d accepts check-ins between %s and %s", ErrEventNotOpen, event.ID,
			event.BufferedStartTime.Format(time.RFC3339), event.BufferedEndTime.Format(time.RFC3339))
	}

	row, already, err := s.store.CheckIn(ctx, event.ID, profile.ID, now)
	if err != nil {
		return nil, eventErr(event.ID, err)
	}

	result := &CheckInResult{
		Profile:          profile,
		Event:            event,
		Attendance:       row,
		AlreadyCheckedIn: already,
	}

	s.logger.Info("Checked in", "event_id", event.ID, "profile_id", profile.ID, "already_checked_in", result.AlreadyCheckedIn)
	s.publish(ctx, result)
	return result, nil
}

func (s *CheckInService) publish(ctx context.Context, result *CheckInResult) {
	msg := broker.CheckIn{
		EventID:          result.Event.ID,
		ProfileID:        result.Profile.ID,
		AlreadyCheckedIn: result.AlreadyCheckedIn,
	}
	if result.Attendance.CheckedInAt != nil {
		msg.CheckedInAt = *result.Attendance.CheckedInAt
	}
	if err := s.publisher.PublishCheckIn(ctx, msg); err != nil {
		s.logger.Warn("Failed to publish check-in", "event_id", msg.EventID, "error", err)
	}
}

// Status reports whether the profile carrying nfcID is checked in to
// eventID. It never writes.
func (s *CheckInService) Status(ctx context.Context, eventID int64, nfcID string) (bool, *storage.Profile, error) {
	profile, err := s.profileByNfcID(ctx, nfcID)
	if err != nil {
		return false, nil, err
	}
	if _, err := s.event(ctx, eventID); err != nil {
		return false, nil, err
	}

	row, err := s.store.GetAttendance(ctx, eventID, profile.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, profile, nil
	}
	if err != nil {
		return false, nil, err
	}
	return row.CheckedIn, profile, nil
}

// Register creates a pending attendance row for the profile.
func (s *CheckInService) Register(ctx context.Context, eventID int64, profileID string) (*storage.Attendance, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProfile(ctx, profileID); err != nil {
		return nil, profileErr(err)
	}
	return s.store.GetOrCreateAttendance(ctx, eventID, profileID)
}

func (s *CheckInService) Attendance(ctx context.Context, eventID int64) ([]storage.Attendance, error) {
	if _, err := s.event(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListAttendance(ctx, eventID)
}

func (s *CheckInService) event(ctx context.Context, id int64) (*storage.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, eventErr(id, err)
	}
	return event, nil
}

func (s *CheckInService) profileByNfcID(ctx context.Context, nfcID string) (*storage.Profile, error) {
	if nfcID == "" {
		return nil, fmt.Errorf("%w: empty nfc id", ErrProfileNotFound)
	}
	profile, err := s.store.GetProfileByNfcID(ctx, nfcID)
	if err != nil {
		return nil, profileErr(err)
	}
	return profile, nil
}

func profileErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrProfileNotFound, err)
	}
	return err
}
