package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cxc-checkin/internal/storage"
)

// EventInput is the payload for creating an event. Buffered times default
// to the service buffer around start and end when omitted.
type EventInput struct {
	Name                 string     `json:"name"`
	Description          *string    `json:"description"`
	Location             *string    `json:"location"`
	StartTime            *time.Time `json:"start_time"`
	EndTime              *time.Time `json:"end_time"`
	BufferedStartTime    *time.Time `json:"buffered_start_time"`
	BufferedEndTime      *time.Time `json:"buffered_end_time"`
	RegistrationRequired *bool      `json:"registration_required"`
	PaymentRequired      *bool      `json:"payment_required"`
	ImageID              *string    `json:"image_id"`
}

// EventPatch carries a partial update. Nil fields are left unchanged.
// Description, location and image id are cleared by an explicit null.
type EventPatch struct {
	Name                 *string          `json:"name"`
	Description          Nullable[string] `json:"description"`
	Location             Nullable[string] `json:"location"`
	StartTime            *time.Time       `json:"start_time"`
	EndTime              *time.Time       `json:"end_time"`
	BufferedStartTime    *time.Time       `json:"buffered_start_time"`
	BufferedEndTime      *time.Time       `json:"buffered_end_time"`
	RegistrationRequired *bool            `json:"registration_required"`
	PaymentRequired      *bool            `json:"payment_required"`
	ImageID              Nullable[string] `json:"image_id"`
}

type Option func(*options)

type options struct {
	now           func() time.Time
	defaultBuffer time.Duration
}

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithDefaultBuffer(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.defaultBuffer = d
		}
	}
}

// clockSecond is the current time at the resolution timestamps are stored
// with. Window checks and happening-now queries must agree on it.
func (o options) clockSecond() time.Time {
	return o.now().UTC().Truncate(time.Second)
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, defaultBuffer: 30 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Service struct {
	store storage.Provider
	options
	logger *slog.Logger
}

func NewService(store storage.Provider, opts ...Option) *Service {
	return &Service{
		store:   store,
		options: buildOptions(opts),
		logger:  slog.With("component", "events"),
	}
}

func (s *Service) List(ctx context.Context) ([]storage.Event, error) {
	return s.store.ListEvents(ctx)
}

// HappeningNow lists events whose buffered window contains the current time.
func (s *Service) HappeningNow(ctx context.Context) ([]storage.Event, error) {
	return s.store.ListEventsHappeningAt(ctx, s.clockSecond())
}

func (s *Service) Get(ctx context.Context, id int64) (*storage.Event, error) {
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, eventErr(id, err)
	}
	return event, nil
}

func (s *Service) Create(ctx context.Context, in EventInput) (*storage.Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || in.StartTime == nil || in.EndTime == nil {
		return nil, fmt.Errorf("%w: name, start_time and end_time are required", ErrInvalidEvent)
	}

	window := BufferedWindow(*in.StartTime, *in.EndTime, s.defaultBuffer)
	if in.BufferedStartTime != nil {
		window.BufferedStart = *in.BufferedStartTime
	}
	if in.BufferedEndTime != nil {
		window.BufferedEnd = *in.BufferedEndTime
	}
	if err := window.Validate(); err != nil {
		return nil, err
	}

	event := &storage.Event{
		Name:                 name,
		Description:          in.Description,
		Location:             in.Location,
		StartTime:            window.Start,
		BufferedStartTime:    window.BufferedStart,
		EndTime:              window.End,
		BufferedEndTime:      window.BufferedEnd,
		RegistrationRequired: false,
		PaymentRequired:      true,
		ImageID:              in.ImageID,
	}
	if in.RegistrationRequired != nil {
		event.RegistrationRequired = *in.RegistrationRequired
	}
	if in.PaymentRequired != nil {
		event.PaymentRequired = *in.PaymentRequired
	}

	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.logger.Info("Event created", "event_id", event.ID, "name", event.Name)
	return event, nil
}

// Update applies patch to the stored event and validates the merged window.
func (s *Service) Update(ctx context.Context, id int64, patch EventPatch) (*storage.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidEvent)
		}
		event.Name = name
	}
	event.Description = patch.Description.apply(event.Description)
	event.Location = patch.Location.apply(event.Location)
	event.ImageID = patch.ImageID.apply(event.ImageID)
	if patch.StartTime != nil {
		event.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		event.EndTime = *patch.EndTime
	}
	if patch.BufferedStartTime != nil {
		event.BufferedStartTime = *patch.BufferedStartTime
	}
	if patch.BufferedEndTime != nil {
		event.BufferedEndTime = *patch.BufferedEndTime
	}
	if patch.RegistrationRequired != nil {
		event.RegistrationRequired = *patch.RegistrationRequired
	}
	if patch.PaymentRequired != nil {
		event.PaymentRequired = *patch.PaymentRequired
	}

	if err := WindowOf(event).Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, eventErr(id, err)
	}
	return event, nil
}

// Delete removes the event together with its attendance records.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return eventErr(id, err)
	}
	s.logger.Info("Event deleted", "event_id", id)
	return nil
}

func eventErr(id int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("event %d: %w", id, ErrEventNotFound)
	}
	return err
}
