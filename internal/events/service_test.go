package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"cxc-checkin/internal/config"
	"cxc-checkin/internal/storage"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newStore(t *testing.T) storage.Provider {
	t.Helper()
	store, err := storage.NewProvider(&config.Storage{
		Type:   config.StorageSQLite,
		SQLite: &config.SQLiteStorage{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func TestCreateFillsBufferAndDefaults(t *testing.T) {
	svc := NewService(newStore(t), WithDefaultBuffer(30*time.Minute))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	event, err := svc.Create(context.Background(), EventInput{
		Name:      "  Opening Ceremony ",
		StartTime: ptr(start),
		EndTime:   ptr(start.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if event.Name != "Opening Ceremony" {
		t.Fatalf("expected trimmed name, got %q", event.Name)
	}
	if !event.BufferedStartTime.Equal(start.Add(-30*time.Minute)) || !event.BufferedEndTime.Equal(start.Add(90*time.Minute)) {
		t.Fatalf("unexpected buffered window: %v - %v", event.BufferedStartTime, event.BufferedEndTime)
	}
	if event.RegistrationRequired || !event.PaymentRequired {
		t.Fatalf("unexpected default flags: registration=%v payment=%v", event.RegistrationRequired, event.PaymentRequired)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newStore(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := svc.Create(context.Background(), EventInput{StartTime: ptr(start), EndTime: ptr(start)}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing name, got %v", err)
	}
	if _, err := svc.Create(context.Background(), EventInput{Name: "x", StartTime: ptr(start)}); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent for missing end, got %v", err)
	}

	_, err := svc.Create(context.Background(), EventInput{
		Name:      "Backwards",
		StartTime: ptr(start),
		EndTime:   ptr(start.Add(-time.Hour)),
	})
	if !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for end before start, got %v", err)
	}

	events, _ := svc.List(context.Background())
	if len(events) != 0 {
		t.Fatalf("rejected events must not be stored, found %d", len(events))
	}
}

func TestUpdateValidatesMergedWindow(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	event, err := svc.Create(ctx, EventInput{Name: "Talk", StartTime: ptr(start), EndTime: ptr(start.Add(time.Hour))})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, event.ID, EventPatch{Location: Some("Hall B"), RegistrationRequired: ptr(true)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Talk" || *updated.Location != "Hall B" || !updated.RegistrationRequired {
		t.Fatalf("partial update did not merge: %+v", updated)
	}

	// Moving the end past the buffered end breaks the window.
	if _, err := svc.Update(ctx, event.ID, EventPatch{EndTime: ptr(start.Add(3 * time.Hour))}); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
	if _, err := svc.Update(ctx, 999, EventPatch{Name: ptr("x")}); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}

	stored, _ := svc.Get(ctx, event.ID)
	if !stored.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("rejected update must not persist, end=%v", stored.EndTime)
	}
}

func TestHappeningNowMatchesBufferedWindow(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	clock := &fixedClock{}
	svc := NewService(store, WithClock(clock.Now), WithDefaultBuffer(20*time.Minute))

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	event, err := svc.Create(ctx, EventInput{Name: "Workshop", StartTime: ptr(start), EndTime: ptr(start.Add(time.Hour))})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	window := WindowOf(event)

	for offset := -2 * time.Hour; offset <= 3*time.Hour; offset += 10 * time.Minute {
		clock.t = start.Add(offset)
		events, err := svc.HappeningNow(ctx)
		if err != nil {
			t.Fatalf("HappeningNow: %v", err)
		}
		if got, want := len(events) == 1, window.Contains(clock.t); got != want {
			t.Fatalf("at %v: happening=%v, window contains=%v", clock.t, got, want)
		}
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t))
	start := time.Now()
	event, _ := svc.Create(ctx, EventInput{Name: "Temp", StartTime: ptr(start), EndTime: ptr(start.Add(time.Hour))})

	if err := svc.Delete(ctx, event.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, event.ID); !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestUpdateClearsNullableFields(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newStore(t))
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	event, err := svc.Create(ctx, EventInput{
		Name:        "Demo day",
		Description: ptr("Final demos"),
		Location:    ptr("Main stage"),
		ImageID:     ptr("img-1"),
		StartTime:   ptr(start),
		EndTime:     ptr(start.Add(time.Hour)),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, event.ID, EventPatch{Description: Null[string](), ImageID: Null[string]()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Description != nil || updated.ImageID != nil {
		t.Fatalf("explicit null should clear fields: %+v", updated)
	}
	if updated.Location == nil || *updated.Location != "Main stage" {
		t.Fatalf("absent field must be left unchanged, got %v", updated.Location)
	}

	stored, err := svc.Get(ctx, event.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Description != nil || stored.ImageID != nil {
		t.Fatalf("cleared fields were not persisted: %+v", stored)
	}
}

func TestEventPatchJSON(t *testing.T) {
	var patch EventPatch
	if err := json.Unmarshal([]byte(`{"description":null,"location":"Hall C"}`), &patch); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !patch.Description.Set || patch.Description.Value != nil {
		t.Fatalf("null description should be set and empty: %+v", patch.Description)
	}
	if !patch.Location.Set || patch.Location.Value == nil || *patch.Location.Value != "Hall C" {
		t.Fatalf("unexpected location: %+v", patch.Location)
	}
	if patch.ImageID.Set {
		t.Fatalf("absent image_id must not be set")
	}
	if err := json.Unmarshal([]byte(`{"location":42}`), &patch); err == nil {
		t.Fatalf("non-string location should fail")
	}
}
