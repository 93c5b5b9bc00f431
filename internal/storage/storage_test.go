package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cxc-checkin/internal/config"
)

func newTestProvider(t *testing.T) Provider {
	t.Helper()
	provider, err := NewProvider(&config.Storage{
		Type:   config.StorageSQLite,
		SQLite: &config.SQLiteStorage{Path: ":memory:"},
	})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	t.Cleanup(func() { provider.Close() })
	return provider
}

func mustEvent(t *testing.T, p Provider, name string, start time.Time, length time.Duration) *Event {
	t.Helper()
	event := &Event{
		Name:              name,
		StartTime:         start,
		BufferedStartTime: start.Add(-30 * time.Minute),
		EndTime:           start.Add(length),
		BufferedEndTime:   start.Add(length + 30*time.Minute),
		PaymentRequired:   true,
	}
	if err := p.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent(%s): %v", name, err)
	}
	return event
}

func mustProfile(t *testing.T, p Provider, id string, role Role) *Profile {
	t.Helper()
	profile := &Profile{ID: id, Role: role}
	if err := p.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("CreateProfile(%s): %v", id, err)
	}
	return profile
}

func TestSchemaVersion(t *testing.T) {
	p := newTestProvider(t)
	version, err := p.GetSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("GetSchemaVersion: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}
}

func TestEventCRUD(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	start := time.Date(2025, 3, 1, 10, 0, 0, 500, time.FixedZone("EST", -5*3600))
	event := mustEvent(t, p, "Opening", start, time.Hour)
	if event.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	got, err := p.GetEvent(ctx, event.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if !got.StartTime.Equal(start.Truncate(time.Second)) {
		t.Fatalf("start time mismatch: got %v want %v", got.StartTime, start)
	}
	if !got.PaymentRequired || got.RegistrationRequired {
		t.Fatalf("unexpected flags: %+v", got)
	}

	location := "E7 Atrium"
	got.Name = "Opening Ceremony"
	got.Location = &location
	if err := p.UpdateEvent(ctx, got); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	got, _ = p.GetEvent(ctx, event.ID)
	if got.Name != "Opening Ceremony" || got.Location == nil || *got.Location != location {
		t.Fatalf("update not persisted: %+v", got)
	}

	missing := *got
	missing.ID = 9999
	if err := p.UpdateEvent(ctx, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating missing event, got %v", err)
	}
	if _, err := p.GetEvent(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListEventsOrderedByStartDesc(t *testing.T) {
	p := newTestProvider(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	mustEvent(t, p, "first", base, time.Hour)
	mustEvent(t, p, "third", base.Add(4*time.Hour), time.Hour)
	mustEvent(t, p, "second", base.Add(2*time.Hour), time.Hour)

	events, err := p.ListEvents(context.Background())
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(events))
	}
	for i, name := range want {
		if events[i].Name != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, events[i].Name)
		}
	}
}

func TestListEventsHappeningAt(t *testing.T) {
	p := newTestProvider(t)
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	event := mustEvent(t, p, "Workshop", start, time.Hour)
	mustEvent(t, p, "Later", start.Add(5*time.Hour), time.Hour)

	cases := []struct {
		at   time.Time
		want bool
	}{
		{event.BufferedStartTime.Add(-time.Second), false},
		{event.BufferedStartTime, true},
		{start.Add(30 * time.Minute), true},
		{event.BufferedEndTime, true},
		{event.BufferedEndTime.Add(time.Second), false},
	}
	for _, tc := range cases {
		events, err := p.ListEventsHappeningAt(context.Background(), tc.at)
		if err != nil {
			t.Fatalf("ListEventsHappeningAt: %v", err)
		}
		found := false
		for _, e := range events {
			if e.ID == event.ID {
				found = true
			}
			if e.Name == "Later" {
				t.Fatalf("event outside window returned at %v", tc.at)
			}
		}
		if found != tc.want {
			t.Fatalf("at %v: expected membership %v, got %v", tc.at, tc.want, found)
		}
	}
}

func TestCheckInUpsert(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	event := mustEvent(t, p, "Hacking", time.Now(), time.Hour)
	mustProfile(t, p, "7f0c1e2a-0000-4000-8000-000000000001", RoleHacker)

	first := time.Now().UTC().Truncate(time.Second)
	row, already, err := p.CheckIn(ctx, event.ID, "7f0c1e2a-0000-4000-8000-000000000001", first)
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if already {
		t.Fatalf("first check-in reported as repeat")
	}
	if !row.CheckedIn || row.CheckedInAt == nil || !row.CheckedInAt.Equal(first) {
		t.Fatalf("unexpected row after first check-in: %+v", row)
	}

	again, already, err := p.CheckIn(ctx, event.ID, "7f0c1e2a-0000-4000-8000-000000000001", first)
	if err != nil {
		t.Fatalf("second CheckIn: %v", err)
	}
	if !already {
		t.Fatalf("same-second repeat must be reported as already checked in")
	}
	if again.ID != row.ID || !again.CheckedInAt.Equal(first) {
		t.Fatalf("second check-in must keep the original row and timestamp: %+v", again)
	}

	rows, err := p.ListAttendance(ctx, event.ID)
	if err != nil {
		t.Fatalf("ListAttendance: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected exactly one attendance row, got %d", len(rows))
	}
}

func TestCheckInLatchesPendingRow(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	event := mustEvent(t, p, "Dinner", time.Now(), time.Hour)
	mustProfile(t, p, "p-1", RoleHacker)

	pending, err := p.GetOrCreateAttendance(ctx, event.ID, "p-1")
	if err != nil {
		t.Fatalf("GetOrCreateAttendance: %v", err)
	}
	if pending.CheckedIn || pending.CheckedInAt != nil {
		t.Fatalf("expected pending row, got %+v", pending)
	}
	if again, _ := p.GetOrCreateAttendance(ctx, event.ID, "p-1"); again.ID != pending.ID {
		t.Fatalf("GetOrCreateAttendance must be idempotent")
	}

	row, already, err := p.CheckIn(ctx, event.ID, "p-1", time.Now())
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if already || row.ID != pending.ID || !row.CheckedIn {
		t.Fatalf("expected pending row to be latched, got %+v", row)
	}
}

func TestCheckInConcurrent(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	event := mustEvent(t, p, "Crowd", time.Now(), time.Hour)
	mustProfile(t, p, "p-1", RoleHacker)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		firsts int
	)
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, already, err := p.CheckIn(ctx, event.ID, "p-1", time.Now())
			if err != nil {
				errs <- err
				return
			}
			if !already {
				mu.Lock()
				firsts++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent CheckIn: %v", err)
	}
	if firsts != 1 {
		t.Fatalf("expected exactly one first check-in, got %d", firsts)
	}

	rows, _ := p.ListAttendance(ctx, event.ID)
	if len(rows) != 1 || !rows[0].CheckedIn {
		t.Fatalf("expected one checked-in row, got %+v", rows)
	}
}

func TestCheckInUnknownEvent(t *testing.T) {
	p := newTestProvider(t)
	mustProfile(t, p, "p-1", RoleHacker)
	if _, _, err := p.CheckIn(context.Background(), 404, "p-1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown event, got %v", err)
	}
}

func TestDeleteEventCascades(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	event := mustEvent(t, p, "Gone", time.Now(), time.Hour)
	keep := mustEvent(t, p, "Kept", time.Now(), time.Hour)
	mustProfile(t, p, "p-1", RoleHacker)

	if _, _, err := p.CheckIn(ctx, event.ID, "p-1", time.Now()); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if _, _, err := p.CheckIn(ctx, keep.ID, "p-1", time.Now()); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if err := p.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if _, err := p.GetAttendance(ctx, event.ID, "p-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected attendance to be removed, got %v", err)
	}
	if _, err := p.GetAttendance(ctx, keep.ID, "p-1"); err != nil {
		t.Fatalf("attendance of other event must survive: %v", err)
	}
	if err := p.DeleteEvent(ctx, event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestProfiles(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	mustProfile(t, p, "p-1", "")
	mustProfile(t, p, "p-2", RoleVolunteer)

	if err := p.CreateProfile(ctx, &Profile{ID: "p-1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate profile, got %v", err)
	}

	got, err := p.GetProfile(ctx, "p-1")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Role != RoleDefault {
		t.Fatalf("expected default role, got %s", got.Role)
	}

	if err := p.UpdateProfileRole(ctx, "p-1", RoleAdmin); err != nil {
		t.Fatalf("UpdateProfileRole: %v", err)
	}
	if err := p.UpdateProfileRole(ctx, "nobody", RoleAdmin); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := p.SetProfileNfcID(ctx, "p-1", "tag-1"); err != nil {
		t.Fatalf("SetProfileNfcID: %v", err)
	}
	if err := p.SetProfileNfcID(ctx, "p-2", "tag-1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate nfc id, got %v", err)
	}

	byTag, err := p.GetProfileByNfcID(ctx, "tag-1")
	if err != nil {
		t.Fatalf("GetProfileByNfcID: %v", err)
	}
	if byTag.ID != "p-1" || byTag.Role != RoleAdmin {
		t.Fatalf("unexpected profile: %+v", byTag)
	}
	if _, err := p.GetProfileByNfcID(ctx, "tag-x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	profiles, err := p.ListProfiles(ctx)
	if err != nil || len(profiles) != 2 {
		t.Fatalf("ListProfiles: %v (%d)", err, len(profiles))
	}
}

func TestRevokedTokens(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if err := p.RevokeToken(ctx, "jti-live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}
	if err := p.RevokeToken(ctx, "jti-old", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("RevokeToken: %v", err)
	}

	if revoked, err := p.IsTokenRevoked(ctx, "jti-live"); err != nil || !revoked {
		t.Fatalf("expected jti-live revoked: %v %v", revoked, err)
	}
	if revoked, _ := p.IsTokenRevoked(ctx, "jti-old"); revoked {
		t.Fatalf("expired revocation should not count")
	}
	if revoked, _ := p.IsTokenRevoked(ctx, "jti-unknown"); revoked {
		t.Fatalf("unknown token reported revoked")
	}

	n, err := p.PruneRevokedTokens(ctx, time.Now())
	if err != nil {
		t.Fatalf("PruneRevokedTokens: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned row, got %d", n)
	}
}

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/app":  "pgx5://u:p@db:5432/app",
		"postgresql://u@db/app?ssl=1": "pgx5://u@db/app?ssl=1",
		"pgx5://already":              "pgx5://already",
	}
	for in, want := range cases {
		if got := migrateURL(in); got != want {
			t.Fatalf("migrateURL(%q) = %q, want %q", in, got, want)
		}
	}
}
