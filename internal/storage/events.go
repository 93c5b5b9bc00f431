package storage

import (
	"context"
	"fmt"
	"time"
)

const eventColumns = `id, name, description, location, start_time, buffered_start_time,
	end_time, buffered_end_time, registration_required, payment_required, image_id,
	created_at, updated_at`

func (p *SQLProvider) ListEvents(ctx context.Context) ([]Event, error) {
	events := []Event{}
	err := p.db.SelectContext(ctx, &events,
		`SELECT `+eventColumns+` FROM events ORDER BY start_time DESC, id DESC`)
	if err != nil {
		return nil, p.wrap("list events", err)
	}
	return events, nil
}

// ListEventsHappeningAt returns events whose buffered window contains at,
// both bounds inclusive.
func (p *SQLProvider) ListEventsHappeningAt(ctx context.Context, at time.Time) ([]Event, error) {
	events := []Event{}
	err := p.db.SelectContext(ctx, &events, p.q(
		`SELECT `+eventColumns+` FROM events
		WHERE buffered_start_time <= ? AND buffered_end_time >= ?
		ORDER BY start_time DESC, id DESC`), dbTime(at), dbTime(at))
	if err != nil {
		return nil, p.wrap("list current events", err)
	}
	return events, nil
}

func (p *SQLProvider) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var event Event
	err := p.db.GetContext(ctx, &event, p.q(`SELECT `+eventColumns+` FROM events WHERE id = ?`), id)
	if err != nil {
		return nil, p.wrap(fmt.Sprintf("get event %d", id), err)
	}
	return &event, nil
}

func (p *SQLProvider) CreateEvent(ctx context.Context, event *Event) error {
	normalizeEvent(event)
	now := dbTime(time.Now())
	event.CreatedAt, event.UpdatedAt = now, now

	err := p.db.QueryRowxContext(ctx, p.q(`
		INSERT INTO events (name, description, location, start_time, buffered_start_time,
			end_time, buffered_end_time, registration_required, payment_required, image_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		event.Name, event.Description, event.Location, event.StartTime, event.BufferedStartTime,
		event.EndTime, event.BufferedEndTime, event.RegistrationRequired, event.PaymentRequired,
		event.ImageID, event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID)
	if err != nil {
		return p.wrap("create event", err)
	}

	p.logger.Debug("Created event", "event_id", event.ID, "name", event.Name)
	return nil
}

func (p *SQLProvider) UpdateEvent(ctx context.Context, event *Event) error {
	normalizeEvent(event)
	event.UpdatedAt = dbTime(time.Now())

	res, err := p.db.ExecContext(ctx, p.q(`
		UPDATE events SET name = ?, description = ?, location = ?, start_time = ?,
			buffered_start_time = ?, end_time = ?, buffered_end_time = ?,
			registration_required = ?, payment_required = ?, image_id = ?, updated_at = ?
		WHERE id = ?`),
		event.Name, event.Description, event.Location, event.StartTime, event.BufferedStartTime,
		event.EndTime, event.BufferedEndTime, event.RegistrationRequired, event.PaymentRequired,
		event.ImageID, event.UpdatedAt, event.ID,
	)
	if err != nil {
		return p.wrap(fmt.Sprintf("update event %d", event.ID), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update event %d: %w", event.ID, ErrNotFound)
	}
	return nil
}

// DeleteEvent removes the event and its attendance rows in one transaction.
func (p *SQLProvider) DeleteEvent(ctx context.Context, id int64) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return p.wrap("begin delete event", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, p.q(`DELETE FROM event_attendance WHERE event_id = ?`), id)
	if err != nil {
		return p.wrap(fmt.Sprintf("delete attendance of event %d", id), err)
	}
	removed, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, p.q(`DELETE FROM events WHERE id = ?`), id)
	if err != nil {
		return p.wrap(fmt.Sprintf("delete event %d", id), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete event %d: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return p.wrap("commit delete event", err)
	}

	p.logger.Info("Deleted event", "event_id", id, "attendance_rows", removed)
	return nil
}

func normalizeEvent(event *Event) {
	event.StartTime = dbTime(event.StartTime)
	event.BufferedStartTime = dbTime(event.BufferedStartTime)
	event.EndTime = dbTime(event.EndTime)
	event.BufferedEndTime = dbTime(event.BufferedEndTime)
}
