package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const attendanceColumns = `id, event_id, profile_id, checked_in, checked_in_at, created_at`

// GetOrCreateAttendance returns the row for the pair, inserting a pending
// one when none exists.
func (p *SQLProvider) GetOrCreateAttendance(ctx context.Context, eventID int64, profileID string) (*Attendance, error) {
	_, err := p.db.ExecContext(ctx, p.q(`
		INSERT INTO event_attendance (event_id, profile_id, checked_in, created_at)
		VALUES (?, ?, FALSE, ?)
		ON CONFLICT (event_id, profile_id) DO NOTHING`),
		eventID, profileID, dbTime(time.Now()),
	)
	if err != nil {
		return nil, p.wrap(fmt.Sprintf("register profile %s for event %d", profileID, eventID), err)
	}
	return p.GetAttendance(ctx, eventID, profileID)
}

// CheckIn latches checked_in for the pair in a single upsert. The update
// only applies to rows that are not yet checked in, so exactly one caller
// sees the transition; every other caller gets already = true and the
// original checked_in_at.
func (p *SQLProvider) CheckIn(ctx context.Context, eventID int64, profileID string, at time.Time) (*Attendance, bool, error) {
	at = dbTime(at)

	var id int64
	err := p.db.QueryRowxContext(ctx, p.q(`
		INSERT INTO event_attendance (event_id, profile_id, checked_in, checked_in_at, created_at)
		VALUES (?, ?, TRUE, ?, ?)
		ON CONFLICT (event_id, profile_id) DO UPDATE SET
			checked_in = TRUE,
			checked_in_at = excluded.checked_in_at
		WHERE event_attendance.checked_in = FALSE
		RETURNING id`),
		eventID, profileID, at, at,
	).Scan(&id)

	already := false
	switch {
	case errors.Is(err, sql.ErrNoRows):
		already = true
	case err != nil:
		return nil, false, p.wrap(fmt.Sprintf("check in profile %s for event %d", profileID, eventID), err)
	}

	row, err := p.GetAttendance(ctx, eventID, profileID)
	if err != nil {
		return nil, false, err
	}
	return row, already, nil
}

func (p *SQLProvider) GetAttendance(ctx context.Context, eventID int64, profileID string) (*Attendance, error) {
	var row Attendance
	err := p.db.GetContext(ctx, &row, p.q(
		`SELECT `+attendanceColumns+` FROM event_attendance WHERE event_id = ? AND profile_id = ?`),
		eventID, profileID)
	if err != nil {
		return nil, p.wrap(fmt.Sprintf("get attendance of %s for event %d", profileID, eventID), err)
	}
	return &row, nil
}

func (p *SQLProvider) ListAttendance(ctx context.Context, eventID int64) ([]Attendance, error) {
	rows := []Attendance{}
	err := p.db.SelectContext(ctx, &rows, p.q(
		`SELECT `+attendanceColumns+` FROM event_attendance WHERE event_id = ? ORDER BY created_at DESC, id DESC`),
		eventID)
	if err != nil {
		return nil, p.wrap(fmt.Sprintf("list attendance for event %d", eventID), err)
	}
	return rows, nil
}
