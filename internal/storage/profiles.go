package storage

import (
	"context"
	"fmt"
	"time"
)

const profileColumns = `id, email, first_name, last_name, role, nfc_id, created_at, updated_at`

func (p *SQLProvider) GetProfile(ctx context.Context, id string) (*Profile, error) {
	var profile Profile
	err := p.db.GetContext(ctx, &profile, p.q(`SELECT `+profileColumns+` FROM profiles WHERE id = ?`), id)
	if err != nil {
		return nil, p.wrap(fmt.Sprintf("get profile %s", id), err)
	}
	return &profile, nil
}

func (p *SQLProvider) GetProfileByNfcID(ctx context.Context, nfcID string) (*Profile, error) {
	var profile Profile
	err := p.db.GetContext(ctx, &profile, p.q(`SELECT `+profileColumns+` FROM profiles WHERE nfc_id = ?`), nfcID)
	if err != nil {
		return nil, p.wrap("get profile by nfc id", err)
	}
	return &profile, nil
}

func (p *SQLProvider) ListProfiles(ctx context.Context) ([]Profile, error) {
	profiles := []Profile{}
	if err := p.db.SelectContext(ctx, &profiles, `SELECT `+profileColumns+` FROM profiles ORDER BY created_at, id`); err != nil {
		return nil, p.wrap("list profiles", err)
	}
	return profiles, nil
}

func (p *SQLProvider) CreateProfile(ctx context.Context, profile *Profile) error {
	if profile.Role == "" {
		profile.Role = RoleDefault
	}
	now := dbTime(time.Now())
	profile.CreatedAt, profile.UpdatedAt = now, now

	_, err := p.db.ExecContext(ctx, p.q(`
		INSERT INTO profiles (id, email, first_name, last_name, role, nfc_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		profile.ID, profile.Email, profile.FirstName, profile.LastName, string(profile.Role), profile.NfcID,
		profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return p.wrap(fmt.Sprintf("create profile %s", profile.ID), err)
	}
	return nil
}

func (p *SQLProvider) UpdateProfileRole(ctx context.Context, id string, role Role) error {
	return p.updateProfile(ctx, "role", id, string(role))
}

func (p *SQLProvider) SetProfileNfcID(ctx context.Context, id string, nfcID string) error {
	return p.updateProfile(ctx, "nfc_id", id, nfcID)
}

func (p *SQLProvider) updateProfile(ctx context.Context, column, id string, value any) error {
	res, err := p.db.ExecContext(ctx, p.q(`UPDATE profiles SET `+column+` = ?, updated_at = ? WHERE id = ?`),
		value, dbTime(time.Now()), id)
	if err != nil {
		return p.wrap(fmt.Sprintf("update profile %s %s", id, column), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update profile %s: %w", id, ErrNotFound)
	}
	return nil
}
