package profiles

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cxc-checkin/internal/nfc"
	"cxc-checkin/internal/storage"
)

var ErrProfileNotFound = errors.New("profile not found")

type Service struct {
	store     storage.Provider
	nfcSecret []byte
	logger    *slog.Logger
}

func NewService(store storage.Provider, nfcSecret string) *Service {
	return &Service{
		store:     store,
		nfcSecret: []byte(nfcSecret),
		logger:    slog.With("component", "profiles"),
	}
}

func (s *Service) Get(ctx context.Context, id string) (*storage.Profile, error) {
	profile, err := s.store.GetProfile(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
	}
	return profile, err
}

// GetOrGenerateNfcID returns the profile's badge token, deriving and
// persisting one on first use.
func (s *Service) GetOrGenerateNfcID(ctx context.Context, profileID string) (string, error) {
	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return "", err
	}
	if profile.NfcID != nil && *profile.NfcID != "" {
		return *profile.NfcID, nil
	}

	token, err := nfc.Generate(s.nfcSecret, profile.ID)
	if err != nil {
		return "", err
	}
	if err := s.store.SetProfileNfcID(ctx, profile.ID, token); err != nil {
		return "", fmt.Errorf("store nfc id: %w", err)
	}

	s.logger.Info("Generated NFC id", "profile_id", profile.ID)
	return token, nil
}

// Lookup resolves a badge token to its profile.
func (s *Service) Lookup(ctx context.Context, nfcID string) (*storage.Profile, error) {
	if nfcID == "" {
		return nil, ErrProfileNotFound
	}
	profile, err := s.store.GetProfileByNfcID(ctx, nfcID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: no profile for nfc id", ErrProfileNotFound)
	}
	return profile, err
}
