package profile

import (
	"context"
	"errors"
)

// Service contains business logic for profile documents.
type Service struct {
	Repo Repo

	// OnChange runs after a successful write so callers can drop cached
	// per-user autofill context. Optional.
	OnChange func(ctx context.Context, userID string)
}

// Get returns the stored profile, or an empty document when the user has
// none yet. Absence is not an error on this path; the cascade and the
// extension both handle empty profiles.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	stored, err := s.Repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Profile{}, nil
		}
		return Profile{}, err
	}
	return stored.Document, nil
}

// Save replaces the profile document and fires the change hook.
func (s *Service) Save(ctx context.Context, userID string, doc Profile) error {
	if err := s.Repo.Save(ctx, userID, doc); err != nil {
		return err
	}
	if s.OnChange != nil {
		s.OnChange(ctx, userID)
	}
	return nil
}

// Flat returns the flattened key->value view of the user's current profile.
func (s *Service) Flat(ctx context.Context, userID string) (map[string]string, error) {
	doc, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Flatten(doc), nil
}

// DeleteByUser removes the stored document and fires the change hook.
func (s *Service) DeleteByUser(ctx context.Context, userID string) error {
	if err := s.Repo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if s.OnChange != nil {
		s.OnChange(ctx, userID)
	}
	return nil
}
