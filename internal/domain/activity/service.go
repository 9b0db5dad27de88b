package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// MaxListLimit caps the page size of GetRecentActivity.
const MaxListLimit = 200

// Service handles activity log operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity logs an activity entry with the current timestamp if missing.
func (s *Service) LogActivity(ctx context.Context, businessID string, entry *Entry) error {
	if entry == nil || businessID == "" {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, businessID, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists activity entries with filtering, newest first.
func (s *Service) GetRecentActivity(ctx context.Context, businessID string, opts ListOptions) ([]Entry, error) {
	if opts.Limit < 0 || opts.Offset < 0 {
		return nil, ErrInvalidInput
	}
	if opts.Limit == 0 || opts.Limit > MaxListLimit {
		opts.Limit = MaxListLimit
	}
	entries, err := s.repo.List(ctx, businessID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}
