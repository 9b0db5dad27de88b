package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/probill/internal/domain/access"
	"github.com/rpggio/probill/internal/domain/money"
	"github.com/rpggio/probill/internal/repository"
	"github.com/shopspring/decimal"
)

// Service handles project catalog operations.
type Service struct {
	repo    Repository
	checker access.Checker
	logger  *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, checker access.Checker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, checker: checker, logger: logger}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name           string
	Description    string
	DepositPercent *decimal.Decimal
}

// ServiceRequest defines the fields of a project service. Nil fields are left
// untouched on update.
type ServiceRequest struct {
	ProjectID      string
	ServiceID      string
	Label          *string
	Description    *string
	Quantity       *int64
	UnitPriceCents *int64
	ClearPrice     bool
	Recurring      *bool
}

// Create creates a new project.
func (s *Service) Create(ctx context.Context, actor access.Actor, req CreateRequest) (*Project, error) {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}
	if req.DepositPercent != nil {
		if err := money.CheckPercent(*req.DepositPercent); err != nil {
			return nil, err
		}
	}

	proj := &Project{
		ID:             uuid.NewString(),
		BusinessID:     actor.BusinessID,
		Name:           strings.TrimSpace(req.Name),
		Description:    req.Description,
		DepositPercent: req.DepositPercent,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(ctx, proj); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created", "business_id", proj.BusinessID, "project_id", proj.ID)
	return proj, nil
}

// Get fetches a project by ID.
func (s *Service) Get(ctx context.Context, businessID, id string) (*Project, error) {
	proj, err := s.repo.GetProject(ctx, businessID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}
	return proj, nil
}

// List returns project summaries.
func (s *Service) List(ctx context.Context, businessID string) ([]ProjectSummary, error) {
	list, err := s.repo.List(ctx, businessID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return list, nil
}

// ListServices returns the services attached to a project.
func (s *Service) ListServices(ctx context.Context, businessID, projectID string) ([]ProjectService, error) {
	if _, err := s.Get(ctx, businessID, projectID); err != nil {
		return nil, err
	}
	services, err := s.repo.ListServices(ctx, businessID, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing project services: %w", err)
	}
	return services, nil
}

// AddService attaches a new service to a project.
func (s *Service) AddService(ctx context.Context, actor access.Actor, req ServiceRequest) (*ProjectService, error) {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, actor.BusinessID, req.ProjectID); err != nil {
		return nil, err
	}

	now := time.Now()
	svc := &ProjectService{
		ID:         uuid.NewString(),
		ProjectID:  req.ProjectID,
		BusinessID: actor.BusinessID,
		Quantity:   1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := applyServiceRequest(svc, req); err != nil {
		return nil, err
	}

	if err := s.repo.AddService(ctx, svc); err != nil {
		return nil, fmt.Errorf("adding project service: %w", err)
	}
	return svc, nil
}

// UpdateService changes the label, quantity, price or billing mode of a
// service. Documents already built from the service keep their own copy.
func (s *Service) UpdateService(ctx context.Context, actor access.Actor, req ServiceRequest) (*ProjectService, error) {
	if err := access.Require(ctx, s.checker, actor); err != nil {
		return nil, err
	}

	svc, err := s.repo.GetService(ctx, actor.BusinessID, req.ServiceID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("getting project service: %w", err)
	}

	updated := *svc
	if err := applyServiceRequest(&updated, req); err != nil {
		return nil, err
	}
	updated.UpdatedAt = time.Now()

	if err := s.repo.UpdateService(ctx, &updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("updating project service: %w", err)
	}
	return &updated, nil
}

func applyServiceRequest(svc *ProjectService, req ServiceRequest) error {
	if req.Label != nil {
		svc.Label = strings.TrimSpace(*req.Label)
	}
	if req.Description != nil {
		svc.Description = *req.Description
	}
	if req.Quantity != nil {
		svc.Quantity = *req.Quantity
	}
	if req.ClearPrice {
		svc.UnitPriceCents = nil
	} else if req.UnitPriceCents != nil {
		price := *req.UnitPriceCents
		svc.UnitPriceCents = &price
	}
	if req.Recurring != nil {
		svc.Recurring = *req.Recurring
	}

	if svc.Label == "" {
		return ErrInvalidInput
	}
	if svc.Quantity < 1 || (svc.UnitPriceCents != nil && *svc.UnitPriceCents < 0) {
		return ErrInvalidPrice
	}
	return nil
}
