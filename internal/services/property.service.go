package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nimasrn/property-marketplace/internal/apperr"
	"github.com/nimasrn/property-marketplace/internal/model"
	"github.com/nimasrn/property-marketplace/internal/repository"
	"github.com/nimasrn/property-marketplace/pkg/logger"
	"github.com/nimasrn/property-marketplace/pkg/prom"
)

var (
	ErrNotListingOwner       = apperr.Forbidden("only the listing's seller may edit it")
	ErrInvalidPropertyStatus = apperr.Validation("status must be approved, pending, rejected or unavailable")
	ErrInvalidListing        = apperr.Validation("title is required and price may not be negative")
)

type PropertyStore interface {
	Create(ctx context.Context, p *model.Property) (*model.Property, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Property, error)
	Update(ctx context.Context, p *model.Property) (*model.Property, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.PropertyStatus) error
	List(ctx context.Context, f model.PropertyFilter) ([]*model.Property, int64, error)
}

// PropertyInput is what a seller may set on a listing.
type PropertyInput struct {
	Title    string
	Price    float64
	Location string
	AgentID  *uuid.UUID
	Features model.PropertyFeatures
}

func (in PropertyInput) valid() bool {
	return strings.TrimSpace(in.Title) != "" && in.Price >= 0
}

type PropertyPage struct {
	Items []*model.Property `json:"items"`
	Total int64             `json:"total"`
}

type PropertyService struct {
	properties PropertyStore
}

func NewPropertyService(properties PropertyStore) *PropertyService {
	return &PropertyService{properties: properties}
}

// Create opens a listing for sellerID. New listings wait for admin approval.
func (s *PropertyService) Create(ctx context.Context, sellerID uuid.UUID, in PropertyInput) (*model.Property, error) {
	if !in.valid() {
		return nil, ErrInvalidListing
	}
	p, err := s.properties.Create(ctx, &model.Property{
		UserID:   sellerID,
		AgentID:  in.AgentID,
		Title:    strings.TrimSpace(in.Title),
		Price:    in.Price,
		Location: strings.TrimSpace(in.Location),
		Status:   model.PropertyStatusPending,
		Features: in.Features,
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	prom.IncListingAction("create")
	logger.Info("listing created", "property_id", p.ID, "seller_id", sellerID)
	return p, nil
}

// Update edits a listing. Only the owning seller may do it and the status is
// left as it is.
func (s *PropertyService) Update(ctx context.Context, id, actorID uuid.UUID, in PropertyInput) (*model.Property, error) {
	if !in.valid() {
		return nil, ErrInvalidListing
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != actorID {
		return nil, ErrNotListingOwner
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Price = in.Price
	p.Location = strings.TrimSpace(in.Location)
	p.AgentID = in.AgentID
	p.Features = in.Features
	updated, err := s.properties.Update(ctx, p)
	if errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	prom.IncListingAction("update")
	return updated, nil
}

// SetStatus is the admin moderation step. Listings are never deleted, only
// flagged.
func (s *PropertyService) SetStatus(ctx context.Context, id uuid.UUID, rawStatus string) (*model.Property, error) {
	status, ok := model.ParsePropertyStatus(rawStatus)
	if !ok {
		return nil, ErrInvalidPropertyStatus
	}
	err := s.properties.UpdateStatus(ctx, id, status)
	if errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	prom.IncListingAction(string(status))
	logger.Info("listing status changed", "property_id", id, "status", status)
	return s.Get(ctx, id)
}

func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	p, err := s.properties.GetByID(ctx, id)
	if errors.Is(err, repository.ErrPropertyNotFound) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return p, nil
}

func (s *PropertyService) ListSellerProperties(ctx context.Context, sellerID uuid.UUID, limit, offset int) (*PropertyPage, error) {
	return s.list(ctx, model.PropertyFilter{UserID: &sellerID, Limit: limit, Offset: offset})
}

// ListAdmin returns every listing, or only those with rawStatus when given.
func (s *PropertyService) ListAdmin(ctx context.Context, rawStatus string, limit, offset int) (*PropertyPage, error) {
	f := model.PropertyFilter{Limit: limit, Offset: offset}
	if strings.TrimSpace(rawStatus) != "" {
		status, ok := model.ParsePropertyStatus(rawStatus)
		if !ok {
			return nil, ErrInvalidPropertyStatus
		}
		f.Status = status
	}
	return s.list(ctx, f)
}

func (s *PropertyService) list(ctx context.Context, f model.PropertyFilter) (*PropertyPage, error) {
	items, total, err := s.properties.List(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &PropertyPage{Items: items, Total: total}, nil
}
