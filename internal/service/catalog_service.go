package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

// maxNameLength matches the VARCHAR(300) name columns.
const maxNameLength = 300

// EntityInput carries the writable fields of a product or software entry. Nil fields
// are absent: a replace treats them as empty, a merge leaves them unchanged. A date
// flagged in Clear is set to null.
type EntityInput struct {
	VendorID  *int64
	Name      *string
	Lifecycle domain.LifecycleDates
	Clear     LifecycleClear
}

// LifecycleClear flags lifecycle dates that were explicitly sent as null.
type LifecycleClear struct {
	EndOfLifeAnnounced bool
	EndOfEngineering   bool
	EndOfSale          bool
	EndOfLife          bool
}

// CatalogService serves vendors, products and software.
type CatalogService struct {
	vendors    repository.VendorRepository
	entities   repository.EntityRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// CatalogDependencies bundles repositories for the catalog service.
type CatalogDependencies struct {
	VendorRepo repository.VendorRepository
	EntityRepo repository.EntityRepository
	Dispatcher events.Dispatcher
}

// NewCatalogService constructs the service.
func NewCatalogService(deps CatalogDependencies) *CatalogService {
	return &CatalogService{
		vendors:    deps.VendorRepo,
		entities:   deps.EntityRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// ListVendors returns every vendor ordered by name.
func (s *CatalogService) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	return s.vendors.List(ctx)
}

// GetVendor loads one vendor.
func (s *CatalogService) GetVendor(ctx context.Context, id int64) (*domain.Vendor, error) {
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("vendor", map[string]any{"vendor_id": id})
		}
		return nil, err
	}
	return vendor, nil
}

// CreateVendor adds a vendor. Only reachable from the admin CLI.
func (s *CatalogService) CreateVendor(ctx context.Context, name string) (*domain.Vendor, error) {
	name = strings.TrimSpace(name)
	if err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.RuneLength(1, maxNameLength).Error(fmt.Sprintf("name must be at most %d characters", maxNameLength)),
	); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"name": err.Error()})
	}

	vendor := &domain.Vendor{Name: name}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("vendor already exists", map[string]any{"name": name})
		}
		return nil, fmt.Errorf("store vendor: %w", err)
	}
	return vendor, nil
}

// List returns every entity of kind.
func (s *CatalogService) List(ctx context.Context, kind domain.EntityKind) ([]domain.Entity, error) {
	return s.entities.List(ctx, kind)
}

// Get loads one entity.
func (s *CatalogService) Get(ctx context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	entity, err := s.entities.GetByID(ctx, kind, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound(string(kind), map[string]any{"id": id})
		}
		return nil, err
	}
	return entity, nil
}

// Create stores a new entity.
func (s *CatalogService) Create(ctx context.Context, actor events.Actor, kind domain.EntityKind, input EntityInput) (*domain.Entity, error) {
	entity := &domain.Entity{Kind: kind}
	applyInput(entity, input, true)

	if err := s.validate(ctx, entity); err != nil {
		return nil, err
	}
	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, s.writeError(entity, err)
	}
	if err := s.fillVendorName(ctx, entity); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventEntityCreated, actor, entity)
	return entity, nil
}

// Update writes input over existing. With replace set every field is overwritten
// (PUT); otherwise only fields present in input change (PATCH). Callers must have
// authorized the change against existing's vendor already.
func (s *CatalogService) Update(ctx context.Context, actor events.Actor, existing *domain.Entity, input EntityInput, replace bool) (*domain.Entity, error) {
	updated := *existing
	applyInput(&updated, input, replace)

	if err := s.validate(ctx, &updated); err != nil {
		return nil, err
	}
	if err := s.entities.Update(ctx, &updated); err != nil {
		return nil, s.writeError(&updated, err)
	}
	if updated.VendorID != existing.VendorID {
		if err := s.fillVendorName(ctx, &updated); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, events.EventEntityUpdated, actor, &updated)
	return &updated, nil
}

// Delete removes existing.
func (s *CatalogService) Delete(ctx context.Context, actor events.Actor, existing *domain.Entity) error {
	if err := s.entities.Delete(ctx, existing.Kind, existing.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound(string(existing.Kind), map[string]any{"id": existing.ID})
		}
		return err
	}
	s.publish(ctx, events.EventEntityDeleted, actor, existing)
	return nil
}

func applyInput(entity *domain.Entity, input EntityInput, replace bool) {
	if replace {
		entity.VendorID = 0
		entity.Name = ""
		entity.Lifecycle = domain.LifecycleDates{}
	}
	if input.VendorID != nil {
		entity.VendorID = *input.VendorID
	}
	if input.Name != nil {
		entity.Name = strings.TrimSpace(*input.Name)
	}
	mergeDate(&entity.Lifecycle.EndOfLifeAnnounced, input.Lifecycle.EndOfLifeAnnounced, input.Clear.EndOfLifeAnnounced)
	mergeDate(&entity.Lifecycle.EndOfEngineering, input.Lifecycle.EndOfEngineering, input.Clear.EndOfEngineering)
	mergeDate(&entity.Lifecycle.EndOfSale, input.Lifecycle.EndOfSale, input.Clear.EndOfSale)
	mergeDate(&entity.Lifecycle.EndOfLife, input.Lifecycle.EndOfLife, input.Clear.EndOfLife)
}

func mergeDate(dst **time.Time, src *time.Time, clear bool) {
	switch {
	case src != nil:
		d := *src
		*dst = &d
	case clear:
		*dst = nil
	}
}

func (s *CatalogService) validate(ctx context.Context, entity *domain.Entity) error {
	err := validation.ValidateStruct(entity,
		validation.Field(&entity.VendorID,
			validation.Required.Error("vendor is required"),
			validation.Min(int64(1)).Error("vendor must be a positive id"),
		),
		validation.Field(&entity.Name,
			validation.Required.Error("name is required"),
			validation.RuneLength(1, maxNameLength).Error(fmt.Sprintf("name must be at most %d characters", maxNameLength)),
		),
	)
	if err != nil {
		return wrapValidationError(err)
	}

	if _, err := s.vendors.GetByID(ctx, entity.VendorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewValidationError("validation failed", map[string]any{"vendor": "vendor does not exist"})
		}
		return fmt.Errorf("load vendor: %w", err)
	}
	return nil
}

func (s *CatalogService) writeError(entity *domain.Entity, err error) error {
	switch {
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(fmt.Sprintf("%s with this vendor and name already exists", entity.Kind),
			map[string]any{"vendor": entity.VendorID, "name": entity.Name})
	case errors.Is(err, repository.ErrReferenceMissing):
		return apperrors.NewValidationError("validation failed", map[string]any{"vendor": "vendor does not exist"})
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(string(entity.Kind), map[string]any{"id": entity.ID})
	}
	return fmt.Errorf("store %s: %w", entity.Kind, err)
}

func (s *CatalogService) fillVendorName(ctx context.Context, entity *domain.Entity) error {
	vendor, err := s.vendors.GetByID(ctx, entity.VendorID)
	if err != nil {
		return fmt.Errorf("load vendor: %w", err)
	}
	entity.VendorName = vendor.Name
	return nil
}

func (s *CatalogService) publish(ctx context.Context, eventType events.EventType, actor events.Actor, entity *domain.Entity) {
	publishEvent(ctx, s.dispatcher, s.now, events.Event{
		Type:      eventType,
		SubjectID: fmt.Sprintf("%s:%d", entity.Kind, entity.ID),
		Actor:     actor,
		Payload: events.EntityPayload{
			Kind:     string(entity.Kind),
			VendorID: entity.VendorID,
			Name:     entity.Name,
		},
	})
}
