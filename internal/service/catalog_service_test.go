package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/events"
	"github.com/Cristi-la/EOL-Net/internal/repository"
	apperrors "github.com/Cristi-la/EOL-Net/pkg/util/errorutil"
)

var tokenActor = events.Actor{Kind: events.ActorAPIToken, ID: "token-1"}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

type catalogFixture struct {
	svc        *CatalogService
	vendors    *mockVendorRepository
	entities   *mockEntityRepository
	dispatcher *recordingDispatcher
}

func newCatalogFixture() *catalogFixture {
	f := &catalogFixture{
		vendors:    &mockVendorRepository{},
		entities:   &mockEntityRepository{},
		dispatcher: &recordingDispatcher{},
	}
	f.svc = NewCatalogService(CatalogDependencies{
		VendorRepo: f.vendors,
		EntityRepo: f.entities,
		Dispatcher: f.dispatcher,
	})
	f.vendors.On("GetByID", mock.Anything, int64(5)).Return(&domain.Vendor{ID: 5, Name: "Cisco"}, nil).Maybe()
	f.vendors.On("GetByID", mock.Anything, int64(6)).Return(&domain.Vendor{ID: 6, Name: "Juniper"}, nil).Maybe()
	f.vendors.On("GetByID", mock.Anything, int64(404)).Return(nil, repository.ErrNotFound).Maybe()
	return f
}

func TestCatalogService_Create(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Create", mock.Anything, mock.MatchedBy(func(e *domain.Entity) bool {
		return e.Kind == domain.EntityProduct && e.VendorID == 5 && e.Name == "ISR 4321"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Entity).ID = 10
	}).Return(nil)

	entity, err := f.svc.Create(context.Background(), tokenActor, domain.EntityProduct, EntityInput{
		VendorID:  int64Ptr(5),
		Name:      strPtr(" ISR 4321 "),
		Lifecycle: domain.LifecycleDates{EndOfSale: datePtr(2025, 11, 7)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), entity.ID)
	assert.Equal(t, "Cisco", entity.VendorName)
	assert.Equal(t, datePtr(2025, 11, 7), entity.Lifecycle.EndOfSale)
	assert.Equal(t, []events.EventType{events.EventEntityCreated}, f.dispatcher.types())
}

func TestCatalogService_CreateValidation(t *testing.T) {
	f := newCatalogFixture()

	_, err := f.svc.Create(context.Background(), tokenActor, domain.EntitySoftware, EntityInput{Name: strPtr("IOS")})
	domainErr := apperrors.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Contains(t, domainErr.Details, "VendorID")

	_, err = f.svc.Create(context.Background(), tokenActor, domain.EntitySoftware, EntityInput{VendorID: int64Ptr(404), Name: strPtr("IOS")})
	domainErr = apperrors.ToDomainError(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	assert.Contains(t, domainErr.Details, "vendor")

	f.entities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCatalogService_CreateConflict(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Create", mock.Anything, mock.Anything).Return(repository.ErrConflict)

	_, err := f.svc.Create(context.Background(), tokenActor, domain.EntityProduct, EntityInput{VendorID: int64Ptr(5), Name: strPtr("dup")})
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))
	assert.Empty(t, f.dispatcher.types())
}

func existingEntity() *domain.Entity {
	return &domain.Entity{
		ID:         3,
		Kind:       domain.EntityProduct,
		VendorID:   5,
		VendorName: "Cisco",
		Name:       "ASR 1001",
		Lifecycle: domain.LifecycleDates{
			EndOfSale: datePtr(2024, 1, 1),
			EndOfLife: datePtr(2029, 1, 1),
		},
	}
}

func TestCatalogService_PatchMergesPresentFields(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Update", mock.Anything, mock.Anything).Return(nil)
	existing := existingEntity()

	updated, err := f.svc.Update(context.Background(), tokenActor, existing, EntityInput{
		Lifecycle: domain.LifecycleDates{EndOfLife: datePtr(2030, 6, 1)},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "ASR 1001", updated.Name)
	assert.Equal(t, int64(5), updated.VendorID)
	assert.Equal(t, datePtr(2024, 1, 1), updated.Lifecycle.EndOfSale)
	assert.Equal(t, datePtr(2030, 6, 1), updated.Lifecycle.EndOfLife)
	assert.Equal(t, datePtr(2029, 1, 1), existing.Lifecycle.EndOfLife, "existing is not mutated")
}

func TestCatalogService_PutReplaces(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.svc.Update(context.Background(), tokenActor, existingEntity(), EntityInput{
		VendorID: int64Ptr(6),
		Name:     strPtr("MX204"),
	}, true)
	require.NoError(t, err)

	assert.Equal(t, "MX204", updated.Name)
	assert.Equal(t, "Juniper", updated.VendorName)
	assert.Nil(t, updated.Lifecycle.EndOfSale)
	assert.Nil(t, updated.Lifecycle.EndOfLife)
	assert.Equal(t, []events.EventType{events.EventEntityUpdated}, f.dispatcher.types())
}

func TestCatalogService_PutRequiresAllFields(t *testing.T) {
	f := newCatalogFixture()

	_, err := f.svc.Update(context.Background(), tokenActor, existingEntity(), EntityInput{Name: strPtr("x")}, true)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestCatalogService_PatchClearsNullDates(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := f.svc.Update(context.Background(), tokenActor, existingEntity(), EntityInput{
		Clear: LifecycleClear{EndOfSale: true},
	}, false)
	require.NoError(t, err)

	assert.Nil(t, updated.Lifecycle.EndOfSale)
	assert.Equal(t, datePtr(2029, 1, 1), updated.Lifecycle.EndOfLife)
}

func TestCatalogService_NameLength(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.vendors.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Create(context.Background(), tokenActor, domain.EntityProduct, EntityInput{
		VendorID: int64Ptr(5),
		Name:     strPtr(strings.Repeat("n", 300)),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), tokenActor, domain.EntityProduct, EntityInput{
		VendorID: int64Ptr(5),
		Name:     strPtr(strings.Repeat("n", 301)),
	})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, err = f.svc.CreateVendor(context.Background(), strings.Repeat("v", 300))
	require.NoError(t, err)
	_, err = f.svc.CreateVendor(context.Background(), strings.Repeat("v", 301))
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestCatalogService_Delete(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("Delete", mock.Anything, domain.EntityProduct, int64(3)).Return(nil).Once()
	f.entities.On("Delete", mock.Anything, domain.EntityProduct, int64(3)).Return(repository.ErrNotFound)

	require.NoError(t, f.svc.Delete(context.Background(), tokenActor, existingEntity()))
	err := f.svc.Delete(context.Background(), tokenActor, existingEntity())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
	assert.Equal(t, []events.EventType{events.EventEntityDeleted}, f.dispatcher.types())
}

func TestCatalogService_GetNotFound(t *testing.T) {
	f := newCatalogFixture()
	f.entities.On("GetByID", mock.Anything, domain.EntitySoftware, int64(9)).Return(nil, repository.ErrNotFound)

	_, err := f.svc.Get(context.Background(), domain.EntitySoftware, 9)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, err = f.svc.GetVendor(context.Background(), 404)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestCatalogService_CreateVendor(t *testing.T) {
	f := newCatalogFixture()
	f.vendors.On("Create", mock.Anything, mock.MatchedBy(func(v *domain.Vendor) bool { return v.Name == "Arista" })).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Vendor).ID = 7 }).
		Return(nil)

	vendor, err := f.svc.CreateVendor(context.Background(), " Arista ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), vendor.ID)

	_, err = f.svc.CreateVendor(context.Background(), "")
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
}

func TestAuditService_RecordsEvents(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewAuditService(dispatcher, zap.New(core)).RegisterHandlers()

	f := newCatalogFixture()
	f.svc.dispatcher = dispatcher
	f.entities.On("Delete", mock.Anything, domain.EntityProduct, int64(3)).Return(nil)
	require.NoError(t, f.svc.Delete(context.Background(), tokenActor, existingEntity()))

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: events.EventTokenRevoked, SubjectID: "t1", Actor: adminActor}))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "entity_deleted", entries[0].ContextMap()["event_type"])
	assert.Equal(t, "token-1", entries[0].ContextMap()["actor_id"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
}
