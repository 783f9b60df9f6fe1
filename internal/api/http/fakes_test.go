package http

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/repository"
)

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]*domain.User)}
}

func (f *fakeUsers) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Username == user.Username {
			return repository.ErrConflict
		}
	}
	user.ID = uuid.NewString()
	stored := *user
	f.users[user.ID] = &stored
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeVendors struct {
	mu      sync.Mutex
	vendors map[int64]string
}

func newFakeVendors(vendors map[int64]string) *fakeVendors {
	return &fakeVendors{vendors: vendors}
}

func (f *fakeVendors) List(context.Context) ([]domain.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]domain.Vendor, 0, len(f.vendors))
	for id, name := range f.vendors {
		result = append(result, domain.Vendor{ID: id, Name: name})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (f *fakeVendors) GetByID(_ context.Context, id int64) (*domain.Vendor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.vendors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.Vendor{ID: id, Name: name}, nil
}

func (f *fakeVendors) Create(_ context.Context, vendor *domain.Vendor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	vendor.ID = int64(len(f.vendors) + 100)
	f.vendors[vendor.ID] = vendor.Name
	return nil
}

func (f *fakeVendors) Missing(_ context.Context, ids []int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var missing []int64
	for _, id := range ids {
		if _, ok := f.vendors[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// fakeEntities fills VendorName on reads the way the postgres join does.
type fakeEntities struct {
	mu      sync.Mutex
	nextID  int64
	rows    map[int64]domain.Entity
	vendors *fakeVendors
}

func newFakeEntities(vendors *fakeVendors) *fakeEntities {
	return &fakeEntities{nextID: 1, rows: make(map[int64]domain.Entity), vendors: vendors}
}

func (f *fakeEntities) withVendorName(row domain.Entity) domain.Entity {
	f.vendors.mu.Lock()
	defer f.vendors.mu.Unlock()
	row.VendorName = f.vendors.vendors[row.VendorID]
	return row
}

// seed stores entity and returns its id.
func (f *fakeEntities) seed(entity domain.Entity) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	entity.ID = f.nextID
	f.nextID++
	f.rows[entity.ID] = entity
	return entity.ID
}

func (f *fakeEntities) List(_ context.Context, kind domain.EntityKind) ([]domain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []domain.Entity{}
	for _, row := range f.rows {
		if row.Kind == kind {
			result = append(result, f.withVendorName(row))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (f *fakeEntities) GetByID(_ context.Context, kind domain.EntityKind, id int64) (*domain.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.Kind != kind {
		return nil, repository.ErrNotFound
	}
	row = f.withVendorName(row)
	return &row, nil
}

func (f *fakeEntities) Create(_ context.Context, entity *domain.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Kind == entity.Kind && row.VendorID == entity.VendorID && row.Name == entity.Name {
			return repository.ErrConflict
		}
	}
	entity.ID = f.nextID
	f.nextID++
	f.rows[entity.ID] = *entity
	return nil
}

func (f *fakeEntities) Update(_ context.Context, entity *domain.Entity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[entity.ID]; !ok {
		return repository.ErrNotFound
	}
	f.rows[entity.ID] = *entity
	return nil
}

func (f *fakeEntities) Delete(_ context.Context, kind domain.EntityKind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.Kind != kind {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}
