// Package repotest provides in-process repositories for tests that exercise code
// above the storage layer.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/repository"
)

// TokenRepository is an in-process repository.TokenRepository. It enforces the same
// name and key uniqueness as the Postgres schema.
type TokenRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.APIToken
	byKey  map[string]string
	byName map[string]string
	now    func() time.Time
}

var _ repository.TokenRepository = (*TokenRepository)(nil)

// NewTokenRepository builds an empty repository.
func NewTokenRepository() *TokenRepository {
	return &TokenRepository{
		byID:   make(map[string]*domain.APIToken),
		byKey:  make(map[string]string),
		byName: make(map[string]string),
		now:    time.Now,
	}
}

func (r *TokenRepository) Create(_ context.Context, token *domain.APIToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[token.Name]; exists {
		return repository.ErrConflict
	}
	if _, exists := r.byKey[token.Key]; exists {
		return repository.ErrConflict
	}

	token.ID = uuid.NewString()
	token.CreatedAt = r.now()
	token.UpdatedAt = token.CreatedAt

	stored := cloneToken(token)
	r.byID[stored.ID] = stored
	r.byKey[stored.Key] = stored.ID
	r.byName[stored.Name] = stored.ID
	return nil
}

func (r *TokenRepository) GetByKey(_ context.Context, key string) (*domain.APIToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(r.byID[id]), nil
}

func (r *TokenRepository) GetByID(_ context.Context, id string) (*domain.APIToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	token, ok := r.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneToken(token), nil
}

func (r *TokenRepository) List(_ context.Context) ([]domain.APIToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.APIToken, 0, len(r.byID))
	for _, token := range r.byID {
		result = append(result, *cloneToken(token))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (r *TokenRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	token, ok := r.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byKey, token.Key)
	delete(r.byName, token.Name)
	return nil
}

func cloneToken(token *domain.APIToken) *domain.APIToken {
	clone := *token
	clone.AllowedVendors = append([]int64(nil), token.AllowedVendors...)
	return &clone
}
