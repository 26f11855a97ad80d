package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/comitanigiacomo/habitflow-sync-engine/internal/core/domain"
)

var (
	_ domain.SnapshotRepository = (*InMemorySnapshotRepository)(nil)
	_ domain.UserRepository     = (*InMemoryUserRepository)(nil)
)

// InMemorySnapshotRepository keeps encoded documents so callers never share
// maps with the store.
type InMemorySnapshotRepository struct {
	store map[string][]byte

	mu sync.RWMutex
}

func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{
		store: make(map[string][]byte),
	}
}

func (r *InMemorySnapshotRepository) Load(ctx context.Context, userID string) (*domain.Snapshot, error) {
	r.mu.RLock()
	data, ok := r.store[userID]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("repository: decode document for %s: %w", userID, err)
	}
	return &snap, nil
}

func (r *InMemorySnapshotRepository) Save(ctx context.Context, userID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("repository: encode document for %s: %w", userID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.store[userID] = data
	return nil
}

func (r *InMemorySnapshotRepository) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.store, userID)
	return nil
}

type InMemoryUserRepository struct {
	byID    map[string]domain.User
	byEmail map[string]string

	mu sync.RWMutex
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	r.byID[user.ID] = *user
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *InMemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}
