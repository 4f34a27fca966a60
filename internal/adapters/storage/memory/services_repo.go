package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"vetclinic-api/internal/domain/services"
)

type serviceRepo struct {
	mu   sync.RWMutex
	byID map[string]services.Service
}

func NewServiceRepo() services.Repository {
	return &serviceRepo{
		byID: make(map[string]services.Service),
	}
}

func (r *serviceRepo) Create(ctx context.Context, s services.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("service id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("service already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *serviceRepo) Update(ctx context.Context, s services.Service) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("service id required")
	}
	if _, exists := r.byID[s.ID]; !exists {
		return ErrNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *serviceRepo) GetByID(ctx context.Context, id string) (services.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return services.Service{}, ErrNotFound
	}
	return s, nil
}

func (r *serviceRepo) List(ctx context.Context, onlyActive bool) ([]services.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]services.Service, 0, len(r.byID))
	for _, s := range r.byID {
		if onlyActive && !s.IsActive {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (r *serviceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}
