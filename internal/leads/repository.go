package leads

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for lead storage
type Repository interface {
	Create(ctx context.Context, p *Payload) (*Lead, error)
	UpdateSyncStatus(ctx context.Context, id string, upd SyncUpdate) error
	GetByID(ctx context.Context, id string) (*Lead, error)
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}

// InMemoryRepository keeps leads in process memory. It backs local
// development and tests.
type InMemoryRepository struct {
	mu       sync.RWMutex
	leads    map[string]*Lead
	recorded map[string]bool
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		leads:    make(map[string]*Lead),
		recorded: make(map[string]bool),
	}
}

// Create stores a new lead with every sync flag false.
func (r *InMemoryRepository) Create(ctx context.Context, p *Payload) (*Lead, error) {
	now := time.Now().UTC()
	lead := &Lead{
		Payload:    *p,
		ID:         uuid.New().String(),
		SyncErrors: []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.mu.Lock()
	r.leads[lead.ID] = lead
	r.mu.Unlock()

	return cloneLead(lead), nil
}

// UpdateSyncStatus records the fan-out outcome. It may run once per lead.
func (r *InMemoryRepository) UpdateSyncStatus(ctx context.Context, id string, upd SyncUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	lead, ok := r.leads[id]
	if !ok {
		return ErrLeadNotFound
	}
	if r.recorded[id] {
		return ErrSyncAlreadyRecorded
	}
	lead.SyncedToSheets = upd.SyncedToSheets
	lead.SyncedToGHL = upd.SyncedToGHL
	if upd.GHLContactID != "" {
		contactID := upd.GHLContactID
		lead.GHLContactID = &contactID
	}
	lead.SyncErrors = append([]string{}, upd.SyncErrors...)
	lead.UpdatedAt = time.Now().UTC()
	r.recorded[id] = true
	return nil
}

// GetByID retrieves a lead by ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lead, ok := r.leads[id]
	if !ok {
		return nil, ErrLeadNotFound
	}
	return cloneLead(lead), nil
}

// List returns leads newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	r.mu.RLock()
	all := make([]*Lead, 0, len(r.leads))
	for _, lead := range r.leads {
		if filter.FormSource != "" && lead.FormSource != filter.FormSource {
			continue
		}
		if filter.Unsynced && lead.SyncedToSheets && lead.SyncedToGHL {
			continue
		}
		all = append(all, cloneLead(lead))
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if filter.Offset >= len(all) {
		return []*Lead{}, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func cloneLead(l *Lead) *Lead {
	out := *l
	out.SyncErrors = append([]string{}, l.SyncErrors...)
	if l.GHLContactID != nil {
		id := *l.GHLContactID
		out.GHLContactID = &id
	}
	return &out
}
