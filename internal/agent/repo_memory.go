package agent

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory agent repository for tests and early development.
type MemoryRepo struct {
	mu     sync.Mutex
	agents map[string]Agent // key: workspace_id|id
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{agents: map[string]Agent{}}
}

func (r *MemoryRepo) Get(ctx context.Context, workspaceID, agentID string) (Agent, bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[workspaceID+"|"+agentID]
	return a, ok, nil
}

func (r *MemoryRepo) Put(ctx context.Context, a Agent) error {
	_ = ctx
	if a.WorkspaceID == "" || a.ID == "" {
		return ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.WorkspaceID+"|"+a.ID] = a
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, workspaceID string) ([]Agent, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Agent, 0)
	for _, a := range r.agents {
		if a.WorkspaceID == workspaceID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
