package bots

import (
	"fmt"
	"sync"

	"Omnitrade/internal/domain/models"
)

// Registry is the fixed bot catalog plus each bot's activation flag.
// One lock covers the whole list so readers always see a coherent set of flags.
type Registry struct {
	mu    sync.RWMutex
	bots  []models.BotDefinition
	index map[string]int
}

// NewRegistry validates defs and takes a private copy of them.
func NewRegistry(defs []models.BotDefinition) (*Registry, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("%w: empty bot catalog", models.ErrInvalidInput)
	}
	r := &Registry{
		bots:  make([]models.BotDefinition, len(defs)),
		index: make(map[string]int, len(defs)),
	}
	copy(r.bots, defs)

	names := make(map[string]struct{}, len(defs))
	guardians := 0
	for i, b := range r.bots {
		if b.ID == "" || b.Name == "" {
			return nil, fmt.Errorf("%w: bot at position %d missing id or name", models.ErrInvalidInput, i)
		}
		if !b.Kind.Valid() {
			return nil, fmt.Errorf("%w: bot %s has unknown kind %q", models.ErrInvalidInput, b.ID, b.Kind)
		}
		if _, dup := r.index[b.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate bot id %s", models.ErrInvalidInput, b.ID)
		}
		if _, dup := names[b.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate bot name %q", models.ErrInvalidInput, b.Name)
		}
		if b.IsGuardian != (b.Kind == models.KindGuardian) {
			return nil, fmt.Errorf("%w: bot %s guardian flag does not match kind", models.ErrInvalidInput, b.ID)
		}
		if b.IsGuardian {
			guardians++
		}
		r.index[b.ID] = i
		names[b.Name] = struct{}{}
	}
	if guardians != 1 {
		return nil, fmt.Errorf("%w: catalog needs exactly one guardian, got %d", models.ErrInvalidInput, guardians)
	}
	return r, nil
}

// NewDefaultRegistry builds a registry over DefaultCatalog.
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCatalog())
	if err != nil {
		panic(fmt.Sprintf("default bot catalog: %v", err))
	}
	return r
}

// List returns a copy of all bots in catalog order.
func (r *Registry) List() []models.BotDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.BotDefinition, len(r.bots))
	copy(out, r.bots)
	return out
}

func (r *Registry) FindByID(id string) (models.BotDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return models.BotDefinition{}, fmt.Errorf("bot %q: %w", id, models.ErrNotFound)
	}
	return r.bots[i], nil
}

// Activate sets the bot's active flag. Activating an active bot is a no-op.
func (r *Registry) Activate(id string) (models.BotDefinition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.index[id]
	if !ok {
		return models.BotDefinition{}, fmt.Errorf("bot %q: %w", id, models.ErrNotFound)
	}
	r.bots[i].Active = true
	return r.bots[i], nil
}
