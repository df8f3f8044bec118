package tenant

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/burrowcms/burrow/config"
	"github.com/burrowcms/burrow/errors"
)

// Registry holds the deterministic mapping from tenant id to storage
// locator. It keeps no live connections; that is the pool's job.
type Registry struct {
	cfg    *config.Config
	logger *zap.SugaredLogger

	mu      sync.RWMutex
	tenants map[string]*Descriptor
}

// NewRegistry creates an empty registry over the given configuration.
func NewRegistry(cfg *config.Config, logger *zap.SugaredLogger) *Registry {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Registry{
		cfg:     cfg,
		logger:  logger.Named("tenant"),
		tenants: make(map[string]*Descriptor),
	}
}

// Register validates the id, derives its locator, and records the tenant.
// Returns ErrDuplicateTenant if the id is already registered and
// ErrInvalidTenantID if the id fails the identifier grammar.
func (r *Registry) Register(id string, kind Kind) (*Descriptor, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tenants[id]; ok {
		return nil, errors.NewDuplicateTenant(id)
	}

	desc := &Descriptor{
		ID:      id,
		Locator: r.derive(id, kind),
		Kind:    kind,
	}
	r.tenants[id] = desc

	r.logger.Infow("Registered tenant",
		"tenant", id,
		"kind", kind.String(),
		"locator", desc.Locator,
	)
	return desc, nil
}

// Resolve returns the descriptor for a registered tenant.
// Pure lookup: no I/O, no side effects.
func (r *Registry) Resolve(id string) (*Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.tenants[id]
	if !ok {
		return nil, errors.NewTenantNotFound(id)
	}
	return desc, nil
}

// List returns all registered tenant ids in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tenants))
	for id := range r.tenants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Derive returns the storage locator a tenant id maps to, without
// registering anything. Deterministic and injective: ids share a validated
// charset, so no two ids collide on one locator.
func (r *Registry) Derive(id string, kind Kind) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return r.derive(id, kind), nil
}

// derive assumes id has already been validated.
func (r *Registry) derive(id string, kind Kind) string {
	if kind == KindNetworked {
		n := r.cfg.Network
		cred := n.User
		if n.Password != "" {
			cred += ":" + n.Password
		}
		return fmt.Sprintf("%s@tcp(%s:%d)/tenant_%s?parseTime=true", cred, n.Host, n.Port, id)
	}
	return filepath.Join(r.cfg.Storage.BaseDir, "tenant-"+id+".db")
}
