package eventfolio

import (
	"context"

	"github.com/eventfolio/eventfolio/pkg/catalog"
	"github.com/eventfolio/eventfolio/pkg/core"
)

// Catalog is the top-level SDK handle: a versioned resource store bound to
// a catalog root, plus per-kind facades.
type Catalog struct {
	store *catalog.Store
}

// New opens (or creates, unless WithMustExist) a catalog rooted at path.
func New(path string, opts ...Option) (*Catalog, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store := catalog.NewStore(catalog.Config{
		Root:         path,
		MustExist:    o.mustExist,
		Logger:       o.logger,
		SystemDir:    o.systemDir,
		Exclude:      o.exclude,
		LockRetries:  o.lockRetries,
		LockInterval: o.lockInterval,
		LockStale:    o.lockStale,
	})

	if err := store.Initialize(context.Background()); err != nil {
		return nil, err
	}

	return &Catalog{store: store}, nil
}

// Store exposes the underlying versioned resource store.
func (c *Catalog) Store() *catalog.Store {
	return c.store
}

// Events returns the facade for event resources.
func (c *Catalog) Events() *Messages {
	return &Messages{resources{c.store, core.KindEvent}}
}

// Commands returns the facade for command resources.
func (c *Catalog) Commands() *Messages {
	return &Messages{resources{c.store, core.KindCommand}}
}

// Queries returns the facade for query resources.
func (c *Catalog) Queries() *Messages {
	return &Messages{resources{c.store, core.KindQuery}}
}

// Services returns the facade for service resources.
func (c *Catalog) Services() *ServiceSet {
	return &ServiceSet{resources{c.store, core.KindService}}
}

// Domains returns the facade for domain resources.
func (c *Catalog) Domains() *DomainSet {
	return &DomainSet{resources{c.store, core.KindDomain}}
}

// Teams returns the facade for team resources (flat files, unversioned).
func (c *Catalog) Teams() *FlatSet {
	return &FlatSet{resources{c.store, core.KindTeam}}
}

// Users returns the facade for user resources (flat files, unversioned).
func (c *Catalog) Users() *FlatSet {
	return &FlatSet{resources{c.store, core.KindUser}}
}

// Watch observes document changes under the catalog root.
func (c *Catalog) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	return c.store.Watch(ctx, pattern)
}
