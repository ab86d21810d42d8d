package eventfolio

import (
	"context"
	"fmt"
	"path"

	"github.com/eventfolio/eventfolio/pkg/catalog"
	"github.com/eventfolio/eventfolio/pkg/core"
)

// resources binds a kind and its type directory before delegating to the
// store. All facades share it.
type resources struct {
	store *catalog.Store
	kind  core.Kind
}

// Get retrieves a resource by id. An empty version means the current one.
func (r *resources) Get(ctx context.Context, id, version string) (core.Resource, error) {
	return r.store.Get(ctx, r.kind, id, version)
}

// Exists reports whether id (optionally at version) is on disk.
func (r *resources) Exists(ctx context.Context, id, version string) (bool, error) {
	return r.store.Exists(ctx, r.kind, id, version)
}

// List returns all resources of this kind.
func (r *resources) List(ctx context.Context, opts catalog.ListOptions) ([]core.Resource, error) {
	return r.store.List(ctx, r.kind, opts)
}

// Write persists a resource of this kind. The facade owns the kind tag.
func (r *resources) Write(ctx context.Context, res core.Resource, opts catalog.WriteOptions) error {
	res.Kind = r.kind
	return r.store.Write(ctx, res, opts)
}

// Remove deletes matching documents for id.
func (r *resources) Remove(ctx context.Context, id, version string, opts catalog.RemoveOptions) error {
	return r.store.Remove(ctx, r.kind, id, version, opts)
}

// AddAttachment writes a file (e.g. a schema) alongside the document.
func (r *resources) AddAttachment(ctx context.Context, id, version, fileName string, content []byte) error {
	return r.store.AddAttachment(ctx, r.kind, id, version, fileName, content)
}

// ReadAttachment returns a file stored alongside the document.
func (r *resources) ReadAttachment(ctx context.Context, id, version, fileName string) ([]byte, error) {
	return r.store.ReadAttachment(ctx, r.kind, id, version, fileName)
}

// Messages is the facade for one message kind (event, command or query).
type Messages struct {
	resources
}

// Version promotes the current document into a historical snapshot.
func (m *Messages) Version(ctx context.Context, id string) error {
	return m.store.Promote(ctx, m.kind, id)
}

// OwningDomains resolves the domain(s) that own this message, or an empty
// list when ownership is unresolved.
func (m *Messages) OwningDomains(ctx context.Context, id, version string) ([]core.Pointer, error) {
	return m.store.ResolveOwningDomains(ctx, m.kind, id, version)
}

// ServiceSet is the facade for service resources.
type ServiceSet struct {
	resources
}

// Version promotes the current service document into a historical snapshot.
func (s *ServiceSet) Version(ctx context.Context, id string) error {
	return s.store.Promote(ctx, s.kind, id)
}

// AddMessageEdge records that a service sends or receives a message.
// direction must be "sends" or "receives"; duplicates are dropped, order
// preserved. The edge is not checked for referential existence.
func (s *ServiceSet) AddMessageEdge(ctx context.Context, serviceID, serviceVersion, direction string, ptr core.Pointer) error {
	svc, err := s.Get(ctx, serviceID, serviceVersion)
	if err != nil {
		return err
	}
	if err := svc.AddEdge(direction, ptr); err != nil {
		return fmt.Errorf("service %s: %w", serviceID, err)
	}
	docPath, err := s.store.DocumentPath(ctx, s.kind, serviceID, serviceVersion)
	if err != nil {
		return err
	}
	return s.Write(ctx, svc, catalog.WriteOptions{Override: true, Path: path.Dir(docPath)})
}

// DomainSet is the facade for domain resources.
type DomainSet struct {
	resources
}

// Version promotes the current domain document into a historical snapshot.
func (d *DomainSet) Version(ctx context.Context, id string) error {
	return d.store.Promote(ctx, d.kind, id)
}

// AddService records a service as a member of a domain, deduplicated.
func (d *DomainSet) AddService(ctx context.Context, domainID, domainVersion string, ptr core.Pointer) error {
	dom, err := d.Get(ctx, domainID, domainVersion)
	if err != nil {
		return err
	}
	dom.AddService(ptr)
	docPath, err := d.store.DocumentPath(ctx, d.kind, domainID, domainVersion)
	if err != nil {
		return err
	}
	return d.Write(ctx, dom, catalog.WriteOptions{Override: true, Path: path.Dir(docPath)})
}

// FlatSet is the facade for flat, unversioned resources (teams and users):
// single files named <id>.md directly under their type root.
type FlatSet struct {
	resources
}
