package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// ResolveOwningDomains derives the domain(s) that own a message.
//
// Ownership is asymmetric: physical nesting of the message under a domain
// directory wins outright; only when no nesting exists are the receivers of
// the message consulted, and a producer's sends edges are never looked at.
// The receiver of a message is treated as its contract owner.
//
// An empty result with a nil error means the ownership is unresolved.
func (s *Store) ResolveOwningDomains(ctx context.Context, kind core.Kind, id, version string) ([]core.Pointer, error) {
	if !kind.Message() {
		return nil, fmt.Errorf("owning domains are resolved for messages, got kind %q", kind)
	}

	path, err := s.resolvePath(kind, id, version)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, notFound(kind, id, version)
	}

	if domains := s.domainsFromPath(ctx, path); len(domains) > 0 {
		return dedupeDomains(domains), nil
	}

	// No nesting. Fall back to the service graph: a service whose receives
	// list references this message vouches for it.
	currentVersion := ""
	if cur, err := s.resolvePath(kind, id, ""); err == nil && cur != "" {
		if res, rerr := s.readDocument(cur, kind, id); rerr == nil {
			currentVersion = res.Version
		}
	}
	queried := version
	if queried == "" {
		queried = currentVersion
	}

	services, err := s.List(ctx, core.KindService, ListOptions{LatestOnly: true})
	if err != nil {
		return nil, err
	}

	var owners []core.Pointer
	for _, svc := range services {
		receives, rerr := svc.Edges(core.DirectionReceives)
		if rerr != nil {
			continue
		}
		if !edgeMatches(receives, id, queried, currentVersion) {
			continue
		}

		svcDomains, derr := s.serviceDomains(ctx, svc)
		if derr != nil {
			return nil, derr
		}
		owners = append(owners, svcDomains...)
	}

	return dedupeDomains(owners), nil
}

// edgeMatches reports whether any edge references the message at the
// queried version. An edge with its version omitted matches only when the
// queried version is the message's current version.
func edgeMatches(edges []core.Pointer, id, queried, currentVersion string) bool {
	for _, edge := range edges {
		if edge.ID != id {
			continue
		}
		if edge.Version == "" {
			if queried != "" && queried == currentVersion {
				return true
			}
			continue
		}
		if edge.Version == queried {
			return true
		}
	}
	return false
}

// serviceDomains resolves the owning domain(s) of a service: directory
// nesting first, then domain membership lists. Services have no further
// fallback; an un-nested service no domain claims resolves to nothing.
func (s *Store) serviceDomains(ctx context.Context, svc core.Resource) ([]core.Pointer, error) {
	svcPath, err := s.resolvePath(core.KindService, svc.ID, "")
	if err != nil {
		return nil, err
	}
	if svcPath != "" {
		if domains := s.domainsFromPath(ctx, svcPath); len(domains) > 0 {
			return domains, nil
		}
	}

	domains, err := s.List(ctx, core.KindDomain, ListOptions{LatestOnly: true})
	if err != nil {
		return nil, err
	}

	var owners []core.Pointer
	for _, dom := range domains {
		for _, member := range dom.Services() {
			if member.ID != svc.ID {
				continue
			}
			if member.Version != "" && member.Version != svc.Version {
				continue
			}
			owners = append(owners, core.Pointer{ID: dom.ID, Version: dom.Version})
			break
		}
	}
	return owners, nil
}

// domainsFromPath derives domain pointers from the directory nesting of a
// document path: every `domains/<id>` segment pair contributes one owner.
// The domain's version comes from its current document when readable.
func (s *Store) domainsFromPath(ctx context.Context, path string) []core.Pointer {
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return nil
	}

	var owners []core.Pointer
	segs := strings.Split(filepath.ToSlash(rel), "/")
	for i := 0; i < len(segs)-1; i++ {
		if segs[i] != core.KindDomain.Dir() {
			continue
		}
		domainID := segs[i+1]
		if domainID == "" || domainID == versionedDir {
			continue
		}
		p := core.Pointer{ID: domainID}
		if dom, derr := s.Get(ctx, core.KindDomain, domainID, ""); derr == nil {
			p.Version = dom.Version
		}
		owners = append(owners, p)
	}
	return owners
}

// dedupeDomains collapses pointers by domain id, keeping the highest version
// seen per id. Versions compare semantically when both parse, lexically
// otherwise.
func dedupeDomains(ps []core.Pointer) []core.Pointer {
	var out []core.Pointer
	for _, p := range ps {
		found := false
		for i, q := range out {
			if q.ID != p.ID {
				continue
			}
			found = true
			if versionLess(q.Version, p.Version) {
				out[i] = p
			}
			break
		}
		if !found {
			out = append(out, p)
		}
	}
	return out
}

func versionLess(a, b string) bool {
	av, aerr := semver.NewVersion(a)
	bv, berr := semver.NewVersion(b)
	if aerr == nil && berr == nil {
		return av.LessThan(bv)
	}
	return a < b
}
