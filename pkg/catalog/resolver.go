package catalog

import (
	"path/filepath"
	"strings"
)

// splitCandidates partitions locator matches into the current document
// (canonical, unversioned path) and historical snapshots (paths traversing
// a versioned/ segment). At most one current candidate should exist; if the
// tree is inconsistent the first enumerated one wins.
func splitCandidates(paths []string) (current string, historical []string) {
	for _, p := range paths {
		if isVersionedPath(p) {
			historical = append(historical, p)
			continue
		}
		if current == "" {
			current = p
		}
	}
	return current, historical
}

// isVersionedPath reports whether the path traverses a versioned/ directory.
func isVersionedPath(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == versionedDir {
			return true
		}
	}
	return false
}

// resolveDocument picks the single document that answers a read for the
// requested version. Matching is exact string equality only: no semver
// ranges, no special-cased "latest" token. An empty version means the
// current document.
//
// readVersion is called at most once, to inspect the current document's
// version field when no historical snapshot matched.
func resolveDocument(paths []string, version string, readVersion func(path string) (string, error)) (string, error) {
	current, historical := splitCandidates(paths)

	if version == "" {
		return current, nil
	}

	segment := "/" + versionedDir + "/" + version + "/"
	for _, p := range historical {
		if strings.Contains(filepath.ToSlash(p), segment) {
			return p, nil
		}
	}

	if current == "" {
		return "", nil
	}
	v, err := readVersion(current)
	if err != nil {
		return "", err
	}
	if v == version {
		return current, nil
	}
	return "", nil
}
