package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// Document filenames recognized by the catalog. index.md is canonical for
// writes; index.mdx is accepted on read for catalogs produced by an older
// writer.
const (
	docFilename    = "index.md"
	docFilenameAlt = "index.mdx"
)

// versionedDir is the directory name historical snapshots live under.
const versionedDir = "versioned"

// locator finds documents by embedded id without any persisted index.
// Every call re-scans the tree.
type locator struct {
	root      string
	systemDir string
	exclude   []string
}

// ignoredDirs are skipped during enumeration regardless of configuration,
// in the style of dependency-manager ignore lists.
var ignoredDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// pattern returns the enumeration glob for a kind. Documents may live
// directly under the type directory or nested below a service or domain
// directory; both are covered by the same pattern.
func (l *locator) pattern(kind core.Kind) string {
	if kind.Flat() {
		return "**/" + kind.Dir() + "/*.{md,mdx}"
	}
	return "**/" + kind.Dir() + "/**/{" + docFilename + "," + docFilenameAlt + "}"
}

// enumerate returns every document path of the given kind under the root,
// relative to the root, in filesystem enumeration order.
func (l *locator) enumerate(kind core.Kind) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(l.root), l.pattern(kind))
	if err != nil {
		return nil, &core.LocatorError{Root: l.root, Err: err}
	}

	out := matches[:0]
	for _, m := range matches {
		if l.skip(m) {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// skip reports whether a relative path falls under an ignored directory or
// a caller-supplied exclude glob.
func (l *locator) skip(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if ignoredDirs[seg] || (l.systemDir != "" && seg == l.systemDir) {
			return true
		}
	}
	for _, glob := range l.exclude {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// find returns the absolute path of every document of the given kind whose
// embedded id equals id. If version is non-empty, the same document must
// also carry a matching version line. Matching is content-based: the raw
// text is scanned with line-anchored patterns, so identity never requires a
// full metadata parse.
func (l *locator) find(kind core.Kind, id, version string) ([]string, error) {
	candidates, err := l.enumerate(kind)
	if err != nil {
		return nil, err
	}

	idRe := frontmatterLine("id", id)
	var versionRe *regexp.Regexp
	if version != "" {
		versionRe = frontmatterLine("version", version)
	}

	var matches []string
	for _, rel := range candidates {
		full := filepath.Join(l.root, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, &core.LocatorError{Root: l.root, Err: err}
		}
		if !idRe.Match(data) {
			continue
		}
		if versionRe != nil && !versionRe.Match(data) {
			continue
		}
		matches = append(matches, full)
	}
	return matches, nil
}

// frontmatterLine builds a line-anchored pattern for a metadata line such as
// `id: orders` or `version: "1.0.0"`. Quotes are optional.
func frontmatterLine(key, value string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?m)^%s:\s*['"]?%s['"]?\s*$`, key, regexp.QuoteMeta(value)))
}
