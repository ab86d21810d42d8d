package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/eventfolio/eventfolio/pkg/core"
)

// defaultPromoteVersion is assumed when a current document carries no
// version field at promotion time.
const defaultPromoteVersion = "0.0.1"

// Config holds the configuration for a catalog store.
type Config struct {
	Root      string
	MustExist bool
	Logger    *slog.Logger
	SystemDir string   // e.g. ".eventfolio"
	Exclude   []string // extra globs excluded from enumeration

	// Write-lock tuning. Zero values fall back to the defaults.
	LockRetries  int
	LockInterval time.Duration
	LockStale    time.Duration
}

// Store is the versioned resource store. It orchestrates the locator,
// version resolver and codec over a catalog root bound at construction.
type Store struct {
	Root   string
	config Config
	loc    *locator
	lock   lockConfig

	mu            sync.RWMutex
	watcherActive bool
}

// NewStore creates a store rooted at config.Root.
func NewStore(config Config) *Store {
	if config.SystemDir == "" {
		config.SystemDir = ".eventfolio"
	}

	lock := defaultLockConfig()
	if config.LockRetries > 0 {
		lock.retries = config.LockRetries
	}
	if config.LockInterval > 0 {
		lock.interval = config.LockInterval
	}
	if config.LockStale > 0 {
		lock.stale = config.LockStale
	}

	return &Store{
		Root:   config.Root,
		config: config,
		lock:   lock,
		loc: &locator{
			root:      config.Root,
			systemDir: config.SystemDir,
			exclude:   config.Exclude,
		},
	}
}

// Initialize performs the necessary setup for the store (mkdir).
func (s *Store) Initialize(ctx context.Context) error {
	if s.config.MustExist {
		info, err := os.Stat(s.Root)
		if os.IsNotExist(err) {
			return fmt.Errorf("catalog path does not exist: %s", s.Root)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("catalog path is not a directory: %s", s.Root)
		}
		return nil
	}
	if err := os.MkdirAll(s.Root, 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	return nil
}

// Get retrieves a resource by id. An empty version returns the current
// document; otherwise the version is matched exactly, preferring a
// historical snapshot over the current document's version field.
func (s *Store) Get(ctx context.Context, kind core.Kind, id, version string) (core.Resource, error) {
	path, err := s.resolvePath(kind, id, version)
	if err != nil {
		return core.Resource{}, err
	}
	if path == "" {
		return core.Resource{}, notFound(kind, id, version)
	}
	return s.readDocument(path, kind, id)
}

// DocumentPath returns the root-relative path of the document answering a
// read for id@version. Useful for callers that must write a resource back
// to wherever it already lives.
func (s *Store) DocumentPath(ctx context.Context, kind core.Kind, id, version string) (string, error) {
	path, err := s.resolvePath(kind, id, version)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", notFound(kind, id, version)
	}
	rel, err := filepath.Rel(s.Root, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Exists reports whether a document for id (optionally at version) is on disk.
func (s *Store) Exists(ctx context.Context, kind core.Kind, id, version string) (bool, error) {
	path, err := s.resolvePath(kind, id, version)
	if err != nil {
		return false, err
	}
	return path != "", nil
}

// ListOptions filters a List call.
type ListOptions struct {
	LatestOnly bool     // exclude historical snapshots
	Exclude    []string // extra exclude globs for this call
}

// List returns all resources of a kind. The scan is subtree-agnostic: a
// message directly under its type directory and one nested under a service
// or domain directory are discovered by the same pattern. The enumeration
// is a point-in-time snapshot with no isolation from concurrent writers.
func (s *Store) List(ctx context.Context, kind core.Kind, opts ListOptions) ([]core.Resource, error) {
	rels, err := s.loc.enumerate(kind)
	if err != nil {
		return nil, err
	}

	var resources []core.Resource
	for _, rel := range rels {
		if opts.LatestOnly && isVersionedPath(rel) {
			continue
		}
		if excluded(rel, opts.Exclude) {
			continue
		}

		full := filepath.Join(s.Root, filepath.FromSlash(rel))
		res, err := s.readDocument(full, kind, "")
		if err != nil {
			if s.config.Logger != nil {
				s.config.Logger.Warn("skipping unparseable document", "path", rel, "error", err)
			}
			continue
		}
		resources = append(resources, res)
	}
	return resources, nil
}

// WriteOptions controls a Write call.
type WriteOptions struct {
	// Path overrides the target directory, relative to the catalog root.
	// Defaults to <typeDir>/<id>.
	Path string

	// Override allows replacing an existing id+version in place.
	Override bool

	// VersionExistingContent promotes the current document into a
	// historical snapshot before writing, requiring the new version to be
	// strictly greater than the current one.
	VersionExistingContent bool
}

// Write persists a resource document, creating directories as needed.
// Access to the target document is serialized with an advisory file lock
// held across the existence check and the write.
func (s *Store) Write(ctx context.Context, res core.Resource, opts WriteOptions) error {
	if res.ID == "" {
		return fmt.Errorf("resource has no id")
	}
	if res.Kind.Dir() == "" {
		return fmt.Errorf("unknown resource kind: %q", res.Kind)
	}

	docPath := s.documentPath(res.Kind, res.ID, opts.Path)
	if err := os.MkdirAll(filepath.Dir(docPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	unlock, err := acquireLock(docPath, s.lock, s.config.Logger)
	if err != nil {
		return err
	}
	defer unlock()

	exists, err := s.Exists(ctx, res.Kind, res.ID, res.Version)
	if err != nil {
		return err
	}
	if exists && !opts.Override {
		return fmt.Errorf("%s %s@%s: %w", res.Kind, res.ID, res.Version, core.ErrAlreadyExists)
	}

	if opts.VersionExistingContent && !exists {
		if err := s.versionExisting(ctx, res); err != nil {
			return err
		}
	}

	data, err := encodeResource(res)
	if err != nil {
		return fmt.Errorf("failed to serialize %s %s: %w", res.Kind, res.ID, err)
	}

	if s.config.Logger != nil {
		s.config.Logger.Debug("writing resource", "kind", res.Kind, "id", res.ID, "version", res.Version, "path", docPath)
	}
	if err := writeFileAtomic(docPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

// versionExisting archives the current document for res.ID, enforcing
// monotonic versioning. A missing current document is not an error; there
// is simply nothing to archive.
func (s *Store) versionExisting(ctx context.Context, res core.Resource) error {
	currentPath, err := s.resolvePath(res.Kind, res.ID, "")
	if err != nil {
		return err
	}
	if currentPath == "" {
		return nil
	}

	current, err := s.readDocument(currentPath, res.Kind, res.ID)
	if err != nil {
		return err
	}

	greater, err := versionGreater(res.Version, current.Version)
	if err != nil {
		return err
	}
	if !greater {
		return fmt.Errorf("%s %s: new version %q vs current %q: %w",
			res.Kind, res.ID, res.Version, current.Version, core.ErrVersionNotGreater)
	}

	return s.Promote(ctx, res.Kind, res.ID)
}

// RemoveOptions controls a Remove call.
type RemoveOptions struct {
	// PersistFiles deletes only the matched document files, keeping
	// attachments and the containing directory in place.
	PersistFiles bool
}

// Remove deletes every document matching id (optionally constrained to an
// exact version). Without PersistFiles, each match's containing directory
// is removed recursively, taking attachments with it. Removal is not
// atomic; a crash can leave a partially-deleted directory behind.
func (s *Store) Remove(ctx context.Context, kind core.Kind, id, version string, opts RemoveOptions) error {
	matches, err := s.loc.find(kind, id, version)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return notFound(kind, id, version)
	}

	for _, docPath := range matches {
		if s.config.Logger != nil {
			s.config.Logger.Debug("removing resource", "kind", kind, "id", id, "path", docPath, "persistFiles", opts.PersistFiles)
		}
		if opts.PersistFiles || kind.Flat() {
			if err := os.Remove(docPath); err != nil {
				return fmt.Errorf("failed to remove document: %w", err)
			}
			continue
		}
		if err := os.RemoveAll(filepath.Dir(docPath)); err != nil {
			return fmt.Errorf("failed to remove resource directory: %w", err)
		}
	}
	return nil
}

// Promote archives the current document for id into an immutable historical
// snapshot under versioned/<version>, together with every co-located
// attachment file. The copy runs in two phases through a staging directory:
// copying a directory into a nested child of itself is unsafe when source
// and destination overlap. Promotion is not atomic; a crash can leave the
// resource split between its current and versioned locations.
func (s *Store) Promote(ctx context.Context, kind core.Kind, id string) error {
	if kind.Flat() {
		return fmt.Errorf("%s resources are not versioned", kind)
	}

	currentPath, err := s.resolvePath(kind, id, "")
	if err != nil {
		return err
	}
	if currentPath == "" {
		return notFound(kind, id, "")
	}

	current, err := s.readDocument(currentPath, kind, id)
	if err != nil {
		return err
	}
	version := current.Version
	if version == "" {
		version = defaultPromoteVersion
	}

	resourceDir := filepath.Dir(currentPath)
	target := filepath.Join(resourceDir, versionedDir, version)

	staging, err := os.MkdirTemp("", "eventfolio-staging-")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(staging)

	skipVersioned := func(rel string, _ os.DirEntry) bool {
		return rel == versionedDir
	}
	if err := copyTree(resourceDir, staging, skipVersioned); err != nil {
		return fmt.Errorf("failed to stage %s %s: %w", kind, id, err)
	}
	if err := copyTree(staging, target, nil); err != nil {
		return fmt.Errorf("failed to archive %s %s@%s: %w", kind, id, version, err)
	}

	if s.config.Logger != nil {
		s.config.Logger.Debug("promoted resource", "kind", kind, "id", id, "version", version, "target", target)
	}

	// Clear the current form, leaving the versioned/ child (and any held
	// lock file) in place.
	entries, err := os.ReadDir(resourceDir)
	if err != nil {
		return fmt.Errorf("failed to read resource directory: %w", err)
	}
	for _, entry := range entries {
		if entry.Name() == versionedDir || strings.HasSuffix(entry.Name(), lockSuffix) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(resourceDir, entry.Name())); err != nil {
			return fmt.Errorf("failed to clear current resource: %w", err)
		}
	}
	return nil
}

// AddAttachment writes a file alongside the resolved document, e.g. a
// schema or specification file.
func (s *Store) AddAttachment(ctx context.Context, kind core.Kind, id, version, fileName string, content []byte) error {
	path, err := s.resolvePath(kind, id, version)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("cannot find directory for %w", notFound(kind, id, version))
	}

	target := filepath.Join(filepath.Dir(path), filepath.FromSlash(fileName))
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}
	return writeFileAtomic(target, content, 0644)
}

// ReadAttachment returns the contents of a file stored alongside the
// resolved document.
func (s *Store) ReadAttachment(ctx context.Context, kind core.Kind, id, version, fileName string) ([]byte, error) {
	path, err := s.resolvePath(kind, id, version)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, notFound(kind, id, version)
	}

	target := filepath.Join(filepath.Dir(path), filepath.FromSlash(fileName))
	data, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s %s: %s: %w", kind, id, fileName, core.ErrAttachmentMissing)
		}
		return nil, err
	}
	return data, nil
}

// --- Internals ---

// documentPath computes the absolute path of the document a write targets.
func (s *Store) documentPath(kind core.Kind, id, override string) string {
	if kind.Flat() {
		dir := kind.Dir()
		if override != "" {
			dir = filepath.FromSlash(override)
		}
		return filepath.Join(s.Root, dir, id+".md")
	}

	dir := filepath.Join(kind.Dir(), id)
	if override != "" {
		dir = filepath.FromSlash(override)
	}
	return filepath.Join(s.Root, dir, docFilename)
}

// resolvePath locates the single document answering a read for id@version,
// or "" when nothing matches.
func (s *Store) resolvePath(kind core.Kind, id, version string) (string, error) {
	candidates, err := s.loc.find(kind, id, "")
	if err != nil {
		return "", err
	}
	return resolveDocument(candidates, version, func(path string) (string, error) {
		res, err := s.readDocument(path, kind, id)
		if err != nil {
			return "", err
		}
		return res.Version, nil
	})
}

// readDocument reads and decodes a document, filling in the id for flat
// files whose metadata block may omit it.
func (s *Store) readDocument(path string, kind core.Kind, id string) (core.Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Resource{}, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	res, err := decodeResource(data, kind)
	if err != nil {
		return core.Resource{}, fmt.Errorf("failed to parse document %s: %w", path, err)
	}
	if res.ID == "" {
		res.ID = id
	}
	return *res, nil
}

// versionGreater reports whether newer is strictly greater than current
// under semantic versioning.
func versionGreater(newer, current string) (bool, error) {
	nv, err := semver.NewVersion(newer)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", newer, err)
	}
	cv, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("invalid version %q: %w", current, err)
	}
	return nv.GreaterThan(cv), nil
}

func excluded(rel string, globs []string) bool {
	for _, glob := range globs {
		if ok, err := doublestar.Match(glob, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func notFound(kind core.Kind, id, version string) error {
	if version == "" {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return fmt.Errorf("%s %s@%s: %w", kind, id, version, core.ErrNotFound)
}
