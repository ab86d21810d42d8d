// Resource is the central entity of the domain.
package core

import "fmt"

// Kind identifies the type of a catalog resource. It determines the
// directory subtree the resource lives under and which metadata fields
// are meaningful.
type Kind string

const (
	KindEvent   Kind = "event"
	KindCommand Kind = "command"
	KindQuery   Kind = "query"
	KindService Kind = "service"
	KindDomain  Kind = "domain"
	KindTeam    Kind = "team"
	KindUser    Kind = "user"
)

// Kinds lists every resource kind in canonical order.
var Kinds = []Kind{KindEvent, KindCommand, KindQuery, KindService, KindDomain, KindTeam, KindUser}

var kindDirs = map[Kind]string{
	KindEvent:   "events",
	KindCommand: "commands",
	KindQuery:   "queries",
	KindService: "services",
	KindDomain:  "domains",
	KindTeam:    "teams",
	KindUser:    "users",
}

// Dir returns the canonical root directory name for the kind.
func (k Kind) Dir() string {
	return kindDirs[k]
}

// Flat reports whether resources of this kind are stored as single flat
// files (no versioning, no nested directory). True for teams and users.
func (k Kind) Flat() bool {
	return k == KindTeam || k == KindUser
}

// Message reports whether the kind is a message (event, command or query).
func (k Kind) Message() bool {
	return k == KindEvent || k == KindCommand || k == KindQuery
}

// ParseKind converts a string into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if _, ok := kindDirs[k]; !ok {
		return "", fmt.Errorf("unknown resource kind: %q", s)
	}
	return k, nil
}

// Metadata represents the flexible key-value pairs associated with a resource.
type Metadata map[string]any

// Pointer references a resource by id and an optional version.
// An empty version means "whatever is latest at read time".
type Pointer struct {
	ID      string `yaml:"id" json:"id"`
	Version string `yaml:"version,omitempty" json:"version,omitempty"`
}

// Equal reports whether two pointers reference the same (id, version) pair.
func (p Pointer) Equal(o Pointer) bool {
	return p.ID == o.ID && p.Version == o.Version
}

// DedupPointers removes duplicate (id, version) pairs, keeping the first
// occurrence and preserving insertion order.
func DedupPointers(ps []Pointer) []Pointer {
	out := make([]Pointer, 0, len(ps))
	for _, p := range ps {
		dup := false
		for _, q := range out {
			if q.Equal(p) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, p)
		}
	}
	return out
}

// Edge directions on a service.
const (
	DirectionSends    = "sends"
	DirectionReceives = "receives"
)

// Resource is a typed, id+version addressed document stored in the catalog.
// Metadata holds the open, type-specific fields; Markdown is the free-form
// body below the metadata block.
type Resource struct {
	ID       string
	Version  string
	Kind     Kind
	Metadata Metadata
	Markdown string
}

// Edges returns the sends or receives pointer list of a service resource.
// The list decodes lazily from Metadata, so resources read from disk and
// resources built in memory behave the same.
func (r *Resource) Edges(direction string) ([]Pointer, error) {
	if direction != DirectionSends && direction != DirectionReceives {
		return nil, fmt.Errorf("direction %q: %w", direction, ErrInvalidDirection)
	}
	if r.Metadata == nil {
		return nil, nil
	}
	return pointersFromValue(r.Metadata[direction]), nil
}

// SetEdges replaces the pointer list for the given direction, deduplicated.
func (r *Resource) SetEdges(direction string, ps []Pointer) error {
	if direction != DirectionSends && direction != DirectionReceives {
		return fmt.Errorf("direction %q: %w", direction, ErrInvalidDirection)
	}
	if r.Metadata == nil {
		r.Metadata = make(Metadata)
	}
	r.Metadata[direction] = DedupPointers(ps)
	return nil
}

// AddEdge appends a pointer to the given direction, ignoring duplicates.
func (r *Resource) AddEdge(direction string, p Pointer) error {
	existing, err := r.Edges(direction)
	if err != nil {
		return err
	}
	return r.SetEdges(direction, append(existing, p))
}

// Services returns the service membership list of a domain resource.
func (r *Resource) Services() []Pointer {
	if r.Metadata == nil {
		return nil
	}
	return pointersFromValue(r.Metadata["services"])
}

// AddService appends a service pointer to a domain's membership list,
// ignoring duplicates.
func (r *Resource) AddService(p Pointer) {
	if r.Metadata == nil {
		r.Metadata = make(Metadata)
	}
	r.Metadata["services"] = DedupPointers(append(r.Services(), p))
}

// pointersFromValue converts the loosely-typed YAML shapes a pointer list
// can take after a round trip ([]Pointer, []any of maps) back into pointers.
func pointersFromValue(v any) []Pointer {
	switch list := v.(type) {
	case nil:
		return nil
	case []Pointer:
		return list
	case []any:
		out := make([]Pointer, 0, len(list))
		for _, item := range list {
			switch e := item.(type) {
			case Pointer:
				out = append(out, e)
			case map[string]any:
				p := Pointer{}
				if id, ok := e["id"].(string); ok {
					p.ID = id
				}
				switch ver := e["version"].(type) {
				case string:
					p.Version = ver
				case int:
					p.Version = fmt.Sprintf("%d", ver)
				}
				if p.ID != "" {
					out = append(out, p)
				}
			}
		}
		return out
	default:
		return nil
	}
}

// EventType represents the type of change observed in the catalog.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a catalog document, emitted by the watcher.
type Event struct {
	Type      EventType
	Path      string // document path relative to the catalog root
	Timestamp int64  // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Type, e.Path)
}
