package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventfolio/eventfolio/pkg/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(Config{
		Root:         t.TempDir(),
		LockRetries:  20,
		LockInterval: time.Millisecond,
	})
	require.NoError(t, s.Initialize(context.Background()))
	return s
}

func eventResource(id, version, markdown string) core.Resource {
	return core.Resource{
		ID:      id,
		Version: version,
		Kind:    core.KindEvent,
		Metadata: core.Metadata{
			"name":    id,
			"summary": "test event",
		},
		Markdown: markdown,
	}
}

func TestStoreWriteGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	in := core.Resource{
		ID:      "OrderPlaced",
		Version: "1.0.0",
		Kind:    core.KindEvent,
		Metadata: core.Metadata{
			"name":    "Order Placed",
			"summary": "A customer placed an order",
			"owners":  []any{"orders-team"},
		},
		Markdown: "## Overview\n\nEmitted at checkout.",
	}

	require.NoError(t, s.Write(ctx, in, WriteOptions{}))

	got, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	// Exact version reads resolve against the current document's field.
	byVersion, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, in, byVersion)
}

func TestStoreGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.Get(ctx, core.KindEvent, "Nope", "")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", ""), WriteOptions{}))

	// Exact matching only: a prefix of the version is not a match.
	_, err = s.Get(ctx, core.KindEvent, "OrderPlaced", "1.0")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreWriteConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	res := eventResource("OrderPlaced", "1.0.0", "first")
	require.NoError(t, s.Write(ctx, res, WriteOptions{}))

	err := s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "second"), WriteOptions{})
	assert.ErrorIs(t, err, core.ErrAlreadyExists)

	// Override rewrites in place without creating a snapshot.
	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "second"), WriteOptions{Override: true}))
	got, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Markdown)

	_, err = os.Stat(filepath.Join(s.Root, "events", "OrderPlaced", versionedDir))
	assert.True(t, os.IsNotExist(err), "override must not archive")
}

func TestStoreWriteCustomPath(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	res := eventResource("InvoicePaid", "1.0.0", "")
	opts := WriteOptions{Path: "domains/payments/services/billing/events/InvoicePaid"}
	require.NoError(t, s.Write(ctx, res, opts))

	got, err := s.Get(ctx, core.KindEvent, "InvoicePaid", "")
	require.NoError(t, err)
	assert.Equal(t, "InvoicePaid", got.ID)

	rel, err := s.DocumentPath(ctx, core.KindEvent, "InvoicePaid", "")
	require.NoError(t, err)
	assert.Equal(t, "domains/payments/services/billing/events/InvoicePaid/index.md", rel)
}

func TestStoreVersionExistingContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "0.0.1", "old body"), WriteOptions{}))
	require.NoError(t, s.AddAttachment(ctx, core.KindEvent, "OrderPlaced", "", "schema.json", []byte(`{"type":"object"}`)))

	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "new body"),
		WriteOptions{VersionExistingContent: true}))

	current, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", current.Version)
	assert.Equal(t, "new body", current.Markdown)

	// The prior form survives as an immutable snapshot, attachments included.
	archived, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "old body", archived.Markdown)

	schema, err := s.ReadAttachment(ctx, core.KindEvent, "OrderPlaced", "0.0.1", "schema.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"object"}`, string(schema))
}

func TestStoreVersionNotGreater(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "current"), WriteOptions{}))

	err := s.Write(ctx, eventResource("OrderPlaced", "0.9.0", "stale"),
		WriteOptions{VersionExistingContent: true})
	assert.ErrorIs(t, err, core.ErrVersionNotGreater)

	// The rejected write must leave the current document untouched.
	got, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, "current", got.Markdown)

	_, err = os.Stat(filepath.Join(s.Root, "events", "OrderPlaced", versionedDir))
	assert.True(t, os.IsNotExist(err), "rejected write must not archive")
}

func TestStorePromote(t *testing.T) {
	ctx := context.Background()

	t.Run("Archives Document And Attachments", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "body"), WriteOptions{}))
		require.NoError(t, s.AddAttachment(ctx, core.KindEvent, "OrderPlaced", "", "schema.json", []byte("{}")))

		require.NoError(t, s.Promote(ctx, core.KindEvent, "OrderPlaced"))

		snapDir := filepath.Join(s.Root, "events", "OrderPlaced", versionedDir, "1.0.0")
		for _, name := range []string{docFilename, "schema.json"} {
			_, err := os.Stat(filepath.Join(snapDir, name))
			assert.NoError(t, err, name)
		}

		// The current form is cleared.
		exists, err := s.Exists(ctx, core.KindEvent, "OrderPlaced", "")
		require.NoError(t, err)
		assert.False(t, exists)

		// The snapshot stays readable by version.
		archived, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "1.0.0")
		require.NoError(t, err)
		assert.Equal(t, "body", archived.Markdown)
	})

	t.Run("Default Version", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(ctx, core.Resource{ID: "Unversioned", Kind: core.KindEvent}, WriteOptions{}))

		require.NoError(t, s.Promote(ctx, core.KindEvent, "Unversioned"))
		_, err := os.Stat(filepath.Join(s.Root, "events", "Unversioned", versionedDir, defaultPromoteVersion, docFilename))
		assert.NoError(t, err)
	})

	t.Run("Flat Kinds Refuse", func(t *testing.T) {
		s := newTestStore(t)
		assert.Error(t, s.Promote(ctx, core.KindTeam, "orders-team"))
	})

	t.Run("Missing Resource", func(t *testing.T) {
		s := newTestStore(t)
		assert.ErrorIs(t, s.Promote(ctx, core.KindEvent, "Nope"), core.ErrNotFound)
	})
}

func TestStoreRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("Snapshot Only", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "0.0.1", "old"), WriteOptions{}))
		require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "new"),
			WriteOptions{VersionExistingContent: true}))

		require.NoError(t, s.Remove(ctx, core.KindEvent, "OrderPlaced", "0.0.1", RemoveOptions{}))

		// Removal of a historical version never touches the current document.
		got, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", got.Version)

		_, err = s.Get(ctx, core.KindEvent, "OrderPlaced", "0.0.1")
		assert.ErrorIs(t, err, core.ErrNotFound)
	})

	t.Run("All Matches", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "0.0.1", "old"), WriteOptions{}))
		require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "new"),
			WriteOptions{VersionExistingContent: true}))

		require.NoError(t, s.Remove(ctx, core.KindEvent, "OrderPlaced", "", RemoveOptions{}))
		_, err := os.Stat(filepath.Join(s.Root, "events", "OrderPlaced"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("Persist Files", func(t *testing.T) {
		s := newTestStore(t)
		require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", ""), WriteOptions{}))
		require.NoError(t, s.AddAttachment(ctx, core.KindEvent, "OrderPlaced", "", "schema.json", []byte("{}")))

		require.NoError(t, s.Remove(ctx, core.KindEvent, "OrderPlaced", "", RemoveOptions{PersistFiles: true}))

		_, err := os.Stat(filepath.Join(s.Root, "events", "OrderPlaced", docFilename))
		assert.True(t, os.IsNotExist(err), "document should be gone")
		_, err = os.Stat(filepath.Join(s.Root, "events", "OrderPlaced", "schema.json"))
		assert.NoError(t, err, "attachment should survive")
	})

	t.Run("Not Found", func(t *testing.T) {
		s := newTestStore(t)
		assert.ErrorIs(t, s.Remove(ctx, core.KindEvent, "Nope", "", RemoveOptions{}), core.ErrNotFound)
	})
}

func TestStoreList(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "0.0.1", ""), WriteOptions{}))
	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", ""),
		WriteOptions{VersionExistingContent: true}))
	require.NoError(t, s.Write(ctx, eventResource("InvoicePaid", "1.0.0", ""),
		WriteOptions{Path: "domains/payments/services/billing/events/InvoicePaid"}))

	// A document that cannot be parsed is skipped, not fatal.
	writeDoc(t, s.Root, "events/Broken/index.md", "---\nid: Broken\n")

	t.Run("All Versions", func(t *testing.T) {
		all, err := s.List(ctx, core.KindEvent, ListOptions{})
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})

	t.Run("Latest Only", func(t *testing.T) {
		latest, err := s.List(ctx, core.KindEvent, ListOptions{LatestOnly: true})
		require.NoError(t, err)
		require.Len(t, latest, 2)
		ids := []string{latest[0].ID, latest[1].ID}
		assert.ElementsMatch(t, []string{"OrderPlaced", "InvoicePaid"}, ids)
	})

	t.Run("Call Scoped Exclude", func(t *testing.T) {
		got, err := s.List(ctx, core.KindEvent, ListOptions{
			LatestOnly: true,
			Exclude:    []string{"domains/**"},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "OrderPlaced", got[0].ID)
	})
}

func TestStoreAttachments(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Write(ctx, eventResource("OrderPlaced", "1.0.0", ""), WriteOptions{}))
	require.NoError(t, s.AddAttachment(ctx, core.KindEvent, "OrderPlaced", "", "schemas/payload.avsc", []byte("record")))

	data, err := s.ReadAttachment(ctx, core.KindEvent, "OrderPlaced", "", "schemas/payload.avsc")
	require.NoError(t, err)
	assert.Equal(t, "record", string(data))

	_, err = s.ReadAttachment(ctx, core.KindEvent, "OrderPlaced", "", "missing.json")
	assert.ErrorIs(t, err, core.ErrAttachmentMissing)

	err = s.AddAttachment(ctx, core.KindEvent, "Nope", "", "schema.json", []byte("{}"))
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestStoreConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	const writers = 4
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Write(ctx, eventResource("OrderPlaced", "1.0.0", "body"), WriteOptions{})
		}(i)
	}
	wg.Wait()

	// Exactly one writer wins; the rest observe the winner's document.
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, core.ErrAlreadyExists), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	got, err := s.Get(ctx, core.KindEvent, "OrderPlaced", "")
	require.NoError(t, err)
	assert.Equal(t, "body", got.Markdown)
}

func TestStoreFlatResources(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	team := core.Resource{
		ID:       "orders-team",
		Kind:     core.KindTeam,
		Metadata: core.Metadata{"name": "Orders Team"},
		Markdown: "We own checkout.",
	}
	require.NoError(t, s.Write(ctx, team, WriteOptions{}))

	// Flat kinds live as a single <id>.md file under their type directory.
	_, err := os.Stat(filepath.Join(s.Root, "teams", "orders-team.md"))
	require.NoError(t, err)

	got, err := s.Get(ctx, core.KindTeam, "orders-team", "")
	require.NoError(t, err)
	assert.Equal(t, team, got)

	require.NoError(t, s.Remove(ctx, core.KindTeam, "orders-team", "", RemoveOptions{}))
	_, err = os.Stat(filepath.Join(s.Root, "teams"))
	assert.NoError(t, err, "type directory survives flat removal")
}
