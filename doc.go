// Package eventfolio is a file-backed content catalog for event-driven
// architectures.
//
// Resources (events, commands, queries, services, domains, teams, users)
// are persisted as frontmatter documents under a directory tree and
// addressed by a human-assigned id plus a version string rather than a
// path. The catalog is optimized for human-browsable output: versioning is
// directory-convention based (historical snapshots live under
// versioned/<version>/), there is no persisted index, and concurrent
// writers from independent processes are serialized per document with an
// advisory file lock.
//
// The root package wires a catalog.Store together with thin per-kind
// facades:
//
//	cat, err := eventfolio.New("./my-catalog")
//	if err != nil { ... }
//	err = cat.Events().Write(ctx, core.Resource{
//		ID:      "OrderPlaced",
//		Version: "0.0.1",
//		Kind:    core.KindEvent,
//	}, catalog.WriteOptions{})
package eventfolio
