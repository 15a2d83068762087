// Package graph implements the graph index: a directed, possibly
// multi-, graph encoded either as adjacency lists (mutable) or as
// compressed sparse rows (immutable).
//
// # Architecture
//
// The package defines one interface, [Graph], with two concrete kinds:
//
//   - [Mutable]: per-node forward and reverse adjacency lists plus flat
//     source/destination arrays in edge-insertion order. Supports
//     incremental AddVertices/AddEdge(s) and never shrinks.
//   - [Immutable]: CSR encodings (in-CSR keyed by destination, out-CSR
//     keyed by source) plus a COO cache. At least one view exists at
//     construction; missing views are materialized lazily on first
//     demand, guarded by a one-time initializer.
//
// Every operation declares which kinds it accepts via [Graph.Kind] and
// fails with an UNSUPPORTED_OPERATION error instead of silently
// downcasting. Structural transformations over graphs live in the
// transform subpackage.
//
// # Identifiers
//
// Node ids are dense in [0, NumVertices) and edge ids dense in
// [0, NumEdges). Ids are positions, not stable identities: every
// structural operation may renumber and reports old→new mappings via
// [Subgraph] when callers need traceability.
//
// # Concurrency
//
// Graphs are safe for concurrent reads once all lazily-derived views
// have been materialized. Callers fanning out parallel readers over an
// [Immutable] must force the views they need first (e.g.
// [Immutable.InCSR]) from a single goroutine; the lazy builders
// themselves are guarded, so a concurrent first touch is safe but
// serializes the builders. Mutable graphs are not safe for concurrent
// use with writers.
package graph
