// Package transform provides structural operations over graph indexes:
// reversal, line graphs, disjoint union and partition, simplification,
// bidirection, id remapping, and halo subgraph extraction for
// distributed training over partitioned graphs.
//
// Operations never mutate their inputs. Where provenance matters the
// result carries old→new id mappings via [graph.Subgraph].
package transform
