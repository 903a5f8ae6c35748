// Package geom holds the vector and frame helpers used to lay pipes out
// along a path: placements, rotations, edges and the small set of
// predicates (parallel, bisector, centre-line intersection) that the
// pipeline and branch builders depend on.
package geom
