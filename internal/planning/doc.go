// Package planning provides the bundled task kinds of the motion pipeline:
// contact checking, planning-problem construction, and wait handling, plus
// the raster pipeline builder that arranges them into the alternating
// raster/transition topology.
package planning
