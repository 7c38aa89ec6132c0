// Package registry provides the central "glue" between workflow declarations
// and compiled Go code.
//
// The Registry maps job names used in workflow files (e.g. "clip_lulc_v3")
// to the Go functions that implement them, and dependency names to the
// predicates that decide whether they are satisfied. It also holds the
// loaded workflow catalog.
//
// During application startup, the registry is populated by modules and then
// validated, so that a workflow referring to an unknown job, an unknown
// dependency or forming a cycle is rejected before any run begins rather
// than discovered half-way through one.
package registry
