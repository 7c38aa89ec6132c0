// Package dag provides a small directed graph used to prove that a workflow
// declaration is acyclic before it is ever executed. Edges point from a
// prerequisite to the node that waits for it.
package dag
