package dag

import (
	"errors"
	"sync"
)

// ErrCycle is wrapped by the error DetectCycles returns.
var ErrCycle = errors.New("cycle detected")

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects nodes and order.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order keeps insertion order so traversal and error messages are stable.
	order []string
}

// node is un-exported to enforce interaction through string IDs.
type node struct {
	id string
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
	// out keeps successors in the order the edges were added.
	out []*node
}
