// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"github.com/hashicorp/hcl/v2"
)

// Node is a single declared invocation of a job inside a workflow tree.
type Node struct {
	// Name is the job name. It is the lookup key into the job registry.
	Name string
	// ID distinguishes several invocations of the same job in one workflow.
	// Empty means the instance is identified by Name.
	ID string
	// StaticArgs are literal parameters that always win over run parameters.
	StaticArgs map[string]any
	// UseGlobalArgs makes the run's start/end years visible to the job.
	UseGlobalArgs bool
	// DependsOn lists instance ids or registered predicate names, in order.
	DependsOn []string
	// Children run only when this node succeeds.
	Children []*Node

	DeclRange hcl.Range
}

// InstanceID returns the key under which the node's status is recorded.
func (n *Node) InstanceID() string {
	if n.ID != "" {
		return n.ID
	}
	return n.Name
}

// Args returns a deep copy of the node's static arguments. Nodes are shared
// by every run of a workflow, so callers may mutate the result freely.
func (n *Node) Args() map[string]any {
	if n.StaticArgs == nil {
		return map[string]any{}
	}
	return CloneValue(n.StaticArgs).(map[string]any)
}

// Walk visits the node and its descendants in pre-order. Returning false from
// fn stops descent below the current node.
func (n *Node) Walk(fn func(n *Node, parent *Node) bool) {
	n.walk(nil, fn)
}

func (n *Node) walk(parent *Node, fn func(n *Node, parent *Node) bool) {
	if !fn(n, parent) {
		return
	}
	for _, c := range n.Children {
		c.walk(n, fn)
	}
}

// Descendants returns every node below n in pre-order, excluding n itself.
func (n *Node) Descendants() []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node, _ *Node) bool {
			out = append(out, d)
			return true
		})
	}
	return out
}
