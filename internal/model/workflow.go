// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"sort"

	"github.com/hashicorp/hcl/v2"
)

// Workflow is a named, ordered forest of nodes.
type Workflow struct {
	Name        string
	Description string
	// RequiresFoundation gates the whole run on the region's micro-watershed
	// layer being present.
	RequiresFoundation bool
	Nodes              []*Node

	DeclRange hcl.Range
}

// Walk visits every node of the workflow in declaration (pre-)order.
func (w *Workflow) Walk(fn func(n *Node, parent *Node) bool) {
	for _, n := range w.Nodes {
		n.Walk(fn)
	}
}

// NodeIDs returns all instance ids in execution order.
func (w *Workflow) NodeIDs() []string {
	var ids []string
	w.Walk(func(n *Node, _ *Node) bool {
		ids = append(ids, n.InstanceID())
		return true
	})
	return ids
}

// Catalog holds every loaded workflow and the end-year override table.
type Catalog struct {
	Workflows []*Workflow
	// EndYearOverrides pins the end_year parameter of specific jobs.
	EndYearOverrides map[string]int
	// OverrideConflicts lists jobs whose end year was declared more than
	// once. The registry reports them as validation errors.
	OverrideConflicts []OverrideConflict

	overrideRanges map[string]hcl.Range
}

// OverrideConflict is a second declaration of an end year override.
type OverrideConflict struct {
	Job      string
	First    hcl.Range
	Conflict hcl.Range
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		EndYearOverrides: make(map[string]int),
		overrideRanges:   make(map[string]hcl.Range),
	}
}

// SetOverride pins the end year of job. A job that already has an override
// keeps the new value and is recorded in OverrideConflicts.
func (c *Catalog) SetOverride(job string, year int, rng hcl.Range) {
	if c.EndYearOverrides == nil {
		c.EndYearOverrides = make(map[string]int)
	}
	if c.overrideRanges == nil {
		c.overrideRanges = make(map[string]hcl.Range)
	}
	if _, dup := c.EndYearOverrides[job]; dup {
		c.OverrideConflicts = append(c.OverrideConflicts, OverrideConflict{
			Job:      job,
			First:    c.overrideRanges[job],
			Conflict: rng,
		})
	}
	c.EndYearOverrides[job] = year
	c.overrideRanges[job] = rng
}

// Workflow returns the first workflow with the given name.
func (c *Catalog) Workflow(name string) (*Workflow, bool) {
	for _, w := range c.Workflows {
		if w.Name == name {
			return w, true
		}
	}
	return nil, false
}

// WorkflowNames returns the declared workflow names sorted alphabetically.
func (c *Catalog) WorkflowNames() []string {
	names := make([]string, 0, len(c.Workflows))
	for _, w := range c.Workflows {
		names = append(names, w.Name)
	}
	sort.Strings(names)
	return names
}

// Merge appends the workflows and overrides of other into c. Overrides that
// both catalogs declare are recorded as conflicts.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	c.Workflows = append(c.Workflows, other.Workflows...)
	c.OverrideConflicts = append(c.OverrideConflicts, other.OverrideConflicts...)

	jobs := make([]string, 0, len(other.EndYearOverrides))
	for job := range other.EndYearOverrides {
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)
	for _, job := range jobs {
		c.SetOverride(job, other.EndYearOverrides[job], other.overrideRanges[job])
	}
}
