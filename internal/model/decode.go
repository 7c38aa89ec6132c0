// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file turns a parsed HCL body into Catalog values. Blocks are decoded
// against explicit schemas so every node keeps its declaration range for
// diagnostics raised later by the registry.
package model

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/layergen/internal/ctxlog"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "workflow", LabelNames: []string{"name"}},
		{Type: "end_year_overrides"},
	},
}

var workflowSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "description"},
		{Name: "requires_foundation"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "node", LabelNames: []string{"job"}},
	},
}

var nodeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "id"},
		{Name: "use_global_args"},
		{Name: "depends_on"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "args"},
		{Type: "node", LabelNames: []string{"job"}},
	},
}

// DecodeBody decodes every workflow and override block of a single file body.
func DecodeBody(ctx context.Context, body hcl.Body) (*Catalog, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx)
	catalog := NewCatalog()

	content, diags := body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	for _, block := range content.Blocks {
		switch block.Type {
		case "workflow":
			wf, wfDiags := decodeWorkflow(block)
			diags = append(diags, wfDiags...)
			if wf != nil {
				logger.Debug("Decoded workflow.", "workflow", wf.Name, "top_level_nodes", len(wf.Nodes))
				catalog.Workflows = append(catalog.Workflows, wf)
			}
		case "end_year_overrides":
			diags = append(diags, decodeOverrides(block, catalog)...)
		}
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return catalog, diags
}

func decodeWorkflow(block *hcl.Block) (*Workflow, hcl.Diagnostics) {
	content, diags := block.Body.Content(workflowSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	wf := &Workflow{
		Name:      block.Labels[0],
		DeclRange: block.DefRange,
	}
	if attr, ok := content.Attributes["description"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &wf.Description)...)
	}
	if attr, ok := content.Attributes["requires_foundation"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &wf.RequiresFoundation)...)
	}

	for _, nb := range content.Blocks {
		n, nDiags := decodeNode(nb)
		diags = append(diags, nDiags...)
		if n != nil {
			wf.Nodes = append(wf.Nodes, n)
		}
	}
	return wf, diags
}

func decodeNode(block *hcl.Block) (*Node, hcl.Diagnostics) {
	content, diags := block.Body.Content(nodeSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	n := &Node{
		Name:       block.Labels[0],
		StaticArgs: map[string]any{},
		DeclRange:  block.DefRange,
	}
	if attr, ok := content.Attributes["id"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &n.ID)...)
	}
	if attr, ok := content.Attributes["use_global_args"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &n.UseGlobalArgs)...)
	}
	if attr, ok := content.Attributes["depends_on"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &n.DependsOn)...)
	}

	argsSeen := false
	for _, child := range content.Blocks {
		switch child.Type {
		case "args":
			if argsSeen {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Duplicate args block",
					Detail:   fmt.Sprintf("Node %q declares more than one args block.", n.Name),
					Subject:  &child.DefRange,
				})
				continue
			}
			argsSeen = true
			args, argDiags := decodeArgs(child.Body)
			diags = append(diags, argDiags...)
			n.StaticArgs = args
		case "node":
			c, cDiags := decodeNode(child)
			diags = append(diags, cDiags...)
			if c != nil {
				n.Children = append(n.Children, c)
			}
		}
	}
	return n, diags
}

// decodeArgs evaluates every attribute of an args block as a literal.
func decodeArgs(body hcl.Body) (map[string]any, hcl.Diagnostics) {
	attrs, diags := body.JustAttributes()
	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		goVal, err := ValueToGo(val)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported argument value",
				Detail:   fmt.Sprintf("Argument %q: %s.", name, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		out[name] = goVal
	}
	return out, diags
}

func decodeOverrides(block *hcl.Block, catalog *Catalog) hcl.Diagnostics {
	attrs, diags := block.Body.JustAttributes()

	// Attributes come back as a map; sort by position so conflicts are stable.
	sorted := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		sorted = append(sorted, attr)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.Byte < sorted[j].Range.Start.Byte
	})

	for _, attr := range sorted {
		var year int
		valDiags := gohcl.DecodeExpression(attr.Expr, nil, &year)
		if valDiags.HasErrors() {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid end year",
				Detail:   fmt.Sprintf("End year override for %q must be a whole number.", attr.Name),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		catalog.SetOverride(attr.Name, year, attr.NameRange)
	}
	return diags
}
