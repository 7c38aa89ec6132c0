// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines the Region a run is scoped to and the text normalisation
// applied before region names are embedded in layer names.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Region identifies the administrative scope of a run.
type Region struct {
	State    string `json:"state"`
	District string `json:"district"`
	Block    string `json:"block"`
}

// Validate reports whether every part of the region is present.
func (r Region) Validate() error {
	var missing []string
	if strings.TrimSpace(r.State) == "" {
		missing = append(missing, "state")
	}
	if strings.TrimSpace(r.District) == "" {
		missing = append(missing, "district")
	}
	if strings.TrimSpace(r.Block) == "" {
		missing = append(missing, "block")
	}
	if len(missing) > 0 {
		return fmt.Errorf("region: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// String renders the region as state/district/block.
func (r Region) String() string {
	return fmt.Sprintf("%s/%s/%s", r.State, r.District, r.Block)
}

// FoundationLayerName is the name under which the region's micro-watershed
// layer is published.
func (r Region) FoundationLayerName() string {
	return fmt.Sprintf("mws_%s_%s", LayerText(strings.ToLower(r.District)), LayerText(strings.ToLower(r.Block)))
}

// BlockLevelFragment is the substring shared by the per-class land-use layers
// generated for the region's block.
func (r Region) BlockLevelFragment() string {
	return fmt.Sprintf("_%s_level_", LayerText(strings.ToLower(r.Block)))
}

var layerTextDisallowed = regexp.MustCompile(`[^a-zA-Z0-9 .,:;_-]`)

// LayerText strips characters the compute backend rejects in asset names and
// replaces spaces with underscores.
func LayerText(s string) string {
	return strings.ReplaceAll(layerTextDisallowed.ReplaceAllString(s, ""), " ", "_")
}
