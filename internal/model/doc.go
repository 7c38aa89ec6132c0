// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go representation of layer-generation workflows
// declared in HCL. It turns `workflow` and `end_year_overrides` blocks into a
// strongly typed, in-memory Catalog that the registry validates and the
// orchestrator walks.
//
// # Core Concepts
//
//   - Catalog: every workflow and the end-year override table loaded from one
//     or more .hcl files.
//
//   - Workflow: a named, ordered forest of nodes. A workflow may require the
//     foundational micro-watershed layer of the region to exist before any of
//     its nodes run.
//
//   - Node: one unit of work. Its label is the job name used to look up the Go
//     function in the registry; an optional `id` distinguishes two invocations
//     of the same job inside one workflow. Nodes nest to any depth.
//
//   - Region: the (state, district, block) tuple a run is scoped to.
//
// A minimal declaration looks like this:
//
//	end_year_overrides {
//	  calculate_drought = 2022
//	}
//
//	workflow "map_2" {
//	  requires_foundation = true
//
//	  node "clip_lulc_v3" {
//	    use_global_args = true
//
//	    node "calculate_drought" {
//	      use_global_args = true
//	    }
//	  }
//
//	  node "generate_hydrology" {
//	    id = "generate_hydrology_annual"
//	    args {
//	      is_annual = true
//	    }
//	  }
//	}
//
// The model performs only structural checks (labels, attribute types, literal
// values). Cross-references such as job names and depends_on targets are
// validated by the registry, which knows what Go code is compiled in.
package model
