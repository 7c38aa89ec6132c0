// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

const sampleHCL = `
end_year_overrides {
  calculate_drought = 2022
  clip_lulc_v3      = 2023
}

workflow "map_2" {
  description         = "hydrology and land use"
  requires_foundation = true

  node "generate_hydrology" {
    use_global_args = true
  }

  node "generate_hydrology" {
    id              = "generate_hydrology_annual"
    use_global_args = true
    args {
      is_annual = true
    }
  }

  node "clip_lulc_v3" {
    use_global_args = true

    node "calculate_drought" {
      use_global_args = true

      node "drought_causality" {
        use_global_args = true
      }
    }

    node "create_crop_grids" {}
  }

  node "lulc_on_slope_cluster" {
    depends_on = ["clip_lulc_v3"]
    args {
      bands  = ["a", "b"]
      ratio  = 0.5
      limits = { max = 10 }
    }
  }
}
`

func TestParse_Workflow(t *testing.T) {
	c, err := Parse(context.Background(), []byte(sampleHCL), "sample.hcl")
	require.NoError(t, err)

	require.Len(t, c.Workflows, 1)
	wf := c.Workflows[0]
	assert.Equal(t, "map_2", wf.Name)
	assert.Equal(t, "hydrology and land use", wf.Description)
	assert.True(t, wf.RequiresFoundation)
	require.Len(t, wf.Nodes, 4)

	want := []string{
		"generate_hydrology",
		"generate_hydrology_annual",
		"clip_lulc_v3",
		"calculate_drought",
		"drought_causality",
		"create_crop_grids",
		"lulc_on_slope_cluster",
	}
	if diff := cmp.Diff(want, wf.NodeIDs()); diff != "" {
		t.Errorf("NodeIDs() mismatch (-want +got):\n%s", diff)
	}

	annual, ok := findNode(wf, "generate_hydrology_annual")
	require.True(t, ok)
	assert.Equal(t, "generate_hydrology", annual.Name)
	assert.Equal(t, map[string]any{"is_annual": true}, annual.StaticArgs)
	assert.True(t, annual.UseGlobalArgs)

	slope, ok := findNode(wf, "lulc_on_slope_cluster")
	require.True(t, ok)
	assert.False(t, slope.UseGlobalArgs)
	assert.Equal(t, []string{"clip_lulc_v3"}, slope.DependsOn)
	assert.Equal(t, map[string]any{
		"bands":  []any{"a", "b"},
		"ratio":  0.5,
		"limits": map[string]any{"max": 10},
	}, slope.StaticArgs)

	assert.Equal(t, map[string]int{"calculate_drought": 2022, "clip_lulc_v3": 2023}, c.EndYearOverrides)
	assert.Empty(t, c.OverrideConflicts)
	assert.Equal(t, "sample.hcl", wf.DeclRange.Filename)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", `workflow "x" {`},
		{"unknown attribute", `workflow "x" { colour = "red" }`},
		{"missing label", `workflow { }`},
		{"unknown node attribute", `workflow "x" { node "a" { retries = 3 } }`},
		{"wrong type", `workflow "x" { node "a" { use_global_args = "yes please" } }`},
		{"fractional year", `end_year_overrides { a = 2022.5 }`},
		{"string year", `end_year_overrides { a = "soon" }`},
		{"duplicate args", `workflow "x" { node "a" {
  args { x = 1 }
  args { y = 2 }
} }`},
		{"non-literal arg", `workflow "x" { node "a" { args { x = var.y } } }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), []byte(tt.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "bad.hcl")
		})
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.hcl"), []byte(`
workflow "map_1" {
  node "generate_tehsil_shape_file_data" {}
}
end_year_overrides {
  x = 2020
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "b.hcl"), []byte(`
workflow "map_3" {
  requires_foundation = true
  node "terrain_raster" {}
}
end_year_overrides {
  x = 2021
}
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("not hcl"), 0o644))

	c, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"map_1", "map_3"}, c.WorkflowNames())
	require.Len(t, c.OverrideConflicts, 1)
	conflict := c.OverrideConflicts[0]
	assert.Equal(t, "x", conflict.Job)
	assert.Equal(t, filepath.Join(dir, "a.hcl"), conflict.First.Filename)
	assert.Equal(t, filepath.Join(dir, "nested", "b.hcl"), conflict.Conflict.Filename)

	_, ok := c.Workflow("map_3")
	assert.True(t, ok)
	_, ok = c.Workflow("map_9")
	assert.False(t, ok)
}

func TestParse_DuplicateOverrideBlocks(t *testing.T) {
	c, err := Parse(context.Background(), []byte(`
end_year_overrides {
  a = 2020
}
end_year_overrides {
  a = 2021
}
`), "dup.hcl")
	require.NoError(t, err)
	require.Len(t, c.OverrideConflicts, 1)
	assert.Equal(t, 3, c.OverrideConflicts[0].First.Start.Line)
	assert.Equal(t, 6, c.OverrideConflicts[0].Conflict.Start.Line)
}

func TestLoadDir_Empty(t *testing.T) {
	_, err := LoadDir(context.Background(), t.TempDir())
	require.Error(t, err)
}

func TestRegion(t *testing.T) {
	r := Region{State: "Bihar", District: "Jamui (East)", Block: "Barhat Block"}
	assert.Equal(t, "mws_jamui_east_barhat_block", r.FoundationLayerName())
	assert.Equal(t, "_barhat_block_level_", r.BlockLevelFragment())
	assert.NoError(t, r.Validate())

	err := Region{State: "Bihar"}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "district, block")
}

func TestLayerText(t *testing.T) {
	tests := map[string]string{
		"plain":            "plain",
		"two words":        "two_words",
		"keep.,:;_-":       "keep.,:;_-",
		"drop(these)&!":    "dropthese",
		"  padded  ":       "__padded__",
		"Mixed Case 42":    "Mixed_Case_42",
		"ünïcode spaces x": "ncode_spaces_x",
	}
	for in, want := range tests {
		assert.Equal(t, want, LayerText(in), "input %q", in)
	}
}

func TestNode_DescendantsAndArgs(t *testing.T) {
	leaf := &Node{Name: "leaf"}
	mid := &Node{Name: "mid", Children: []*Node{leaf}}
	root := &Node{Name: "root", StaticArgs: map[string]any{"a": 1}, Children: []*Node{mid, {Name: "other"}}}

	var names []string
	for _, d := range root.Descendants() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"mid", "leaf", "other"}, names)

	args := root.Args()
	args["a"] = 2
	assert.Equal(t, 1, root.StaticArgs["a"], "Args must return a copy")
	assert.Empty(t, leaf.Args())

	nested := &Node{Name: "n", StaticArgs: map[string]any{
		"bands": []any{"red", "nir"},
		"opts":  map[string]any{"k": []any{1}},
	}}
	got := nested.Args()
	got["bands"].([]any)[0] = "MUTATED"
	got["opts"].(map[string]any)["k"].([]any)[0] = 2
	assert.Equal(t, []any{"red", "nir"}, nested.StaticArgs["bands"])
	assert.Equal(t, map[string]any{"k": []any{1}}, nested.StaticArgs["opts"])
}

func findNode(wf *Workflow, id string) (*Node, bool) {
	var found *Node
	wf.Walk(func(n *Node, _ *Node) bool {
		if n.InstanceID() == id {
			found = n
		}
		return found == nil
	})
	return found, found != nil
}

func TestValueToGo(t *testing.T) {
	got, err := ValueToGo(cty.ObjectVal(map[string]cty.Value{
		"n":    cty.NumberIntVal(7),
		"f":    cty.NumberFloatVal(1.25),
		"s":    cty.StringVal("x"),
		"b":    cty.False,
		"null": cty.NullVal(cty.String),
		"l":    cty.ListVal([]cty.Value{cty.StringVal("p"), cty.StringVal("q")}),
	}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n": 7, "f": 1.25, "s": "x", "b": false, "null": nil, "l": []any{"p", "q"},
	}, got)

	_, err = ValueToGo(cty.UnknownVal(cty.String))
	assert.Error(t, err)
}
