package registry

import (
	"context"
	"testing"

	"github.com/specialistvlad/layergen/internal/args"
	"github.com/specialistvlad/layergen/internal/depcheck"
	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func okJob(ctx context.Context, region model.Region, params args.Params) (bool, error) {
	return true, nil
}

var alwaysTrue = depcheck.PredicateFunc(func(ctx context.Context, run *session.Session, dep string) (bool, error) {
	return true, nil
})

type jobsModule []string

func (m jobsModule) Register(r *Registry) {
	for _, name := range m {
		r.RegisterJob(name, okJob)
	}
}

func newRegistry(t *testing.T, src string, jobs ...string) *Registry {
	t.Helper()
	c, err := model.Parse(context.Background(), []byte(src), "test.hcl")
	require.NoError(t, err)
	r := New()
	jobsModule(jobs).Register(r)
	r.SetCatalog(c)
	return r
}

func TestRegisterJob_PanicsOnDuplicate(t *testing.T) {
	r := New()
	r.RegisterJob("a", okJob)
	assert.PanicsWithValue(t, "job with name 'a' already registered", func() {
		r.RegisterJob("a", okJob)
	})
	assert.Panics(t, func() { r.RegisterJob("b", nil) })

	r.RegisterPredicate("p", alwaysTrue)
	assert.Panics(t, func() { r.RegisterPredicate("p", alwaysTrue) })
	assert.Panics(t, func() { r.RegisterPredicate("q", nil) })
}

func TestLookups(t *testing.T) {
	r := New()
	jobsModule{"b", "a"}.Register(r)
	r.RegisterPredicate("clip_lulc_v3", alwaysTrue)

	_, ok := r.Job("a")
	assert.True(t, ok)
	_, ok = r.Job("zzz")
	assert.False(t, ok)
	_, ok = r.Predicate("clip_lulc_v3")
	assert.True(t, ok)

	assert.Equal(t, []string{"a", "b"}, r.JobNames())
	assert.Equal(t, []string{"clip_lulc_v3"}, r.PredicateNames())
}

func TestResolve(t *testing.T) {
	r := newRegistry(t, `
workflow "map_1" {
  node "a" {}
}
end_year_overrides {
  a = 2022
}
`, "a")

	wf, err := r.Resolve("map_1")
	require.NoError(t, err)
	assert.Equal(t, "map_1", wf.Name)

	_, err = r.Resolve("map_9")
	require.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.ErrorContains(t, err, `"map_9"`)

	assert.Equal(t, map[string]int{"a": 2022}, r.EndYearOverrides())
	require.NoError(t, r.Validate(context.Background()))
}

func TestValidate_Valid(t *testing.T) {
	r := newRegistry(t, `
workflow "w" {
  node "parent" {
    node "child" {
      depends_on = ["parent", "sibling", "external"]
    }
  }
  node "sibling" {}
}
`, "parent", "child", "sibling")
	r.RegisterPredicate("external", alwaysTrue)

	// sibling is declared after child, so only the predicate and parent
	// are allowed; drop sibling to get a valid workflow.
	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, `node "child" depends on "sibling" which runs later`)

	r = newRegistry(t, `
workflow "w" {
  node "sibling" {}
  node "parent" {
    node "child" {
      depends_on = ["parent", "sibling", "external"]
    }
  }
}
`, "parent", "child", "sibling")
	r.RegisterPredicate("external", alwaysTrue)
	assert.NoError(t, r.Validate(context.Background()))
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	src := `
workflow "w" {
  node "known" {
    depends_on = ["nowhere"]
  }
  node "unknown_job" {}
  node "known" {}
  node "self" {
    depends_on = ["self"]
  }
}

workflow "w" {
  node "known" {}
}

workflow "empty" {}

end_year_overrides {
  known    = 1800
  not_a_job = 2022
}
`
	r := newRegistry(t, src, "known", "self")
	err := r.Validate(context.Background())
	require.Error(t, err)

	msgs := err.Error()
	assert.Contains(t, msgs, `depends on unknown "nowhere"`)
	assert.Contains(t, msgs, `job not found: "unknown_job"`)
	assert.Contains(t, msgs, `duplicate node id "known"`)
	assert.Contains(t, msgs, `node "self" depends on "self" which runs later`)
	assert.Contains(t, msgs, `workflow "w" declared more than once`)
	assert.Contains(t, msgs, `workflow "empty" has no nodes`)
	assert.Contains(t, msgs, `unknown job "not_a_job"`)
	assert.Contains(t, msgs, "year 1800 out of range")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.GreaterOrEqual(t, len(multierr.Errors(errorsUnwrap(err))), 8)
}

func TestValidate_DependencyOnDescendantIsACycle(t *testing.T) {
	r := newRegistry(t, `
workflow "w" {
  node "a" {
    depends_on = ["b"]
    node "b" {}
  }
}
`, "a", "b")
	err := r.Validate(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, `node "a" depends on "b" which runs later`)
	assert.ErrorContains(t, err, "cycle detected: a -> b -> a")
}

func TestValidate_DuplicateJobWithDistinctIDs(t *testing.T) {
	r := newRegistry(t, `
workflow "w" {
  node "generate_hydrology" {}
  node "generate_hydrology" {
    id = "generate_hydrology_annual"
    args {
      is_annual = true
    }
  }
}
`, "generate_hydrology")
	assert.NoError(t, r.Validate(context.Background()))
}

func TestValidate_DuplicateEndYearOverride(t *testing.T) {
	ctx := context.Background()
	first, err := model.Parse(ctx, []byte(`
workflow "w" {
  node "calculate_drought" {}
}
end_year_overrides {
  calculate_drought = 2022
}
`), "a.hcl")
	require.NoError(t, err)
	second, err := model.Parse(ctx, []byte(`
end_year_overrides {
  calculate_drought = 2023
}
`), "b.hcl")
	require.NoError(t, err)
	first.Merge(second)

	r := New()
	r.SetCatalog(first)
	r.RegisterJob("calculate_drought", okJob)

	err = r.Validate(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, `end year override for "calculate_drought" already declared at a.hcl:6`)
	assert.ErrorContains(t, err, "b.hcl:3")
}

func errorsUnwrap(err error) error {
	type unwrapper interface{ Unwrap() error }
	if u, ok := err.(unwrapper); ok {
		return u.Unwrap()
	}
	return err
}
