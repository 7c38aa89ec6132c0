// Package args computes the parameters a job is invoked with.
package args

import (
	"maps"

	"github.com/specialistvlad/layergen/internal/model"
	"github.com/specialistvlad/layergen/internal/session"
)

// Parameter keys shared by every job.
const (
	KeyState     = "state"
	KeyDistrict  = "district"
	KeyBlock     = "block"
	KeyAccountID = "gee_account_id"
	KeyStartYear = "start_year"
	KeyEndYear   = "end_year"
)

// Params are the final call parameters of one node.
type Params map[string]any

// Merge builds the parameters for node within run. Precedence, lowest first:
// run identifiers, global years (only with use_global_args), the node's
// static args, and finally the end-year override of the node's job.
//
// Merge never mutates its inputs and always returns a new map.
func Merge(run *session.Session, node *model.Node) Params {
	p := Params{
		KeyState:     run.Region.State,
		KeyDistrict:  run.Region.District,
		KeyBlock:     run.Region.Block,
		KeyAccountID: run.AccountID,
	}

	if node.UseGlobalArgs {
		if y := run.Globals.StartYear; y != nil {
			p[KeyStartYear] = *y
		}
		if y := run.Globals.EndYear; y != nil {
			p[KeyEndYear] = *y
		}
	}

	maps.Copy(p, node.Args())

	if year, ok := run.EndYearOverrides[node.Name]; ok {
		p[KeyEndYear] = year
	}
	return p
}

// Clone returns a deep copy of p.
func (p Params) Clone() Params {
	return Params(model.CloneValue(map[string]any(p)).(map[string]any))
}
