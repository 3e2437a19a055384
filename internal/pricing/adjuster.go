package pricing

import (
	"strings"

	"vehicle-financing/backend/internal/rules"
)

// Context is the request-scoped pricing context adjuster predicates are
// evaluated against. It is derived once per estimate and never mutated.
type Context struct {
	State       string
	Term        int
	Used        bool
	LTV         float64
	VehicleYear int
	Mileage     int
}

// matches evaluates the predicate conjunction with short-circuiting. A nil
// field imposes no constraint.
func matches(w rules.AdjusterWhen, ctx Context) bool {
	if w.Used != nil && *w.Used != ctx.Used {
		return false
	}
	if w.TermMin != nil && ctx.Term < *w.TermMin {
		return false
	}
	if w.TermMax != nil && ctx.Term > *w.TermMax {
		return false
	}
	if w.LTVMin != nil && ctx.LTV < *w.LTVMin {
		return false
	}
	if w.LTVMax != nil && ctx.LTV > *w.LTVMax {
		return false
	}
	if w.State != nil && !strings.EqualFold(strings.TrimSpace(*w.State), ctx.State) {
		return false
	}
	return true
}

// adjustedAPR sums every matching adjuster delta onto the base rate,
// preserving list order for reproducibility.
func adjustedAPR(base float64, adjusters []rules.Adjuster, ctx Context) float64 {
	apr := base
	for _, adj := range adjusters {
		if matches(adj.When, ctx) {
			apr += adj.APRAdd
		}
	}
	return apr
}
