package rules

import "strings"

// Catalog is the declarative lender rule set. It is loaded once and treated
// as immutable for the life of the process.
type Catalog struct {
	Meta       map[string]any `json:"meta"`
	ScoreBands []ScoreBand    `json:"scoreBands"`
	Lenders    []LenderRule   `json:"lenders"`
}

// ScoreBand is a closed credit-score interval mapped to a pricing tier.
type ScoreBand struct {
	ID  string `json:"id"`
	Min int    `json:"min"`
	Max int    `json:"max"`
}

// Contains reports whether the score falls inside the band.
func (b ScoreBand) Contains(score int) bool {
	return score >= b.Min && score <= b.Max
}

// LenderRule describes one financing partner's offer policy.
type LenderRule struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	States        []string           `json:"states"`
	Products      []string           `json:"products"`
	Terms         []int              `json:"terms"`
	BaseAPRByBand map[string]float64 `json:"baseAprByBand"`
	Caps          Caps               `json:"caps"`
	Adjusters     []Adjuster         `json:"adjusters"`
}

// Caps bound lender eligibility. A nil field means unbounded.
type Caps struct {
	MaxLTV   *float64 `json:"maxLTV,omitempty"`
	MinYear  *int     `json:"minYear,omitempty"`
	MaxMiles *int     `json:"maxMiles,omitempty"`
}

// Adjuster is a conditional APR surcharge or discount. All present predicates
// in When must hold for APRAdd to apply; matching adjusters are summed in
// list order.
type Adjuster struct {
	When   AdjusterWhen `json:"when"`
	APRAdd float64      `json:"aprAdd"`
}

// AdjusterWhen is a conjunction of optional predicates over the pricing
// context. A nil field imposes no constraint.
type AdjusterWhen struct {
	Used    *bool    `json:"used,omitempty"`
	TermMin *int     `json:"termMin,omitempty"`
	TermMax *int     `json:"termMax,omitempty"`
	LTVMin  *float64 `json:"ltvMin,omitempty"`
	LTVMax  *float64 `json:"ltvMax,omitempty"`
	State   *string  `json:"state,omitempty"`
}

// ServesState reports whether the lender operates in the given state code.
func (l LenderRule) ServesState(state string) bool {
	return containsFold(l.States, state)
}

// ServesProduct reports whether the lender finances the given product.
func (l LenderRule) ServesProduct(product string) bool {
	return containsFold(l.Products, product)
}

// ServesTerm reports whether the lender offers the given term length.
func (l LenderRule) ServesTerm(term int) bool {
	for _, t := range l.Terms {
		if t == term {
			return true
		}
	}
	return false
}

// BaseAPR returns the lender's base rate for a band. The second return is
// false when the lender does not serve the band (absent or non-positive).
func (l LenderRule) BaseAPR(bandID string) (float64, bool) {
	apr, ok := l.BaseAPRByBand[bandID]
	if !ok || apr <= 0 {
		return 0, false
	}
	return apr, true
}

func containsFold(set []string, value string) bool {
	for _, item := range set {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value)) {
			return true
		}
	}
	return false
}
