package pricing

import (
	"errors"
	"sort"

	"vehicle-financing/backend/internal/rules"
)

// presentation band around the point APR, fifty basis points each way
const aprSpread = 0.005

// note thresholds mirror the catalog's stock adjusters; notes fire on the
// pricing context alone, independent of whether a lender actually carries a
// matching adjuster (see the pinning test before changing this)
const longTermMonths = 61

// Engine prices financing requests against an immutable catalog. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	catalog *rules.Catalog
}

// NewEngine wraps the provided catalog. The caller owns loading and must not
// mutate the catalog afterwards.
func NewEngine(catalog *rules.Catalog) (*Engine, error) {
	if catalog == nil {
		return nil, errors.New("catalog is nil")
	}
	return &Engine{catalog: catalog}, nil
}

// Catalog exposes the underlying rule set (read-only).
func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// LenderOffer is one priced result row.
type LenderOffer struct {
	LenderID    string     `json:"lenderId"`
	LenderName  string     `json:"lenderName"`
	APRLow      float64    `json:"aprLow"`
	APRHigh     float64    `json:"aprHigh"`
	PaymentLow  float64    `json:"paymentLow"`
	PaymentHigh float64    `json:"paymentHigh"`
	Term        int        `json:"term"`
	LoanAmount  float64    `json:"loanAmount"`
	Notes       []string   `json:"notes"`
	Caps        rules.Caps `json:"caps"`
}

// EstimateResult is the full response for one estimate call.
type EstimateResult struct {
	Meta    map[string]any  `json:"meta"`
	Band    rules.ScoreBand `json:"band"`
	Inputs  Inputs          `json:"inputs"`
	Results []LenderOffer   `json:"results"`
}

// Estimate applies defaults, selects the score band, filters eligible
// lenders, prices each one, and returns offers sorted by aprLow ascending.
// No eligible lenders is not an error; an unmatched score is.
func (e *Engine) Estimate(req EstimateRequest) (*EstimateResult, error) {
	in := applyDefaults(req)
	if err := in.validate(); err != nil {
		return nil, err
	}

	loanAmount := in.VehiclePrice - in.DownPayment - in.TradeInValue + in.EstTaxesAndFees
	if loanAmount < 0 {
		loanAmount = 0
	}
	priceFloor := in.VehiclePrice
	if priceFloor < 1 {
		priceFloor = 1
	}
	ltv := loanAmount / priceFloor
	in.LoanAmount = round2(loanAmount)
	in.LTV = round4(ltv)

	band, err := e.selectBand(in.Score)
	if err != nil {
		return nil, err
	}

	ctx := Context{
		State:       in.State,
		Term:        in.Term,
		Used:        usedProduct(in.Product),
		LTV:         ltv,
		VehicleYear: in.VehicleYear,
		Mileage:     in.Mileage,
	}

	offers := make([]LenderOffer, 0, len(e.catalog.Lenders))
	for _, lender := range e.catalog.Lenders {
		base, ok := e.eligible(lender, in, band.ID, ctx)
		if !ok {
			continue
		}
		offer, err := priceOffer(lender, base, in, ctx)
		if err != nil {
			return nil, err
		}
		offers = append(offers, offer)
	}

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].APRLow < offers[j].APRLow
	})

	return &EstimateResult{
		Meta:    e.catalog.Meta,
		Band:    band,
		Inputs:  in,
		Results: offers,
	}, nil
}

// selectBand returns the first band containing the score, in catalog order.
func (e *Engine) selectBand(score int) (rules.ScoreBand, error) {
	for _, band := range e.catalog.ScoreBands {
		if band.Contains(score) {
			return band, nil
		}
	}
	return rules.ScoreBand{}, ErrScoreOutOfRange
}

func (e *Engine) eligible(lender rules.LenderRule, in Inputs, bandID string, ctx Context) (float64, bool) {
	if !lender.ServesState(in.State) {
		return 0, false
	}
	if !lender.ServesProduct(in.Product) {
		return 0, false
	}
	if !lender.ServesTerm(in.Term) {
		return 0, false
	}
	if lender.Caps.MaxLTV != nil && ctx.LTV > *lender.Caps.MaxLTV {
		return 0, false
	}
	if lender.Caps.MinYear != nil && in.VehicleYear < *lender.Caps.MinYear {
		return 0, false
	}
	if lender.Caps.MaxMiles != nil && in.Mileage > *lender.Caps.MaxMiles {
		return 0, false
	}
	return lender.BaseAPR(bandID)
}

func priceOffer(lender rules.LenderRule, base float64, in Inputs, ctx Context) (LenderOffer, error) {
	apr := adjustedAPR(base, lender.Adjusters, ctx)

	aprLow := apr - aprSpread
	if aprLow < 0 {
		aprLow = 0
	}
	aprLow = round4(aprLow)
	aprHigh := round4(apr + aprSpread)

	paymentLow, err := MonthlyPayment(aprLow, in.LoanAmount, in.Term)
	if err != nil {
		return LenderOffer{}, err
	}
	paymentHigh, err := MonthlyPayment(aprHigh, in.LoanAmount, in.Term)
	if err != nil {
		return LenderOffer{}, err
	}

	return LenderOffer{
		LenderID:    lender.ID,
		LenderName:  lender.Name,
		APRLow:      aprLow,
		APRHigh:     aprHigh,
		PaymentLow:  paymentLow,
		PaymentHigh: paymentHigh,
		Term:        in.Term,
		LoanAmount:  in.LoanAmount,
		Notes:       advisoryNotes(ctx),
		Caps:        lender.Caps,
	}, nil
}

// advisoryNotes derives informational labels from the context thresholds.
func advisoryNotes(ctx Context) []string {
	notes := []string{}
	if ctx.Used {
		notes = append(notes, "Used vehicle add-on included")
	}
	if ctx.Term >= longTermMonths {
		notes = append(notes, "Longer-term add-on included")
	}
	if ctx.LTV > 1.0 {
		notes = append(notes, "High LTV add-on included")
	}
	return notes
}
