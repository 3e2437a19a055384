package api

import (
	"encoding/json"
	"time"

	"vehicle-financing/backend/internal/pricing"
	"vehicle-financing/backend/internal/rules"
	"vehicle-financing/backend/internal/store"
)

// LenderDTO is the catalog lender summary exposed by the API. Rates are not
// included; pricing happens only through the estimate endpoint.
type LenderDTO struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	States   []string   `json:"states"`
	Products []string   `json:"products"`
	Terms    []int      `json:"terms"`
	Caps     rules.Caps `json:"caps"`
}

// LenderFromRule converts a catalog rule into its DTO.
func LenderFromRule(l rules.LenderRule) LenderDTO {
	return LenderDTO{
		ID:       l.ID,
		Name:     l.Name,
		States:   l.States,
		Products: l.Products,
		Terms:    l.Terms,
		Caps:     l.Caps,
	}
}

// EstimateRecordDTO is the API representation of a persisted estimate.
type EstimateRecordDTO struct {
	ID               uint            `json:"id"`
	EstimateID       string          `json:"estimate_id"`
	State            string          `json:"state"`
	Score            int             `json:"score"`
	Product          string          `json:"product"`
	Term             int             `json:"term"`
	LoanAmount       float64         `json:"loan_amount"`
	LTV              float64         `json:"ltv"`
	BandID           string          `json:"band_id"`
	OfferCount       int             `json:"offer_count"`
	BestAPRLow       float64         `json:"best_apr_low"`
	BestPaymentLow   float64         `json:"best_payment_low"`
	Offers           json.RawMessage `json:"offers"`
	ProcessingTimeMs int64           `json:"processing_time_ms"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RecordFromModel converts a store.EstimateRecord into the DTO representation.
func RecordFromModel(r store.EstimateRecord) EstimateRecordDTO {
	return EstimateRecordDTO{
		ID:               r.ID,
		EstimateID:       r.EstimateID,
		State:            r.State,
		Score:            r.Score,
		Product:          r.Product,
		Term:             r.Term,
		LoanAmount:       r.LoanAmount,
		LTV:              r.LTV,
		BandID:           r.BandID,
		OfferCount:       r.OfferCount,
		BestAPRLow:       r.BestAPRLow,
		BestPaymentLow:   r.BestPaymentLow,
		Offers:           r.Offers(),
		ProcessingTimeMs: r.ProcessingTimeMs,
		CreatedAt:        r.CreatedAt,
	}
}

// EstimatesResponse is the paginated estimate history payload.
type EstimatesResponse struct {
	Items []EstimateRecordDTO `json:"items"`
	Total int64               `json:"total"`
}

// EstimateSummaryDTO is the condensed estimate shape broadcast on the
// websocket feed.
type EstimateSummaryDTO struct {
	EstimateID     string    `json:"estimate_id"`
	State          string    `json:"state"`
	BandID         string    `json:"band_id"`
	Product        string    `json:"product"`
	Term           int       `json:"term"`
	LoanAmount     float64   `json:"loan_amount"`
	OfferCount     int       `json:"offer_count"`
	BestAPRLow     float64   `json:"best_apr_low"`
	BestPaymentLow float64   `json:"best_payment_low"`
	CreatedAt      time.Time `json:"created_at"`
}

func summaryFromRecord(r store.EstimateRecord) *EstimateSummaryDTO {
	return &EstimateSummaryDTO{
		EstimateID:     r.EstimateID,
		State:          r.State,
		BandID:         r.BandID,
		Product:        r.Product,
		Term:           r.Term,
		LoanAmount:     r.LoanAmount,
		OfferCount:     r.OfferCount,
		BestAPRLow:     r.BestAPRLow,
		BestPaymentLow: r.BestPaymentLow,
		CreatedAt:      time.Now().UTC(),
	}
}

// AdviceRequest asks the negotiation agent about a hypothetical estimate.
type AdviceRequest struct {
	Question string                  `json:"question"`
	Request  pricing.EstimateRequest `json:"request"`
}

// AdviceResponse carries the agent's reply.
type AdviceResponse struct {
	Reply string   `json:"reply"`
	Tips  []string `json:"tips,omitempty"`
}

// CheckoutRequest creates a payment session for a subscription price.
type CheckoutRequest struct {
	PriceID    string `json:"priceId"`
	Quantity   int    `json:"quantity"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// CheckoutResponse returns the provider redirect.
type CheckoutResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
