package pricing

import "strings"

// Request defaults applied when the caller omits a field.
const (
	DefaultState           = "GA"
	DefaultScore           = 700
	DefaultVehiclePrice    = 20000.0
	DefaultDownPayment     = 2000.0
	DefaultTradeInValue    = 0.0
	DefaultEstTaxesAndFees = 1200.0
	DefaultTerm            = 60
	DefaultVehicleYear     = 2018
	DefaultMileage         = 80000
	DefaultProduct         = "auto-used"
)

// EstimateRequest is the caller input. Every field is optional; nil means
// "use the documented default".
type EstimateRequest struct {
	State           *string  `json:"state"`
	Score           *int     `json:"score"`
	VehiclePrice    *float64 `json:"vehiclePrice"`
	DownPayment     *float64 `json:"downPayment"`
	TradeInValue    *float64 `json:"tradeInValue"`
	EstTaxesAndFees *float64 `json:"estTaxesAndFees"`
	Term            *int     `json:"term"`
	VehicleYear     *int     `json:"vehicleYear"`
	Mileage         *int     `json:"mileage"`
	Product         *string  `json:"product"`
}

// Inputs is the defaults-applied request echoed back in the result, plus the
// derived loan amount and LTV.
type Inputs struct {
	State           string  `json:"state"`
	Score           int     `json:"score"`
	VehiclePrice    float64 `json:"vehiclePrice"`
	DownPayment     float64 `json:"downPayment"`
	TradeInValue    float64 `json:"tradeInValue"`
	EstTaxesAndFees float64 `json:"estTaxesAndFees"`
	Term            int     `json:"term"`
	VehicleYear     int     `json:"vehicleYear"`
	Mileage         int     `json:"mileage"`
	Product         string  `json:"product"`
	LoanAmount      float64 `json:"loanAmount"`
	LTV             float64 `json:"ltv"`
}

func applyDefaults(req EstimateRequest) Inputs {
	in := Inputs{
		State:           DefaultState,
		Score:           DefaultScore,
		VehiclePrice:    DefaultVehiclePrice,
		DownPayment:     DefaultDownPayment,
		TradeInValue:    DefaultTradeInValue,
		EstTaxesAndFees: DefaultEstTaxesAndFees,
		Term:            DefaultTerm,
		VehicleYear:     DefaultVehicleYear,
		Mileage:         DefaultMileage,
		Product:         DefaultProduct,
	}
	if req.State != nil && strings.TrimSpace(*req.State) != "" {
		in.State = strings.ToUpper(strings.TrimSpace(*req.State))
	}
	if req.Score != nil {
		in.Score = *req.Score
	}
	if req.VehiclePrice != nil {
		in.VehiclePrice = *req.VehiclePrice
	}
	if req.DownPayment != nil {
		in.DownPayment = *req.DownPayment
	}
	if req.TradeInValue != nil {
		in.TradeInValue = *req.TradeInValue
	}
	if req.EstTaxesAndFees != nil {
		in.EstTaxesAndFees = *req.EstTaxesAndFees
	}
	if req.Term != nil {
		in.Term = *req.Term
	}
	if req.VehicleYear != nil {
		in.VehicleYear = *req.VehicleYear
	}
	if req.Mileage != nil {
		in.Mileage = *req.Mileage
	}
	if req.Product != nil && strings.TrimSpace(*req.Product) != "" {
		in.Product = strings.ToLower(strings.TrimSpace(*req.Product))
	}
	return in
}

func (in Inputs) validate() error {
	if in.Score < 0 {
		return &ValidationError{Field: "score", Message: "must be non-negative"}
	}
	if in.VehiclePrice < 0 {
		return &ValidationError{Field: "vehiclePrice", Message: "must be non-negative"}
	}
	if in.DownPayment < 0 {
		return &ValidationError{Field: "downPayment", Message: "must be non-negative"}
	}
	if in.TradeInValue < 0 {
		return &ValidationError{Field: "tradeInValue", Message: "must be non-negative"}
	}
	if in.EstTaxesAndFees < 0 {
		return &ValidationError{Field: "estTaxesAndFees", Message: "must be non-negative"}
	}
	if in.Mileage < 0 {
		return &ValidationError{Field: "mileage", Message: "must be non-negative"}
	}
	if in.Term <= 0 {
		return ErrInvalidTerm
	}
	return nil
}

// usedProduct reports whether the product id denotes a used vehicle.
func usedProduct(product string) bool {
	return strings.Contains(strings.ToLower(product), "used")
}
