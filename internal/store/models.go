package store

import (
	"encoding/json"
	"strings"
	"time"
)

// EstimateRecord is the persisted audit row for one estimate call. The offer
// list is stored as JSON so history queries stay a single table scan.
type EstimateRecord struct {
	ID               uint   `gorm:"primaryKey"`
	EstimateID       string `gorm:"size:64;uniqueIndex"`
	State            string `gorm:"size:8;index"`
	Score            int
	Product          string `gorm:"size:32;index"`
	Term             int
	VehicleYear      int
	Mileage          int
	LoanAmount       float64
	LTV              float64
	BandID           string `gorm:"size:32;index"`
	OfferCount       int
	BestAPRLow       float64
	BestPaymentLow   float64
	OffersJSON       string `gorm:"type:text"`
	ProcessingTimeMs int64
	CreatedAt        time.Time `gorm:"autoCreateTime;index"`
}

// SetOffers stores the offer payload as JSON.
func (r *EstimateRecord) SetOffers(offers any) {
	payload, _ := json.Marshal(offers)
	r.OffersJSON = string(payload)
}

// Offers returns the stored offer payload as raw JSON.
func (r *EstimateRecord) Offers() json.RawMessage {
	if strings.TrimSpace(r.OffersJSON) == "" {
		return json.RawMessage("[]")
	}
	return json.RawMessage(r.OffersJSON)
}

// UserProfile gates estimator access on subscription status.
type UserProfile struct {
	ID         uint   `gorm:"primaryKey"`
	Email      string `gorm:"size:255;uniqueIndex"`
	Subscribed bool   `gorm:"index"`
	Plan       string `gorm:"size:32"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
