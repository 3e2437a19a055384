package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"vehicle-financing/backend/internal/advisor"
	"vehicle-financing/backend/internal/cache"
	"vehicle-financing/backend/internal/checkout"
	"vehicle-financing/backend/internal/pricing"
	"vehicle-financing/backend/internal/rules"
	"vehicle-financing/backend/internal/store"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	catalog := s.engine.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"meta":             catalog.Meta,
		"score_bands":      catalog.ScoreBands,
		"lender_count":     len(catalog.Lenders),
		"advisor_enabled":  s.advisor != nil && s.advisor.Enabled(),
		"checkout_enabled": s.checkout != nil,
		"cache_ttl":        s.cacheTTL.String(),
	})
}

func (s *Server) handleLenders(c *gin.Context) {
	catalog := s.engine.Catalog()
	dtos := make([]LenderDTO, 0, len(catalog.Lenders))
	for _, lender := range catalog.Lenders {
		dtos = append(dtos, LenderFromRule(lender))
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": len(dtos)})
}

// handleEstimate runs the full pricing pipeline for one request. Estimates
// are deterministic, so cached payloads are replayed byte-for-byte.
func (s *Server) handleEstimate(c *gin.Context) {
	var req pricing.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusUnprocessableEntity, errors.New("malformed estimate request: "+err.Error()))
		return
	}

	keyPayload, err := json.Marshal(req)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	cacheKey := cache.Key(s.catalogVersion, keyPayload)
	if payload, ok := s.estimateCache.Get(c.Request.Context(), cacheKey); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(payload))
		return
	}

	start := time.Now()
	result, err := s.engine.Estimate(req)
	if err != nil {
		s.renderEstimateError(c, err)
		return
	}
	elapsed := time.Since(start)

	payload, err := json.Marshal(result)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if err := s.estimateCache.Set(c.Request.Context(), cacheKey, string(payload), s.cacheTTL); err != nil {
		logrus.WithError(err).Warn("cache estimate")
	}

	record := recordFromResult(result, elapsed.Milliseconds())
	if err := s.db.SaveEstimate(record); err != nil {
		logrus.WithError(err).Warn("persist estimate record")
	}
	s.notifier.Broadcast(EstimateEvent{
		Type:     "estimate",
		Estimate: summaryFromRecord(*record),
	})

	logrus.WithFields(logrus.Fields{
		"state":    result.Inputs.State,
		"band":     result.Band.ID,
		"offers":   len(result.Results),
		"duration": elapsed,
	}).Info("estimate computed")

	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

// renderEstimateError maps the pricing taxonomy onto HTTP statuses. Every
// failure is caller-correctable, so nothing maps to a retryable 5xx.
func (s *Server) renderEstimateError(c *gin.Context, err error) {
	switch {
	case pricing.IsValidationError(err):
		s.renderError(c, http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrScoreOutOfRange),
		errors.Is(err, pricing.ErrInvalidTerm),
		errors.Is(err, rules.ErrCatalogInvalid):
		s.renderError(c, http.StatusBadRequest, err)
	default:
		s.renderError(c, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleListEstimates(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}
	offset := page * pageSize

	rows, total, err := s.db.ListEstimates(offset, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]EstimateRecordDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, RecordFromModel(row))
	}
	c.JSON(http.StatusOK, EstimatesResponse{Items: dtos, Total: total})
}

func (s *Server) handleAdvise(c *gin.Context) {
	if s.advisor == nil || !s.advisor.Enabled() {
		s.renderError(c, http.StatusServiceUnavailable, advisor.ErrDisabled)
		return
	}

	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusUnprocessableEntity, errors.New("malformed advice request: "+err.Error()))
		return
	}
	if req.Question == "" {
		s.renderError(c, http.StatusUnprocessableEntity, errors.New("question required"))
		return
	}

	result, err := s.engine.Estimate(req.Request)
	if err != nil {
		s.renderEstimateError(c, err)
		return
	}

	input := advisor.AdviceInput{
		Question:   req.Question,
		State:      result.Inputs.State,
		BandID:     result.Band.ID,
		Term:       result.Inputs.Term,
		LoanAmount: result.Inputs.LoanAmount,
		LTV:        result.Inputs.LTV,
		Product:    result.Inputs.Product,
		OfferCount: len(result.Results),
	}
	if len(result.Results) > 0 {
		best := result.Results[0]
		input.BestLender = best.LenderName
		input.BestAPRLow = best.APRLow
		input.BestAPRHigh = best.APRHigh
		input.BestPayment = best.PaymentLow
	}

	advice, err := s.advisor.Advise(c.Request.Context(), input)
	if err != nil {
		s.renderError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, AdviceResponse{Reply: advice.Reply, Tips: advice.Tips})
}

func (s *Server) handleCheckout(c *gin.Context) {
	if s.checkout == nil {
		s.renderError(c, http.StatusServiceUnavailable, checkout.ErrMissingCredentials)
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusUnprocessableEntity, errors.New("malformed checkout request: "+err.Error()))
		return
	}
	if req.PriceID == "" {
		s.renderError(c, http.StatusUnprocessableEntity, errors.New("priceId required"))
		return
	}

	session, err := s.checkout.CreateSession(c.Request.Context(), checkout.SessionRequest{
		PriceID:    req.PriceID,
		Quantity:   req.Quantity,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		s.renderError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, CheckoutResponse{SessionID: session.ID, URL: session.URL})
}

func recordFromResult(result *pricing.EstimateResult, elapsedMs int64) *store.EstimateRecord {
	record := &store.EstimateRecord{
		EstimateID:       uuid.NewString(),
		State:            result.Inputs.State,
		Score:            result.Inputs.Score,
		Product:          result.Inputs.Product,
		Term:             result.Inputs.Term,
		VehicleYear:      result.Inputs.VehicleYear,
		Mileage:          result.Inputs.Mileage,
		LoanAmount:       result.Inputs.LoanAmount,
		LTV:              result.Inputs.LTV,
		BandID:           result.Band.ID,
		OfferCount:       len(result.Results),
		ProcessingTimeMs: elapsedMs,
	}
	if len(result.Results) > 0 {
		record.BestAPRLow = result.Results[0].APRLow
		record.BestPaymentLow = result.Results[0].PaymentLow
	}
	record.SetOffers(result.Results)
	return record
}
