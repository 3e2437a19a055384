package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"vehicle-financing/backend/internal/store"
)

const testCatalogJSON = `{
  "meta": {"version": "test"},
  "scoreBands": [
    {"id": "620-699", "min": 620, "max": 699},
    {"id": "700-749", "min": 700, "max": 749}
  ],
  "lenders": [
    {
      "id": "alpha",
      "name": "Alpha Auto Credit",
      "states": ["GA", "FL"],
      "products": ["auto-used", "auto-new"],
      "terms": [48, 60, 72],
      "baseAprByBand": {"620-699": 0.09, "700-749": 0.07},
      "caps": {"maxLTV": 1.3},
      "adjusters": [
        {"when": {"used": true}, "aprAdd": 0.01}
      ]
    },
    {
      "id": "beta",
      "name": "Beta Bank",
      "states": ["GA"],
      "products": ["auto-used"],
      "terms": [60],
      "baseAprByBand": {"700-749": 0.089}
    }
  ]
}`

func newTestServer(t *testing.T, mutate func(*Config)) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.json")
	if err := os.WriteFile(catalogPath, []byte(testCatalogJSON), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	cfg := Config{
		CatalogPath: catalogPath,
		DBPath:      filepath.Join(dir, "test.db"),
		SilentDB:    true,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	router, err := server.Router()
	if err != nil {
		t.Fatalf("configure router: %v", err)
	}
	return server, router
}

func postJSON(t *testing.T, router *gin.Engine, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleEstimate(t *testing.T) {
	_, router := newTestServer(t, nil)

	body := `{"state":"GA","score":700,"vehiclePrice":20000,"downPayment":2000,"tradeInValue":0,"estTaxesAndFees":1200,"term":60,"vehicleYear":2018,"mileage":80000,"product":"auto-used"}`
	w := postJSON(t, router, "/api/estimate", body, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var result struct {
		Band struct {
			ID string `json:"id"`
		} `json:"band"`
		Inputs struct {
			LoanAmount float64 `json:"loanAmount"`
			LTV        float64 `json:"ltv"`
		} `json:"inputs"`
		Results []struct {
			LenderID string   `json:"lenderId"`
			APRLow   float64  `json:"aprLow"`
			APRHigh  float64  `json:"aprHigh"`
			Notes    []string `json:"notes"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Band.ID != "700-749" {
		t.Fatalf("expected band 700-749 got %s", result.Band.ID)
	}
	if result.Inputs.LoanAmount != 19200 {
		t.Fatalf("expected loan amount 19200 got %.2f", result.Inputs.LoanAmount)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 offers got %d", len(result.Results))
	}
	if result.Results[0].LenderID != "alpha" || result.Results[0].APRLow != 0.075 {
		t.Fatalf("unexpected best offer %+v", result.Results[0])
	}
	if result.Results[1].LenderID != "beta" || result.Results[1].APRLow != 0.084 {
		t.Fatalf("unexpected runner-up %+v", result.Results[1])
	}
	foundNote := false
	for _, note := range result.Results[0].Notes {
		if note == "Used vehicle add-on included" {
			foundNote = true
		}
	}
	if !foundNote {
		t.Fatalf("used-vehicle note missing: %v", result.Results[0].Notes)
	}
}

func TestHandleEstimateScoreOutOfRange(t *testing.T) {
	_, router := newTestServer(t, nil)
	w := postJSON(t, router, "/api/estimate", `{"score":500}`, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "score out of supported range") {
		t.Fatalf("unexpected error body %s", w.Body.String())
	}
}

func TestHandleEstimateMalformedBody(t *testing.T) {
	_, router := newTestServer(t, nil)
	w := postJSON(t, router, "/api/estimate", `{"score":"not-a-number"}`, nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d: %s", w.Code, w.Body.String())
	}
}

func TestHandleEstimateCachedResponseIsByteIdentical(t *testing.T) {
	_, router := newTestServer(t, nil)
	body := `{"score":705,"term":60}`
	first := postJSON(t, router, "/api/estimate", body, nil)
	second := postJSON(t, router, "/api/estimate", body, nil)
	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected 200s got %d/%d", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatal("repeated identical requests must return byte-identical payloads")
	}
}

func TestHandleEstimatePersistsHistory(t *testing.T) {
	server, router := newTestServer(t, nil)
	w := postJSON(t, router, "/api/estimate", `{}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}

	rows, total, err := server.db.ListEstimates(0, 10)
	if err != nil {
		t.Fatalf("list estimates: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("expected one history row, got total=%d len=%d", total, len(rows))
	}
	if rows[0].BandID != "700-749" || rows[0].OfferCount != 2 {
		t.Fatalf("unexpected record %+v", rows[0])
	}

	req := httptest.NewRequest(http.MethodGet, "/api/estimates", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var resp EstimatesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Fatalf("unexpected history payload %+v", resp)
	}
}

func TestHandleLenders(t *testing.T) {
	_, router := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/lenders", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var resp struct {
		Items []LenderDTO `json:"items"`
		Total int         `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode lenders: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 lenders got %d", resp.Total)
	}
}

func TestCheckoutDisabled(t *testing.T) {
	_, router := newTestServer(t, nil)
	w := postJSON(t, router, "/api/checkout", `{"priceId":"price_x"}`, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
}

func TestAdvisorDisabled(t *testing.T) {
	_, router := newTestServer(t, nil)
	w := postJSON(t, router, "/api/advisor", `{"question":"should I take it?"}`, nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
}

func TestSubscriptionGate(t *testing.T) {
	server, router := newTestServer(t, func(cfg *Config) {
		cfg.RequireSubscription = true
	})

	// no email header
	w := postJSON(t, router, "/api/estimate", `{}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}

	// unknown subscriber
	w = postJSON(t, router, "/api/estimate", `{}`, map[string]string{"X-User-Email": "nobody@example.com"})
	if w.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402 got %d", w.Code)
	}

	if err := server.db.UpsertUserProfile(&store.UserProfile{Email: "buyer@example.com", Subscribed: true, Plan: "premium"}); err != nil {
		t.Fatalf("upsert profile: %v", err)
	}
	w = postJSON(t, router, "/api/estimate", `{}`, map[string]string{"X-User-Email": "buyer@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
}

func TestRateLimit(t *testing.T) {
	_, router := newTestServer(t, func(cfg *Config) {
		cfg.RateLimit = 2
	})

	for i := 0; i < 2; i++ {
		if w := postJSON(t, router, "/api/estimate", `{}`, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 got %d", i, w.Code)
		}
	}
	if w := postJSON(t, router, "/api/estimate", `{}`, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", w.Code)
	}
}
