package rules

import (
	"encoding/json"
	"errors"
	"os"
	"testing"
)

func TestLoadBundledCatalog(t *testing.T) {
	catalog, err := Load("lender_catalog.json")
	if err != nil {
		t.Fatalf("load bundled catalog: %v", err)
	}
	if len(catalog.ScoreBands) == 0 || len(catalog.Lenders) == 0 {
		t.Fatalf("bundled catalog empty: %d bands, %d lenders", len(catalog.ScoreBands), len(catalog.Lenders))
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("does-not-exist.json")
	if !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestValidateRejectsOverlappingBands(t *testing.T) {
	catalog := Catalog{
		ScoreBands: []ScoreBand{
			{ID: "a", Min: 300, Max: 650},
			{ID: "b", Min: 600, Max: 850},
		},
		Lenders: []LenderRule{{ID: "l1", Terms: []int{60}}},
	}
	if err := catalog.Validate(); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected overlap rejection, got %v", err)
	}
}

func TestValidateRejectsInvertedBand(t *testing.T) {
	catalog := Catalog{
		ScoreBands: []ScoreBand{{ID: "a", Min: 700, Max: 600}},
		Lenders:    []LenderRule{{ID: "l1", Terms: []int{60}}},
	}
	if err := catalog.Validate(); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected min>max rejection, got %v", err)
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	old := DefaultCatalogPath
	DefaultCatalogPath = "lender_catalog.json"
	defer func() { DefaultCatalogPath = old }()

	catalog, err := Resolve("nope.json")
	if err != nil {
		t.Fatalf("resolve fallback: %v", err)
	}
	if len(catalog.Lenders) == 0 {
		t.Fatal("fallback catalog has no lenders")
	}
}

func TestLoadMalformedJSON(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "catalog-*.json")
	if err != nil {
		t.Fatalf("temp file: %v", err)
	}
	if _, err := f.WriteString("{not json"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := Load(f.Name()); !errors.Is(err, ErrCatalogInvalid) {
		t.Fatalf("expected ErrCatalogInvalid, got %v", err)
	}
}

func TestBaseAPRSkipsUnservedBands(t *testing.T) {
	lender := LenderRule{BaseAPRByBand: map[string]float64{"700-749": 0.07, "620-659": 0}}
	if _, ok := lender.BaseAPR("620-659"); ok {
		t.Fatal("zero rate should mean band not served")
	}
	if _, ok := lender.BaseAPR("300-579"); ok {
		t.Fatal("absent band should mean band not served")
	}
	apr, ok := lender.BaseAPR("700-749")
	if !ok || apr != 0.07 {
		t.Fatalf("expected 0.07 got %v ok=%v", apr, ok)
	}
}

func TestAdjusterWhenRoundTrip(t *testing.T) {
	// Absent predicate fields must stay nil so "field was specified" is
	// distinguishable from a zero value.
	var when AdjusterWhen
	if err := json.Unmarshal([]byte(`{"termMin":61}`), &when); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if when.TermMin == nil || *when.TermMin != 61 {
		t.Fatalf("termMin not decoded: %+v", when)
	}
	if when.Used != nil || when.State != nil || when.LTVMin != nil {
		t.Fatalf("absent fields should be nil: %+v", when)
	}
}
