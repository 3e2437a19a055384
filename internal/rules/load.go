package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ErrCatalogInvalid marks configuration errors: a missing, unparseable, or
// structurally invalid catalog source.
var ErrCatalogInvalid = errors.New("lender catalog invalid")

// DefaultCatalogPath is the bundled catalog shipped with the backend.
var DefaultCatalogPath = filepath.Join("internal", "rules", "lender_catalog.json")

// Load reads and validates a catalog from the provided JSON file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: read catalog: %v", ErrCatalogInvalid, err)
	}
	var catalog Catalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("%w: unmarshal catalog: %v", ErrCatalogInvalid, err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Resolve loads the catalog from the primary path, falling back to the
// bundled default when the primary is empty or unusable.
func Resolve(primary string) (*Catalog, error) {
	if primary != "" {
		catalog, err := Load(primary)
		if err == nil {
			return catalog, nil
		}
		logrus.WithError(err).WithField("path", primary).Warn("primary catalog unavailable, trying bundled default")
	}
	catalog, err := Load(DefaultCatalogPath)
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

// Validate checks the structural invariants of the catalog.
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: catalog is nil", ErrCatalogInvalid)
	}
	if len(c.ScoreBands) == 0 {
		return fmt.Errorf("%w: no score bands", ErrCatalogInvalid)
	}
	if len(c.Lenders) == 0 {
		return fmt.Errorf("%w: no lenders", ErrCatalogInvalid)
	}
	seen := make(map[string]struct{}, len(c.ScoreBands))
	for i, band := range c.ScoreBands {
		if band.ID == "" {
			return fmt.Errorf("%w: score band %d missing id", ErrCatalogInvalid, i)
		}
		if _, dup := seen[band.ID]; dup {
			return fmt.Errorf("%w: duplicate score band %q", ErrCatalogInvalid, band.ID)
		}
		seen[band.ID] = struct{}{}
		if band.Min > band.Max {
			return fmt.Errorf("%w: score band %q has min > max", ErrCatalogInvalid, band.ID)
		}
		for _, other := range c.ScoreBands[:i] {
			if band.Min <= other.Max && other.Min <= band.Max {
				return fmt.Errorf("%w: score bands %q and %q overlap", ErrCatalogInvalid, other.ID, band.ID)
			}
		}
	}
	for _, lender := range c.Lenders {
		if lender.ID == "" {
			return fmt.Errorf("%w: lender missing id", ErrCatalogInvalid)
		}
		if len(lender.Terms) == 0 {
			return fmt.Errorf("%w: lender %q has no terms", ErrCatalogInvalid, lender.ID)
		}
		if lender.Caps.MaxLTV != nil && *lender.Caps.MaxLTV <= 0 {
			return fmt.Errorf("%w: lender %q has non-positive maxLTV", ErrCatalogInvalid, lender.ID)
		}
	}
	return nil
}
