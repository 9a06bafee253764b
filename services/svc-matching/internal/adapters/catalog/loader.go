// Package catalog reads reference tables from HuJSON files.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/architeacher/logistics/services/svc-matching/internal/domain/model"
	"github.com/architeacher/logistics/services/svc-matching/internal/domain/reference"
	"github.com/tailscale/hujson"
)

// LoadFile reads a catalog document: an object keyed by table name whose
// values are arrays of {id, value, alias} entries. Comments and trailing
// commas are allowed.
func LoadFile(path string) (*reference.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", model.ErrCatalogLoad, path, err)
	}

	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return catalog, nil
}

func Parse(data []byte) (*reference.Catalog, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid HuJSON: %w", model.ErrCatalogLoad, err)
	}

	var tables map[reference.TableKey]reference.Table
	if err := json.Unmarshal(standardized, &tables); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", model.ErrCatalogLoad, err)
	}

	catalog, err := reference.NewCatalog(tables)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCatalogLoad, err)
	}

	return catalog, nil
}
