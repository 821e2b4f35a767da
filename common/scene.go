package common

import (
	"time"

	"github.com/go-spatial/geom"
)

// Scene is one catalog record of a Landsat acquisition.
type Scene struct {
	// SceneID is the legacy identifier, always present
	SceneID string
	// ProductID is the collection product identifier, empty for pre-2017
	// catalog entries
	ProductID string
	// Spacecraft is e.g. LANDSAT_5
	Spacecraft string
	// SensorID is the sensor family, e.g. TM, ETM, OLI_TIRS
	SensorID   string
	Collection Collection
	CloudCover float64
	// BaseURL is the gs:// prefix of the product in the public bucket
	BaseURL string
	Date    time.Time
	// Geometry is the scene footprint decoded from the catalog store
	Geometry geom.Geometry
}

// Key returns the effective unique key of the scene: the product identifier
// when present, falling back to the scene identifier for legacy entries.
func (s Scene) Key() string {
	if s.ProductID != "" {
		return s.ProductID
	}
	return s.SceneID
}
