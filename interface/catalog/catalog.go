package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/geofetch/landsat-mirror/common"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/paulsmith/gogeos/geos"
)

// Store issues read-only filter queries against a catalog of Landsat scene
// metadata.
type Store interface {
	// Scenes returns the records satisfying the filter. It does not retry: a
	// malformed predicate or an unreachable store surfaces the query error.
	Scenes(ctx context.Context, filter Filter) ([]common.Scene, error)
}

// Filter is the predicate of a catalog query. Zero values disable the
// corresponding clause (MaxCloudCover: negative disables).
type Filter struct {
	// AOIWKT is a WKT geometry the scene footprints must intersect
	AOIWKT string
	// Spacecraft is e.g. LANDSAT_5
	Spacecraft string
	// Sensors restricts the sensor families, e.g. TM, ETM
	Sensors []string
	// Collections restricts the collection generations
	Collections []common.Collection
	// MaxCloudCover in percent, negative to disable
	MaxCloudCover float64
	From, To      time.Time
	Limit         int
}

// ValidateAOI parses a user-supplied WKT geometry and returns its normalized
// form, so malformed geometries are rejected before reaching the store.
func ValidateAOI(aoiWKT string) (string, error) {
	g, err := geos.FromWKT(aoiWKT)
	if err != nil {
		return "", fmt.Errorf("ValidateAOI.FromWKT: %w", err)
	}
	normalized, err := g.ToWKT()
	if err != nil {
		return "", fmt.Errorf("ValidateAOI.ToWKT: %w", err)
	}
	return normalized, nil
}

// BBoxWKT builds the WKT polygon of a lon/lat bounding rectangle.
func BBoxWKT(minLon, minLat, maxLon, maxLat float64) (string, error) {
	if minLon >= maxLon || minLat >= maxLat {
		return "", fmt.Errorf("BBoxWKT: empty bounding box")
	}
	poly := geom.Polygon{{
		{minLon, minLat},
		{maxLon, minLat},
		{maxLon, maxLat},
		{minLon, maxLat},
		{minLon, minLat},
	}}
	return wkt.EncodeString(poly)
}

// PreOnly keeps the scenes that exist solely as pre-collection legacy
// products: scene ids that appear exactly once in the result set, with
// collection PRE. This only makes sense when the query requested PRE
// together with the numbered collections; the precondition is not enforced.
func PreOnly(scenes []common.Scene) []common.Scene {
	counts := map[string]int{}
	for _, s := range scenes {
		counts[s.SceneID]++
	}
	var preOnly []common.Scene
	for _, s := range scenes {
		if counts[s.SceneID] == 1 && s.Collection == common.CollectionPre {
			preOnly = append(preOnly, s)
		}
	}
	return preOnly
}

// OnlyCollection keeps the scenes of the given collection generation.
func OnlyCollection(scenes []common.Scene, c common.Collection) []common.Scene {
	var kept []common.Scene
	for _, s := range scenes {
		if s.Collection == c {
			kept = append(kept, s)
		}
	}
	return kept
}
