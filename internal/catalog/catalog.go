// Package catalog persists the dataset inventory and the precomputed
// coverage records the offline tool produces for the live path.
package catalog

import (
	"regexp"
	"time"

	"github.com/sells-group/coverage-cli/internal/arcgis"
)

// Dataset is one catalog entry pointing at a remote feature service.
type Dataset struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	ServiceURL   string    `json:"service_url" yaml:"service_url"`
	LayerID      string    `json:"layer_id" yaml:"layer_id"`
	GeometryType string    `json:"geometry_type" yaml:"geometry_type"`
	CreatedAt    time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" yaml:"updated_at"`
}

// Target builds the query target for this dataset.
func (d Dataset) Target() arcgis.QueryTarget {
	return arcgis.TargetFor(d.ServiceURL, d.LayerID)
}

// normalizeTarget rewrites ServiceURL and LayerID into the canonical
// form TargetFor produces, so a stored row matches later lookups by
// target regardless of trailing slashes or a layer index already
// embedded in the URL (where the separate layer id is ignored).
func (d Dataset) normalizeTarget() Dataset {
	t := d.Target()
	d.ServiceURL = t.ServiceURL()
	d.LayerID = t.LayerID()
	return d
}

// spatialGeometryTypes lists the Esri geometry type names eligible for
// intersection counting. Tabular datasets have no geometry to count.
var spatialGeometryTypes = map[string]bool{
	"esriGeometryPoint":      true,
	"esriGeometryMultipoint": true,
	"esriGeometryPolyline":   true,
	"esriGeometryPolygon":    true,
}

// serviceURLPattern matches ArcGIS REST feature/map service endpoints,
// with or without a trailing layer index.
var serviceURLPattern = regexp.MustCompile(`(?i)/rest/services/.+/(Feature|Map)Server(/\d+)?/?$`)

// Qualifies reports whether a dataset is eligible for coverage
// precomputation: a recognizable spatial-service URL and a spatial
// geometry type.
func (d Dataset) Qualifies() bool {
	return serviceURLPattern.MatchString(d.ServiceURL) && spatialGeometryTypes[d.GeometryType]
}
