package arcgis

import (
	"fmt"
	"regexp"
	"strings"
)

// QueryTarget identifies one queryable feature layer. Catalog records
// carry either a URL that already names a specific layer
// (".../FeatureServer/3") or a bare service URL plus a separate layer
// id; the two cases are kept explicit here instead of re-deriving them
// from string shapes at every call site.
type QueryTarget struct {
	serviceURL string
	layerID    string
	isLayerURL bool
}

var trailingLayerRe = regexp.MustCompile(`/\d+/?$`)

// LayerURL builds a target from a URL that already names a layer.
func LayerURL(url string) QueryTarget {
	return QueryTarget{serviceURL: strings.TrimRight(url, "/"), isLayerURL: true}
}

// ServiceLayer builds a target from a service URL and a layer id.
func ServiceLayer(serviceURL, layerID string) QueryTarget {
	return QueryTarget{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		layerID:    layerID,
	}
}

// TargetFor picks the right variant for a catalog dataset: if the
// service URL already ends in a numeric layer path it is used as-is,
// otherwise the layer id is appended.
func TargetFor(serviceURL, layerID string) QueryTarget {
	if trailingLayerRe.MatchString(serviceURL) {
		return LayerURL(serviceURL)
	}
	if layerID == "" {
		layerID = "0"
	}
	return ServiceLayer(serviceURL, layerID)
}

// ServiceURL returns the service (or full layer) URL as given.
func (t QueryTarget) ServiceURL() string {
	return t.serviceURL
}

// LayerID returns the layer id, or "" for a layer-URL target.
func (t QueryTarget) LayerID() string {
	return t.layerID
}

// QueryURL returns the layer's query endpoint.
func (t QueryTarget) QueryURL() string {
	if t.isLayerURL {
		return t.serviceURL + "/query"
	}
	return fmt.Sprintf("%s/%s/query", t.serviceURL, t.layerID)
}

// CacheKey returns a stable key for the (service, layer) pair.
func (t QueryTarget) CacheKey() string {
	if t.isLayerURL {
		return t.serviceURL
	}
	return t.serviceURL + "|" + t.layerID
}

func (t QueryTarget) String() string {
	if t.isLayerURL {
		return t.serviceURL
	}
	return t.serviceURL + " layer " + t.layerID
}
