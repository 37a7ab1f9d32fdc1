package arcgis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/coverage-cli/internal/resilience"
)

func testPolygon(t *testing.T) *geom.Polygon {
	t.Helper()
	poly := squarePolygon(-100, 40, 2)
	require.NotNil(t, poly)
	return poly
}

func TestClient_CountIntersecting(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 1234})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	target := LayerURL(srv.URL)

	count, err := client.CountIntersecting(context.Background(), target, testPolygon(t), 0)
	require.NoError(t, err)
	assert.Equal(t, 1234, count)

	assert.Equal(t, "json", gotForm.Get("f"))
	assert.Equal(t, "1=1", gotForm.Get("where"))
	assert.Equal(t, "esriGeometryPolygon", gotForm.Get("geometryType"))
	assert.Equal(t, "esriSpatialRelIntersects", gotForm.Get("spatialRel"))
	assert.Equal(t, "true", gotForm.Get("returnCountOnly"))

	var g Geometry
	require.NoError(t, json.Unmarshal([]byte(gotForm.Get("geometry")), &g))
	assert.Len(t, g.Rings, 1)
}

func TestClient_CountIntersecting_BufferShrinksGeometry(t *testing.T) {
	var gotGeometry string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGeometry = r.PostForm.Get("geometry")
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 7})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	poly := testPolygon(t)

	count, err := client.CountIntersecting(context.Background(), LayerURL(srv.URL), poly, 10)
	require.NoError(t, err)
	assert.Equal(t, 7, count)

	var g Geometry
	require.NoError(t, json.Unmarshal([]byte(gotGeometry), &g))
	sent := PolygonFromRings(g.Rings)
	require.NotNil(t, sent)
	assert.Less(t, sent.Area(), poly.Area())
}

func TestClient_CountIntersecting_CollapsedBufferFallsBack(t *testing.T) {
	var gotGeometry string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGeometry = r.PostForm.Get("geometry")
		_ = json.NewEncoder(w).Encode(map[string]any{"count": 3})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	// ~1km island, 10km buffer: must fall back to unbuffered rings.
	tiny := squarePolygon(-155, 20, 0.01)

	count, err := client.CountIntersecting(context.Background(), LayerURL(srv.URL), tiny, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	var g Geometry
	require.NoError(t, json.Unmarshal([]byte(gotGeometry), &g))
	sent := PolygonFromRings(g.Rings)
	require.NotNil(t, sent)
	assert.InDelta(t, tiny.Area(), sent.Area(), 1e-12)
}

func TestClient_Query_ServiceErrorPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 400, "message": "Invalid geometry"},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	_, err := client.Query(context.Background(), srv.URL, url.Values{})
	require.Error(t, err)

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 400, se.Code)
	assert.False(t, resilience.IsTransient(err))
}

func TestClient_Query_TransientServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"code": 503, "message": "Server busy"},
		})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	_, err := client.Query(context.Background(), srv.URL, url.Values{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestClient_Query_TransientHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	_, err := client.Query(context.Background(), srv.URL, url.Values{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestClient_Query_PermanentHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	_, err := client.Query(context.Background(), srv.URL, url.Values{})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestClient_CountIntersecting_MissingCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"features": []any{}})
	}))
	defer srv.Close()

	client := NewClient(ClientOptions{RatePerHost: 1000})
	_, err := client.CountIntersecting(context.Background(), LayerURL(srv.URL), testPolygon(t), 0)
	assert.Error(t, err)
}

func TestClient_CountIntersecting_ContextTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	client := NewClient(ClientOptions{RatePerHost: 1000})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.CountIntersecting(ctx, LayerURL(srv.URL), testPolygon(t), 0)
	assert.Error(t, err)
}
