package osm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dinefinder/internal/adapters/osm"
	"dinefinder/internal/domain"
)

func overpassResponse(elements ...map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"elements": elements})
	}
}

func TestClient_Search_GeocodesLocation(t *testing.T) {
	var geocoded bool
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geocoded = true
		if got := r.URL.Query().Get("q"); got != "Brooklyn" {
			t.Errorf("expected q=Brooklyn, got %q", got)
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{{"lat": "40.678", "lon": "-73.944"}})
	}))
	defer nominatim.Close()

	var gotQL string
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotQL = r.Form.Get("data")
		overpassResponse(map[string]any{
			"type": "node", "id": 42, "lat": 40.68, "lon": -73.95,
			"tags": map[string]any{"name": "Falafel King", "cuisine": "middle eastern;falafel"},
		})(w, r)
	}))
	defer overpass.Close()

	cl := osm.New(overpass.URL, nominatim.URL, 100)
	res, err := cl.Search(context.Background(), domain.SearchParams{Term: "falafel", Location: "Brooklyn"})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !geocoded {
		t.Fatal("expected geocoding call for free-text location")
	}
	if !strings.Contains(gotQL, "around:5000,40.678,-73.944") {
		t.Fatalf("expected default radius around geocoded point, got QL:\n%s", gotQL)
	}
	if len(res.Businesses) != 1 {
		t.Fatalf("expected 1 business, got %d", len(res.Businesses))
	}
	b := res.Businesses[0]
	if b.ID != "osm-node-42" || b.Name != "Falafel King" {
		t.Fatalf("unexpected business: %+v", b)
	}
	if len(b.Categories) != 2 || b.Categories[0].Alias != "middle-eastern" {
		t.Fatalf("cuisine tag not split into categories: %+v", b.Categories)
	}
	if b.Rating != nil || b.ReviewCount != 0 {
		t.Fatalf("open data must not carry ratings: %+v", b)
	}
}

func TestClient_Search_MissingLocationIsBadRequest(t *testing.T) {
	cl := osm.New("http://unused.invalid", "http://unused.invalid", 100)
	_, err := cl.Search(context.Background(), domain.SearchParams{Term: "pizza"})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestClient_Search_UnresolvableLocationIsBadRequest(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer nominatim.Close()

	cl := osm.New("http://unused.invalid", nominatim.URL, 100)
	_, err := cl.Search(context.Background(), domain.SearchParams{Location: "Nowhereville-xyz"})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestClient_Search_DefaultsCategoryWhenNoCuisineTag(t *testing.T) {
	lat, lon := 40.7, -74.0
	overpass := httptest.NewServer(overpassResponse(
		map[string]any{"type": "way", "id": 7, "center": map[string]any{"lat": 40.71, "lon": -74.01}, "tags": map[string]any{}},
	))
	defer overpass.Close()

	cl := osm.New(overpass.URL, "http://unused.invalid", 100)
	res, err := cl.Search(context.Background(), domain.SearchParams{Term: "pizza", Lat: &lat, Lon: &lon})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	b := res.Businesses[0]
	if b.ID != "osm-way-7" {
		t.Fatalf("unexpected id: %s", b.ID)
	}
	if b.Name != "Unnamed Restaurant" {
		t.Fatalf("expected name fallback, got %q", b.Name)
	}
	if len(b.Categories) != 1 || b.Categories[0].Alias != "restaurant" || b.Categories[0].Title != "Restaurant" {
		t.Fatalf("expected default restaurant category, got %+v", b.Categories)
	}
	if b.Lat == nil || *b.Lat != 40.71 {
		t.Fatalf("center coordinates not used for ways: %+v", b)
	}
}

func TestClient_GetDetails_NotFound(t *testing.T) {
	overpass := httptest.NewServer(overpassResponse())
	defer overpass.Close()

	cl := osm.New(overpass.URL, "http://unused.invalid", 100)
	_, err := cl.GetDetails(context.Background(), "osm-node-999")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetDetails_ParsesExternalIDForms(t *testing.T) {
	var gotQL string
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotQL = r.Form.Get("data")
		overpassResponse(map[string]any{
			"type": "relation", "id": 5, "center": map[string]any{"lat": 1.0, "lon": 2.0},
			"tags": map[string]any{"name": "Big Hall"},
		})(w, r)
	}))
	defer overpass.Close()

	cl := osm.New(overpass.URL, "http://unused.invalid", 100)
	d, err := cl.GetDetails(context.Background(), "OSM-Relation-5")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(gotQL, "relation(5)") {
		t.Fatalf("expected relation lookup, got QL:\n%s", gotQL)
	}
	if d.Business.Name != "Big Hall" {
		t.Fatalf("unexpected details: %+v", d.Business)
	}
	if d.Photos == nil || d.Hours == nil || d.Attributes == nil {
		t.Fatalf("detail collections must be concrete, got %+v", d)
	}
}

func TestClient_GetDetails_MalformedIDIsBadRequest(t *testing.T) {
	var calls int
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer overpass.Close()

	cl := osm.New(overpass.URL, "http://unused.invalid", 100)
	_, err := cl.GetDetails(context.Background(), "not-an-id")
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("malformed id must not reach overpass, got %d calls", calls)
	}
}

func TestClient_GetReviews_AlwaysEmpty(t *testing.T) {
	cl := osm.New("http://unused.invalid", "http://unused.invalid", 100)
	res, err := cl.GetReviews(context.Background(), "osm-node-1", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Reviews) != 0 || res.Total != 0 {
		t.Fatalf("expected empty review set, got %+v", res)
	}
	if len(res.Languages) != 1 || res.Languages[0] != "en_US" {
		t.Fatalf("expected locale default, got %v", res.Languages)
	}
}

func TestClient_ServerErrorIsUnavailable(t *testing.T) {
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer overpass.Close()

	lat, lon := 40.7, -74.0
	cl := osm.New(overpass.URL, "http://unused.invalid", 100)
	_, err := cl.Search(context.Background(), domain.SearchParams{Lat: &lat, Lon: &lon})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
