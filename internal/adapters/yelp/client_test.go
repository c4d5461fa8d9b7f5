package yelp_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"dinefinder/internal/adapters/observability"
	"dinefinder/internal/adapters/yelp"
	"dinefinder/internal/domain"
)

func searchPayload() map[string]any {
	return map[string]any{
		"businesses": []map[string]any{
			{
				"id":           "biz-1",
				"name":         "Pasta Place",
				"rating":       4.5,
				"review_count": 120,
				"price":        "$$",
				"categories":   []map[string]any{{"alias": "italian", "title": "Italian"}},
				"coordinates":  map[string]any{"latitude": 40.7, "longitude": -74.0},
				"location":     map[string]any{"display_address": []string{"1 Main St", "New York"}},
			},
		},
		"total":  1,
		"region": map[string]any{"center": map[string]any{"latitude": 40.7, "longitude": -74.0}},
	}
}

func TestClient_Search_ClampsRadiusAndLimit(t *testing.T) {
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_ = json.NewEncoder(w).Encode(searchPayload())
	}))
	defer ts.Close()

	cl := yelp.New(ts.URL, "test-key", 100) // high RPS for tests
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := cl.Search(ctx, domain.SearchParams{Location: "NYC", RadiusM: 100000, Limit: 999})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Businesses) != 1 || res.Businesses[0].ID != "biz-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if got := gotQuery["radius"]; len(got) != 1 || got[0] != "40000" {
		t.Fatalf("radius not clamped: %v", got)
	}
	if got := gotQuery["limit"]; len(got) != 1 || got[0] != "50" {
		t.Fatalf("limit not clamped: %v", got)
	}
}

func TestClient_Search_AlwaysConstrainsToRestaurants(t *testing.T) {
	var cats []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cats = r.URL.Query()["categories"]
		_ = json.NewEncoder(w).Encode(searchPayload())
	}))
	defer ts.Close()

	cl := yelp.New(ts.URL, "test-key", 100)
	ctx := context.Background()

	if _, err := cl.Search(ctx, domain.SearchParams{Location: "NYC", Categories: "pizza"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(cats) != 2 || cats[0] != "pizza" || cats[1] != "restaurants,food" {
		t.Fatalf("unexpected categories params: %v", cats)
	}
}

func TestClient_Search_MissingKeyFailsFast(t *testing.T) {
	cl := yelp.New("http://unreachable.invalid", "", 100)
	_, err := cl.Search(context.Background(), domain.SearchParams{Location: "NYC"})
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_GetDetails_404(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	cl := yelp.New(ts.URL, "test-key", 100)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := cl.GetDetails(ctx, "missing-biz")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetDetails_ServerErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	cl := yelp.New(ts.URL, "test-key", 100)
	_, err := cl.GetDetails(context.Background(), "biz-1")
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_GetReviews_MapsUsers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("sort_by"); got != "newest" {
			t.Errorf("expected sort_by=newest, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"reviews": []map[string]any{
				{
					"id":           "rev-1",
					"rating":       5.0,
					"text":         "Great pasta",
					"time_created": "2024-05-01 12:00:00",
					"user":         map[string]any{"name": "Ana", "image_url": "http://img"},
				},
			},
			"total":              1,
			"possible_languages": []string{"en"},
		})
	}))
	defer ts.Close()

	cl := yelp.New(ts.URL, "test-key", 100)
	res, err := cl.GetReviews(context.Background(), "biz-1", "")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(res.Reviews) != 1 || res.Reviews[0].UserName != "Ana" || res.Reviews[0].Rating != 5 {
		t.Fatalf("unexpected reviews: %+v", res.Reviews)
	}
}

func TestClient_RecordsOutboundMetrics(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchPayload())
	}))
	defer ts.Close()

	counter := observability.ExternalRequests.WithLabelValues("yelp", "search", "200")
	before := testutil.ToFloat64(counter)

	cl := yelp.New(ts.URL, "test-key", 100)
	if _, err := cl.Search(context.Background(), domain.SearchParams{Location: "NYC"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Fatalf("expected outbound counter to increment once, delta %.0f", got-before)
	}
}

func TestClient_ValidateConnection(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchPayload())
	}))
	defer ok.Close()

	if !yelp.New(ok.URL, "test-key", 100).ValidateConnection(context.Background()) {
		t.Fatal("expected healthy provider to validate")
	}
	if yelp.New(ok.URL, "", 100).ValidateConnection(context.Background()) {
		t.Fatal("expected missing key to fail validation")
	}
}
