package app_test

import (
	"context"
	"reflect"
	"testing"

	"dinefinder/internal/app"
	"dinefinder/internal/domain"
)

func TestPriceLevelFromSymbol(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"", nil},
		{"$", pi(1)},
		{"$$", pi(2)},
		{"$$$", pi(3)},
		{"$$$$", pi(4)},
	}
	for _, tc := range cases {
		got := app.PriceLevelFromSymbol(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("%q: expected nil, got %d", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("%q: expected %d, got %v", tc.in, *tc.want, got)
		}
	}
}

func pi(i int) *int { return &i }

func TestFormatCategories(t *testing.T) {
	got := app.FormatCategories([]domain.Category{
		{Alias: "italian", Title: "Italian"},
		{Alias: "pizza", Title: "Pizza"},
	})
	if got != "Italian, Pizza" {
		t.Fatalf("got %q", got)
	}
	if app.FormatCategories(nil) != "" {
		t.Fatal("nil categories must format to empty string")
	}
}

func TestMapBusiness_ConcreteDefaults(t *testing.T) {
	// A minimal record: every optional field absent.
	b := domain.Business{ID: "b-1", Name: "Bare"}

	d := newDiscovery(newFakeRepo(), &fakeProvider{searchResult: domain.SearchResult{Businesses: []domain.Business{b}}})
	if _, err := d.Search(context.Background(), domain.SearchParams{Location: "NYC"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// Mapped defaults are observable through the stored row.
	stored := mustFind(t, d, "b-1")
	if stored.Photos == nil || stored.Categories == nil || stored.Hours == nil ||
		stored.Transactions == nil || stored.Attributes == nil || stored.DietaryTags == nil {
		t.Fatalf("optional collections must be concrete, got %+v", stored)
	}
	if stored.ExternalID == nil || *stored.ExternalID != "b-1" {
		t.Fatalf("external id not mapped: %+v", stored.ExternalID)
	}
	if stored.Rating != nil || stored.PriceLevel != nil || stored.Phone != nil {
		t.Fatalf("absent provider fields must map to nil, got %+v", stored)
	}
}

func mustFind(t *testing.T, d *app.Discovery, externalID string) domain.Restaurant {
	t.Helper()
	all, err := d.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, r := range all {
		if r.ExternalID != nil && *r.ExternalID == externalID {
			return r
		}
	}
	t.Fatalf("restaurant %q not stored", externalID)
	return domain.Restaurant{}
}

func TestMapBusiness_DeterministicThroughSearch(t *testing.T) {
	rich := domain.Business{
		ID:          "b-2",
		Name:        "Rich",
		Rating:      pf(4.5),
		ReviewCount: 10,
		Price:       "$$$",
		ImageURL:    "http://img/main.jpg",
		Phone:       "+12125550100",
		Categories:  []domain.Category{{Alias: "thai", Title: "Thai"}},
		Location:    domain.BusinessLocation{DisplayAddress: []string{"9 Spice Rd", "Queens"}},
		Lat:         pf(40.7),
		Lon:         pf(-73.9),
	}

	d1 := newDiscovery(newFakeRepo(), &fakeProvider{searchResult: domain.SearchResult{Businesses: []domain.Business{rich}}})
	d2 := newDiscovery(newFakeRepo(), &fakeProvider{searchResult: domain.SearchResult{Businesses: []domain.Business{rich}}})
	if _, err := d1.Search(context.Background(), domain.SearchParams{Location: "NYC"}); err != nil {
		t.Fatal(err)
	}
	if _, err := d2.Search(context.Background(), domain.SearchParams{Location: "NYC"}); err != nil {
		t.Fatal(err)
	}

	a, b := mustFind(t, d1, "b-2"), mustFind(t, d2, "b-2")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("mapping not deterministic:\n%+v\n%+v", a, b)
	}
	if a.Cuisine != "Thai" {
		t.Fatalf("cuisine not formatted from categories: %q", a.Cuisine)
	}
	if a.PriceLevel == nil || *a.PriceLevel != 3 {
		t.Fatalf("price level not derived: %v", a.PriceLevel)
	}
	if a.Address != "9 Spice Rd, Queens" {
		t.Fatalf("address not joined: %q", a.Address)
	}
	if len(a.Photos) != 1 || a.Photos[0] != "http://img/main.jpg" {
		t.Fatalf("image url must become the photo fallback: %v", a.Photos)
	}
}
