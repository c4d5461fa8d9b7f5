package app

import (
	"strings"
	"time"

	"dinefinder/internal/domain"
)

// PriceLevelFromSymbol maps a provider price string to a 1-4 level: the
// level is the symbol count ("$$$" -> 3). Absent price means nil, never 0.
func PriceLevelFromSymbol(price string) *int {
	if price == "" {
		return nil
	}
	n := len(price)
	return &n
}

// FormatCategories renders a category list as comma-joined titles.
func FormatCategories(cats []domain.Category) string {
	titles := make([]string, 0, len(cats))
	for _, c := range cats {
		titles = append(titles, c.Title)
	}
	return strings.Join(titles, ", ")
}

// mapBusiness maps a normalized provider business onto restaurant fields.
// Deterministic, no I/O; every optional provider field lands on a concrete
// default (nil pointer, false, empty collection), never an absent key.
func mapBusiness(b domain.Business) domain.Restaurant {
	r := domain.Restaurant{
		ExternalID:   ptrStr(b.ID),
		Name:         b.Name,
		Description:  nil,
		Cuisine:      FormatCategories(b.Categories),
		Address:      strings.Join(b.Location.DisplayAddress, ", "),
		Phone:        ptrStr(firstNonEmpty(b.DisplayPhone, b.Phone)),
		Rating:       b.Rating,
		ReviewCount:  b.ReviewCount,
		Lat:          b.Lat,
		Lon:          b.Lon,
		Photos:       photosFallback(nil, b.ImageURL),
		PriceLevel:   PriceLevelFromSymbol(b.Price),
		Categories:   b.Categories,
		Hours:        []domain.HoursSpan{},
		URL:          ptrStr(b.URL),
		Closed:       b.Closed,
		Transactions: b.Transactions,
		Attributes:   map[string]any{},
		DietaryTags:  []string{},
	}
	if r.Categories == nil {
		r.Categories = []domain.Category{}
	}
	if r.Transactions == nil {
		r.Transactions = []string{}
	}
	return r
}

// mapDetails maps a full detail record; the richer fields (photos, hours,
// attributes) replace the search-shaped defaults.
func mapDetails(d domain.BusinessDetails) domain.Restaurant {
	r := mapBusiness(d.Business)
	r.Photos = photosFallback(d.Photos, d.ImageURL)
	r.Hours = flattenHours(d.Hours)
	if d.Attributes != nil {
		r.Attributes = d.Attributes
	}
	return r
}

// photosFallback prefers the explicit photo list, then the primary image as
// a single-element list, filtering out empty values.
func photosFallback(photos []string, imageURL string) []string {
	out := make([]string, 0, len(photos))
	for _, p := range photos {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 && imageURL != "" {
		out = append(out, imageURL)
	}
	return out
}

func flattenHours(blocks []domain.HoursBlock) []domain.HoursSpan {
	if len(blocks) == 0 {
		return []domain.HoursSpan{}
	}
	spans := blocks[0].Open
	if spans == nil {
		return []domain.HoursSpan{}
	}
	return spans
}

func mapBusinessReviews(restaurantID int64, in []domain.BusinessReview) []domain.Review {
	out := make([]domain.Review, 0, len(in))
	for _, br := range in {
		rv := domain.Review{
			RestaurantID:     restaurantID,
			ExternalReviewID: ptrStr(br.ID),
			Text:             br.Text,
			Rating:           br.Rating,
			UserName:         br.UserName,
			UserImageURL:     ptrStr(br.UserImageURL),
			URL:              ptrStr(br.URL),
		}
		if t, ok := parseReviewTime(br.TimeCreated); ok {
			rv.TimeCreated = t
		}
		out = append(out, rv)
	}
	return out
}

func parseReviewTime(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func ptrStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}
	return ""
}
