package app

import (
	"fmt"
	"strings"

	"dinefinder/internal/domain"
)

// InsightsFor synthesizes per-restaurant insights from stored fields only:
// string templating over fixed lookup tables, fully deterministic.
func InsightsFor(r domain.Restaurant) domain.Insights {
	return domain.Insights{
		ReviewSummary:   insightSummary(r),
		DietaryTags:     insightDietaryTags(r),
		BestTimeToVisit: insightBestTime(r),
		SuggestedDishes: insightDishes(r),
	}
}

func insightSummary(r domain.Restaurant) string {
	var parts []string

	switch {
	case r.Rating == nil:
		parts = append(parts, "This spot has not collected a rating yet.")
	case *r.Rating >= 4.5:
		parts = append(parts, fmt.Sprintf("Guests consistently rave about this place, rating it %.1f out of 5.", *r.Rating))
	case *r.Rating >= 4:
		parts = append(parts, fmt.Sprintf("Diners rate this place a solid %.1f out of 5.", *r.Rating))
	case *r.Rating >= 3:
		parts = append(parts, fmt.Sprintf("Reviews are mixed, averaging %.1f out of 5.", *r.Rating))
	default:
		parts = append(parts, fmt.Sprintf("Ratings trend low at %.1f out of 5.", *r.Rating))
	}

	if r.Description != nil {
		if first := firstSentence(*r.Description); first != "" {
			parts = append(parts, first)
		}
	}
	if len(parts) == 1 && r.Description == nil {
		parts = append(parts, "No description is available yet.")
	}
	return strings.Join(parts, " ")
}

// dietary tag triggers; keys are matched against lowercased category titles,
// values are the attribute flags that also count as a match.
var dietaryTriggers = []struct {
	tag      string
	keyword  string
	attrKeys []string
}{
	{"diet:vegan", "vegan", []string{"vegan", "diet:vegan"}},
	{"diet:vegetarian", "vegetarian", []string{"vegetarian", "diet:vegetarian"}},
	{"diet:gluten_free", "gluten", []string{"gluten_free", "diet:gluten_free", "gluten-free"}},
}

func insightDietaryTags(r domain.Restaurant) []string {
	tags := []string{}
	for _, tr := range dietaryTriggers {
		if matchesCategory(r.Categories, tr.keyword) || truthyAttr(r.Attributes, tr.attrKeys) {
			tags = append(tags, tr.tag)
		}
	}
	if len(tags) == 0 {
		tags = append(tags, "no specific dietary labels, kitchen is usually happy to tailor")
	}
	return tags
}

func matchesCategory(cats []domain.Category, keyword string) bool {
	for _, c := range cats {
		if strings.Contains(strings.ToLower(c.Title), keyword) {
			return true
		}
	}
	return false
}

func truthyAttr(attrs map[string]any, keys []string) bool {
	for _, k := range keys {
		switch v := attrs[k].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(v, "true") || strings.EqualFold(v, "yes") {
				return true
			}
		}
	}
	return false
}

// insightBestTime picks a suggestion by priority: a weekend slot first, then
// an evening slot, then the earliest slot, then a rating-conditioned generic.
func insightBestTime(r domain.Restaurant) string {
	if len(r.Hours) == 0 {
		if r.Rating != nil && *r.Rating >= 4.5 {
			return "Popular all day; going early or booking ahead is a safe bet."
		}
		return "Hours are not listed; weekday lunchtime is usually a quiet window."
	}

	for _, h := range r.Hours {
		if h.Day == 5 || h.Day == 6 {
			return "Weekends are lively here; an afternoon visit beats the dinner rush."
		}
	}
	for _, h := range r.Hours {
		if h.Start >= "1700" {
			return fmt.Sprintf("Evenings from %s are when this place comes alive.", clockLabel(h.Start))
		}
	}

	earliest := r.Hours[0]
	for _, h := range r.Hours[1:] {
		if h.Start < earliest.Start {
			earliest = h
		}
	}
	return fmt.Sprintf("Arriving near opening at %s means the shortest wait.", clockLabel(earliest.Start))
}

// clockLabel renders an "HHMM" slot boundary as "H:MM AM/PM"; malformed input
// is returned as-is.
func clockLabel(hhmm string) string {
	if len(hhmm) != 4 {
		return hhmm
	}
	h := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	if h < 0 || h > 23 {
		return hhmm
	}
	suffix := "AM"
	display := h
	switch {
	case h == 0:
		display = 12
	case h == 12:
		suffix = "PM"
	case h > 12:
		display = h - 12
		suffix = "PM"
	}
	return fmt.Sprintf("%d:%s %s", display, hhmm[2:], suffix)
}

var dishTable = []struct {
	keyword string
	dishes  []string
}{
	{"italian", []string{"Margherita pizza", "Handmade tagliatelle", "Tiramisu"}},
	{"japanese", []string{"Chef's sashimi selection", "Tonkotsu ramen", "Matcha ice cream"}},
	{"sushi", []string{"Chef's sashimi selection", "Spicy tuna roll", "Miso soup"}},
	{"mexican", []string{"Tacos al pastor", "Guacamole with fresh totopos", "Churros"}},
	{"chinese", []string{"Mapo tofu", "Xiao long bao", "Peking duck"}},
	{"indian", []string{"Butter chicken", "Garlic naan", "Gulab jamun"}},
	{"thai", []string{"Pad thai", "Green curry", "Mango sticky rice"}},
	{"french", []string{"Duck confit", "Onion soup gratinee", "Creme brulee"}},
	{"american", []string{"Smash burger", "Buttermilk fried chicken", "Apple pie"}},
	{"pizza", []string{"Margherita pizza", "Pepperoni pizza", "Garlic knots"}},
	{"seafood", []string{"Grilled catch of the day", "Clam chowder", "Oysters on the half shell"}},
	{"vietnamese", []string{"Pho bo", "Banh mi", "Fresh spring rolls"}},
	{"korean", []string{"Bibimbap", "Korean fried chicken", "Kimchi jjigae"}},
	{"mediterranean", []string{"Mezze platter", "Grilled lamb skewers", "Baklava"}},
}

func insightDishes(r domain.Restaurant) []string {
	haystack := strings.ToLower(r.Cuisine)
	for _, c := range r.Categories {
		haystack += " " + strings.ToLower(c.Title)
	}

	dishes := []string{}
	for _, entry := range dishTable {
		if !strings.Contains(haystack, entry.keyword) {
			continue
		}
		for _, d := range entry.dishes {
			if len(dishes) == 3 {
				return dishes
			}
			if !containsString(dishes, d) {
				dishes = append(dishes, d)
			}
		}
	}
	if len(dishes) == 0 {
		dishes = append(dishes, "Chef's special of the day", "Ask the team for their current favorite")
	}
	return dishes
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// firstSentence returns the text up to and including the first terminal
// punctuation mark, trimmed.
func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	for i, r := range s {
		if r == '.' || r == '!' || r == '?' {
			return strings.TrimSpace(s[:i+1])
		}
	}
	return s
}
