package domain

// Result shapes for the AI layer. Every one of these has a deterministic
// fallback rendering, so the shapes are identical whether a model or the
// heuristic produced them.

type UserPreferences struct {
	CuisineTypes        []string `json:"cuisineTypes,omitempty"`
	PriceRange          []int    `json:"priceRange,omitempty"`
	DietaryRestrictions []string `json:"dietaryRestrictions,omitempty"`
	Ambiance            []string `json:"ambiance,omitempty"`
	PreviousLikes       []string `json:"previousLikes,omitempty"`
	PreviousDislikes    []string `json:"previousDislikes,omitempty"`
}

type Recommendation struct {
	Restaurant Restaurant `json:"restaurant"`
	MatchScore float64    `json:"matchScore"`
	Reasons    []string   `json:"reasons"`
	Tags       []string   `json:"tags"`
}

type Sentiment struct {
	Score      float64  `json:"score"` // -1..1
	Label      string   `json:"label"` // positive|neutral|negative
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
}

type ReviewSummary struct {
	OverallSentiment Sentiment      `json:"overallSentiment"`
	CommonPraises    []string       `json:"commonPraises"`
	CommonComplaints []string       `json:"commonComplaints"`
	TopMentions      []TopicMention `json:"topMentions"`
	// highly_recommended|recommended|mixed|not_recommended
	RecommendationStatus string `json:"recommendationStatus"`
}

type TopicMention struct {
	Topic     string `json:"topic"`
	Sentiment string `json:"sentiment"`
	Count     int    `json:"count"`
}

type DietaryAnalysis struct {
	Compatibility float64  `json:"compatibility"` // 0..1
	SafeItems     []string `json:"safeItems"`
	RiskyItems    []string `json:"riskyItems"`
	Alternatives  []string `json:"alternatives"`
	Warnings      []string `json:"warnings"`
}

type MenuItem struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
}

// Insights is the purely heuristic per-restaurant synthesis; no external call
// is involved in producing it.
type Insights struct {
	ReviewSummary   string   `json:"reviewSummary"`
	DietaryTags     []string `json:"dietaryTags"`
	BestTimeToVisit string   `json:"bestTimeToVisit"`
	SuggestedDishes []string `json:"suggestedDishes"`
}
