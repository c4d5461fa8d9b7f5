package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"dinefinder/internal/domain"
)

// AIService wraps a chat-completion client with deterministic fallbacks.
// Every operation degrades to a heuristic when the client is disabled, the
// call fails, or the model returns something that does not parse, so callers
// always get a well-formed result.
type AIService struct {
	chat domain.ChatClient
}

func NewAIService(chat domain.ChatClient) *AIService {
	return &AIService{chat: chat}
}

type SuggestionContext struct {
	Occasion  string `json:"occasion,omitempty"`
	TimeOfDay string `json:"timeOfDay,omitempty"`
	Weather   string `json:"weather,omitempty"`
	GroupSize int    `json:"groupSize,omitempty"`
	Budget    string `json:"budget,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Recommendations scores restaurants against user preferences, with recent
// search history as optional context. The model response, when available, is
// matched back to the input set by restaurant id; unknown ids are dropped.
func (s *AIService) Recommendations(ctx context.Context, restaurants []domain.Restaurant, prefs domain.UserPreferences, history []domain.SearchRecord) []domain.Recommendation {
	if !s.chat.Enabled() {
		return basicRecommendations(restaurants, prefs)
	}

	limited := restaurants
	if len(limited) > 10 {
		limited = limited[:10]
	}
	if len(history) > 5 {
		history = history[:5]
	}
	historySection := ""
	if len(history) > 0 {
		hJSON, _ := json.Marshal(history)
		historySection = fmt.Sprintf("\n\nRecent Searches: %s", hJSON)
	}
	rJSON, _ := json.Marshal(limited)
	pJSON, _ := json.Marshal(prefs)
	user := fmt.Sprintf(
		"Analyze these restaurants and user preferences to generate personalized recommendations:\n\nRestaurants: %s\n\nUser Preferences: %s%s\n\nReturn a JSON array with objects containing:\n- restaurantId: number\n- matchScore: number (0-1)\n- reasons: string[]\n- tags: string[]",
		rJSON, pJSON, historySection)
	system := "You are a restaurant recommendation expert. Analyze the given restaurants and user preferences to provide personalized recommendations. Return a JSON array of recommendations with matchScore (0-1), reasons, and tags."

	raw, err := s.chat.Complete(ctx, system, user, 0.7, 2000)
	if err != nil {
		log.Warn().Err(err).Msg("ai recommendations failed, using heuristic")
		return basicRecommendations(restaurants, prefs)
	}

	var aiRecs []struct {
		RestaurantID int64    `json:"restaurantId"`
		MatchScore   float64  `json:"matchScore"`
		Reasons      []string `json:"reasons"`
		Tags         []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &aiRecs); err != nil {
		log.Warn().Err(err).Msg("ai recommendations unparseable, using heuristic")
		return basicRecommendations(restaurants, prefs)
	}

	byID := make(map[int64]domain.Restaurant, len(restaurants))
	for _, r := range restaurants {
		byID[r.ID] = r
	}
	out := make([]domain.Recommendation, 0, len(aiRecs))
	for _, rec := range aiRecs {
		r, ok := byID[rec.RestaurantID]
		if !ok {
			continue
		}
		reasons := rec.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		tags := rec.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, domain.Recommendation{Restaurant: r, MatchScore: rec.MatchScore, Reasons: reasons, Tags: tags})
	}
	if len(out) == 0 {
		return basicRecommendations(restaurants, prefs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}

// AnalyzeSentiment returns one sentiment per review, in input order.
func (s *AIService) AnalyzeSentiment(ctx context.Context, reviews []domain.BusinessReview) []domain.Sentiment {
	if !s.chat.Enabled() {
		return basicSentiment(reviews)
	}

	texts := make([]string, 0, 10)
	for i, r := range reviews {
		if i == 10 {
			break
		}
		texts = append(texts, fmt.Sprintf("%d. %s", i+1, r.Text))
	}
	system := "Analyze the sentiment of restaurant reviews. Return a JSON array with score (-1 to 1), label (positive/neutral/negative), confidence (0-1), and keywords for each review."
	user := "Analyze these restaurant reviews:\n\n" + strings.Join(texts, "\n\n")

	raw, err := s.chat.Complete(ctx, system, user, 0.3, 1500)
	if err != nil {
		log.Warn().Err(err).Msg("ai sentiment failed, using heuristic")
		return basicSentiment(reviews)
	}
	var out []domain.Sentiment
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil || len(out) == 0 {
		return basicSentiment(reviews)
	}
	return out
}

// SummarizeReviews condenses a review set to one summary.
func (s *AIService) SummarizeReviews(ctx context.Context, reviews []domain.BusinessReview) domain.ReviewSummary {
	if !s.chat.Enabled() {
		return basicSummary(reviews)
	}

	texts := make([]string, 0, 15)
	for i, r := range reviews {
		if i == 15 {
			break
		}
		texts = append(texts, fmt.Sprintf("%.0f/5: %s", r.Rating, r.Text))
	}
	system := "Summarize restaurant reviews. Provide overall sentiment, common praises, common complaints, top mentions with sentiment, and recommendation status. Return as JSON."
	user := "Summarize these restaurant reviews:\n\n" + strings.Join(texts, "\n\n")

	raw, err := s.chat.Complete(ctx, system, user, 0.5, 1000)
	if err != nil {
		log.Warn().Err(err).Msg("ai summary failed, using heuristic")
		return basicSummary(reviews)
	}
	var out domain.ReviewSummary
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil || out.RecommendationStatus == "" {
		return basicSummary(reviews)
	}
	return out
}

// AnalyzeDietary checks menu items against dietary restrictions. An empty
// menu always takes the heuristic path; there is nothing for a model to read.
func (s *AIService) AnalyzeDietary(ctx context.Context, items []domain.MenuItem, restrictions []string) domain.DietaryAnalysis {
	if !s.chat.Enabled() || len(items) == 0 {
		return basicDietary(items, restrictions)
	}

	lines := make([]string, 0, len(items))
	for _, it := range items {
		price := "N/A"
		if it.Price != nil {
			price = fmt.Sprintf("%.2f", *it.Price)
		}
		lines = append(lines, fmt.Sprintf("%s: %s - $%s", it.Name, it.Description, price))
	}
	system := "Analyze menu items for dietary restrictions compatibility. Return JSON with compatibility score (0-1), safe items, risky items, alternatives, and warnings."
	user := fmt.Sprintf("Analyze this menu for dietary restrictions: %s\n\nMenu:\n%s",
		strings.Join(restrictions, ", "), strings.Join(lines, "\n"))

	raw, err := s.chat.Complete(ctx, system, user, 0.3, 1000)
	if err != nil {
		log.Warn().Err(err).Msg("ai dietary analysis failed, using heuristic")
		return basicDietary(items, restrictions)
	}
	var out domain.DietaryAnalysis
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return basicDietary(items, restrictions)
	}
	return out
}

// DiningSuggestions produces short, actionable tips for a dining context.
func (s *AIService) DiningSuggestions(ctx context.Context, sc SuggestionContext) []string {
	if !s.chat.Enabled() {
		return basicSuggestions(sc)
	}

	cJSON, _ := json.Marshal(sc)
	system := "Generate personalized dining suggestions based on context. Return a JSON array of specific, actionable suggestions."
	user := "Generate dining suggestions for: " + string(cJSON)

	raw, err := s.chat.Complete(ctx, system, user, 0.8, 500)
	if err != nil {
		log.Warn().Err(err).Msg("ai suggestions failed, using heuristic")
		return basicSuggestions(sc)
	}
	var out []string
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil || len(out) == 0 {
		return basicSuggestions(sc)
	}
	return out
}

// ---- deterministic fallbacks ----

func basicRecommendations(restaurants []domain.Restaurant, prefs domain.UserPreferences) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, domain.Recommendation{
			Restaurant: r,
			MatchScore: basicMatchScore(r, prefs),
			Reasons:    basicReasons(r, prefs),
			Tags:       basicTags(r),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MatchScore > out[j].MatchScore })
	return out
}

func basicMatchScore(r domain.Restaurant, prefs domain.UserPreferences) float64 {
	score := 0.5

	if r.Rating != nil {
		score += (*r.Rating - 3) * 0.1
	}
	if r.ReviewCount > 50 {
		score += 0.1
	}
	if len(prefs.PriceRange) > 0 && r.PriceLevel != nil {
		for _, p := range prefs.PriceRange {
			if p == *r.PriceLevel {
				score += 0.2
				break
			}
		}
	}
	if len(prefs.CuisineTypes) > 0 && cuisineMatch(r.Categories, prefs.CuisineTypes) != "" {
		score += 0.2
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func basicReasons(r domain.Restaurant, prefs domain.UserPreferences) []string {
	var reasons []string

	if r.Rating != nil && *r.Rating >= 4.5 {
		reasons = append(reasons, "Highly rated restaurant")
	}
	if r.ReviewCount > 100 {
		reasons = append(reasons, "Popular choice with many reviews")
	}
	if match := cuisineMatch(r.Categories, prefs.CuisineTypes); match != "" {
		reasons = append(reasons, fmt.Sprintf("Matches your %s preference", match))
	}

	if len(reasons) == 0 {
		return []string{"Good overall rating and reviews"}
	}
	return reasons
}

// cuisineMatch returns the title of the first category containing any of the
// preferred cuisine strings, case-insensitively.
func cuisineMatch(cats []domain.Category, prefs []string) string {
	for _, cat := range cats {
		title := strings.ToLower(cat.Title)
		for _, p := range prefs {
			if p != "" && strings.Contains(title, strings.ToLower(p)) {
				return cat.Title
			}
		}
	}
	return ""
}

func basicTags(r domain.Restaurant) []string {
	tags := []string{}

	if r.Rating != nil && *r.Rating >= 4.5 {
		tags = append(tags, "highly-rated")
	}
	if r.ReviewCount > 100 {
		tags = append(tags, "popular")
	}
	if r.PriceLevel != nil {
		switch *r.PriceLevel {
		case 1:
			tags = append(tags, "budget-friendly")
		case 4:
			tags = append(tags, "upscale")
		}
	}
	for _, cat := range r.Categories {
		tags = append(tags, cat.Alias)
	}
	return tags
}

func basicSentiment(reviews []domain.BusinessReview) []domain.Sentiment {
	out := make([]domain.Sentiment, 0, len(reviews))
	for _, rv := range reviews {
		out = append(out, domain.Sentiment{
			Score:      (rv.Rating - 3) / 2,
			Label:      sentimentLabel(rv.Rating),
			Confidence: 0.7,
			Keywords:   extractKeywords(rv.Text),
		})
	}
	return out
}

func sentimentLabel(rating float64) string {
	switch {
	case rating >= 4:
		return "positive"
	case rating >= 3:
		return "neutral"
	default:
		return "negative"
	}
}

func basicSummary(reviews []domain.BusinessReview) domain.ReviewSummary {
	if len(reviews) == 0 {
		return domain.ReviewSummary{
			OverallSentiment:     domain.Sentiment{Label: "neutral", Confidence: 0.7, Keywords: []string{}},
			CommonPraises:        []string{},
			CommonComplaints:     []string{},
			TopMentions:          []domain.TopicMention{},
			RecommendationStatus: "mixed",
		}
	}

	var sum float64
	for _, rv := range reviews {
		sum += rv.Rating
	}
	avg := sum / float64(len(reviews))

	status := "not_recommended"
	switch {
	case avg >= 4.5:
		status = "highly_recommended"
	case avg >= 4:
		status = "recommended"
	case avg >= 3:
		status = "mixed"
	}

	return domain.ReviewSummary{
		OverallSentiment: domain.Sentiment{
			Score:      (avg - 3) / 2,
			Label:      sentimentLabel(avg),
			Confidence: 0.7,
			Keywords:   []string{},
		},
		CommonPraises:    []string{"Good food", "Nice atmosphere"},
		CommonComplaints: []string{"Long wait times"},
		TopMentions: []domain.TopicMention{
			{Topic: "food", Sentiment: "positive", Count: len(reviews)},
		},
		RecommendationStatus: status,
	}
}

func basicDietary(items []domain.MenuItem, restrictions []string) domain.DietaryAnalysis {
	safe := []string{}
	for i, it := range items {
		if i == 3 {
			break
		}
		safe = append(safe, it.Name)
	}
	warnings := []string{}
	if len(restrictions) > 0 {
		warnings = append(warnings, "Please verify ingredients with restaurant")
	}
	return domain.DietaryAnalysis{
		Compatibility: 0.5,
		SafeItems:     safe,
		RiskyItems:    []string{},
		Alternatives:  []string{"Ask server for modifications"},
		Warnings:      warnings,
	}
}

func basicSuggestions(sc SuggestionContext) []string {
	suggestions := []string{
		"Try a local favorite restaurant",
		"Consider checking the restaurant hours before visiting",
		"Read recent reviews for current experience quality",
	}
	if sc.Occasion == "date" {
		suggestions = append(suggestions, "Look for restaurants with romantic ambiance")
	}
	return suggestions
}

var sentimentKeywords = []string{
	"great", "excellent", "amazing", "delicious", "perfect",
	"terrible", "awful", "bad", "horrible", "disappointing",
}

func extractKeywords(text string) []string {
	words := map[string]struct{}{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		words[strings.Trim(w, ".,!?;:")] = struct{}{}
	}
	found := []string{}
	for _, kw := range sentimentKeywords {
		if _, ok := words[kw]; ok {
			found = append(found, kw)
		}
	}
	return found
}

// extractJSON strips markdown code fences models like to wrap JSON in.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	return s
}
