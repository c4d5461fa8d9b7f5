package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"dinefinder/internal/app"
	"dinefinder/internal/domain"
)

// fakeChat returns a canned reply, or behaves as disabled/failing.
type fakeChat struct {
	enabled bool
	reply   string
	err     error
}

func (f *fakeChat) Enabled() bool { return f.enabled }

func (f *fakeChat) Complete(context.Context, string, string, float64, int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func disabledAI() *app.AIService { return app.NewAIService(&fakeChat{enabled: false}) }

// recordingChat keeps the last user prompt for inspection.
type recordingChat struct {
	reply    string
	lastUser string
}

func (r *recordingChat) Enabled() bool { return true }

func (r *recordingChat) Complete(_ context.Context, _, user string, _ float64, _ int) (string, error) {
	r.lastUser = user
	return r.reply, nil
}

func TestAI_SentimentFallback_RatingArithmetic(t *testing.T) {
	cases := []struct {
		rating float64
		score  float64
		label  string
	}{
		{1, -1, "negative"},
		{2, -0.5, "negative"},
		{3, 0, "neutral"},
		{4, 0.5, "positive"},
		{5, 1, "positive"},
	}

	for _, tc := range cases {
		got := disabledAI().AnalyzeSentiment(context.Background(), []domain.BusinessReview{{Rating: tc.rating, Text: "ok"}})
		if len(got) != 1 {
			t.Fatalf("rating %.0f: expected one sentiment, got %d", tc.rating, len(got))
		}
		s := got[0]
		if s.Score != tc.score || s.Label != tc.label || s.Confidence != 0.7 {
			t.Errorf("rating %.0f: got score=%.2f label=%s conf=%.2f, want score=%.2f label=%s conf=0.7",
				tc.rating, s.Score, s.Label, s.Confidence, tc.score, tc.label)
		}
	}
}

func TestAI_SentimentFallback_KeywordScan(t *testing.T) {
	got := disabledAI().AnalyzeSentiment(context.Background(), []domain.BusinessReview{
		{Rating: 5, Text: "The food was great and the service excellent, not terrible at all."},
	})
	kw := got[0].Keywords
	if len(kw) != 3 {
		t.Fatalf("expected 3 keywords, got %v", kw)
	}
	want := map[string]bool{"great": true, "excellent": true, "terrible": true}
	for _, k := range kw {
		if !want[k] {
			t.Errorf("unexpected keyword %q", k)
		}
	}
}

func TestAI_RecommendationFallback_Scoring(t *testing.T) {
	price := 2
	r := domain.Restaurant{
		ID:          1,
		Rating:      pf(4.5),
		ReviewCount: 200,
		PriceLevel:  &price,
		Categories:  []domain.Category{{Alias: "italian", Title: "Italian"}},
	}
	prefs := domain.UserPreferences{
		CuisineTypes: []string{"italian"},
		PriceRange:   []int{2},
	}

	out := disabledAI().Recommendations(context.Background(), []domain.Restaurant{r}, prefs, nil)
	if len(out) != 1 {
		t.Fatalf("expected one recommendation, got %d", len(out))
	}
	rec := out[0]
	// 0.5 + (4.5-3)*0.1 + 0.1 + 0.2 + 0.2 = 1.15 → clamped to 1.
	if rec.MatchScore != 1 {
		t.Fatalf("expected clamped score 1, got %.3f", rec.MatchScore)
	}
	wantReasons := []string{
		"Highly rated restaurant",
		"Popular choice with many reviews",
		"Matches your Italian preference",
	}
	if len(rec.Reasons) != len(wantReasons) {
		t.Fatalf("unexpected reasons: %v", rec.Reasons)
	}
	for i, w := range wantReasons {
		if rec.Reasons[i] != w {
			t.Errorf("reason[%d] = %q, want %q", i, rec.Reasons[i], w)
		}
	}
	wantTags := map[string]bool{"highly-rated": true, "popular": true, "italian": true}
	for _, tag := range rec.Tags {
		if !wantTags[tag] {
			t.Errorf("unexpected tag %q", tag)
		}
	}
}

func TestAI_RecommendationFallback_DefaultReasonAndSort(t *testing.T) {
	plain := domain.Restaurant{ID: 1, Rating: pf(3.5), ReviewCount: 10}
	strong := domain.Restaurant{ID: 2, Rating: pf(5), ReviewCount: 300}

	out := disabledAI().Recommendations(context.Background(),
		[]domain.Restaurant{plain, strong}, domain.UserPreferences{}, nil)
	if len(out) != 2 {
		t.Fatalf("expected two recommendations, got %d", len(out))
	}
	if out[0].Restaurant.ID != 2 {
		t.Fatalf("expected descending score order, got first id %d", out[0].Restaurant.ID)
	}
	if len(out[1].Reasons) != 1 || out[1].Reasons[0] != "Good overall rating and reviews" {
		t.Fatalf("expected default reason, got %v", out[1].Reasons)
	}
}

func TestAI_SummaryFallback_StatusThresholds(t *testing.T) {
	cases := []struct {
		ratings []float64
		status  string
		label   string
	}{
		{[]float64{5, 5, 4.5}, "highly_recommended", "positive"},
		{[]float64{4, 4}, "recommended", "positive"},
		{[]float64{3, 3.5}, "mixed", "neutral"},
		{[]float64{2, 1}, "not_recommended", "negative"},
	}

	for _, tc := range cases {
		reviews := make([]domain.BusinessReview, 0, len(tc.ratings))
		for _, r := range tc.ratings {
			reviews = append(reviews, domain.BusinessReview{Rating: r, Text: "x"})
		}
		got := disabledAI().SummarizeReviews(context.Background(), reviews)
		if got.RecommendationStatus != tc.status {
			t.Errorf("ratings %v: status %q, want %q", tc.ratings, got.RecommendationStatus, tc.status)
		}
		if got.OverallSentiment.Label != tc.label {
			t.Errorf("ratings %v: label %q, want %q", tc.ratings, got.OverallSentiment.Label, tc.label)
		}
	}
}

func TestAI_SummaryFallback_EmptyReviews(t *testing.T) {
	got := disabledAI().SummarizeReviews(context.Background(), nil)
	if got.RecommendationStatus != "mixed" || got.OverallSentiment.Label != "neutral" {
		t.Fatalf("empty review set must not divide by zero: %+v", got)
	}
}

func TestAI_DietaryFallback(t *testing.T) {
	items := []domain.MenuItem{
		{Name: "Salad"}, {Name: "Pasta"}, {Name: "Steak"}, {Name: "Cake"},
	}
	got := disabledAI().AnalyzeDietary(context.Background(), items, []string{"vegan"})
	if got.Compatibility != 0.5 {
		t.Fatalf("expected compatibility 0.5, got %.2f", got.Compatibility)
	}
	if len(got.SafeItems) != 3 || got.SafeItems[0] != "Salad" {
		t.Fatalf("expected first three item names safe, got %v", got.SafeItems)
	}
	if len(got.Warnings) != 1 {
		t.Fatalf("expected warning with restrictions present, got %v", got.Warnings)
	}

	noRestrictions := disabledAI().AnalyzeDietary(context.Background(), items, nil)
	if len(noRestrictions.Warnings) != 0 {
		t.Fatalf("expected no warnings without restrictions, got %v", noRestrictions.Warnings)
	}
}

func TestAI_SuggestionsFallback_DateOccasion(t *testing.T) {
	base := disabledAI().DiningSuggestions(context.Background(), app.SuggestionContext{})
	if len(base) != 3 {
		t.Fatalf("expected 3 base suggestions, got %d", len(base))
	}
	date := disabledAI().DiningSuggestions(context.Background(), app.SuggestionContext{Occasion: "date"})
	if len(date) != 4 || date[3] != "Look for restaurants with romantic ambiance" {
		t.Fatalf("expected romantic line for date occasion, got %v", date)
	}
}

func TestAI_MalformedModelReplyFallsBack(t *testing.T) {
	svc := app.NewAIService(&fakeChat{enabled: true, reply: "this is not json"})
	got := svc.AnalyzeSentiment(context.Background(), []domain.BusinessReview{{Rating: 5, Text: "x"}})
	if len(got) != 1 || got[0].Score != 1 {
		t.Fatalf("malformed reply must fall back to heuristic: %+v", got)
	}
}

func TestAI_CallFailureFallsBack(t *testing.T) {
	svc := app.NewAIService(&fakeChat{enabled: true, err: errors.New("upstream 500")})
	got := svc.SummarizeReviews(context.Background(), []domain.BusinessReview{{Rating: 4, Text: "x"}})
	if got.RecommendationStatus != "recommended" {
		t.Fatalf("call failure must fall back to heuristic: %+v", got)
	}
}

func TestAI_ModelReplyWithCodeFenceIsParsed(t *testing.T) {
	reply := "```json\n[{\"restaurantId\": 7, \"matchScore\": 0.9, \"reasons\": [\"Great match\"], \"tags\": [\"cozy\"]}]\n```"
	svc := app.NewAIService(&fakeChat{enabled: true, reply: reply})

	out := svc.Recommendations(context.Background(),
		[]domain.Restaurant{{ID: 7, Name: "Seven"}}, domain.UserPreferences{}, nil)
	if len(out) != 1 || out[0].MatchScore != 0.9 || out[0].Restaurant.Name != "Seven" {
		t.Fatalf("fenced JSON reply not parsed: %+v", out)
	}
}

func TestAI_RecommendationsIncludeSearchHistoryInPrompt(t *testing.T) {
	chat := &recordingChat{reply: `[{"restaurantId": 1, "matchScore": 0.8, "reasons": [], "tags": []}]`}
	svc := app.NewAIService(chat)

	history := []domain.SearchRecord{
		{Query: "ramen", Location: "Brooklyn"},
		{Query: "tacos", Location: "Queens"},
	}
	out := svc.Recommendations(context.Background(),
		[]domain.Restaurant{{ID: 1, Name: "One"}}, domain.UserPreferences{}, history)
	if len(out) != 1 {
		t.Fatalf("expected one recommendation, got %d", len(out))
	}
	if !strings.Contains(chat.lastUser, "Recent Searches") {
		t.Fatalf("prompt missing search history section: %q", chat.lastUser)
	}
	if !strings.Contains(chat.lastUser, "ramen") || !strings.Contains(chat.lastUser, "tacos") {
		t.Fatalf("prompt missing recorded queries: %q", chat.lastUser)
	}

	// Without history the section stays out entirely.
	chat.lastUser = ""
	_ = svc.Recommendations(context.Background(),
		[]domain.Restaurant{{ID: 1, Name: "One"}}, domain.UserPreferences{}, nil)
	if strings.Contains(chat.lastUser, "Recent Searches") {
		t.Fatalf("empty history must not add a section: %q", chat.lastUser)
	}
}
