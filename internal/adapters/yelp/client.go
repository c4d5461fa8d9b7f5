package yelp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dinefinder/internal/adapters/observability"
	"dinefinder/internal/domain"
)

// Client is the commercial search strategy. A missing API key does not fail
// construction; every call then fails fast with domain.ErrUnavailable.
type Client struct {
	base string
	key  string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, key string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		key:  key,
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// ---- wire shapes ----

type wireCategory struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

type wireBusiness struct {
	ID          string         `json:"id"`
	Alias       string         `json:"alias"`
	Name        string         `json:"name"`
	ImageURL    string         `json:"image_url"`
	IsClosed    bool           `json:"is_closed"`
	URL         string         `json:"url"`
	ReviewCount int            `json:"review_count"`
	Categories  []wireCategory `json:"categories"`
	Rating      *float64       `json:"rating"`
	Coordinates struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	} `json:"coordinates"`
	Transactions []string `json:"transactions"`
	Price        string   `json:"price"`
	Location     struct {
		Address1       string   `json:"address1"`
		Address2       string   `json:"address2"`
		Address3       string   `json:"address3"`
		City           string   `json:"city"`
		ZipCode        string   `json:"zip_code"`
		Country        string   `json:"country"`
		State          string   `json:"state"`
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
	Phone        string   `json:"phone"`
	DisplayPhone string   `json:"display_phone"`
	Distance     *float64 `json:"distance"`
}

type wireSearchResponse struct {
	Businesses []wireBusiness `json:"businesses"`
	Total      int            `json:"total"`
	Region     struct {
		Center struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"center"`
	} `json:"region"`
}

type wireDetails struct {
	wireBusiness
	Photos []string `json:"photos"`
	Hours  []struct {
		Open []struct {
			IsOvernight bool   `json:"is_overnight"`
			Start       string `json:"start"`
			End         string `json:"end"`
			Day         int    `json:"day"`
		} `json:"open"`
		HoursType string `json:"hours_type"`
		IsOpenNow bool   `json:"is_open_now"`
	} `json:"hours"`
	Attributes map[string]any `json:"attributes"`
}

type wireReviewsResponse struct {
	Reviews []struct {
		ID     string  `json:"id"`
		Rating float64 `json:"rating"`
		User   struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			ImageURL string `json:"image_url"`
		} `json:"user"`
		Text        string `json:"text"`
		TimeCreated string `json:"time_created"`
		URL         string `json:"url"`
	} `json:"reviews"`
	Total             int      `json:"total"`
	PossibleLanguages []string `json:"possible_languages"`
}

// ---- SearchProvider ----

func (c *Client) Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error) {
	if c.key == "" {
		return domain.SearchResult{}, fmt.Errorf("yelp API key not configured: %w", domain.ErrUnavailable)
	}

	q := url.Values{}
	if p.Term != "" {
		q.Set("term", p.Term)
	}
	if p.Location != "" {
		q.Set("location", p.Location)
	}
	if p.Lat != nil {
		q.Set("latitude", strconv.FormatFloat(*p.Lat, 'f', -1, 64))
	}
	if p.Lon != nil {
		q.Set("longitude", strconv.FormatFloat(*p.Lon, 'f', -1, 64))
	}
	if p.RadiusM > 0 {
		q.Set("radius", strconv.Itoa(min(p.RadiusM, domain.MaxRadiusM)))
	}
	if p.Categories != "" {
		q.Add("categories", p.Categories)
	}
	if p.Price != "" {
		q.Set("price", p.Price)
	}
	if p.OpenNow {
		q.Set("open_now", "true")
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(min(p.Limit, domain.MaxLimit)))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	// Always constrain to restaurants/food.
	q.Add("categories", "restaurants,food")

	var out wireSearchResponse
	if err := c.get(ctx, "search", c.base+"/businesses/search?"+q.Encode(), &out); err != nil {
		return domain.SearchResult{}, err
	}

	res := domain.SearchResult{
		Businesses: make([]domain.Business, 0, len(out.Businesses)),
		Total:      out.Total,
		Center: domain.Coords{
			Lat: out.Region.Center.Latitude,
			Lon: out.Region.Center.Longitude,
		},
	}
	for _, b := range out.Businesses {
		res.Businesses = append(res.Businesses, b.toDomain())
	}
	return res, nil
}

func (c *Client) GetDetails(ctx context.Context, externalID string) (domain.BusinessDetails, error) {
	if c.key == "" {
		return domain.BusinessDetails{}, fmt.Errorf("yelp API key not configured: %w", domain.ErrUnavailable)
	}
	var out wireDetails
	if err := c.get(ctx, "details", c.base+"/businesses/"+url.PathEscape(externalID), &out); err != nil {
		return domain.BusinessDetails{}, err
	}

	d := domain.BusinessDetails{
		Business:   out.wireBusiness.toDomain(),
		Photos:     out.Photos,
		Attributes: out.Attributes,
	}
	for _, h := range out.Hours {
		blk := domain.HoursBlock{HoursType: h.HoursType, OpenNow: h.IsOpenNow}
		for _, o := range h.Open {
			blk.Open = append(blk.Open, domain.HoursSpan{
				Day: o.Day, Start: o.Start, End: o.End, Overnight: o.IsOvernight,
			})
		}
		d.Hours = append(d.Hours, blk)
	}
	return d, nil
}

func (c *Client) GetReviews(ctx context.Context, externalID, locale string) (domain.ReviewsResult, error) {
	if c.key == "" {
		return domain.ReviewsResult{}, fmt.Errorf("yelp API key not configured: %w", domain.ErrUnavailable)
	}
	if locale == "" {
		locale = "en_US"
	}
	u := fmt.Sprintf("%s/businesses/%s/reviews?locale=%s&sort_by=newest",
		c.base, url.PathEscape(externalID), url.QueryEscape(locale))

	var out wireReviewsResponse
	if err := c.get(ctx, "reviews", u, &out); err != nil {
		return domain.ReviewsResult{}, err
	}
	res := domain.ReviewsResult{
		Reviews:   make([]domain.BusinessReview, 0, len(out.Reviews)),
		Total:     out.Total,
		Languages: out.PossibleLanguages,
	}
	for _, r := range out.Reviews {
		res.Reviews = append(res.Reviews, domain.BusinessReview{
			ID:           r.ID,
			Rating:       r.Rating,
			UserName:     r.User.Name,
			UserImageURL: r.User.ImageURL,
			Text:         r.Text,
			TimeCreated:  r.TimeCreated,
			URL:          r.URL,
		})
	}
	return res, nil
}

func (c *Client) ValidateConnection(ctx context.Context) bool {
	_, err := c.Search(ctx, domain.SearchParams{
		Term:     "restaurant",
		Location: "San Francisco",
		Limit:    1,
	})
	return err == nil
}

// ---- internals ----

func (b wireBusiness) toDomain() domain.Business {
	cats := make([]domain.Category, 0, len(b.Categories))
	for _, c := range b.Categories {
		cats = append(cats, domain.Category{Alias: c.Alias, Title: c.Title})
	}
	return domain.Business{
		ID:           b.ID,
		Alias:        b.Alias,
		Name:         b.Name,
		ImageURL:     b.ImageURL,
		Closed:       b.IsClosed,
		URL:          b.URL,
		ReviewCount:  b.ReviewCount,
		Categories:   cats,
		Rating:       b.Rating,
		Lat:          b.Coordinates.Latitude,
		Lon:          b.Coordinates.Longitude,
		Transactions: b.Transactions,
		Price:        b.Price,
		Location: domain.BusinessLocation{
			Address1:       b.Location.Address1,
			Address2:       b.Location.Address2,
			Address3:       b.Location.Address3,
			City:           b.Location.City,
			ZipCode:        b.Location.ZipCode,
			Country:        b.Location.Country,
			State:          b.Location.State,
			DisplayAddress: b.Location.DisplayAddress,
		},
		Phone:        b.Phone,
		DisplayPhone: b.DisplayPhone,
		DistanceM:    b.Distance,
	}
}

// get performs a single rate-limited GET and translates any transport or
// provider failure into the domain error taxonomy; raw network errors never
// escape.
func (c *Client) get(ctx context.Context, endpoint, u string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dinefinder/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("yelp", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("yelp request failed: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("yelp", endpoint, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNotFound:
		return fmt.Errorf("yelp: %w", domain.ErrNotFound)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("yelp status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(b)), domain.ErrUnavailable)
	}
}
