package osm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"dinefinder/internal/adapters/observability"
	"dinefinder/internal/domain"
)

// Client is the open-data search strategy: Nominatim resolves free-text
// locations to coordinates, Overpass answers the geospatial tag query. The
// open dataset carries no ratings or review counts, so results always report
// nil ratings and zero reviews.
type Client struct {
	overpass  string
	nominatim string
	hc        *http.Client
	rl        *rate.Limiter
}

func New(overpassURL, nominatimURL string, rps int) *Client {
	if rps <= 0 {
		rps = 2
	}
	return &Client{
		overpass:  overpassURL,
		nominatim: strings.TrimRight(nominatimURL, "/"),
		hc:        &http.Client{Timeout: 30 * time.Second},
		rl:        rate.NewLimiter(rate.Limit(rps), rps),
	}
}

// lat/lon live at the top level on nodes, under "center" on ways/relations.
type wireElement struct {
	Type   string   `json:"type"`
	ID     int64    `json:"id"`
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type wireOverpassResponse struct {
	Elements []wireElement `json:"elements"`
}

type wireGeocodeHit struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) Search(ctx context.Context, p domain.SearchParams) (domain.SearchResult, error) {
	lat, lon := p.Lat, p.Lon

	if (lat == nil || lon == nil) && p.Location != "" {
		glat, glon, err := c.geocode(ctx, p.Location)
		if err != nil {
			return domain.SearchResult{}, err
		}
		lat, lon = glat, glon
	}
	if lat == nil || lon == nil {
		return domain.SearchResult{}, fmt.Errorf("missing coordinates or resolvable location: %w", domain.ErrBadRequest)
	}

	radius := domain.ClampRadius(p.RadiusM)
	limit := domain.ClampLimit(p.Limit)

	cuisineFilter := ""
	if p.Categories != "" {
		cuisineFilter = fmt.Sprintf(`["cuisine"~"%s",i]`, qlEscape(p.Categories))
	}
	nameFilter := ""
	if p.Term != "" {
		nameFilter = fmt.Sprintf(`["name"~"%s",i]`, qlEscape(p.Term))
	}
	around := fmt.Sprintf("(around:%d,%s,%s)", radius, fmtCoord(*lat), fmtCoord(*lon))

	var ql strings.Builder
	ql.WriteString("[out:json][timeout:25];\n(\n")
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&ql, "  %s[\"amenity\"=\"restaurant\"]%s%s%s;\n", kind, cuisineFilter, nameFilter, around)
	}
	fmt.Fprintf(&ql, ");\nout center tags %d;", limit)

	var out wireOverpassResponse
	if err := c.postQL(ctx, "search", ql.String(), &out); err != nil {
		return domain.SearchResult{}, err
	}

	businesses := make([]domain.Business, 0, len(out.Elements))
	for _, el := range out.Elements {
		businesses = append(businesses, mapElement(el))
	}
	return domain.SearchResult{
		Businesses: businesses,
		Total:      len(businesses),
		Center:     domain.Coords{Lat: *lat, Lon: *lon},
	}, nil
}

func (c *Client) GetDetails(ctx context.Context, externalID string) (domain.BusinessDetails, error) {
	kind, id, err := parseExternalID(externalID)
	if err != nil {
		return domain.BusinessDetails{}, err
	}
	ql := fmt.Sprintf("[out:json][timeout:25];\n%s(%s);\nout center tags;", kind, id)

	var out wireOverpassResponse
	if err := c.postQL(ctx, "details", ql, &out); err != nil {
		return domain.BusinessDetails{}, err
	}
	if len(out.Elements) == 0 {
		return domain.BusinessDetails{}, fmt.Errorf("osm element %s: %w", externalID, domain.ErrNotFound)
	}
	return domain.BusinessDetails{
		Business:   mapElement(out.Elements[0]),
		Photos:     []string{},
		Hours:      []domain.HoursBlock{},
		Attributes: map[string]any{},
	}, nil
}

// GetReviews always returns an empty set; the open dataset has no reviews.
func (c *Client) GetReviews(ctx context.Context, externalID, locale string) (domain.ReviewsResult, error) {
	if locale == "" {
		locale = "en_US"
	}
	return domain.ReviewsResult{
		Reviews:   []domain.BusinessReview{},
		Total:     0,
		Languages: []string{locale},
	}, nil
}

func (c *Client) ValidateConnection(ctx context.Context) bool {
	lat, lon := 37.7749, -122.4194
	_, err := c.Search(ctx, domain.SearchParams{Term: "restaurant", Lat: &lat, Lon: &lon, Limit: 1})
	return err == nil
}

// ---- internals ----

func (c *Client) geocode(ctx context.Context, location string) (*float64, *float64, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return nil, nil, err
	}
	u := fmt.Sprintf("%s/search?format=json&q=%s&limit=1", c.nominatim, url.QueryEscape(location))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("User-Agent", "dinefinder/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("nominatim", "search", 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, fmt.Errorf("geocoding request failed: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("nominatim", "search", resp.StatusCode, time.Since(start))
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("geocoding status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	}

	var hits []wireGeocodeHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, nil, fmt.Errorf("geocoding decode: %w", domain.ErrUnavailable)
	}
	if len(hits) == 0 {
		return nil, nil, fmt.Errorf("location %q could not be resolved: %w", location, domain.ErrBadRequest)
	}
	lat, latErr := strconv.ParseFloat(hits[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(hits[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return nil, nil, fmt.Errorf("location %q could not be resolved: %w", location, domain.ErrBadRequest)
	}
	return &lat, &lon, nil
}

func (c *Client) postQL(ctx context.Context, endpoint, ql string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}
	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.overpass, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "dinefinder/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("overpass", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("overpass request failed: %w", domain.ErrUnavailable)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("overpass", endpoint, resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("overpass status %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(b)), domain.ErrUnavailable)
	}
}

var externalIDRe = regexp.MustCompile(`(?i)osm-(node|way|relation)-(\d+)`)

func parseExternalID(v string) (kind, id string, err error) {
	if m := externalIDRe.FindStringSubmatch(v); m != nil {
		return strings.ToLower(m[1]), m[2], nil
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
	if digits == "" {
		return "", "", fmt.Errorf("malformed osm id %q: %w", v, domain.ErrBadRequest)
	}
	return "node", digits, nil
}

func mapElement(el wireElement) domain.Business {
	tags := el.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	id := fmt.Sprintf("osm-%s-%d", el.Type, el.ID)

	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		lat, lon = &el.Center.Lat, &el.Center.Lon
	}

	var categories []domain.Category
	for _, c := range strings.Split(tags["cuisine"], ";") {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		alias := strings.ToLower(strings.Join(strings.Fields(c), "-"))
		categories = append(categories, domain.Category{Alias: alias, Title: c})
	}
	if len(categories) == 0 {
		categories = []domain.Category{{Alias: "restaurant", Title: "Restaurant"}}
	}

	city := firstTag(tags, "addr:city", "addr:town", "addr:village")
	street := tags["addr:street"]
	if hn := tags["addr:housenumber"]; hn != "" && street != "" {
		street = hn + " " + street
	}
	var addressParts []string
	for _, part := range []string{street, city, tags["addr:state"], tags["addr:postcode"]} {
		if part != "" {
			addressParts = append(addressParts, part)
		}
	}
	address1 := ""
	if len(addressParts) > 0 {
		address1 = addressParts[0]
	}

	name := tags["name"]
	if name == "" {
		name = "Unnamed Restaurant"
	}

	return domain.Business{
		ID:           id,
		Alias:        id,
		Name:         name,
		ImageURL:     "",
		Closed:       false,
		URL:          tags["website"],
		ReviewCount:  0,
		Categories:   categories,
		Rating:       nil,
		Lat:          lat,
		Lon:          lon,
		Transactions: []string{},
		Price:        "",
		Location: domain.BusinessLocation{
			Address1:       address1,
			City:           city,
			ZipCode:        tags["addr:postcode"],
			Country:        tags["addr:country"],
			State:          tags["addr:state"],
			DisplayAddress: addressParts,
		},
		Phone:        tags["phone"],
		DisplayPhone: tags["phone"],
	}
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}

func fmtCoord(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// qlEscape keeps user input from breaking out of an Overpass regex literal.
func qlEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
