package domain

import "time"

type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// HoursSpan is one opening span. Day is 0=Monday..6=Sunday, Start/End are
// "HHMM" strings as the providers report them.
type HoursSpan struct {
	Day       int    `json:"day"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Overnight bool   `json:"isOvernight"`
}

type Restaurant struct {
	ID           int64          `json:"id"`
	ExternalID   *string        `json:"externalId"`
	Name         string         `json:"name"`
	Description  *string        `json:"description"`
	Cuisine      string         `json:"cuisine"`
	Address      string         `json:"address"`
	Phone        *string        `json:"phone"`
	Rating       *float64       `json:"rating"`
	ReviewCount  int            `json:"reviewCount"`
	Lat          *float64       `json:"latitude"`
	Lon          *float64       `json:"longitude"`
	Photos       []string       `json:"photos"`
	PriceLevel   *int           `json:"priceLevel"`
	Categories   []Category     `json:"categories"`
	Hours        []HoursSpan    `json:"hours"`
	URL          *string        `json:"url"`
	Closed       bool           `json:"isClosed"`
	Transactions []string       `json:"transactions"`
	Attributes   map[string]any `json:"attributes"`
	DietaryTags  []string       `json:"dietaryTags"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	LastSyncedAt *time.Time     `json:"lastSyncedAt"`
}

// HasCoords reports whether both coordinates are set. Rows with only one of
// the pair are treated as having no location.
func (r Restaurant) HasCoords() bool { return r.Lat != nil && r.Lon != nil }

type Review struct {
	ID               int64     `json:"id"`
	RestaurantID     int64     `json:"restaurantId"`
	ExternalReviewID *string   `json:"externalReviewId"`
	Text             string    `json:"text"`
	Rating           float64   `json:"rating"`
	UserName         string    `json:"userName"`
	UserImageURL     *string   `json:"userImageUrl"`
	TimeCreated      time.Time `json:"timeCreated"`
	SentimentScore   *float64  `json:"sentimentScore"`
	SentimentLabel   *string   `json:"sentimentLabel"`
	URL              *string   `json:"url"`
	CreatedAt        time.Time `json:"createdAt"`
}

type Favorite struct {
	ID             int64      `json:"id"`
	UserID         string     `json:"userId"`
	RestaurantID   int64      `json:"restaurantId"`
	Collection     *string    `json:"collection"`
	Notes          *string    `json:"notes"`
	Tags           []string   `json:"tags"`
	Priority       int        `json:"priority"`
	Visited        bool       `json:"isVisited"`
	VisitDate      *time.Time `json:"visitDate"`
	PersonalRating *float64   `json:"personalRating"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// SearchRecord captures one executed search for later recommendation context.
type SearchRecord struct {
	ID           int64          `json:"id"`
	Query        string         `json:"query"`
	Location     string         `json:"location"`
	Lat          *float64       `json:"latitude"`
	Lon          *float64       `json:"longitude"`
	Filters      map[string]any `json:"filters"`
	ResultsCount int            `json:"resultsCount"`
	ResponseMs   int64          `json:"responseTime"`
	SessionID    string         `json:"sessionId"`
	CreatedAt    time.Time      `json:"createdAt"`
}
