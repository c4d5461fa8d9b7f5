package domain

// Normalized provider records. Each search strategy maps its own payload into
// these shapes at the adapter boundary; nothing downstream sees raw provider
// JSON.

type BusinessLocation struct {
	Address1       string   `json:"address1"`
	Address2       string   `json:"address2"`
	Address3       string   `json:"address3"`
	City           string   `json:"city"`
	ZipCode        string   `json:"zip_code"`
	Country        string   `json:"country"`
	State          string   `json:"state"`
	DisplayAddress []string `json:"display_address"`
}

type Business struct {
	ID           string           `json:"id"`
	Alias        string           `json:"alias"`
	Name         string           `json:"name"`
	ImageURL     string           `json:"image_url"`
	Closed       bool             `json:"is_closed"`
	URL          string           `json:"url"`
	ReviewCount  int              `json:"review_count"`
	Categories   []Category       `json:"categories"`
	Rating       *float64         `json:"rating"`
	Lat          *float64         `json:"latitude"`
	Lon          *float64         `json:"longitude"`
	Transactions []string         `json:"transactions"`
	Price        string           `json:"price,omitempty"`
	Location     BusinessLocation `json:"location"`
	Phone        string           `json:"phone"`
	DisplayPhone string           `json:"display_phone"`
	DistanceM    *float64         `json:"distance,omitempty"`
}

type HoursBlock struct {
	Open      []HoursSpan `json:"open"`
	HoursType string      `json:"hours_type"`
	OpenNow   bool        `json:"is_open_now"`
}

type BusinessDetails struct {
	Business
	Photos     []string       `json:"photos"`
	Hours      []HoursBlock   `json:"hours"`
	Attributes map[string]any `json:"attributes"`
}

type BusinessReview struct {
	ID           string  `json:"id"`
	Rating       float64 `json:"rating"`
	UserName     string  `json:"user_name"`
	UserImageURL string  `json:"user_image_url,omitempty"`
	Text         string  `json:"text"`
	TimeCreated  string  `json:"time_created"`
	URL          string  `json:"url"`
}

type ReviewsResult struct {
	Reviews   []BusinessReview `json:"reviews"`
	Total     int              `json:"total"`
	Languages []string         `json:"possible_languages"`
}

type Coords struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

type SearchParams struct {
	Term       string
	Location   string
	Lat, Lon   *float64
	RadiusM    int
	Categories string
	Price      string
	OpenNow    bool
	SortBy     string // best_match|rating|review_count|distance
	Limit      int
	Offset     int
}

type SearchResult struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
	Center     Coords     `json:"center"`
}
