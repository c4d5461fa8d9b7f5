package httpserver

import (
	"github.com/go-playground/validator/v10"

	"dinefinder/internal/app"
	"dinefinder/internal/domain"
)

var validate = validator.New()

// createRestaurantRequest is the manual-create DTO. Rating bounds are
// enforced here only; provider-sourced writes bypass validation.
type createRestaurantRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Cuisine     string   `json:"cuisine" validate:"max=255"`
	Address     string   `json:"address" validate:"max=512"`
	Phone       *string  `json:"phone" validate:"omitempty,max=64"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
	Lat         *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Lon         *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	PriceLevel  *int     `json:"priceLevel" validate:"omitempty,gte=1,lte=4"`
	URL         *string  `json:"url" validate:"omitempty,url"`
}

func (in createRestaurantRequest) toDomain() domain.Restaurant {
	return domain.Restaurant{
		Name:        in.Name,
		Description: in.Description,
		Cuisine:     in.Cuisine,
		Address:     in.Address,
		Phone:       in.Phone,
		Rating:      in.Rating,
		Lat:         in.Lat,
		Lon:         in.Lon,
		PriceLevel:  in.PriceLevel,
		URL:         in.URL,
	}
}

type patchRestaurantRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description" validate:"omitempty,max=5000"`
	Cuisine     *string  `json:"cuisine" validate:"omitempty,max=255"`
	Address     *string  `json:"address" validate:"omitempty,max=512"`
	Phone       *string  `json:"phone" validate:"omitempty,max=64"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

func (in patchRestaurantRequest) toPatch() app.RestaurantPatch {
	return app.RestaurantPatch{
		Name:        in.Name,
		Description: in.Description,
		Cuisine:     in.Cuisine,
		Address:     in.Address,
		Phone:       in.Phone,
		Rating:      in.Rating,
	}
}

// searchRequest holds the parsed query string; either Location or both
// coordinates must be present.
type searchRequest struct {
	Term       string   `validate:"max=255"`
	Location   string   `validate:"max=255"`
	Lat        *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon        *float64 `validate:"omitempty,gte=-180,lte=180"`
	RadiusM    int      `validate:"omitempty,gte=500,lte=40000"`
	Categories string   `validate:"max=255"`
	Price      string   `validate:"max=16"`
	OpenNow    bool
	SortBy     string `validate:"omitempty,oneof=best_match rating review_count distance"`
	Limit      int    `validate:"omitempty,gte=1,lte=50"`
	Offset     int    `validate:"omitempty,gte=0"`
}

type addFavoriteRequest struct {
	UserID         string   `json:"userId" validate:"required,max=128"`
	RestaurantID   int64    `json:"restaurantId" validate:"required,gt=0"`
	Collection     *string  `json:"collection" validate:"omitempty,max=128"`
	Notes          *string  `json:"notes" validate:"omitempty,max=5000"`
	Tags           []string `json:"tags" validate:"omitempty,dive,max=64"`
	Priority       int      `json:"priority" validate:"omitempty,gte=1,lte=5"`
	Visited        bool     `json:"isVisited"`
	PersonalRating *float64 `json:"personalRating" validate:"omitempty,gte=1,lte=5"`
}

func (in addFavoriteRequest) toDomain() domain.Favorite {
	return domain.Favorite{
		UserID:         in.UserID,
		RestaurantID:   in.RestaurantID,
		Collection:     in.Collection,
		Notes:          in.Notes,
		Tags:           in.Tags,
		Priority:       in.Priority,
		Visited:        in.Visited,
		PersonalRating: in.PersonalRating,
	}
}

type analyzeMenuRequest struct {
	DietaryRestrictions []string          `json:"dietaryRestrictions" validate:"omitempty,dive,max=64"`
	MenuItems           []domain.MenuItem `json:"menuItems" validate:"omitempty,dive"`
}
