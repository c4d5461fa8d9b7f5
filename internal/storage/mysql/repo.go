package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"dinefinder/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// restaurantArgs renders the shared column tuple for insert/upsert/update.
// Nested structures go to JSON columns; nil collections persist as empty
// JSON, never SQL NULL.
func restaurantArgs(rt *domain.Restaurant) []any {
	photos, _ := json.Marshal(emptyIfNilStr(rt.Photos))
	categories, _ := json.Marshal(emptyIfNilCat(rt.Categories))
	hours, _ := json.Marshal(emptyIfNilHours(rt.Hours))
	transactions, _ := json.Marshal(emptyIfNilStr(rt.Transactions))
	attributes, _ := json.Marshal(emptyIfNilMap(rt.Attributes))
	dietary, _ := json.Marshal(emptyIfNilStr(rt.DietaryTags))

	return []any{
		valStr(rt.ExternalID),
		rt.Name,
		valStr(rt.Description),
		rt.Cuisine,
		rt.Address,
		valStr(rt.Phone),
		valF64(rt.Rating),
		rt.ReviewCount,
		valF64(rt.Lat),
		valF64(rt.Lon),
		string(photos),
		valInt(rt.PriceLevel),
		string(categories),
		string(hours),
		valStr(rt.URL),
		rt.Closed,
		string(transactions),
		string(attributes),
		string(dietary),
		valTime(rt.LastSyncedAt),
	}
}

func (r *Repo) Create(ctx context.Context, rt *domain.Restaurant) error {
	res, err := r.db.ExecContext(ctx, insertRestaurantSQL, restaurantArgs(rt)...)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rt.ID = id
	return nil
}

func (r *Repo) Update(ctx context.Context, rt *domain.Restaurant) error {
	args := append(restaurantArgs(rt), rt.ID)
	res, err := r.db.ExecContext(ctx, updateRestaurantSQL, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero affected rows can also mean a no-op update; only 404 when the
		// row truly is not there.
		if _, getErr := r.GetByID(ctx, rt.ID); getErr != nil {
			return getErr
		}
	}
	return nil
}

func (r *Repo) UpsertByExternalID(ctx context.Context, rt *domain.Restaurant) error {
	if rt.ExternalID == nil {
		return domain.ErrBadRequest
	}
	_, err := r.db.ExecContext(ctx, upsertRestaurantSQL, restaurantArgs(rt)...)
	return err
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM restaurants WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) UpsertReviews(ctx context.Context, rs []domain.Review) error {
	if len(rs) == 0 {
		return nil
	}
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*10)
	for _, rv := range rs {
		// Columns (from insertReviewsPrefix):
		// (restaurant_id, external_review_id, `text`, rating, user_name,
		//  user_image_url, time_created, sentiment_score, sentiment_label, url)
		// time_created value is COALESCE(?, CURRENT_TIMESTAMP) to allow
		// "unknown" timestamps.
		values = append(values, "(?,?,?,?,?,?,COALESCE(?, CURRENT_TIMESTAMP),?,?,?)")
		var created any
		if !rv.TimeCreated.IsZero() {
			created = rv.TimeCreated
		}
		args = append(args,
			rv.RestaurantID,
			valStr(rv.ExternalReviewID),
			rv.Text,
			rv.Rating,
			rv.UserName,
			valStr(rv.UserImageURL),
			created,
			valF64(rv.SentimentScore),
			valStr(rv.SentimentLabel),
			valStr(rv.URL),
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *Repo) AddFavorite(ctx context.Context, f *domain.Favorite) error {
	tags, _ := json.Marshal(emptyIfNilStr(f.Tags))
	res, err := r.db.ExecContext(ctx, insertFavoriteSQL,
		f.UserID,
		f.RestaurantID,
		valStr(f.Collection),
		valStr(f.Notes),
		string(tags),
		f.Priority,
		f.Visited,
		valTime(f.VisitDate),
		valF64(f.PersonalRating),
	)
	if err != nil {
		return err
	}
	if id, idErr := res.LastInsertId(); idErr == nil && id > 0 {
		f.ID = id
	}
	return nil
}

func (r *Repo) DeleteFavorite(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) RecordSearch(ctx context.Context, rec domain.SearchRecord) error {
	filters, _ := json.Marshal(emptyIfNilMap(rec.Filters))
	_, err := r.db.ExecContext(ctx, insertSearchSQL,
		rec.Query,
		rec.Location,
		valF64(rec.Lat),
		valF64(rec.Lon),
		string(filters),
		rec.ResultsCount,
		rec.ResponseMs,
		rec.SessionID,
	)
	return err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (domain.Restaurant, error) {
	return scanRestaurant(r.db.QueryRowContext(ctx, getRestaurantSQL, id))
}

func (r *Repo) GetByExternalID(ctx context.Context, externalID string) (domain.Restaurant, error) {
	return scanRestaurant(r.db.QueryRowContext(ctx, getRestaurantByExternalSQL, externalID))
}

func (r *Repo) List(ctx context.Context) ([]domain.Restaurant, error) {
	return r.queryRestaurants(ctx, listRestaurantsSQL)
}

func (r *Repo) ListGeotagged(ctx context.Context) ([]domain.Restaurant, error) {
	return r.queryRestaurants(ctx, listGeotaggedSQL)
}

func (r *Repo) ListTrending(ctx context.Context, limit int) ([]domain.Restaurant, error) {
	return r.queryRestaurants(ctx, listTrendingSQL, limit)
}

func (r *Repo) ListFavorites(ctx context.Context, userID string) ([]domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Favorite{}
	for rows.Next() {
		var f domain.Favorite
		var collection, notes sql.NullString
		var tagsJSON []byte
		var visitDate sql.NullTime
		var personal sql.NullFloat64
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.RestaurantID,
			&collection, &notes, &tagsJSON, &f.Priority,
			&f.Visited, &visitDate, &personal, &f.CreatedAt,
		); err != nil {
			return nil, err
		}
		if collection.Valid {
			s := collection.String
			f.Collection = &s
		}
		if notes.Valid {
			s := notes.String
			f.Notes = &s
		}
		f.Tags = []string{}
		_ = json.Unmarshal(tagsJSON, &f.Tags)
		if visitDate.Valid {
			t := visitDate.Time
			f.VisitDate = &t
		}
		if personal.Valid {
			v := personal.Float64
			f.PersonalRating = &v
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) ListRecentSearches(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	rows, err := r.db.QueryContext(ctx, listRecentSearchesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SearchRecord{}
	for rows.Next() {
		var rec domain.SearchRecord
		var lat, lon sql.NullFloat64
		var filtersJSON []byte
		if err := rows.Scan(
			&rec.ID, &rec.Query, &rec.Location, &lat, &lon,
			&filtersJSON, &rec.ResultsCount, &rec.ResponseMs, &rec.SessionID, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if lat.Valid {
			v := lat.Float64
			rec.Lat = &v
		}
		if lon.Valid {
			v := lon.Float64
			rec.Lon = &v
		}
		rec.Filters = map[string]any{}
		_ = json.Unmarshal(filtersJSON, &rec.Filters)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ---- scanning ----

type rowScanner interface{ Scan(dest ...any) error }

func scanRestaurant(row rowScanner) (domain.Restaurant, error) {
	var rt domain.Restaurant
	var externalID, description, phone, url sql.NullString
	var rating, lat, lon sql.NullFloat64
	var priceLevel sql.NullInt64
	var photosJSON, categoriesJSON, hoursJSON, transactionsJSON, attributesJSON, dietaryJSON []byte
	var lastSynced sql.NullTime

	if err := row.Scan(
		&rt.ID, &externalID, &rt.Name, &description, &rt.Cuisine, &rt.Address,
		&phone, &rating, &rt.ReviewCount, &lat, &lon, &photosJSON, &priceLevel,
		&categoriesJSON, &hoursJSON, &url, &rt.Closed, &transactionsJSON,
		&attributesJSON, &dietaryJSON, &rt.CreatedAt, &rt.UpdatedAt, &lastSynced,
	); err != nil {
		if err == sql.ErrNoRows {
			return domain.Restaurant{}, domain.ErrNotFound
		}
		return domain.Restaurant{}, err
	}

	if externalID.Valid {
		s := externalID.String
		rt.ExternalID = &s
	}
	if description.Valid {
		s := description.String
		rt.Description = &s
	}
	if phone.Valid {
		s := phone.String
		rt.Phone = &s
	}
	if url.Valid {
		s := url.String
		rt.URL = &s
	}
	if rating.Valid {
		v := rating.Float64
		rt.Rating = &v
	}
	if lat.Valid && lon.Valid {
		la, lo := lat.Float64, lon.Float64
		rt.Lat, rt.Lon = &la, &lo
	}
	if priceLevel.Valid {
		p := int(priceLevel.Int64)
		rt.PriceLevel = &p
	}
	if lastSynced.Valid {
		t := lastSynced.Time
		rt.LastSyncedAt = &t
	}

	rt.Photos = []string{}
	rt.Categories = []domain.Category{}
	rt.Hours = []domain.HoursSpan{}
	rt.Transactions = []string{}
	rt.Attributes = map[string]any{}
	rt.DietaryTags = []string{}
	_ = json.Unmarshal(photosJSON, &rt.Photos)
	_ = json.Unmarshal(categoriesJSON, &rt.Categories)
	_ = json.Unmarshal(hoursJSON, &rt.Hours)
	_ = json.Unmarshal(transactionsJSON, &rt.Transactions)
	_ = json.Unmarshal(attributesJSON, &rt.Attributes)
	_ = json.Unmarshal(dietaryJSON, &rt.DietaryTags)

	return rt, nil
}

func (r *Repo) queryRestaurants(ctx context.Context, query string, args ...any) ([]domain.Restaurant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Restaurant{}
	for rows.Next() {
		rt, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func emptyIfNilStr(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func emptyIfNilCat(cs []domain.Category) []domain.Category {
	if cs == nil {
		return []domain.Category{}
	}
	return cs
}

func emptyIfNilHours(hs []domain.HoursSpan) []domain.HoursSpan {
	if hs == nil {
		return []domain.HoursSpan{}
	}
	return hs
}

func emptyIfNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
