package mysql

const insertRestaurantSQL = `
INSERT INTO restaurants
  (external_id, name, description, cuisine, address, phone, rating, review_count,
   lat, lon, photos, price_level, categories, hours, url, is_closed,
   transactions, attributes, dietary_tags, last_synced_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateRestaurantSQL = `
UPDATE restaurants SET
  external_id    = ?,
  name           = ?,
  description    = ?,
  cuisine        = ?,
  address        = ?,
  phone          = ?,
  rating         = ?,
  review_count   = ?,
  lat            = ?,
  lon            = ?,
  photos         = ?,
  price_level    = ?,
  categories     = ?,
  hours          = ?,
  url            = ?,
  is_closed      = ?,
  transactions   = ?,
  attributes     = ?,
  dietary_tags   = ?,
  last_synced_at = ?,
  updated_at     = CURRENT_TIMESTAMP
WHERE id = ?
`

const upsertRestaurantSQL = `
INSERT INTO restaurants
  (external_id, name, description, cuisine, address, phone, rating, review_count,
   lat, lon, photos, price_level, categories, hours, url, is_closed,
   transactions, attributes, dietary_tags, last_synced_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  name           = VALUES(name),
  description    = VALUES(description),
  cuisine        = VALUES(cuisine),
  address        = VALUES(address),
  phone          = VALUES(phone),
  rating         = VALUES(rating),
  review_count   = VALUES(review_count),
  lat            = VALUES(lat),
  lon            = VALUES(lon),
  photos         = VALUES(photos),
  price_level    = VALUES(price_level),
  categories     = VALUES(categories),
  hours          = VALUES(hours),
  url            = VALUES(url),
  is_closed      = VALUES(is_closed),
  transactions   = VALUES(transactions),
  attributes     = VALUES(attributes),
  dietary_tags   = VALUES(dietary_tags),
  last_synced_at = VALUES(last_synced_at),
  updated_at     = CURRENT_TIMESTAMP
`

// Note: `text` is reserved; keep it quoted everywhere.
const insertReviewsPrefix = "INSERT INTO reviews\n  (restaurant_id, external_review_id, `text`, rating, user_name, user_image_url, time_created, sentiment_score, sentiment_label, url)\nVALUES "

const insertReviewsOnDup = " ON DUPLICATE KEY UPDATE\n" +
	"  `text`          = VALUES(`text`),\n" +
	"  rating          = VALUES(rating),\n" +
	"  user_name       = VALUES(user_name),\n" +
	"  user_image_url  = VALUES(user_image_url),\n" +
	"  time_created    = VALUES(time_created),\n" +
	"  sentiment_score = COALESCE(VALUES(sentiment_score), reviews.sentiment_score),\n" +
	"  sentiment_label = COALESCE(VALUES(sentiment_label), reviews.sentiment_label),\n" +
	"  url             = VALUES(url)\n"

const insertFavoriteSQL = `
INSERT INTO favorites
  (user_id, restaurant_id, collection, notes, tags, priority, is_visited, visit_date, personal_rating)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  collection      = VALUES(collection),
  notes           = VALUES(notes),
  tags            = VALUES(tags),
  priority        = VALUES(priority),
  is_visited      = VALUES(is_visited),
  visit_date      = VALUES(visit_date),
  personal_rating = VALUES(personal_rating)
`

const insertSearchSQL = `
INSERT INTO search_history
  (query, location, lat, lon, filters, results_count, response_ms, session_id)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const restaurantColumns = `
  id, external_id, name, description, cuisine, address, phone, rating,
  review_count, lat, lon, photos, price_level, categories, hours, url,
  is_closed, transactions, attributes, dietary_tags,
  created_at, updated_at, last_synced_at`

const getRestaurantSQL = `
SELECT` + restaurantColumns + `
FROM restaurants
WHERE id = ?
`

const getRestaurantByExternalSQL = `
SELECT` + restaurantColumns + `
FROM restaurants
WHERE external_id = ?
`

const listRestaurantsSQL = `
SELECT` + restaurantColumns + `
FROM restaurants
ORDER BY id
`

const listGeotaggedSQL = `
SELECT` + restaurantColumns + `
FROM restaurants
WHERE lat IS NOT NULL AND lon IS NOT NULL
ORDER BY id
`

// Rating weighted with log-scaled review volume; unrated rows sort last.
const listTrendingSQL = `
SELECT` + restaurantColumns + `
FROM restaurants
WHERE rating IS NOT NULL
ORDER BY rating * LOG(10, review_count + 10) DESC, review_count DESC, id
LIMIT ?
`

const listFavoritesSQL = `
SELECT
  id, user_id, restaurant_id, collection, notes, tags, priority,
  is_visited, visit_date, personal_rating, created_at
FROM favorites
WHERE user_id = ?
ORDER BY priority, created_at DESC
`

const listRecentSearchesSQL = `
SELECT
  id, query, location, lat, lon, filters, results_count, response_ms, session_id, created_at
FROM search_history
ORDER BY created_at DESC, id DESC
LIMIT ?
`
