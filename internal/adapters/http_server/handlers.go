package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"dinefinder/internal/app"
	"dinefinder/internal/domain"
)

// Pinger is the readiness probe contract the DB and cache adapters satisfy.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	D     *app.Discovery
	AI    *app.AIService
	DB    Pinger
	Cache Pinger
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/readyz", h.ready)

	s.mux.Route("/restaurants", func(r chi.Router) {
		r.Get("/search", h.search)
		r.Get("/nearby", h.nearby)
		r.Get("/trending", h.trending)
		r.Get("/recommendations", h.recommendations)

		r.Post("/{externalId}/sync", h.sync)
		r.Get("/{externalId}/details", h.details)
		r.Get("/{externalId}/reviews", h.reviews)
		r.Get("/{externalId}/reviews/summary", h.reviewSummary)
		r.Get("/{externalId}/reviews/sentiment", h.reviewSentiment)
		r.Post("/{externalId}/analyze-menu", h.analyzeMenu)

		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id:[0-9]+}", h.getByID)
		r.Get("/{id:[0-9]+}/insights", h.insights)
		r.Patch("/{id:[0-9]+}", h.patch)
		r.Delete("/{id:[0-9]+}", h.deleteByID)
	})

	s.mux.Get("/suggestions", h.suggestions)

	s.mux.Route("/favorites", func(r chi.Router) {
		r.Post("/", h.addFavorite)
		r.Get("/", h.listFavorites)
		r.Delete("/{id:[0-9]+}", h.deleteFavorite)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain sentinels onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, domain.ErrBadRequest):
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
	case errors.Is(err, domain.ErrUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled request error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable writes a 200 with an ETag, or a 304 when If-None-Match hits.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ---- health ----

func (h *Handlers) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", "database unreachable")
		return
	}
	if err := h.Cache.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", "cache unreachable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// ---- discovery ----

func parseSearchRequest(r *http.Request) (searchRequest, error) {
	q := r.URL.Query()
	req := searchRequest{
		Term:       q.Get("term"),
		Location:   q.Get("location"),
		Categories: q.Get("categories"),
		Price:      q.Get("price"),
		SortBy:     q.Get("sort_by"),
		OpenNow:    q.Get("open_now") == "true",
	}
	if v := q.Get("latitude"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errors.New("latitude must be a number")
		}
		req.Lat = &f
	}
	if v := q.Get("longitude"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return req, errors.New("longitude must be a number")
		}
		req.Lon = &f
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"radius", &req.RadiusM}, {"limit", &req.Limit}, {"offset", &req.Offset}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, errors.New(p.name + " must be an integer")
			}
			*p.dst = n
		}
	}
	return req, nil
}

func (h *Handlers) search(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.Location == "" && (req.Lat == nil || req.Lon == nil) {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "either location or both latitude and longitude are required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	res, err := h.D.Search(r.Context(), domain.SearchParams{
		Term:       req.Term,
		Location:   req.Location,
		Lat:        req.Lat,
		Lon:        req.Lon,
		RadiusM:    req.RadiusM,
		Categories: req.Categories,
		Price:      req.Price,
		OpenNow:    req.OpenNow,
		SortBy:     req.SortBy,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, res)
}

func (h *Handlers) nearby(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "latitude and longitude are required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	out, err := h.D.Nearby(r.Context(), *req.Lat, *req.Lon, req.RadiusM, req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) trending(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > domain.MaxLimit {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 50")
			return
		}
		limit = n
	}
	out, err := h.D.Trending(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) recommendations(w http.ResponseWriter, r *http.Request) {
	var prefs domain.UserPreferences
	if raw := r.URL.Query().Get("preferences"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "preferences must be a JSON object")
			return
		}
	}

	restaurants, err := h.D.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	// History is context only; losing it never fails the request.
	history, herr := h.D.RecentSearches(r.Context(), 5)
	if herr != nil {
		log.Warn().Err(herr).Msg("recent searches unavailable for recommendations")
		history = nil
	}
	writeJSON(w, http.StatusOK, h.AI.Recommendations(r.Context(), restaurants, prefs, history))
}

func (h *Handlers) sync(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.Sync(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) details(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.Details(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) reviews(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.Reviews(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) reviewSummary(w http.ResponseWriter, r *http.Request) {
	res, err := h.D.Reviews(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.AI.SummarizeReviews(r.Context(), res.Reviews))
}

func (h *Handlers) reviewSentiment(w http.ResponseWriter, r *http.Request) {
	res, err := h.D.Reviews(r.Context(), chi.URLParam(r, "externalId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.AI.AnalyzeSentiment(r.Context(), res.Reviews))
}

func (h *Handlers) suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sc := app.SuggestionContext{
		Occasion:  q.Get("occasion"),
		TimeOfDay: q.Get("timeOfDay"),
		Weather:   q.Get("weather"),
		Budget:    q.Get("budget"),
		Location:  q.Get("location"),
	}
	if v := q.Get("groupSize"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "groupSize must be an integer")
			return
		}
		sc.GroupSize = n
	}
	writeJSON(w, http.StatusOK, h.AI.DiningSuggestions(r.Context(), sc))
}

func (h *Handlers) analyzeMenu(w http.ResponseWriter, r *http.Request) {
	var req analyzeMenuRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.AI.AnalyzeDietary(r.Context(), req.MenuItems, req.DietaryRestrictions))
}

func (h *Handlers) insights(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	ins, err := h.D.Insights(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, ins)
}

// ---- CRUD ----

func (h *Handlers) create(w http.ResponseWriter, r *http.Request) {
	var req createRestaurantRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	rt := req.toDomain()
	if err := h.D.Create(r.Context(), &rt); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *Handlers) list(w http.ResponseWriter, r *http.Request) {
	out, err := h.D.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) getByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	out, err := h.D.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) patch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var req patchRestaurantRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	out, err := h.D.Patch(r.Context(), id, req.toPatch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) deleteByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.D.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- favorites ----

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	if err := decodeBody(r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	f := req.toDomain()
	if err := h.D.AddFavorite(r.Context(), &f); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, f)
}

func (h *Handlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "userId query parameter is required")
		return
	}
	out, err := h.D.ListFavorites(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, out)
}

func (h *Handlers) deleteFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	if err := h.D.DeleteFavorite(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
