// Package server exposes the tracker over HTTP.
package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"renttrack/internal/calendar"
	"renttrack/internal/model"
	"renttrack/internal/scraper"
	"renttrack/internal/store"
)

// Server routes API requests to the store, scraper and calendar.
type Server struct {
	store   *store.Store
	scraper *scraper.Scraper
	client  scraper.HTTPClient
	log     *slog.Logger
	router  *mux.Router
}

// New builds the Server and its route table. client is used for the
// image relay and is separate from the scraper's own client.
func New(st *store.Store, sc *scraper.Scraper, client scraper.HTTPClient, log *slog.Logger) *Server {
	s := &Server{store: st, scraper: sc, client: client, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/api/scrape", s.handleScrape).Methods(http.MethodGet)
	r.HandleFunc("/api/properties", s.handleListProperties).Methods(http.MethodGet)
	r.HandleFunc("/api/properties", s.handleReplaceProperties).Methods(http.MethodPost)
	r.HandleFunc("/api/properties", s.handleClearProperties).Methods(http.MethodDelete)
	r.HandleFunc("/api/properties/resolve", s.handleResolve).Methods(http.MethodPost)
	r.HandleFunc("/api/properties/seed", s.handleSeed).Methods(http.MethodPost)
	r.HandleFunc("/api/properties/{id}", s.handleUpdateProperty).Methods(http.MethodPatch)
	r.HandleFunc("/api/properties/{id}", s.handleDeleteProperty).Methods(http.MethodDelete)
	r.HandleFunc("/api/calendar", s.handleCalendar).Methods(http.MethodGet)
	r.HandleFunc("/api/image-proxy", s.handleImageProxy).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	listingURL := r.URL.Query().Get("url")
	if listingURL == "" {
		s.writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}
	if err := scraper.ValidateURL(listingURL); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := s.scraper.Scrape(r.Context(), listingURL)
	s.writeJSON(w, http.StatusOK, res)
}

type propertiesResponse struct {
	Success     bool             `json:"success"`
	Properties  []model.Property `json:"properties"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
}

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	props, lastUpdated := s.store.Snapshot()
	if viewRequested(q) {
		f := model.DefaultFilters()
		f.ShowOnlyHearted = q.Get("showOnlyHearted") == "true"
		f.ShowOnlyUnhearted = q.Get("showOnlyUnhearted") == "true"
		f.ShowOnlyHeartA = q.Get("showOnlyHeartA") == "true"
		f.ShowOnlyHeartB = q.Get("showOnlyHeartB") == "true"
		if q.Has("showDisliked") {
			f.ShowDisliked = q.Get("showDisliked") == "true"
		}
		if sortBy := q.Get("sortBy"); sortBy != "" {
			f.SortBy = model.SortMode(sortBy)
		}
		props = s.store.List(f)
	}
	if props == nil {
		props = []model.Property{}
	}

	s.writeJSON(w, http.StatusOK, propertiesResponse{
		Success:     true,
		Properties:  props,
		LastUpdated: lastUpdated,
	})
}

func viewRequested(q map[string][]string) bool {
	for _, key := range []string{"showOnlyHearted", "showOnlyUnhearted", "showOnlyHeartA", "showOnlyHeartB", "showDisliked", "sortBy"} {
		if _, ok := q[key]; ok {
			return true
		}
	}
	return false
}

func (s *Server) handleReplaceProperties(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Properties json.RawMessage `json:"properties"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if raw := strings.TrimSpace(string(body.Properties)); raw == "" || raw[0] != '[' {
		s.writeError(w, http.StatusBadRequest, "properties must be an array")
		return
	}

	var props []model.Property
	if err := json.Unmarshal(body.Properties, &props); err != nil {
		s.writeError(w, http.StatusBadRequest, "properties must be an array of property records")
		return
	}

	doc, err := s.store.Replace(r.Context(), props)
	if err != nil {
		s.log.Error("replace collection", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to save properties")
		return
	}

	s.writeJSON(w, http.StatusOK, propertiesResponse{
		Success:     true,
		Properties:  doc.Properties,
		LastUpdated: doc.LastUpdated,
	})
}

func (s *Server) handleClearProperties(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.log.Error("clear collection", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to clear properties")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
		s.writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	fields := s.scraper.Resolve(r.Context(), body.URL)
	prop, res := s.store.Add(fields, body.URL)
	if err := res.Wait(r.Context()); err != nil {
		s.log.Error("persist new property", "id", prop.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to persist property")
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"property": prop,
	})
}

func (s *Server) handleSeed(w http.ResponseWriter, r *http.Request) {
	added, err := s.store.SeedSampleData(r.Context())
	if err != nil {
		s.log.Error("seed sample data", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to seed sample data")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "added": added})
}

func (s *Server) handleUpdateProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var u model.PropertyUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.store.Update(id, u).Wait(r.Context()); err != nil {
		s.log.Error("persist property update", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to persist update")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteProperty(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.store.Delete(id).Wait(r.Context()); err != nil {
		s.log.Error("persist property delete", "id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to persist delete")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("month"); raw != "" {
		t, err := time.Parse("2006-01", raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
			return
		}
		year, month = t.Year(), t.Month()
	}

	props, _ := s.store.Snapshot()
	days := calendar.Project(props, year, month)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"month":   fmt.Sprintf("%04d-%02d", year, month),
		"days":    days,
	})
}

// handleImageProxy re-fetches a listing photo server side. Listing CDNs
// reject hotlinked requests, so the relay sends browser headers with the
// listing site as referer and streams the bytes through.
func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		s.writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, imageURL, nil)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid image URL")
		return
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Referer", "https://www.zillow.com/")
	req.Header.Set("Accept", "image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("relay image", "url", imageURL, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to fetch image")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		s.log.Warn("stream image", "url", imageURL, "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
