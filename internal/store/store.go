// Package store holds the in-memory listing collection and keeps it in
// sync with the persistence gateway.
//
// Mutations update memory synchronously and then write the whole
// collection in the background. Each mutation hands back a SaveResult so
// callers can await durability when they care; failures are logged either
// way rather than silently dropped.
package store

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"renttrack/internal/model"
	"renttrack/internal/storage"
)

// saveTimeout bounds a background persistence write.
const saveTimeout = 15 * time.Second

// SaveResult reports the outcome of the persistence write triggered by a
// mutation. Wait may be called any number of times.
type SaveResult struct {
	done chan struct{}
	err  error
}

func newSaveResult() *SaveResult {
	return &SaveResult{done: make(chan struct{})}
}

func (r *SaveResult) complete(err error) {
	r.err = err
	close(r.done)
}

// Wait blocks until the write finishes or ctx is cancelled.
func (r *SaveResult) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Store is the mutex-guarded collection of tracked listings. There is one
// logical writer per process; concurrent background saves race benignly
// because the document model is last-write-wins anyway.
type Store struct {
	mu          sync.Mutex
	props       []model.Property
	lastUpdated string
	gw          storage.Gateway
	log         *slog.Logger
}

// New creates an empty Store backed by the given gateway.
func New(gw storage.Gateway, log *slog.Logger) *Store {
	return &Store{gw: gw, log: log}
}

// Load replaces the in-memory collection with the durable one.
func (s *Store) Load(ctx context.Context) error {
	doc, err := s.gw.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.props = doc.Properties
	s.lastUpdated = doc.LastUpdated
	s.mu.Unlock()
	return nil
}

// Add creates a new record from resolved listing fields, appends it, and
// schedules a save. Status and preferences start zeroed.
func (s *Store) Add(fields model.ListingFields, link string) (model.Property, *SaveResult) {
	prop := model.Property{
		ID:      uuid.NewString(),
		Address: fields.Address,
		Link:    link,
		Images:  dedupe(fields.Images),
		Rent:    fields.Rent,
		Sqft:    fields.Sqft,
		Beds:    fields.Beds,
		Baths:   fields.Baths,
		Contact: fields.Contact,
	}

	s.mu.Lock()
	s.props = append(s.props, prop)
	s.mu.Unlock()

	s.log.Info("added property", "id", prop.ID, "address", prop.Address)
	return prop, s.scheduleSave()
}

// Update applies a partial status/preferences change. Unknown ids are a
// silent no-op and trigger no write.
func (s *Store) Update(id string, u model.PropertyUpdate) *SaveResult {
	s.mu.Lock()
	found := false
	for i := range s.props {
		if s.props[i].ID != id {
			continue
		}
		mergeStatus(&s.props[i].Status, u.Status)
		mergePreferences(&s.props[i].Preferences, u.Preferences)
		found = true
		break
	}
	s.mu.Unlock()

	if !found {
		res := newSaveResult()
		res.complete(nil)
		return res
	}
	return s.scheduleSave()
}

// Delete removes a record by id. Unknown ids are a silent no-op.
func (s *Store) Delete(id string) *SaveResult {
	s.mu.Lock()
	found := false
	for i := range s.props {
		if s.props[i].ID == id {
			s.props = append(s.props[:i], s.props[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		res := newSaveResult()
		res.complete(nil)
		return res
	}
	s.log.Info("deleted property", "id", id)
	return s.scheduleSave()
}

// Replace swaps in an entirely new collection and saves it synchronously.
func (s *Store) Replace(ctx context.Context, props []model.Property) (*model.Document, error) {
	if props == nil {
		props = []model.Property{}
	}
	s.mu.Lock()
	s.props = props
	s.mu.Unlock()

	doc, err := s.gw.Save(ctx, props)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastUpdated = doc.LastUpdated
	s.mu.Unlock()
	return doc, nil
}

// Clear empties the collection and deletes the durable document.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.gw.Clear(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.props = nil
	s.mu.Unlock()
	return nil
}

// Flush forces a synchronous save of the current collection.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	props := append([]model.Property(nil), s.props...)
	s.mu.Unlock()

	doc, err := s.gw.Save(ctx, props)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastUpdated = doc.LastUpdated
	s.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the collection in insertion order, plus the
// timestamp of the last known durable write.
func (s *Store) Snapshot() ([]model.Property, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Property(nil), s.props...), s.lastUpdated
}

// List returns a filtered, sorted view. The underlying collection is
// never mutated.
func (s *Store) List(f model.Filters) []model.Property {
	props, _ := s.Snapshot()

	filtered := props[:0:0]
	for _, p := range props {
		if f.ShowOnlyHearted && !p.Preferences.HeartA && !p.Preferences.HeartB {
			continue
		}
		if f.ShowOnlyUnhearted && (p.Preferences.HeartA || p.Preferences.HeartB) {
			continue
		}
		if f.ShowOnlyHeartA && !p.Preferences.HeartA {
			continue
		}
		if f.ShowOnlyHeartB && !p.Preferences.HeartB {
			continue
		}
		if !f.ShowDisliked && p.Preferences.Disliked {
			continue
		}
		filtered = append(filtered, p)
	}

	switch f.SortBy {
	case model.SortPriceLow:
		sort.SliceStable(filtered, func(i, j int) bool {
			return rentValue(filtered[i].Rent) < rentValue(filtered[j].Rent)
		})
	case model.SortPriceHigh:
		sort.SliceStable(filtered, func(i, j int) bool {
			return rentValue(filtered[i].Rent) > rentValue(filtered[j].Rent)
		})
	default:
		// Newest first.
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	return filtered
}

// SeedSampleData adds the built-in sample records that are not already
// present, then saves. Returns how many were added.
func (s *Store) SeedSampleData(ctx context.Context) (int, error) {
	s.mu.Lock()
	existing := make(map[string]struct{}, len(s.props))
	for _, p := range s.props {
		existing[p.ID] = struct{}{}
	}
	added := 0
	for _, sample := range sampleProperties {
		if _, ok := existing[sample.ID]; ok {
			continue
		}
		s.props = append(s.props, sample)
		added++
	}
	s.mu.Unlock()

	if added == 0 {
		return 0, nil
	}
	if err := s.Flush(ctx); err != nil {
		return added, err
	}
	s.log.Info("seeded sample properties", "added", added)
	return added, nil
}

func (s *Store) scheduleSave() *SaveResult {
	s.mu.Lock()
	props := append([]model.Property(nil), s.props...)
	s.mu.Unlock()

	res := newSaveResult()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()

		doc, err := s.gw.Save(ctx, props)
		if err != nil {
			s.log.Error("persist collection", "error", err)
		} else {
			s.mu.Lock()
			s.lastUpdated = doc.LastUpdated
			s.mu.Unlock()
		}
		res.complete(err)
	}()
	return res
}

func mergeStatus(dst *model.Status, u *model.StatusUpdate) {
	if u == nil {
		return
	}
	if u.RequestSent != nil {
		dst.RequestSent = *u.RequestSent
	}
	if u.ResponseReceived != nil {
		dst.ResponseReceived = *u.ResponseReceived
	}
	if u.TourScheduled != nil {
		dst.TourScheduled = *u.TourScheduled
	}
	if u.Toured != nil {
		dst.Toured = *u.Toured
	}
	if u.Notes != nil {
		dst.Notes = *u.Notes
	}
}

func mergePreferences(dst *model.Preferences, u *model.PreferencesUpdate) {
	if u == nil {
		return
	}
	if u.HeartA != nil {
		dst.HeartA = *u.HeartA
	}
	if u.HeartB != nil {
		dst.HeartB = *u.HeartB
	}
	if u.Disliked != nil {
		dst.Disliked = *u.Disliked
	}
}

func rentValue(rent string) int {
	n, err := strconv.Atoi(strings.TrimSpace(rent))
	if err != nil {
		return 0
	}
	return n
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

var sampleProperties = []model.Property{
	{
		ID:      "sample-29382365",
		Address: "2211 Willow St, Austin, TX 78702",
		Link:    "https://www.zillow.com/homedetails/2211-Willow-St-Austin-TX-78702/29382365_zpid/",
		Images: []string{
			"https://images.unsplash.com/photo-1600607687939-ce8a6c25118c?w=800&h=600",
			"https://images.unsplash.com/photo-1600566753086-00f18fb6b3ea?w=800&h=600",
			"https://images.unsplash.com/photo-1560448075-cbc16bb4af8e?w=800&h=600",
		},
		Rent:    "3100",
		Sqft:    "840",
		Beds:    "2",
		Baths:   "2.5",
		Contact: model.Contact{Name: "Rebecca", Phone: "(737) 257-4506", Email: "rebecca@austinproperties.com"},
	},
	{
		ID:      "sample-29386057",
		Address: "1146 Northwestern Ave, Austin, TX 78702",
		Link:    "https://www.zillow.com/homedetails/1146-Northwestern-Ave-Austin-TX-78702/29386057_zpid/",
		Images: []string{
			"https://images.unsplash.com/photo-1600047509807-ba8f99d2cdde?w=800&h=600",
			"https://images.unsplash.com/photo-1600607687644-c7171b42498b?w=800&h=600",
			"https://images.unsplash.com/photo-1600566753151-384129cf4e3e?w=800&h=600",
		},
		Rent:    "2700",
		Sqft:    "1093",
		Beds:    "3",
		Baths:   "2",
		Contact: model.Contact{Name: "Myung Lemond", Phone: "(512) 740-0807", Email: "myung@austinrealty.com"},
	},
}
