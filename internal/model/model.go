// Package model defines the domain types used across the application.
package model

// Contact holds the listing contact details.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Status tracks the outreach progress for a listing. Dates are stored as
// strings so an empty value means "not yet".
type Status struct {
	RequestSent      string `json:"requestSent"`
	ResponseReceived string `json:"responseReceived"`
	TourScheduled    string `json:"tourScheduled"`
	Toured           bool   `json:"toured"`
	Notes            string `json:"notes"`
}

// Preferences holds the per-user heart flags and the shared dislike flag.
type Preferences struct {
	HeartA   bool `json:"heartA"`
	HeartB   bool `json:"heartB"`
	Disliked bool `json:"disliked"`
}

// ListingFields is the normalized output of the resolution pipeline.
// Numeric fields stay strings because source markup is free-form; an empty
// string means the field could not be determined.
type ListingFields struct {
	Address string   `json:"address"`
	Rent    string   `json:"rent"`
	Sqft    string   `json:"sqft"`
	Beds    string   `json:"beds"`
	Baths   string   `json:"baths"`
	Contact Contact  `json:"contact"`
	Images  []string `json:"images"`
	Scraped bool     `json:"scraped"`
}

// Property is one tracked rental listing plus its user-specific state.
type Property struct {
	ID          string      `json:"id"`
	Address     string      `json:"address"`
	Link        string      `json:"link"`
	Images      []string    `json:"images"`
	Rent        string      `json:"rent"`
	Sqft        string      `json:"sqft"`
	Beds        string      `json:"beds"`
	Baths       string      `json:"baths"`
	Contact     Contact     `json:"contact"`
	Status      Status      `json:"status"`
	Preferences Preferences `json:"preferences"`
}

// Document is the whole persisted collection, stored as one JSON value
// under a single key.
type Document struct {
	Properties  []Property `json:"properties"`
	LastUpdated string     `json:"lastUpdated"`
}

// StatusUpdate carries a partial status change. Nil fields keep their
// current value.
type StatusUpdate struct {
	RequestSent      *string `json:"requestSent,omitempty"`
	ResponseReceived *string `json:"responseReceived,omitempty"`
	TourScheduled    *string `json:"tourScheduled,omitempty"`
	Toured           *bool   `json:"toured,omitempty"`
	Notes            *string `json:"notes,omitempty"`
}

// PreferencesUpdate carries a partial preferences change. Nil fields keep
// their current value.
type PreferencesUpdate struct {
	HeartA   *bool `json:"heartA,omitempty"`
	HeartB   *bool `json:"heartB,omitempty"`
	Disliked *bool `json:"disliked,omitempty"`
}

// PropertyUpdate is the update intent accepted by the store. Only the
// status and preferences sub-objects are mutable after creation.
type PropertyUpdate struct {
	Status      *StatusUpdate      `json:"status,omitempty"`
	Preferences *PreferencesUpdate `json:"preferences,omitempty"`
}

// SortMode selects the ordering of a filtered view.
type SortMode string

// Supported sort modes.
const (
	SortDateAdded SortMode = "date-added"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
)

// Filters is the per-session view state. It is never persisted.
type Filters struct {
	ShowOnlyHearted   bool
	ShowOnlyUnhearted bool
	ShowOnlyHeartA    bool
	ShowOnlyHeartB    bool
	ShowDisliked      bool
	SortBy            SortMode
}

/// DefaultFilters returns the initial view state: everything visible,
// newest first.
func DefaultFilters() Filters {
	return Filters{
		ShowDisliked: true,
		SortBy:       SortDateAdded,
	}
}
