// Package registry holds the curated lookup table for recognized listings.
//
// A small set of listings we track closely has hand-verified data that
// beats anything the scraper can pull from an anti-bot-protected page.
// The table is keyed by URL slug; numeric listing ids from the URL path
// map onto slugs.
package registry

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"

	"renttrack/internal/model"
)

//go:embed registry.yaml
var rawTable []byte

// cityMarker terminates the street portion of a slug; substring matching
// against a URL only considers the part before it.
const cityMarker = "-austin-"

var listingIDRe = regexp.MustCompile(`/(\d+)_zpid`)

// Entry is one curated listing record. Empty fields mean the curation has
// nothing to say about them.
type Entry struct {
	Address string        `yaml:"address"`
	Rent    string        `yaml:"rent"`
	Beds    string        `yaml:"beds"`
	Baths   string        `yaml:"baths"`
	Sqft    string        `yaml:"sqft"`
	Contact model.Contact `yaml:"contact"`
	Images  []string      `yaml:"images"`
}

type table struct {
	IDs      map[string]string `yaml:"ids"`
	Listings map[string]Entry  `yaml:"listings"`
}

// Registry resolves listing URLs to curated entries.
type Registry struct {
	ids      map[string]string
	listings map[string]Entry
}

// Load parses the embedded curation table.
func Load() (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(rawTable, &t); err != nil {
		return nil, fmt.Errorf("parse registry table: %w", err)
	}
	for id, slug := range t.IDs {
		if _, ok := t.Listings[slug]; !ok {
			return nil, fmt.Errorf("registry id %s maps to unknown slug %s", id, slug)
		}
	}
	return &Registry{ids: t.IDs, listings: t.Listings}, nil
}

// Lookup returns the curated entry for a listing URL, if one exists.
// The numeric listing id in the URL path is tried first; failing that,
// the URL is substring-matched against the street portion of each slug.
func (r *Registry) Lookup(url string) (Entry, bool) {
	if m := listingIDRe.FindStringSubmatch(url); m != nil {
		if slug, ok := r.ids[m[1]]; ok {
			return r.listings[slug], true
		}
	}

	lower := strings.ToLower(url)
	for slug, entry := range r.listings {
		street := slug
		if i := strings.Index(slug, cityMarker); i >= 0 {
			street = slug[:i]
		}
		if strings.Contains(lower, street) {
			return entry, true
		}
	}

	return Entry{}, false
}
