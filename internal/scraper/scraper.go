// Package scraper resolves a listing URL into usable listing fields.
//
// Resolution runs through three tiers: a live fetch and extraction, the
// curated registry, and finally a deterministic synthetic record. The
// final tier is unconditional, so Resolve always produces something the
// caller can store.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"renttrack/internal/extract"
	"renttrack/internal/model"
	"renttrack/internal/registry"
)

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Summary reports which fields a live extraction produced.
type Summary struct {
	Address    bool `json:"address"`
	Rent       bool `json:"rent"`
	Beds       bool `json:"beds"`
	Baths      bool `json:"baths"`
	Sqft       bool `json:"sqft"`
	ImageCount int  `json:"imageCount"`
	HasContact bool `json:"hasContact"`
}

// Debug carries scrape diagnostics back to the caller.
type Debug struct {
	HasImages         bool     `json:"hasImages"`
	ImageCount        int      `json:"imageCount"`
	HasContact        bool     `json:"hasContact"`
	FallbackUsed      bool     `json:"fallbackUsed,omitempty"`
	FallbackReason    string   `json:"fallbackReason,omitempty"`
	ExtractionSummary *Summary `json:"extractionSummary,omitempty"`
}

// Result is the outcome of a single scrape attempt. Success is true even
// when the URL-parsing fallback was used; the Data.Scraped flag tells the
// two cases apart.
type Result struct {
	Success bool                `json:"success"`
	Data    model.ListingFields `json:"data"`
	Debug   Debug               `json:"debug"`
}

// minPageSize is the smallest HTML body worth extracting from. Block
// pages and interstitials come in well under this.
const minPageSize = 5000

// maxBodySize bounds how much of a listing page we read.
const maxBodySize = 5 * 1024 * 1024

var blockMarkers = []string{"Access denied", "blocked", "captcha"}

// Scraper fetches listing pages and resolves them into listing fields.
type Scraper struct {
	client HTTPClient
	reg    *registry.Registry
	log    *slog.Logger
}

// New creates a Scraper with the given HTTP client.
func New(client HTTPClient, reg *registry.Registry, log *slog.Logger) *Scraper {
	return &Scraper{client: client, reg: reg, log: log}
}

// ValidateURL checks that a URL points at a listing detail page.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("not a valid URL: %w", err)
	}
	if !strings.Contains(u.Hostname(), "zillow.com") || !strings.Contains(u.Path, "homedetails") {
		return errors.New("not a listing detail URL")
	}
	return nil
}

// Scrape fetches the listing page and extracts fields from it. Any fetch
// failure, gate rejection, or empty extraction degrades to the URL-parsing
// fallback rather than an error.
func (s *Scraper) Scrape(ctx context.Context, listingURL string) Result {
	html, err := s.fetchPage(ctx, listingURL)
	if err != nil {
		s.log.Warn("scrape fell back to URL parsing", "url", listingURL, "reason", err)
		return s.urlFallback(listingURL, err.Error())
	}

	fields := extract.Extract(html)

	if fields.Address == "" && fields.Rent == "" && len(fields.Images) == 0 {
		s.log.Warn("scrape yielded no usable fields", "url", listingURL)
		return s.urlFallback(listingURL, "no meaningful data extracted")
	}

	summary := Summary{
		Address:    fields.Address != "",
		Rent:       fields.Rent != "",
		Beds:       fields.Beds != "",
		Baths:      fields.Baths != "",
		Sqft:       fields.Sqft != "",
		ImageCount: len(fields.Images),
		HasContact: fields.ContactName != "" && fields.ContactName != "Property Manager",
	}
	s.log.Info("scraped listing page",
		"url", listingURL, "images", len(fields.Images), "address", summary.Address)

	return Result{
		Success: true,
		Data: model.ListingFields{
			Address: fields.Address,
			Rent:    fields.Rent,
			Sqft:    fields.Sqft,
			Beds:    fields.Beds,
			Baths:   fields.Baths,
			Contact: model.Contact{Name: fields.ContactName, Phone: fields.ContactPhone},
			Images:  fields.Images,
			Scraped: true,
		},
		Debug: Debug{
			HasImages:         len(fields.Images) > 0,
			ImageCount:        len(fields.Images),
			HasContact:        fields.ContactName != "" || fields.ContactPhone != "",
			ExtractionSummary: &summary,
		},
	}
}

// Resolve produces a complete listing record for a URL. It never fails:
// the scrape tier is tried first, then the curated registry, and finally
// a synthetic record derived from the URL itself.
func (s *Scraper) Resolve(ctx context.Context, listingURL string) model.ListingFields {
	res := s.Scrape(ctx, listingURL)
	data := res.Data

	if data.Scraped && data.Address != "" && len(data.Images) > 0 {
		return s.withScrapeDefaults(data)
	}

	if data.Scraped && data.Address != "" {
		// Address but no photos: lean on curated data where we have it.
		if entry, ok := s.reg.Lookup(listingURL); ok {
			return model.ListingFields{
				Address: data.Address,
				Rent:    coalesce(data.Rent, entry.Rent, "2500"),
				Sqft:    coalesce(data.Sqft, entry.Sqft, "1000"),
				Beds:    coalesce(data.Beds, entry.Beds, "2"),
				Baths:   coalesce(data.Baths, entry.Baths, "2"),
				Contact: curatedContact(entry, data.Contact),
				Images:  curatedImages(entry),
				Scraped: true,
			}
		}
		data.Images = stockImages()
		return s.withScrapeDefaults(data)
	}

	// Tier 2: curated registry, with the URL path as an address source.
	parsedAddr := addressFromPath(listingURL)

	if entry, ok := s.reg.Lookup(listingURL); ok {
		s.log.Info("resolved listing from registry", "url", listingURL, "address", entry.Address)
		return model.ListingFields{
			Address: coalesce(entry.Address, parsedAddr),
			Rent:    coalesce(entry.Rent, "2500"),
			Sqft:    coalesce(entry.Sqft, "1000"),
			Beds:    coalesce(entry.Beds, "2"),
			Baths:   coalesce(entry.Baths, "2"),
			Contact: curatedContact(entry, model.Contact{Phone: "(512) 555-0100"}),
			Images:  curatedImages(entry),
		}
	}

	if parsedAddr != "" {
		s.log.Info("resolved listing from URL path", "url", listingURL, "address", parsedAddr)
		return model.ListingFields{
			Address: parsedAddr,
			Rent:    "2800",
			Sqft:    "1200",
			Beds:    "2",
			Baths:   "2",
			Contact: model.Contact{Name: "Property Manager", Phone: "(512) 555-0100"},
			Images:  stockImages(),
		}
	}

	// Tier 3: nothing recognizable in the URL at all.
	s.log.Info("resolved listing synthetically", "url", listingURL)
	return Synthesize(listingURL)
}

func (s *Scraper) withScrapeDefaults(data model.ListingFields) model.ListingFields {
	data.Rent = coalesce(data.Rent, "2500")
	data.Sqft = coalesce(data.Sqft, "1000")
	data.Beds = coalesce(data.Beds, "2")
	data.Baths = coalesce(data.Baths, "2")
	data.Contact.Name = coalesce(data.Contact.Name, "Property Manager")
	return data
}

// fetchPage issues one GET with browser-like headers and applies the
// sufficiency gate. The returned error doubles as the fallback reason.
func (s *Scraper) fetchPage(ctx context.Context, listingURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	html := string(body)

	for _, marker := range blockMarkers {
		if strings.Contains(html, marker) {
			return "", errors.New("request blocked by listing site")
		}
	}
	if len(html) < minPageSize {
		return "", errors.New("HTML response too small")
	}

	return html, nil
}

// urlFallback derives what it can from the URL path alone. It always
// succeeds; the record is flagged as not scraped and carries no images.
func (s *Scraper) urlFallback(listingURL, reason string) Result {
	address := addressFromPath(listingURL)
	if address == "" {
		address = "Address not found"
	}
	return Result{
		Success: true,
		Data: model.ListingFields{
			Address: address,
			Images:  []string{},
		},
		Debug: Debug{
			FallbackUsed:   true,
			FallbackReason: reason,
		},
	}
}

var (
	wordStartRe = regexp.MustCompile(`\b\w`)
	unitRe      = regexp.MustCompile(`(?i)\bUnit\s+(\w+)`)
)

// addressFromPath recovers a street address from a listing URL path. The
// address segment is the first one that is not a route marker and is long
// enough to plausibly be an address.
func addressFromPath(listingURL string) string {
	u, err := url.Parse(listingURL)
	if err != nil {
		return ""
	}
	for _, part := range strings.Split(u.Path, "/") {
		if part == "" || strings.Contains(part, "homedetails") || strings.Contains(part, "_zpid") || len(part) <= 5 {
			continue
		}
		addr := strings.ReplaceAll(part, "-", " ")
		addr = wordStartRe.ReplaceAllStringFunc(addr, strings.ToUpper)
		return unitRe.ReplaceAllString(addr, "UNIT $1")
	}
	return ""
}

// Synthesize builds a deterministic mock record from a hash of the URL.
// Everything except the image selection is stable across calls.
func Synthesize(listingURL string) model.ListingFields {
	h := hashURL(listingURL)
	idx := h % 5

	beds := 1 + h%4
	baths := beds * 3 / 4
	if baths < 1 {
		baths = 1
	}

	return model.ListingFields{
		Address: syntheticAddresses[idx],
		Rent:    strconv.FormatInt(2200+(h%12)*200, 10),
		Sqft:    strconv.FormatInt(900+(h%8)*150, 10),
		Beds:    strconv.FormatInt(beds, 10),
		Baths:   strconv.FormatInt(baths, 10),
		Contact: model.Contact{
			Name:  syntheticContacts[idx],
			Phone: syntheticPhones[idx],
		},
		Images: stockImages(),
	}
}

// hashURL is a 32-bit wrapping polynomial hash. The wrap-around matters:
// the same URL must index the same synthetic record on every run.
func hashURL(s string) int64 {
	var h int32
	for _, c := range s {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

var syntheticAddresses = [5]string{
	"789 Elm Street, Downtown, Austin, TX 78701",
	"321 Pine Road, Uptown, Austin, TX 78702",
	"654 Maple Drive, Midtown, Austin, TX 78703",
	"987 Cedar Lane, Eastside, Austin, TX 78704",
	"147 Birch Avenue, Westside, Austin, TX 78705",
}

var syntheticContacts = [5]string{
	"Sarah Johnson",
	"Mike Wilson",
	"Lisa Chen",
	"David Brown",
	"Amanda Davis",
}

var syntheticPhones = [5]string{
	"(512) 201-3456",
	"(512) 301-4567",
	"(512) 401-5678",
	"(512) 501-6789",
	"(512) 601-7890",
}

var stockImagePool = [5]string{
	"https://images.unsplash.com/photo-1564013799919-ab600027ffc6?w=800&h=600",
	"https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=800&h=600",
	"https://images.unsplash.com/photo-1600596542815-ffad4c1539a9?w=800&h=600",
	"https://images.unsplash.com/photo-1600607687939-ce8a6c25118c?w=800&h=600",
	"https://images.unsplash.com/photo-1613490493576-7fde63acd811?w=800&h=600",
}

// stockImages picks two or three generic photos from the stock pool.
func stockImages() []string {
	count := 2 + rand.IntN(2)
	images := make([]string, 0, count)
	for _, i := range rand.Perm(len(stockImagePool))[:count] {
		images = append(images, stockImagePool[i])
	}
	return images
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func curatedContact(entry registry.Entry, scraped model.Contact) model.Contact {
	if entry.Contact.Name != "" || entry.Contact.Phone != "" {
		return entry.Contact
	}
	scraped.Name = coalesce(scraped.Name, "Property Manager")
	return scraped
}

func curatedImages(entry registry.Entry) []string {
	if len(entry.Images) > 0 {
		return entry.Images
	}
	return stockImages()
}
