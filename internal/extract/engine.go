// Package extract pulls listing fields out of raw property-page HTML.
//
// Each field has an ordered list of rules; the first rule that matches
// wins. Source markup varies wildly between listing pages, so the rules
// deliberately trade precision for coverage. Extraction never fails:
// a field that no rule matches is simply left empty.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Fields holds everything the engine could pull from one page. Empty
// strings mean "not found".
type Fields struct {
	Address      string
	Rent         string
	Beds         string
	Baths        string
	Sqft         string
	Images       []string
	ContactName  string
	ContactPhone string
}

// page wraps the raw HTML and lazily parses it for selector rules, so
// pages handled entirely by regex rules never pay the parse cost.
type page struct {
	html   string
	doc    *goquery.Document
	parsed bool
}

func (p *page) document() *goquery.Document {
	if !p.parsed {
		p.parsed = true
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.html))
		if err == nil {
			p.doc = doc
		}
	}
	return p.doc
}

// rule extracts a single field value from a page.
type rule interface {
	extract(p *page) (string, bool)
}

// regexRule captures group from the raw HTML. If the rule matches but the
// group is empty, fallback is returned instead.
type regexRule struct {
	re       *regexp.Regexp
	group    int
	fallback string
}

func (r regexRule) extract(p *page) (string, bool) {
	m := r.re.FindStringSubmatch(p.html)
	if m == nil {
		return "", false
	}
	var val string
	if r.group < len(m) {
		val = strings.TrimSpace(m[r.group])
	}
	if val == "" {
		val = r.fallback
	}
	return val, true
}

// selectorRule finds the first element matching a CSS selector and takes
// its text, optionally narrowed by a capture regex.
type selectorRule struct {
	sel string
	re  *regexp.Regexp
}

func (r selectorRule) extract(p *page) (string, bool) {
	doc := p.document()
	if doc == nil {
		return "", false
	}
	var val string
	doc.Find(r.sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return true
		}
		if r.re != nil {
			m := r.re.FindStringSubmatch(text)
			if m == nil {
				return true
			}
			text = m[1]
		}
		val = text
		return false
	})
	return val, val != ""
}

// firstMatch folds the rule list left, returning the first success.
func firstMatch(p *page, rules []rule) string {
	for _, r := range rules {
		if val, ok := r.extract(p); ok {
			return val
		}
	}
	return ""
}

var (
	addressRules = []rule{
		regexRule{re: regexp.MustCompile(`(?i)<h1[^>]*>([^<]*(?:St|Ave|Rd|Dr|Blvd|Ln|Ct|Pl)[^<]*)</h1>`), group: 1},
		selectorRule{sel: `[class*="property-address"]`},
		regexRule{re: regexp.MustCompile(`(?i)"streetAddress":"([^"]+)"`), group: 1},
		selectorRule{sel: `[class*="address"]`},
	}

	rentRules = []rule{
		regexRule{re: regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})*)/mo`), group: 1},
		regexRule{re: regexp.MustCompile(`(?i)\$(\d{1,3}(?:,\d{3})*)/month`), group: 1},
		selectorRule{sel: `[class*="price"]`, re: regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*)`)},
		regexRule{re: regexp.MustCompile(`(?i)"price":"?\$?(\d{1,3}(?:,\d{3})*)`), group: 1},
	}

	bedsRe = regexp.MustCompile(`(?i)(\d+)\s*bed`)
	bathRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*bath`)
	sqftRe = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})*)\s*sqft`)

	contactNameRules = []rule{
		regexRule{re: regexp.MustCompile(`(?i)contact\s+manager`), group: 1, fallback: "Property Manager"},
		regexRule{re: regexp.MustCompile(`(?i)listing\s+agent[^<]*>([^<]+)`), group: 1, fallback: "Property Manager"},
		regexRule{re: regexp.MustCompile(`(?i)agent[^<]*name[^<]*>([^<]+)`), group: 1, fallback: "Property Manager"},
		regexRule{re: regexp.MustCompile(`(?i)property\s+manager[^<]*>([^<]+)`), group: 1, fallback: "Property Manager"},
	}

	phoneRules = []rule{
		regexRule{re: regexp.MustCompile(`tel:([0-9\-()\s]+)`), group: 1},
		regexRule{re: regexp.MustCompile(`(\(\d{3}\)\s*\d{3}-\d{4})`), group: 1},
		regexRule{re: regexp.MustCompile(`(\d{3}-\d{3}-\d{4})`), group: 1},
	}

	imageRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https://photos\.zillowstatic\.com/[^"'\s]+\.(?:webp|jpg|jpeg|png)`),
		regexp.MustCompile(`(?i)https://wp\.zillowstatic\.com/[^"'\s]+\.(?:webp|jpg|jpeg|png)`),
		regexp.MustCompile(`(?i)"(https://[^"]*photos\.zillowstatic\.com[^"]*\.(?:webp|jpg|jpeg|png)[^"]*)"`),
	}

	escapedQuoteRe = regexp.MustCompile(`\\"`)
	filenameExtRe  = regexp.MustCompile(`(?i)/[^/]+(\.(?:webp|jpg|jpeg|png))`)
)

// maxImages caps the collected image set. Excluded categories never count
// toward the cap because they are filtered before insertion.
const maxImages = 10

var excludedImageMarkers = []string{"logo", "icon", "sprite", "avatar"}

// Extract runs every field's rule list over the HTML and returns whatever
// matched. It never returns an error; unmatched fields stay empty.
func Extract(html string) Fields {
	p := &page{html: html}

	f := Fields{
		Address:      cleanEscapes(firstMatch(p, addressRules)),
		Rent:         stripCommas(firstMatch(p, rentRules)),
		ContactName:  firstMatch(p, contactNameRules),
		ContactPhone: firstMatch(p, phoneRules),
		Images:       extractImages(html),
	}

	if m := bedsRe.FindStringSubmatch(html); m != nil {
		f.Beds = m[1]
	}
	if m := bathRe.FindStringSubmatch(html); m != nil {
		f.Baths = m[1]
	}
	if m := sqftRe.FindStringSubmatch(html); m != nil {
		f.Sqft = stripCommas(m[1])
	}

	return f
}

// extractImages runs all image patterns (not first-wins) and collects every
// match into a deduplicated set in document order of first occurrence.
func extractImages(html string) []string {
	seen := make(map[string]struct{})
	var images []string

	for _, re := range imageRes {
		for _, m := range re.FindAllStringSubmatch(html, -1) {
			url := m[0]
			if len(m) > 1 && m[1] != "" {
				url = m[1]
			}
			url = cleanImageURL(url)

			if excludedImage(url) || len(images) >= maxImages {
				continue
			}
			if !strings.HasPrefix(url, "http") {
				url = "https://" + url
			}
			url = highResVariant(url)

			if _, dup := seen[url]; dup {
				continue
			}
			seen[url] = struct{}{}
			images = append(images, url)
		}
	}
	return images
}

func cleanImageURL(url string) string {
	url = escapedQuoteRe.ReplaceAllString(url, "")
	return strings.ReplaceAll(url, `\`, "")
}

func excludedImage(url string) bool {
	for _, marker := range excludedImageMarkers {
		if strings.Contains(url, marker) {
			return true
		}
	}
	return false
}

// highResVariant rewrites the filename segment to the canonical
// high-resolution form unless the URL already carries one.
func highResVariant(url string) string {
	if strings.Contains(url, "cc_ft_") {
		return url
	}
	loc := filenameExtRe.FindStringSubmatchIndex(url)
	if loc == nil {
		return url
	}
	return url[:loc[0]] + "/cc_ft_1536" + url[loc[2]:loc[3]] + url[loc[1]:]
}

func cleanEscapes(s string) string {
	return strings.ReplaceAll(s, `\"`, `"`)
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
