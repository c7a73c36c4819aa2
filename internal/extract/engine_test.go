package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractAddress(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "h1 with street suffix",
			html: `<html><body><h1 class="hero">2211 Willow St, Austin, TX 78702</h1></body></html>`,
			want: "2211 Willow St, Austin, TX 78702",
		},
		{
			name: "labeled property-address element",
			html: `<html><body><div class="ds-property-address">1146 Northwestern Ave</div></body></html>`,
			want: "1146 Northwestern Ave",
		},
		{
			name: "structured data key",
			html: `<html><body><script>{"streetAddress":"1005 Brass St UNIT B"}</script></body></html>`,
			want: "1005 Brass St UNIT B",
		},
		{
			name: "generic address class",
			html: `<html><body><span class="listing-hdr-text">n/a</span><p class="full-address">987 Cedar Lane</p></body></html>`,
			want: "987 Cedar Lane",
		},
		{
			name: "h1 wins over structured data",
			html: `<html><body><h1>321 Pine St</h1><script>{"streetAddress":"wrong"}</script></body></html>`,
			want: "321 Pine St",
		},
		{
			name: "no address anywhere",
			html: `<html><body><p>nothing to see</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.html)
			if diff := cmp.Diff(tt.want, got.Address); diff != "" {
				t.Errorf("address mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractRent(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{name: "per month short form", html: `<p>Asking $2,500/mo for this one</p>`, want: "2500"},
		{name: "per month long form", html: `<p>$1,850/month utilities included</p>`, want: "1850"},
		{name: "price labeled element", html: `<html><body><span class="list-price">$3,100</span></body></html>`, want: "3100"},
		{name: "structured price key", html: `<script>{"price":"$2,700"}</script>`, want: "2700"},
		{name: "no rent", html: `<p>call for pricing</p>`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.html)
			if diff := cmp.Diff(tt.want, got.Rent); diff != "" {
				t.Errorf("rent mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractNumericFields(t *testing.T) {
	html := `<div>3 beds | 2.5 baths | 1,081 sqft</div>`
	got := Extract(html)

	if got.Beds != "3" {
		t.Errorf("beds = %q, want 3", got.Beds)
	}
	if got.Baths != "2.5" {
		t.Errorf("baths = %q, want 2.5", got.Baths)
	}
	if got.Sqft != "1081" {
		t.Errorf("sqft = %q, want 1081", got.Sqft)
	}
}

func TestExtractContact(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantName  string
		wantPhone string
	}{
		{
			name:      "contact manager marker with tel link",
			html:      `<a href="tel:512-740-0807">Contact Manager</a>`,
			wantName:  "Property Manager",
			wantPhone: "512-740-0807",
		},
		{
			name:      "listing agent with formatted phone",
			html:      `<span data-role="listing agent card">Rebecca</span> (737) 257-4506`,
			wantName:  "Rebecca",
			wantPhone: "(737) 257-4506",
		},
		{
			name:      "nothing found",
			html:      `<p>no contact details here</p>`,
			wantName:  "",
			wantPhone: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.html)
			if diff := cmp.Diff(tt.wantName, got.ContactName); diff != "" {
				t.Errorf("contact name mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantPhone, got.ContactPhone); diff != "" {
				t.Errorf("contact phone mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractImagesDeduplicates(t *testing.T) {
	// Same URL reachable through the bare pattern and the quoted pattern.
	html := `<img src="https://photos.zillowstatic.com/fp/cc_ft_1536.jpg">` +
		`<script>"https://photos.zillowstatic.com/fp/cc_ft_1536.jpg"</script>`

	got := Extract(html)
	want := []string{"https://photos.zillowstatic.com/fp/cc_ft_1536.jpg"}
	if diff := cmp.Diff(want, got.Images); diff != "" {
		t.Errorf("images mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractImagesFilterAndCap(t *testing.T) {
	var b strings.Builder
	// Three excluded URLs interleaved with fifteen real ones: the excluded
	// entries must not count toward the cap of ten.
	for i := 0; i < 15; i++ {
		if i < 3 {
			fmt.Fprintf(&b, `<img src="https://photos.zillowstatic.com/logo-%d/cc_ft_1536.png">`, i)
		}
		fmt.Fprintf(&b, `<img src="https://photos.zillowstatic.com/fp-%02d/cc_ft_1536.jpg">`, i)
	}

	got := Extract(b.String())

	if len(got.Images) != 10 {
		t.Fatalf("expected 10 images, got %d", len(got.Images))
	}
	for i, url := range got.Images {
		if strings.Contains(url, "logo") {
			t.Errorf("image %d contains excluded marker: %s", i, url)
		}
		want := fmt.Sprintf("https://photos.zillowstatic.com/fp-%02d/cc_ft_1536.jpg", i)
		if url != want {
			t.Errorf("image %d = %s, want %s (document order)", i, url, want)
		}
	}
}

func TestExtractImagesHighResRewrite(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "low-res filename rewritten",
			html: `<img src="https://photos.zillowstatic.com/fp/abcdef.jpg">`,
			want: "https://photos.zillowstatic.com/fp/cc_ft_1536.jpg",
		},
		{
			name: "existing high-res untouched",
			html: `<img src="https://photos.zillowstatic.com/fp/cc_ft_768.webp">`,
			want: "https://photos.zillowstatic.com/fp/cc_ft_768.webp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.html)
			if len(got.Images) != 1 {
				t.Fatalf("expected 1 image, got %d", len(got.Images))
			}
			if diff := cmp.Diff(tt.want, got.Images[0]); diff != "" {
				t.Errorf("image URL mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractEmptyDocument(t *testing.T) {
	got := Extract("<html><head></head><body></body></html>")

	want := Fields{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("expected all-empty fields (-want +got):\n%s", diff)
	}
}
