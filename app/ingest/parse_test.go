package ingest

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustParse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func TestCleanText(t *testing.T) {
	if got := cleanText("  hello \n\t world  "); got != "hello world" {
		t.Errorf("Expected 'hello world', got '%s'", got)
	}
}

func TestParseAgeToMonths(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"2 years", 24},
		{"1 year 6 months", 18},
		{"3 months", 3},
		{"6 weeks", 1.4},
		{"15 days", 0.5},
		{"2 Years 3 Months", 27},
		{"1.5 years", 18},
	}

	for _, tt := range tests {
		got := parseAgeToMonths(tt.input)
		if got == nil {
			t.Errorf("parseAgeToMonths(%q) returned nil", tt.input)
			continue
		}
		if *got != tt.expected {
			t.Errorf("parseAgeToMonths(%q) = %v, expected %v", tt.input, *got, tt.expected)
		}
	}
}

func TestParseAgeToMonths_Unparseable(t *testing.T) {
	for _, input := range []string{"", "unknown", "young adult"} {
		if got := parseAgeToMonths(input); got != nil {
			t.Errorf("parseAgeToMonths(%q) = %v, expected nil", input, *got)
		}
	}
}

func TestParseWeightLbs(t *testing.T) {
	got := parseWeightLbs("12.5 lbs")
	if got == nil || *got != 12.5 {
		t.Errorf("Expected 12.5, got %v", got)
	}

	if got := parseWeightLbs("unknown"); got != nil {
		t.Errorf("Expected nil for unparseable weight, got %v", *got)
	}
}

func TestPageName(t *testing.T) {
	doc := mustParse(t, "<html><head><title>Biscuit | PAWS Chicago</title></head><body></body></html>")
	if got := pageName(doc); got != "Biscuit" {
		t.Errorf("Expected 'Biscuit', got '%s'", got)
	}
}

func TestFindLabelValue(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<div><span>Breed: Terrier Mix</span></div>
		<div><span>Age</span></div>
		<div><span>2 years</span></div>
		<div><span>Gender: Female</span></div>
	</body></html>`)

	text := pageText(doc)

	if got := findLabelValue(text, "Breed"); got != "Terrier Mix" {
		t.Errorf("Expected 'Terrier Mix', got '%s'", got)
	}
	if got := findLabelValue(text, "Gender"); got != "Female" {
		t.Errorf("Expected 'Female', got '%s'", got)
	}
	if got := findLabelValue(text, "Missing"); got != "" {
		t.Errorf("Expected empty value for missing label, got '%s'", got)
	}
}

func TestExtractRatings(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<div class="children"><span class="rating_default"><span class="active r4"></span></span></div>
		<div class="dogs"><span class="rating_default"><span class="active r2"></span></span></div>
	</body></html>`)

	ratings := extractRatings(doc)

	if ratings["children"] == nil || *ratings["children"] != 4 {
		t.Errorf("Expected children rating 4, got %v", ratings["children"])
	}
	if ratings["dogs"] == nil || *ratings["dogs"] != 2 {
		t.Errorf("Expected dogs rating 2, got %v", ratings["dogs"])
	}
	if ratings["cats"] != nil {
		t.Errorf("Expected missing cats rating to be nil, got %v", *ratings["cats"])
	}
}

func TestExtractDescription(t *testing.T) {
	long := strings.Repeat("Biscuit loves walks. ", 10)
	doc := mustParse(t, "<html><body><p>Short.</p><p>"+long+"</p></body></html>")

	got := extractDescription(doc, 80)
	if !strings.HasPrefix(got, "Biscuit loves walks.") {
		t.Errorf("Expected the long paragraph, got '%s'", got)
	}
}

func TestExtractMedia(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<img src="https://cdn.example.org/direct/image/a.jpg" />
		<img src="/logo.png" />
		<video src="/clip.mp4"></video>
		<iframe src="https://player.example.org/embed/1"></iframe>
		<a href="/video.mov">watch</a>
	</body></html>`)

	media := extractMedia(doc, "https://example.org/showdog/1", "https://cdn.example.org/direct/image/")

	if len(media.Images) != 1 || media.Images[0] != "https://cdn.example.org/direct/image/a.jpg" {
		t.Errorf("Expected only the CDN image, got %v", media.Images)
	}
	if len(media.Videos) != 2 {
		t.Errorf("Expected 2 videos, got %v", media.Videos)
	}
	if len(media.Embeds) != 1 {
		t.Errorf("Expected 1 embed, got %v", media.Embeds)
	}
}

func TestExtractMedia_NoPrefixKeepsAllImages(t *testing.T) {
	doc := mustParse(t, `<html><body>
		<img src="https://cdn.example.org/a.jpg" />
		<img src="/local.png" />
	</body></html>`)

	media := extractMedia(doc, "https://example.org/page", "")

	if len(media.Images) != 2 {
		t.Errorf("Expected 2 images without a prefix filter, got %v", media.Images)
	}
}

func TestResolveURL(t *testing.T) {
	got := resolveURL("https://example.org/pets/", "../showdog/1")
	if got != "https://example.org/showdog/1" {
		t.Errorf("Expected resolved URL, got '%s'", got)
	}

	absolute := resolveURL("https://example.org/", "https://other.org/x")
	if absolute != "https://other.org/x" {
		t.Errorf("Expected absolute URL to pass through, got '%s'", absolute)
	}
}
