package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/badbayesian/puppy-ping/app/listing"
)

func testProfile() listing.Profile {
	age := 4.5
	weight := 12.0
	rating := 3

	return listing.Profile{
		PetID:     12345,
		Species:   "dog",
		URL:       "https://example.org/showdog/12345",
		Name:      "Biscuit",
		Breed:     "Terrier Mix",
		Gender:    "Female",
		AgeRaw:    "4 months",
		AgeMonths: &age,
		WeightLbs: &weight,
		Location:  "Chicago",
		Status:    "Available",
		Ratings:   map[string]*int{"children": &rating, "dogs": nil},
		Description: "Biscuit is a sweet and playful puppy looking for an active " +
			"family. She loves long walks and belly rubs.",
		Media: listing.Media{
			Images: []string{
				"https://cdn.example.org/1.jpg",
				"https://cdn.example.org/2.jpg",
				"https://cdn.example.org/3.jpg",
				"https://cdn.example.org/4.jpg",
			},
		},
		ScrapedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildDigest_Subject(t *testing.T) {
	now := time.Date(2026, 3, 1, 14, 30, 0, 0, time.UTC)

	msg := BuildDigest([]listing.Profile{testProfile()}, now)

	if msg.Subject != "1 Adoptable Pets as of 2026-03-01 14" {
		t.Errorf("Unexpected subject: '%s'", msg.Subject)
	}
}

func TestBuildDigest_Empty(t *testing.T) {
	msg := BuildDigest(nil, time.Now())

	if !strings.Contains(msg.TextBody, "No profiles found.") {
		t.Errorf("Expected placeholder text body, got: %s", msg.TextBody)
	}
	if !strings.Contains(msg.HTMLBody, "No profiles found.") {
		t.Errorf("Expected placeholder HTML body")
	}
}

func TestBuildDigest_HTMLCard(t *testing.T) {
	msg := BuildDigest([]listing.Profile{testProfile()}, time.Now())

	for _, want := range []string{"Biscuit", "(#12345)", "Terrier Mix", "Chicago",
		"https://example.org/showdog/12345", "Children:"} {
		if !strings.Contains(msg.HTMLBody, want) {
			t.Errorf("Expected HTML body to contain '%s'", want)
		}
	}

	// Unknown ratings render as dashes
	if !strings.Contains(msg.HTMLBody, "<b>Dogs:</b> --") {
		t.Error("Expected unknown rating to render as '--'")
	}
}

func TestBuildDigest_LimitsInlineImages(t *testing.T) {
	msg := BuildDigest([]listing.Profile{testProfile()}, time.Now())

	if strings.Count(msg.HTMLBody, "<img ") != 3 {
		t.Errorf("Expected 3 inline images, got %d", strings.Count(msg.HTMLBody, "<img "))
	}
	if strings.Contains(msg.HTMLBody, "4.jpg") {
		t.Error("Expected fourth image to be dropped")
	}
}

func TestBuildDigest_TruncatesLongDescriptions(t *testing.T) {
	profile := testProfile()
	profile.Description = strings.Repeat("a", 700)

	msg := BuildDigest([]listing.Profile{profile}, time.Now())

	if strings.Contains(msg.HTMLBody, strings.Repeat("a", 650)) {
		t.Error("Expected long description to be truncated")
	}
	if !strings.Contains(msg.HTMLBody, "...") {
		t.Error("Expected ellipsis on truncated description")
	}
}

func TestBuildDigest_EscapesHTML(t *testing.T) {
	profile := testProfile()
	profile.Name = "<script>alert(1)</script>"

	msg := BuildDigest([]listing.Profile{profile}, time.Now())

	if strings.Contains(msg.HTMLBody, "<script>") {
		t.Error("Expected profile fields to be HTML-escaped")
	}
}

func TestBuildDigest_TextBodyUsesProfileString(t *testing.T) {
	msg := BuildDigest([]listing.Profile{testProfile()}, time.Now())

	if !strings.Contains(msg.TextBody, "PetProfile #12345") {
		t.Errorf("Expected text body to contain the profile rendering, got: %s", msg.TextBody)
	}
}
