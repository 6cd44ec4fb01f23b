package listing

import (
	"strings"
	"testing"
	"time"
)

func TestProfile_YoungerThan(t *testing.T) {
	age := 6.0
	profile := Profile{AgeMonths: &age}

	if !profile.YoungerThan(8) {
		t.Error("Expected 6 months to be younger than 8")
	}
	if profile.YoungerThan(6) {
		t.Error("Expected 6 months to not be younger than 6")
	}

	unknown := Profile{}
	if unknown.YoungerThan(8) {
		t.Error("Expected unknown age to never match")
	}
}

func TestProfile_String(t *testing.T) {
	age := 4.0
	rating := 3

	profile := Profile{
		PetID:     12345,
		Species:   "dog",
		URL:       "https://example.org/showdog/12345",
		Name:      "Biscuit",
		Breed:     "Terrier Mix",
		AgeMonths: &age,
		Ratings:   map[string]*int{"children": &rating, "cats": nil},
		ScrapedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	rendered := profile.String()

	for _, want := range []string{"PetProfile #12345", "Biscuit", "Terrier Mix",
		"Children: 3", "Cats: --", "https://example.org/showdog/12345"} {
		if !strings.Contains(rendered, want) {
			t.Errorf("Expected rendering to contain '%s':\n%s", want, rendered)
		}
	}

	// Unset fields render as dashes
	if !strings.Contains(rendered, "Gender     : --") {
		t.Error("Expected missing gender to render as '--'")
	}
}

func TestMedia_Summary(t *testing.T) {
	media := Media{Images: []string{"a", "b"}, Videos: []string{"c"}}
	if got := media.Summary(); got != "2 images, 1 videos, 0 embeds" {
		t.Errorf("Unexpected summary: '%s'", got)
	}
}

func TestSortLinks(t *testing.T) {
	links := []string{"c", "a", "b"}

	sorted := SortLinks(links)

	if sorted[0] != "a" || sorted[1] != "b" || sorted[2] != "c" {
		t.Errorf("Expected sorted output, got %v", sorted)
	}
	if links[0] != "c" {
		t.Error("Expected input slice to be left untouched")
	}
}
