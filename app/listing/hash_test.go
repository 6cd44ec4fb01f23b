package listing

import (
	"testing"
)

func TestLinkID_Deterministic(t *testing.T) {
	link := "https://example.org/pet-available-for-adoption/showdog/12345"

	first := LinkID(link)
	second := LinkID(link)

	if first != second {
		t.Errorf("Expected identical IDs for the same link, got %d and %d", first, second)
	}
}

func TestLinkID_DifferentLinks(t *testing.T) {
	a := LinkID("https://example.org/showdog/1")
	b := LinkID("https://example.org/showdog/2")

	if a == b {
		t.Errorf("Expected different IDs for different links, both %d", a)
	}
}

func TestStatusID_DependsOnSource(t *testing.T) {
	link := "https://example.org/showdog/1"

	a := StatusID("paws_chicago", link)
	b := StatusID("wright_way", link)

	if a == b {
		t.Errorf("Expected different IDs for different sources, both %d", a)
	}
}

func TestStatusID_SeparatorPreventsCollisions(t *testing.T) {
	// "ab" + "c" must not collide with "a" + "bc"
	a := StatusID("ab", "c")
	b := StatusID("a", "bc")

	if a == b {
		t.Errorf("Expected source/link separator to prevent collisions, both %d", a)
	}
}
