package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/badbayesian/puppy-ping/app/listing"
)

const wrightWayStartURL = "https://wright-wayrescue.org/adoptable-pets"

var (
	wrightWayProfileRe = regexp.MustCompile(`(?i)wsAdoptableAnimalDetails\.aspx`)
	wrightWayMeetRe    = regexp.MustCompile(`(?i)\bMeet\s+(.+?)(?:[.!-]|$)`)
	wrightWayDigitsRe  = regexp.MustCompile(`\d+`)
)

var wrightWayLabels = []string{"Animal ID", "Breed", "Gender", "Age", "Location", "Stage"}

var _ Provider = (*WrightWayProvider)(nil)

// WrightWayProvider scrapes Wright-Way Rescue's adoptables, which are served
// through an embedded Petango listing iframe. Profile pages are table-based
// label/value layouts.
type WrightWayProvider struct {
	client *client
}

func NewWrightWayProvider(client *client) *WrightWayProvider {
	return &WrightWayProvider{client: client}
}

func (p *WrightWayProvider) FetchLinks(ctx context.Context) ([]string, error) {
	doc, err := p.client.fetchDocument(ctx, wrightWayStartURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Wright-Way adoptables page: %w", err)
	}

	iframeSrc, ok := doc.Find("iframe").First().Attr("src")
	if !ok || iframeSrc == "" {
		return nil, fmt.Errorf("Petango iframe not found on Wright-Way adoptables page")
	}

	listingURL := resolveURL(wrightWayStartURL, iframeSrc)
	listingDoc, err := p.client.fetchDocument(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Petango listing page: %w", err)
	}

	links := make(map[string]bool)
	listingDoc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if wrightWayProfileRe.MatchString(href) {
			links[resolveURL(listingURL, href)] = true
		}
	})

	return sortedKeys(links), nil
}

func (p *WrightWayProvider) FetchProfile(ctx context.Context, link string) (listing.Profile, error) {
	doc, err := p.client.fetchDocument(ctx, link)
	if err != nil {
		return listing.Profile{}, fmt.Errorf("failed to fetch Wright-Way profile: %w", err)
	}

	labels := wrightWayLabelValues(doc)
	description := wrightWayDescription(doc)
	ageRaw := labels["Age"]

	petID, err := wrightWayPetID(link, labels)
	if err != nil {
		return listing.Profile{}, err
	}

	return listing.Profile{
		PetID:       petID,
		Species:     "dog",
		URL:         link,
		Name:        wrightWayName(doc, description),
		Breed:       labels["Breed"],
		Gender:      labels["Gender"],
		AgeRaw:      ageRaw,
		AgeMonths:   parseAgeToMonths(ageRaw),
		Location:    labels["Location"],
		Status:      labels["Stage"],
		Ratings:     map[string]*int{},
		Description: description,
		Media:       extractMedia(doc, link, ""),
		ScrapedAt:   time.Now().UTC(),
	}, nil
}

// wrightWayLabelValues reads label/value pairs from table rows first, then
// falls back to "Label: Value" lines in the page text.
func wrightWayLabelValues(doc *goquery.Document) map[string]string {
	labels := make(map[string]string)

	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td, th")
		if cells.Length() < 2 {
			return
		}
		key := strings.TrimSuffix(cleanText(cells.Eq(0).Text()), ":")
		value := cleanText(cells.Eq(1).Text())
		if key != "" && value != "" {
			labels[key] = value
		}
	})

	text := pageText(doc)
	for _, label := range wrightWayLabels {
		if _, ok := labels[label]; ok {
			continue
		}
		if value := findLabelValue(text, label); value != "" {
			labels[label] = value
		}
	}

	return labels
}

// wrightWayDescription returns the first text block long enough to be the
// profile write-up.
func wrightWayDescription(doc *goquery.Document) string {
	description := ""
	doc.Find("p, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := cleanText(sel.Text())
		if len(text) >= 120 {
			description = text
			return false
		}
		return true
	})
	return description
}

// wrightWayName tries headings first, then the "Meet <name>" phrasing inside
// the description.
func wrightWayName(doc *goquery.Document, description string) string {
	for _, selector := range []string{"h1", ".petName", ".pet-name", "title"} {
		node := doc.Find(selector).First()
		if node.Length() == 0 {
			continue
		}
		candidate, _, _ := strings.Cut(node.Text(), "|")
		if cleaned := cleanText(candidate); cleaned != "" {
			return cleaned
		}
	}

	if description != "" {
		cleaned := cleanText(strings.ReplaceAll(description,
			"Click a number to change picture or play to see a video", ""))
		if m := wrightWayMeetRe.FindStringSubmatch(cleaned); m != nil {
			return cleanText(m[1])
		}
	}
	return ""
}

// wrightWayPetID prefers the "Animal ID" label, falling back to the numeric
// query parameter in the Petango URL.
func wrightWayPetID(link string, labels map[string]string) (int64, error) {
	if raw, ok := labels["Animal ID"]; ok {
		if m := wrightWayDigitsRe.FindString(raw); m != "" {
			if id, err := strconv.ParseInt(m, 10, 64); err == nil {
				return id, nil
			}
		}
	}

	if m := wrightWayDigitsRe.FindAllString(link, -1); len(m) > 0 {
		if id, err := strconv.ParseInt(m[len(m)-1], 10, 64); err == nil {
			return id, nil
		}
	}

	return 0, fmt.Errorf("missing pet id for Wright-Way profile: %s", link)
}
