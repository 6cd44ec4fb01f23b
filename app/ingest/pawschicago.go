package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/badbayesian/puppy-ping/app/listing"
)

const (
	pawsAvailableURL     = "https://www.pawschicago.org/our-work/pets-adoption/pets-available"
	pawsCantoImagePrefix = "https://pawschicago.canto.com/direct/image/"
)

var (
	pawsProfilePathRe = regexp.MustCompile(`^/pet-available-for-adoption/showdog/\d+$`)
	pawsProfileIDRe   = regexp.MustCompile(`/showdog/(\d+)`)
)

var _ Provider = (*PawsChicagoProvider)(nil)

// PawsChicagoProvider scrapes the PAWS Chicago adoptables site. Profile pages
// are label/value formatted with 1-5 rating widgets and Canto-hosted photos.
type PawsChicagoProvider struct {
	client *client
}

func NewPawsChicagoProvider(client *client) *PawsChicagoProvider {
	return &PawsChicagoProvider{client: client}
}

func (p *PawsChicagoProvider) FetchLinks(ctx context.Context) ([]string, error) {
	doc, err := p.client.fetchDocument(ctx, pawsAvailableURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch PAWS adoptables page: %w", err)
	}

	links := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if pawsProfilePathRe.MatchString(href) {
			links[resolveURL(pawsAvailableURL, href)] = true
		}
	})

	return sortedKeys(links), nil
}

func (p *PawsChicagoProvider) FetchProfile(ctx context.Context, link string) (listing.Profile, error) {
	m := pawsProfileIDRe.FindStringSubmatch(link)
	if m == nil {
		return listing.Profile{}, fmt.Errorf("missing pet id in PAWS profile URL: %s", link)
	}
	petID, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return listing.Profile{}, fmt.Errorf("invalid pet id in PAWS profile URL: %s", link)
	}

	doc, err := p.client.fetchDocument(ctx, link)
	if err != nil {
		return listing.Profile{}, fmt.Errorf("failed to fetch PAWS profile: %w", err)
	}

	text := pageText(doc)
	ageRaw := findLabelValue(text, "Age")

	return listing.Profile{
		PetID:       petID,
		Species:     "dog",
		URL:         link,
		Name:        pageName(doc),
		Breed:       findLabelValue(text, "Breed"),
		Gender:      findLabelValue(text, "Gender"),
		AgeRaw:      ageRaw,
		AgeMonths:   parseAgeToMonths(ageRaw),
		WeightLbs:   parseWeightLbs(findLabelValue(text, "Weight")),
		Location:    findLabelValue(text, "Location"),
		Status:      findLabelValue(text, "Status"),
		Ratings:     extractRatings(doc),
		Description: extractDescription(doc, 80),
		Media:       extractMedia(doc, link, pawsCantoImagePrefix),
		ScrapedAt:   time.Now().UTC(),
	}, nil
}
