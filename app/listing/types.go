package listing

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Media holds the media URLs collected from a profile page.
type Media struct {
	Images []string `json:"images"`
	Videos []string `json:"videos"`
	Embeds []string `json:"embeds"`
}

func (m Media) Summary() string {
	return fmt.Sprintf("%d images, %d videos, %d embeds", len(m.Images), len(m.Videos), len(m.Embeds))
}

// Profile is one parsed adoptable-pet listing as returned by a provider.
// PetID is the source-assigned numeric identifier; together with Species it
// forms the listing identity used by snapshots and notification bookkeeping.
type Profile struct {
	PetID   int64
	Species string
	URL     string

	Name      string
	Breed     string
	Gender    string
	AgeRaw    string
	AgeMonths *float64
	WeightLbs *float64

	Location    string
	Status      string
	Ratings     map[string]*int
	Description string
	Media       Media

	ScrapedAt time.Time
}

// YoungerThan reports whether the profile has a known age below the given
// number of months. Unknown ages never match.
func (p Profile) YoungerThan(months float64) bool {
	return p.AgeMonths != nil && *p.AgeMonths < months
}

// RatingOrder is the display order for rating categories.
var RatingOrder = []string{"children", "dogs", "cats", "home_alone", "activity", "environment"}

func (p Profile) String() string {
	fmtVal := func(v any) string {
		switch t := v.(type) {
		case *float64:
			if t == nil {
				return "--"
			}
			return fmt.Sprintf("%g", *t)
		case string:
			if t == "" {
				return "--"
			}
			return t
		}
		return "--"
	}

	var ratings []string
	for _, k := range RatingOrder {
		v, ok := p.Ratings[k]
		if !ok {
			continue
		}
		label := titleCase(strings.ReplaceAll(k, "_", " "))
		if v == nil {
			ratings = append(ratings, fmt.Sprintf("%s: --", label))
		} else {
			ratings = append(ratings, fmt.Sprintf("%s: %d", label, *v))
		}
	}
	ratingsStr := strings.Join(ratings, ", ")
	if ratingsStr == "" {
		ratingsStr = "--"
	}

	return fmt.Sprintf(
		"PetProfile #%d\n%s\n"+
			"Name       : %s\n"+
			"Breed      : %s\n"+
			"Gender     : %s\n"+
			"Age        : %s months\n"+
			"Weight     : %s lbs\n"+
			"Location   : %s\n"+
			"Status     : %s\n\n"+
			"Ratings    : %s\n"+
			"Media      : %s\n\n"+
			"URL        : %s\n"+
			"Scraped At : %s\n",
		p.PetID, strings.Repeat("-", 88),
		fmtVal(p.Name), fmtVal(p.Breed), fmtVal(p.Gender),
		fmtVal(p.AgeMonths), fmtVal(p.WeightLbs),
		fmtVal(p.Location), fmtVal(p.Status),
		ratingsStr, p.Media.Summary(),
		p.URL, p.ScrapedAt.UTC().Format(time.RFC3339),
	)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// SortLinks returns the links in deterministic order. Providers return sets;
// downstream logging and tests want stable iteration.
func SortLinks(links []string) []string {
	sorted := make([]string, len(links))
	copy(sorted, links)
	sort.Strings(sorted)
	return sorted
}
