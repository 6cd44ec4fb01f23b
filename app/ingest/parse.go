package ingest

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/badbayesian/puppy-ping/app/listing"
)

// Shared extraction helpers for label-based shelter profile pages.

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	yearsRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*years?`)
	monthsRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*months?`)
	weeksRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*weeks?`)
	daysRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*days?`)
	numberRe     = regexp.MustCompile(`(\d+(?:\.\d+)?)`)
	ratingRe     = regexp.MustCompile(`\br(\d)\b`)
)

func cleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// parseAgeToMonths converts age text like "2 years 3 months" or "6 weeks"
// into total months. Weeks and days are approximated against a 30-day month.
func parseAgeToMonths(age string) *float64 {
	s := strings.ToLower(age)

	grab := func(re *regexp.Regexp) float64 {
		total := 0.0
		for _, m := range re.FindAllStringSubmatch(s, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			total += v
		}
		return total
	}

	total := grab(yearsRe)*12 + grab(monthsRe) + grab(weeksRe)*(7.0/30) + grab(daysRe)*(1.0/30)
	if total <= 0 {
		return nil
	}

	rounded := roundTo(total, 2)
	return &rounded
}

// parseWeightLbs parses the first numeric value from weight text.
func parseWeightLbs(raw string) *float64 {
	m := numberRe.FindStringSubmatch(raw)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &v
}

func roundTo(v float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	if v >= 0 {
		return float64(int64(v*shift+0.5)) / shift
	}
	return float64(int64(v*shift-0.5)) / shift
}

// pageName extracts a name from the page title, trimming site suffixes after
// the first pipe.
func pageName(doc *goquery.Document) string {
	title := cleanText(doc.Find("title").First().Text())
	name, _, _ := strings.Cut(title, "|")
	return strings.TrimSpace(name)
}

// findLabelValue finds "Label: Value" lines in the page text.
func findLabelValue(pageText, label string) string {
	for _, line := range strings.Split(pageText, "\n") {
		line = strings.TrimSpace(line)
		rest, ok := cutPrefixFold(line, label)
		if !ok {
			continue
		}
		rest = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest), ":"))
		if rest != "" {
			return cleanText(rest)
		}
	}
	return ""
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// pageText renders the document's text with one node per line, mirroring how
// label/value pairs appear on shelter pages.
func pageText(doc *goquery.Document) string {
	var b strings.Builder
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		text := cleanText(sel.Text())
		if text != "" {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	})
	return b.String()
}

// extractRatings reads the 1-5 rating widgets from a profile page. A missing
// widget yields a nil entry so the category still renders as unknown.
func extractRatings(doc *goquery.Document) map[string]*int {
	ratings := make(map[string]*int, len(listing.RatingOrder))
	for _, category := range listing.RatingOrder {
		ratings[category] = extractSingleRating(doc, category)
	}
	return ratings
}

func extractSingleRating(doc *goquery.Document, category string) *int {
	active := doc.Find("div." + category + " span.rating_default span.active").First()
	class, ok := active.Attr("class")
	if !ok {
		return nil
	}
	m := ratingRe.FindStringSubmatch(class)
	if m == nil {
		return nil
	}
	v, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &v
}

// extractDescription returns the first paragraph long enough to be prose.
func extractDescription(doc *goquery.Document, minLength int) string {
	description := ""
	doc.Find("p").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := cleanText(sel.Text())
		if len(text) >= minLength {
			description = text
			return false
		}
		return true
	})
	return description
}

// extractMedia collects image, video, and embed URLs from a profile page.
// imagePrefix, when non-empty, keeps only CDN-hosted listing photos and
// drops site chrome.
func extractMedia(doc *goquery.Document, pageURL, imagePrefix string) listing.Media {
	images := make(map[string]bool)
	videos := make(map[string]bool)
	embeds := make(map[string]bool)

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		resolved := resolveURL(pageURL, src)
		if imagePrefix == "" || strings.HasPrefix(resolved, imagePrefix) {
			images[resolved] = true
		}
	})

	doc.Find("video[src], video source[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		videos[resolveURL(pageURL, src)] = true
	})

	doc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		embeds[resolveURL(pageURL, src)] = true
	})

	videoExtRe := regexp.MustCompile(`(?i)\.(mp4|mov|m4v)$`)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if videoExtRe.MatchString(href) {
			videos[resolveURL(pageURL, href)] = true
		}
	})

	return listing.Media{
		Images: sortedKeys(images),
		Videos: sortedKeys(videos),
		Embeds: sortedKeys(embeds),
	}
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	return listing.SortLinks(keys)
}
