package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/badbayesian/puppy-ping/app/listing"
)

const (
	antiCrueltyStartURL       = "https://anticruelty.org/adoptable"
	defaultShelterLuvDomain   = "https://new.shelterluv.com"
	defaultAntiCrueltyShelter = 100000846
)

var (
	antiCrueltyDomainRe = regexp.MustCompile(`(?i)https?://[^"' ]*shelterluv\.com`)
	numericSuffixRe     = regexp.MustCompile(`(\d+)$`)
)

var _ Provider = (*AntiCrueltyProvider)(nil)

// AntiCrueltyProvider reads the Anti-Cruelty Society's adoptables through the
// ShelterLuv JSON API embedded on their site. Profile pages carry the full
// animal payload in an <iframe-animal :animal="..."> attribute.
type AntiCrueltyProvider struct {
	client *client
}

func NewAntiCrueltyProvider(client *client) *AntiCrueltyProvider {
	return &AntiCrueltyProvider{client: client}
}

type shelterLuvAnimal struct {
	NID               json.Number     `json:"nid"`
	UniqueID          string          `json:"uniqueId"`
	PublicURL         string          `json:"public_url"`
	Name              string          `json:"name"`
	Species           string          `json:"species"`
	Breed             string          `json:"breed"`
	Sex               string          `json:"sex"`
	Weight            string          `json:"weight"`
	WeightGroup       string          `json:"weight_group"`
	Location          string          `json:"location"`
	Adoptable         any             `json:"adoptable"`
	Birthday          json.Number     `json:"birthday"`
	AgeGroup          *shelterLuvAge  `json:"age_group"`
	KennelDescription string          `json:"kennel_description"`
	Photos            json.RawMessage `json:"photos"`
	Videos            json.RawMessage `json:"videos"`
}

type shelterLuvAge struct {
	Name             string      `json:"name"`
	Duration         string      `json:"duration"`
	NameWithDuration string      `json:"name_with_duration"`
	AgeFrom          json.Number `json:"age_from"`
	FromUnit         string      `json:"from_unit"`
	AgeTo            json.Number `json:"age_to"`
	ToUnit           string      `json:"to_unit"`
}

type shelterLuvMedia struct {
	URL         string      `json:"url"`
	OrderColumn json.Number `json:"order_column"`
}

type shelterLuvAnimalsResponse struct {
	Animals []shelterLuvAnimal `json:"animals"`
}

func (p *AntiCrueltyProvider) FetchLinks(ctx context.Context) ([]string, error) {
	sourceDomain := defaultShelterLuvDomain

	doc, err := p.client.fetchDocument(ctx, antiCrueltyStartURL)
	if err == nil {
		if m := antiCrueltyDomainRe.FindString(docText(doc)); m != "" {
			sourceDomain = m
		}
	}

	endpoint := fmt.Sprintf("%s/api/v3/available-animals/%d",
		strings.TrimRight(sourceDomain, "/"), defaultAntiCrueltyShelter)

	var payload shelterLuvAnimalsResponse
	if err := p.client.fetchJSON(ctx, endpoint, url.Values{"defaultSort": {"random"}}, &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch ShelterLuv animals: %w", err)
	}

	links := make(map[string]bool)
	for _, animal := range payload.Animals {
		if !isAdoptable(animal.Adoptable) {
			continue
		}
		if link := publicURLForAnimal(animal, sourceDomain); link != "" {
			links[link] = true
		}
	}

	if len(links) == 0 {
		return nil, fmt.Errorf("no adoptable Anti-Cruelty links were discovered")
	}

	return sortedKeys(links), nil
}

func (p *AntiCrueltyProvider) FetchProfile(ctx context.Context, link string) (listing.Profile, error) {
	doc, err := p.client.fetchDocument(ctx, link)
	if err != nil {
		return listing.Profile{}, fmt.Errorf("failed to fetch Anti-Cruelty profile: %w", err)
	}

	payload, ok := doc.Find("iframe-animal").First().Attr(":animal")
	payload = strings.TrimSpace(payload)
	if !ok || payload == "" {
		return listing.Profile{}, fmt.Errorf("missing ShelterLuv animal payload for URL: %s", link)
	}

	var animal shelterLuvAnimal
	if err := json.Unmarshal([]byte(payload), &animal); err != nil {
		if err := json.Unmarshal([]byte(html.UnescapeString(payload)), &animal); err != nil {
			return listing.Profile{}, fmt.Errorf("invalid animal payload for URL %s: %w", link, err)
		}
	}

	petID, err := extractAnimalID(animal, link)
	if err != nil {
		return listing.Profile{}, err
	}

	ageMonths := ageMonthsFromBirthday(animal.Birthday)
	if ageMonths == nil {
		ageMonths = ageMonthsFromAgeGroup(animal.AgeGroup)
	}
	ageRaw := ageRawFromMonths(ageMonths)
	if ageRaw == "" {
		ageRaw = ageRawFromAgeGroup(animal.AgeGroup)
	}

	status := "Available"
	if !isAdoptable(animal.Adoptable) {
		status = "Unavailable"
	}

	weightRaw := animal.Weight
	if weightRaw == "" {
		weightRaw = animal.WeightGroup
	}

	return listing.Profile{
		PetID:       petID,
		Species:     normalizeSpecies(animal.Species),
		URL:         link,
		Name:        cleanText(animal.Name),
		Breed:       cleanText(animal.Breed),
		Gender:      cleanText(animal.Sex),
		AgeRaw:      ageRaw,
		AgeMonths:   ageMonths,
		WeightLbs:   parseWeightLbs(weightRaw),
		Location:    cleanText(animal.Location),
		Status:      status,
		Ratings:     map[string]*int{},
		Description: kennelDescription(animal.KennelDescription),
		Media: listing.Media{
			Images: mediaURLs(animal.Photos, true),
			Videos: mediaURLs(animal.Videos, false),
			Embeds: []string{},
		},
		ScrapedAt: time.Now().UTC(),
	}, nil
}

func docText(doc *goquery.Document) string {
	var b strings.Builder
	b.WriteString(doc.Text())
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		b.WriteString(sel.Text())
	})
	return b.String()
}

func isAdoptable(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "0" && t != "false" && t != ""
	case nil:
		return true
	}
	return true
}

func publicURLForAnimal(animal shelterLuvAnimal, sourceDomain string) string {
	if link := strings.TrimSpace(animal.PublicURL); link != "" {
		return link
	}
	if uniqueID := strings.TrimSpace(animal.UniqueID); uniqueID != "" {
		return fmt.Sprintf("%s/embed/animal/%s", strings.TrimRight(sourceDomain, "/"), uniqueID)
	}
	return ""
}

// extractAnimalID pulls a numeric pet id from the unique id or URL suffix,
// falling back to the nid field.
func extractAnimalID(animal shelterLuvAnimal, link string) (int64, error) {
	for _, candidate := range []string{animal.UniqueID, link} {
		if m := numericSuffixRe.FindStringSubmatch(strings.TrimSpace(candidate)); m != nil {
			if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return id, nil
			}
		}
	}
	if id, err := animal.NID.Int64(); err == nil && id > 0 {
		return id, nil
	}
	return 0, fmt.Errorf("missing numeric pet id for Anti-Cruelty profile: %s", link)
}

func normalizeSpecies(value string) string {
	text := strings.ToLower(cleanText(value))
	if text == "dog" || text == "cat" {
		return text
	}
	if text == "" {
		return "unknown"
	}
	return text
}

// ageMonthsFromBirthday computes approximate age from a unix timestamp
// birthday. Some feeds provide milliseconds.
func ageMonthsFromBirthday(birthday json.Number) *float64 {
	raw := strings.TrimSpace(birthday.String())
	if raw == "" {
		return nil
	}
	ts, err := strconv.ParseFloat(raw, 64)
	if err != nil || ts <= 0 {
		return nil
	}
	if ts > 1_000_000_000_000 {
		ts = ts / 1000.0
	}

	born := time.Unix(int64(ts), 0).UTC()
	now := time.Now().UTC()
	if born.After(now) {
		return nil
	}

	months := roundTo(now.Sub(born).Hours()/(24*30.4375), 2)
	return &months
}

func unitToMonths(value json.Number, unit string) *float64 {
	amount, err := strconv.ParseFloat(strings.TrimSpace(value.String()), 64)
	if err != nil {
		return nil
	}
	normalized := strings.ToLower(cleanText(unit))
	switch {
	case strings.HasPrefix(normalized, "day"):
		amount = amount / 30.4375
	case strings.HasPrefix(normalized, "week"):
		amount = amount * 7 / 30.4375
	case strings.HasPrefix(normalized, "year"):
		amount = amount * 12
	}
	rounded := roundTo(amount, 2)
	return &rounded
}

// ageMonthsFromAgeGroup estimates age from ShelterLuv age-group bounds,
// preferring the upper bound.
func ageMonthsFromAgeGroup(group *shelterLuvAge) *float64 {
	if group == nil {
		return nil
	}
	if to := unitToMonths(group.AgeTo, group.ToUnit); to != nil && *to > 0 {
		return to
	}
	if from := unitToMonths(group.AgeFrom, group.FromUnit); from != nil && *from > 0 {
		return from
	}
	return nil
}

func ageRawFromAgeGroup(group *shelterLuvAge) string {
	if group == nil {
		return ""
	}
	if text := cleanText(group.NameWithDuration); text != "" {
		return text
	}
	name := cleanText(group.Name)
	duration := cleanText(group.Duration)
	if name != "" && duration != "" {
		return name + " " + duration
	}
	return name
}

func ageRawFromMonths(ageMonths *float64) string {
	if ageMonths == nil || *ageMonths < 0 {
		return ""
	}
	totalMonths := int(*ageMonths)
	years := totalMonths / 12
	months := totalMonths % 12

	yearLabel := "years"
	if years == 1 {
		yearLabel = "year"
	}
	monthLabel := "months"
	if months == 1 {
		monthLabel = "month"
	}

	switch {
	case years > 0 && months > 0:
		return fmt.Sprintf("%d %s %d %s", years, yearLabel, months, monthLabel)
	case years > 0:
		return fmt.Sprintf("%d %s", years, yearLabel)
	}
	return fmt.Sprintf("%d %s", months, monthLabel)
}

func kennelDescription(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return cleanText(raw)
	}
	return cleanText(doc.Text())
}

// mediaURLs decodes a ShelterLuv media collection, which is served either as
// a list or as a numerically keyed object.
func mediaURLs(raw json.RawMessage, ordered bool) []string {
	items := decodeMediaItems(raw)

	if ordered {
		sort.SliceStable(items, func(i, j int) bool {
			a, _ := items[i].OrderColumn.Int64()
			b, _ := items[j].OrderColumn.Int64()
			return a < b
		})
	}

	var urls []string
	seen := make(map[string]bool)
	for _, item := range items {
		u := strings.TrimSpace(item.URL)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}

	if !ordered {
		urls = listing.SortLinks(urls)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls
}

func decodeMediaItems(raw json.RawMessage) []shelterLuvMedia {
	if len(raw) == 0 {
		return nil
	}

	var asList []shelterLuvMedia
	if err := json.Unmarshal(raw, &asList); err == nil {
		return asList
	}

	var asMap map[string]shelterLuvMedia
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil
	}

	keys := make([]string, 0, len(asMap))
	for k := range asMap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if errA == nil {
			return true
		}
		if errB == nil {
			return false
		}
		return keys[i] < keys[j]
	})

	items := make([]shelterLuvMedia, 0, len(keys))
	for _, k := range keys {
		items = append(items, asMap[k])
	}
	return items
}
