package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/badbayesian/puppy-ping/app/listing"
)

const (
	maxInlineImages       = 3
	maxDescriptionLength  = 600
	notificationTimestamp = "2006-01-02 15"
)

// Message is a rendered digest ready to hand to a Mailer.
type Message struct {
	Subject  string
	TextBody string
	HTMLBody string
}

// BuildDigest renders the notification email for a batch of newly listed
// profiles, with a plain-text part and a styled HTML part.
func BuildDigest(profiles []listing.Profile, now time.Time) Message {
	ts := now.Format(notificationTimestamp)

	return Message{
		Subject:  fmt.Sprintf("%d Adoptable Pets as of %s", len(profiles), ts),
		TextBody: buildTextBody(profiles),
		HTMLBody: buildHTMLBody(profiles, ts),
	}
}

func buildTextBody(profiles []listing.Profile) string {
	if len(profiles) == 0 {
		return "No profiles found."
	}
	parts := make([]string, 0, len(profiles))
	for _, p := range profiles {
		parts = append(parts, p.String())
	}
	return strings.Join(parts, "\n\n")
}

func buildHTMLBody(profiles []listing.Profile, ts string) string {
	var cards strings.Builder
	for _, p := range profiles {
		cards.WriteString(buildCard(p))
	}

	body := cards.String()
	if body == "" {
		body = "<div>No profiles found.</div>"
	}

	return fmt.Sprintf(`<html>
  <body style="font-family:Arial,Helvetica,sans-serif;max-width:780px;margin:0 auto;padding:10px;">
    <h2 style="margin:8px 0;">Adoptable Pets</h2>
    <div style="color:#666;margin-bottom:14px;">%d profiles * generated %s</div>
    %s
  </body>
</html>`, len(profiles), html.EscapeString(ts), body)
}

func buildCard(p listing.Profile) string {
	var b strings.Builder

	b.WriteString(`<div style="border:1px solid #e5e5e5;border-radius:12px;padding:14px;margin:14px 0;">`)

	fmt.Fprintf(&b, `<div style="font-size:18px;font-weight:700;margin-bottom:6px;">%s <span style="color:#666;font-weight:400;">(#%d)</span></div>`,
		html.EscapeString(orDashes(p.Name)), p.PetID)

	b.WriteString(`<div style="color:#333;line-height:1.4;">`)
	fmt.Fprintf(&b, `<div><b>Breed:</b> %s</div>`, html.EscapeString(orDashes(p.Breed)))
	fmt.Fprintf(&b, `<div><b>Gender:</b> %s</div>`, html.EscapeString(orDashes(p.Gender)))
	fmt.Fprintf(&b, `<div><b>Age:</b> %s months</div>`, html.EscapeString(formatFloat(p.AgeMonths)))
	fmt.Fprintf(&b, `<div><b>Weight:</b> %s lbs</div>`, html.EscapeString(formatFloat(p.WeightLbs)))
	fmt.Fprintf(&b, `<div><b>Location:</b> %s</div>`, html.EscapeString(orDashes(p.Location)))
	fmt.Fprintf(&b, `<div><b>Status:</b> %s</div>`, html.EscapeString(orDashes(p.Status)))
	b.WriteString(`</div>`)

	b.WriteString(`<div style="margin-top:10px;"><div style="font-weight:700;">Ratings</div><ul style="margin:6px 0 0 18px;padding:0;">`)
	b.WriteString(buildRatings(p.Ratings))
	b.WriteString(`</ul></div>`)

	// Up to three images; clients often block remote images until the
	// reader opts in, so keep the card readable without them.
	for i, image := range p.Media.Images {
		if i >= maxInlineImages {
			break
		}
		fmt.Fprintf(&b, `<div style="margin:8px 0;"><img src="%s" style="max-width:480px;width:100%%;height:auto;border-radius:8px;" /></div>`,
			html.EscapeString(image))
	}

	fmt.Fprintf(&b, `<div style="margin-top:10px;"><div style="font-weight:700;">Profile</div><a href="%s">%s</a></div>`,
		html.EscapeString(p.URL), html.EscapeString(p.URL))

	fmt.Fprintf(&b, `<div style="margin-top:10px;color:#666;font-size:12px;">Scraped at: %s * Media: %s</div>`,
		html.EscapeString(p.ScrapedAt.UTC().Format(time.RFC3339)),
		html.EscapeString(p.Media.Summary()))

	if desc := truncateDescription(p.Description); desc != "" {
		fmt.Fprintf(&b, `<div style="margin-top:10px;"><div style="font-weight:700;">Notes</div><div style="white-space:pre-wrap;">%s</div></div>`,
			html.EscapeString(desc))
	}

	b.WriteString(`</div>`)
	return b.String()
}

func buildRatings(ratings map[string]*int) string {
	var b strings.Builder
	for _, category := range listing.RatingOrder {
		value, ok := ratings[category]
		if !ok {
			continue
		}
		label := strings.ReplaceAll(category, "_", " ")
		rendered := "--"
		if value != nil {
			rendered = fmt.Sprintf("%d", *value)
		}
		fmt.Fprintf(&b, `<li><b>%s:</b> %s</li>`, html.EscapeString(titleWords(label)), html.EscapeString(rendered))
	}
	if b.Len() == 0 {
		return "<li>--</li>"
	}
	return b.String()
}

func truncateDescription(desc string) string {
	desc = strings.TrimSpace(desc)
	if len(desc) > maxDescriptionLength {
		desc = strings.TrimRight(desc[:maxDescriptionLength-1], " ") + "..."
	}
	return desc
}

func orDashes(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

func formatFloat(v *float64) string {
	if v == nil {
		return "--"
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", *v), "0"), ".")
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
