package content

import (
	"fmt"
	"strings"

	"github.com/unclebandit/listing-campaigns/internal/model"
)

// BuildHashtags returns the deterministic tag set for a listing. The order
// is status, city, state, size/price, generic. Duplicates are removed
// case-insensitively and the result is cut to max. Tags carry no '#'.
func BuildHashtags(l *model.Listing, status model.ListingStatus, max int) []string {
	var tags []string
	if st, ok := statusTags[status]; ok {
		tags = append(tags, st[:]...)
	} else {
		tags = append(tags, hashtagWord(status.Banner()), "ForSale", "NewOnTheMarket")
	}

	if city := hashtagWord(l.City); city != "" {
		tags = append(tags, city+"RealEstate", city+"Homes")
	}
	if state := hashtagWord(l.State); state != "" {
		tags = append(tags, state+"RealEstate")
	}

	if l.Bedrooms >= largeHomeBedrooms {
		tags = append(tags, "LargeHome")
	}
	if l.Sqft > luxuryHomeSqft {
		tags = append(tags, "LuxuryHome")
	}
	if l.Price > millionDollar {
		tags = append(tags, "MillionDollarListing")
	}

	tags = append(tags, genericTags[:]...)
	return limitHashtags(tags, max)
}

// limitHashtags strips '#', drops blanks and duplicates, and keeps at most max.
func limitHashtags(tags []string, max int) []string {
	if max <= 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(t), "#"))
		t = strings.ReplaceAll(t, " ", "")
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
		if len(out) == max {
			break
		}
	}
	return out
}

// renderCaption fits caption and hashtags to the platform. Instagram gets
// the tags appended inline; other platforms keep them separate.
func renderCaption(platform model.Platform, caption string, tags []string) string {
	limits := LimitsFor(platform)
	if platform != model.PlatformInstagram || len(tags) == 0 {
		return truncateRunes(caption, limits.MaxChars)
	}

	inline := make([]string, len(tags))
	for i, t := range tags {
		inline[i] = "#" + t
	}
	tagLine := strings.Join(inline, " ")
	room := limits.MaxChars - len([]rune(tagLine)) - 2
	return truncateRunes(caption, room) + "\n\n" + tagLine
}

func listingFacts(l *model.Listing) string {
	var parts []string
	if l.Bedrooms > 0 {
		parts = append(parts, fmt.Sprintf("%d bd", l.Bedrooms))
	}
	if l.Bathrooms > 0 {
		parts = append(parts, FormatBaths(l.Bathrooms)+" ba")
	}
	if l.Sqft > 0 {
		parts = append(parts, FormatNumber(l.Sqft)+" sqft")
	}
	return strings.Join(parts, " | ")
}

func fullAddress(l *model.Listing) string {
	if l.City == "" {
		return l.Address
	}
	return fmt.Sprintf("%s, %s", l.Address, l.City)
}

// templateCaption is the deterministic social caption, without hashtags.
func templateCaption(r Rand, l *model.Listing, p model.SocialPayload) string {
	var b strings.Builder
	b.WriteString(pickHook(r, p.TriggerStatus))
	b.WriteString(" ")
	b.WriteString(fullAddress(l))
	b.WriteString("\n\n")

	if facts := listingFacts(l); facts != "" {
		b.WriteString(facts)
		b.WriteString("\n")
	}
	if l.Price > 0 {
		b.WriteString(FormatPrice(l.Price))
		b.WriteString("\n")
	}
	if p.TemplateStyle == "story" && l.Description != "" {
		b.WriteString("\n")
		b.WriteString(l.Description)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(pickCTA(r, p.TriggerStatus))
	return b.String()
}

func emailSubject(r Rand, l *model.Listing, p model.EmailPayload) string {
	if strings.TrimSpace(p.SubjectTemplate) == "" {
		return pickHook(r, p.TriggerStatus) + " " + l.Address
	}
	return RenderTemplate(p.SubjectTemplate, map[string]string{
		"address": l.Address,
		"price":   FormatPrice(l.Price),
		"city":    l.City,
	})
}

func emailBody(r Rand, l *model.Listing, p model.EmailPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", pickHook(r, p.TriggerStatus))
	fmt.Fprintf(&b, "%s\n%s, %s %s\n\n", l.Address, l.City, l.State, l.Zip)
	fmt.Fprintf(&b, "Price: %s\n", FormatPrice(l.Price))
	fmt.Fprintf(&b, "Bedrooms: %d | Bathrooms: %s | Square Feet: %s\n", l.Bedrooms, FormatBaths(l.Bathrooms), FormatNumber(l.Sqft))
	if l.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", l.Description)
	}
	if len(l.Features) > 0 {
		b.WriteString("\nHighlights:\n")
		for _, f := range l.Features {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	fmt.Fprintf(&b, "\n%s\n", pickCTA(r, p.TriggerStatus))
	return b.String()
}

func videoScript(l *model.Listing, p model.VideoPayload) string {
	script := fmt.Sprintf("%s: %s, %s, %s.", p.TriggerStatus.Banner(), l.Address, l.City, l.State)
	if facts := listingFacts(l); facts != "" {
		script += " " + facts + "."
	}
	if l.Price > 0 {
		script += " Offered at " + FormatPrice(l.Price) + "."
	}
	return script
}
