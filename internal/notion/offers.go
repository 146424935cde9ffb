package notion

import (
	"regexp"
	"strings"

	"github.com/marktr/adbot/internal/creative"
)

// Offer extraction is a best-effort text-pattern parser over free-form
// workspace pages. When nothing matches, SyncOffers reports "could not
// parse any offers" rather than guessing.

var (
	offerHeadingRe  = regexp.MustCompile(`(?:#\s*)?Intro Offer(?:\s*\d+)?`)
	offerNameRe     = regexp.MustCompile(`Offer/Special Name[:\s]*["“‘]([^"”’]+)["”’]`)
	quotedNameRe    = regexp.MustCompile(`["“]([^"”]+)["”]`)
	introPriceRe    = regexp.MustCompile(`(?i)Intro offer price[^$C]*([C$]+\s*\$?\s*[\d,.]+)`)
	introPriceNumRe = regexp.MustCompile(`(?i)Intro offer price[^\d]*([\d,.]+)`)
	regPriceRe      = regexp.MustCompile(`(?i)Reg price[^$C]*([C$]+\s*\$?\s*[\d,.]+)`)
	regPriceNumRe   = regexp.MustCompile(`(?i)Reg price[^\d]*([\d,.]+)`)
	summaryRe       = regexp.MustCompile(`2\.\s*Treatment\s*→\s*([^-\n(C$]+)`)
)

// ParseOffers extracts offer blocks from the plain text of an Intro
// Offer page. Duplicate names (synced blocks repeat content) are dropped.
func ParseOffers(text string) []creative.Offer {
	var results []creative.Offer
	seen := make(map[string]bool)

	for _, block := range splitOfferBlocks(text) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		name := matchGroup(offerNameRe, block)
		if name == "" {
			name = matchGroup(quotedNameRe, block)
		}
		if name == "" {
			continue
		}
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true

		summary := strings.TrimSpace(strings.TrimRight(matchGroup(summaryRe, block), " -"))
		if summary == "" {
			summary = name
		}

		results = append(results, creative.Offer{
			Slug:         creative.Slugify(name),
			Name:         name,
			Price:        normalizePrice(matchPrice(block, introPriceRe, introPriceNumRe)),
			RegularPrice: normalizePrice(matchPrice(block, regPriceRe, regPriceNumRe)),
			Summary:      summary,
		})
	}
	return results
}

// splitOfferBlocks slices the text at every "Intro Offer" heading.
func splitOfferBlocks(text string) []string {
	idx := offerHeadingRe.FindAllStringIndex(text, -1)
	if len(idx) == 0 {
		return []string{text}
	}

	var blocks []string
	if idx[0][0] > 0 {
		blocks = append(blocks, text[:idx[0][0]])
	}
	for i, pos := range idx {
		end := len(text)
		if i+1 < len(idx) {
			end = idx[i+1][0]
		}
		blocks = append(blocks, text[pos[0]:end])
	}
	return blocks
}

func matchGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func matchPrice(block string, currencyRe, numericRe *regexp.Regexp) string {
	if p := matchGroup(currencyRe, block); p != "" {
		return strings.TrimSpace(p)
	}
	return strings.TrimSpace(matchGroup(numericRe, block))
}

// normalizePrice prefixes bare numbers with a dollar sign.
func normalizePrice(price string) string {
	if price == "" {
		return ""
	}
	if strings.HasPrefix(price, "$") || strings.HasPrefix(price, "C") {
		return price
	}
	return "$" + price
}
