package notion

import (
	"testing"
)

const sampleOfferText = `
Some page intro that is not an offer.

Intro Offer 1
Offer/Special Name: "Glow Facial Package"
What you get:
1. Consultation → free
2. Treatment → HydraFacial deluxe with LED therapy - relaxing
Intro offer price: $149
Reg price: $299

Intro Offer 2 (seasonal)
Offer/Special Name: "Lip Filler Special"
2. Treatment → Juvederm lip enhancement
Intro offer price is C$ 399
Reg price C$ 550
`

func TestParseOffers(t *testing.T) {
	offers := ParseOffers(sampleOfferText)
	if len(offers) != 2 {
		t.Fatalf("parsed %d offers, want 2: %+v", len(offers), offers)
	}

	first := offers[0]
	if first.Name != "Glow Facial Package" {
		t.Errorf("Name = %q", first.Name)
	}
	if first.Slug != "glow-facial-package" {
		t.Errorf("Slug = %q", first.Slug)
	}
	if first.Price != "$149" {
		t.Errorf("Price = %q, want $149", first.Price)
	}
	if first.RegularPrice != "$299" {
		t.Errorf("RegularPrice = %q, want $299", first.RegularPrice)
	}
	if first.Summary != "HydraFacial deluxe with LED therapy" {
		t.Errorf("Summary = %q", first.Summary)
	}

	second := offers[1]
	if second.Name != "Lip Filler Special" {
		t.Errorf("Name = %q", second.Name)
	}
	if second.Price != "C$ 399" {
		t.Errorf("Price = %q, want C$ 399", second.Price)
	}
}

func TestParseOffersDeduplicates(t *testing.T) {
	text := `
Intro Offer
Offer/Special Name: "Same Offer"
Intro offer price: $100

Intro Offer
Offer/Special Name: "Same Offer"
Intro offer price: $100
`
	offers := ParseOffers(text)
	if len(offers) != 1 {
		t.Errorf("synced-block duplicate should collapse, got %d offers", len(offers))
	}
}

func TestParseOffersQuotedFallback(t *testing.T) {
	text := `
Intro Offer
“Bright Skin Reset” is our best seller.
Intro offer price: 89
`
	offers := ParseOffers(text)
	if len(offers) != 1 {
		t.Fatalf("parsed %d offers, want 1", len(offers))
	}
	if offers[0].Name != "Bright Skin Reset" {
		t.Errorf("Name = %q", offers[0].Name)
	}
	if offers[0].Price != "$89" {
		t.Errorf("bare price should be normalized, got %q", offers[0].Price)
	}
}

func TestParseOffersNothingParsable(t *testing.T) {
	if got := ParseOffers("just a paragraph about skincare"); len(got) != 0 {
		t.Errorf("expected no offers, got %+v", got)
	}
}

func TestNormalizePrice(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"$50", "$50"},
		{"C$ 75", "C$ 75"},
		{"149", "$149"},
	}
	for _, tt := range tests {
		if got := normalizePrice(tt.in); got != tt.want {
			t.Errorf("normalizePrice(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
