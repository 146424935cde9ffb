// Package creative holds the JSON-backed cache of clients, offers and
// hook history used by the ad-generation flow.
package creative

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Client is a synced workspace client entry.
type Client struct {
	Name          string `json:"name"`
	NotionPageID  string `json:"notion_page_id"`
	ResourcesDBID string `json:"resources_db_id,omitempty"`
	Stage         string `json:"stage"`
	LastUpdated   string `json:"last_updated,omitempty"`
}

// Offer is a priced promotional package extracted from a client's
// workspace page.
type Offer struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Price        string `json:"price"`
	RegularPrice string `json:"regular_price,omitempty"`
	Summary      string `json:"summary,omitempty"`
}

// ClientOffers groups the cached offers for one client.
type ClientOffers struct {
	IntroOffersPageID string  `json:"intro_offers_page_id,omitempty"`
	LastUsed          string  `json:"last_used,omitempty"`
	CachedOffers      []Offer `json:"cached_offers,omitempty"`
}

// Hook is a creative angle with an optional visual-style hint.
type Hook struct {
	Hook   string `json:"hook"`
	Visual string `json:"visual,omitempty"`
}

// State is the whole cache document.
type State struct {
	Clients      map[string]*Client       `json:"clients"`
	Offers       map[string]*ClientOffers `json:"offers"`
	HooksHistory map[string][]Hook        `json:"hooks_history"`
}

func emptyState() *State {
	return &State{
		Clients:      make(map[string]*Client),
		Offers:       make(map[string]*ClientOffers),
		HooksHistory: make(map[string][]Hook),
	}
}

// Cache loads and saves the state document at a fixed path.
type Cache struct {
	path string
}

// NewCache creates a cache bound to path.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Load reads the state file. A missing or corrupt file yields an empty
// state, never an error.
func (c *Cache) Load() *State {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return emptyState()
	}
	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return emptyState()
	}
	if st.Clients == nil {
		st.Clients = make(map[string]*Client)
	}
	if st.Offers == nil {
		st.Offers = make(map[string]*ClientOffers)
	}
	if st.HooksHistory == nil {
		st.HooksHistory = make(map[string][]Hook)
	}
	return st
}

// Save writes the state file, whole-file overwrite with trailing newline.
func (c *Cache) Save(st *State) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(c.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write state: %w", err)
	}
	return nil
}

// stageEmoji maps a client's pipeline stage to a picker emoji.
var stageEmoji = map[string]string{
	"Launch/active ads": "🟢",
	"Optimization":      "🔧",
	"Campaign launch":   "🚀",
	"Offer and assets":  "📝",
	"Onboarding":        "📋",
	"System Setup":      "⚙️",
	"Ads Paused":        "⏸",
	"Coaching ended":    "🔴",
}

// StageEmoji returns the emoji for a stage, ⚪ when unknown.
func StageEmoji(stage string) string {
	if e, ok := stageEmoji[stage]; ok {
		return e
	}
	return "⚪"
}

// ClientEntry is a client with its slug, for pickers.
type ClientEntry struct {
	Slug   string
	Client *Client
}

// Clients returns the cached clients sorted by name.
func (st *State) ClientList() []ClientEntry {
	out := make([]ClientEntry, 0, len(st.Clients))
	for slug, c := range st.Clients {
		out = append(out, ClientEntry{Slug: slug, Client: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Client.Name < out[j].Client.Name })
	return out
}

// OffersFor returns the cached offers for a client slug.
func (st *State) OffersFor(clientSlug string) []Offer {
	co := st.Offers[clientSlug]
	if co == nil {
		return nil
	}
	return co.CachedOffers
}

// OfferBySlug finds one cached offer for a client.
func (st *State) OfferBySlug(clientSlug, offerSlug string) (*Offer, bool) {
	for _, o := range st.OffersFor(clientSlug) {
		if o.Slug == offerSlug {
			return &o, true
		}
	}
	return nil, false
}

// HooksFor returns the hook history for a client:offer pair.
func (st *State) HooksFor(clientSlug, offerSlug string) []Hook {
	return st.HooksHistory[historyKey(clientSlug, offerSlug)]
}

func historyKey(clientSlug, offerSlug string) string {
	return clientSlug + ":" + offerSlug
}

// RecordRun updates the state after a generation run: marks the offer as
// last used, bumps the client timestamp, and appends newly-seen hooks to
// the history, deduplicated by exact hook text.
func (st *State) RecordRun(clientSlug, offerSlug string, hooks []Hook, now time.Time) {
	if co := st.Offers[clientSlug]; co != nil {
		co.LastUsed = offerSlug
	}
	if cl := st.Clients[clientSlug]; cl != nil {
		cl.LastUpdated = now.UTC().Format(time.RFC3339)
	}

	key := historyKey(clientSlug, offerSlug)
	existing := st.HooksHistory[key]
	seen := make(map[string]bool, len(existing))
	for _, h := range existing {
		seen[h.Hook] = true
	}
	for _, h := range hooks {
		if !seen[h.Hook] {
			existing = append(existing, h)
			seen[h.Hook] = true
		}
	}
	st.HooksHistory[key] = existing
}
