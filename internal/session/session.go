// Package session holds transient per-chat navigation and interaction state.
// Nothing here survives a restart.
package session

import (
	"sync"

	"github.com/marktr/adbot/internal/creative"
)

// EntityType identifies a level of the campaign tree.
type EntityType string

const (
	EntityCampaign EntityType = "campaign"
	EntityAdset    EntityType = "adset"
	EntityAd       EntityType = "ad"
)

// Valid reports whether t is one of the three known levels.
func (t EntityType) Valid() bool {
	return t == EntityCampaign || t == EntityAdset || t == EntityAd
}

// BudgetEdit marks that the next free-text message is a budget amount
// for this entity.
type BudgetEdit struct {
	EntityType EntityType
	EntityID   string
}

// AdsFlow tracks an in-progress ad-generation selection.
type AdsFlow struct {
	ClientSlug string
	OfferSlug  string
	Hooks      []creative.Hook
	Selected   map[int]bool
}

// Toggle flips the selection state of hook index i.
func (f *AdsFlow) Toggle(i int) {
	if f.Selected == nil {
		f.Selected = make(map[int]bool)
	}
	if f.Selected[i] {
		delete(f.Selected, i)
	} else {
		f.Selected[i] = true
	}
}

// SelectedHooks returns the selected hooks in index order.
func (f *AdsFlow) SelectedHooks() []creative.Hook {
	var out []creative.Hook
	for i, h := range f.Hooks {
		if f.Selected[i] {
			out = append(out, h)
		}
	}
	return out
}

// Session is the per-chat state threaded through router handlers. The
// router processes one update at a time per chat, so handlers mutate it
// without further locking.
type Session struct {
	CurrentAccount  string
	CurrentCampaign string
	CurrentAdset    string

	// Budget staging: the amount is never encoded in a callback token.
	PendingBudget   *BudgetEdit
	ConfirmedBudget *float64

	AdsFlow AdsFlow
}

// StartAdsFlow resets the flow for a fresh client selection.
func (s *Session) StartAdsFlow(clientSlug string) {
	s.AdsFlow = AdsFlow{ClientSlug: clientSlug, Selected: make(map[int]bool)}
}

// TakeConfirmedBudget returns the staged amount and clears it, so a
// confirm token can consume it exactly once.
func (s *Session) TakeConfirmedBudget() (float64, bool) {
	if s.ConfirmedBudget == nil {
		return 0, false
	}
	amount := *s.ConfirmedBudget
	s.ConfirmedBudget = nil
	return amount, true
}

// Store maps chat ids to sessions.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for a chat, creating it on first use.
func (s *Store) Get(chatID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		sess = &Session{}
		s.sessions[chatID] = sess
	}
	return sess
}
