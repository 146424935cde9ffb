package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/marktr/adbot/internal/session"
)

// ErrUnknownAction marks a callback token the router does not recognize.
var ErrUnknownAction = errors.New("unknown action token")

// Kind tags the parsed callback action. Tokens are parsed exactly once,
// at the transport boundary; everything past this point switches on Kind
// instead of matching string prefixes.
type Kind int

const (
	KindMenu Kind = iota
	KindSelectAccount
	KindSelect
	KindListAdsets
	KindListAds
	KindMutate
	KindConfirm
	KindAdsClient
	KindAdsOffer
	KindAdsHook
	KindAdsGenerate
	KindAdsCancel
	KindAdsSyncClients
	KindAdsSyncOffers
)

func (k Kind) String() string {
	switch k {
	case KindMenu:
		return "menu"
	case KindSelectAccount:
		return "select_account"
	case KindSelect:
		return "select"
	case KindListAdsets:
		return "list_adsets"
	case KindListAds:
		return "list_ads"
	case KindMutate:
		return "mutate"
	case KindConfirm:
		return "confirm"
	case KindAdsClient:
		return "ads_client"
	case KindAdsOffer:
		return "ads_offer"
	case KindAdsHook:
		return "ads_hook"
	case KindAdsGenerate:
		return "ads_generate"
	case KindAdsCancel:
		return "ads_cancel"
	case KindAdsSyncClients:
		return "ads_sync_clients"
	case KindAdsSyncOffers:
		return "ads_sync_offers"
	default:
		return "unknown"
	}
}

// MutateOp is one of the three mutating operations.
type MutateOp string

const (
	OpPause     MutateOp = "pause"
	OpResume    MutateOp = "resume"
	OpSetBudget MutateOp = "setbudget"
)

// Action is the parsed form of a callback token.
type Action struct {
	Kind Kind

	Menu      string             // KindMenu: start, report, weekly, campaigns, generate_ads, help
	Op        MutateOp           // KindMutate, KindConfirm
	Entity    session.EntityType // KindSelect, KindMutate, KindConfirm
	ID        string             // entity id, or account id for KindSelectAccount
	Slug      string             // client slug for the ads flow
	OfferSlug string             // KindAdsOffer
	HookIndex int                // KindAdsHook
}

// ParseAction parses a callback token. Entity identifiers may themselves
// contain underscores, so entity-bearing tokens split on at most the
// first two separators.
func ParseAction(data string) (Action, error) {
	switch data {
	case "cmd_start":
		return Action{Kind: KindMenu, Menu: "start"}, nil
	case "cmd_report":
		return Action{Kind: KindMenu, Menu: "report"}, nil
	case "cmd_weekly":
		return Action{Kind: KindMenu, Menu: "weekly"}, nil
	case "cmd_campaigns":
		return Action{Kind: KindMenu, Menu: "campaigns"}, nil
	case "cmd_generate_ads":
		return Action{Kind: KindMenu, Menu: "generate_ads"}, nil
	case "cmd_help":
		return Action{Kind: KindMenu, Menu: "help"}, nil
	case "ads_generate":
		return Action{Kind: KindAdsGenerate}, nil
	case "ads_cancel":
		return Action{Kind: KindAdsCancel}, nil
	case "ads_sync_clients":
		return Action{Kind: KindAdsSyncClients}, nil
	}

	if rest, ok := cut(data, "selacct_campaigns_"); ok {
		return Action{Kind: KindSelectAccount, ID: rest}, nil
	}
	if rest, ok := cut(data, "select_"); ok {
		return parseEntityAction(KindSelect, "", rest)
	}
	if rest, ok := cut(data, "listadsets_"); ok {
		return Action{Kind: KindListAdsets, ID: rest}, nil
	}
	if rest, ok := cut(data, "listads_"); ok {
		return Action{Kind: KindListAds, ID: rest}, nil
	}
	if rest, ok := cut(data, "pause_"); ok {
		return parseEntityAction(KindMutate, OpPause, rest)
	}
	if rest, ok := cut(data, "resume_"); ok {
		return parseEntityAction(KindMutate, OpResume, rest)
	}
	if rest, ok := cut(data, "budget_"); ok {
		return parseEntityAction(KindMutate, OpSetBudget, rest)
	}
	if rest, ok := cut(data, "confirm_"); ok {
		return parseConfirm(rest)
	}
	if rest, ok := cut(data, "ads_sync_offers_"); ok {
		return Action{Kind: KindAdsSyncOffers, Slug: rest}, nil
	}
	if rest, ok := cut(data, "ads_client_"); ok {
		return Action{Kind: KindAdsClient, Slug: rest}, nil
	}
	if rest, ok := cut(data, "ads_offer_"); ok {
		// ads_offer_<client>_<offer>; slugs never contain underscores.
		client, offer, ok := strings.Cut(rest, "_")
		if !ok {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return Action{Kind: KindAdsOffer, Slug: client, OfferSlug: offer}, nil
	}
	if rest, ok := cut(data, "ads_hook_"); ok {
		idx, err := strconv.Atoi(rest)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
		}
		return Action{Kind: KindAdsHook, HookIndex: idx}, nil
	}

	return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, data)
}

// parseEntityAction parses "<type>_<id>" where id may contain underscores.
func parseEntityAction(kind Kind, op MutateOp, rest string) (Action, error) {
	typ, id, ok := strings.Cut(rest, "_")
	entity := session.EntityType(typ)
	if !ok || id == "" || !entity.Valid() {
		return Action{}, fmt.Errorf("%w: bad entity token %q", ErrUnknownAction, rest)
	}
	return Action{Kind: kind, Op: op, Entity: entity, ID: id}, nil
}

// parseConfirm parses "<action>_<type>_<id>".
func parseConfirm(rest string) (Action, error) {
	opStr, entityRest, ok := strings.Cut(rest, "_")
	if !ok {
		return Action{}, fmt.Errorf("%w: bad confirm token %q", ErrUnknownAction, rest)
	}
	op := MutateOp(opStr)
	if op != OpPause && op != OpResume && op != OpSetBudget {
		return Action{}, fmt.Errorf("%w: bad confirm op %q", ErrUnknownAction, opStr)
	}
	a, err := parseEntityAction(KindConfirm, op, entityRest)
	if err != nil {
		return Action{}, err
	}
	return a, nil
}

func cut(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix) {
		return s[len(prefix):], true
	}
	return "", false
}
