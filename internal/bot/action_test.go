package bot

import (
	"errors"
	"testing"

	"github.com/marktr/adbot/internal/session"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		data string
		want Action
	}{
		{"cmd_start", Action{Kind: KindMenu, Menu: "start"}},
		{"cmd_report", Action{Kind: KindMenu, Menu: "report"}},
		{"cmd_weekly", Action{Kind: KindMenu, Menu: "weekly"}},
		{"cmd_campaigns", Action{Kind: KindMenu, Menu: "campaigns"}},
		{"cmd_generate_ads", Action{Kind: KindMenu, Menu: "generate_ads"}},
		{"cmd_help", Action{Kind: KindMenu, Menu: "help"}},
		{"selacct_campaigns_act_123", Action{Kind: KindSelectAccount, ID: "act_123"}},
		{"select_campaign_120210000000000001", Action{Kind: KindSelect, Entity: session.EntityCampaign, ID: "120210000000000001"}},
		{"select_adset_987", Action{Kind: KindSelect, Entity: session.EntityAdset, ID: "987"}},
		{"select_ad_55", Action{Kind: KindSelect, Entity: session.EntityAd, ID: "55"}},
		{"listadsets_111", Action{Kind: KindListAdsets, ID: "111"}},
		{"listads_222", Action{Kind: KindListAds, ID: "222"}},
		{"pause_campaign_1", Action{Kind: KindMutate, Op: OpPause, Entity: session.EntityCampaign, ID: "1"}},
		{"resume_ad_2", Action{Kind: KindMutate, Op: OpResume, Entity: session.EntityAd, ID: "2"}},
		{"budget_adset_3", Action{Kind: KindMutate, Op: OpSetBudget, Entity: session.EntityAdset, ID: "3"}},
		{"confirm_pause_campaign_1", Action{Kind: KindConfirm, Op: OpPause, Entity: session.EntityCampaign, ID: "1"}},
		{"confirm_setbudget_adset_9", Action{Kind: KindConfirm, Op: OpSetBudget, Entity: session.EntityAdset, ID: "9"}},
		{"ads_client_spa-wellness", Action{Kind: KindAdsClient, Slug: "spa-wellness"}},
		{"ads_offer_spa-wellness_intro-facial", Action{Kind: KindAdsOffer, Slug: "spa-wellness", OfferSlug: "intro-facial"}},
		{"ads_hook_3", Action{Kind: KindAdsHook, HookIndex: 3}},
		{"ads_generate", Action{Kind: KindAdsGenerate}},
		{"ads_cancel", Action{Kind: KindAdsCancel}},
		{"ads_sync_clients", Action{Kind: KindAdsSyncClients}},
		{"ads_sync_offers_spa-wellness", Action{Kind: KindAdsSyncOffers, Slug: "spa-wellness"}},
	}
	for _, tc := range tests {
		got, err := ParseAction(tc.data)
		if err != nil {
			t.Errorf("ParseAction(%q): unexpected error: %v", tc.data, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseAction(%q) = %+v, want %+v", tc.data, got, tc.want)
		}
	}
}

// Entity ids can contain underscores; only the first two separators split.
func TestParseActionUnderscoreIDs(t *testing.T) {
	got, err := ParseAction("pause_campaign_abc_def_123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "abc_def_123" {
		t.Errorf("ID = %q, want %q", got.ID, "abc_def_123")
	}

	got, err = ParseAction("confirm_pause_adset_id_with_underscores")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "id_with_underscores" {
		t.Errorf("confirm ID = %q, want %q", got.ID, "id_with_underscores")
	}
}

func TestParseActionUnknown(t *testing.T) {
	bad := []string{
		"",
		"noise",
		"select_widget_1",      // invalid entity type
		"select_campaign_",     // missing id
		"confirm_delete_ad_1",  // unknown op
		"ads_hook_notanumber",  // non-numeric index
		"ads_offer_noseparator", // missing offer slug
		"cmd_unknown",
	}
	for _, data := range bad {
		if _, err := ParseAction(data); !errors.Is(err, ErrUnknownAction) {
			t.Errorf("ParseAction(%q): want ErrUnknownAction, got %v", data, err)
		}
	}
}
