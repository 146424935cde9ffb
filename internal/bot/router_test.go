package bot

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/marktr/adbot/internal/ads"
	"github.com/marktr/adbot/internal/creative"
	"github.com/marktr/adbot/internal/gen"
	"github.com/marktr/adbot/internal/metrics"
	"github.com/marktr/adbot/internal/notion"
)

const operatorChat int64 = 42

type rendered struct {
	text string
	kb   *tgbotapi.InlineKeyboardMarkup
}

// fakeMessenger records every render in arrival order, sends and edits
// alike.
type fakeMessenger struct {
	renders []rendered
	photos  []string
}

func (f *fakeMessenger) Send(chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.renders = append(f.renders, rendered{text, kb})
	return len(f.renders), nil
}

func (f *fakeMessenger) Edit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	f.renders = append(f.renders, rendered{text, kb})
	return nil
}

func (f *fakeMessenger) SendPhoto(chatID int64, path, caption string) error {
	f.photos = append(f.photos, path)
	return nil
}

func (f *fakeMessenger) last(t *testing.T) rendered {
	t.Helper()
	if len(f.renders) == 0 {
		t.Fatal("nothing was rendered")
	}
	return f.renders[len(f.renders)-1]
}

type fakeGateway struct {
	entity *ads.Entity

	statusCalls []string // "<type>/<id>/<status>"
	budgetCalls []float64
}

func (g *fakeGateway) ListCampaigns(ctx context.Context, accountID string) ([]ads.Entity, error) {
	return []ads.Entity{{ID: "c1", Name: "Spring Sale", Status: ads.StatusActive}}, nil
}
func (g *fakeGateway) ListAdsets(ctx context.Context, campaignID string) ([]ads.Entity, error) {
	return nil, nil
}
func (g *fakeGateway) ListAds(ctx context.Context, adsetID string) ([]ads.Entity, error) {
	return nil, nil
}
func (g *fakeGateway) GetEntity(ctx context.Context, entityType, entityID string) (*ads.Entity, error) {
	if g.entity != nil {
		return g.entity, nil
	}
	return &ads.Entity{ID: entityID, Name: "Entity", Status: ads.StatusActive}, nil
}
func (g *fakeGateway) UpdateStatus(ctx context.Context, entityType, entityID, status string) error {
	g.statusCalls = append(g.statusCalls, entityType+"/"+entityID+"/"+status)
	return nil
}
func (g *fakeGateway) UpdateBudget(ctx context.Context, entityType, entityID string, dollars float64) error {
	g.budgetCalls = append(g.budgetCalls, dollars)
	return nil
}
func (g *fakeGateway) GetDailyInsights(ctx context.Context, accountID string) (*ads.InsightRow, error) {
	return nil, nil
}
func (g *fakeGateway) GetComparisonInsights(ctx context.Context, accountID string, days int) (*ads.Comparison, error) {
	return nil, nil
}

type fakeGenerator struct {
	paths []string
}

func (f *fakeGenerator) Run(ctx context.Context, hooks []creative.Hook, offer creative.Offer, progress gen.Progress) ([]string, error) {
	return f.paths, nil
}

type fakeSyncer struct{}

func (fakeSyncer) SyncClients(ctx context.Context) (*notion.ClientSummary, error) {
	return &notion.ClientSummary{Total: 2, Added: 2}, nil
}
func (fakeSyncer) SyncOffers(ctx context.Context, clientSlug string) (*notion.OfferSummary, error) {
	return &notion.OfferSummary{Total: 1}, nil
}

func newTestRouter(t *testing.T, gw Gateway, genr ImageGenerator) (*Router, *fakeMessenger, *creative.Cache) {
	t.Helper()
	msg := &fakeMessenger{}
	cache := creative.NewCache(filepath.Join(t.TempDir(), "state.json"))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := NewRouter(operatorChat, []string{"act_1"}, msg, gw, cache, genr, fakeSyncer{}, metrics.New(), logger)
	return r, msg, cache
}

// tokens flattens a keyboard into its callback data values.
func tokens(kb *tgbotapi.InlineKeyboardMarkup) []string {
	if kb == nil {
		return nil
	}
	var out []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil {
				out = append(out, *btn.CallbackData)
			}
		}
	}
	return out
}

func hasToken(kb *tgbotapi.InlineKeyboardMarkup, want string) bool {
	for _, tok := range tokens(kb) {
		if tok == want {
			return true
		}
	}
	return false
}

func TestUnauthorizedChatIsDropped(t *testing.T) {
	r, msg, _ := newTestRouter(t, &fakeGateway{}, &fakeGenerator{})
	ctx := context.Background()

	r.HandleCommand(ctx, 999, "start")
	r.HandleText(ctx, 999, "50")
	r.HandleCallback(ctx, 999, 1, "cmd_report")

	if len(msg.renders) != 0 {
		t.Fatalf("unauthorized chat produced output: %d renders", len(msg.renders))
	}
	if got := testutil.ToFloat64(r.metrics.Unauthorized); got != 3 {
		t.Errorf("unauthorized counter = %v, want 3", got)
	}
}

func TestUnknownCallbackIgnored(t *testing.T) {
	r, msg, _ := newTestRouter(t, &fakeGateway{}, &fakeGenerator{})

	r.HandleCallback(context.Background(), operatorChat, 1, "totally_bogus")

	if len(msg.renders) != 0 {
		t.Fatal("unknown token should be ignored silently")
	}
}

func TestEntityActionsPauseXorResume(t *testing.T) {
	gw := &fakeGateway{entity: &ads.Entity{ID: "c1", Name: "Active", Status: ads.StatusActive}}
	r, msg, _ := newTestRouter(t, gw, &fakeGenerator{})
	ctx := context.Background()

	r.HandleCallback(ctx, operatorChat, 1, "select_campaign_c1")
	kb := msg.last(t).kb
	if !hasToken(kb, "pause_campaign_c1") {
		t.Error("active entity should offer Pause")
	}
	if hasToken(kb, "resume_campaign_c1") {
		t.Error("active entity should not offer Resume")
	}

	gw.entity = &ads.Entity{ID: "c1", Name: "Paused", Status: ads.StatusPaused}
	r.HandleCallback(ctx, operatorChat, 1, "select_campaign_c1")
	kb = msg.last(t).kb
	if !hasToken(kb, "resume_campaign_c1") {
		t.Error("paused entity should offer Resume")
	}
	if hasToken(kb, "pause_campaign_c1") {
		t.Error("paused entity should not offer Pause")
	}

	// Anything else (archived, deleted, in process) is not mutable from
	// here and gets neither button.
	for _, status := range []string{"ARCHIVED", "DELETED", "IN_PROCESS"} {
		gw.entity = &ads.Entity{ID: "c1", Name: "Other", Status: status}
		r.HandleCallback(ctx, operatorChat, 1, "select_campaign_c1")
		kb = msg.last(t).kb
		if hasToken(kb, "pause_campaign_c1") {
			t.Errorf("%s entity must not offer Pause", status)
		}
		if hasToken(kb, "resume_campaign_c1") {
			t.Errorf("%s entity must not offer Resume", status)
		}
	}
}

// The tree is always entered from the top, whichever command opens it.
func TestCampaignCommandAliases(t *testing.T) {
	r, msg, _ := newTestRouter(t, &fakeGateway{}, &fakeGenerator{})
	ctx := context.Background()

	// Drilled-in session state must not change what the aliases show.
	sess := r.sessions.Get(operatorChat)
	sess.CurrentCampaign = "c1"
	sess.CurrentAdset = "as1"

	for _, cmd := range []string{"campaigns", "adsets", "ads"} {
		msg.renders = nil
		r.HandleCommand(ctx, operatorChat, cmd)
		if !strings.Contains(msg.last(t).text, "*Campaigns*") {
			t.Errorf("/%s should open the campaign list, got %q", cmd, msg.last(t).text)
		}
	}
}

func TestPauseRequiresConfirmation(t *testing.T) {
	gw := &fakeGateway{}
	r, msg, _ := newTestRouter(t, gw, &fakeGenerator{})
	ctx := context.Background()

	r.HandleCallback(ctx, operatorChat, 1, "pause_campaign_c1")
	if len(gw.statusCalls) != 0 {
		t.Fatal("pause token alone must not mutate")
	}
	if !hasToken(msg.last(t).kb, "confirm_pause_campaign_c1") {
		t.Fatal("expected a confirm button")
	}

	r.HandleCallback(ctx, operatorChat, 1, "confirm_pause_campaign_c1")
	if len(gw.statusCalls) != 1 || gw.statusCalls[0] != "campaign/c1/"+ads.StatusPaused {
		t.Fatalf("status calls = %v", gw.statusCalls)
	}
}

func TestBudgetFlow(t *testing.T) {
	gw := &fakeGateway{}
	r, msg, _ := newTestRouter(t, gw, &fakeGenerator{})
	ctx := context.Background()

	// Arm the prompt, then type the amount.
	r.HandleCallback(ctx, operatorChat, 1, "budget_adset_as1")
	r.HandleText(ctx, operatorChat, "$1,250.50")

	last := msg.last(t)
	if !hasToken(last.kb, "confirm_setbudget_adset_as1") {
		t.Fatalf("expected confirmation keyboard, got tokens %v", tokens(last.kb))
	}
	if len(gw.budgetCalls) != 0 {
		t.Fatal("typing the amount must not mutate")
	}

	r.HandleCallback(ctx, operatorChat, 1, "confirm_setbudget_adset_as1")
	if len(gw.budgetCalls) != 1 || gw.budgetCalls[0] != 1250.50 {
		t.Fatalf("budget calls = %v, want [1250.5]", gw.budgetCalls)
	}

	// A second tap finds no staged amount and must not mutate again.
	r.HandleCallback(ctx, operatorChat, 1, "confirm_setbudget_adset_as1")
	if len(gw.budgetCalls) != 1 {
		t.Fatalf("re-tapped confirm mutated again: %v", gw.budgetCalls)
	}
	if !strings.Contains(msg.last(t).text, "No budget amount staged") {
		t.Errorf("expected staging error, got %q", msg.last(t).text)
	}
}

func TestBudgetInvalidInputKeepsPrompt(t *testing.T) {
	gw := &fakeGateway{}
	r, msg, _ := newTestRouter(t, gw, &fakeGenerator{})
	ctx := context.Background()

	r.HandleCallback(ctx, operatorChat, 1, "budget_campaign_c1")
	r.HandleText(ctx, operatorChat, "abc")

	if !strings.Contains(msg.last(t).text, "Try again") {
		t.Errorf("expected retry message, got %q", msg.last(t).text)
	}

	// The prompt stays armed, so a corrected amount still works.
	r.HandleText(ctx, operatorChat, "75")
	if !hasToken(msg.last(t).kb, "confirm_setbudget_campaign_c1") {
		t.Error("corrected amount should reach the confirmation step")
	}
}

func TestBudgetOnAdRejectedLocally(t *testing.T) {
	gw := &fakeGateway{}
	r, msg, _ := newTestRouter(t, gw, &fakeGenerator{})

	r.HandleCallback(context.Background(), operatorChat, 1, "budget_ad_a1")

	if len(gw.budgetCalls) != 0 {
		t.Fatal("ad budget edit must not reach the gateway")
	}
	if !strings.Contains(msg.last(t).text, "don't carry budgets") {
		t.Errorf("expected local rejection, got %q", msg.last(t).text)
	}
}

func TestGenerationFlow(t *testing.T) {
	gw := &fakeGateway{}
	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "one.png"), filepath.Join(dir, "two.png")}
	r, msg, cache := newTestRouter(t, gw, &fakeGenerator{paths: paths})
	ctx := context.Background()

	// Seed the cache with a client, an offer and a hook history.
	st := cache.Load()
	st.Clients["glow-spa"] = &creative.Client{Name: "Glow Spa", Stage: "Optimization"}
	st.Offers["glow-spa"] = &creative.ClientOffers{CachedOffers: []creative.Offer{
		{Slug: "intro-facial", Name: "Intro Facial", Price: "$99"},
	}}
	st.HooksHistory["glow-spa:intro-facial"] = []creative.Hook{
		{Hook: "Tired skin?"}, {Hook: "Glow in 60 minutes"},
	}
	if err := cache.Save(st); err != nil {
		t.Fatal(err)
	}

	r.HandleCallback(ctx, operatorChat, 1, "ads_client_glow-spa")
	r.HandleCallback(ctx, operatorChat, 1, "ads_offer_glow-spa_intro-facial")
	r.HandleCallback(ctx, operatorChat, 1, "ads_hook_0")
	r.HandleCallback(ctx, operatorChat, 1, "ads_generate")

	if len(msg.photos) != 2 {
		t.Fatalf("sent %d photos, want 2", len(msg.photos))
	}

	// The run is recorded: offer marked last used.
	st = cache.Load()
	if st.Offers["glow-spa"].LastUsed != "intro-facial" {
		t.Errorf("LastUsed = %q, want intro-facial", st.Offers["glow-spa"].LastUsed)
	}
}

func TestGenerateWithoutSelection(t *testing.T) {
	gw := &fakeGateway{}
	r, msg, cache := newTestRouter(t, gw, &fakeGenerator{paths: []string{"x.png"}})
	ctx := context.Background()

	st := cache.Load()
	st.Clients["glow-spa"] = &creative.Client{Name: "Glow Spa"}
	st.Offers["glow-spa"] = &creative.ClientOffers{CachedOffers: []creative.Offer{
		{Slug: "intro-facial", Name: "Intro Facial", Price: "$99"},
	}}
	st.HooksHistory["glow-spa:intro-facial"] = []creative.Hook{{Hook: "A"}}
	if err := cache.Save(st); err != nil {
		t.Fatal(err)
	}

	r.HandleCallback(ctx, operatorChat, 1, "ads_client_glow-spa")
	r.HandleCallback(ctx, operatorChat, 1, "ads_offer_glow-spa_intro-facial")
	r.HandleCallback(ctx, operatorChat, 1, "ads_generate")

	if len(msg.photos) != 0 {
		t.Fatal("generation ran with no hooks selected")
	}
	if !strings.Contains(msg.last(t).text, "at least one hook") {
		t.Errorf("expected selection nudge, got %q", msg.last(t).text)
	}
}

func TestHookToggleRedraw(t *testing.T) {
	gw := &fakeGateway{}
	r, msg, cache := newTestRouter(t, gw, &fakeGenerator{})
	ctx := context.Background()

	st := cache.Load()
	st.Clients["glow-spa"] = &creative.Client{Name: "Glow Spa"}
	st.Offers["glow-spa"] = &creative.ClientOffers{CachedOffers: []creative.Offer{
		{Slug: "o", Name: "Offer", Price: "$1"},
	}}
	st.HooksHistory["glow-spa:o"] = []creative.Hook{{Hook: "First"}, {Hook: "Second"}}
	if err := cache.Save(st); err != nil {
		t.Fatal(err)
	}

	r.HandleCallback(ctx, operatorChat, 1, "ads_client_glow-spa")
	r.HandleCallback(ctx, operatorChat, 1, "ads_offer_glow-spa_o")
	r.HandleCallback(ctx, operatorChat, 1, "ads_hook_1")

	kb := msg.last(t).kb
	var labels []string
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
		}
	}
	found := false
	for _, l := range labels {
		if l == "✅ Second" {
			found = true
		}
	}
	if !found {
		t.Errorf("toggled hook not marked selected: %v", labels)
	}

	// Toggling again clears the mark.
	r.HandleCallback(ctx, operatorChat, 1, "ads_hook_1")
	kb = msg.last(t).kb
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.Text == "✅ Second" {
				t.Error("second toggle should deselect")
			}
		}
	}
}

func TestSyncClientsSummary(t *testing.T) {
	r, msg, _ := newTestRouter(t, &fakeGateway{}, &fakeGenerator{})

	r.HandleCallback(context.Background(), operatorChat, 1, "ads_sync_clients")

	if !strings.Contains(msg.last(t).text, "Synced 2 clients") {
		t.Errorf("expected sync summary, got %q", msg.last(t).text)
	}
}
