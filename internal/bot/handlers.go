package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marktr/adbot/internal/ads"
	"github.com/marktr/adbot/internal/gen"
	"github.com/marktr/adbot/internal/render"
	"github.com/marktr/adbot/internal/session"
)

const helpText = `*Commands*
/start \- main menu
/report \- yesterday's numbers per account
/weekly \- rolling 7\-day comparison
/campaigns \- browse and manage the campaign tree
/generate\_ads \- create ad images for a client offer
/sync \- refresh the client list from the workspace
/help \- this message`

func (r *Router) showMainMenu(rd *responder) {
	kb := mainMenu()
	r.renderOrLog(rd, "*Ad Accounts Control*\nPick an action:", &kb)
}

func (r *Router) showHelp(rd *responder) {
	r.renderOrLog(rd, helpText, nil)
}

func (r *Router) showAccountSelector(ctx context.Context, rd *responder) {
	if len(r.accounts) == 1 {
		// No point in a one-entry picker.
		r.sessions.Get(rd.chatID).CurrentAccount = r.accounts[0]
		r.showCampaigns(ctx, rd, r.accounts[0])
		return
	}
	kb := accountSelector(r.accounts)
	r.renderOrLog(rd, "Select an ad account:", &kb)
}

func (r *Router) showCampaigns(ctx context.Context, rd *responder, accountID string) {
	entities, err := r.gateway.ListCampaigns(ctx, accountID)
	if err != nil {
		r.renderOrLog(rd, render.Error(r.adsErrorText(err)), backKeyboard("cmd_start"))
		return
	}
	if len(entities) == 0 {
		r.renderOrLog(rd, render.Escape("No campaigns in this account."), backKeyboard("cmd_start"))
		return
	}
	kb := entityList(entities, session.EntityCampaign, "cmd_campaigns")
	r.renderOrLog(rd, fmt.Sprintf("*Campaigns* \\(`%s`\\)", render.Escape(accountID)), &kb)
}

func (r *Router) showAdsets(ctx context.Context, rd *responder, campaignID string) {
	entities, err := r.gateway.ListAdsets(ctx, campaignID)
	back := "select_campaign_" + campaignID
	if err != nil {
		r.renderOrLog(rd, render.Error(r.adsErrorText(err)), backKeyboard(back))
		return
	}
	if len(entities) == 0 {
		r.renderOrLog(rd, render.Escape("This campaign has no ad sets."), backKeyboard(back))
		return
	}
	kb := entityList(entities, session.EntityAdset, back)
	r.renderOrLog(rd, "*Ad Sets*", &kb)
}

func (r *Router) showAds(ctx context.Context, rd *responder, adsetID string) {
	entities, err := r.gateway.ListAds(ctx, adsetID)
	back := "select_adset_" + adsetID
	if err != nil {
		r.renderOrLog(rd, render.Error(r.adsErrorText(err)), backKeyboard(back))
		return
	}
	if len(entities) == 0 {
		r.renderOrLog(rd, render.Escape("This ad set has no ads."), backKeyboard(back))
		return
	}
	kb := entityList(entities, session.EntityAd, back)
	r.renderOrLog(rd, "*Ads*", &kb)
}

// showEntity fetches live entity details and renders its action sheet.
// The session remembers the drill position so Back can climb the tree.
func (r *Router) showEntity(ctx context.Context, rd *responder, sess *session.Session, entityType session.EntityType, id string) {
	e, err := r.gateway.GetEntity(ctx, string(entityType), id)
	if err != nil {
		r.renderOrLog(rd, render.Error(r.adsErrorText(err)), backKeyboard("cmd_campaigns"))
		return
	}

	switch entityType {
	case session.EntityCampaign:
		sess.CurrentCampaign = id
	case session.EntityAdset:
		sess.CurrentAdset = id
	}

	kb := entityActions(e, entityType, r.backFor(entityType, sess))
	r.renderOrLog(rd, render.EntityInfo(e, string(entityType)), &kb)
}

// backFor derives the Back target from the session's drill position.
// When the position is stale (say, after a restart) it falls back to the
// account picker instead of guessing.
func (r *Router) backFor(entityType session.EntityType, sess *session.Session) string {
	switch entityType {
	case session.EntityCampaign:
		if sess.CurrentAccount != "" {
			return "selacct_campaigns_" + sess.CurrentAccount
		}
	case session.EntityAdset:
		if sess.CurrentCampaign != "" {
			return "listadsets_" + sess.CurrentCampaign
		}
	case session.EntityAd:
		if sess.CurrentAdset != "" {
			return "listads_" + sess.CurrentAdset
		}
	}
	return "cmd_campaigns"
}

// promptMutation is the first half of the two-step protocol: it shows the
// confirmation keyboard (pause/resume) or arms the free-text budget
// prompt. Nothing is mutated here.
func (r *Router) promptMutation(rd *responder, sess *session.Session, a Action) {
	cancel := fmt.Sprintf("select_%s_%s", a.Entity, a.ID)

	switch a.Op {
	case OpPause, OpResume:
		verb := "Pause"
		if a.Op == OpResume {
			verb = "Resume"
		}
		kb := confirmKeyboard(a.Op, a.Entity, a.ID, cancel)
		r.renderOrLog(rd, render.Escape(fmt.Sprintf("%s this %s?", verb, a.Entity)), &kb)

	case OpSetBudget:
		if a.Entity == session.EntityAd {
			r.renderOrLog(rd, render.Error("Ads don't carry budgets. Edit the ad set instead."), backKeyboard(cancel))
			return
		}
		sess.PendingBudget = &session.BudgetEdit{EntityType: a.Entity, EntityID: a.ID}
		sess.ConfirmedBudget = nil
		r.renderOrLog(rd,
			render.Escape(fmt.Sprintf("Send the new daily budget for this %s in dollars (e.g. 50 or 25.50).", a.Entity)),
			backKeyboard(cancel))
	}
}

// handleBudgetInput validates the typed amount and stages it behind a
// confirmation keyboard. The amount itself never rides in a callback
// token.
func (r *Router) handleBudgetInput(ctx context.Context, rd *responder, sess *session.Session, text string) {
	pb := sess.PendingBudget
	amount, err := parseBudgetInput(text)
	if err != nil {
		r.renderOrLog(rd, render.Error(err.Error()+". Try again."), nil)
		return
	}

	sess.PendingBudget = nil
	sess.ConfirmedBudget = &amount

	cancel := fmt.Sprintf("select_%s_%s", pb.EntityType, pb.EntityID)
	kb := confirmKeyboard(OpSetBudget, pb.EntityType, pb.EntityID, cancel)
	r.renderOrLog(rd,
		render.Escape(fmt.Sprintf("Set daily budget of $%.2f on this %s?", amount, pb.EntityType)),
		&kb)
}

// applyMutation is the second half of the protocol: the confirm token
// arrived, so perform the operation.
func (r *Router) applyMutation(ctx context.Context, rd *responder, sess *session.Session, a Action) {
	switch a.Op {
	case OpPause, OpResume:
		status := ads.StatusPaused
		verb := "paused"
		if a.Op == OpResume {
			status = ads.StatusActive
			verb = "resumed"
		}
		if err := r.gateway.UpdateStatus(ctx, string(a.Entity), a.ID, status); err != nil {
			r.renderOrLog(rd, render.Error(r.adsErrorText(err)), backKeyboard(fmt.Sprintf("select_%s_%s", a.Entity, a.ID)))
			return
		}
		r.confirmAndRefresh(ctx, rd, sess, a, fmt.Sprintf("%s %s.", capitalize(string(a.Entity)), verb))

	case OpSetBudget:
		amount, ok := sess.TakeConfirmedBudget()
		if !ok {
			// Re-tapped confirm, or the process restarted in between.
			r.renderOrLog(rd, render.Error("No budget amount staged. Start over from the entity menu."),
				backKeyboard(fmt.Sprintf("select_%s_%s", a.Entity, a.ID)))
			return
		}
		if err := r.gateway.UpdateBudget(ctx, string(a.Entity), a.ID, amount); err != nil {
			r.renderOrLog(rd, render.Error(r.adsErrorText(err)), backKeyboard(fmt.Sprintf("select_%s_%s", a.Entity, a.ID)))
			return
		}
		r.confirmAndRefresh(ctx, rd, sess, a, fmt.Sprintf("Daily budget set to $%.2f.", amount))
	}
}

// confirmAndRefresh shows a success line above the refreshed entity sheet.
func (r *Router) confirmAndRefresh(ctx context.Context, rd *responder, sess *session.Session, a Action, line string) {
	e, err := r.gateway.GetEntity(ctx, string(a.Entity), a.ID)
	if err != nil {
		kb := mainMenu()
		r.renderOrLog(rd, render.Success(line), &kb)
		return
	}
	kb := entityActions(e, a.Entity, r.backFor(a.Entity, sess))
	r.renderOrLog(rd, render.Success(line)+"\n\n"+render.EntityInfo(e, string(a.Entity)), &kb)
}

// runDailyReport renders yesterday's numbers for every configured
// account. One account failing does not stop the rest.
func (r *Router) runDailyReport(ctx context.Context, rd *responder) {
	blocks := make([]string, 0, len(r.accounts))
	failed := 0
	for _, acct := range r.accounts {
		row, err := r.gateway.GetDailyInsights(ctx, acct)
		if err != nil {
			r.logger.Error("daily insights failed", "account_id", acct, "error", err)
			blocks = append(blocks, fmt.Sprintf("*%s*\n%s", render.Escape(acct), render.Error(r.adsErrorText(err))))
			failed++
			continue
		}
		blocks = append(blocks, render.DailyReport(acct, row))
	}
	outcome := "ok"
	if failed == len(r.accounts) {
		outcome = "error"
	}
	r.metrics.ReportRunsTotal.WithLabelValues(outcome).Inc()
	kb := mainMenu()
	r.renderOrLog(rd, "📊 *Daily Report*\n\n"+strings.Join(blocks, "\n\n"), &kb)
}

func (r *Router) runWeeklyReport(ctx context.Context, rd *responder) {
	blocks := make([]string, 0, len(r.accounts))
	failed := 0
	for _, acct := range r.accounts {
		comp, err := r.gateway.GetComparisonInsights(ctx, acct, 7)
		if err != nil {
			r.logger.Error("weekly insights failed", "account_id", acct, "error", err)
			blocks = append(blocks, fmt.Sprintf("*%s*\n%s", render.Escape(acct), render.Error(r.adsErrorText(err))))
			failed++
			continue
		}
		blocks = append(blocks, render.WeeklyReport(acct, comp))
	}
	outcome := "ok"
	if failed == len(r.accounts) {
		outcome = "error"
	}
	r.metrics.ReportRunsTotal.WithLabelValues(outcome).Inc()
	kb := mainMenu()
	r.renderOrLog(rd, "📈 *Weekly Report*\n\n"+strings.Join(blocks, "\n\n"), &kb)
}

func (r *Router) showClientSelector(rd *responder, sess *session.Session) {
	sess.AdsFlow = session.AdsFlow{}
	state := r.cache.Load()
	clients := state.ClientList()
	kb := clientSelector(clients)
	if len(clients) == 0 {
		r.renderOrLog(rd, render.Escape("No clients synced yet. Run a sync first."), &kb)
		return
	}
	r.renderOrLog(rd, "🎨 *Generate Ads*\nSelect a client:", &kb)
}

func (r *Router) showOffers(rd *responder, clientSlug string) {
	state := r.cache.Load()
	client := state.Clients[clientSlug]
	if client == nil {
		kb := clientSelector(state.ClientList())
		r.renderOrLog(rd, render.Error("Unknown client. Pick one from the list."), &kb)
		return
	}
	offers := state.OffersFor(clientSlug)
	if len(offers) == 0 {
		kb := syncOffersPrompt(clientSlug)
		r.renderOrLog(rd, render.Escape(fmt.Sprintf("No offers cached for %s yet.", client.Name)), &kb)
		return
	}
	kb := offerSelector(clientSlug, offers)
	r.renderOrLog(rd, fmt.Sprintf("Select an offer for *%s*:", render.Escape(client.Name)), &kb)
}

func (r *Router) showHooks(rd *responder, sess *session.Session, clientSlug, offerSlug string) {
	state := r.cache.Load()
	offer, ok := state.OfferBySlug(clientSlug, offerSlug)
	if !ok {
		kb := syncOffersPrompt(clientSlug)
		r.renderOrLog(rd, render.Error("That offer is no longer cached. Re-sync and pick again."), &kb)
		return
	}

	hooks := state.HooksFor(clientSlug, offerSlug)
	sess.AdsFlow.ClientSlug = clientSlug
	sess.AdsFlow.OfferSlug = offerSlug
	sess.AdsFlow.Hooks = hooks
	sess.AdsFlow.Selected = make(map[int]bool)

	if len(hooks) == 0 {
		kb := syncOffersPrompt(clientSlug)
		r.renderOrLog(rd, render.Escape(fmt.Sprintf("No saved hooks for %s yet.", offer.Name)), &kb)
		return
	}

	kb := hookSelector(hooks, sess.AdsFlow.Selected)
	r.renderOrLog(rd, r.hookScreenText(sess), &kb)
}

// refreshHooks redraws the multi-select after a toggle.
func (r *Router) refreshHooks(rd *responder, sess *session.Session) {
	if len(sess.AdsFlow.Hooks) == 0 {
		return
	}
	kb := hookSelector(sess.AdsFlow.Hooks, sess.AdsFlow.Selected)
	r.renderOrLog(rd, r.hookScreenText(sess), &kb)
}

func (r *Router) hookScreenText(sess *session.Session) string {
	selected := len(sess.AdsFlow.SelectedHooks())
	return render.Escape(fmt.Sprintf("Select hooks to turn into images (%d selected). Each hook renders %d variants.",
		selected, len(gen.Variants)))
}

// runGeneration drives a full image-generation run: progress edits on the
// originating message, then the produced images as photo uploads.
func (r *Router) runGeneration(ctx context.Context, rd *responder, sess *session.Session) {
	flow := &sess.AdsFlow
	hooks := flow.SelectedHooks()
	if len(hooks) == 0 {
		kb := hookSelector(flow.Hooks, flow.Selected)
		r.renderOrLog(rd, render.Error("Select at least one hook first."), &kb)
		return
	}

	state := r.cache.Load()
	offer, ok := state.OfferBySlug(flow.ClientSlug, flow.OfferSlug)
	if !ok {
		r.renderOrLog(rd, render.Error("Offer vanished from the cache. Start over."), backKeyboard("cmd_generate_ads"))
		return
	}

	total := len(hooks) * len(gen.Variants)
	r.renderOrLog(rd, render.Escape(fmt.Sprintf("🎨 Generating %d images… 0/%d", total, total)), nil)

	// Progress edits are cosmetic; a failed edit must not abort the run.
	progress := func(done, totalN int, hookText, variant string) {
		text := render.Escape(fmt.Sprintf("🎨 Generating %d images… %d/%d", totalN, done, totalN))
		if err := rd.msg.Edit(rd.chatID, rd.editID, text, nil); err != nil {
			r.logger.Debug("progress edit failed", "error", err)
		}
	}

	paths, err := r.genr.Run(ctx, hooks, *offer, progress)
	if err != nil {
		r.metrics.GenerationRunsTotal.WithLabelValues("error").Inc()
		r.renderOrLog(rd, render.Error("Generation failed: "+err.Error()), backKeyboard("cmd_generate_ads"))
		return
	}
	if len(paths) == 0 {
		r.metrics.GenerationRunsTotal.WithLabelValues("exhausted").Inc()
		r.renderOrLog(rd, render.Error("All image models are out of quota. Try again later."), backKeyboard("cmd_generate_ads"))
		return
	}

	r.metrics.GenerationRunsTotal.WithLabelValues("ok").Inc()
	r.metrics.ImagesGeneratedTotal.Add(float64(len(paths)))
	r.metrics.ImagesSkippedTotal.Add(float64(total - len(paths)))

	r.renderOrLog(rd, render.Escape(fmt.Sprintf("Generated %d/%d images. Sending…", len(paths), total)), nil)
	for _, p := range paths {
		if err := r.msg.SendPhoto(rd.chatID, p, filepath.Base(p)); err != nil {
			r.logger.Error("failed to send image", "path", p, "error", err)
		}
	}

	state.RecordRun(flow.ClientSlug, flow.OfferSlug, hooks, time.Now())
	if err := r.cache.Save(state); err != nil {
		r.logger.Error("failed to save creative state", "error", err)
	}
	sess.AdsFlow = session.AdsFlow{}

	kb := mainMenu()
	send := &responder{msg: r.msg, chatID: rd.chatID}
	r.renderOrLog(send, render.Success(fmt.Sprintf("Done. %d images generated.", len(paths))), &kb)
}

func (r *Router) runClientSync(ctx context.Context, rd *responder) {
	if r.syncer == nil {
		r.renderOrLog(rd, render.Error("Workspace sync is not configured."), nil)
		return
	}
	summary, err := r.syncer.SyncClients(ctx)
	if err != nil {
		r.metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		r.logger.Error("client sync failed", "error", err)
		r.renderOrLog(rd, render.Error("Sync failed: "+err.Error()), nil)
		return
	}
	r.metrics.SyncRunsTotal.WithLabelValues("ok").Inc()

	state := r.cache.Load()
	kb := clientSelector(state.ClientList())
	line := render.Success(fmt.Sprintf("Synced %d clients (%d added, %d updated, %d removed).",
		summary.Total, summary.Added, summary.Updated, summary.Removed))
	r.renderOrLog(rd, line+"\nSelect a client:", &kb)
}

func (r *Router) runOfferSync(ctx context.Context, rd *responder, sess *session.Session, clientSlug string) {
	if r.syncer == nil {
		r.renderOrLog(rd, render.Error("Workspace sync is not configured."), nil)
		return
	}
	summary, err := r.syncer.SyncOffers(ctx, clientSlug)
	if err != nil {
		r.metrics.SyncRunsTotal.WithLabelValues("error").Inc()
		r.logger.Error("offer sync failed", "client", clientSlug, "error", err)
		r.renderOrLog(rd, render.Error("Offer sync failed: "+err.Error()), backKeyboard("cmd_generate_ads"))
		return
	}
	r.metrics.SyncRunsTotal.WithLabelValues("ok").Inc()
	r.logger.Info("offers synced", "client", clientSlug, "total", summary.Total)
	r.showOffers(rd, clientSlug)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func backKeyboard(to string) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(backRow(to))
	return &kb
}
