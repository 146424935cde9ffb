package bot

import (
	"context"
	"errors"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marktr/adbot/internal/ads"
	"github.com/marktr/adbot/internal/creative"
	"github.com/marktr/adbot/internal/gen"
	"github.com/marktr/adbot/internal/metrics"
	"github.com/marktr/adbot/internal/notion"
	"github.com/marktr/adbot/internal/session"
)

// Gateway is the ads-platform surface the router depends on.
type Gateway interface {
	ListCampaigns(ctx context.Context, accountID string) ([]ads.Entity, error)
	ListAdsets(ctx context.Context, campaignID string) ([]ads.Entity, error)
	ListAds(ctx context.Context, adsetID string) ([]ads.Entity, error)
	GetEntity(ctx context.Context, entityType, entityID string) (*ads.Entity, error)
	UpdateStatus(ctx context.Context, entityType, entityID, status string) error
	UpdateBudget(ctx context.Context, entityType, entityID string, dollars float64) error
	GetDailyInsights(ctx context.Context, accountID string) (*ads.InsightRow, error)
	GetComparisonInsights(ctx context.Context, accountID string, days int) (*ads.Comparison, error)
}

// ImageGenerator produces creative images for a hook selection.
type ImageGenerator interface {
	Run(ctx context.Context, hooks []creative.Hook, offer creative.Offer, progress gen.Progress) ([]string, error)
}

// WorkspaceSyncer refreshes the client/offer cache from the workspace.
// May be absent when the workspace integration is not configured.
type WorkspaceSyncer interface {
	SyncClients(ctx context.Context) (*notion.ClientSummary, error)
	SyncOffers(ctx context.Context, clientSlug string) (*notion.OfferSummary, error)
}

// Router dispatches parsed updates to screen handlers. Updates arrive
// sequentially from the polling loop, so handlers run one at a time.
type Router struct {
	chatID   int64 // the single authorized operator chat
	accounts []string

	msg      Messenger
	gateway  Gateway
	cache    *creative.Cache
	genr     ImageGenerator
	syncer   WorkspaceSyncer
	sessions *session.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRouter wires a router. syncer may be nil.
func NewRouter(
	chatID int64,
	accounts []string,
	msg Messenger,
	gateway Gateway,
	cache *creative.Cache,
	genr ImageGenerator,
	syncer WorkspaceSyncer,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Router {
	return &Router{
		chatID:   chatID,
		accounts: accounts,
		msg:      msg,
		gateway:  gateway,
		cache:    cache,
		genr:     genr,
		syncer:   syncer,
		sessions: session.NewStore(),
		metrics:  m,
		logger:   logger.With("component", "router"),
	}
}

// authorized gates every inbound update on the configured chat id.
// Foreign chats are dropped without a reply.
func (r *Router) authorized(chatID int64) bool {
	if chatID == r.chatID {
		return true
	}
	r.logger.Warn("dropping update from unauthorized chat", "chat_id", chatID)
	r.metrics.Unauthorized.Inc()
	return false
}

// responder abstracts "new message" vs "edit in place": command handlers
// send, callback handlers edit the message their keyboard lives on.
type responder struct {
	msg    Messenger
	chatID int64
	editID int // 0 means send a new message
}

func (rd *responder) render(text string, kb *tgbotapi.InlineKeyboardMarkup) error {
	if rd.editID != 0 {
		return rd.msg.Edit(rd.chatID, rd.editID, text, kb)
	}
	_, err := rd.msg.Send(rd.chatID, text, kb)
	return err
}

// HandleCommand routes a slash command.
func (r *Router) HandleCommand(ctx context.Context, chatID int64, command string) {
	if !r.authorized(chatID) {
		return
	}
	r.metrics.CommandsTotal.WithLabelValues(command).Inc()
	rd := &responder{msg: r.msg, chatID: chatID}
	sess := r.sessions.Get(chatID)

	switch command {
	case "start":
		r.showMainMenu(rd)
	case "report":
		r.runDailyReport(ctx, rd)
	case "weekly":
		r.runWeeklyReport(ctx, rd)
	case "campaigns", "adsets", "ads":
		// adsets and ads are plain aliases: the tree is always entered
		// from the top.
		r.showAccountSelector(ctx, rd)
	case "generate_ads":
		r.showClientSelector(rd, sess)
	case "sync":
		r.runClientSync(ctx, rd)
	case "help":
		r.showHelp(rd)
	default:
		r.renderOrLog(rd, "Unknown command\\. Try /help\\.", nil)
	}
}

// HandleText routes a free-text message. Text only matters while a budget
// edit is pending; anything else gets a gentle nudge back to the menu.
func (r *Router) HandleText(ctx context.Context, chatID int64, text string) {
	if !r.authorized(chatID) {
		return
	}
	rd := &responder{msg: r.msg, chatID: chatID}
	sess := r.sessions.Get(chatID)

	if sess.PendingBudget == nil {
		r.renderOrLog(rd, "Use the menu buttons, or /help for commands\\.", nil)
		return
	}
	r.handleBudgetInput(ctx, rd, sess, text)
}

// HandleCallback parses and routes a callback token. messageID is the
// message carrying the tapped keyboard, so screens are edited in place.
func (r *Router) HandleCallback(ctx context.Context, chatID int64, messageID int, data string) {
	if !r.authorized(chatID) {
		return
	}
	action, err := ParseAction(data)
	if err != nil {
		// Unknown tokens are ignored: old keyboards may outlive a deploy.
		r.logger.Warn("ignoring callback", "data", data, "error", err)
		return
	}
	r.metrics.CallbacksTotal.WithLabelValues(action.Kind.String()).Inc()

	rd := &responder{msg: r.msg, chatID: chatID, editID: messageID}
	sess := r.sessions.Get(chatID)

	switch action.Kind {
	case KindMenu:
		r.handleMenu(ctx, rd, sess, action.Menu)
	case KindSelectAccount:
		sess.CurrentAccount = action.ID
		r.showCampaigns(ctx, rd, action.ID)
	case KindSelect:
		r.showEntity(ctx, rd, sess, action.Entity, action.ID)
	case KindListAdsets:
		sess.CurrentCampaign = action.ID
		r.showAdsets(ctx, rd, action.ID)
	case KindListAds:
		sess.CurrentAdset = action.ID
		r.showAds(ctx, rd, action.ID)
	case KindMutate:
		r.promptMutation(rd, sess, action)
	case KindConfirm:
		r.applyMutation(ctx, rd, sess, action)
	case KindAdsClient:
		sess.StartAdsFlow(action.Slug)
		r.showOffers(rd, action.Slug)
	case KindAdsOffer:
		r.showHooks(rd, sess, action.Slug, action.OfferSlug)
	case KindAdsHook:
		sess.AdsFlow.Toggle(action.HookIndex)
		r.refreshHooks(rd, sess)
	case KindAdsGenerate:
		r.runGeneration(ctx, rd, sess)
	case KindAdsCancel:
		sess.AdsFlow = session.AdsFlow{}
		r.showMainMenu(rd)
	case KindAdsSyncClients:
		r.runClientSync(ctx, rd)
	case KindAdsSyncOffers:
		r.runOfferSync(ctx, rd, sess, action.Slug)
	}
}

func (r *Router) handleMenu(ctx context.Context, rd *responder, sess *session.Session, menu string) {
	switch menu {
	case "start":
		r.showMainMenu(rd)
	case "report":
		r.runDailyReport(ctx, rd)
	case "weekly":
		r.runWeeklyReport(ctx, rd)
	case "campaigns":
		r.showAccountSelector(ctx, rd)
	case "generate_ads":
		r.showClientSelector(rd, sess)
	case "help":
		r.showHelp(rd)
	}
}

// renderOrLog renders a screen and logs the transport error if any;
// there is nobody else to report it to.
func (r *Router) renderOrLog(rd *responder, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if err := rd.render(text, kb); err != nil {
		r.logger.Error("failed to render message", "error", err)
	}
}

// SendDailyReport pushes the daily report to the operator chat as a new
// message. The scheduler calls this outside any update.
func (r *Router) SendDailyReport(ctx context.Context) {
	r.runDailyReport(ctx, &responder{msg: r.msg, chatID: r.chatID})
}

// SendWeeklyReport pushes the 7-day comparison to the operator chat.
func (r *Router) SendWeeklyReport(ctx context.Context) {
	r.runWeeklyReport(ctx, &responder{msg: r.msg, chatID: r.chatID})
}

// adsErrorText counts a platform failure and turns it into operator
// guidance.
func (r *Router) adsErrorText(err error) string {
	kind := ads.KindOf(err)
	r.metrics.AdsAPIErrorsTotal.WithLabelValues(kind.String()).Inc()
	switch kind {
	case ads.KindTokenExpired:
		return "Access token expired. Refresh the token and restart."
	case ads.KindRateLimit:
		return "Rate limited by the ads platform. Wait a few minutes and retry."
	case ads.KindPermission:
		return "The token lacks permission for this account."
	case ads.KindInvalidAccount:
		return "Invalid account or entity id."
	}
	var apiErr *ads.APIError
	if errors.As(err, &apiErr) {
		return "Ads platform error: " + apiErr.Message
	}
	return "Request failed: " + err.Error()
}
