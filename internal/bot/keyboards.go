package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/marktr/adbot/internal/ads"
	"github.com/marktr/adbot/internal/creative"
	"github.com/marktr/adbot/internal/session"
)

// Callback data is capped at 64 bytes by Telegram, so button labels carry
// the human-readable part and tokens stay short: entity ids, slugs and a
// handful of fixed verbs.

const (
	entityLabelMax = 30
	clientLabelMax = 40
)

// mainMenu is the top-level navigation keyboard.
func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Daily Report", "cmd_report"),
			tgbotapi.NewInlineKeyboardButtonData("📈 Weekly Report", "cmd_weekly"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 Campaigns", "cmd_campaigns"),
			tgbotapi.NewInlineKeyboardButtonData("🎨 Generate Ads", "cmd_generate_ads"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❓ Help", "cmd_help"),
		),
	)
}

// accountSelector lists the configured ad accounts, one per row.
func accountSelector(accountIDs []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(accountIDs)+1)
	for _, id := range accountIDs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(id, "selacct_campaigns_"+id),
		))
	}
	rows = append(rows, backRow("cmd_start"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// entityList renders one campaign-tree level, one entity per row, with a
// status emoji and a truncated name. backTo is the token for the Back row.
func entityList(entities []ads.Entity, entityType session.EntityType, backTo string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entities)+1)
	for _, e := range entities {
		label := statusEmoji(e.Status) + " " + truncate(e.Name, entityLabelMax)
		token := fmt.Sprintf("select_%s_%s", entityType, e.ID)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, token),
		))
	}
	rows = append(rows, backRow(backTo))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// entityActions renders the action sheet for a selected entity. Pause
// shows only for ACTIVE, Resume only for PAUSED; other statuses
// (ARCHIVED, DELETED, IN_PROCESS) get neither. Budget editing and
// drill-down only exist at the levels that support them.
func entityActions(e *ads.Entity, entityType session.EntityType, backTo string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	switch e.Status {
	case ads.StatusActive:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏸ Pause", fmt.Sprintf("pause_%s_%s", entityType, e.ID)),
		))
	case ads.StatusPaused:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Resume", fmt.Sprintf("resume_%s_%s", entityType, e.ID)),
		))
	}

	if entityType == session.EntityCampaign || entityType == session.EntityAdset {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Edit Budget", fmt.Sprintf("budget_%s_%s", entityType, e.ID)),
		))
	}

	switch entityType {
	case session.EntityCampaign:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📂 View Ad Sets", "listadsets_"+e.ID),
		))
	case session.EntityAdset:
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📂 View Ads", "listads_"+e.ID),
		))
	}

	rows = append(rows, backRow(backTo))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// confirmKeyboard is the two-button confirmation step for a mutation.
func confirmKeyboard(op MutateOp, entityType session.EntityType, entityID, cancelTo string) tgbotapi.InlineKeyboardMarkup {
	token := fmt.Sprintf("confirm_%s_%s_%s", op, entityType, entityID)
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", token),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", cancelTo),
		),
	)
}

// clientSelector lists synced workspace clients with their stage emoji,
// plus a resync row.
func clientSelector(clients []creative.ClientEntry) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(clients)+2)
	for _, c := range clients {
		label := creative.StageEmoji(c.Client.Stage) + " " + truncate(c.Client.Name, clientLabelMax)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "ads_client_"+c.Slug),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Sync Clients", "ads_sync_clients"),
	))
	rows = append(rows, backRow("cmd_start"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// offerSelector lists a client's cached offers plus a refresh row.
func offerSelector(clientSlug string, offers []creative.Offer) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(offers)+2)
	for _, o := range offers {
		label := fmt.Sprintf("%s — %s", truncate(o.Name, clientLabelMax), o.Price)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("ads_offer_%s_%s", clientSlug, o.Slug)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Re-sync Offers", "ads_sync_offers_"+clientSlug),
	))
	rows = append(rows, backRow("cmd_generate_ads"))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// hookSelector is a multi-select keyboard over hook history. Selected
// rows carry a ✅ prefix; tapping again deselects. Generate only shows
// once something is selected.
func hookSelector(hooks []creative.Hook, selected map[int]bool) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(hooks)+2)
	anySelected := false
	for i, h := range hooks {
		label := truncate(h.Hook, clientLabelMax)
		if selected[i] {
			label = "✅ " + label
			anySelected = true
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("ads_hook_%d", i)),
		))
	}
	bottom := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "ads_cancel"),
	}
	if anySelected {
		bottom = append([]tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("🎨 Generate", "ads_generate"),
		}, bottom...)
	}
	rows = append(rows, bottom)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// syncOffersPrompt offers a one-button re-sync when a client has no
// cached offers yet.
func syncOffersPrompt(clientSlug string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Sync Offers", "ads_sync_offers_"+clientSlug),
		),
		backRow("cmd_generate_ads"),
	)
}

func backRow(to string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", to),
	)
}

func statusEmoji(status string) string {
	if status == ads.StatusActive {
		return "🟢"
	}
	return "🔴"
}

// truncate shortens s to at most max runes, appending an ellipsis when
// anything was cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
