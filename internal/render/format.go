// Package render builds the MarkdownV2 message bodies the bot sends.
package render

import (
	"fmt"
	"strings"

	"github.com/marktr/adbot/internal/ads"
)

// Escape escapes MarkdownV2 special characters.
func Escape(text string) string {
	const special = "_*[]()~`>#+-=|{}.!"
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if strings.ContainsRune(special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Success formats a ✅ confirmation line.
func Success(msg string) string {
	return "✅ " + Escape(msg)
}

// Error formats a ❌ error line.
func Error(msg string) string {
	return "❌ " + Escape(msg)
}

// DailyReport renders yesterday's metrics for one account.
func DailyReport(accountID string, row *ads.InsightRow) string {
	if row == nil {
		return fmt.Sprintf("*%s*\nNo data for yesterday\\.", Escape(accountID))
	}

	lines := []string{
		fmt.Sprintf("*%s*  \\(`%s`\\)", Escape(row.AccountName), Escape(accountID)),
		fmt.Sprintf("Date: %s", Escape(row.DateStart)),
		"",
		fmt.Sprintf("Impressions: *%s*", Escape(groupInt(row.Impressions))),
		fmt.Sprintf("Clicks: *%s*", Escape(groupInt(row.Clicks))),
		fmt.Sprintf("CPM: *%s*", Escape(fmt.Sprintf("$%.2f", row.CPM))),
		fmt.Sprintf("Frequency: *%s*", Escape(fmt.Sprintf("%.2f", row.Frequency))),
		fmt.Sprintf("Spend: *%s*", Escape(fmt.Sprintf("$%.2f", row.Spend))),
		fmt.Sprintf("Leads: *%d*", row.Leads),
	}
	if row.CostPerLead != nil {
		lines = append(lines, fmt.Sprintf("CPL: *%s*", Escape(fmt.Sprintf("$%.2f", *row.CostPerLead))))
	} else {
		lines = append(lines, "CPL: *N/A* \\(no leads\\)")
	}
	return strings.Join(lines, "\n")
}

// WeeklyReport renders the rolling 7-day comparison for one account.
func WeeklyReport(accountID string, comp *ads.Comparison) string {
	if comp == nil || comp.Current == nil {
		return fmt.Sprintf("*%s*\nNo data for current period\\.", Escape(accountID))
	}
	cur, prev := comp.Current, comp.Previous

	lines := []string{
		fmt.Sprintf("*%s* — 7\\-day summary", Escape(cur.AccountName)),
		fmt.Sprintf("%s → %s", Escape(cur.DateStart), Escape(cur.DateStop)),
		"",
	}

	type metric struct {
		label    string
		cur      *float64
		prev     *float64
		isDollar bool
	}
	metrics := []metric{
		{"Impressions", f(float64(cur.Impressions)), prevVal(prev, func(r *ads.InsightRow) float64 { return float64(r.Impressions) }), false},
		{"Clicks", f(float64(cur.Clicks)), prevVal(prev, func(r *ads.InsightRow) float64 { return float64(r.Clicks) }), false},
		{"CPM", f(cur.CPM), prevVal(prev, func(r *ads.InsightRow) float64 { return r.CPM }), true},
		{"Frequency", f(cur.Frequency), prevVal(prev, func(r *ads.InsightRow) float64 { return r.Frequency }), false},
		{"Spend", f(cur.Spend), prevVal(prev, func(r *ads.InsightRow) float64 { return r.Spend }), true},
		{"Leads", f(float64(cur.Leads)), prevVal(prev, func(r *ads.InsightRow) float64 { return float64(r.Leads) }), false},
		{"CPL", cur.CostPerLead, prevCPL(prev), true},
	}

	for _, m := range metrics {
		lines = append(lines, metricLine(m.label, m.cur, m.prev, m.isDollar))
	}
	return strings.Join(lines, "\n")
}

// EntityInfo renders the detail header for a selected campaign tree node.
func EntityInfo(e *ads.Entity, entityType string) string {
	emoji := "🔴"
	if e.Status == ads.StatusActive {
		emoji = "🟢"
	}

	lines := []string{
		fmt.Sprintf("%s *%s*", emoji, Escape(e.Name)),
		fmt.Sprintf("Status: %s", Escape(e.Status)),
	}
	if entityType == "campaign" || entityType == "adset" {
		if e.DailyBudget != nil {
			lines = append(lines, fmt.Sprintf("Daily budget: %s", Escape(fmt.Sprintf("$%.2f", *e.DailyBudget))))
		}
		if e.LifetimeBudget != nil {
			lines = append(lines, fmt.Sprintf("Lifetime budget: %s", Escape(fmt.Sprintf("$%.2f", *e.LifetimeBudget))))
		}
	}
	if entityType == "campaign" && e.Objective != "" {
		lines = append(lines, fmt.Sprintf("Objective: %s", Escape(e.Objective)))
	}
	return strings.Join(lines, "\n")
}

func metricLine(label string, cur, prev *float64, isDollar bool) string {
	if cur == nil {
		return label + ": N/A"
	}

	var curStr string
	if isDollar {
		curStr = Escape(fmt.Sprintf("$%.2f", *cur))
	} else {
		curStr = Escape(groupFloat(*cur))
	}

	if prev != nil && *prev != 0 {
		pct := (*cur - *prev) / *prev * 100
		arrow := "➡️"
		if pct > 0 {
			arrow = "📈"
		} else if pct < 0 {
			arrow = "📉"
		}
		return fmt.Sprintf("%s: *%s* %s %s%%", label, curStr, arrow, Escape(fmt.Sprintf("%+.1f", pct)))
	}
	return fmt.Sprintf("%s: *%s*", label, curStr)
}

func f(v float64) *float64 { return &v }

func prevVal(prev *ads.InsightRow, get func(*ads.InsightRow) float64) *float64 {
	if prev == nil {
		return nil
	}
	v := get(prev)
	return &v
}

func prevCPL(prev *ads.InsightRow) *float64 {
	if prev == nil {
		return nil
	}
	return prev.CostPerLead
}

// groupInt renders 12345 as "12,345".
func groupInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

func groupFloat(v float64) string {
	if v == float64(int64(v)) {
		return groupInt(int64(v))
	}
	whole := int64(v)
	frac := fmt.Sprintf("%.2f", v-float64(whole))
	return groupInt(whole) + frac[1:]
}
