package ads

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

// insightFields is what we ask the API for on every insights query.
const insightFields = "account_name,impressions,clicks,cpm,frequency,spend,actions,cost_per_action_type"

// InsightRow is one aggregated metrics snapshot for an account over a
// date range. CostPerLead is nil (not zero) when the account recorded no
// leads in the range.
type InsightRow struct {
	AccountName string
	Impressions int64
	Clicks      int64
	CPM         float64
	Frequency   float64
	Spend       float64
	Leads       int64
	CostPerLead *float64
	DateStart   string
	DateStop    string
}

// Comparison pairs the current rolling window with the one before it.
// Either side is nil when the upstream has no data for that window.
type Comparison struct {
	Current  *InsightRow
	Previous *InsightRow
}

type actionEntry struct {
	ActionType string `json:"action_type"`
	Value      string `json:"value"`
}

type insightsResponse struct {
	Data []struct {
		AccountName       string        `json:"account_name"`
		Impressions       string        `json:"impressions"`
		Clicks            string        `json:"clicks"`
		CPM               string        `json:"cpm"`
		Frequency         string        `json:"frequency"`
		Spend             string        `json:"spend"`
		Actions           []actionEntry `json:"actions"`
		CostPerActionType []actionEntry `json:"cost_per_action_type"`
		DateStart         string        `json:"date_start"`
		DateStop          string        `json:"date_stop"`
	} `json:"data"`
}

func (c *Client) queryInsights(ctx context.Context, accountID string, since, until time.Time) (*InsightRow, error) {
	timeRange, _ := json.Marshal(map[string]string{
		"since": since.Format("2006-01-02"),
		"until": until.Format("2006-01-02"),
	})
	params := url.Values{
		"fields":     {insightFields},
		"time_range": {string(timeRange)},
		"level":      {"account"},
	}

	var resp insightsResponse
	if err := c.getJSON(ctx, accountID+"/insights", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	d := resp.Data[0]
	row := &InsightRow{
		AccountName: d.AccountName,
		Impressions: parseInt(d.Impressions),
		Clicks:      parseInt(d.Clicks),
		CPM:         parseFloat(d.CPM),
		Frequency:   parseFloat(d.Frequency),
		Spend:       parseFloat(d.Spend),
		Leads:       leadCount(d.Actions),
		CostPerLead: leadCost(d.CostPerActionType),
		DateStart:   d.DateStart,
		DateStop:    d.DateStop,
	}
	if row.AccountName == "" {
		row.AccountName = "Unknown"
	}
	return row, nil
}

// GetDailyInsights fetches yesterday's aggregated row for an account.
// No row for that date is not an error; the result is just nil.
func (c *Client) GetDailyInsights(ctx context.Context, accountID string) (*InsightRow, error) {
	yesterday := c.now().AddDate(0, 0, -1)
	return c.queryInsights(ctx, accountID, yesterday, yesterday)
}

// GetComparisonInsights fetches two contiguous, non-overlapping windows:
// current = the `days` days ending yesterday, previous = the `days` days
// immediately before that.
func (c *Client) GetComparisonInsights(ctx context.Context, accountID string, days int) (*Comparison, error) {
	currentEnd := c.now().AddDate(0, 0, -1)
	currentStart := currentEnd.AddDate(0, 0, -(days - 1))
	previousEnd := currentStart.AddDate(0, 0, -1)
	previousStart := previousEnd.AddDate(0, 0, -(days - 1))

	current, err := c.queryInsights(ctx, accountID, currentStart, currentEnd)
	if err != nil {
		return nil, err
	}
	previous, err := c.queryInsights(ctx, accountID, previousStart, previousEnd)
	if err != nil {
		return nil, err
	}
	return &Comparison{Current: current, Previous: previous}, nil
}

// leadCount sums the "lead" entry of an actions breakdown, 0 if absent.
func leadCount(actions []actionEntry) int64 {
	var total int64
	for _, a := range actions {
		if a.ActionType == "lead" {
			total += parseInt(a.Value)
		}
	}
	return total
}

// leadCost extracts cost-per-lead, nil if absent.
func leadCost(costs []actionEntry) *float64 {
	for _, a := range costs {
		if a.ActionType == "lead" {
			v := parseFloat(a.Value)
			return &v
		}
	}
	return nil
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
