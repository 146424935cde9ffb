package ads

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// Status values the gateway knows how to set.
const (
	StatusActive = "ACTIVE"
	StatusPaused = "PAUSED"
)

// Entity is one node of the campaign tree. Budget fields are in major
// currency units; nil means the upstream did not report a budget, which
// is distinct from zero.
type Entity struct {
	ID             string
	Name           string
	Status         string
	DailyBudget    *float64
	LifetimeBudget *float64
	Objective      string // campaigns only
	ParentID       string // campaign_id for adsets, adset_id for ads
}

type listResponse struct {
	Data []struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Status         string `json:"status"`
		DailyBudget    string `json:"daily_budget"`
		LifetimeBudget string `json:"lifetime_budget"`
		Objective      string `json:"objective"`
		CampaignID     string `json:"campaign_id"`
		AdsetID        string `json:"adset_id"`
	} `json:"data"`
}

// ListCampaigns returns the campaigns of an ad account.
func (c *Client) ListCampaigns(ctx context.Context, accountID string) ([]Entity, error) {
	params := url.Values{"fields": {"name,status,daily_budget,lifetime_budget,objective"}}
	var resp listResponse
	if err := c.getJSON(ctx, accountID+"/campaigns", params, &resp); err != nil {
		return nil, err
	}
	out := make([]Entity, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, Entity{
			ID:             d.ID,
			Name:           d.Name,
			Status:         d.Status,
			DailyBudget:    centsToMajor(d.DailyBudget),
			LifetimeBudget: centsToMajor(d.LifetimeBudget),
			Objective:      d.Objective,
		})
	}
	return out, nil
}

// ListAdsets returns the ad sets of a campaign.
func (c *Client) ListAdsets(ctx context.Context, campaignID string) ([]Entity, error) {
	params := url.Values{"fields": {"name,status,daily_budget,lifetime_budget,campaign_id"}}
	var resp listResponse
	if err := c.getJSON(ctx, campaignID+"/adsets", params, &resp); err != nil {
		return nil, err
	}
	out := make([]Entity, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, Entity{
			ID:             d.ID,
			Name:           d.Name,
			Status:         d.Status,
			DailyBudget:    centsToMajor(d.DailyBudget),
			LifetimeBudget: centsToMajor(d.LifetimeBudget),
			ParentID:       d.CampaignID,
		})
	}
	return out, nil
}

// ListAds returns the ads of an ad set.
func (c *Client) ListAds(ctx context.Context, adsetID string) ([]Entity, error) {
	params := url.Values{"fields": {"name,status,adset_id"}}
	var resp listResponse
	if err := c.getJSON(ctx, adsetID+"/ads", params, &resp); err != nil {
		return nil, err
	}
	out := make([]Entity, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, Entity{
			ID:       d.ID,
			Name:     d.Name,
			Status:   d.Status,
			ParentID: d.AdsetID,
		})
	}
	return out, nil
}

// GetEntity fetches one node of the tree by id. The field set depends on
// the level: only campaigns carry an objective, and ads carry no budget.
func (c *Client) GetEntity(ctx context.Context, entityType, entityID string) (*Entity, error) {
	fields := "name,status"
	switch entityType {
	case "campaign":
		fields = "name,status,daily_budget,lifetime_budget,objective"
	case "adset":
		fields = "name,status,daily_budget,lifetime_budget,campaign_id"
	case "ad":
		fields = "name,status,adset_id"
	}
	var d struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Status         string `json:"status"`
		DailyBudget    string `json:"daily_budget"`
		LifetimeBudget string `json:"lifetime_budget"`
		Objective      string `json:"objective"`
		CampaignID     string `json:"campaign_id"`
		AdsetID        string `json:"adset_id"`
	}
	if err := c.getJSON(ctx, entityID, url.Values{"fields": {fields}}, &d); err != nil {
		return nil, err
	}
	parent := d.CampaignID
	if parent == "" {
		parent = d.AdsetID
	}
	return &Entity{
		ID:             d.ID,
		Name:           d.Name,
		Status:         d.Status,
		DailyBudget:    centsToMajor(d.DailyBudget),
		LifetimeBudget: centsToMajor(d.LifetimeBudget),
		Objective:      d.Objective,
		ParentID:       parent,
	}, nil
}

// UpdateStatus sets an entity's status to ACTIVE or PAUSED.
func (c *Client) UpdateStatus(ctx context.Context, entityType, entityID, newStatus string) error {
	if newStatus != StatusActive && newStatus != StatusPaused {
		return fmt.Errorf("unsupported status %q", newStatus)
	}
	if err := c.postForm(ctx, entityID, url.Values{"status": {newStatus}}); err != nil {
		return err
	}
	c.logger.Info("updated status", "entity_type", entityType, "entity_id", entityID, "status", newStatus)
	return nil
}

// UpdateBudget sets the daily budget of a campaign or ad set. The amount
// is given in major units and sent upstream in minor units, rounded
// half-to-even at the cent boundary. Ads carry no budget of their own.
func (c *Client) UpdateBudget(ctx context.Context, entityType, entityID string, dollars float64) error {
	if entityType != "campaign" && entityType != "adset" {
		return fmt.Errorf("budget can only be set on campaigns or adsets, not %q", entityType)
	}
	cents := int64(math.RoundToEven(dollars * 100))
	if err := c.postForm(ctx, entityID, url.Values{"daily_budget": {strconv.FormatInt(cents, 10)}}); err != nil {
		return err
	}
	c.logger.Info("updated daily budget",
		"entity_type", entityType,
		"entity_id", entityID,
		"amount", fmt.Sprintf("%.2f", dollars),
	)
	return nil
}

// centsToMajor converts a minor-unit string ("5000") to major units.
// Absent values stay nil, never zero.
func centsToMajor(v string) *float64 {
	if v == "" {
		return nil
	}
	cents, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	major := float64(cents) / 100.0
	return &major
}
