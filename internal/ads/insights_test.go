package ads

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func fixedClock(y int, m time.Month, d int) func() time.Time {
	return func() time.Time { return time.Date(y, m, d, 10, 30, 0, 0, time.UTC) }
}

func TestGetDailyInsights(t *testing.T) {
	var gotTimeRange string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTimeRange = r.URL.Query().Get("time_range")
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"account_name": "Glow Spa",
				"impressions":  "12000",
				"clicks":       "340",
				"cpm":          "4.52",
				"frequency":    "1.8",
				"spend":        "54.20",
				"actions": []map[string]string{
					{"action_type": "link_click", "value": "300"},
					{"action_type": "lead", "value": "12"},
				},
				"cost_per_action_type": []map[string]string{
					{"action_type": "lead", "value": "4.52"},
				},
				"date_start": "2024-06-14",
				"date_stop":  "2024-06-14",
			}},
		})
	})
	c.SetClock(fixedClock(2024, time.June, 15))

	row, err := c.GetDailyInsights(context.Background(), "act_1")
	if err != nil {
		t.Fatalf("GetDailyInsights() error = %v", err)
	}
	if row == nil {
		t.Fatal("row = nil, want data")
	}

	var tr map[string]string
	if err := json.Unmarshal([]byte(gotTimeRange), &tr); err != nil {
		t.Fatalf("bad time_range %q: %v", gotTimeRange, err)
	}
	if tr["since"] != "2024-06-14" || tr["until"] != "2024-06-14" {
		t.Errorf("time_range = %v, want yesterday only", tr)
	}

	if row.Leads != 12 {
		t.Errorf("Leads = %d, want 12", row.Leads)
	}
	if row.CostPerLead == nil || *row.CostPerLead != 4.52 {
		t.Errorf("CostPerLead = %v, want 4.52", row.CostPerLead)
	}
	if row.Impressions != 12000 || row.Clicks != 340 {
		t.Errorf("Impressions/Clicks = %d/%d", row.Impressions, row.Clicks)
	}
}

func TestGetDailyInsightsNoData(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})
	c.SetClock(fixedClock(2024, time.June, 15))

	row, err := c.GetDailyInsights(context.Background(), "act_1")
	if err != nil {
		t.Fatalf("no data should not be an error, got %v", err)
	}
	if row != nil {
		t.Errorf("row = %+v, want nil", row)
	}
}

func TestGetDailyInsightsZeroLeads(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"account_name": "Quiet Account",
				"impressions":  "100",
				"actions":      []map[string]string{{"action_type": "link_click", "value": "5"}},
			}},
		})
	})
	c.SetClock(fixedClock(2024, time.June, 15))

	row, err := c.GetDailyInsights(context.Background(), "act_1")
	if err != nil {
		t.Fatal(err)
	}
	if row.Leads != 0 {
		t.Errorf("Leads = %d, want 0", row.Leads)
	}
	if row.CostPerLead != nil {
		t.Errorf("CostPerLead = %v, want nil when absent", *row.CostPerLead)
	}
}

func TestGetComparisonInsightsWindows(t *testing.T) {
	var ranges []map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var tr map[string]string
		json.Unmarshal([]byte(r.URL.Query().Get("time_range")), &tr)
		ranges = append(ranges, tr)
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"account_name": "X", "impressions": "1"}},
		})
	})
	// "Today" is 2024-06-15.
	c.SetClock(fixedClock(2024, time.June, 15))

	comp, err := c.GetComparisonInsights(context.Background(), "act_1", 7)
	if err != nil {
		t.Fatalf("GetComparisonInsights() error = %v", err)
	}
	if comp.Current == nil || comp.Previous == nil {
		t.Fatal("both windows should carry data")
	}

	if len(ranges) != 2 {
		t.Fatalf("got %d queries, want 2", len(ranges))
	}
	current, previous := ranges[0], ranges[1]
	if current["since"] != "2024-06-08" || current["until"] != "2024-06-14" {
		t.Errorf("current window = %v, want [2024-06-08, 2024-06-14]", current)
	}
	if previous["since"] != "2024-06-01" || previous["until"] != "2024-06-07" {
		t.Errorf("previous window = %v, want [2024-06-01, 2024-06-07]", previous)
	}
}

func TestGetComparisonInsightsIndependentNil(t *testing.T) {
	call := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		call++
		if call == 1 {
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{{"account_name": "X", "impressions": "1"}},
			})
			return
		}
		w.Write([]byte(`{"data":[]}`))
	})
	c.SetClock(fixedClock(2024, time.June, 15))

	comp, err := c.GetComparisonInsights(context.Background(), "act_1", 7)
	if err != nil {
		t.Fatal(err)
	}
	if comp.Current == nil {
		t.Error("Current = nil, want data")
	}
	if comp.Previous != nil {
		t.Error("Previous should be nil when its window has no rows")
	}
}
