package bot

import (
	"fmt"
	"strconv"
	"strings"
)

const maxDailyBudget = 100000

// parseBudgetInput parses a free-text daily budget amount in dollars.
// Currency symbols and thousands separators are tolerated; anything
// non-positive or implausibly large is rejected before it can reach the
// upstream API.
func parseBudgetInput(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", text)
	}
	if amount <= 0 {
		return 0, fmt.Errorf("budget must be positive, got %s", cleaned)
	}
	if amount > maxDailyBudget {
		return 0, fmt.Errorf("budget %s exceeds the $%d daily limit", cleaned, maxDailyBudget)
	}
	return amount, nil
}
