package ads

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		subcode int
		want    ErrorKind
	}{
		{"token code", 190, 0, KindTokenExpired},
		{"token subcode 463", 0, 463, KindTokenExpired},
		{"token subcode 467", 1, 467, KindTokenExpired},
		{"rate limit 4", 4, 0, KindRateLimit},
		{"rate limit 17", 17, 0, KindRateLimit},
		{"rate limit 32", 32, 0, KindRateLimit},
		{"rate limit 613", 613, 0, KindRateLimit},
		{"permission 10", 10, 0, KindPermission},
		{"permission 200", 200, 0, KindPermission},
		{"permission 273", 273, 0, KindPermission},
		{"permission 294", 294, 0, KindPermission},
		{"invalid account", 100, 0, KindInvalidAccount},
		{"unknown code", 999, 0, KindGeneric},
		{"zero values", 0, 0, KindGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.code, tt.subcode); got != tt.want {
				t.Errorf("Classify(%d, %d) = %v, want %v", tt.code, tt.subcode, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	apiErr := newAPIError(190, 0, "expired")
	wrapped := fmt.Errorf("listing campaigns: %w", apiErr)
	if got := KindOf(wrapped); got != KindTokenExpired {
		t.Errorf("KindOf(wrapped) = %v, want KindTokenExpired", got)
	}
	if got := KindOf(errors.New("plain")); got != KindGeneric {
		t.Errorf("KindOf(plain) = %v, want KindGeneric", got)
	}
}
