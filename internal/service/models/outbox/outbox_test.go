package outbox

import (
	"testing"
	"time"
)

func TestNextAttempt(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	base := 30 * time.Second

	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{1, time.Minute},
		{2, 2 * time.Minute},
		{3, 4 * time.Minute},
	}

	for _, tt := range tests {
		if got := NextAttempt(now, tt.retryCount, base); !got.Equal(now.Add(tt.want)) {
			t.Errorf("NextAttempt(retry=%d) = %s, want %s", tt.retryCount, got, now.Add(tt.want))
		}
	}
}
