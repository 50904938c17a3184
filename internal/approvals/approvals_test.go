package approvals

import (
	"testing"
	"time"
)

func TestSLABreached(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		waited   time.Duration
		slaHours int
		want     bool
	}{
		{"past budget", 25 * time.Hour, 24, true},
		{"inside budget", 25 * time.Hour, 26, false},
		{"exactly at budget", 24 * time.Hour, 24, false},
		{"no sla", 500 * time.Hour, 0, false},
		{"negative sla treated as none", 500 * time.Hour, -3, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SLABreached(now.Add(-tc.waited), tc.slaHours, now)
			if got != tc.want {
				t.Fatalf("SLABreached(waited=%v, sla=%dh) = %v, want %v", tc.waited, tc.slaHours, got, tc.want)
			}
		})
	}
}

func TestPendingApprovalBreached(t *testing.T) {
	now := time.Now()
	item := PendingApproval{SLAHours: 24, UpdatedAt: now.Add(-25 * time.Hour)}
	if !item.Breached(now) {
		t.Fatalf("expected breach after 25h against a 24h budget")
	}
	item.SLAHours = 0
	if item.Breached(now) {
		t.Fatalf("stage without an SLA must never breach")
	}
}
