package domain

import (
	"testing"
	"time"
)

func TestLicenseRemainingChargesOnlyWhileRunning(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lic := License{RemainingSeconds: 3600, Status: LicenseStatusActive}

	if got := lic.Remaining(start.Add(time.Hour)); got != time.Hour {
		t.Fatalf("clockless license should not be charged, got %v", got)
	}

	lic.StartedAt = &start
	if got := lic.Remaining(start.Add(10 * time.Minute)); got != 50*time.Minute {
		t.Fatalf("expected 50m remaining, got %v", got)
	}
	if got := lic.Remaining(start.Add(2 * time.Hour)); got != 0 {
		t.Fatalf("remaining must clamp at zero, got %v", got)
	}
}

func TestLicenseExpiredRequiresActivation(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lic := License{RemainingSeconds: 60, StartedAt: &start}

	if lic.Expired(start.Add(time.Hour)) {
		t.Fatalf("unactivated license must never expire")
	}
	lic.Activated = true
	if !lic.Expired(start.Add(time.Hour)) {
		t.Fatalf("activated license with spent duration should be expired")
	}
}

func TestEffectiveResetsUsedRollingWindow(t *testing.T) {
	t.Parallel()

	quota := ResetQuota{MaxResets: 3, Window: 30 * 24 * time.Hour}
	windowStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lic := License{ResetsUsed: 3, ResetWindowStartedAt: &windowStart}

	inWindow := windowStart.Add(29 * 24 * time.Hour)
	if got := lic.EffectiveResetsUsed(inWindow, quota); got != 3 {
		t.Fatalf("expected 3 resets inside window, got %d", got)
	}

	afterWindow := windowStart.Add(31 * 24 * time.Hour)
	if got := lic.EffectiveResetsUsed(afterWindow, quota); got != 0 {
		t.Fatalf("expected counter to roll over after window, got %d", got)
	}

	lic.ResetWindowStartedAt = nil
	if got := lic.EffectiveResetsUsed(inWindow, quota); got != 0 {
		t.Fatalf("expected 0 with no window marker, got %d", got)
	}
}
