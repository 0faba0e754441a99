package prescription

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var paris = time.FixedZone("CET", 3600)

func TestComputeExpiryNormalisesToMidnight(t *testing.T) {
	now := time.Date(2024, 1, 1, 15, 42, 7, 123, paris)

	got := ComputeExpiry(now, 5)

	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, paris), got)
}

func TestComputeExpirySameDaySameResult(t *testing.T) {
	morning := time.Date(2024, 3, 10, 0, 0, 1, 0, paris)
	evening := time.Date(2024, 3, 10, 23, 59, 59, 0, paris)

	assert.Equal(t, ComputeExpiry(morning, 12), ComputeExpiry(evening, 12))
}

func TestComputeExpiryCrossesMonthEnd(t *testing.T) {
	now := time.Date(2024, 2, 27, 9, 0, 0, 0, paris)

	assert.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, paris), ComputeExpiry(now, 4))
}

func TestDaysLeftRoundTrip(t *testing.T) {
	now := time.Date(2024, 1, 1, 18, 30, 0, 0, paris)
	for d := 0; d < 400; d++ {
		assert.Equal(t, d, DaysLeft(now, ComputeExpiry(now, d)), "days=%d", d)
	}
}

func TestDaysLeftSigns(t *testing.T) {
	now := time.Date(2024, 6, 15, 8, 0, 0, 0, paris)

	assert.Equal(t, 0, DaysLeft(now, time.Date(2024, 6, 15, 23, 0, 0, 0, paris)))
	assert.Equal(t, -1, DaysLeft(now, time.Date(2024, 6, 14, 0, 0, 0, 0, paris)))
	assert.Equal(t, 3, DaysLeft(now, time.Date(2024, 6, 18, 0, 0, 0, 0, paris)))
}

func TestDaysLeftIgnoresTimeOfDay(t *testing.T) {
	lateNight := time.Date(2024, 6, 15, 23, 59, 0, 0, paris)
	earlyExpiry := time.Date(2024, 6, 16, 0, 1, 0, 0, paris)

	assert.Equal(t, 1, DaysLeft(lateNight, earlyExpiry))
}

func TestDaysLeftUsesNowLocation(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, paris)
	// 2024-01-05T23:30Z is 2024-01-06 00:30 in CET.
	exp := time.Date(2024, 1, 5, 23, 30, 0, 0, time.UTC)

	assert.Equal(t, 5, DaysLeft(now, exp))
}

func TestDaysLeftAcrossDSTChange(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks go back on 2024-10-27, that calendar day lasts 25h.
	now := time.Date(2024, 10, 26, 12, 0, 0, 0, loc)

	assert.Equal(t, 2, DaysLeft(now, ComputeExpiry(now, 2)))
	assert.Equal(t, 1, DaysLeft(now, ComputeExpiry(now, 1)))
}

func TestInWindow(t *testing.T) {
	cases := map[int]bool{-1: false, 0: true, 3: true, 7: true, 8: false}
	for dl, want := range cases {
		assert.Equal(t, want, InWindow(dl), "dl=%d", dl)
	}
}
