package domain

import "testing"

func TestBasePrice_Table(t *testing.T) {
	cases := []struct {
		breed Breed
		units int64
	}{
		{BreedJersey, 1000},
		{BreedLimousin, 1000},
		{BreedHallikar, 1000},
		{BreedHereford, 5000},
		{BreedHolstein, 15000},
		{BreedSimmental, 15000},
	}

	for _, c := range cases {
		got := BasePrice(c.breed)
		want := c.units * MicroUnitsPerUnit
		if got != want {
			t.Errorf("BasePrice(%s) = %d, want %d", c.breed, got, want)
		}
		if got <= 0 {
			t.Errorf("BasePrice(%s) = %d, want positive", c.breed, got)
		}
	}
}

func TestAppraise_KnownHistory(t *testing.T) {
	// Hereford, 3 on-time + 1 late feeds: multiplier 175 of 10000,
	// adjustment 87 units, price 5087 units.
	stats := FeedingStats{OnTime: 3, Late: 1, Forget: 0}
	got := Appraise(stats, BasePrice(BreedHereford))
	want := int64(5087) * MicroUnitsPerUnit
	if got != want {
		t.Errorf("Appraise = %d, want %d", got, want)
	}
}

func TestAppraise_NoHistory(t *testing.T) {
	base := BasePrice(BreedJersey)
	if got := Appraise(FeedingStats{}, base); got != base {
		t.Errorf("Appraise with no history = %d, want base %d", got, base)
	}
}

func TestAppraise_MonotonicInOnTime(t *testing.T) {
	base := BasePrice(BreedHolstein)
	prev := int64(-1)
	for onTime := uint32(0); onTime < 50; onTime++ {
		price := Appraise(FeedingStats{OnTime: onTime, Late: 2, Forget: 3}, base)
		if price < prev {
			t.Fatalf("price decreased at on_time=%d: %d < %d", onTime, price, prev)
		}
		prev = price
	}
}

func TestAppraise_MonotonicInForget(t *testing.T) {
	base := BasePrice(BreedHereford)
	prev := Appraise(FeedingStats{OnTime: 5}, base)
	for forget := uint32(1); forget < 200; forget++ {
		price := Appraise(FeedingStats{OnTime: 5, Forget: forget}, base)
		if price > prev {
			t.Fatalf("price increased at forget=%d: %d > %d", forget, price, prev)
		}
		prev = price
	}
}

func TestAppraise_FlooredAtZero(t *testing.T) {
	// 200 forgotten feeds push the multiplier far below -10000; the floor
	// caps the loss at 100% of base.
	base := BasePrice(BreedSimmental)
	got := Appraise(FeedingStats{Forget: 200}, base)
	if got != 0 {
		t.Errorf("Appraise at floor = %d, want 0", got)
	}
}

func TestAppraise_NeverNegative(t *testing.T) {
	base := BasePrice(BreedJersey)
	for forget := uint32(0); forget < 500; forget += 7 {
		if got := Appraise(FeedingStats{Forget: forget}, base); got < 0 {
			t.Fatalf("negative price %d at forget=%d", got, forget)
		}
	}
}

func TestAppraise_TruncatesTowardZero(t *testing.T) {
	// 1333 * 25 / 10000 = 3.3325, truncated to 3.
	base := int64(1333)
	got := Appraise(FeedingStats{Late: 1}, base)
	if got != 1336 {
		t.Errorf("Appraise = %d, want 1336", got)
	}
}
