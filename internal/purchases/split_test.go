package purchases

import "testing"

func TestComputeSplit(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		platformBps int
		orgBps      int
		want        Split
	}{
		{
			name:        "ten percent platform only",
			amount:      2999,
			platformBps: 1000,
			want:        Split{PlatformFeeCents: 300, OrganizationFeeCents: 0, CreatorPayoutCents: 2699},
		},
		{
			name:        "platform and organization",
			amount:      10000,
			platformBps: 1000,
			orgBps:      500,
			want:        Split{PlatformFeeCents: 1000, OrganizationFeeCents: 500, CreatorPayoutCents: 8500},
		},
		{
			name:        "rounding half up",
			amount:      999,
			platformBps: 1000,
			want:        Split{PlatformFeeCents: 100, OrganizationFeeCents: 0, CreatorPayoutCents: 899},
		},
		{
			name:        "rounding half exactly",
			amount:      5,
			platformBps: 1000,
			want:        Split{PlatformFeeCents: 1, OrganizationFeeCents: 0, CreatorPayoutCents: 4},
		},
		{
			name:   "zero amount",
			amount: 0,
			want:   Split{},
		},
		{
			name:        "full rate overshoot clamps organization fee",
			amount:      1,
			platformBps: 5000,
			orgBps:      5000,
			want:        Split{PlatformFeeCents: 1, OrganizationFeeCents: 0, CreatorPayoutCents: 0},
		},
		{
			name:        "one cent",
			amount:      1,
			platformBps: 1000,
			want:        Split{PlatformFeeCents: 0, OrganizationFeeCents: 0, CreatorPayoutCents: 1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSplit(tc.amount, tc.platformBps, tc.orgBps)
			if err != nil {
				t.Fatalf("ComputeSplit: %v", err)
			}
			if got != tc.want {
				t.Fatalf("split = %+v, want %+v", got, tc.want)
			}
			sum := got.PlatformFeeCents + got.OrganizationFeeCents + got.CreatorPayoutCents
			if sum != tc.amount {
				t.Fatalf("components sum to %d, want %d", sum, tc.amount)
			}
		})
	}
}

func TestComputeSplitSumInvariantSweep(t *testing.T) {
	rates := []struct{ platform, org int }{
		{0, 0}, {1, 0}, {1000, 0}, {1000, 500}, {2500, 2500}, {3333, 3333}, {5000, 5000},
	}
	for amount := int64(0); amount <= 500; amount++ {
		for _, r := range rates {
			got, err := ComputeSplit(amount, r.platform, r.org)
			if err != nil {
				t.Fatalf("ComputeSplit(%d, %d, %d): %v", amount, r.platform, r.org, err)
			}
			sum := got.PlatformFeeCents + got.OrganizationFeeCents + got.CreatorPayoutCents
			if sum != amount {
				t.Fatalf("ComputeSplit(%d, %d, %d) sums to %d", amount, r.platform, r.org, sum)
			}
			if got.PlatformFeeCents < 0 || got.OrganizationFeeCents < 0 || got.CreatorPayoutCents < 0 {
				t.Fatalf("ComputeSplit(%d, %d, %d) produced a negative component: %+v", amount, r.platform, r.org, got)
			}
		}
	}
}

func TestComputeSplitRejectsBadInput(t *testing.T) {
	if _, err := ComputeSplit(-1, 1000, 0); err == nil {
		t.Fatal("expected error for negative amount")
	}
	if _, err := ComputeSplit(100, -1, 0); err == nil {
		t.Fatal("expected error for negative platform rate")
	}
	if _, err := ComputeSplit(100, 10001, 0); err == nil {
		t.Fatal("expected error for platform rate above full")
	}
	if _, err := ComputeSplit(100, 6000, 5000); err == nil {
		t.Fatal("expected error for combined rates above full")
	}
}
