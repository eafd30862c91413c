package purchases

import (
	"fmt"
)

const bpsDenominator = 10000

// Split is the three-way division of a purchase amount in minor units.
type Split struct {
	PlatformFeeCents     int64
	OrganizationFeeCents int64
	CreatorPayoutCents   int64
}

// ComputeSplit divides amountCents between platform, organization, and
// creator. Rates are basis points. Both fees round half-up; the creator
// receives the exact remainder, so the components always sum to amountCents
// with no division anywhere near a float.
func ComputeSplit(amountCents int64, platformRateBps, organizationRateBps int) (Split, error) {
	if amountCents < 0 {
		return Split{}, fmt.Errorf("amount must be non-negative, got %d", amountCents)
	}
	if platformRateBps < 0 || platformRateBps > bpsDenominator {
		return Split{}, fmt.Errorf("platform rate out of range: %d bps", platformRateBps)
	}
	if organizationRateBps < 0 || organizationRateBps > bpsDenominator {
		return Split{}, fmt.Errorf("organization rate out of range: %d bps", organizationRateBps)
	}
	if platformRateBps+organizationRateBps > bpsDenominator {
		return Split{}, fmt.Errorf("combined rates exceed %d bps", bpsDenominator)
	}

	platformFee := roundHalfUpBps(amountCents, platformRateBps)
	organizationFee := roundHalfUpBps(amountCents, organizationRateBps)
	creatorPayout := amountCents - platformFee - organizationFee
	if creatorPayout < 0 {
		// Rounding both fees up can overshoot only when the rates already sum
		// to the full amount; claw the excess back from the organization fee.
		organizationFee += creatorPayout
		creatorPayout = 0
	}

	return Split{
		PlatformFeeCents:     platformFee,
		OrganizationFeeCents: organizationFee,
		CreatorPayoutCents:   creatorPayout,
	}, nil
}

func roundHalfUpBps(amountCents int64, rateBps int) int64 {
	return (amountCents*int64(rateBps) + bpsDenominator/2) / bpsDenominator
}
