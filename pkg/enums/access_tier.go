package enums

// AccessTier names the tier the access engine evaluated for a decision.
// It shows up in audit logs and metrics labels.
type AccessTier string

const (
	AccessTierAvailability  AccessTier = "availability"
	AccessTierFree          AccessTier = "free"
	AccessTierMembersOnly   AccessTier = "members_only"
	AccessTierPurchasedOnly AccessTier = "purchased_only"
)

func (a AccessTier) String() string {
	return string(a)
}
