package enums

// DenialReason explains why the access engine refused a request. The
// not-available reason deliberately covers missing, unpublished, and
// soft-deleted content so callers cannot probe for existence.
type DenialReason string

const (
	DenialReasonNone               DenialReason = ""
	DenialReasonNotAvailable       DenialReason = "not_available"
	DenialReasonMediaNotReady      DenialReason = "media_not_ready"
	DenialReasonMembershipRequired DenialReason = "membership_required"
	DenialReasonPurchaseRequired   DenialReason = "purchase_required"
	DenialReasonAuthRequired       DenialReason = "auth_required"
)

func (d DenialReason) String() string {
	return string(d)
}
