package enums

import "fmt"

// MembershipStatus tracks whether a membership currently grants the
// members-only tier.
type MembershipStatus string

const (
	MembershipStatusActive  MembershipStatus = "active"
	MembershipStatusInvited MembershipStatus = "invited"
	MembershipStatusRevoked MembershipStatus = "revoked"
	MembershipStatusExpired MembershipStatus = "expired"
)

var validMembershipStatuses = []MembershipStatus{
	MembershipStatusActive,
	MembershipStatusInvited,
	MembershipStatusRevoked,
	MembershipStatusExpired,
}

func (m MembershipStatus) String() string {
	return string(m)
}

func (m MembershipStatus) IsValid() bool {
	for _, candidate := range validMembershipStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseMembershipStatus(value string) (MembershipStatus, error) {
	for _, candidate := range validMembershipStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership status %q", value)
}
