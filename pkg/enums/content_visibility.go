package enums

import "fmt"

// ContentVisibility selects the access tier evaluated for a piece of
// content. The tiers are mutually exclusive; the access engine never
// combines them.
type ContentVisibility string

const (
	ContentVisibilityPublic        ContentVisibility = "public"
	ContentVisibilityMembersOnly   ContentVisibility = "members_only"
	ContentVisibilityPurchasedOnly ContentVisibility = "purchased_only"
)

var validContentVisibilities = []ContentVisibility{
	ContentVisibilityPublic,
	ContentVisibilityMembersOnly,
	ContentVisibilityPurchasedOnly,
}

func (c ContentVisibility) String() string {
	return string(c)
}

func (c ContentVisibility) IsValid() bool {
	for _, candidate := range validContentVisibilities {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseContentVisibility(value string) (ContentVisibility, error) {
	for _, candidate := range validContentVisibilities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid content visibility %q", value)
}
