package enums

import "fmt"

// ContentStatus describes the publication state of a piece of content.
type ContentStatus string

const (
	ContentStatusDraft     ContentStatus = "draft"
	ContentStatusPublished ContentStatus = "published"
	ContentStatusArchived  ContentStatus = "archived"
)

var validContentStatuses = []ContentStatus{
	ContentStatusDraft,
	ContentStatusPublished,
	ContentStatusArchived,
}

func (c ContentStatus) String() string {
	return string(c)
}

func (c ContentStatus) IsValid() bool {
	for _, candidate := range validContentStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseContentStatus(value string) (ContentStatus, error) {
	for _, candidate := range validContentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid content status %q", value)
}
