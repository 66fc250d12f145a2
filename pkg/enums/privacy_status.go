package enums

import "fmt"

// PrivacyStatus is the YouTube visibility setting carried on generated content.
type PrivacyStatus string

const (
	PrivacyStatusPublic   PrivacyStatus = "public"
	PrivacyStatusUnlisted PrivacyStatus = "unlisted"
	PrivacyStatusPrivate  PrivacyStatus = "private"
)

var validPrivacyStatuses = []PrivacyStatus{
	PrivacyStatusPublic,
	PrivacyStatusUnlisted,
	PrivacyStatusPrivate,
}

// String returns the literal string for the status.
func (p PrivacyStatus) String() string {
	return string(p)
}

// IsValid reports whether the status is known.
func (p PrivacyStatus) IsValid() bool {
	for _, candidate := range validPrivacyStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePrivacyStatus converts raw input into a PrivacyStatus.
func ParsePrivacyStatus(value string) (PrivacyStatus, error) {
	for _, candidate := range validPrivacyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid privacy status %q", value)
}
