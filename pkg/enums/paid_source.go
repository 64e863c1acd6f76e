package enums

import "fmt"

// PaidSource records which path flipped an order to paid.
type PaidSource string

const (
	PaidSourceRedirect PaidSource = "redirect"
	PaidSourceWebhook  PaidSource = "webhook"
	PaidSourceAdmin    PaidSource = "admin"
)

var validPaidSources = []PaidSource{
	PaidSourceRedirect,
	PaidSourceWebhook,
	PaidSourceAdmin,
}

func (p PaidSource) IsValid() bool {
	for _, candidate := range validPaidSources {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePaidSource(value string) (PaidSource, error) {
	for _, candidate := range validPaidSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid paid source %q", value)
}
