package enums

import (
	"fmt"
	"strings"
)

// DiscountType is how a discount value is interpreted against the subtotal.
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

var validDiscountTypes = []DiscountType{
	DiscountTypePercentage,
	DiscountTypeFixed,
}

func (d DiscountType) String() string {
	return string(d)
}

// IsValid reports whether the value matches a known discount type.
func (d DiscountType) IsValid() bool {
	for _, candidate := range validDiscountTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountType converts the raw string to DiscountType; empty input
// yields the percentage default.
func ParseDiscountType(value string) (DiscountType, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return DiscountTypePercentage, nil
	}
	for _, candidate := range validDiscountTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount type %q", value)
}
