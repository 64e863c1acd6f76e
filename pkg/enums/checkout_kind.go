package enums

// CheckoutKind labels hosted checkout sessions for metrics and logs.
type CheckoutKind string

const (
	CheckoutKindItem  CheckoutKind = "item"
	CheckoutKindOrder CheckoutKind = "order"
)

func (c CheckoutKind) String() string {
	return string(c)
}
