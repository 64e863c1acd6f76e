package types

// SuccessEnvelope wraps admin API payloads.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// FlatError is the storefront error body the browser scripts read.
type FlatError struct {
	Error string `json:"error"`
}

// CheckoutSessionResponse carries the hosted checkout session id to redirect to.
type CheckoutSessionResponse struct {
	ID string `json:"id"`
}

type AddToCartResponse struct {
	OK            bool   `json:"ok"`
	AlreadyInCart bool   `json:"already_in_cart,omitempty"`
	OrderID       uint   `json:"order_id,omitempty"`
	ItemID        uint   `json:"item_id,omitempty"`
	ItemName      string `json:"item_name"`
}

type TotalsResponse struct {
	Subtotal              int64 `json:"subtotal"`
	DiscountAmount        int64 `json:"discount_amount"`
	SubtotalAfterDiscount int64 `json:"subtotal_after_discount"`
	TaxAmount             int64 `json:"tax_amount"`
	Total                 int64 `json:"total"`
}

type CartLineChangeResponse struct {
	OK       bool           `json:"ok"`
	Removed  bool           `json:"removed"`
	Quantity int            `json:"quantity"`
	Totals   TotalsResponse `json:"totals"`
}
