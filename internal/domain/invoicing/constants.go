package invoicing

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

const (
	WarningDiscountExceedsSubtotal = "discount_exceeds_subtotal"
	WarningNegativeTotal           = "negative_total"
)

const DefaultCurrency = "INR"

// ParseDiscountType maps free input onto a known type; anything unrecognised is fixed.
func ParseDiscountType(raw string) (DiscountType, bool) {
	switch DiscountType(raw) {
	case DiscountFixed, "":
		return DiscountFixed, true
	case DiscountPercentage:
		return DiscountPercentage, true
	default:
		return DiscountFixed, false
	}
}
