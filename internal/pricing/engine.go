package pricing

// Money represents a monetary value stored in minor units.
type Money = int64

// ItemTotal computes one line total: base price minus an already-computed
// promotion discount, floored at zero.
func ItemTotal(price, discount Money) Money {
	if discount > price {
		discount = price
	}
	if discount < 0 {
		discount = 0
	}
	return price - discount
}

// BillTotal folds bill-item totals with taxes and a bill-level discount.
func BillTotal(itemTotals []Money, taxes, discount Money) Money {
	var subtotal Money
	for _, t := range itemTotals {
		if t < 0 {
			continue
		}
		subtotal += t
	}
	if taxes < 0 {
		taxes = 0
	}
	if discount > subtotal+taxes {
		discount = subtotal + taxes
	}
	if discount < 0 {
		discount = 0
	}
	return subtotal + taxes - discount
}

// CartTotals sums per-item discounts and totals into cart-level aggregates.
func CartTotals(discounts, totals []Money) (Money, Money) {
	var discount, total Money
	for _, d := range discounts {
		if d > 0 {
			discount += d
		}
	}
	for _, t := range totals {
		if t > 0 {
			total += t
		}
	}
	return discount, total
}
