package wholesale

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductPricing holds the price metadata attached to a product.
type ProductPricing struct {
	RegularPrice decimal.Decimal
	SalePrice    decimal.NullDecimal
	// WholesalePrice is the raw stored value. It is validated on every use
	// and treated as absent when it is not a usable number.
	WholesalePrice string
}

// BasePrice is the price a customer pays without wholesale treatment: the
// sale price when one is set, the regular price otherwise.
func (p ProductPricing) BasePrice() decimal.Decimal {
	if p.OnSale() {
		return p.SalePrice.Decimal
	}
	return p.RegularPrice
}

// OnSale reports whether a sale price is set.
func (p ProductPricing) OnSale() bool {
	return p.SalePrice.Valid
}

// Wholesale returns the parsed wholesale price and whether it is usable.
func (p ProductPricing) Wholesale() (decimal.Decimal, bool) {
	return ParsePrice(p.WholesalePrice)
}

const (
	// PriceScale is the number of fractional digits prices are charged in.
	PriceScale = 2
	// maxPriceDigits bounds the integer part, matching NUMERIC(12, 2).
	maxPriceDigits = 10
	// maxPriceExponent bounds the fractional digits of raw input. Larger
	// exponents make rescaling arbitrarily expensive.
	maxPriceExponent = 18
)

// ParsePrice parses a stored price. Surrounding whitespace is ignored.
// Empty, non-numeric, negative and out of range values are reported as
// unusable. Usable prices are rounded to PriceScale.
func ParsePrice(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(raw)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false
	}
	// Range checks use the exponent and coefficient digits only, so they
	// never expand values like 1e100000000.
	exp := int64(v.Exponent())
	if exp < -maxPriceExponent || int64(v.NumDigits())+exp > maxPriceDigits {
		return decimal.Zero, false
	}
	return v.Round(PriceScale), true
}

// CartLine is a single cart entry. Price is the only field the pricing core
// mutates.
type CartLine struct {
	ProductID string
	Quantity  int
	Pricing   ProductPricing
	Price     decimal.Decimal
}

// NewLine returns a cart line priced at the product's base price.
func NewLine(productID string, quantity int, pricing ProductPricing) CartLine {
	return CartLine{
		ProductID: productID,
		Quantity:  quantity,
		Pricing:   pricing,
		Price:     pricing.BasePrice(),
	}
}

// Total returns Price * Quantity.
func (l CartLine) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an ordered collection of lines.
type Cart struct {
	Lines []CartLine
}

// AggregateQuantity sums quantities over all lines, irrespective of product.
func (c *Cart) AggregateQuantity() int {
	total := 0
	for _, l := range c.Lines {
		total += l.Quantity
	}
	return total
}

// Subtotal returns the sum of line totals at their current prices.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Total())
	}
	return sum
}
