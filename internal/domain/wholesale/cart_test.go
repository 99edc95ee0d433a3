package wholesale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		usable bool
	}{
		{raw: "15.00", want: "15", usable: true},
		{raw: "  12.5\t", want: "12.5", usable: true},
		{raw: "0", want: "0", usable: true},
		{raw: "1e2", want: "100", usable: true},
		{raw: "9.995", want: "10.00", usable: true},
		{raw: "12.344", want: "12.34", usable: true},
		{raw: "9999999999.99", want: "9999999999.99", usable: true},
		{raw: "0.000000000000000001", want: "0", usable: true},
		{raw: "10000000000"},
		{raw: "1e10"},
		{raw: "1e400000"},
		{raw: "1e100000000"},
		{raw: "1e-100000000"},
		{raw: "0.0000000000000000001"},
		{raw: ""},
		{raw: "   "},
		{raw: "abc"},
		{raw: "12,50"},
		{raw: "NaN"},
		{raw: "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParsePrice(tt.raw)
			assert.Equal(t, tt.usable, ok)
			if tt.usable {
				assert.True(t, d(tt.want).Equal(got), "expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestProductPricing_BasePrice(t *testing.T) {
	p := ProductPricing{RegularPrice: d("20.00")}
	assert.False(t, p.OnSale())
	assert.True(t, d("20.00").Equal(p.BasePrice()))

	p.SalePrice = decimal.NewNullDecimal(d("17.50"))
	assert.True(t, p.OnSale())
	assert.True(t, d("17.50").Equal(p.BasePrice()))
}

func TestCart_Totals(t *testing.T) {
	cart := &Cart{Lines: []CartLine{
		NewLine("p1", 2, ProductPricing{RegularPrice: d("9.99")}),
		NewLine("p2", 1, ProductPricing{RegularPrice: d("5.01")}),
	}}
	assert.Equal(t, 3, cart.AggregateQuantity())
	assert.True(t, d("24.99").Equal(cart.Subtotal()))
	assert.Equal(t, 0, (&Cart{}).AggregateQuantity())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" wholesale_customer ")
	assert.NoError(t, err)
	assert.Equal(t, Role("wholesale_customer"), r)

	for _, in := range []string{"", "  ", "none"} {
		r, err = ParseRole(in)
		assert.NoError(t, err)
		assert.True(t, r.Disabled(), "input %q", in)
	}

	for _, in := range []string{"Wholesale", "a b", "role!"} {
		_, err = ParseRole(in)
		assert.ErrorIs(t, err, ErrInvalidRole, "input %q", in)
	}
}

func TestParseGateMode(t *testing.T) {
	m, err := ParseGateMode("")
	assert.NoError(t, err)
	assert.Equal(t, GateExact, m)

	m, err = ParseGateMode("at_least")
	assert.NoError(t, err)
	assert.Equal(t, GateAtLeast, m)

	_, err = ParseGateMode("tiered")
	assert.ErrorIs(t, err, ErrUnknownGateMode)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MinimumQuantity: -1, GateMode: GateExact}.Validate())
	assert.Error(t, Config{MinimumQuantity: 1, GateMode: "bogus"}.Validate())
}
