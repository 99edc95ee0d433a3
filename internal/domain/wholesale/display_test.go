package wholesale

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicy_ProjectDisplay(t *testing.T) {
	t.Run("non-eligible actor gets nothing", func(t *testing.T) {
		_, ok := Policy{}.ProjectDisplay(Anonymous(), pricing("20.00", "15.00"), enabledConfig())
		assert.False(t, ok)
	})

	t.Run("regular price product", func(t *testing.T) {
		proj, ok := Policy{}.ProjectDisplay(wholesaler(), pricing("20.00", "15.00"), enabledConfig())
		require.True(t, ok)
		assert.True(t, d("20.00").Equal(proj.BasePrice))
		assert.True(t, d("15.00").Equal(proj.WholesalePrice))
		assert.Equal(t, 3, proj.MinimumQuantity)
		assert.False(t, proj.OnSale)
	})

	t.Run("sale price takes precedence as base", func(t *testing.T) {
		p := pricing("20.00", "15.00")
		p.SalePrice = decimal.NewNullDecimal(d("18.00"))

		proj, ok := Policy{}.ProjectDisplay(wholesaler(), p, enabledConfig())
		require.True(t, ok)
		assert.True(t, d("18.00").Equal(proj.BasePrice))
		assert.True(t, proj.OnSale)
	})

	t.Run("unusable wholesale falls back to base", func(t *testing.T) {
		proj, ok := Policy{}.ProjectDisplay(wholesaler(), pricing("20.00", "n/a"), enabledConfig())
		require.True(t, ok)
		assert.True(t, d("20.00").Equal(proj.WholesalePrice))
	})
}

func TestProjection_PriceFor(t *testing.T) {
	proj := ProjectDisplayPrice(pricing("20.00", "15.00"), enabledConfig())

	assert.True(t, d("20.00").Equal(proj.PriceFor(1)))
	assert.True(t, d("15.00").Equal(proj.PriceFor(3)))
	assert.True(t, d("20.00").Equal(proj.PriceFor(4)))

	cfg := enabledConfig()
	cfg.GateMode = GateAtLeast
	proj = ProjectDisplayPrice(pricing("20.00", "15.00"), cfg)
	assert.True(t, d("15.00").Equal(proj.PriceFor(4)))
}

func TestProjection_MatchesResolver(t *testing.T) {
	p := pricing("20.00", "15.00")
	proj := ProjectDisplayPrice(p, enabledConfig())

	for q := 1; q <= 5; q++ {
		cart := cartOf(NewLine("p1", q, p))
		Policy{}.Resolve(wholesaler(), cart, enabledConfig())
		assert.True(t, proj.PriceFor(q).Equal(cart.Lines[0].Price), "quantity %d", q)
	}
}
