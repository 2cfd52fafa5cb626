package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhornak/meridian/pkg/utility/fixed"
)

func TestOrderSide_ParseRoundTrip(t *testing.T) {
	for _, side := range []OrderSide{OrderSideBuy, OrderSideSell} {
		parsed, err := ParseOrderSide(side.String())
		require.NoError(t, err)
		assert.Equal(t, side, parsed)
	}

	_, err := ParseOrderSide("HOLD")
	assert.Error(t, err)
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusPartial.IsTerminal())
	assert.True(t, OrderStatusFilled.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRejected.IsTerminal())
}

func TestOrder_RemainingSize(t *testing.T) {
	order := Order{
		Size:       fixed.FromInt(100, 0),
		FilledSize: fixed.FromInt(40, 0),
	}
	assert.Equal(t, "60", order.RemainingSize().String())
}

func TestBar_QuoteFallbacks(t *testing.T) {
	bar := Bar{Close: fixed.FromFloat64(1.085)}
	assert.False(t, bar.HasQuotes())
	assert.True(t, bar.BidOrClose().Eq(bar.Close))
	assert.True(t, bar.AskOrClose().Eq(bar.Close))

	bar.Bid = fixed.FromFloat64(1.084)
	bar.Ask = fixed.FromFloat64(1.086)
	assert.True(t, bar.HasQuotes())
	assert.True(t, bar.BidOrClose().Eq(bar.Bid))
	assert.True(t, bar.AskOrClose().Eq(bar.Ask))
}

func TestPosition_MarkToMarket(t *testing.T) {
	long := Position{
		Size:     fixed.FromInt(100, 0),
		AvgPrice: fixed.FromInt(150, 0),
	}
	assert.Equal(t, "500", long.MarkToMarket(fixed.FromInt(155, 0)).String())
	assert.True(t, long.IsLong())

	short := Position{
		Size:     fixed.FromInt(-100, 0),
		AvgPrice: fixed.FromInt(150, 0),
	}
	assert.Equal(t, "-500", short.MarkToMarket(fixed.FromInt(155, 0)).String())
	assert.False(t, short.IsLong())

	short.MarkPrice = fixed.FromInt(155, 0)
	assert.Equal(t, "15500", short.Notional().String())
}
