package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testScale PriceScale = 2

func px(s string) Price { return MustPrice(s, testScale) }

func buy(id uint64, qty uint32, price string) Order {
	return Order{ID: id, Side: Buy, Qty: qty, Price: px(price)}
}

func sell(id uint64, qty uint32, price string) Order {
	return Order{ID: id, Side: Sell, Qty: qty, Price: px(price)}
}

func mustProcess(t *testing.T, b *OrderBook, o Order) []Trade {
	t.Helper()
	trades, err := b.ProcessOrder(o)
	require.NoError(t, err)
	checkInvariants(t, b)
	return trades
}

func TestAddBuyOrderToEmptyBook(t *testing.T) {
	b := NewOrderBook()
	trades := mustProcess(t, b, buy(1, 100, "10.00"))

	assert.Empty(t, trades)
	assert.Empty(t, b.Asks())
	bids := b.Bids()
	require.Len(t, bids, 1)
	assert.Equal(t, px("10.00"), bids[0].Price)
	require.Len(t, bids[0].Orders, 1)
	assert.Equal(t, uint64(1), bids[0].Orders[0].ID)
	assert.Equal(t, uint32(100), bids[0].Orders[0].Qty)
}

func TestAddSellOrderToEmptyBook(t *testing.T) {
	b := NewOrderBook()
	trades := mustProcess(t, b, sell(1, 100, "10.00"))

	assert.Empty(t, trades)
	assert.Empty(t, b.Bids())
	asks := b.Asks()
	require.Len(t, asks, 1)
	require.Len(t, asks[0].Orders, 1)
	assert.Equal(t, uint64(1), asks[0].Orders[0].ID)
	assert.Equal(t, uint32(100), asks[0].Orders[0].Qty)
}

func TestSimpleFullMatch(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 100, "10.00"))
	trades := mustProcess(t, b, buy(2, 100, "10.00"))

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(2), trades[0].BuyOrderID)
	assert.Equal(t, uint64(1), trades[0].SellOrderID)
	assert.Equal(t, px("10.00"), trades[0].Price)
	assert.Equal(t, uint32(100), trades[0].Qty)
	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())
	assert.Zero(t, b.Len())
}

func TestPartialFillIncomingLarger(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 100, "10.00"))
	trades := mustProcess(t, b, buy(2, 150, "10.00"))

	require.Len(t, trades, 1)
	assert.Equal(t, uint32(100), trades[0].Qty)
	assert.Empty(t, b.Asks())

	bids := b.Bids()
	require.Len(t, bids, 1)
	assert.Equal(t, px("10.00"), bids[0].Price)
	require.Len(t, bids[0].Orders, 1)
	assert.Equal(t, uint64(2), bids[0].Orders[0].ID)
	assert.Equal(t, uint32(50), bids[0].Orders[0].Qty)
}

func TestPartialFillRestingLarger(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 150, "10.00"))
	trades := mustProcess(t, b, buy(2, 100, "10.00"))

	require.Len(t, trades, 1)
	assert.Equal(t, uint32(100), trades[0].Qty)
	assert.Empty(t, b.Bids())

	o, ok := b.Order(1)
	require.True(t, ok)
	assert.Equal(t, uint32(50), o.Qty)
	_, ok = b.Order(2)
	assert.False(t, ok)
}

func TestSweepMultipleLevels(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 50, "10.00"))
	mustProcess(t, b, sell(2, 50, "10.01"))
	trades := mustProcess(t, b, buy(3, 100, "10.01"))

	require.Len(t, trades, 2)
	assert.Equal(t, Trade{TradeID: 1, BuyOrderID: 3, SellOrderID: 1, Price: px("10.00"), Qty: 50, AggressorSide: Buy}, trades[0])
	assert.Equal(t, Trade{TradeID: 2, BuyOrderID: 3, SellOrderID: 2, Price: px("10.01"), Qty: 50, AggressorSide: Buy}, trades[1])
	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())
}

func TestSellAggressorIdsBySide(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(7, 10, "5.00"))
	trades := mustProcess(t, b, sell(8, 10, "4.00"))

	require.Len(t, trades, 1)
	tr := trades[0]
	assert.Equal(t, uint64(7), tr.BuyOrderID)
	assert.Equal(t, uint64(8), tr.SellOrderID)
	// 成交价是挂单价，不是 taker 的 4.00
	assert.Equal(t, px("5.00"), tr.Price)
	assert.Equal(t, uint64(8), tr.TakerID())
	assert.Equal(t, uint64(7), tr.MakerID())
}

func TestFIFOSamePrice(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(101, 5, "1.00"))
	mustProcess(t, b, sell(102, 5, "1.00"))
	trades := mustProcess(t, b, buy(201, 5, "1.00"))

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(101), trades[0].SellOrderID)

	asks := b.Asks()
	require.Len(t, asks, 1)
	require.Len(t, asks[0].Orders, 1)
	assert.Equal(t, uint64(102), asks[0].Orders[0].ID)
}

func TestFIFONotBySize(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(1, 1, "1.00"))
	mustProcess(t, b, buy(2, 1000, "1.00"))
	trades := mustProcess(t, b, sell(3, 2, "1.00"))

	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].BuyOrderID)
	assert.Equal(t, uint32(1), trades[0].Qty)
	assert.Equal(t, uint64(2), trades[1].BuyOrderID)
	assert.Equal(t, uint32(1), trades[1].Qty)

	o, ok := b.Order(2)
	require.True(t, ok)
	assert.Equal(t, uint32(999), o.Qty)
}

func TestNoCrossRests(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 10, "10.01"))
	trades := mustProcess(t, b, buy(2, 10, "10.00"))

	assert.Empty(t, trades)
	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, px("10.00"), bid)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, px("10.01"), ask)
	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, Price(1), spread)
}

func TestStopsWhenPriceNoLongerCrosses(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 10, "10.00"))
	mustProcess(t, b, sell(2, 10, "10.05"))
	trades := mustProcess(t, b, buy(3, 30, "10.02"))

	require.Len(t, trades, 1)
	assert.Equal(t, uint64(1), trades[0].SellOrderID)

	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	assert.Equal(t, px("10.02"), bid)
	assert.Equal(t, px("10.05"), ask)
	o, ok := b.Order(3)
	require.True(t, ok)
	assert.Equal(t, uint32(20), o.Qty)
}

func TestBestBidAskAfterCancel(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 1, "1.01"))
	mustProcess(t, b, sell(2, 1, "1.00"))
	mustProcess(t, b, buy(3, 1, "0.99"))
	mustProcess(t, b, buy(4, 1, "0.98"))

	p, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, px("1.00"), p)

	require.True(t, b.Cancel(2))
	checkInvariants(t, b)
	p, ok = b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, px("1.01"), p)

	require.True(t, b.Cancel(3))
	checkInvariants(t, b)
	p, ok = b.BestBid()
	require.True(t, ok)
	assert.Equal(t, px("0.98"), p)
}

func TestCancelMiddleKeepsOrder(t *testing.T) {
	b := NewOrderBook()
	for id := uint64(1); id <= 3; id++ {
		mustProcess(t, b, sell(id, 1, "1.00"))
	}
	require.True(t, b.Cancel(2))
	checkInvariants(t, b)

	asks := b.Asks()
	require.Len(t, asks, 1)
	require.Len(t, asks[0].Orders, 2)
	assert.Equal(t, uint64(1), asks[0].Orders[0].ID)
	assert.Equal(t, uint64(3), asks[0].Orders[1].ID)

	// 索引必须仍然指向正确的节点
	require.True(t, b.Cancel(3))
	require.True(t, b.Cancel(1))
	assert.Empty(t, b.Asks())
	checkInvariants(t, b)
}

func TestCancelThenReuseID(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(1, 200, "10.00"))
	require.True(t, b.Cancel(1))
	assert.Empty(t, b.Bids())
	checkInvariants(t, b)

	trades := mustProcess(t, b, buy(1, 30, "9.00"))
	assert.Empty(t, trades)
	bids := b.Bids()
	require.Len(t, bids, 1)
	assert.Equal(t, px("9.00"), bids[0].Price)
	require.Len(t, bids[0].Orders, 1)
	assert.Equal(t, uint32(30), bids[0].Orders[0].Qty)
}

func TestCancelUnknownIsNoop(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(1, 10, "1.00"))
	mustProcess(t, b, sell(2, 10, "2.00"))
	before := [2][]LevelSnapshot{b.Bids(), b.Asks()}

	assert.False(t, b.Cancel(99))
	assert.NoError(t, b.CancelOrder(99))

	require.True(t, b.Cancel(1))
	assert.False(t, b.Cancel(1))
	assert.NoError(t, b.CancelOrder(1))

	assert.Empty(t, b.Bids())
	assert.Equal(t, before[1], b.Asks())
	checkInvariants(t, b)
}

func TestCancelFilledOrderIsNoop(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 10, "1.00"))
	mustProcess(t, b, buy(2, 10, "1.00"))
	assert.False(t, b.Cancel(1))
	assert.False(t, b.Cancel(2))
}

func TestStrictCancel(t *testing.T) {
	b := NewOrderBook(WithStrictCancel(true))
	mustProcess(t, b, buy(1, 10, "1.00"))

	require.NoError(t, b.CancelOrder(1))
	err := b.CancelOrder(1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestRejectsInvalidOrders(t *testing.T) {
	cases := []struct {
		name string
		o    Order
		want error
	}{
		{"zero qty", Order{ID: 1, Side: Buy, Qty: 0, Price: 100}, ErrInvalidQty},
		{"zero price", Order{ID: 1, Side: Buy, Qty: 1, Price: 0}, ErrInvalidPrice},
		{"negative price", Order{ID: 1, Side: Sell, Qty: 1, Price: -5}, ErrInvalidPrice},
		{"bad side", Order{ID: 1, Side: 9, Qty: 1, Price: 100}, ErrInvalidSide},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := NewOrderBook()
			trades, err := b.ProcessOrder(c.o)
			assert.ErrorIs(t, err, c.want)
			assert.Nil(t, trades)
			assert.Zero(t, b.Len())
		})
	}
}

func TestRejectsDuplicateLiveID(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(1, 10, "1.00"))

	_, err := b.ProcessOrder(sell(1, 10, "1.00"))
	assert.ErrorIs(t, err, ErrDuplicateOrderID)

	// 原订单不受影响
	o, ok := b.Order(1)
	require.True(t, ok)
	assert.Equal(t, uint32(10), o.Qty)
	assert.Equal(t, Buy, o.Side)
	checkInvariants(t, b)
}

func TestSnapshotIsCopy(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(1, 10, "1.00"))

	bids := b.Bids()
	bids[0].Orders[0].Qty = 1
	bids[0].Price = 42

	again := b.Bids()
	assert.Equal(t, uint32(10), again[0].Orders[0].Qty)
	assert.Equal(t, px("1.00"), again[0].Price)
}

func TestDepthAggregates(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, buy(1, 10, "1.00"))
	mustProcess(t, b, buy(2, 5, "1.00"))
	mustProcess(t, b, buy(3, 7, "0.99"))
	mustProcess(t, b, buy(4, 1, "0.98"))
	mustProcess(t, b, sell(5, 3, "1.02"))

	d := b.Depth(2)
	require.Len(t, d.Bids, 2)
	assert.Equal(t, LevelSnapshot{Price: px("1.00"), Qty: 15, Count: 2}, d.Bids[0])
	assert.Equal(t, LevelSnapshot{Price: px("0.99"), Qty: 7, Count: 1}, d.Bids[1])
	require.Len(t, d.Asks, 1)
	assert.Equal(t, uint64(3), d.Asks[0].Qty)

	bids, asks := b.Levels()
	assert.Equal(t, 3, bids)
	assert.Equal(t, 1, asks)
}

func TestTradeIDsInjected(t *testing.T) {
	shared := NewAtomicCounter(100)
	b1 := NewOrderBook(WithTradeIDs(shared))
	b2 := NewOrderBook(WithTradeIDs(shared))

	mustProcess(t, b1, sell(1, 1, "1.00"))
	mustProcess(t, b2, sell(1, 1, "1.00"))
	t1 := mustProcess(t, b1, buy(2, 1, "1.00"))
	t2 := mustProcess(t, b2, buy(2, 1, "1.00"))

	require.Len(t, t1, 1)
	require.Len(t, t2, 1)
	assert.Equal(t, uint64(101), t1[0].TradeID)
	assert.Equal(t, uint64(102), t2[0].TradeID)
}

func TestProcessOrderEmitReportsRested(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 4, "1.00"))

	var got []Trade
	rested, err := b.ProcessOrderEmit(buy(2, 10, "1.00"), func(tr Trade) { got = append(got, tr) })
	require.NoError(t, err)
	assert.Equal(t, uint32(6), rested)
	require.Len(t, got, 1)
	assert.Equal(t, uint32(4), got[0].Qty)

	rested, err = b.ProcessOrderEmit(sell(3, 6, "1.00"), nil)
	require.NoError(t, err)
	assert.Zero(t, rested)
	checkInvariants(t, b)
}

func TestProcessOrderBufReuse(t *testing.T) {
	b := NewOrderBook()
	mustProcess(t, b, sell(1, 1, "1.00"))
	mustProcess(t, b, sell(2, 1, "1.00"))

	buf := make([]Trade, 0, 8)
	buf, err := b.ProcessOrderBuf(buy(3, 1, "1.00"), buf)
	require.NoError(t, err)
	require.Len(t, buf, 1)

	buf, err = b.ProcessOrderBuf(buy(4, 1, "1.00"), buf)
	require.NoError(t, err)
	require.Len(t, buf, 1)
	assert.Equal(t, uint64(2), buf[0].SellOrderID)
}
