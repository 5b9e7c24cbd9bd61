package matching

// LevelSnapshot 一个价位的只读拷贝，Orders 从早到晚
type LevelSnapshot struct {
	Price  Price
	Qty    uint64
	Count  int
	Orders []Order
}

// Depth 聚合深度，不带订单明细
type Depth struct {
	Bids []LevelSnapshot
	Asks []LevelSnapshot
}

// Bids 买盘快照，价格从高到低。修改返回值不会影响订单簿。
func (b *OrderBook) Bids() []LevelSnapshot { return b.bids.snapshot(0, true) }

// Asks 卖盘快照，价格从低到高
func (b *OrderBook) Asks() []LevelSnapshot { return b.asks.snapshot(0, true) }

// Depth 每边最多 n 档，n<=0 表示全部
func (b *OrderBook) Depth(n int) Depth {
	return Depth{
		Bids: b.bids.snapshot(n, false),
		Asks: b.asks.snapshot(n, false),
	}
}

// Levels 两边的价位数
func (b *OrderBook) Levels() (bids, asks int) {
	return b.bids.depth(), b.asks.depth()
}
