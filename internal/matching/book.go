package matching

import "fmt"

// OrderBook 单品种限价订单簿，价格优先、时间优先撮合。
//
// 单线程使用：内部没有锁，所有操作同步执行到结束。
// 需要并发提交时由外层（engine 的 actor）串行化。
type OrderBook struct {
	bids *bookSide
	asks *bookSide
	byID map[uint64]*orderNode // 订单索引：orderID -> node（撤单 O(1)）

	seq          Sequence
	strictCancel bool
}

type Option func(*OrderBook)

// WithTradeIDs 注入成交号生成器，多个 book 共用号段时传 AtomicCounter
func WithTradeIDs(seq Sequence) Option {
	return func(b *OrderBook) {
		if seq != nil {
			b.seq = seq
		}
	}
}

// WithStrictCancel 打开后 CancelOrder 对未知订单返回 ErrOrderNotFound
func WithStrictCancel(strict bool) Option {
	return func(b *OrderBook) { b.strictCancel = strict }
}

func NewOrderBook(opts ...Option) *OrderBook {
	b := &OrderBook{
		bids: newBookSide(Buy),
		asks: newBookSide(Sell),
		byID: make(map[uint64]*orderNode, 1024),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.seq == nil {
		b.seq = NewCounter(0)
	}
	return b
}

// ProcessOrder 提交一笔限价单，返回本次调用产生的成交（不是历史累计）。
// 没成交完的部分挂到本方盘口。
func (b *OrderBook) ProcessOrder(o Order) ([]Trade, error) {
	trades, err := b.ProcessOrderBuf(o, nil)
	if err != nil {
		return nil, err
	}
	return trades, nil
}

// ProcessOrderBuf 复用调用方的 buffer 收集成交
func (b *OrderBook) ProcessOrderBuf(o Order, buf []Trade) ([]Trade, error) {
	buf = buf[:0]
	_, err := b.ProcessOrderEmit(o, func(t Trade) {
		buf = append(buf, t)
	})
	return buf, err
}

// ProcessOrderEmit 成交逐笔回调给 emit，不构造 slice。
// 返回挂入盘口的剩余数量，0 表示全部成交。
func (b *OrderBook) ProcessOrderEmit(o Order, emit func(Trade)) (rested uint32, err error) {
	if err := o.Validate(); err != nil {
		return 0, err
	}
	if _, live := b.byID[o.ID]; live {
		return 0, fmt.Errorf("%w: %d", ErrDuplicateOrderID, o.ID)
	}
	if emit == nil {
		emit = func(Trade) {}
	}

	own, opp := b.sides(o.Side)
	// 每轮重新取对手最优价，最优价会随着吃单变化
	for o.Qty > 0 {
		lv := opp.best()
		if lv == nil || !crosses(o.Side, o.Price, lv.price) {
			break
		}
		// 同价位严格 FIFO：只吃队头
		mn := lv.head
		exec := min(o.Qty, mn.order.Qty)
		emit(b.newTrade(o, mn.order, exec))

		o.Qty -= exec
		lv.fill(mn, exec)
		if mn.order.Qty == 0 {
			lv.remove(mn)
			delete(b.byID, mn.order.ID)
			putNode(mn)
		}
		if lv.empty() {
			opp.drop(lv)
		}
	}

	if o.Qty > 0 {
		b.rest(own, o)
	}
	return o.Qty, nil
}

// Cancel 撤单：byID 定位节点，摘链，价位空了就删价位。
// 未知订单（已成交、已撤、从未存在）返回 false，盘口不变。
func (b *OrderBook) Cancel(orderID uint64) bool {
	n := b.byID[orderID]
	if n == nil {
		return false
	}
	lv := n.lv
	lv.remove(n)
	delete(b.byID, orderID)
	if lv.empty() {
		b.side(n.order.Side).drop(lv)
	}
	putNode(n)
	return true
}

// CancelOrder 默认对未知订单静默；strict 模式下返回 ErrOrderNotFound
func (b *OrderBook) CancelOrder(orderID uint64) error {
	if b.Cancel(orderID) || !b.strictCancel {
		return nil
	}
	return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
}

// Order 查询挂单的当前状态
func (b *OrderBook) Order(orderID uint64) (Order, bool) {
	n := b.byID[orderID]
	if n == nil {
		return Order{}, false
	}
	return n.order, true
}

// Len 当前挂单数
func (b *OrderBook) Len() int { return len(b.byID) }

// BestBid 最高买价
func (b *OrderBook) BestBid() (Price, bool) {
	if lv := b.bids.best(); lv != nil {
		return lv.price, true
	}
	return 0, false
}

// BestAsk 最低卖价
func (b *OrderBook) BestAsk() (Price, bool) {
	if lv := b.asks.best(); lv != nil {
		return lv.price, true
	}
	return 0, false
}

// Spread 两边都有挂单时返回 ask - bid
func (b *OrderBook) Spread() (Price, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}
	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}
	return ask - bid, true
}

func (b *OrderBook) rest(s *bookSide, o Order) {
	lv := s.levelFor(o.Price)
	n := getNode(o, lv)
	lv.pushBack(n)
	b.byID[o.ID] = n
}

func (b *OrderBook) newTrade(taker, maker Order, qty uint32) Trade {
	t := Trade{
		TradeID:       b.seq.Next(),
		Price:         maker.Price,
		Qty:           qty,
		AggressorSide: taker.Side,
	}
	if taker.Side == Buy {
		t.BuyOrderID, t.SellOrderID = taker.ID, maker.ID
	} else {
		t.BuyOrderID, t.SellOrderID = maker.ID, taker.ID
	}
	return t
}

func (b *OrderBook) side(s Side) *bookSide {
	if s == Buy {
		return b.bids
	}
	return b.asks
}

// sides 返回（本方，对手方）
func (b *OrderBook) sides(s Side) (own, opp *bookSide) {
	if s == Buy {
		return b.bids, b.asks
	}
	return b.asks, b.bids
}
