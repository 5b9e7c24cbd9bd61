package engine

import "matchbook.com/internal/matching"

// BookAdapter 把 matching.OrderBook 适配成 actor 用的 OrderBook。
// 事件顺序：Accepted -> Trade... -> Added
type BookAdapter struct {
	B *matching.OrderBook

	buf []matching.Trade
}

func NewBookAdapter(b *matching.OrderBook) *BookAdapter {
	return &BookAdapter{B: b, buf: make([]matching.Trade, 0, 16)}
}

func (a *BookAdapter) Submit(reqID uint64, o matching.Order, emit Emitter) ([]matching.Trade, error) {
	a.buf = a.buf[:0]
	rested, err := a.B.ProcessOrderEmit(o, func(t matching.Trade) {
		a.buf = append(a.buf, t)
	})
	if err != nil {
		emit.Rejected(reqID, o.ID, err)
		return nil, err
	}

	emit.Accepted(reqID, o)
	for _, t := range a.buf {
		emit.Trade(reqID, t)
	}
	if rested > 0 {
		r := o
		r.Qty = rested
		emit.Added(reqID, r)
	}

	// buf 会被下一条命令复用，返回给调用方的要拷贝
	if len(a.buf) == 0 {
		return nil, nil
	}
	out := make([]matching.Trade, len(a.buf))
	copy(out, a.buf)
	return out, nil
}

// Cancel 未知订单默认静默（不发事件），strict 模式发 Rejected
func (a *BookAdapter) Cancel(reqID, orderID uint64, emit Emitter) error {
	if a.B.Cancel(orderID) {
		emit.Cancelled(reqID, orderID)
		return nil
	}
	if err := a.B.CancelOrder(orderID); err != nil {
		emit.Rejected(reqID, orderID, err)
		return err
	}
	return nil
}

func (a *BookAdapter) Snapshot() Snapshot {
	return Snapshot{Bids: a.B.Bids(), Asks: a.B.Asks()}
}

func (a *BookAdapter) Stats() BookStats {
	bids, asks := a.B.Levels()
	return BookStats{Resting: a.B.Len(), BidLevels: bids, AskLevels: asks}
}
