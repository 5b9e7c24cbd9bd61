package engine

import (
	"context"
	"errors"

	"matchbook.com/internal/matching"
	"matchbook.com/pkg/metrics"
)

// busEmitter 一条命令一个，给事件打上 seq/idx 后发到 sink，顺带记指标。sink 为 nil 时只记指标
type busEmitter struct {
	sink EventSink
	m    *metrics.Engine
	seq  uint64
	idx  uint32

	// block 为 true 时总线满了就等，不丢事件
	block bool
	ctx   context.Context
}

func (e *busEmitter) next() uint32 {
	i := e.idx
	e.idx++
	return i
}

func (e *busEmitter) pub(ev Event) {
	ev.Seq = e.seq
	ev.Idx = e.next()
	if e.sink == nil {
		return
	}
	if e.block {
		// 只有 actor 退出（ctx 结束）时才会失败
		if err := e.sink.Publish(e.ctx, ev); err != nil {
			e.m.EventsDropped.Inc()
		}
		return
	}
	if !e.sink.TryPublish(ev) {
		e.m.EventsDropped.Inc()
	}
}

func (e *busEmitter) Accepted(reqID uint64, o matching.Order) {
	e.m.OrdersAccepted.Inc()
	e.pub(Event{Type: EvAccepted, ReqID: reqID, OrderID: o.ID, Side: o.Side, Price: o.Price, Qty: o.Qty})
}

func (e *busEmitter) Rejected(reqID, orderID uint64, err error) {
	// 撤单未命中记在 Cancels{not_found}
	if !errors.Is(err, matching.ErrOrderNotFound) {
		e.m.OrdersRejected.WithLabelValues(reason(err)).Inc()
	}
	e.pub(Event{Type: EvRejected, ReqID: reqID, OrderID: orderID, Code: CodeOf(err), Reason: err.Error()})
}

func (e *busEmitter) Added(reqID uint64, o matching.Order) {
	e.m.OrdersRested.Inc()
	e.pub(Event{Type: EvAdded, ReqID: reqID, OrderID: o.ID, Side: o.Side, Price: o.Price, Qty: o.Qty})
}

func (e *busEmitter) Cancelled(reqID, orderID uint64) {
	e.m.Cancels.WithLabelValues("cancelled").Inc()
	e.pub(Event{Type: EvCancelled, ReqID: reqID, OrderID: orderID})
}

func (e *busEmitter) Trade(reqID uint64, t matching.Trade) {
	e.m.Trades.Inc()
	e.m.TradedQty.Add(float64(t.Qty))
	e.pub(Event{Type: EvTrade, ReqID: reqID, OrderID: t.TakerID(), Side: t.AggressorSide, Price: t.Price, Qty: t.Qty, Trade: t})
}
