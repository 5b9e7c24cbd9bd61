package engine

import (
	"context"

	"matchbook.com/internal/matching"
)

// OrderBook actor 面向的订单簿，结果同时通过返回值和 emit 输出
type OrderBook interface {
	Submit(reqID uint64, o matching.Order, emit Emitter) ([]matching.Trade, error)
	Cancel(reqID, orderID uint64, emit Emitter) error
	Snapshot() Snapshot
	Stats() BookStats
}

type Emitter interface {
	Accepted(reqID uint64, o matching.Order)
	Rejected(reqID, orderID uint64, err error)
	Added(reqID uint64, o matching.Order)
	Cancelled(reqID, orderID uint64)
	Trade(reqID uint64, t matching.Trade)
}

// EventSink 默认非阻塞发布；BlockOnFullBus 时用 Publish 等待下游
type EventSink interface {
	TryPublish(ev Event) bool
	Publish(ctx context.Context, ev Event) error
}
