package engine

import (
	"context"
	"sync/atomic"
)

// ChanBus 事件总线：默认 actor 非阻塞写，满了就丢并计数；BlockOnFullBus 时走 Publish
type ChanBus struct {
	ch      chan Event
	dropped uint64
}

func NewChanBus(size int) *ChanBus {
	if size <= 0 {
		size = 1 << 16
	}
	return &ChanBus{ch: make(chan Event, size)}
}

func (b *ChanBus) TryPublish(ev Event) bool {
	select {
	case b.ch <- ev:
		return true
	default:
		atomic.AddUint64(&b.dropped, 1)
		return false
	}
}

func (b *ChanBus) C() <-chan Event { return b.ch }
func (b *ChanBus) Dropped() uint64 { return atomic.LoadUint64(&b.dropped) }

// Publish 阻塞直到写入或 ctx 结束，不计入 dropped
func (b *ChanBus) Publish(ctx context.Context, ev Event) error {
	select {
	case b.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
