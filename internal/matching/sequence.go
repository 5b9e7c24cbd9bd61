package matching

import "sync/atomic"

// Sequence 成交号生成器，由 OrderBook 持有或由调用方注入，不用全局变量
type Sequence interface {
	Next() uint64
}

// Counter 单线程计数器，和 OrderBook 一样不能并发使用。第一个号是 1。
type Counter struct {
	last uint64
}

// NewCounter 从 start 之后开始发号，start=0 时第一个号为 1
func NewCounter(start uint64) *Counter { return &Counter{last: start} }

func (c *Counter) Next() uint64 {
	c.last++
	return c.last
}

// Last 最近一次发出的号
func (c *Counter) Last() uint64 { return c.last }

// AtomicCounter 多个 book 共用一个成交号空间时使用
type AtomicCounter struct {
	last atomic.Uint64
}

func NewAtomicCounter(start uint64) *AtomicCounter {
	c := &AtomicCounter{}
	c.last.Store(start)
	return c
}

func (c *AtomicCounter) Next() uint64 { return c.last.Add(1) }

func (c *AtomicCounter) Last() uint64 { return c.last.Load() }
