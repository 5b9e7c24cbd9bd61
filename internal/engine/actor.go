package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"matchbook.com/internal/matching"
	"matchbook.com/pkg/logger"
	"matchbook.com/pkg/metrics"
)

type ActorConfig struct {
	MailboxSize int // mailbox 容量
	BatchMax    int // 一轮最多处理多少条

	BlockOnFullBus bool // 事件总线满时阻塞 actor，而不是丢事件
}

// Actor 订单簿的唯一拥有者，所有命令经 mailbox 串行执行
type Actor struct {
	book OrderBook
	in   chan Command
	sink EventSink
	cfg  ActorConfig
	m    *metrics.Engine

	seq uint64 // 只在 Run 协程里读写

	mailboxFull uint64
	done        chan struct{}
	stopped     atomic.Bool
}

func NewActor(book OrderBook, sink EventSink, cfg ActorConfig, m *metrics.Engine) *Actor {
	if cfg.MailboxSize <= 0 {
		cfg.MailboxSize = 4096
	}
	if cfg.BatchMax <= 0 {
		cfg.BatchMax = 256
	}
	if m == nil {
		m = metrics.NewEngine()
	}
	return &Actor{
		book: book,
		in:   make(chan Command, cfg.MailboxSize),
		sink: sink,
		cfg:  cfg,
		m:    m,
		done: make(chan struct{}),
	}
}

// TryEnqueue mailbox 满了直接返回 ErrEngineBusy，用 chan 容量做背压
func (a *Actor) TryEnqueue(cmd Command) error {
	if a.stopped.Load() {
		return ErrStopped
	}
	select {
	case a.in <- cmd:
		return nil
	default:
		atomic.AddUint64(&a.mailboxFull, 1)
		a.m.MailboxFull.Inc()
		return ErrEngineBusy
	}
}

// Enqueue 阻塞直到入队、ctx 结束或 actor 退出
func (a *Actor) Enqueue(ctx context.Context, cmd Command) error {
	if a.stopped.Load() {
		return ErrStopped
	}
	select {
	case a.in <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-a.done:
		return ErrStopped
	}
}

func (a *Actor) MailboxFull() uint64 { return atomic.LoadUint64(&a.mailboxFull) }

// Done actor 退出后关闭
func (a *Actor) Done() <-chan struct{} { return a.done }

func (a *Actor) Run(ctx context.Context) {
	defer func() {
		a.stopped.Store(true)
		close(a.done)
		a.failPending()
		logger.Info(ctx, "actor stopped", zap.Uint64("seq", a.seq))
	}()
	logger.Info(ctx, "actor started",
		zap.Int("mailbox", a.cfg.MailboxSize),
		zap.Int("batch_max", a.cfg.BatchMax),
		zap.Bool("block_on_full_bus", a.cfg.BlockOnFullBus))

	// 复用 batch slice，避免每轮分配
	batch := make([]Command, 0, a.cfg.BatchMax)
	for {
		// 退出优先，不再接新命令
		if ctx.Err() != nil {
			return
		}
		var first Command
		// 先阻塞拿 1 条，再不阻塞地尽量多拿
		select {
		case <-ctx.Done():
			return
		case first = <-a.in:
		}
		batch = batch[:0]
		batch = append(batch, first)
		for len(batch) < a.cfg.BatchMax {
			select {
			case cmd := <-a.in:
				batch = append(batch, cmd)
			default:
				goto PROCESS
			}
		}
	PROCESS:
		for i := range batch {
			a.seq++
			a.apply(ctx, a.seq, batch[i])
			batch[i] = Command{} // 释放 reply/订单引用
		}
		a.observe()
	}
}

func (a *Actor) apply(ctx context.Context, seq uint64, cmd Command) {
	start := time.Now()
	emit := &busEmitter{sink: a.sink, m: a.m, seq: seq, block: a.cfg.BlockOnFullBus, ctx: ctx}

	var res result
	switch cmd.Type {
	case CmdSubmit:
		res.trades, res.err = a.book.Submit(cmd.ReqID, cmd.Order, emit)
	case CmdCancel:
		res.err = a.book.Cancel(cmd.ReqID, cmd.CancelOrderID, emit)
		// 未知订单：默认静默（没有事件），strict 模式返回 ErrOrderNotFound
		if (res.err == nil && emit.idx == 0) || errors.Is(res.err, matching.ErrOrderNotFound) {
			a.m.Cancels.WithLabelValues("not_found").Inc()
		}
	case CmdSnapshot:
		res.snap = a.book.Snapshot()
		res.snap.Seq = seq
	default:
		res.err = ErrBadCommand
		emit.Rejected(cmd.ReqID, cmd.Order.ID, ErrBadCommand)
	}
	a.m.ApplyDuration.Observe(time.Since(start).Seconds())

	if res.err != nil {
		logger.Debug(ctx, "command rejected",
			zap.Uint64("seq", seq),
			zap.Uint64("req_id", cmd.ReqID),
			zap.Stringer("cmd", cmd.Type),
			zap.Error(res.err))
	}
	if cmd.reply != nil {
		// reply 有 1 个缓冲，不会阻塞 actor
		cmd.reply <- res
	}
}

func (a *Actor) observe() {
	st := a.book.Stats()
	a.m.RestingOrders.Set(float64(st.Resting))
	a.m.Levels.WithLabelValues("bid").Set(float64(st.BidLevels))
	a.m.Levels.WithLabelValues("ask").Set(float64(st.AskLevels))
}

// failPending 退出时把还在 mailbox 里的同步调用回 ErrStopped
func (a *Actor) failPending() {
	for {
		select {
		case cmd := <-a.in:
			if cmd.reply != nil {
				cmd.reply <- result{err: ErrStopped}
			}
		default:
			return
		}
	}
}
