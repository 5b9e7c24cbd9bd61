package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"matchbook.com/internal/matching"
	"matchbook.com/pkg/logger"
	"matchbook.com/pkg/metrics"
	"matchbook.com/pkg/safe"
)

type Config struct {
	StrictCancel bool // 撤未知订单是否报错
	MailboxSize  int
	BatchMax     int
	EventBusSize int
	// 事件总线满时 actor 等待消费者，不丢事件；消费者必须一直在读
	BlockOnFullBus bool
}

type Option func(*Engine)

// WithMetrics 使用外部创建（已注册）的指标
func WithMetrics(m *metrics.Engine) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithBook 替换订单簿实现
func WithBook(b OrderBook) Option {
	return func(e *Engine) { e.book = b }
}

// WithTradeIDs 注入成交号生成器，WithBook 时无效
func WithTradeIDs(seq matching.Sequence) Option {
	return func(e *Engine) { e.tradeIDs = seq }
}

// Engine 单品种撮合引擎：一个 actor 串行持有订单簿，外部并发安全
type Engine struct {
	cfg      Config
	book     OrderBook
	tradeIDs matching.Sequence
	metrics  *metrics.Engine
	bus      *ChanBus
	actor    *Actor

	reqID     atomic.Uint64
	started   atomic.Bool
	startOnce sync.Once
	cancel    context.CancelFunc
	done      <-chan struct{}
}

func New(cfg Config, opts ...Option) *Engine {
	if cfg.EventBusSize <= 0 {
		cfg.EventBusSize = 1 << 16
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.NewEngine()
	}
	if e.book == nil {
		e.book = NewBookAdapter(matching.NewOrderBook(
			matching.WithStrictCancel(cfg.StrictCancel),
			matching.WithTradeIDs(e.tradeIDs),
		))
	}
	e.bus = NewChanBus(cfg.EventBusSize)
	e.actor = NewActor(e.book, e.bus, ActorConfig{
		MailboxSize:    cfg.MailboxSize,
		BatchMax:       cfg.BatchMax,
		BlockOnFullBus: cfg.BlockOnFullBus,
	}, e.metrics)
	return e
}

// Start 启动 actor，重复调用无效。ctx 结束等同于 Stop
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		ctx, e.cancel = context.WithCancel(ctx)
		e.done = safe.GoCtx(ctx, "matchbook-actor", e.actor.Run)
		e.started.Store(true)
		logger.Info(ctx, "engine started",
			zap.Bool("strict_cancel", e.cfg.StrictCancel),
			zap.Int("event_bus", e.cfg.EventBusSize),
			zap.Bool("block_on_full_bus", e.cfg.BlockOnFullBus))
	})
}

// Stop 停止 actor，已入队未执行的同步调用返回 ErrStopped
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// Wait 等 actor 退出，未 Start 时直接返回
func (e *Engine) Wait() {
	if e.done != nil {
		<-e.done
	}
}

// Events 事件流，慢消费者会丢事件（见 DroppedEvents）；BlockOnFullBus 时改为拖慢 actor
func (e *Engine) Events() <-chan Event { return e.bus.C() }

func (e *Engine) DroppedEvents() uint64 { return e.bus.Dropped() }

func (e *Engine) MailboxFull() uint64 { return e.actor.MailboxFull() }

func (e *Engine) Metrics() *metrics.Engine { return e.metrics }

// TrySubmit 入队即返回，结果只通过事件获得
func (e *Engine) TrySubmit(reqID uint64, o matching.Order) error {
	return e.actor.TryEnqueue(Command{Type: CmdSubmit, ReqID: e.nextReq(reqID), Order: o})
}

func (e *Engine) TryCancel(reqID, orderID uint64) error {
	return e.actor.TryEnqueue(Command{Type: CmdCancel, ReqID: e.nextReq(reqID), CancelOrderID: orderID})
}

// Submit 等 actor 执行完，返回本单产生的成交
func (e *Engine) Submit(ctx context.Context, o matching.Order) ([]matching.Trade, error) {
	res, err := e.call(ctx, Command{Type: CmdSubmit, Order: o})
	if err != nil {
		return nil, err
	}
	return res.trades, nil
}

func (e *Engine) Cancel(ctx context.Context, orderID uint64) error {
	_, err := e.call(ctx, Command{Type: CmdCancel, CancelOrderID: orderID})
	return err
}

// Snapshot 在 actor 内取快照，和前后命令严格有序
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	res, err := e.call(ctx, Command{Type: CmdSnapshot})
	if err != nil {
		return Snapshot{}, err
	}
	return res.snap, nil
}

// call 同步调用必须在 Start 之后，否则没有人会回复
func (e *Engine) call(ctx context.Context, cmd Command) (result, error) {
	if !e.started.Load() {
		return result{}, ErrNotStarted
	}
	reply := make(chan result, 1)
	cmd.reply = reply
	cmd.ReqID = e.nextReq(cmd.ReqID)

	if err := e.actor.Enqueue(ctx, cmd); err != nil {
		return result{}, err
	}
	select {
	case res := <-reply:
		return res, res.err
	case <-ctx.Done():
		return result{}, ctx.Err()
	case <-e.actor.Done():
		// actor 退出前可能已经写了 reply
		select {
		case res := <-reply:
			return res, res.err
		default:
			return result{}, ErrStopped
		}
	}
}

func (e *Engine) nextReq(reqID uint64) uint64 {
	if reqID != 0 {
		return reqID
	}
	return e.reqID.Add(1)
}
