package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "matchbook"

// Engine 撮合引擎的指标，一个 engine 一份
type Engine struct {
	OrdersAccepted prometheus.Counter
	OrdersRejected *prometheus.CounterVec // reason
	OrdersRested   prometheus.Counter
	Trades         prometheus.Counter
	TradedQty      prometheus.Counter
	Cancels        *prometheus.CounterVec // result: cancelled/not_found
	MailboxFull    prometheus.Counter
	EventsDropped  prometheus.Counter

	RestingOrders prometheus.Gauge
	Levels        *prometheus.GaugeVec // side: bid/ask

	ApplyDuration prometheus.Histogram
}

func NewEngine() *Engine {
	return &Engine{
		OrdersAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_accepted_total",
			Help:      "Orders accepted by the matching engine.",
		}),
		OrdersRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rejected_total",
			Help:      "Orders rejected at the engine boundary.",
		}, []string{"reason"}),
		OrdersRested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_rested_total",
			Help:      "Orders (or remainders) added to the book.",
		}),
		Trades: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Trades produced.",
		}),
		TradedQty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "traded_quantity_total",
			Help:      "Sum of traded quantity.",
		}),
		Cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancels_total",
			Help:      "Cancel requests by result.",
		}, []string{"result"}),
		MailboxFull: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_full_total",
			Help:      "Commands refused because the actor mailbox was full.",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Events dropped because the event bus was full.",
		}),
		RestingOrders: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resting_orders",
			Help:      "Orders currently resting in the book.",
		}),
		Levels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_levels",
			Help:      "Non-empty price levels per side.",
		}, []string{"side"}),
		ApplyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_apply_seconds",
			Help:      "Time to apply one command to the book.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 12), // 100ns ~ 0.4s
		}),
	}
}

// Collectors 方便一次性注册
func (m *Engine) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OrdersAccepted, m.OrdersRejected, m.OrdersRested,
		m.Trades, m.TradedQty, m.Cancels, m.MailboxFull, m.EventsDropped,
		m.RestingOrders, m.Levels, m.ApplyDuration,
	}
}

// MustRegister 注册到 reg，nil 时注册到默认 registry
func (m *Engine) MustRegister(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.Collectors()...)
}
