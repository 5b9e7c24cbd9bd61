package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/segmentio/encoding/json"

	"matchbook.com/internal/engine"
	"matchbook.com/internal/matching"
)

// request 输入的一行，例如：
//
//	{"op":"submit","id":1,"side":"BUY","qty":100,"price":"10.25"}
//	{"op":"cancel","id":1}
//	{"op":"book"}
type request struct {
	Op    string          `json:"op"`
	ID    uint64          `json:"id"`
	Side  string          `json:"side,omitempty"`
	Qty   uint32          `json:"qty,omitempty"`
	Price json.RawMessage `json:"price,omitempty"` // "10.25" 或 10.25
}

func parseRequest(line []byte) (request, error) {
	var r request
	if err := json.Unmarshal(line, &r); err != nil {
		return request{}, fmt.Errorf("%w: %v", engine.ErrBadCommand, err)
	}
	r.Op = strings.ToLower(strings.TrimSpace(r.Op))
	return r, nil
}

func (r request) order(scale matching.PriceScale) (matching.Order, error) {
	side, err := matching.ParseSide(r.Side)
	if err != nil {
		return matching.Order{}, err
	}
	price, err := matching.ParsePrice(strings.Trim(string(r.Price), `"`), scale)
	if err != nil {
		return matching.Order{}, err
	}
	return matching.Order{ID: r.ID, Side: side, Qty: r.Qty, Price: price}, nil
}

type tradeOut struct {
	Type        string `json:"type"`
	TradeID     uint64 `json:"trade_id"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	Price       string `json:"price"`
	Qty         uint32 `json:"qty"`
	Aggressor   string `json:"aggressor"`
}

type rejectOut struct {
	Type  string `json:"type"`
	Line  int    `json:"line"`
	ID    uint64 `json:"id,omitempty"`
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type orderOut struct {
	ID  uint64 `json:"id"`
	Qty uint32 `json:"qty"`
}

type levelOut struct {
	Price  string     `json:"price"`
	Qty    uint64     `json:"qty"`
	Orders []orderOut `json:"orders"`
}

type bookOut struct {
	Type string     `json:"type"`
	Seq  uint64     `json:"seq"`
	Bids []levelOut `json:"bids"`
	Asks []levelOut `json:"asks"`
}

type replayStats struct {
	Lines     int
	Submitted int
	Cancelled int
	Rejected  int
	Trades    int
}

// replayer 逐行把命令喂给 engine，结果写成 JSON lines
type replayer struct {
	eng   *engine.Engine
	scale matching.PriceScale
	enc   *json.Encoder
	stats replayStats
}

func newReplayer(eng *engine.Engine, scale matching.PriceScale, out io.Writer) *replayer {
	return &replayer{eng: eng, scale: scale, enc: json.NewEncoder(out)}
}

// run 只有 engine 停了、ctx 结束或读/写失败才返回错误，单行的问题输出 reject 后继续
func (r *replayer) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for line := 1; sc.Scan(); line++ {
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}
		r.stats.Lines++
		req, err := parseRequest(text)
		if err != nil {
			if err := r.reject(line, 0, err); err != nil {
				return err
			}
			continue
		}
		if err := r.do(ctx, line, req); err != nil {
			return err
		}
	}
	return sc.Err()
}

func (r *replayer) do(ctx context.Context, line int, req request) error {
	switch req.Op {
	case "submit", "add":
		o, err := req.order(r.scale)
		if err != nil {
			return r.reject(line, req.ID, err)
		}
		trades, err := r.eng.Submit(ctx, o)
		if err != nil {
			return r.fail(ctx, line, req.ID, err)
		}
		r.stats.Submitted++
		for _, t := range trades {
			r.stats.Trades++
			if err := r.enc.Encode(r.trade(t)); err != nil {
				return err
			}
		}
		return nil
	case "cancel":
		if err := r.eng.Cancel(ctx, req.ID); err != nil {
			return r.fail(ctx, line, req.ID, err)
		}
		r.stats.Cancelled++
		return nil
	case "book":
		snap, err := r.eng.Snapshot(ctx)
		if err != nil {
			return err
		}
		return r.book(snap)
	default:
		return r.reject(line, req.ID, fmt.Errorf("%w: op %q", engine.ErrBadCommand, req.Op))
	}
}

// fail 引擎不可用时中断，其余错误按行拒绝
func (r *replayer) fail(ctx context.Context, line int, id uint64, err error) error {
	if errors.Is(err, engine.ErrStopped) || ctx.Err() != nil {
		return err
	}
	return r.reject(line, id, err)
}

func (r *replayer) reject(line int, id uint64, err error) error {
	r.stats.Rejected++
	return r.enc.Encode(rejectOut{
		Type:  "reject",
		Line:  line,
		ID:    id,
		Code:  engine.CodeOf(err),
		Error: err.Error(),
	})
}

func (r *replayer) trade(t matching.Trade) tradeOut {
	return tradeOut{
		Type:        "trade",
		TradeID:     t.TradeID,
		BuyOrderID:  t.BuyOrderID,
		SellOrderID: t.SellOrderID,
		Price:       t.Price.Format(r.scale),
		Qty:         t.Qty,
		Aggressor:   t.AggressorSide.String(),
	}
}

func (r *replayer) book(s engine.Snapshot) error {
	return r.enc.Encode(bookOut{
		Type: "book",
		Seq:  s.Seq,
		Bids: r.levels(s.Bids),
		Asks: r.levels(s.Asks),
	})
}

func (r *replayer) levels(src []matching.LevelSnapshot) []levelOut {
	out := make([]levelOut, 0, len(src))
	for _, lv := range src {
		l := levelOut{Price: lv.Price.Format(r.scale), Qty: lv.Qty, Orders: make([]orderOut, 0, len(lv.Orders))}
		for _, o := range lv.Orders {
			l.Orders = append(l.Orders, orderOut{ID: o.ID, Qty: o.Qty})
		}
		out = append(out, l)
	}
	return out
}
