package matching

import (
	"fmt"
	"strings"
)

// Side 买卖方向
type Side uint8

const (
	Buy Side = iota + 1
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return fmt.Sprintf("Side(%d)", uint8(s))
	}
}

// Opposite 对手方向
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// ParseSide 接受 BUY/SELL、buy/sell、b/s、bid/ask
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b", "bid":
		return Buy, nil
	case "sell", "s", "ask":
		return Sell, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSide, s)
}

// Order 一笔限价单。ID 由调用方分配，挂单期间唯一；Qty 是剩余未成交数量。
type Order struct {
	ID    uint64
	Side  Side
	Qty   uint32
	Price Price
}

// Validate 入簿前的边界校验，拒绝 0 数量、非正价格和未知方向
func (o Order) Validate() error {
	if o.Side != Buy && o.Side != Sell {
		return fmt.Errorf("%w: order %d side %d", ErrInvalidSide, o.ID, uint8(o.Side))
	}
	if o.Qty == 0 {
		return fmt.Errorf("%w: order %d", ErrInvalidQty, o.ID)
	}
	if o.Price <= 0 {
		return fmt.Errorf("%w: order %d price %d", ErrInvalidPrice, o.ID, int64(o.Price))
	}
	return nil
}

// Trade 一次撮合的成交记录，生成后不再修改。
// Price 永远是挂单方（maker）的价格。
type Trade struct {
	TradeID     uint64
	BuyOrderID  uint64
	SellOrderID uint64
	Price       Price
	Qty         uint32
	// 主动方方向，用来区分 taker/maker
	AggressorSide Side
}

// TakerID 主动成交的订单
func (t Trade) TakerID() uint64 {
	if t.AggressorSide == Sell {
		return t.SellOrderID
	}
	return t.BuyOrderID
}

// MakerID 被动成交（挂单）的订单
func (t Trade) MakerID() uint64 {
	if t.AggressorSide == Sell {
		return t.BuyOrderID
	}
	return t.SellOrderID
}
