package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Price 以最小跳动单位（tick）计的整数价格。
// 价位的归属和是否可成交都用整数比较，避免浮点误差把同一价位拆成两个。
type Price int64

// PriceScale 一个 tick 对应的小数位数，例如 2 表示 1 tick = 0.01
type PriceScale int32

const DefaultPriceScale PriceScale = 4

var maxPrice = decimal.NewFromInt(math.MaxInt64)

// ParsePrice 把十进制字符串转成 tick；精度超过 scale 的报 ErrPriceNotOnTick
func ParsePrice(s string, scale PriceScale) (Price, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return fromDecimal(d, scale, true)
}

// PriceFromFloat 按四舍五入落到最近的 tick
func PriceFromFloat(f float64, scale PriceScale) (Price, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, f)
	}
	return fromDecimal(decimal.NewFromFloat(f), scale, false)
}

// MustPrice 测试和常量用
func MustPrice(s string, scale PriceScale) Price {
	p, err := ParsePrice(s, scale)
	if err != nil {
		panic(err)
	}
	return p
}

func fromDecimal(d decimal.Decimal, scale PriceScale, exact bool) (Price, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s", ErrInvalidPrice, d)
	}
	ticks := d.Shift(int32(scale))
	if exact && !ticks.Equal(ticks.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s at scale %d", ErrPriceNotOnTick, d, scale)
	}
	ticks = ticks.Round(0)
	if ticks.GreaterThan(maxPrice) {
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidPrice, d)
	}
	return Price(ticks.IntPart()), nil
}

// Decimal 还原成十进制价格
func (p Price) Decimal(scale PriceScale) decimal.Decimal {
	return decimal.New(int64(p), -int32(scale))
}

// Format 固定 scale 位小数
func (p Price) Format(scale PriceScale) string {
	return p.Decimal(scale).StringFixed(int32(scale))
}
