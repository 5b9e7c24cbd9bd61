package matching

import "github.com/google/btree"

const btreeDegree = 32

// bookSide 一侧盘口：btree 维护价位顺序，map 做精确价位查找。
// 买盘从高到低，卖盘从低到高，所以 Min 永远是最优价。
type bookSide struct {
	side   Side
	tree   *btree.BTreeG[*priceLevel]
	levels map[Price]*priceLevel
}

func newBookSide(side Side) *bookSide {
	less := func(a, b *priceLevel) bool { return a.price < b.price }
	if side == Buy {
		less = func(a, b *priceLevel) bool { return a.price > b.price }
	}
	return &bookSide{
		side:   side,
		tree:   btree.NewG[*priceLevel](btreeDegree, less),
		levels: make(map[Price]*priceLevel, 256),
	}
}

// best 最优价位，空盘返回 nil
func (s *bookSide) best() *priceLevel {
	lv, ok := s.tree.Min()
	if !ok {
		return nil
	}
	return lv
}

// levelFor 取价位，不存在就新建
func (s *bookSide) levelFor(price Price) *priceLevel {
	if lv := s.levels[price]; lv != nil {
		return lv
	}
	lv := &priceLevel{price: price}
	s.levels[price] = lv
	s.tree.ReplaceOrInsert(lv)
	return lv
}

// drop 价位清空后立刻删除
func (s *bookSide) drop(lv *priceLevel) {
	delete(s.levels, lv.price)
	s.tree.Delete(lv)
}

func (s *bookSide) empty() bool {
	return s.tree.Len() == 0
}

func (s *bookSide) depth() int {
	return s.tree.Len()
}

// walk 从最优价开始遍历，fn 返回 false 停止
func (s *bookSide) walk(fn func(*priceLevel) bool) {
	s.tree.Ascend(fn)
}

func (s *bookSide) snapshot(limit int, withOrders bool) []LevelSnapshot {
	n := s.tree.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LevelSnapshot, 0, n)
	s.walk(func(lv *priceLevel) bool {
		if len(out) == n {
			return false
		}
		out = append(out, lv.snapshot(withOrders))
		return true
	})
	return out
}

// crosses 价格为 price 的 taker 能否和最优价 best 成交。
// 等价永远可以成交：买单 >=，卖单 <=。
func crosses(taker Side, price, best Price) bool {
	if taker == Buy {
		return price >= best
	}
	return price <= best
}
