package matching

import "sync"

// 同一价位的挂单，双向链表实现 FIFO。
// 节点地址稳定，订单索引直接指向节点，撤单 O(1) 摘链。
type priceLevel struct {
	price Price
	head  *orderNode // 最早的订单，时间优先级最高
	tail  *orderNode
	count int
	qty   uint64 // 该价位剩余总量
}

type orderNode struct {
	prev  *orderNode
	next  *orderNode
	order Order
	lv    *priceLevel // 所属价位
}

var orderNodePool = sync.Pool{
	New: func() any {
		return new(orderNode)
	},
}

func getNode(o Order, lv *priceLevel) *orderNode {
	n := orderNodePool.Get().(*orderNode)
	n.prev, n.next = nil, nil
	n.order = o
	n.lv = lv
	return n
}

func putNode(n *orderNode) {
	if n == nil {
		return
	}
	// 断引用，避免池子里的节点拖住链表
	*n = orderNode{}
	orderNodePool.Put(n)
}

// 新订单追加到队尾
func (l *priceLevel) pushBack(n *orderNode) {
	n.prev, n.next = l.tail, nil
	if l.tail != nil {
		l.tail.next = n
	} else {
		l.head = n
	}
	l.tail = n
	l.count++
	l.qty += uint64(n.order.Qty)
}

// 摘链，n 可以在链表任意位置
func (l *priceLevel) remove(n *orderNode) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		l.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		l.tail = n.prev
	}
	n.prev, n.next = nil, nil
	l.count--
	l.qty -= uint64(n.order.Qty)
}

// fill 扣减节点上的剩余量，调用方保证 q <= n.order.Qty
func (l *priceLevel) fill(n *orderNode, q uint32) {
	n.order.Qty -= q
	l.qty -= uint64(q)
}

func (l *priceLevel) empty() bool {
	return l.count == 0
}

func (l *priceLevel) snapshot(withOrders bool) LevelSnapshot {
	s := LevelSnapshot{Price: l.price, Qty: l.qty, Count: l.count}
	if withOrders {
		s.Orders = make([]Order, 0, l.count)
		for n := l.head; n != nil; n = n.next {
			s.Orders = append(s.Orders, n.order)
		}
	}
	return s
}
