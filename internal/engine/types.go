package engine

import (
	"errors"

	"matchbook.com/internal/matching"
)

// 定义命令类型
type CmdType uint8

const (
	CmdSubmit   CmdType = iota + 1 // 提交限价单
	CmdCancel                      // 撤单
	CmdSnapshot                    // 取盘口快照
)

func (t CmdType) String() string {
	switch t {
	case CmdSubmit:
		return "submit"
	case CmdCancel:
		return "cancel"
	case CmdSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Command 入队即返回；reply 非空时 actor 执行完把结果写回（同步调用用）
type Command struct {
	Type  CmdType
	ReqID uint64 // 上游追踪用，0 时 engine 自动分配

	Order         matching.Order // CmdSubmit
	CancelOrderID uint64         // CmdCancel

	reply chan<- result
}

type result struct {
	trades []matching.Trade
	snap   Snapshot
	err    error
}

type EventType uint8

const (
	EvAccepted  EventType = iota + 1 // 通过校验
	EvRejected                       // 拒绝
	EvAdded                          // 剩余部分挂入订单簿
	EvCancelled                      // 撤单成功
	EvTrade                          // 成交
)

func (t EventType) String() string {
	switch t {
	case EvAccepted:
		return "accepted"
	case EvRejected:
		return "rejected"
	case EvAdded:
		return "added"
	case EvCancelled:
		return "cancelled"
	case EvTrade:
		return "trade"
	default:
		return "unknown"
	}
}

type Event struct {
	Type EventType

	// actor 内单调递增，一条命令产生的所有事件共用一个 Seq
	Seq   uint64
	ReqID uint64
	Idx   uint32 // 同一 Seq 内的事件序号，一次扫单可能产生很多事件

	OrderID uint64
	Side    matching.Side
	Price   matching.Price
	Qty     uint32 // EvAdded：挂入数量

	Trade matching.Trade // EvTrade

	// EvRejected
	Code   int
	Reason string
}

// Snapshot 某个 Seq 之后的完整盘口
type Snapshot struct {
	Seq  uint64
	Bids []matching.LevelSnapshot
	Asks []matching.LevelSnapshot
}

// BookStats 给 gauge 用
type BookStats struct {
	Resting   int
	BidLevels int
	AskLevels int
}

// 定义错误
var (
	ErrEngineBusy = errors.New("engine busy: mailbox full")
	ErrStopped    = errors.New("engine stopped")
	ErrNotStarted = errors.New("engine not started")
	ErrBadCommand = errors.New("bad command")
)
