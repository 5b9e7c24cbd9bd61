package engine

import (
	"context"
	"errors"

	"matchbook.com/internal/matching"
	"matchbook.com/pkg/xerr"
)

// CodeOf 把引擎/订单簿错误映射成 xerr 错误码
func CodeOf(err error) int {
	switch {
	case err == nil:
		return xerr.OK
	case errors.Is(err, matching.ErrInvalidSide),
		errors.Is(err, matching.ErrInvalidQty),
		errors.Is(err, matching.ErrInvalidPrice),
		errors.Is(err, matching.ErrPriceNotOnTick),
		errors.Is(err, ErrBadCommand):
		return xerr.RequestParamsError
	case errors.Is(err, matching.ErrDuplicateOrderID):
		return xerr.Conflict
	case errors.Is(err, matching.ErrOrderNotFound):
		return xerr.RecordNotFound
	case errors.Is(err, ErrEngineBusy):
		return xerr.Busy
	case errors.Is(err, ErrStopped),
		errors.Is(err, ErrNotStarted),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return xerr.Unavailable
	default:
		return xerr.CodeOf(err)
	}
}

// reason 指标 label，取值有限
func reason(err error) string {
	switch {
	case errors.Is(err, matching.ErrInvalidSide):
		return "invalid_side"
	case errors.Is(err, matching.ErrInvalidQty):
		return "invalid_qty"
	case errors.Is(err, matching.ErrInvalidPrice), errors.Is(err, matching.ErrPriceNotOnTick):
		return "invalid_price"
	case errors.Is(err, matching.ErrDuplicateOrderID):
		return "duplicate_id"
	case errors.Is(err, matching.ErrOrderNotFound):
		return "not_found"
	case errors.Is(err, ErrBadCommand):
		return "bad_command"
	default:
		return "other"
	}
}
