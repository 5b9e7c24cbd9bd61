package xerr

import (
	"errors"
	"fmt"
)

// 常用错误码定义
const (
	OK                 = 200
	RequestParamsError = 400
	RecordNotFound     = 404
	Conflict           = 409
	Busy               = 429
	ServerCommonError  = 500
	Unavailable        = 503
)

type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	err  error
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("ErrCode:%d, Msg:%s", e.Code, e.Msg)
}

func (e *CodeError) Unwrap() error { return e.err }

func New(code int, msg string) error {
	return &CodeError{Code: code, Msg: msg}
}

func NewErrCode(code int) error {
	return &CodeError{Code: code, Msg: MapErrMsg(code)}
}

// Wrap 给底层错误挂一个码，errors.Is 仍然能匹配到 err
func Wrap(code int, err error) error {
	if err == nil {
		return nil
	}
	return &CodeError{Code: code, Msg: err.Error(), err: err}
}

// CodeOf 取错误码，nil 返回 OK，没有码的错误返回 ServerCommonError
func CodeOf(err error) int {
	if err == nil {
		return OK
	}
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ServerCommonError
}

func MapErrMsg(code int) string {
	switch code {
	case OK:
		return "ok"
	case RequestParamsError:
		return "invalid request"
	case RecordNotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Busy:
		return "busy, retry later"
	case Unavailable:
		return "unavailable"
	case ServerCommonError:
		return "internal error"
	default:
		return "unknown error"
	}
}
