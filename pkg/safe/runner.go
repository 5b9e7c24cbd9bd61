package safe

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"matchbook.com/pkg/logger"
)

// Go 安全启动协程：panic 被 recover 并记录日志，返回的 channel 在 fn 结束（含 panic）后关闭
func Go(name string, fn func()) <-chan struct{} {
	return GoCtx(context.Background(), name, func(context.Context) { fn() })
}

// GoCtx 携带 ctx 启动，日志里保留 trace id
func GoCtx(ctx context.Context, name string, fn func(ctx context.Context)) <-chan struct{} {
	if ctx == nil {
		ctx = context.Background()
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer Recover(ctx, name)
		fn(ctx)
	}()
	return done
}

// Recover 在 defer 中调用
func Recover(ctx context.Context, name string) {
	if r := recover(); r != nil {
		logger.Error(ctx, "goroutine panic recovered",
			zap.String("goroutine", name),
			zap.String("panic", fmt.Sprint(r)),
			zap.ByteString("stack", debug.Stack()),
		)
	}
}
