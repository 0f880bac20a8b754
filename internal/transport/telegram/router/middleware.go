package router

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	kit "github.com/Dmitry77701/saudi-football-bot-advanced/internal/transport"
	logx "github.com/Dmitry77701/saudi-football-bot-advanced/pkg/logx"
)

// GenericErrorText is shown to users when a handler fails.
const GenericErrorText = "❌ Произошла ошибка. Попробуйте позже."

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

func MWTimeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			if d <= 0 {
				return next(ctx, req)
			}
			cctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(cctx, req)
		}
	}
}

func MWPanicRecover(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger := log
					if req != nil && !req.Logger.IsZero() {
						logger = req.Logger
					}
					logger.Error("panic recovered",
						logx.Any("panic", r),
						logx.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("panic: %v", r)
				}
			}()
			return next(ctx, req)
		}
	}
}

func MWRequestLog(log logx.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			start := time.Now()
			logger := log
			if req != nil && !req.Logger.IsZero() {
				logger = req.Logger
			}
			err := next(ctx, req)
			d := time.Since(start)

			fields := []logx.Field{
				logx.String("kind", string(req.Update.Kind)),
				logx.Int64("chat_id", req.Chat.ChatID),
				logx.Int64("from_id", req.FromID),
				logx.String("cmd", req.Command),
				logx.Duration("dur", d),
			}
			if err != nil {
				logger.Warn("request failed", append(fields, logx.Err(err))...)
			} else {
				if d >= 750*time.Millisecond {
					logger.Info("request ok", fields...)
				} else {
					logger.Debug("request ok", fields...)
				}
			}
			return err
		}
	}
}

// MWErrorReply answers a failed request with GenericErrorText. Callback
// requests get the text as a toast, commands as a reply message.
func MWErrorReply() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) error {
			err := next(ctx, req)
			if err == nil || req == nil || req.Adapter == nil {
				return err
			}
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return err
			}
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			var rerr error
			if req.IsCallback() {
				rerr = req.Adapter.AnswerCallback(rctx, req.Update.Callback.ID, GenericErrorText)
			} else {
				_, rerr = req.Adapter.SendText(rctx, req.Chat, GenericErrorText, &kit.SendOptions{})
			}
			if rerr != nil && !req.Logger.IsZero() {
				req.Logger.Debug("error reply failed", logx.Err(rerr))
			}
			return err
		}
	}
}
