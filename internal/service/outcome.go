package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"carintel/internal/apperr"
)

// Outcome is the result of one external call. When the call failed, Value
// holds the fallback payload, Err holds the cause and Degraded is set.
type Outcome[T any] struct {
	Value    T
	Err      error
	Degraded bool
}

// attempt runs call once under timeout. Errors, timeouts and panics are all
// mapped to a degraded Outcome carrying fallback(err); nothing escapes.
func attempt[T any](
	ctx context.Context,
	logger *zap.Logger,
	name string,
	timeout time.Duration,
	fallback func(err error) T,
	call func(ctx context.Context) (T, error),
) (out Outcome[T]) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			out = degrade(logger, name, fallback, fmt.Errorf("panic: %v", r))
		}
	}()

	value, err := call(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s: %w", name, timeout, err)
		}
		return degrade(logger, name, fallback, err)
	}
	return Outcome[T]{Value: value}
}

func degrade[T any](logger *zap.Logger, name string, fallback func(error) T, err error) Outcome[T] {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		err = apperr.ServiceError(err, name+" failed")
	}
	logger.Warn("External call degraded", zap.String("call", name), zap.Error(err))
	return Outcome[T]{Value: fallback(err), Err: err, Degraded: true}
}
