package watch

import (
	"context"
	"log/slog"

	applog "expensetracker/internal/log"
)

// Query re-runs fn every time trigger changes and delivers each result on the
// returned channel, starting with the result for the current state. The
// channel is closed when ctx is done. Failed runs are logged and skipped.
func Query[S, T any](ctx context.Context, trigger *Value[S], fn func(context.Context) (T, error)) <-chan T {
	out := make(chan T)
	sub := trigger.Subscribe()

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.C():
				if !ok {
					return
				}
				result, err := fn(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					slog.ErrorContext(ctx, "Observed query failed",
						applog.FieldComponent, applog.ComponentStorage,
						applog.FieldError, err.Error())
					continue
				}
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}
