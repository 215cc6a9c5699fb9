package kafka

import (
	"context"
	"time"
)

// Batch groups values from in and hands them to flush when size is reached or
// timeout passes with a partial batch pending. When ctx is done, values already
// buffered in in are drained and flushed with the remainder; flushes after
// cancellation get a context that is not cancelled.
func Batch[T any](ctx context.Context, in <-chan T, size int, timeout time.Duration, flush func(context.Context, []T)) {
	if size < 1 {
		size = 1
	}
	var batch []T
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	emit := func() {
		if len(batch) == 0 {
			return
		}
		flushCtx := ctx
		if flushCtx.Err() != nil {
			flushCtx = context.WithoutCancel(flushCtx)
		}
		flush(flushCtx, batch)
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case v, ok := <-in:
					if !ok {
						emit()
						return
					}
					batch = append(batch, v)
					if len(batch) >= size {
						emit()
					}
				default:
					emit()
					return
				}
			}

		case v, ok := <-in:
			if !ok {
				emit()
				return
			}
			batch = append(batch, v)
			if len(batch) >= size {
				emit()
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(timeout)
			}

		case <-timer.C:
			emit()
			timer.Reset(timeout)
		}
	}
}
